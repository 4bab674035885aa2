package handler

import (
	"context"
	"database/sql"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/escapeeng/admin-gateway/internal/auth"
	"github.com/escapeeng/admin-gateway/internal/config"
	"github.com/escapeeng/admin-gateway/internal/middleware"
	"github.com/escapeeng/admin-gateway/internal/model"
	"github.com/escapeeng/admin-gateway/internal/repository"
)

// UserHandler serves the admin user management API. Every route here
// sits behind the gate with the admin role, so handlers can trust the
// claims the gate stored in context.
type UserHandler struct {
	Cfg   config.Config
	Users UserStore
}

func NewUserHandler(cfg config.Config, u UserStore) *UserHandler {
	return &UserHandler{Cfg: cfg, Users: u}
}

type createUserReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

type updateProfileReq struct {
	Name string `json:"name"`
}

type changePasswordReq struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// List returns all admin users.
func (h *UserHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	users, err := h.Users.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "query failed"})
	}
	out := make([]userPart, 0, len(users))
	for _, u := range users {
		out = append(out, toUserPart(u))
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "users": out})
}

// Create provisions a new admin user through the API. The same
// operation exists out of band via adminctl.
func (h *UserHandler) Create(c echo.Context) error {
	var req createUserReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" || req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "email/password/name required"})
	}
	role, err := model.ParseRole(req.Role)
	if err != nil {
		role = model.RoleAdmin
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	id, err := h.Users.Create(ctx, req.Email, req.Password, req.Name, role, h.Cfg.BcryptCost)
	if err != nil {
		if err == repository.ErrEmailExists {
			return c.JSON(http.StatusConflict, echo.Map{"success": false, "error": "email already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "create user failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "user": userPart{
		ID: id, Email: req.Email, Name: req.Name, Role: role,
	}})
}

// UpdateProfile changes the calling user's display name.
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	claims := middleware.CurrentClaims(c)
	if claims == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "error": auth.ErrUnauthenticated.Error()})
	}
	var req updateProfileReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "name required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.Users.UpdateProfile(ctx, claims.UserID, strings.TrimSpace(req.Name)); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "update failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// ChangePassword replaces the calling user's password after verifying
// the current one.
func (h *UserHandler) ChangePassword(c echo.Context) error {
	claims := middleware.CurrentClaims(c)
	if claims == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "error": auth.ErrUnauthenticated.Error()})
	}
	var req changePasswordReq
	if err := c.Bind(&req); err != nil || req.CurrentPassword == "" || req.NewPassword == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "current_password/new_password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	u, err := h.Users.GetByID(ctx, claims.UserID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "query failed"})
	}
	if !auth.VerifyPassword(u.PasswordHash, req.CurrentPassword) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "error": auth.ErrInvalidCredentials.Error()})
	}
	if err := h.Users.UpdatePassword(ctx, claims.UserID, req.NewPassword, h.Cfg.BcryptCost); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "update failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// Delete removes an admin user by id. Self-deletion is forbidden:
// an admin must not be able to lock the dashboard by removing the
// account they are logged in with.
func (h *UserHandler) Delete(c echo.Context) error {
	claims := middleware.CurrentClaims(c)
	if claims == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "error": auth.ErrUnauthenticated.Error()})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "invalid user id"})
	}
	if id == claims.UserID {
		return c.JSON(http.StatusForbidden, echo.Map{"success": false, "error": "cannot delete own account"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.Users.Delete(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"success": false, "error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "delete failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}
