package handler

import (
	"context"      // context with timeout bounds every DB call
	"database/sql" // sentinel sql.ErrNoRows for missing users
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/escapeeng/admin-gateway/internal/auth"
	"github.com/escapeeng/admin-gateway/internal/config"
	"github.com/escapeeng/admin-gateway/internal/metrics"
	"github.com/escapeeng/admin-gateway/internal/model"
	"github.com/escapeeng/admin-gateway/internal/queue"
	queue_publisher "github.com/escapeeng/admin-gateway/internal/service"
)

// SessionCookieName is the cookie carrying the signed session token.
const SessionCookieName = "admin_token"

// dbTimeout bounds every database call made from a handler.
const dbTimeout = 5 * time.Second

// UserStore is the slice of the user repository the handlers need.
// Declaring it here keeps handlers testable against in-memory fakes.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (model.AdminUser, error)
	GetByID(ctx context.Context, id uint64) (model.AdminUser, error)
	List(ctx context.Context) ([]model.AdminUser, error)
	Create(ctx context.Context, email, password, name string, role model.Role, cost int) (uint64, error)
	TouchLastLogin(ctx context.Context, id uint64) error
	UpdateProfile(ctx context.Context, id uint64, name string) error
	UpdatePassword(ctx context.Context, id uint64, password string, cost int) error
	Delete(ctx context.Context, id uint64) error
}

// SessionStore persists issued sessions for revocation and auditing.
type SessionStore interface {
	Create(ctx context.Context, s model.Session) error
	DeleteBySessionID(ctx context.Context, sessionID string) error
	Exists(ctx context.Context, sessionID string) (bool, error)
	ListActive(ctx context.Context) ([]model.Session, error)
}

// AuthHandler bundles dependencies for the login/logout/me endpoints.
type AuthHandler struct {
	Cfg      config.Config
	Users    UserStore
	Sessions SessionStore
}

func NewAuthHandler(cfg config.Config, u UserStore, s SessionStore) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Sessions: s}
}

// ----- DTOs -----

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userPart struct {
	ID        uint64     `json:"id"`
	Email     string     `json:"email"`
	Name      string     `json:"name"`
	Role      model.Role `json:"role"`
	LastLogin *time.Time `json:"last_login,omitempty"`
}

func toUserPart(u model.AdminUser) userPart {
	return userPart{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role, LastLogin: u.LastLogin}
}

// Login verifies credentials, persists a session row and sets the
// session cookie. The session row is written before the token is
// released: a store failure aborts the login with 500 so that every
// live token stays revocable.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "email/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if err == sql.ErrNoRows {
			// Same response as a wrong password: the endpoint never
			// reveals whether an email exists.
			return h.loginRejected(c, req.Email)
		}
		metrics.Logins.WithLabelValues("store_error").Inc()
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "query failed"})
	}
	if !auth.VerifyPassword(u.PasswordHash, req.Password) {
		return h.loginRejected(c, req.Email)
	}

	issued, err := auth.Issue(h.Cfg.JWTSecret, u, h.Cfg.SessionTTL)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "issue token failed"})
	}
	if err := h.Sessions.Create(ctx, issued.Session); err != nil {
		metrics.Logins.WithLabelValues("store_error").Inc()
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": auth.ErrStoreUnavailable.Error()})
	}
	if err := h.Users.TouchLastLogin(ctx, u.ID); err != nil {
		log.Printf("auth: update last_login for user %d failed: %v", u.ID, err)
	}

	c.SetCookie(h.sessionCookie(issued.Token, issued.Session.ExpiresAt))

	metrics.Logins.WithLabelValues("success").Inc()
	h.publish(queue.AuthEvent{
		Type:      queue.EventLogin,
		UserID:    u.ID,
		Email:     u.Email,
		SessionID: issued.Session.SessionID,
		RemoteIP:  c.RealIP(),
		At:        time.Now().UTC().Format(time.RFC3339),
	})

	return c.JSON(http.StatusOK, echo.Map{"success": true, "user": toUserPart(u)})
}

// Logout deletes the session row (best effort) and clears the cookie.
// The cookie is cleared unconditionally, before the store is touched,
// so a store outage can never leave the browser logged in; the outage
// itself is still surfaced as a 500.
func (h *AuthHandler) Logout(c echo.Context) error {
	c.SetCookie(h.expiredCookie())

	raw := ""
	if ck, err := c.Cookie(SessionCookieName); err == nil {
		raw = ck.Value
	}
	claims, err := auth.VerifyToken(h.Cfg.JWTSecret, raw)
	if err != nil {
		// No usable token means no row to delete. The cookie is already
		// cleared, which is all this caller can still want.
		return c.JSON(http.StatusOK, echo.Map{"success": true})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.Sessions.DeleteBySessionID(ctx, claims.SessionID); err != nil {
		metrics.Logouts.WithLabelValues("store_error").Inc()
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": auth.ErrStoreUnavailable.Error()})
	}

	metrics.Logouts.WithLabelValues("success").Inc()
	h.publish(queue.AuthEvent{
		Type:      queue.EventLogout,
		UserID:    claims.UserID,
		Email:     claims.Email,
		SessionID: claims.SessionID,
		RemoteIP:  c.RealIP(),
		At:        time.Now().UTC().Format(time.RFC3339),
	})
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// Me reports the current user derived entirely from verifying the
// cookie token; no store round trip happens here.
func (h *AuthHandler) Me(c echo.Context) error {
	raw := ""
	if ck, err := c.Cookie(SessionCookieName); err == nil {
		raw = ck.Value
	}
	claims, err := auth.VerifyToken(h.Cfg.JWTSecret, raw)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "error": err.Error()})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "user": userPart{
		ID:    claims.UserID,
		Email: claims.Email,
		Name:  claims.Name,
		Role:  claims.Role,
	}})
}

func (h *AuthHandler) loginRejected(c echo.Context, email string) error {
	metrics.Logins.WithLabelValues("invalid_credentials").Inc()
	h.publish(queue.AuthEvent{
		Type:     queue.EventLoginFailed,
		Email:    email,
		RemoteIP: c.RealIP(),
		At:       time.Now().UTC().Format(time.RFC3339),
	})
	return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "error": auth.ErrInvalidCredentials.Error()})
}

// publish sends an auth event to the broker without blocking the
// request. Failures are logged inside the publisher and dropped.
func (h *AuthHandler) publish(ev queue.AuthEvent) {
	if h.Cfg.AMQPURL == "" {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = queue_publisher.PublishAuthEvent(ctx, h.Cfg.AMQPURL, ev)
	}()
}

func (h *AuthHandler) sessionCookie(token string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		MaxAge:   int(time.Until(expires) / time.Second),
		HttpOnly: true,
		Secure:   h.Cfg.CookieSecure,
		SameSite: http.SameSiteStrictMode,
	}
}

func (h *AuthHandler) expiredCookie() *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.Cfg.CookieSecure,
		SameSite: http.SameSiteStrictMode,
	}
}
