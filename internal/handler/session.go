package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/escapeeng/admin-gateway/internal/config"
	"github.com/escapeeng/admin-gateway/internal/model"
)

// SessionHandler exposes the administrative session audit API: listing
// live sessions and force-revoking one before its natural expiry. This
// is the only read path into the sessions table besides logout.
type SessionHandler struct {
	Cfg      config.Config
	Sessions SessionStore
}

func NewSessionHandler(cfg config.Config, s SessionStore) *SessionHandler {
	return &SessionHandler{Cfg: cfg, Sessions: s}
}

type sessionPart struct {
	SessionID string    `json:"session_id"`
	UserID    uint64    `json:"user_id"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func toSessionPart(s model.Session) sessionPart {
	return sessionPart{SessionID: s.SessionID, UserID: s.UserID, IssuedAt: s.IssuedAt, ExpiresAt: s.ExpiresAt}
}

// List returns all sessions that have not passed their absolute expiry.
func (h *SessionHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	sessions, err := h.Sessions.ListActive(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "query failed"})
	}
	out := make([]sessionPart, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, toSessionPart(s))
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "sessions": out})
}

// Revoke force-deletes a session row by id. The matching token keeps
// verifying until its expiry (verification is store-free), but logout
// auditing and the session list reflect the revocation immediately.
// Revoking an unknown id succeeds; deletion is idempotent.
func (h *SessionHandler) Revoke(c echo.Context) error {
	sid := c.Param("id")
	if sid == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "session id required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.Sessions.DeleteBySessionID(ctx, sid); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "delete failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}
