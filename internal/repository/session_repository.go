package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/escapeeng/admin-gateway/internal/model"
)

// SessionRepo persists issued sessions (single row per login). The
// table only serves the login/logout write path and administrative
// auditing; token verification on the request hot path never reads it.
type SessionRepo struct{ DB *sql.DB }

func NewSessionRepo(db *sql.DB) *SessionRepo { return &SessionRepo{DB: db} }

// Create inserts a session row. Login must not hand out a token when
// this fails: without a durable row the session could never be
// force-revoked.
func (r *SessionRepo) Create(ctx context.Context, s model.Session) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO sessions (session_id, user_id, issued_at, expires_at) VALUES (?,?,?,?)",
		s.SessionID, s.UserID, s.IssuedAt, s.ExpiresAt)
	return err
}

// DeleteBySessionID removes a session row. Deleting an absent row is
// not an error, so concurrent logouts for the same session are
// idempotent.
func (r *SessionRepo) DeleteBySessionID(ctx context.Context, sessionID string) error {
	_, err := r.DB.ExecContext(ctx,
		"DELETE FROM sessions WHERE session_id=?", sessionID)
	return err
}

// Exists reports whether a non-expired session row is present. It is
// diagnostic only and deliberately kept off the request hot path.
func (r *SessionRepo) Exists(ctx context.Context, sessionID string) (bool, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sessions WHERE session_id=? AND expires_at > ?",
		sessionID, time.Now().UTC()).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListActive returns all sessions that have not yet expired, newest
// first, for the admin session audit view.
func (r *SessionRepo) ListActive(ctx context.Context) ([]model.Session, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT session_id, user_id, issued_at, expires_at FROM sessions WHERE expires_at > ? ORDER BY issued_at DESC",
		time.Now().UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Session
	for rows.Next() {
		var s model.Session
		if err := rows.Scan(&s.SessionID, &s.UserID, &s.IssuedAt, &s.ExpiresAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// DeleteExpired lazily sweeps rows whose token has passed its absolute
// expiry. Run from adminctl or a cron, never from a request handler.
func (r *SessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM sessions WHERE expires_at <= ?", time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
