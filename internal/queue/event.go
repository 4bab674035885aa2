// Package queue defines message payloads exchanged over the message broker.
package queue

// Auth event types published to the auth.events queue.
const (
	EventLogin       = "login"
	EventLoginFailed = "login_failed"
	EventLogout      = "logout"
)

// AuthEvent is published when a login or logout happens. It carries
// enough for downstream consumers (audit log, alerting) without
// querying the primary database. Failed logins carry the attempted
// email but no user id, and never the password.
type AuthEvent struct {
	Type      string `json:"type"`
	UserID    uint64 `json:"user_id,omitempty"`
	Email     string `json:"email"`
	SessionID string `json:"session_id,omitempty"`
	RemoteIP  string `json:"remote_ip,omitempty"`
	At        string `json:"at"`
}
