package model

import "time"

// AdminUser represents a dashboard operator record as stored in the
// `admin_users` table. Each field corresponds to a column in the
// database. Accounts are provisioned out of band (adminctl) and are
// only ever removed by an explicit admin action; handlers must reject
// a user deleting their own account.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Email        – unique, lower-cased email address.
//  PasswordHash – bcrypt hashed password.
//  Name         – display name shown in the dashboard.
//  Role         – closed role enum (see role.go).
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
//  LastLogin    – timestamp of the most recent successful login (nullable).
type AdminUser struct {
	ID           uint64     // admin_users.id
	Email        string     // admin_users.email
	PasswordHash string     // admin_users.password_hash
	Name         string     // admin_users.name
	Role         Role       // admin_users.role
	CreatedAt    time.Time  // admin_users.created_at
	UpdatedAt    time.Time  // admin_users.updated_at
	LastLogin    *time.Time // admin_users.last_login (nullable)
}

// Session models a row in the `sessions` table. One row is written per
// issued token at login time and deleted at logout time, or lazily once
// expired. The row is the sole mechanism for forced revocation before
// the token's natural expiry; routine request verification never reads
// this table.
//
// Fields:
//  SessionID – random unique identifier, also embedded in the token.
//  UserID    – owner of the session.
//  IssuedAt  – when the token was minted.
//  ExpiresAt – absolute expiry of the token (issue time + fixed TTL).
type Session struct {
	SessionID string    // sessions.session_id
	UserID    uint64    // sessions.user_id
	IssuedAt  time.Time // sessions.issued_at
	ExpiresAt time.Time // sessions.expires_at
}
