package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/escapeeng/admin-gateway/internal/auth"
	"github.com/escapeeng/admin-gateway/internal/model"
)

// UserRepo persists admin users in the 'admin_users' table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

var ErrEmailExists = errors.New("email already exists")

const userColumns = "id,email,password_hash,name,role,created_at,updated_at,last_login"

// Create inserts an admin user and returns its ID. Emails are
// case-normalized before insert so uniqueness holds regardless of how
// the address was typed.
func (r *UserRepo) Create(ctx context.Context, email, password, name string, role model.Role, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := auth.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO admin_users (email, password_hash, name, role) VALUES (?,?,?,?)",
		email, hash, name, string(role))
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.AdminUser, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM admin_users WHERE email=? LIMIT 1", email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.AdminUser, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM admin_users WHERE id=? LIMIT 1", id))
}

// List returns all admin users ordered by creation time.
func (r *UserRepo) List(ctx context.Context) ([]model.AdminUser, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+userColumns+" FROM admin_users ORDER BY created_at")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.AdminUser
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// TouchLastLogin records a successful login.
func (r *UserRepo) TouchLastLogin(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE admin_users SET last_login=NOW() WHERE id=?", id)
	return err
}

// UpdateProfile changes the display name of a user.
func (r *UserRepo) UpdateProfile(ctx context.Context, id uint64, name string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE admin_users SET name=?, updated_at=NOW() WHERE id=?", name, id)
	return err
}

// UpdatePassword replaces the stored password hash.
func (r *UserRepo) UpdatePassword(ctx context.Context, id uint64, password string, cost int) error {
	hash, err := auth.HashPassword(password, cost)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx,
		"UPDATE admin_users SET password_hash=?, updated_at=NOW() WHERE id=?", hash, id)
	return err
}

// Delete removes a user. Self-deletion is enforced at the handler
// layer, not here; deleting an unknown id reports sql.ErrNoRows.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM admin_users WHERE id=?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// rowScanner lets scanUser work for both QueryRow and Query results.
type rowScanner interface{ Scan(dest ...any) error }

func scanUser(row rowScanner) (model.AdminUser, error) {
	var (
		u    model.AdminUser
		role string
		last sql.NullTime
	)
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &role,
		&u.CreatedAt, &u.UpdatedAt, &last)
	if err != nil {
		return model.AdminUser{}, err
	}
	parsed, err := model.ParseRole(role)
	if err != nil {
		return model.AdminUser{}, err
	}
	u.Role = parsed
	if last.Valid {
		u.LastLogin = &last.Time
	}
	return u, nil
}
