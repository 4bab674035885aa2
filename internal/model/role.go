package model

import (
	"fmt"
	"strings"
)

// Role is the closed set of privilege levels an admin user can hold.
// It is a distinct type rather than a bare string so that the route
// gate can match on it exhaustively; adding a role means touching the
// constants below and every switch over Role, which the compiler and
// Valid() make visible.
type Role string

const (
	// RoleAdmin grants full access to the dashboard and its APIs.
	RoleAdmin Role = "admin"
	// RoleViewer is a read-only tier. The gate lets it through
	// viewer-level prefixes only; the default routing gates everything
	// at admin level.
	RoleViewer Role = "viewer"
)

// ParseRole converts a stored or transmitted role string into a Role.
// Unknown values are rejected rather than passed through so a forged
// or stale role claim can never match a protected prefix by accident.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleViewer:
		return RoleViewer, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Valid reports whether r is one of the declared constants.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleViewer:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }
