// Package auth implements credential verification and the session
// token lifecycle: issuing a signed token for a verified admin user,
// and verifying tokens presented on subsequent requests. Verification
// is pure and never touches the session store; the store is consulted
// only on the login/logout write path.
package auth

import "errors"

// Sentinel errors shared by the verifier, the route gate and the HTTP
// handlers. Handlers translate these into status codes; the distinct
// values exist so callers can tell the failure branches apart without
// string matching.
var (
	// ErrInvalidCredentials is returned for a bad email/password pair.
	// It never distinguishes an unknown email from a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthenticated is returned when no token was presented at all.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrInvalidToken is returned for malformed, tampered or
	// wrongly-signed tokens.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpired is returned for a correctly signed token whose expiry
	// has passed.
	ErrExpired = errors.New("token expired")
	// ErrInsufficientRole is returned when a valid token carries a role
	// that does not satisfy the resource's requirement.
	ErrInsufficientRole = errors.New("insufficient role")
	// ErrStoreUnavailable is returned when the session store cannot be
	// reached during login or logout. It is surfaced as a 500 and never
	// silently treated as success.
	ErrStoreUnavailable = errors.New("session store unavailable")
)
