package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/escapeeng/admin-gateway/internal/auth"
	"github.com/escapeeng/admin-gateway/internal/metrics"
	"github.com/escapeeng/admin-gateway/internal/model"
)

// claimsKey is the context key under which the gate stores verified
// token claims for downstream handlers.
const claimsKey = "auth_claims"

// ProtectedPrefix pairs a path prefix with the role required to pass
// the gate for paths under it.
type ProtectedPrefix struct {
	Prefix string
	Role   model.Role
}

// GateConfig is the static route classification the gate evaluates on
// every request. Protected and Public are prefix lists; a path that
// matches both is treated as public (login and the auth endpoints live
// under the protected API prefix but must stay reachable).
type GateConfig struct {
	Secret     string            // token signing secret
	CookieName string            // cookie carrying the session token
	LoginPath  string            // browser redirect target on failure
	Protected  []ProtectedPrefix // prefixes requiring a verified token
	Public     []string          // prefixes exempt from verification
}

// Gate returns the single interception point run before any protected
// handler. It is a pure filter: it never mutates state and never
// touches the session store. Decision order per request:
//
//  1. path not under a protected prefix        -> pass through
//  2. path also under a public prefix          -> pass through
//  3. cookie token verifies and role matches   -> pass through, claims in context
//  4. otherwise                                -> 401/403 JSON for API paths,
//     302 to the login page (with the original path as ?next=) for
//     browser paths
func Gate(cfg GateConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Request().URL.Path

			rule, protected := matchProtected(cfg.Protected, path)
			if !protected {
				return next(c)
			}
			if matchPublic(cfg.Public, path) {
				return next(c)
			}

			raw := ""
			if ck, err := c.Cookie(cfg.CookieName); err == nil {
				raw = ck.Value
			}
			claims, err := auth.VerifyToken(cfg.Secret, raw)
			if err != nil {
				return deny(c, cfg, err)
			}
			if !roleSatisfies(claims.Role, rule.Role) {
				return deny(c, cfg, auth.ErrInsufficientRole)
			}

			c.Set(claimsKey, claims)
			return next(c)
		}
	}
}

// CurrentClaims returns the verified claims the gate stored for this
// request, or nil when the path was not gated.
func CurrentClaims(c echo.Context) *auth.Claims {
	if v, ok := c.Get(claimsKey).(*auth.Claims); ok {
		return v
	}
	return nil
}

// matchProtected returns the longest protected prefix covering path,
// so a stricter rule nested under a broader one wins.
func matchProtected(rules []ProtectedPrefix, path string) (ProtectedPrefix, bool) {
	var best ProtectedPrefix
	found := false
	for _, r := range rules {
		if strings.HasPrefix(path, r.Prefix) && (!found || len(r.Prefix) > len(best.Prefix)) {
			best = r
			found = true
		}
	}
	return best, found
}

func matchPublic(prefixes []string, path string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// roleSatisfies decides whether the role carried in a token meets the
// requirement of a protected prefix. The switch is exhaustive over the
// Role constants; adding a role without extending it is a compile-time
// visible change.
func roleSatisfies(have, need model.Role) bool {
	switch need {
	case model.RoleAdmin:
		return have == model.RoleAdmin
	case model.RoleViewer:
		// Admins can read everything a viewer can.
		return have == model.RoleAdmin || have == model.RoleViewer
	}
	return false
}

// deny maps a verification failure onto the transport: structured JSON
// for API-style paths, a login redirect preserving the original target
// for browser navigation. It never passes the request through.
func deny(c echo.Context, cfg GateConfig, err error) error {
	metrics.GateDenials.WithLabelValues(denialReason(err)).Inc()

	if strings.HasPrefix(c.Request().URL.Path, "/api/") {
		status := http.StatusUnauthorized
		if errors.Is(err, auth.ErrInsufficientRole) {
			status = http.StatusForbidden
		}
		return c.JSON(status, echo.Map{"success": false, "error": err.Error()})
	}

	target := cfg.LoginPath + "?next=" + url.QueryEscape(c.Request().RequestURI)
	return c.Redirect(http.StatusFound, target)
}

func denialReason(err error) string {
	switch {
	case errors.Is(err, auth.ErrUnauthenticated):
		return "unauthenticated"
	case errors.Is(err, auth.ErrExpired):
		return "expired"
	case errors.Is(err, auth.ErrInsufficientRole):
		return "insufficient_role"
	default:
		return "invalid_token"
	}
}
