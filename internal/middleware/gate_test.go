package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/escapeeng/admin-gateway/internal/auth"
	"github.com/escapeeng/admin-gateway/internal/model"
)

const (
	gateSecret = "gate-secret"
	cookieName = "admin_token"
	loginPath  = "/admin/login"
)

func gateEcho(t *testing.T) *echo.Echo {
	t.Helper()
	e := echo.New()
	e.Use(Gate(GateConfig{
		Secret:     gateSecret,
		CookieName: cookieName,
		LoginPath:  loginPath,
		Protected: []ProtectedPrefix{
			{Prefix: "/admin", Role: model.RoleAdmin},
			{Prefix: "/api/admin", Role: model.RoleAdmin},
			{Prefix: "/api/admin/reports", Role: model.RoleViewer},
		},
		Public: []string{loginPath, "/api/admin/auth", "/healthz"},
	}))
	ok := func(c echo.Context) error { return c.String(http.StatusOK, "ok") }
	e.GET("/", ok)
	e.GET("/healthz", ok)
	e.GET("/admin/login", ok)
	e.GET("/admin/dashboard", ok)
	e.GET("/api/admin/users", ok)
	e.GET("/api/admin/reports/daily", ok)
	e.POST("/api/admin/auth/login", ok)
	e.GET("/whoami", func(c echo.Context) error {
		cl := CurrentClaims(c)
		if cl == nil {
			return c.String(http.StatusOK, "none")
		}
		return c.String(http.StatusOK, cl.Email)
	})
	e.GET("/admin/whoami", func(c echo.Context) error {
		return c.String(http.StatusOK, CurrentClaims(c).Email)
	})
	return e
}

func tokenFor(t *testing.T, role model.Role, ttl time.Duration) string {
	t.Helper()
	issued, err := auth.Issue(gateSecret, model.AdminUser{
		ID: 1, Email: "admin@example.com", Name: "Admin User", Role: role,
	}, ttl)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	return issued.Token
}

func doGet(e *echo.Echo, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: cookieName, Value: token})
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestGatePassesUnprotectedPaths(t *testing.T) {
	e := gateEcho(t)
	for _, path := range []string{"/", "/healthz", "/whoami"} {
		if rec := doGet(e, path, ""); rec.Code != http.StatusOK {
			t.Errorf("GET %s = %d, want 200", path, rec.Code)
		}
	}
}

func TestGatePassesPublicCarveOutInsideProtectedPrefix(t *testing.T) {
	e := gateEcho(t)
	if rec := doGet(e, "/admin/login", ""); rec.Code != http.StatusOK {
		t.Errorf("GET /admin/login = %d, want 200", rec.Code)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/admin/auth/login", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("POST /api/admin/auth/login = %d, want 200", rec.Code)
	}
}

func TestGateRedirectsBrowserPathsPreservingTarget(t *testing.T) {
	e := gateEcho(t)
	rec := doGet(e, "/admin/dashboard?tab=secrets", "")
	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}
	loc, err := url.Parse(rec.Header().Get("Location"))
	if err != nil {
		t.Fatalf("parse location: %v", err)
	}
	if loc.Path != loginPath {
		t.Errorf("redirect path = %q, want %q", loc.Path, loginPath)
	}
	if got := loc.Query().Get("next"); got != "/admin/dashboard?tab=secrets" {
		t.Errorf("next = %q, want original request target", got)
	}
}

func TestGateReturnsJSONForAPIPaths(t *testing.T) {
	e := gateEcho(t)
	tests := []struct {
		name   string
		token  string
		status int
	}{
		{"missing token", "", http.StatusUnauthorized},
		{"garbage token", "garbage", http.StatusUnauthorized},
		{"expired token", tokenFor(t, model.RoleAdmin, -time.Minute), http.StatusUnauthorized},
		{"viewer on admin path", tokenFor(t, model.RoleViewer, time.Hour), http.StatusForbidden},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := doGet(e, "/api/admin/users", tc.token)
			if rec.Code != tc.status {
				t.Fatalf("status = %d, want %d", rec.Code, tc.status)
			}
			var body struct {
				Success bool   `json:"success"`
				Error   string `json:"error"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("body not JSON: %v", err)
			}
			if body.Success || body.Error == "" {
				t.Errorf("body = %+v, want success=false with error", body)
			}
		})
	}
}

func TestGateAdmitsValidAdminToken(t *testing.T) {
	e := gateEcho(t)
	token := tokenFor(t, model.RoleAdmin, time.Hour)

	if rec := doGet(e, "/api/admin/users", token); rec.Code != http.StatusOK {
		t.Errorf("GET /api/admin/users = %d, want 200", rec.Code)
	}
	rec := doGet(e, "/admin/whoami", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /admin/whoami = %d, want 200", rec.Code)
	}
	if rec.Body.String() != "admin@example.com" {
		t.Errorf("claims email = %q", rec.Body.String())
	}
}

func TestGateLongestPrefixWins(t *testing.T) {
	// /api/admin/reports requires only viewer even though it nests
	// under the admin-only /api/admin prefix.
	e := gateEcho(t)
	if rec := doGet(e, "/api/admin/reports/daily", tokenFor(t, model.RoleViewer, time.Hour)); rec.Code != http.StatusOK {
		t.Errorf("viewer on reports = %d, want 200", rec.Code)
	}
	// Admin outranks viewer on the same path.
	if rec := doGet(e, "/api/admin/reports/daily", tokenFor(t, model.RoleAdmin, time.Hour)); rec.Code != http.StatusOK {
		t.Errorf("admin on reports = %d, want 200", rec.Code)
	}
}

func TestRoleSatisfies(t *testing.T) {
	tests := []struct {
		have, need model.Role
		want       bool
	}{
		{model.RoleAdmin, model.RoleAdmin, true},
		{model.RoleAdmin, model.RoleViewer, true},
		{model.RoleViewer, model.RoleAdmin, false},
		{model.RoleViewer, model.RoleViewer, true},
		{model.Role("root"), model.RoleAdmin, false},
	}
	for _, tc := range tests {
		if got := roleSatisfies(tc.have, tc.need); got != tc.want {
			t.Errorf("roleSatisfies(%q,%q) = %v, want %v", tc.have, tc.need, got, tc.want)
		}
	}
}
