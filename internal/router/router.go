package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/escapeeng/admin-gateway/internal/config"
	"github.com/escapeeng/admin-gateway/internal/handler"
	"github.com/escapeeng/admin-gateway/internal/middleware"
	"github.com/escapeeng/admin-gateway/internal/model"
)

// LoginPath is where browsers are sent when the gate turns a request
// away. The dashboard frontend serves the form; this service only owns
// the redirect target.
const LoginPath = "/admin/login"

// RegisterRoutes registers the operational endpoints that stay outside
// authentication: the health check for load balancers and the
// Prometheus scrape endpoint.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// RegisterGate installs the route gate on the Echo instance. The
// classification is static: everything under /admin and /api/admin
// requires a verified admin token, except the carve-outs every
// browser needs to reach while logged out (the login page, the auth
// endpoints themselves, static assets) and the operational endpoints.
func RegisterGate(e *echo.Echo, cfg config.Config) {
	e.Use(middleware.Gate(middleware.GateConfig{
		Secret:     cfg.JWTSecret,
		CookieName: handler.SessionCookieName,
		LoginPath:  LoginPath,
		Protected: []middleware.ProtectedPrefix{
			{Prefix: "/admin", Role: model.RoleAdmin},
			{Prefix: "/api/admin", Role: model.RoleAdmin},
		},
		Public: []string{
			LoginPath,
			"/api/admin/auth",
			"/healthz",
			"/metrics",
			"/static",
		},
	}))
}

// RegisterAuth registers the session lifecycle endpoints under
// /api/admin/auth. These paths are public as far as the gate is
// concerned: login must work without a token, logout must work with an
// expired one, and me performs its own cookie verification. The login
// route additionally runs the brute-force limiter.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, loginLimiter echo.MiddlewareFunc) {
	g := e.Group("/api/admin/auth")
	g.POST("/login", a.Login, loginLimiter)
	g.POST("/logout", a.Logout)
	g.GET("/me", a.Me)
}

// RegisterAdmin registers the gated management APIs: admin user CRUD
// and the session audit view. The gate has already verified the token
// and role for every request that reaches these handlers.
func RegisterAdmin(e *echo.Echo, u *handler.UserHandler, s *handler.SessionHandler) {
	users := e.Group("/api/admin/users")
	users.GET("", u.List)
	users.POST("", u.Create)
	users.PUT("/me", u.UpdateProfile)
	users.PUT("/me/password", u.ChangePassword)
	users.DELETE("/:id", u.Delete)

	sessions := e.Group("/api/admin/sessions")
	sessions.GET("", s.List)
	sessions.DELETE("/:id", s.Revoke)
}
