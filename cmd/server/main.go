package main // Entry point package

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/escapeeng/admin-gateway/internal/config"
	"github.com/escapeeng/admin-gateway/internal/database"
	"github.com/escapeeng/admin-gateway/internal/handler"
	"github.com/escapeeng/admin-gateway/internal/middleware"
	"github.com/escapeeng/admin-gateway/internal/queue"
	"github.com/escapeeng/admin-gateway/internal/repository"
	"github.com/escapeeng/admin-gateway/internal/router"
)

func main() {
	// Load .env if present; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}

	users := repository.NewUserRepo(db)
	sessions := repository.NewSessionRepo(db)

	// Redis is optional: without it the login limiter degrades to a
	// pass-through.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable, login rate limiting disabled")
	}
	loginLimiter := middleware.NewLoginLimiter(config.LoadRateLimitConfig(), rdb)

	// Background audit consumer; a no-op when AMQP_URL is unset.
	if cfg.AMQPURL != "" {
		go func() {
			if err := queue.StartAuthConsumer(cfg.AMQPURL); err != nil {
				log.Printf("auth consumer stopped: %v", err)
			}
		}()
	}

	e := echo.New()
	router.RegisterGate(e, cfg)
	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, sessions), loginLimiter)
	router.RegisterAdmin(e,
		handler.NewUserHandler(cfg, users),
		handler.NewSessionHandler(cfg, sessions))

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
