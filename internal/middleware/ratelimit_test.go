package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/escapeeng/admin-gateway/internal/config"
)

func limiterEcho(t *testing.T, cfg config.RateLimitConfig, rdb *redis.Client) *echo.Echo {
	t.Helper()
	e := echo.New()
	e.POST("/api/admin/auth/login", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	}, NewLoginLimiter(cfg, rdb))
	return e
}

func postLogin(e *echo.Echo) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/admin/auth/login", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestLoginLimiterBlocksAfterBurst(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	cfg := config.RateLimitConfig{
		Enabled:        true,
		Capacity:       3,
		RefillInterval: time.Minute,
		TTL:            10 * time.Minute,
		Prefix:         "rl",
	}
	e := limiterEcho(t, cfg, rdb)

	for i := 0; i < 3; i++ {
		if rec := postLogin(e); rec.Code != http.StatusOK {
			t.Fatalf("attempt %d = %d, want 200", i+1, rec.Code)
		}
	}
	rec := postLogin(e)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("attempt 4 = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("429 without Retry-After header")
	}
}

func TestLoginLimiterRefills(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	cfg := config.RateLimitConfig{
		Enabled:        true,
		Capacity:       1,
		RefillInterval: 100 * time.Millisecond,
		TTL:            10 * time.Minute,
		Prefix:         "rl",
	}
	e := limiterEcho(t, cfg, rdb)

	if rec := postLogin(e); rec.Code != http.StatusOK {
		t.Fatalf("first attempt = %d, want 200", rec.Code)
	}
	if rec := postLogin(e); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second attempt = %d, want 429", rec.Code)
	}
	time.Sleep(150 * time.Millisecond)
	if rec := postLogin(e); rec.Code != http.StatusOK {
		t.Fatalf("attempt after refill = %d, want 200", rec.Code)
	}
}

func TestLoginLimiterDisabledIsPassThrough(t *testing.T) {
	e := limiterEcho(t, config.RateLimitConfig{Enabled: false}, nil)
	for i := 0; i < 20; i++ {
		if rec := postLogin(e); rec.Code != http.StatusOK {
			t.Fatalf("attempt %d = %d, want 200 with limiter disabled", i+1, rec.Code)
		}
	}
}

func TestLoginLimiterDegradesWhenRedisDown(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	mr.Close() // limiter must fail open once the backend is gone

	cfg := config.RateLimitConfig{
		Enabled:        true,
		Capacity:       1,
		RefillInterval: time.Minute,
		TTL:            10 * time.Minute,
		Prefix:         "rl",
	}
	e := limiterEcho(t, cfg, rdb)
	for i := 0; i < 5; i++ {
		if rec := postLogin(e); rec.Code != http.StatusOK {
			t.Fatalf("attempt %d = %d, want pass-through when redis is down", i+1, rec.Code)
		}
	}
}
