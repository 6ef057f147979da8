package ratelimit

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/tech-arch1tect/medreg/response"
	"github.com/tech-arch1tect/medreg/services/logging"
	"go.uber.org/zap"
)

type Config struct {
	Store          Store
	Rate           int
	Period         time.Duration
	Scope          string
	KeyGenerator   func(c echo.Context) string
	OnLimitReached func(c echo.Context) error
	Logger         *logging.Service
}

func Middleware(cfg *Config) echo.MiddlewareFunc {
	if cfg.Store == nil {
		cfg.Store = NewMemoryStore()
	}

	if cfg.Rate <= 0 {
		cfg.Rate = 10
	}

	if cfg.Period <= 0 {
		cfg.Period = time.Minute
	}

	if cfg.KeyGenerator == nil {
		cfg.KeyGenerator = DefaultKeyGenerator
	}

	if cfg.OnLimitReached == nil {
		cfg.OnLimitReached = DefaultOnLimitReached
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := cfg.KeyGenerator(c)
			if cfg.Scope != "" {
				key = cfg.Scope + ":" + key
			}

			count, resetTime, err := cfg.Store.Increment(c.Request().Context(), key, cfg.Period)
			if err != nil {
				// fail open
				cfg.Logger.Warn("rate limit store unavailable", zap.String("key", key), zap.Error(err))
				return next(c)
			}

			remaining := max(cfg.Rate-count, 0)

			header := c.Response().Header()
			header.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Rate))
			header.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			header.Set("X-RateLimit-Reset", strconv.FormatInt(resetTime.Unix(), 10))

			if count > cfg.Rate {
				retryAfter := max(int(time.Until(resetTime).Seconds()), 1)
				header.Set("Retry-After", strconv.Itoa(retryAfter))
				cfg.Logger.Info("rate limit reached", zap.String("key", key), zap.Int("count", count))
				return cfg.OnLimitReached(c)
			}

			return next(c)
		}
	}
}

func DefaultKeyGenerator(c echo.Context) string {
	realIP := c.RealIP()

	if realIP == "" || realIP == "unknown" {
		realIP = "fallback"
	}

	return realIP
}

func DefaultOnLimitReached(c echo.Context) error {
	return response.NewError(http.StatusTooManyRequests, "Too many requests, please try again later", nil)
}
