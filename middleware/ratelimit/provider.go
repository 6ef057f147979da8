package ratelimit

import (
	"context"
	"fmt"
	"io"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/tech-arch1tect/medreg/config"
	"github.com/tech-arch1tect/medreg/services/logging"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Limiter builds per-scope middleware that share one store.
type Limiter struct {
	store  Store
	config *config.RateLimitConfig
	logger *logging.Service
}

func NewLimiter(store Store, cfg *config.RateLimitConfig, logger *logging.Service) *Limiter {
	return &Limiter{store: store, config: cfg, logger: logger}
}

// Middleware limits the routes it wraps. It passes everything through when
// rate limiting is disabled.
func (l *Limiter) Middleware(scope string) echo.MiddlewareFunc {
	if !l.config.Enabled {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return Middleware(&Config{
		Store:  l.store,
		Rate:   l.config.Rate,
		Period: l.config.Period,
		Scope:  scope,
		Logger: l.logger,
	})
}

func NewStore(cfg *config.RateLimitConfig) (Store, error) {
	switch cfg.Driver {
	case "", "memory":
		return NewMemoryStore(), nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		return NewRedisStore(client, cfg.KeyPrefix), nil
	default:
		return nil, fmt.Errorf("unsupported rate limit driver: %s", cfg.Driver)
	}
}

func ProvideRateLimitStore(lc fx.Lifecycle, cfg *config.Config, logger *logging.Service) (Store, error) {
	store, err := NewStore(&cfg.RateLimit)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if rs, ok := store.(*RedisStore); ok {
				if err := rs.client.Ping(ctx).Err(); err != nil {
					logger.Warn("redis rate limit store is not reachable", zap.String("addr", cfg.RateLimit.RedisAddr), zap.Error(err))
				}
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if closer, ok := store.(io.Closer); ok {
				return closer.Close()
			}
			return nil
		},
	})

	return store, nil
}

func ProvideLimiter(store Store, cfg *config.Config, logger *logging.Service) *Limiter {
	return NewLimiter(store, &cfg.RateLimit, logger.Named("ratelimit"))
}

var Module = fx.Options(
	fx.Provide(ProvideRateLimitStore, ProvideLimiter),
)
