// Package ratelimit throttles chat requests per client key.
package ratelimit

import (
	"context"
	"fmt"

	"health-assistant/internal/config"
)

type Limiter interface {
	// Allow reports whether one more request for key fits the budget.
	Allow(ctx context.Context, key string) (bool, error)
	Close() error
}

// New returns the limiter for cfg.Backend, or nil when rate limiting is off.
func New(cfg config.RateLimitConfig, redisCfg config.RedisConfig) (Limiter, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	switch cfg.Backend {
	case "", "memory":
		return NewMemoryLimiter(cfg.RequestsPerMinute, cfg.Burst), nil
	case "redis":
		l, err := NewRedisLimiter(redisCfg, cfg.RequestsPerMinute)
		if err != nil {
			return nil, err
		}
		return l, nil
	default:
		return nil, fmt.Errorf("unsupported rate limit backend: %s", cfg.Backend)
	}
}
