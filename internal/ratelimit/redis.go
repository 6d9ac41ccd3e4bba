package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"health-assistant/internal/config"
)

// RedisLimiter counts requests per key in fixed one-minute windows shared
// by every instance pointing at the same Redis.
type RedisLimiter struct {
	client *redis.Client
	prefix string
	limit  int
	now    func() time.Time
}

func NewRedisLimiter(cfg config.RedisConfig, requestsPerMinute int) (*RedisLimiter, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return newRedisLimiter(client, cfg.Prefix, requestsPerMinute), nil
}

func newRedisLimiter(client *redis.Client, prefix string, limit int) *RedisLimiter {
	if prefix == "" {
		prefix = "health-assistant"
	}
	return &RedisLimiter{
		client: client,
		prefix: prefix,
		limit:  limit,
		now:    time.Now,
	}
}

func (r *RedisLimiter) buildKey(key string, window int64) string {
	return fmt.Sprintf("%s:ratelimit:%s:%d", r.prefix, key, window)
}

func (r *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	window := r.now().Unix() / 60
	redisKey := r.buildKey(key, window)

	pipe := r.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, 2*time.Minute)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("failed to update rate limit counter: %w", err)
	}

	return incr.Val() <= int64(r.limit), nil
}

func (r *RedisLimiter) Close() error {
	return r.client.Close()
}
