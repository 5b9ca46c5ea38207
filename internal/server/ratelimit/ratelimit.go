// Package ratelimit throttles login attempts with a fixed-window counter kept
// in Redis so that every API instance shares the same budget.
package ratelimit

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/go-redis/redis/v8"
)

// Limiter decides whether another attempt under key is allowed.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// Resetter is implemented by limiters that can clear the budget of a key.
type Resetter interface {
	Reset(ctx context.Context, key string) error
}

// ClientKey derives the limiter key for a remote address: the host without
// its port. Both front doors use it, so one IP has one budget.
func ClientKey(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}

// RedisLimiter counts attempts per key in windows of fixed length. The first
// attempt in a window sets the key's expiry.
type RedisLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	prefix string
}

func NewRedisLimiter(client *redis.Client, limit int, window time.Duration, prefix string) *RedisLimiter {
	if prefix == "" {
		prefix = "ratelimit"
	}
	return &RedisLimiter{client: client, limit: limit, window: window, prefix: prefix}
}

// Allow increments the counter for key. On Redis errors it reports true
// together with the error so callers can fail open.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	redisKey := fmt.Sprintf("%s:%s", l.prefix, key)

	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return true, fmt.Errorf("redis error: %w", err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, redisKey, l.window).Err(); err != nil {
			return true, fmt.Errorf("redis error: %w", err)
		}
	}

	return count <= int64(l.limit), nil
}

// RetryAfter returns how long until the window for key resets.
func (l *RedisLimiter) RetryAfter(ctx context.Context, key string) time.Duration {
	ttl, err := l.client.TTL(ctx, fmt.Sprintf("%s:%s", l.prefix, key)).Result()
	if err != nil || ttl <= 0 {
		return l.window
	}
	return ttl
}

// Reset clears the counter for key.
func (l *RedisLimiter) Reset(ctx context.Context, key string) error {
	return l.client.Del(ctx, fmt.Sprintf("%s:%s", l.prefix, key)).Err()
}

// NewClient opens a Redis client for addr and checks it with PING.
func NewClient(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return client, nil
}
