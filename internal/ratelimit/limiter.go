// Package ratelimit throttles failed logins per identifier.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "login_fail:"

// Nop never throttles. Used when REDIS_URL is unset.
type Nop struct{}

func (Nop) Allow(context.Context, string) (bool, error) { return true, nil }
func (Nop) Fail(context.Context, string) error          { return nil }
func (Nop) Reset(context.Context, string) error         { return nil }

// RedisLimiter counts failures in a fixed window: the first failure starts the window,
// and once max failures are recorded further attempts are refused until it expires.
type RedisLimiter struct {
	cli    *redis.Client
	max    int64
	window time.Duration
}

// NewRedis connects to url and pings it. max <= 0 disables throttling but still connects.
func NewRedis(ctx context.Context, url string, max int, window time.Duration) (*RedisLimiter, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis parse url: %w", err)
	}
	cli := redis.NewClient(opts)
	if err := cli.Ping(ctx).Err(); err != nil {
		if closeErr := cli.Close(); closeErr != nil {
			return nil, fmt.Errorf("redis ping: %w (close: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisLimiter{cli: cli, max: int64(max), window: window}, nil
}

func (l *RedisLimiter) Close() error {
	return l.cli.Close()
}

// Allow reports whether another attempt for identifier may proceed.
func (l *RedisLimiter) Allow(ctx context.Context, identifier string) (bool, error) {
	if l.max <= 0 {
		return true, nil
	}
	n, err := l.cli.Get(ctx, key(identifier)).Int64()
	if errors.Is(err, redis.Nil) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return n < l.max, nil
}

// Fail records one failed attempt for identifier.
func (l *RedisLimiter) Fail(ctx context.Context, identifier string) error {
	k := key(identifier)
	n, err := l.cli.Incr(ctx, k).Result()
	if err != nil {
		return err
	}
	if n == 1 {
		return l.cli.Expire(ctx, k, l.window).Err()
	}
	return nil
}

// Reset forgets all failures for identifier. Called after a successful login.
func (l *RedisLimiter) Reset(ctx context.Context, identifier string) error {
	return l.cli.Del(ctx, key(identifier)).Err()
}

func key(identifier string) string {
	return keyPrefix + strings.ToLower(strings.TrimSpace(identifier))
}
