// Package ratelimit implements a fixed-window counter on Redis, used to slow
// down brute-force login attempts.
package ratelimit

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Limiter allows up to max hits per key per window.
type Limiter struct {
	client *goredis.Client
	max    int
	window time.Duration
}

// New connects to Redis and returns a Limiter. The connection is verified
// with a short ping so a misconfigured address fails at startup, not on the
// first login.
func New(addr, password string, max int, window time.Duration) (*Limiter, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &Limiter{client: client, max: max, window: window}, nil
}

// Allow increments the counter for key and reports whether the hit is within
// the window limit. The first hit in a window sets the expiry.
func (l *Limiter) Allow(ctx context.Context, key string) (bool, error) {
	n, err := l.client.Incr(ctx, "ratelimit:"+key).Result()
	if err != nil {
		return false, err
	}
	if n == 1 {
		if err := l.client.Expire(ctx, "ratelimit:"+key, l.window).Err(); err != nil {
			return false, err
		}
	}
	return n <= int64(l.max), nil
}

// Close releases the Redis connection.
func (l *Limiter) Close() error {
	return l.client.Close()
}
