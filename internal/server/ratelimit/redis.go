package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisLimiter keeps counters in Redis so that several server processes
// share one budget per key.
type RedisLimiter struct {
	rc     *redis.Client
	limit  int
	period time.Duration
	prefix string
}

func NewRedisLimiter(rc *redis.Client, limit int, period time.Duration) *RedisLimiter {
	return &RedisLimiter{rc: rc, limit: limit, period: period, prefix: "sitekeeper:ratelimit:"}
}

// OpenRedis builds a client for addr. It does not dial.
func OpenRedis(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	k := l.prefix + key

	var incr *redis.IntCmd
	var ttl *redis.DurationCmd
	_, err := l.rc.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, k)
		ttl = pipe.TTL(ctx, k)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("redis pipeline: %w", err)
	}

	// A key without expiry was created by this INCR; start its window.
	if ttl.Val() < 0 {
		if err := l.rc.Expire(ctx, k, l.period).Err(); err != nil {
			return false, fmt.Errorf("redis expire: %w", err)
		}
	}

	return incr.Val() <= int64(l.limit), nil
}

// Close releases the Redis connection pool.
func (l *RedisLimiter) Close() error {
	return l.rc.Close()
}
