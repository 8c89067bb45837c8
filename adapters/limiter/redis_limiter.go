package limiter

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/securechat/server/core"
	"github.com/securechat/server/ports"
)

// RedisLimiter is a Redis-backed implementation of the RateLimiter
// interface for deployments where lockout state must be shared across
// instances. Counters and lockouts expire via key TTLs.
type RedisLimiter struct {
	client *redis.Client
	prefix string

	maxFailures int64
	lockout     time.Duration
}

// NewRedisLimiter creates a new RedisLimiter
func NewRedisLimiter(client *redis.Client) *RedisLimiter {
	return &RedisLimiter{
		client:      client,
		prefix:      "securechat:ratelimit:",
		maxFailures: MaxFailures,
		lockout:     LockoutDuration,
	}
}

var _ ports.RateLimiter = (*RedisLimiter)(nil)

func (l *RedisLimiter) failuresKey(key string) string { return l.prefix + "failures:" + key }
func (l *RedisLimiter) lockKey(key string) string     { return l.prefix + "lock:" + key }

// CheckAllowed returns core.ErrRateLimited while a lockout key exists.
// Expired lockouts disappear on their own through the key TTL.
func (l *RedisLimiter) CheckAllowed(ctx context.Context, key string) error {
	n, err := l.client.Exists(ctx, l.lockKey(key)).Result()
	if err != nil {
		return fmt.Errorf("failed to check lockout: %w", err)
	}
	if n > 0 {
		return core.ErrRateLimited
	}
	return nil
}

// RecordFailure increments the failure counter atomically via INCR, so
// concurrent failures are never lost, and sets the lockout key once
// the post-increment count reaches the threshold.
func (l *RedisLimiter) RecordFailure(ctx context.Context, key string) error {
	count, err := l.client.Incr(ctx, l.failuresKey(key)).Result()
	if err != nil {
		return fmt.Errorf("failed to record failure: %w", err)
	}

	// Stale counters age out with the lockout window
	if err := l.client.Expire(ctx, l.failuresKey(key), l.lockout).Err(); err != nil {
		return fmt.Errorf("failed to expire failure counter: %w", err)
	}

	if count >= l.maxFailures {
		if err := l.client.Set(ctx, l.lockKey(key), "1", l.lockout).Err(); err != nil {
			return fmt.Errorf("failed to set lockout: %w", err)
		}
	}

	return nil
}

// RecordSuccess removes the failure counter and any lockout for key.
func (l *RedisLimiter) RecordSuccess(ctx context.Context, key string) error {
	if err := l.client.Del(ctx, l.failuresKey(key), l.lockKey(key)).Err(); err != nil {
		return fmt.Errorf("failed to clear rate limit state: %w", err)
	}
	return nil
}
