package throttle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// APIKeyResult is the outcome of an inbound per-API-key metering check.
// Limit is nil when the key is unlimited.
type APIKeyResult struct {
	Allowed        bool
	Limit          *int
	Remaining      int
	ResetInSeconds int64
}

// APIKeyLimiter enforces a fixed one-minute window per API key using Redis
// INCR + EXPIRE: the first request in a window sets the expiry, and later
// requests do not extend it.
type APIKeyLimiter struct {
	redis  *redis.Client
	window time.Duration
}

// NewAPIKeyLimiter creates an APIKeyLimiter with a fixed one-minute window.
func NewAPIKeyLimiter(rdb *redis.Client) *APIKeyLimiter {
	return &APIKeyLimiter{redis: rdb, window: time.Minute}
}

// Check increments the counter for keyID and reports whether the request is
// admitted. A nil limit means unlimited: the request is always allowed and
// the counter is still tracked for observability.
func (l *APIKeyLimiter) Check(ctx context.Context, keyID string, limit *int) (APIKeyResult, error) {
	key := fmt.Sprintf("apikey_ratelimit:%s", keyID)

	count, err := l.redis.Get(ctx, key).Int()
	if err != nil && !errors.Is(err, redis.Nil) {
		return APIKeyResult{}, fmt.Errorf("checking API key rate limit: %w", err)
	}

	ttl, err := l.redis.TTL(ctx, key).Result()
	if err != nil {
		return APIKeyResult{}, fmt.Errorf("getting API key rate-limit TTL: %w", err)
	}
	resetIn := l.window
	if ttl > 0 {
		resetIn = ttl
	}

	pipe := l.redis.Pipeline()
	incr := pipe.Incr(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return APIKeyResult{}, fmt.Errorf("recording API key request: %w", err)
	}
	if incr.Val() == 1 {
		l.redis.Expire(ctx, key, l.window)
		resetIn = l.window
	}

	if limit == nil {
		return APIKeyResult{Allowed: true, ResetInSeconds: int64(resetIn.Seconds())}, nil
	}

	remaining := *limit - count - 1
	if remaining < 0 {
		remaining = 0
	}
	return APIKeyResult{
		Allowed:        count < *limit,
		Limit:          limit,
		Remaining:      remaining,
		ResetInSeconds: int64(resetIn.Seconds()),
	}, nil
}
