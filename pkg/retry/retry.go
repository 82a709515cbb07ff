// Package retry provides a generic retry-with-backoff wrapper for outbound
// HTTP calls, built on top of cenkalti/backoff/v5 instead of hand-rolling a
// second backoff loop next to the domain-specific one in pkg/backoff.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/quietloop/orchestrator/pkg/orcherr"
)

// Config controls the retry policy. Matches spec.md 4.K defaults.
type Config struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Multiplier float64
	Jitter     bool
}

// DefaultConfig returns spec.md's documented defaults (3 retries, 1s base, 30s max).
func DefaultConfig() Config {
	return Config{
		MaxRetries: 3,
		BaseDelay:  time.Second,
		MaxDelay:   30 * time.Second,
		Multiplier: 2,
		Jitter:     true,
	}
}

// CalculateBackoffDelay computes min(baseDelay * multiplier^attempt, maxDelay),
// then applies uniform [0.75, 1.25] jitter and floors to an integer duration.
func CalculateBackoffDelay(attempt int, cfg Config) time.Duration {
	d := float64(cfg.BaseDelay)
	for i := 0; i < attempt; i++ {
		d *= cfg.Multiplier
	}
	if d > float64(cfg.MaxDelay) {
		d = float64(cfg.MaxDelay)
	}
	if cfg.Jitter {
		d *= 0.75 + randFloat()*0.5
	}
	return time.Duration(d)
}

// randFloat is split out so tests can't accidentally depend on global rand
// state ordering; production uses math/rand's default source.
var randFloat = defaultRandFloat

// WithRetry executes fn, retrying on retryable *orcherr.Error failures up to
// cfg.MaxRetries times (cfg.MaxRetries+1 attempts in all). A RateLimit error with RetryAfter set sleeps
// exactly that long instead of the computed backoff delay. Non-retryable and
// unrecognized errors return immediately.
func WithRetry(ctx context.Context, cfg Config, fn func(ctx context.Context) error) error {
	operation := func() (struct{}, error) {
		err := fn(ctx)
		if err == nil {
			return struct{}{}, nil
		}
		oe, ok := orcherr.As(err)
		if !ok || !oe.Retryable() {
			return struct{}{}, backoff.Permanent(err)
		}
		if oe.Category == orcherr.CategoryRateLimit && oe.RetryAfter > 0 {
			return struct{}{}, backoff.RetryAfter(oe.RetryAfter)
		}
		return struct{}{}, err
	}

	expBackoff := backoffFromConfig(cfg)

	_, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(expBackoff),
		backoff.WithMaxTries(uint(cfg.MaxRetries+1)),
	)
	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		return permanent.Unwrap()
	}
	return err
}

func backoffFromConfig(cfg Config) backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = cfg.BaseDelay
	eb.MaxInterval = cfg.MaxDelay
	eb.Multiplier = cfg.Multiplier
	if !cfg.Jitter {
		eb.RandomizationFactor = 0
	} else {
		eb.RandomizationFactor = 0.25
	}
	return eb
}
