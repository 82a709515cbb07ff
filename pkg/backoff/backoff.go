// Package backoff computes exponential cooldown delays and backlog-tier
// delays for the search-registry retry policy. Every function here is pure
// given an explicit RNG source: no wall-clock reads, no global state.
package backoff

import (
	"math"
	"math/rand"
	"time"
)

// Policy holds the tunables for the normal (non-backlog) retry cooldown.
// Defaults match spec: base=1h, multiplier=2, max=24h, maxAttempts=5.
type Policy struct {
	BaseDelay   time.Duration
	Multiplier  float64
	MaxDelay    time.Duration
	MaxAttempts int
	Jitter      bool
}

// DefaultPolicy returns the documented defaults.
func DefaultPolicy() Policy {
	return Policy{
		BaseDelay:   time.Hour,
		Multiplier:  2,
		MaxDelay:    24 * time.Hour,
		MaxAttempts: 5,
		Jitter:      true,
	}
}

// BacklogPolicy holds the long-delay tier ladder entered once normal retries
// are exhausted.
type BacklogPolicy struct {
	Enabled        bool
	TierDelaysDays []int
	MaxTier        int
	Jitter         bool
}

// jitterFactor returns a uniform value in [0.75, 1.25].
func jitterFactor(rnd *rand.Rand) float64 {
	return 0.75 + rnd.Float64()*0.5
}

// Delay computes the cooldown delay for the given attempt count (1-based:
// the attempt that just failed), without adding it to "now".
func Delay(p Policy, attemptCount int, rnd *rand.Rand) time.Duration {
	exp := math.Max(0, float64(attemptCount-1))
	d := float64(p.BaseDelay) * math.Pow(p.Multiplier, exp)
	if d > float64(p.MaxDelay) {
		d = float64(p.MaxDelay)
	}
	if p.Jitter && rnd != nil {
		d *= jitterFactor(rnd)
	}
	return time.Duration(d)
}

// NextEligibleTime returns now + Delay(...).
func NextEligibleTime(p Policy, attemptCount int, now time.Time, rnd *rand.Rand) time.Time {
	return now.Add(Delay(p, attemptCount, rnd))
}

// ShouldMarkExhausted reports whether attemptCount has reached the policy's
// max attempts.
func ShouldMarkExhausted(p Policy, attemptCount int) bool {
	return attemptCount >= p.MaxAttempts
}

// TierDelay computes the backlog delay for tier t (1-based), with ±12h jitter.
func TierDelay(bp BacklogPolicy, tier int, rnd *rand.Rand) time.Duration {
	idx := tier - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(bp.TierDelaysDays) {
		idx = len(bp.TierDelaysDays) - 1
	}
	days := bp.TierDelaysDays[idx]
	base := time.Duration(days) * 24 * time.Hour
	if !bp.Jitter || rnd == nil {
		return base
	}
	// ±12h uniform jitter.
	jitter := time.Duration((rnd.Float64()*2 - 1) * float64(12*time.Hour))
	return base + jitter
}

// NextTier returns min(currentTier+1, maxTier).
func NextTier(bp BacklogPolicy, currentTier int) int {
	next := currentTier + 1
	if next > bp.MaxTier {
		return bp.MaxTier
	}
	return next
}

// NextEligibleTierTime returns now + TierDelay(...) for the given tier.
func NextEligibleTierTime(bp BacklogPolicy, tier int, now time.Time, rnd *rand.Rand) time.Time {
	return now.Add(TierDelay(bp, tier, rnd))
}
