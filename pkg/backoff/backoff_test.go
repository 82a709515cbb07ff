package backoff

import (
	"math/rand"
	"testing"
	"time"
)

func TestDelay_Series(t *testing.T) {
	// S4: base=1s, multiplier=2, max=30s, jitter disabled.
	p := Policy{BaseDelay: time.Second, Multiplier: 2, MaxDelay: 30 * time.Second, Jitter: false}
	want := []time.Duration{
		1000 * time.Millisecond,
		2000 * time.Millisecond,
		4000 * time.Millisecond,
		8000 * time.Millisecond,
		16000 * time.Millisecond,
		30000 * time.Millisecond,
	}
	for i, w := range want {
		attemptCount := i + 1
		got := Delay(p, attemptCount, nil)
		if got != w {
			t.Errorf("Delay(attempt=%d) = %v, want %v", attemptCount, got, w)
		}
	}
}

func TestDelay_BoundedWithJitter(t *testing.T) {
	p := DefaultPolicy()
	rnd := rand.New(rand.NewSource(1))
	for attempt := 1; attempt <= 10; attempt++ {
		d := Delay(p, attempt, rnd)
		min := time.Duration(float64(p.BaseDelay) * 0.75)
		max := time.Duration(float64(p.MaxDelay) * 1.25)
		if d < min || d > max {
			t.Errorf("Delay(attempt=%d) = %v, want in [%v, %v]", attempt, d, min, max)
		}
	}
}

func TestNextEligibleTime_StrictlyFuture(t *testing.T) {
	p := DefaultPolicy()
	now := time.Now()
	rnd := rand.New(rand.NewSource(2))
	got := NextEligibleTime(p, 1, now, rnd)
	if !got.After(now) {
		t.Errorf("NextEligibleTime = %v, want strictly after %v", got, now)
	}
}

func TestShouldMarkExhausted(t *testing.T) {
	p := DefaultPolicy()
	tests := []struct {
		attempt int
		want    bool
	}{
		{1, false},
		{4, false},
		{5, true},
		{6, true},
	}
	for _, tt := range tests {
		if got := ShouldMarkExhausted(p, tt.attempt); got != tt.want {
			t.Errorf("ShouldMarkExhausted(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestNextTier(t *testing.T) {
	bp := BacklogPolicy{Enabled: true, TierDelaysDays: []int{1, 3, 7}, MaxTier: 3}
	tests := []struct {
		current int
		want    int
	}{
		{0, 1},
		{1, 2},
		{2, 3},
		{3, 3}, // clamped at MaxTier
	}
	for _, tt := range tests {
		if got := NextTier(bp, tt.current); got != tt.want {
			t.Errorf("NextTier(%d) = %d, want %d", tt.current, got, tt.want)
		}
	}
}

func TestTierDelay_BoundedJitter(t *testing.T) {
	bp := BacklogPolicy{Enabled: true, TierDelaysDays: []int{7}, MaxTier: 1, Jitter: true}
	rnd := rand.New(rand.NewSource(3))
	base := 7 * 24 * time.Hour
	for i := 0; i < 20; i++ {
		d := TierDelay(bp, 1, rnd)
		if d < base-12*time.Hour || d > base+12*time.Hour {
			t.Errorf("TierDelay = %v, want within 12h of %v", d, base)
		}
	}
}
