package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/quietloop/orchestrator/pkg/orcherr"
)

func TestCalculateBackoffDelay_Bounded(t *testing.T) {
	cfg := Config{BaseDelay: time.Second, MaxDelay: 10 * time.Second, Multiplier: 2, Jitter: false}
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 10 * time.Second}, // capped
	}
	for _, tt := range tests {
		got := CalculateBackoffDelay(tt.attempt, cfg)
		if got != tt.want {
			t.Errorf("CalculateBackoffDelay(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestWithRetry_NonRetryableReturnsImmediately(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), DefaultConfig(), func(ctx context.Context) error {
		calls++
		return orcherr.NewAuthenticationError("bad key")
	})
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (non-retryable should not retry)", calls)
	}
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestWithRetry_RetriesRetryableThenSucceeds(t *testing.T) {
	calls := 0
	cfg := Config{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, Multiplier: 2, Jitter: false}
	err := WithRetry(context.Background(), cfg, func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return orcherr.NewNetworkError("conn reset", errors.New("econnreset"))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestWithRetry_ExhaustsRetries(t *testing.T) {
	calls := 0
	cfg := Config{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, Multiplier: 2, Jitter: false}
	err := WithRetry(context.Background(), cfg, func(ctx context.Context) error {
		calls++
		return orcherr.NewServerError("boom", 503)
	})
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if calls != cfg.MaxRetries+1 {
		t.Errorf("calls = %d, want %d", calls, cfg.MaxRetries+1)
	}
}
