// Package throttle enforces per-connector outbound request pacing and
// inbound per-API-key metering.
package throttle

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/quietloop/orchestrator/internal/db"
)

// Decision is the result of an admission check.
type Decision struct {
	Allowed      bool
	Reason       string
	RetryAfterMs int64
}

// ConnectorThrottle enforces 4.F's per-connector pause-window and
// requests-per-minute admission policy against Postgres-resident state.
// Connector rate-limit state is the database row, not an in-memory cache, so
// admission checks are consistent across every worker process.
type ConnectorThrottle struct {
	dbtx db.DBTX
}

// NewConnectorThrottle creates a ConnectorThrottle backed by the given database handle.
func NewConnectorThrottle(dbtx db.DBTX) *ConnectorThrottle {
	return &ConnectorThrottle{dbtx: dbtx}
}

type rateLimitRow struct {
	PausedUntil        *time.Time
	LastRequestAt      *time.Time
	RequestsThisMinute int
	MinuteWindowStart  time.Time
}

func (t *ConnectorThrottle) getRow(ctx context.Context, connectorID uuid.UUID) (rateLimitRow, error) {
	var r rateLimitRow
	err := t.dbtx.QueryRow(ctx, `SELECT paused_until, last_request_at, requests_this_minute, minute_window_start
		FROM connector_rate_limits WHERE connector_id = $1`, connectorID).
		Scan(&r.PausedUntil, &r.LastRequestAt, &r.RequestsThisMinute, &r.MinuteWindowStart)
	return r, err
}

// CanDispatch reports whether a request to connectorID is currently admitted.
func (t *ConnectorThrottle) CanDispatch(ctx context.Context, connectorID uuid.UUID, ratePerMinute int, now time.Time) (Decision, error) {
	row, err := t.getRow(ctx, connectorID)
	if err != nil {
		return Decision{}, fmt.Errorf("loading connector rate-limit state: %w", err)
	}

	if row.PausedUntil != nil && row.PausedUntil.After(now) {
		return Decision{Allowed: false, Reason: "rate_limit", RetryAfterMs: row.PausedUntil.Sub(now).Milliseconds()}, nil
	}

	effectiveCount := row.RequestsThisMinute
	if now.Sub(row.MinuteWindowStart) >= time.Minute {
		effectiveCount = 0
	}
	if ratePerMinute > 0 && effectiveCount >= ratePerMinute {
		windowEnd := row.MinuteWindowStart.Add(time.Minute)
		retryAfter := windowEnd.Sub(now)
		if retryAfter < 0 {
			retryAfter = 0
		}
		return Decision{Allowed: false, Reason: "rate_limit", RetryAfterMs: retryAfter.Milliseconds()}, nil
	}

	return Decision{Allowed: true}, nil
}

// RecordRequest increments the minute-window counter, rolling the window
// forward when it has expired.
func (t *ConnectorThrottle) RecordRequest(ctx context.Context, connectorID uuid.UUID, now time.Time) error {
	row, err := t.getRow(ctx, connectorID)
	if err != nil {
		return fmt.Errorf("loading connector rate-limit state: %w", err)
	}

	if now.Sub(row.MinuteWindowStart) >= time.Minute {
		_, err = t.dbtx.Exec(ctx, `UPDATE connector_rate_limits
			SET requests_this_minute = 1, minute_window_start = $2, last_request_at = $2
			WHERE connector_id = $1`, connectorID, now)
	} else {
		_, err = t.dbtx.Exec(ctx, `UPDATE connector_rate_limits
			SET requests_this_minute = requests_this_minute + 1, last_request_at = $2
			WHERE connector_id = $1`, connectorID, now)
	}
	if err != nil {
		return fmt.Errorf("recording connector request: %w", err)
	}
	return nil
}

// HandleRateLimitResponse pauses the connector after an observed HTTP 429.
func (t *ConnectorThrottle) HandleRateLimitResponse(ctx context.Context, connectorID uuid.UUID, retryAfterSeconds, profilePauseSeconds int, now time.Time) error {
	pause := time.Duration(retryAfterSeconds) * time.Second
	if profilePause := time.Duration(profilePauseSeconds) * time.Second; profilePause > pause {
		pause = profilePause
	}
	if pause < time.Second {
		pause = time.Second
	}
	pausedUntil := now.Add(pause)

	_, err := t.dbtx.Exec(ctx, `UPDATE connector_rate_limits SET paused_until = $2 WHERE connector_id = $1`,
		connectorID, pausedUntil)
	if err != nil {
		return fmt.Errorf("pausing connector: %w", err)
	}
	return nil
}
