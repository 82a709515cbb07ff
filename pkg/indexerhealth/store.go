package indexerhealth

import (
	"context"
	"fmt"
	"time"

	"github.com/quietloop/orchestrator/internal/db"
)

// Store provides database operations for the indexer-health cache.
type Store struct {
	dbtx db.DBTX
}

// NewStore creates an indexer-health Store backed by the given database handle.
func NewStore(dbtx db.DBTX) *Store {
	return &Store{dbtx: dbtx}
}

// Upsert writes or refreshes a cache row for one indexer.
func (s *Store) Upsert(ctx context.Context, h Health, now time.Time) error {
	query := `INSERT INTO indexer_health_cache
		(instance_id, indexer_id, name, enabled, is_rate_limited, rate_limit_expires_at, most_recent_failure, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (instance_id, indexer_id) DO UPDATE SET
			name = EXCLUDED.name,
			enabled = EXCLUDED.enabled,
			is_rate_limited = EXCLUDED.is_rate_limited,
			rate_limit_expires_at = EXCLUDED.rate_limit_expires_at,
			most_recent_failure = EXCLUDED.most_recent_failure,
			last_updated = EXCLUDED.last_updated`
	_, err := s.dbtx.Exec(ctx, query, h.InstanceID, h.IndexerID, h.Name, h.Enabled, h.IsRateLimited,
		h.RateLimitExpires, h.MostRecentFailure, now)
	if err != nil {
		return fmt.Errorf("upserting indexer health: %w", err)
	}
	return nil
}

// GetAllCached returns every cached row, flagging entries stale relative to
// staleThreshold.
func (s *Store) GetAllCached(ctx context.Context, staleThreshold time.Duration, now time.Time) ([]Health, error) {
	rows, err := s.dbtx.Query(ctx, `SELECT instance_id, indexer_id, name, enabled, is_rate_limited,
		rate_limit_expires_at, most_recent_failure, last_updated FROM indexer_health_cache`)
	if err != nil {
		return nil, fmt.Errorf("listing indexer health cache: %w", err)
	}
	defer rows.Close()

	var out []Health
	for rows.Next() {
		var h Health
		if err := rows.Scan(&h.InstanceID, &h.IndexerID, &h.Name, &h.Enabled, &h.IsRateLimited,
			&h.RateLimitExpires, &h.MostRecentFailure, &h.LastUpdated); err != nil {
			return nil, fmt.Errorf("scanning indexer health row: %w", err)
		}
		h.IsStale = now.Sub(h.LastUpdated) > staleThreshold
		out = append(out, h)
	}
	return out, rows.Err()
}
