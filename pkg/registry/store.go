package registry

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/quietloop/orchestrator/internal/db"
)

const columns = `id, connector_id, content_type, content_id, season_id, search_type, state,
	attempt_count, priority, next_eligible, last_searched, failure_category, backlog_tier,
	season_pack_failed, created_at, updated_at`

// Store provides database operations for search-registry entries.
type Store struct {
	dbtx db.DBTX
}

// NewStore creates a registry Store backed by the given database handle.
func NewStore(dbtx db.DBTX) *Store {
	return &Store{dbtx: dbtx}
}

func scanEntry(row pgx.Row) (Entry, error) {
	var e Entry
	err := row.Scan(
		&e.ID, &e.ConnectorID, &e.ContentType, &e.ContentID, &e.SeasonID, &e.SearchType, &e.State,
		&e.AttemptCount, &e.Priority, &e.NextEligible, &e.LastSearched, &e.FailureCategory, &e.BacklogTier,
		&e.SeasonPackFailed, &e.CreatedAt, &e.UpdatedAt,
	)
	return e, err
}

// Get returns a single registry entry by ID.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (Entry, error) {
	row := s.dbtx.QueryRow(ctx, `SELECT `+columns+` FROM search_registry WHERE id = $1`, id)
	return scanEntry(row)
}

// Create inserts a new pending registry entry (normally populated by an
// external discovery scan).
func (s *Store) Create(ctx context.Context, connectorID uuid.UUID, contentType ContentType, contentID int64, seasonID *int64, searchType SearchType) (Entry, error) {
	query := `INSERT INTO search_registry (connector_id, content_type, content_id, season_id, search_type)
		VALUES ($1, $2, $3, $4, $5) RETURNING ` + columns
	row := s.dbtx.QueryRow(ctx, query, connectorID, contentType, contentID, seasonID, searchType)
	e, err := scanEntry(row)
	if err != nil {
		return Entry{}, fmt.Errorf("creating registry entry: %w", err)
	}
	return e, nil
}

// ListPendingForConnector returns every pending entry for a connector that
// does not already have a queue row.
func (s *Store) ListPendingForConnector(ctx context.Context, connectorID uuid.UUID) ([]Entry, error) {
	query := `SELECT ` + columns + ` FROM search_registry sr
		WHERE sr.connector_id = $1 AND sr.state = 'pending'
		AND NOT EXISTS (SELECT 1 FROM request_queue rq WHERE rq.search_registry_id = sr.id)`
	rows, err := s.dbtx.Query(ctx, query, connectorID)
	if err != nil {
		return nil, fmt.Errorf("listing pending registry entries: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning registry row: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// SetQueued transitions a pending entry to queued and sets its priority.
func (s *Store) SetQueued(ctx context.Context, id uuid.UUID, priority int) error {
	tag, err := s.dbtx.Exec(ctx, `UPDATE search_registry SET state = 'queued', priority = $2, updated_at = now()
		WHERE id = $1 AND state = 'pending'`, id, priority)
	if err != nil {
		return fmt.Errorf("setting entry queued: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// SetSearching performs the queued→searching CAS transition. ok is false
// (with no error) if another worker already claimed the entry.
func (s *Store) SetSearching(ctx context.Context, id uuid.UUID) (ok bool, err error) {
	tag, err := s.dbtx.Exec(ctx, `UPDATE search_registry SET state = 'searching', updated_at = now()
		WHERE id = $1 AND state = 'queued'`, id)
	if err != nil {
		return false, fmt.Errorf("setting entry searching: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// SetCooldownRetry moves a searching entry into cooldown for the next retry
// attempt (backlog disabled or below maxAttempts).
func (s *Store) SetCooldownRetry(ctx context.Context, id uuid.UUID, attempt int, nextEligible time.Time, failureCategory string) error {
	_, err := s.dbtx.Exec(ctx, `UPDATE search_registry
		SET state = 'cooldown', attempt_count = $2, next_eligible = $3, failure_category = $4,
		    last_searched = now(), updated_at = now()
		WHERE id = $1`, id, attempt, nextEligible, failureCategory)
	if err != nil {
		return fmt.Errorf("setting entry cooldown: %w", err)
	}
	return nil
}

// SetCooldownBacklog moves a searching entry into a backlog tier, resetting
// attemptCount to 0.
func (s *Store) SetCooldownBacklog(ctx context.Context, id uuid.UUID, newTier int, nextEligible time.Time, failureCategory string) error {
	_, err := s.dbtx.Exec(ctx, `UPDATE search_registry
		SET state = 'cooldown', attempt_count = 0, backlog_tier = $2, next_eligible = $3,
		    failure_category = $4, last_searched = now(), updated_at = now()
		WHERE id = $1`, id, newTier, nextEligible, failureCategory)
	if err != nil {
		return fmt.Errorf("setting entry backlog cooldown: %w", err)
	}
	return nil
}

// SetExhausted marks a searching or cooldown entry as permanently exhausted.
func (s *Store) SetExhausted(ctx context.Context, id uuid.UUID, attempt int) error {
	_, err := s.dbtx.Exec(ctx, `UPDATE search_registry
		SET state = 'exhausted', attempt_count = $2, next_eligible = NULL, last_searched = now(), updated_at = now()
		WHERE id = $1`, id, attempt)
	if err != nil {
		return fmt.Errorf("setting entry exhausted: %w", err)
	}
	return nil
}

// MarkExhaustedManual forces an entry from searching or cooldown to exhausted.
func (s *Store) MarkExhaustedManual(ctx context.Context, id uuid.UUID) error {
	tag, err := s.dbtx.Exec(ctx, `UPDATE search_registry
		SET state = 'exhausted', next_eligible = NULL, updated_at = now()
		WHERE id = $1 AND state IN ('searching', 'cooldown')`, id)
	if err != nil {
		return fmt.Errorf("manually exhausting entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Delete removes a registry row (content reached desired quality, external signal).
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := s.dbtx.Exec(ctx, `DELETE FROM search_registry WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting registry entry: %w", err)
	}
	return nil
}

// ReenqueueEligibleCooldownItems moves every cooldown row with
// nextEligible ≤ now back to pending, optionally scoped to one connector.
// Returns the count reenqueued and the count still cooling.
func (s *Store) ReenqueueEligibleCooldownItems(ctx context.Context, connectorID *uuid.UUID, now time.Time) (reenqueued, stillCooling int, err error) {
	var tag pgconn.CommandTag
	if connectorID != nil {
		tag, err = s.dbtx.Exec(ctx, `UPDATE search_registry SET state = 'pending', next_eligible = NULL, updated_at = now()
			WHERE connector_id = $1 AND state = 'cooldown' AND next_eligible <= $2`, *connectorID, now)
	} else {
		tag, err = s.dbtx.Exec(ctx, `UPDATE search_registry SET state = 'pending', next_eligible = NULL, updated_at = now()
			WHERE state = 'cooldown' AND next_eligible <= $1`, now)
	}
	if err != nil {
		return 0, 0, fmt.Errorf("reenqueueing cooldown entries: %w", err)
	}
	reenqueued = int(tag.RowsAffected())

	var countQuery string
	var args []any
	if connectorID != nil {
		countQuery = `SELECT count(*) FROM search_registry WHERE connector_id = $1 AND state = 'cooldown'`
		args = []any{*connectorID}
	} else {
		countQuery = `SELECT count(*) FROM search_registry WHERE state = 'cooldown'`
	}
	if err := s.dbtx.QueryRow(ctx, countQuery, args...).Scan(&stillCooling); err != nil {
		return reenqueued, 0, fmt.Errorf("counting still-cooling entries: %w", err)
	}
	return reenqueued, stillCooling, nil
}

// CleanupOrphanedSearchingItems reverts searching rows whose updatedAt is
// older than maxAge back to queued and re-inserts them into the queue.
func (s *Store) CleanupOrphanedSearchingItems(ctx context.Context, maxAge time.Duration, now time.Time) (int, error) {
	query := `WITH orphaned AS (
		UPDATE search_registry SET state = 'queued', updated_at = $2
		WHERE state = 'searching' AND updated_at < $1
		RETURNING id, connector_id, priority
	)
	INSERT INTO request_queue (search_registry_id, connector_id, priority, scheduled_at)
	SELECT id, connector_id, priority, $2 FROM orphaned
	ON CONFLICT (search_registry_id) DO NOTHING`

	threshold := now.Add(-maxAge)
	tag, err := s.dbtx.Exec(ctx, query, threshold, now)
	if err != nil {
		return 0, fmt.Errorf("cleaning up orphaned searching entries: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// MarkSeasonPackFailed sets seasonPackFailed=true on every episode entry
// sharing the given season for a connector.
func (s *Store) MarkSeasonPackFailed(ctx context.Context, connectorID uuid.UUID, seasonID int64) error {
	_, err := s.dbtx.Exec(ctx, `UPDATE search_registry SET season_pack_failed = true, updated_at = now()
		WHERE connector_id = $1 AND season_id = $2 AND content_type = 'episode'`, connectorID, seasonID)
	if err != nil {
		return fmt.Errorf("marking season pack failed: %w", err)
	}
	return nil
}
