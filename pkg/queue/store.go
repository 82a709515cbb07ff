package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/quietloop/orchestrator/internal/db"
)

// Store provides database operations for request-queue rows.
type Store struct {
	dbtx db.DBTX
}

// NewStore creates a queue Store backed by the given database handle.
func NewStore(dbtx db.DBTX) *Store {
	return &Store{dbtx: dbtx}
}

// InsertIfNotExists inserts a queue row for a registry entry, doing nothing
// if one already exists (idempotent enqueue).
func (s *Store) InsertIfNotExists(ctx context.Context, searchRegistryID, connectorID uuid.UUID, priority int, scheduledAt time.Time) error {
	_, err := s.dbtx.Exec(ctx, `INSERT INTO request_queue (search_registry_id, connector_id, priority, scheduled_at)
		VALUES ($1, $2, $3, $4) ON CONFLICT (search_registry_id) DO NOTHING`,
		searchRegistryID, connectorID, priority, scheduledAt)
	if err != nil {
		return fmt.Errorf("inserting queue row: %w", err)
	}
	return nil
}

// IsPaused reports whether a connector's queue is currently paused.
func (s *Store) IsPaused(ctx context.Context, connectorID uuid.UUID) (bool, error) {
	var paused bool
	err := s.dbtx.QueryRow(ctx, `SELECT queue_paused FROM connectors WHERE id = $1`, connectorID).Scan(&paused)
	if err != nil {
		return false, fmt.Errorf("checking queue_paused: %w", err)
	}
	return paused, nil
}

// DequeueTop atomically claims up to limit rows ordered by priority desc,
// scheduledAt asc, and deletes them from the queue in one statement.
func (s *Store) DequeueTop(ctx context.Context, connectorID uuid.UUID, limit int, scheduledBefore time.Time) ([]Row, error) {
	query := `WITH top AS (
		SELECT id FROM request_queue
		WHERE connector_id = $1 AND scheduled_at <= $2
		ORDER BY priority DESC, scheduled_at ASC
		LIMIT $3
		FOR UPDATE SKIP LOCKED
	)
	DELETE FROM request_queue rq USING top
	WHERE rq.id = top.id
	RETURNING rq.id, rq.search_registry_id, rq.connector_id, rq.priority, rq.scheduled_at`

	rows, err := s.dbtx.Query(ctx, query, connectorID, scheduledBefore, limit)
	if err != nil {
		return nil, fmt.Errorf("dequeuing priority items: %w", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var r Row
		if err := rows.Scan(&r.ID, &r.SearchRegistryID, &r.ConnectorID, &r.Priority, &r.ScheduledAt); err != nil {
			return nil, fmt.Errorf("scanning queue row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ClearQueue deletes queue rows, optionally scoped to one connector, and
// reverts matching registry entries to pending. Returns the count cleared.
func (s *Store) ClearQueue(ctx context.Context, connectorID *uuid.UUID) (int, error) {
	var deleteQuery, revertQuery string
	var args []any

	if connectorID != nil {
		deleteQuery = `DELETE FROM request_queue WHERE connector_id = $1 RETURNING search_registry_id`
		args = []any{*connectorID}
	} else {
		deleteQuery = `DELETE FROM request_queue RETURNING search_registry_id`
	}

	rows, err := s.dbtx.Query(ctx, deleteQuery, args...)
	if err != nil {
		return 0, fmt.Errorf("clearing queue: %w", err)
	}
	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scanning cleared queue row: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	if len(ids) == 0 {
		return 0, nil
	}

	revertQuery = `UPDATE search_registry SET state = 'pending', updated_at = now()
		WHERE id = ANY($1) AND state = 'queued'`
	if _, err := s.dbtx.Exec(ctx, revertQuery, ids); err != nil {
		return 0, fmt.Errorf("reverting cleared entries to pending: %w", err)
	}
	return len(ids), nil
}
