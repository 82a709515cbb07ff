package connector

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/quietloop/orchestrator/internal/db"
)

const columns = `id, name, type, base_url, api_key_encrypted, health_status, queue_paused,
	rate_limit_per_minute, rate_limit_pause_seconds, created_at, updated_at`

// Store provides database operations for connectors.
type Store struct {
	dbtx db.DBTX
}

// NewStore creates a connector Store backed by the given database handle.
func NewStore(dbtx db.DBTX) *Store {
	return &Store{dbtx: dbtx}
}

func scanConnector(row pgx.Row) (Connector, error) {
	var c Connector
	err := row.Scan(
		&c.ID, &c.Name, &c.Type, &c.BaseURL, &c.APIKeyEncrypted, &c.HealthStatus, &c.QueuePaused,
		&c.RateLimitPerMinute, &c.RateLimitPauseSeconds, &c.CreatedAt, &c.UpdatedAt,
	)
	return c, err
}

// Create inserts a new connector and seeds its rate-limit state row.
func (s *Store) Create(ctx context.Context, name string, typ Type, baseURL, apiKeyEncrypted string, rateLimitPerMinute, rateLimitPauseSeconds int) (Connector, error) {
	query := `INSERT INTO connectors (name, type, base_url, api_key_encrypted, rate_limit_per_minute, rate_limit_pause_seconds)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING ` + columns
	row := s.dbtx.QueryRow(ctx, query, name, typ, baseURL, apiKeyEncrypted, rateLimitPerMinute, rateLimitPauseSeconds)
	c, err := scanConnector(row)
	if err != nil {
		return Connector{}, fmt.Errorf("creating connector: %w", err)
	}

	_, err = s.dbtx.Exec(ctx, `INSERT INTO connector_rate_limits (connector_id) VALUES ($1)`, c.ID)
	if err != nil {
		return Connector{}, fmt.Errorf("seeding connector rate-limit state: %w", err)
	}
	return c, nil
}

// Get returns a single connector by ID.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (Connector, error) {
	row := s.dbtx.QueryRow(ctx, `SELECT `+columns+` FROM connectors WHERE id = $1`, id)
	return scanConnector(row)
}

// List returns every connector.
func (s *Store) List(ctx context.Context) ([]Connector, error) {
	rows, err := s.dbtx.Query(ctx, `SELECT `+columns+` FROM connectors ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("listing connectors: %w", err)
	}
	defer rows.Close()

	var out []Connector
	for rows.Next() {
		c, err := scanConnector(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning connector row: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Update updates the editable fields of a connector.
func (s *Store) Update(ctx context.Context, id uuid.UUID, name, baseURL string, rateLimitPerMinute, rateLimitPauseSeconds int) (Connector, error) {
	query := `UPDATE connectors SET name = $2, base_url = $3, rate_limit_per_minute = $4,
		rate_limit_pause_seconds = $5, updated_at = now() WHERE id = $1 RETURNING ` + columns
	row := s.dbtx.QueryRow(ctx, query, id, name, baseURL, rateLimitPerMinute, rateLimitPauseSeconds)
	return scanConnector(row)
}

// Delete removes a connector; cascades tear down its queue and rate-limit rows.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.dbtx.Exec(ctx, `DELETE FROM connectors WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting connector: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// SetQueuePaused toggles the connector's queue-paused flag.
func (s *Store) SetQueuePaused(ctx context.Context, id uuid.UUID, paused bool) error {
	tag, err := s.dbtx.Exec(ctx, `UPDATE connectors SET queue_paused = $2, updated_at = now() WHERE id = $1`, id, paused)
	if err != nil {
		return fmt.Errorf("setting queue_paused: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// SetHealthStatus updates the connector's last-observed health status.
func (s *Store) SetHealthStatus(ctx context.Context, id uuid.UUID, status HealthStatus) error {
	_, err := s.dbtx.Exec(ctx, `UPDATE connectors SET health_status = $2, updated_at = now() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("setting health_status: %w", err)
	}
	return nil
}
