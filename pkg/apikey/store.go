package apikey

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const columns = `id, name, key_hash, limit_per_minute, created_at, revoked_at`

// Store provides database operations for API keys using the global pool.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates an API key Store backed by the given global connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func scanRow(row pgx.Row) (Row, error) {
	var r Row
	err := row.Scan(&r.ID, &r.Name, &r.KeyHash, &r.LimitPerMinute, &r.CreatedAt, &r.RevokedAt)
	return r, err
}

// List returns every API key, most recently created first.
func (s *Store) List(ctx context.Context) ([]Row, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+columns+` FROM api_keys ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing api keys: %w", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		r, err := scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning api key row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Create inserts a new API key and returns the created row.
func (s *Store) Create(ctx context.Context, name, keyHash string, limitPerMinute *int) (Row, error) {
	query := `INSERT INTO api_keys (name, key_hash, limit_per_minute) VALUES ($1, $2, $3) RETURNING ` + columns
	row := s.pool.QueryRow(ctx, query, name, keyHash, limitPerMinute)
	r, err := scanRow(row)
	if err != nil {
		return Row{}, fmt.Errorf("creating api key: %w", err)
	}
	return r, nil
}

// Revoke marks an API key revoked; it is left in the table for audit history.
func (s *Store) Revoke(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `UPDATE api_keys SET revoked_at = now() WHERE id = $1 AND revoked_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("revoking api key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// FindActiveByHash returns the active (non-revoked) key matching keyHash, for
// inbound request authentication.
func (s *Store) FindActiveByHash(ctx context.Context, keyHash string) (Row, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+columns+` FROM api_keys WHERE key_hash = $1 AND revoked_at IS NULL`, keyHash)
	return scanRow(row)
}
