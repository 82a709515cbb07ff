package apikey

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

// Service encapsulates API key business logic.
type Service struct {
	store  *Store
	logger *slog.Logger
}

// NewService creates an API key Service backed by the given global pool.
func NewService(pool *pgxpool.Pool, logger *slog.Logger) *Service {
	return &Service{
		store:  NewStore(pool),
		logger: logger,
	}
}

// List returns every API key.
func (s *Service) List(ctx context.Context) ([]Response, error) {
	rows, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing api keys: %w", err)
	}

	items := make([]Response, 0, len(rows))
	for i := range rows {
		items = append(items, rows[i].ToResponse())
	}
	return items, nil
}

// Create generates a new API key, stores its bcrypt hash, and returns the
// raw key once.
func (s *Service) Create(ctx context.Context, req CreateRequest) (CreateResponse, error) {
	raw, hash, err := generateAPIKey()
	if err != nil {
		return CreateResponse{}, fmt.Errorf("generating api key: %w", err)
	}

	row, err := s.store.Create(ctx, req.Name, hash, req.LimitPerMinute)
	if err != nil {
		return CreateResponse{}, fmt.Errorf("creating api key: %w", err)
	}

	return CreateResponse{
		Response: row.ToResponse(),
		RawKey:   raw,
	}, nil
}

// Revoke marks an API key as revoked.
func (s *Service) Revoke(ctx context.Context, id uuid.UUID) error {
	if err := s.store.Revoke(ctx, id); err != nil {
		return fmt.Errorf("revoking api key: %w", err)
	}
	return nil
}

// Authenticate reports whether rawKey matches an active API key, returning
// its row and its configured per-minute limit for 4.F's inbound throttle.
func (s *Service) Authenticate(ctx context.Context, rawKey string) (Row, bool) {
	rows, err := s.store.List(ctx)
	if err != nil {
		s.logger.Error("listing api keys for authentication", "error", err)
		return Row{}, false
	}

	for _, r := range rows {
		if r.RevokedAt != nil {
			continue
		}
		if bcrypt.CompareHashAndPassword([]byte(r.KeyHash), []byte(rawKey)) == nil {
			return r, true
		}
	}
	return Row{}, false
}

// generateAPIKey creates a random 32-byte API key, hex-encoded with an
// "ow_" prefix, and its bcrypt hash.
func generateAPIKey() (raw, hash string, err error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", "", fmt.Errorf("reading random bytes: %w", err)
	}
	raw = "ow_" + hex.EncodeToString(b)

	h, err := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
	if err != nil {
		return "", "", fmt.Errorf("hashing api key: %w", err)
	}
	return raw, string(h), nil
}
