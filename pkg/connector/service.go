package connector

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/quietloop/orchestrator/pkg/crypto"
)

// Service wraps the connector Store with API-key encryption at rest.
type Service struct {
	store     *Store
	secretBox *crypto.Box
}

// NewService creates a connector Service.
func NewService(store *Store, secretBox *crypto.Box) *Service {
	return &Service{store: store, secretBox: secretBox}
}

// Create encrypts the raw API key and inserts a new connector.
func (s *Service) Create(ctx context.Context, req CreateRequest) (Connector, error) {
	encrypted, err := s.secretBox.Encrypt(req.APIKey)
	if err != nil {
		return Connector{}, fmt.Errorf("encrypting api key: %w", err)
	}

	rateLimitPerMinute := req.RateLimitPerMinute
	if rateLimitPerMinute == 0 {
		rateLimitPerMinute = 60
	}
	rateLimitPauseSeconds := req.RateLimitPauseSeconds
	if rateLimitPauseSeconds == 0 {
		rateLimitPauseSeconds = 60
	}

	return s.store.Create(ctx, req.Name, Type(req.Type), req.BaseURL, encrypted, rateLimitPerMinute, rateLimitPauseSeconds)
}

// Get returns a single connector.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Connector, error) {
	return s.store.Get(ctx, id)
}

// List returns every connector.
func (s *Service) List(ctx context.Context) ([]Connector, error) {
	return s.store.List(ctx)
}

// Update updates a connector's editable fields. The API key is immutable
// after creation; operators re-create the connector to rotate it.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req UpdateRequest) (Connector, error) {
	rateLimitPerMinute := req.RateLimitPerMinute
	if rateLimitPerMinute == 0 {
		rateLimitPerMinute = 60
	}
	rateLimitPauseSeconds := req.RateLimitPauseSeconds
	if rateLimitPauseSeconds == 0 {
		rateLimitPauseSeconds = 60
	}
	return s.store.Update(ctx, id, req.Name, req.BaseURL, rateLimitPerMinute, rateLimitPauseSeconds)
}

// Delete removes a connector.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.store.Delete(ctx, id)
}

// PauseQueue pauses dispatch for a connector.
func (s *Service) PauseQueue(ctx context.Context, id uuid.UUID) error {
	return s.store.SetQueuePaused(ctx, id, true)
}

// ResumeQueue resumes dispatch for a connector.
func (s *Service) ResumeQueue(ctx context.Context, id uuid.UUID) error {
	return s.store.SetQueuePaused(ctx, id, false)
}
