package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/quietloop/orchestrator/pkg/connector"
	"github.com/quietloop/orchestrator/pkg/priority"
	"github.com/quietloop/orchestrator/pkg/registry"
)

// ContentLookup resolves the priority-scoring inputs for a pending registry
// entry from the external content tables a discovery scan populates (air
// dates, specials season numbers, prior-download state). It is the one
// collaborator this package treats as out of scope for the core.
type ContentLookup interface {
	PriorityInput(ctx context.Context, entry registry.Entry) (priority.Input, error)
}

// Service implements 4.E's enqueue/dequeue/pause/clear operations.
type Service struct {
	store       *Store
	connectors  *connector.Store
	registry    *registry.Store
	content     ContentLookup
	weights     priority.Weights
	constants   priority.Constants
}

// NewService creates a queue Service.
func NewService(store *Store, connectors *connector.Store, reg *registry.Store, content ContentLookup, weights priority.Weights, constants priority.Constants) *Service {
	return &Service{store: store, connectors: connectors, registry: reg, content: content, weights: weights, constants: constants}
}

// EnqueuePendingItems implements 4.E's enqueuePendingItems. It is idempotent:
// repeated invocations produce no duplicate queue rows.
func (s *Service) EnqueuePendingItems(ctx context.Context, connectorID uuid.UUID, opts EnqueueOptions) (int, error) {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.ScheduledAt.IsZero() {
		opts.ScheduledAt = time.Now().UTC()
	}

	pending, err := s.registry.ListPendingForConnector(ctx, connectorID)
	if err != nil {
		return 0, fmt.Errorf("listing pending entries: %w", err)
	}

	enqueued := 0
	for start := 0; start < len(pending); start += opts.BatchSize {
		end := start + opts.BatchSize
		if end > len(pending) {
			end = len(pending)
		}
		batch := pending[start:end]

		for _, entry := range batch {
			input, err := s.content.PriorityInput(ctx, entry)
			if err != nil {
				return enqueued, fmt.Errorf("resolving priority input for %s: %w", entry.ID, err)
			}
			result := priority.Calculate(input, s.weights, s.constants, opts.ScheduledAt)

			id := uuid.MustParse(entry.ID)
			if err := s.registry.SetQueued(ctx, id, result.Score); err != nil {
				continue // lost the pending→queued race to another worker; skip
			}
			if err := s.store.InsertIfNotExists(ctx, id, connectorID, result.Score, opts.ScheduledAt); err != nil {
				return enqueued, err
			}
			enqueued++
		}
	}

	return enqueued, nil
}

// DequeuePriorityItems implements 4.E's dequeuePriorityItems.
func (s *Service) DequeuePriorityItems(ctx context.Context, connectorID uuid.UUID, opts DequeueOptions) ([]Row, error) {
	if opts.Limit <= 0 {
		opts.Limit = DefaultDequeueLimit
	}
	if opts.Limit > MaxDequeueLimit {
		opts.Limit = MaxDequeueLimit
	}
	if opts.ScheduledBefore.IsZero() {
		opts.ScheduledBefore = time.Now().UTC()
	}

	paused, err := s.store.IsPaused(ctx, connectorID)
	if err != nil {
		return nil, err
	}
	if paused {
		return nil, nil
	}

	return s.store.DequeueTop(ctx, connectorID, opts.Limit, opts.ScheduledBefore)
}

// PauseQueue pauses dispatch for a connector.
func (s *Service) PauseQueue(ctx context.Context, connectorID uuid.UUID) error {
	return s.connectors.SetQueuePaused(ctx, connectorID, true)
}

// ResumeQueue resumes dispatch for a connector.
func (s *Service) ResumeQueue(ctx context.Context, connectorID uuid.UUID) error {
	return s.connectors.SetQueuePaused(ctx, connectorID, false)
}

// ClearQueue deletes queue rows, optionally scoped to one connector, and
// reverts matching entries to pending.
func (s *Service) ClearQueue(ctx context.Context, connectorID *uuid.UUID) (int, error) {
	return s.store.ClearQueue(ctx, connectorID)
}
