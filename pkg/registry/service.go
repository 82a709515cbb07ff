package registry

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/quietloop/orchestrator/pkg/backoff"
	"github.com/quietloop/orchestrator/pkg/orcherr"
)

// Service implements the search-registry state machine on top of the Store.
type Service struct {
	store         *Store
	cooldownPolicy backoff.Policy
	backlogPolicy backoff.BacklogPolicy
	rnd           *rand.Rand
}

// NewService creates a registry Service with the given backoff policies.
func NewService(store *Store, cooldownPolicy backoff.Policy, backlogPolicy backoff.BacklogPolicy, rnd *rand.Rand) *Service {
	return &Service{store: store, cooldownPolicy: cooldownPolicy, backlogPolicy: backlogPolicy, rnd: rnd}
}

// Get returns a single registry entry.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Entry, error) {
	return s.store.Get(ctx, id)
}

// SetSearching atomically claims an entry for dispatch, transitioning it
// from queued to searching. ok is false if another worker already claimed it.
func (s *Service) SetSearching(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.store.SetSearching(ctx, id)
}

// DispatchedOK transitions a successfully-dispatched searching entry. Gap
// searches are left for external sync to delete once satisfied; upgrade
// searches enter backlog tier 1 when the backlog feature is enabled,
// otherwise they return to cooldown for a standard retry.
func (s *Service) DispatchedOK(ctx context.Context, id uuid.UUID, searchType SearchType, now time.Time) error {
	if searchType == SearchGap {
		return nil
	}

	if s.backlogPolicy.Enabled {
		nextEligible := backoff.TierDelay(s.backlogPolicy, 1, s.rnd)
		return s.store.SetCooldownBacklog(ctx, id, 1, now.Add(nextEligible), "")
	}

	nextEligible := backoff.Delay(s.cooldownPolicy, 1, s.rnd)
	return s.store.SetCooldownRetry(ctx, id, 1, now.Add(nextEligible), "")
}

// MarkFailed implements 4.D's markFailed transition.
func (s *Service) MarkFailed(ctx context.Context, id uuid.UUID, category string, wasSeasonPackSearch bool, now time.Time) error {
	entry, err := s.store.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("loading registry entry: %w", err)
	}
	if entry.State != StateSearching {
		return orcherr.NewValidationError(fmt.Sprintf("invalid_state: entry %s is %s, not searching", id, entry.State))
	}

	attempt := entry.AttemptCount + 1

	if wasSeasonPackSearch && category == "no_results" && entry.ContentType == ContentEpisode && entry.SeasonID != nil {
		if err := s.store.MarkSeasonPackFailed(ctx, uuid.MustParse(entry.ConnectorID), *entry.SeasonID); err != nil {
			return fmt.Errorf("marking season pack failed: %w", err)
		}
	}

	if backoff.ShouldMarkExhausted(s.cooldownPolicy, attempt) {
		if !s.backlogPolicy.Enabled {
			return s.store.SetExhausted(ctx, id, attempt)
		}

		newTier := backoff.NextTier(s.backlogPolicy, entry.BacklogTier)
		delay := backoff.TierDelay(s.backlogPolicy, newTier, s.rnd)
		return s.store.SetCooldownBacklog(ctx, id, newTier, now.Add(delay), category)
	}

	delay := backoff.Delay(s.cooldownPolicy, attempt, s.rnd)
	return s.store.SetCooldownRetry(ctx, id, attempt, now.Add(delay), category)
}

// ReenqueueEligibleCooldownItems re-enqueues every cooldown entry whose
// nextEligible has elapsed.
func (s *Service) ReenqueueEligibleCooldownItems(ctx context.Context, connectorID *uuid.UUID, now time.Time) (reenqueued, stillCooling int, err error) {
	return s.store.ReenqueueEligibleCooldownItems(ctx, connectorID, now)
}

// CleanupOrphanedSearchingItems recovers rows stranded in searching by a
// crash between setSearching and success/failure.
func (s *Service) CleanupOrphanedSearchingItems(ctx context.Context, maxAge time.Duration, now time.Time) (int, error) {
	return s.store.CleanupOrphanedSearchingItems(ctx, maxAge, now)
}

// MarkExhausted forces a manual transition to exhausted.
func (s *Service) MarkExhausted(ctx context.Context, id uuid.UUID) error {
	return s.store.MarkExhaustedManual(ctx, id)
}
