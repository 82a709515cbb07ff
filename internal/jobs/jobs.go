// Package jobs runs the orchestrator's periodic background work: enqueueing
// pending registry entries, dequeuing and dispatching searches, reenqueueing
// cooldown-eligible entries, cleaning up orphaned searching rows, and
// notifying operators of outcomes. Each loop follows the same ticker pattern
// the indexer-health poller and notification batch flusher use.
package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/quietloop/orchestrator/internal/telemetry"
	"github.com/quietloop/orchestrator/pkg/connector"
	"github.com/quietloop/orchestrator/pkg/dispatcher"
	"github.com/quietloop/orchestrator/pkg/notify"
	"github.com/quietloop/orchestrator/pkg/queue"
	"github.com/quietloop/orchestrator/pkg/registry"
)

// Runner owns the services needed to run one pass of every periodic job.
type Runner struct {
	Connectors *connector.Store
	Registry   *registry.Service
	Queue      *queue.Service
	Dispatcher *dispatcher.Service
	Notify     *notify.Service
	Logger     *slog.Logger

	OrphanMaxAge time.Duration
}

// NewRunner creates a Runner.
func NewRunner(connectors *connector.Store, reg *registry.Service, q *queue.Service, disp *dispatcher.Service, notifier *notify.Service, logger *slog.Logger, orphanMaxAge time.Duration) *Runner {
	return &Runner{
		Connectors:   connectors,
		Registry:     reg,
		Queue:        q,
		Dispatcher:   disp,
		Notify:       notifier,
		Logger:       logger,
		OrphanMaxAge: orphanMaxAge,
	}
}

// RunEnqueueLoop periodically enqueues pending registry entries for every
// connector.
func (r *Runner) RunEnqueueLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.EnqueueOnce(ctx)
		}
	}
}

func (r *Runner) EnqueueOnce(ctx context.Context) {
	connectors, err := r.Connectors.List(ctx)
	if err != nil {
		r.Logger.Error("listing connectors for enqueue", "error", err)
		return
	}
	now := time.Now().UTC()
	for _, c := range connectors {
		id := uuid.MustParse(c.ID)
		n, err := r.Queue.EnqueuePendingItems(ctx, id, queue.EnqueueOptions{ScheduledAt: now})
		if err != nil {
			r.Logger.Error("enqueueing pending items", "connector_id", c.ID, "error", err)
			continue
		}
		if n > 0 {
			telemetry.QueueEnqueuedTotal.WithLabelValues(c.ID).Add(float64(n))
		}
	}
}

// RunReenqueueCooldownLoop periodically moves cooldown-expired entries back
// to pending across all connectors.
func (r *Runner) RunReenqueueCooldownLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := time.Now().UTC()
			reenqueued, stillCooling, err := r.Registry.ReenqueueEligibleCooldownItems(ctx, nil, now)
			if err != nil {
				r.Logger.Error("reenqueueing cooldown items", "error", err)
				continue
			}
			r.Logger.Info("reenqueue cooldown pass complete", "reenqueued", reenqueued, "still_cooling", stillCooling)
		}
	}
}

// RunOrphanCleanupLoop periodically recovers registry rows stranded in the
// searching state by a crash between setSearching and the outcome update.
func (r *Runner) RunOrphanCleanupLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := time.Now().UTC()
			n, err := r.Registry.CleanupOrphanedSearchingItems(ctx, r.OrphanMaxAge, now)
			if err != nil {
				r.Logger.Error("cleaning up orphaned searching items", "error", err)
				continue
			}
			if n > 0 {
				r.Logger.Warn("recovered orphaned searching entries", "count", n)
			}
		}
	}
}

// RunDispatchLoop periodically dequeues and dispatches searches for every
// connector, the tick-driven alternative to a push-based worker queue.
func (r *Runner) RunDispatchLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.DispatchOnce(ctx)
		}
	}
}

// DispatchOnce runs a single dequeue+dispatch pass across every connector.
// It is also invoked synchronously by the manual-tick admin endpoint.
func (r *Runner) DispatchOnce(ctx context.Context) {
	connectors, err := r.Connectors.List(ctx)
	if err != nil {
		r.Logger.Error("listing connectors for dispatch", "error", err)
		return
	}

	now := time.Now().UTC()
	for _, c := range connectors {
		connectorID := uuid.MustParse(c.ID)
		rows, err := r.Queue.DequeuePriorityItems(ctx, connectorID, queue.DequeueOptions{})
		if err != nil {
			r.Logger.Error("dequeuing priority items", "connector_id", c.ID, "error", err)
			continue
		}
		if len(rows) == 0 {
			continue
		}
		telemetry.QueueDequeuedTotal.WithLabelValues(c.ID).Add(float64(len(rows)))

		for _, row := range rows {
			r.dispatchRow(ctx, connector.Type(c.Type), row, now)
		}
	}
}

func (r *Runner) dispatchRow(ctx context.Context, connectorType connector.Type, row queue.Row, now time.Time) {
	registryID := uuid.MustParse(row.SearchRegistryID)
	connectorID := uuid.MustParse(row.ConnectorID)

	claimed, err := r.Registry.SetSearching(ctx, registryID)
	if err != nil {
		r.Logger.Error("claiming registry entry", "registry_id", row.SearchRegistryID, "error", err)
		return
	}
	if !claimed {
		return // lost the claim race to another dispatch pass
	}

	entry, err := r.Registry.Get(ctx, registryID)
	if err != nil {
		r.Logger.Error("loading registry entry", "registry_id", row.SearchRegistryID, "error", err)
		return
	}

	opts := buildSearchOptions(entry)
	result := r.Dispatcher.DispatchSearch(ctx, connectorID, opts, now)

	if result.Success {
		telemetry.SearchesDispatchedTotal.WithLabelValues(string(connectorType), string(entry.SearchType)).Inc()
		if err := r.Registry.DispatchedOK(ctx, registryID, entry.SearchType, now); err != nil {
			r.Logger.Error("marking registry entry dispatched", "registry_id", row.SearchRegistryID, "error", err)
		}
		return
	}

	telemetry.SearchesFailedTotal.WithLabelValues(result.FailureCategory).Inc()
	if result.ConnectorPaused {
		telemetry.ConnectorRateLimitedTotal.WithLabelValues(row.ConnectorID).Inc()
	}

	wasSeasonPack := entry.SeasonID != nil && !entry.SeasonPackFailed
	if err := r.Registry.MarkFailed(ctx, registryID, result.FailureCategory, wasSeasonPack, now); err != nil {
		r.Logger.Error("marking registry entry failed", "registry_id", row.SearchRegistryID, "error", err)
	}

	if r.Notify != nil {
		if updated, err := r.Registry.Get(ctx, registryID); err == nil && updated.State == registry.StateExhausted {
			eventData := map[string]any{"registry_id": row.SearchRegistryID, "connector_id": row.ConnectorID, "error": result.Error}
			if _, err := r.Notify.Dispatch(ctx, notify.EventSearchExhausted, eventData, now); err != nil {
				r.Logger.Warn("notifying search failure", "error", err)
			}
		}
	}
}

// buildSearchOptions derives the connector verb and targets from a registry
// entry. Per-episode vs season-pack is decided at entry-creation time (an
// external discovery sync applies pkg/batcher there, recording the outcome
// via SeasonID); this loop only replays that decision, honoring
// SeasonPackFailed to fall back to a per-episode search after a failed
// season-pack attempt.
func buildSearchOptions(entry registry.Entry) dispatcher.SearchOptions {
	if entry.ContentType == registry.ContentMovie {
		return dispatcher.SearchOptions{MovieIDs: []int{int(entry.ContentID)}}
	}
	if entry.SeasonID != nil && !entry.SeasonPackFailed {
		return dispatcher.SearchOptions{SeriesID: int(entry.ContentID), SeasonNumber: int(*entry.SeasonID)}
	}
	return dispatcher.SearchOptions{EpisodeIDs: []int{int(entry.ContentID)}}
}
