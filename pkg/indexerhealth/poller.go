package indexerhealth

import (
	"context"
	"log/slog"
	"time"
)

// Instance is one configured indexer-manager instance to poll.
type Instance struct {
	ID      string
	BaseURL string
	APIKey  string
}

// Poller periodically refreshes the health cache for a fixed set of
// indexer-manager instances. Failures are logged and leave the cache intact.
type Poller struct {
	store     *Store
	instances []Instance
	timeout   time.Duration
	logger    *slog.Logger
}

// NewPoller creates a Poller over the given instances.
func NewPoller(store *Store, instances []Instance, timeout time.Duration, logger *slog.Logger) *Poller {
	return &Poller{store: store, instances: instances, timeout: timeout, logger: logger}
}

// PollOnce refreshes the cache for every configured instance.
func (p *Poller) PollOnce(ctx context.Context, now time.Time) {
	for _, inst := range p.instances {
		p.pollInstance(ctx, inst, now)
	}
}

func (p *Poller) pollInstance(ctx context.Context, inst Instance, now time.Time) {
	client := NewClient(inst.BaseURL, inst.APIKey, p.timeout)

	indexers, err := client.ListIndexers(ctx)
	if err != nil {
		p.logger.Warn("listing indexers failed", "instance_id", inst.ID, "error", err)
		return
	}
	statuses, err := client.ListIndexerStatus(ctx)
	if err != nil {
		p.logger.Warn("listing indexer status failed", "instance_id", inst.ID, "error", err)
		return
	}

	statusByIndexer := make(map[int64]IndexerStatus, len(statuses))
	for _, st := range statuses {
		statusByIndexer[st.IndexerID] = st
	}

	for _, idx := range indexers {
		st := statusByIndexer[idx.ID]
		h := Health{
			InstanceID:        inst.ID,
			IndexerID:         idx.ID,
			Name:              idx.Name,
			Enabled:           idx.Enable,
			IsRateLimited:     st.DisabledTill != nil && st.DisabledTill.After(now),
			RateLimitExpires:  st.DisabledTill,
			MostRecentFailure: st.MostRecentFailure,
		}
		if err := p.store.Upsert(ctx, h, now); err != nil {
			p.logger.Error("caching indexer health failed", "instance_id", inst.ID, "indexer_id", idx.ID, "error", err)
		}
	}
}

// Run blocks, polling every interval until ctx is cancelled.
func (p *Poller) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.PollOnce(ctx, time.Now().UTC())
		}
	}
}
