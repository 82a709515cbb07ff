package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/quietloop/orchestrator/pkg/aggregate"
)

// BatchFlusher periodically flushes deferred (batched) notification history
// entries into one digest send per channel per event type. It is a separate
// periodic job from the per-event dispatch path.
type BatchFlusher struct {
	channels *ChannelStore
	history  *HistoryStore
	dispatch *Service
	logger   *slog.Logger
}

// NewBatchFlusher creates a BatchFlusher.
func NewBatchFlusher(channels *ChannelStore, history *HistoryStore, dispatch *Service, logger *slog.Logger) *BatchFlusher {
	return &BatchFlusher{channels: channels, history: history, dispatch: dispatch, logger: logger}
}

// FlushOnce flushes every channel with batching enabled.
func (f *BatchFlusher) FlushOnce(ctx context.Context, now time.Time) {
	channels, err := f.channels.ListBatchingEnabled(ctx)
	if err != nil {
		f.logger.Error("listing batching channels failed", "error", err)
		return
	}
	for _, channel := range channels {
		f.flushChannel(ctx, channel, now)
	}
}

func (f *BatchFlusher) flushChannel(ctx context.Context, channel Channel, now time.Time) {
	windowSeconds := channel.BatchingWindowSeconds
	if windowSeconds <= 0 {
		windowSeconds = 300
	}
	olderThan := now.Add(-time.Duration(windowSeconds) * time.Second)

	entries, err := f.history.PendingOlderThan(ctx, mustParseUUID(channel.ID), olderThan)
	if err != nil {
		f.logger.Error("listing pending history failed", "channel_id", channel.ID, "error", err)
		return
	}
	if len(entries) == 0 {
		return
	}

	grouped := make(map[EventType][]HistoryEntry)
	for _, e := range entries {
		grouped[e.EventType] = append(grouped[e.EventType], e)
	}

	for eventType, group := range grouped {
		f.flushGroup(ctx, channel, eventType, group, now)
	}
}

func (f *BatchFlusher) flushGroup(ctx context.Context, channel Channel, eventType EventType, group []HistoryEntry, now time.Time) {
	likes := make([]aggregate.HistoryLike, 0, len(group))
	ids := make([]uuid.UUID, 0, len(group))
	for _, e := range group {
		likes = append(likes, aggregate.HistoryLike{EventType: string(e.EventType), EventData: e.EventData, CreatedAt: e.CreatedAt})
		ids = append(ids, mustParseUUID(e.ID))
	}

	digest := aggregate.AggregateDigest(string(eventType), likes)
	payload := Payload{
		EventType: eventType,
		Title:     digest.Title,
		Message:   digest.Message,
		Color:     digest.Color,
		URL:       digest.URL,
		Fields:    digest.Fields,
		Timestamp: now,
	}

	result := f.dispatch.send(ctx, channel, payload)
	batchID := uuid.New()
	status := HistorySent
	errMsg := ""
	if !result.Success {
		status = HistoryFailed
		errMsg = result.Error
	}

	if err := f.history.MarkBatchResolved(ctx, ids, batchID, status, now, errMsg); err != nil {
		f.logger.Error("marking batch resolved failed", "channel_id", channel.ID, "batch_id", batchID, "error", err)
	}
}

// Run blocks, flushing every interval until ctx is cancelled.
func (f *BatchFlusher) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			f.FlushOnce(ctx, time.Now().UTC())
		}
	}
}
