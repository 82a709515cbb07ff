package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/quietloop/orchestrator/internal/db"
)

const channelColumns = `id, name, type, config, sensitive_config_encrypted, enabled, enabled_events,
	batching_enabled, batching_window_seconds, quiet_hours_enabled, quiet_hours_start, quiet_hours_end,
	quiet_hours_timezone, created_at, updated_at`

// ChannelStore provides database operations for notification channels.
type ChannelStore struct {
	dbtx db.DBTX
}

// NewChannelStore creates a ChannelStore backed by the given database handle.
func NewChannelStore(dbtx db.DBTX) *ChannelStore {
	return &ChannelStore{dbtx: dbtx}
}

func scanChannel(row pgx.Row) (Channel, error) {
	var c Channel
	var config []byte
	err := row.Scan(&c.ID, &c.Name, &c.Type, &config, &c.SensitiveConfigEncrypted, &c.Enabled, &c.EnabledEvents,
		&c.BatchingEnabled, &c.BatchingWindowSeconds, &c.QuietHoursEnabled, &c.QuietHoursStart, &c.QuietHoursEnd,
		&c.QuietHoursTimezone, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return Channel{}, err
	}
	if len(config) > 0 {
		if err := json.Unmarshal(config, &c.Config); err != nil {
			return Channel{}, fmt.Errorf("decoding channel config: %w", err)
		}
	}
	return c, nil
}

// Get returns a single channel by ID.
func (s *ChannelStore) Get(ctx context.Context, id uuid.UUID) (Channel, error) {
	row := s.dbtx.QueryRow(ctx, `SELECT `+channelColumns+` FROM notification_channels WHERE id = $1`, id)
	return scanChannel(row)
}

// ListEnabledForEvent returns every enabled channel subscribed to eventType.
func (s *ChannelStore) ListEnabledForEvent(ctx context.Context, eventType EventType) ([]Channel, error) {
	query := `SELECT ` + channelColumns + ` FROM notification_channels
		WHERE enabled = true AND $1 = ANY(enabled_events)`
	rows, err := s.dbtx.Query(ctx, query, string(eventType))
	if err != nil {
		return nil, fmt.Errorf("listing enabled channels: %w", err)
	}
	defer rows.Close()

	var out []Channel
	for rows.Next() {
		c, err := scanChannel(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning channel row: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListBatchingEnabled returns every channel with batching enabled.
func (s *ChannelStore) ListBatchingEnabled(ctx context.Context) ([]Channel, error) {
	rows, err := s.dbtx.Query(ctx, `SELECT `+channelColumns+` FROM notification_channels WHERE batching_enabled = true`)
	if err != nil {
		return nil, fmt.Errorf("listing batching channels: %w", err)
	}
	defer rows.Close()

	var out []Channel
	for rows.Next() {
		c, err := scanChannel(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning channel row: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Create inserts a new notification channel.
func (s *ChannelStore) Create(ctx context.Context, c Channel) (Channel, error) {
	config, err := json.Marshal(c.Config)
	if err != nil {
		return Channel{}, fmt.Errorf("encoding channel config: %w", err)
	}

	query := `INSERT INTO notification_channels
		(name, type, config, sensitive_config_encrypted, enabled, enabled_events, batching_enabled,
		 batching_window_seconds, quiet_hours_enabled, quiet_hours_start, quiet_hours_end, quiet_hours_timezone)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12) RETURNING ` + channelColumns
	row := s.dbtx.QueryRow(ctx, query, c.Name, c.Type, config, c.SensitiveConfigEncrypted, c.Enabled,
		c.EnabledEvents, c.BatchingEnabled, c.BatchingWindowSeconds, c.QuietHoursEnabled, c.QuietHoursStart,
		c.QuietHoursEnd, c.QuietHoursTimezone)
	return scanChannel(row)
}

// List returns every notification channel.
func (s *ChannelStore) List(ctx context.Context) ([]Channel, error) {
	rows, err := s.dbtx.Query(ctx, `SELECT `+channelColumns+` FROM notification_channels ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("listing channels: %w", err)
	}
	defer rows.Close()

	var out []Channel
	for rows.Next() {
		c, err := scanChannel(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning channel row: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Update updates a channel's editable fields.
func (s *ChannelStore) Update(ctx context.Context, id uuid.UUID, c Channel) (Channel, error) {
	config, err := json.Marshal(c.Config)
	if err != nil {
		return Channel{}, fmt.Errorf("encoding channel config: %w", err)
	}

	query := `UPDATE notification_channels SET
		name = $2, config = $3, enabled = $4, enabled_events = $5, batching_enabled = $6,
		batching_window_seconds = $7, quiet_hours_enabled = $8, quiet_hours_start = $9,
		quiet_hours_end = $10, quiet_hours_timezone = $11, updated_at = now()
		WHERE id = $1 RETURNING ` + channelColumns
	row := s.dbtx.QueryRow(ctx, query, id, c.Name, config, c.Enabled, c.EnabledEvents, c.BatchingEnabled,
		c.BatchingWindowSeconds, c.QuietHoursEnabled, c.QuietHoursStart, c.QuietHoursEnd, c.QuietHoursTimezone)
	return scanChannel(row)
}

// Delete removes a channel.
func (s *ChannelStore) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.dbtx.Exec(ctx, `DELETE FROM notification_channels WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting channel: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// HistoryStore provides database operations for notification history entries.
type HistoryStore struct {
	dbtx db.DBTX
}

// NewHistoryStore creates a HistoryStore backed by the given database handle.
func NewHistoryStore(dbtx db.DBTX) *HistoryStore {
	return &HistoryStore{dbtx: dbtx}
}

// Create inserts a pending or immediately-resolved history entry.
func (s *HistoryStore) Create(ctx context.Context, channelID uuid.UUID, eventType EventType, eventData []byte, status HistoryStatus) (uuid.UUID, error) {
	var id uuid.UUID
	err := s.dbtx.QueryRow(ctx, `INSERT INTO notification_history (channel_id, event_type, event_data, status)
		VALUES ($1, $2, $3, $4) RETURNING id`, channelID, string(eventType), eventData, status).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("creating notification history entry: %w", err)
	}
	return id, nil
}

// MarkSent transitions a history entry to sent.
func (s *HistoryStore) MarkSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error {
	_, err := s.dbtx.Exec(ctx, `UPDATE notification_history SET status = 'sent', sent_at = $2 WHERE id = $1`, id, sentAt)
	return err
}

// MarkFailed transitions a history entry to failed.
func (s *HistoryStore) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error {
	_, err := s.dbtx.Exec(ctx, `UPDATE notification_history SET status = 'failed', error_message = $2 WHERE id = $1`, id, errMsg)
	return err
}

// PendingOlderThan returns pending entries for a channel older than the
// batching window, for the batch-flush job.
func (s *HistoryStore) PendingOlderThan(ctx context.Context, channelID uuid.UUID, olderThan time.Time) ([]HistoryEntry, error) {
	query := `SELECT id, channel_id, event_type, event_data, status, sent_at, error_message, batch_id, created_at
		FROM notification_history WHERE channel_id = $1 AND status = 'pending' AND created_at <= $2
		ORDER BY created_at`
	rows, err := s.dbtx.Query(ctx, query, channelID, olderThan)
	if err != nil {
		return nil, fmt.Errorf("listing pending history entries: %w", err)
	}
	defer rows.Close()

	var out []HistoryEntry
	for rows.Next() {
		var h HistoryEntry
		var eventData []byte
		if err := rows.Scan(&h.ID, &h.ChannelID, &h.EventType, &eventData, &h.Status, &h.SentAt, &h.ErrorMessage, &h.BatchID, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		if len(eventData) > 0 {
			_ = json.Unmarshal(eventData, &h.EventData)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// MarkBatchResolved transitions every entry in ids to sent or failed under a
// shared batchId.
func (s *HistoryStore) MarkBatchResolved(ctx context.Context, ids []uuid.UUID, batchID uuid.UUID, status HistoryStatus, now time.Time, errMsg string) error {
	if status == HistorySent {
		_, err := s.dbtx.Exec(ctx, `UPDATE notification_history SET status = 'sent', sent_at = $2, batch_id = $3
			WHERE id = ANY($1)`, ids, now, batchID)
		return err
	}
	_, err := s.dbtx.Exec(ctx, `UPDATE notification_history SET status = 'failed', error_message = $2, batch_id = $3
		WHERE id = ANY($1)`, ids, errMsg, batchID)
	return err
}
