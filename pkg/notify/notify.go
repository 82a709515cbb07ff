// Package notify implements the notification dispatcher: quiet-hours
// suppression, batching, and multi-channel delivery with per-channel senders.
package notify

import "time"

// ChannelType identifies a notification channel's delivery mechanism.
type ChannelType string

const (
	ChannelWebhook ChannelType = "webhook"
	ChannelChatA   ChannelType = "chatA"
	ChannelChatB   ChannelType = "chatB"
	ChannelChatC   ChannelType = "chatC"
	ChannelEmail   ChannelType = "email"
)

// EventType is a stable identifier from the event-type palette.
type EventType string

const (
	EventSweepStarted          EventType = "sweep_started"
	EventSweepCompleted        EventType = "sweep_completed"
	EventSearchSuccess         EventType = "search_success"
	EventSearchExhausted       EventType = "search_exhausted"
	EventConnectorHealthChange EventType = "connector_health_changed"
	EventSyncCompleted         EventType = "sync_completed"
	EventSyncFailed            EventType = "sync_failed"
	EventAppStarted            EventType = "app_started"
	EventUpdateAvailable       EventType = "update_available"
)

// EventColors maps each event type to its default hex color.
var EventColors = map[EventType]string{
	EventSweepStarted:          "#3498db",
	EventSweepCompleted:        "#2ecc71",
	EventSearchSuccess:         "#27ae60",
	EventSearchExhausted:       "#e74c3c",
	EventConnectorHealthChange: "#f39c12",
	EventSyncCompleted:         "#9b59b6",
	EventSyncFailed:            "#e74c3c",
	EventAppStarted:            "#1abc9c",
	EventUpdateAvailable:       "#f1c40f",
}

// DefaultColor is used when an event type has no mapped color.
const DefaultColor = "#7289da"

// Channel is a configured notification destination.
type Channel struct {
	ID                    string
	Name                  string
	Type                  ChannelType
	Config                map[string]any
	SensitiveConfigEncrypted string
	Enabled               bool
	EnabledEvents         []string
	BatchingEnabled       bool
	BatchingWindowSeconds int
	QuietHoursEnabled     bool
	QuietHoursStart       *string
	QuietHoursEnd         *string
	QuietHoursTimezone    string
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// HistoryStatus is a notification-history entry's delivery state.
type HistoryStatus string

const (
	HistoryPending HistoryStatus = "pending"
	HistorySent    HistoryStatus = "sent"
	HistoryFailed  HistoryStatus = "failed"
)

// HistoryEntry records one notification attempt (or deferred attempt).
type HistoryEntry struct {
	ID           string
	ChannelID    string
	EventType    EventType
	EventData    map[string]any
	Status       HistoryStatus
	SentAt       *time.Time
	ErrorMessage *string
	BatchID      *string
	CreatedAt    time.Time
}

// Payload is the channel-agnostic notification content built by a template.
type Payload struct {
	EventType EventType
	Title     string
	Message   string
	Color     string
	URL       string
	Fields    map[string]string
	EventData map[string]any
	Timestamp time.Time
}

// Result is the outcome of one channel send.
type Result struct {
	Success     bool
	ChannelID   string
	ChannelType ChannelType
	SentAt      *time.Time
	Error       string
	Category    string
	StatusCode  int
	DurationMs  int64
}

// DispatchResult aggregates the outcome of dispatching one event to every
// enabled channel.
type DispatchResult struct {
	EventType              EventType
	Results                []Result
	QuietHoursSuppressed   int
	Batched                int
}
