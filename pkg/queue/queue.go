// Package queue materializes pending dispatches per connector: a priority
// queue backed by Postgres rows, claimed via atomic delete-and-return.
package queue

import "time"

// Row is a materialized pending dispatch.
type Row struct {
	ID               string
	SearchRegistryID string
	ConnectorID      string
	Priority         int
	ScheduledAt      time.Time
}

// EnqueueOptions configures enqueuePendingItems.
type EnqueueOptions struct {
	BatchSize   int
	ScheduledAt time.Time
}

// DequeueOptions configures dequeuePriorityItems.
type DequeueOptions struct {
	Limit           int
	ScheduledBefore time.Time
}

const (
	DefaultBatchSize    = 1000
	DefaultDequeueLimit = 10
	MaxDequeueLimit     = 100
)
