// Package indexerhealth polls indexer-manager instances and caches their
// health so the dispatcher can log (but never block on) rate-limited or
// stale indexers.
package indexerhealth

import "time"

// Health is a cached snapshot of one indexer's health.
type Health struct {
	InstanceID        string
	IndexerID         int64
	Name              string
	Enabled           bool
	IsRateLimited     bool
	RateLimitExpires  *time.Time
	MostRecentFailure *time.Time
	LastUpdated       time.Time
	IsStale           bool
}

// IndexerInfo is one entry from GET /api/v1/indexer.
type IndexerInfo struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Implementation string `json:"implementation"`
	Enable         bool   `json:"enable"`
	Protocol       string `json:"protocol"`
	Priority       int    `json:"priority"`
}

// IndexerStatus is one entry from GET /api/v1/indexerstatus.
type IndexerStatus struct {
	ID               int64      `json:"id"`
	IndexerID        int64      `json:"indexerId"`
	DisabledTill     *time.Time `json:"disabledTill,omitempty"`
	MostRecentFailure *time.Time `json:"mostRecentFailure,omitempty"`
	InitialFailure    *time.Time `json:"initialFailure,omitempty"`
}
