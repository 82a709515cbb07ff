package config

import (
	"fmt"
	"time"
)

// Durations resolves every string-typed duration field once, returning a
// descriptive error naming the offending field on failure.
type Durations struct {
	CooldownBaseDelay         time.Duration
	CooldownMaxDelay          time.Duration
	SenderTimeout             time.Duration
	SenderBaseDelay           time.Duration
	SenderMaxDelay            time.Duration
	ConnectorTimeout          time.Duration
	IndexerHealthPollInterval time.Duration
	IndexerHealthStaleAfter   time.Duration
	EnqueueInterval           time.Duration
	ReenqueueCooldownInterval time.Duration
	OrphanCleanupInterval     time.Duration
	NotifyBatchFlushInterval  time.Duration
}

func parseDuration(field, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q: %w", field, value, err)
	}
	return d, nil
}

// ParseDurations resolves every string-typed duration field in Config.
func (c *Config) ParseDurations() (Durations, error) {
	var d Durations
	var err error

	fields := []struct {
		name string
		src  string
		dst  *time.Duration
	}{
		{"COOLDOWN_BASE_DELAY", c.CooldownBaseDelay, &d.CooldownBaseDelay},
		{"COOLDOWN_MAX_DELAY", c.CooldownMaxDelay, &d.CooldownMaxDelay},
		{"NOTIFY_SENDER_TIMEOUT", c.SenderTimeout, &d.SenderTimeout},
		{"NOTIFY_SENDER_BASE_DELAY", c.SenderBaseDelay, &d.SenderBaseDelay},
		{"NOTIFY_SENDER_MAX_DELAY", c.SenderMaxDelay, &d.SenderMaxDelay},
		{"CONNECTOR_HTTP_TIMEOUT", c.ConnectorTimeout, &d.ConnectorTimeout},
		{"INDEXER_HEALTH_POLL_INTERVAL", c.IndexerHealthPollInterval, &d.IndexerHealthPollInterval},
		{"INDEXER_HEALTH_STALE_AFTER", c.IndexerHealthStaleAfter, &d.IndexerHealthStaleAfter},
		{"ENQUEUE_INTERVAL", c.EnqueueInterval, &d.EnqueueInterval},
		{"REENQUEUE_COOLDOWN_INTERVAL", c.ReenqueueCooldownInterval, &d.ReenqueueCooldownInterval},
		{"ORPHAN_CLEANUP_INTERVAL", c.OrphanCleanupInterval, &d.OrphanCleanupInterval},
		{"NOTIFY_BATCH_FLUSH_INTERVAL", c.NotifyBatchFlushInterval, &d.NotifyBatchFlushInterval},
	}

	for _, f := range fields {
		*f.dst, err = parseDuration(f.name, f.src)
		if err != nil {
			return Durations{}, err
		}
	}

	return d, nil
}
