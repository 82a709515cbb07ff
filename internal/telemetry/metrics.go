package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var HTTPRequestDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "orchestrator",
		Subsystem: "api",
		Name:      "request_duration_seconds",
		Help:      "HTTP request duration in seconds.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method", "path", "status"},
)

var SearchesDispatchedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "orchestrator",
		Subsystem: "dispatcher",
		Name:      "searches_dispatched_total",
		Help:      "Total number of searches dispatched, by connector type and search type.",
	},
	[]string{"connector_type", "search_type"},
)

var SearchesFailedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "orchestrator",
		Subsystem: "dispatcher",
		Name:      "searches_failed_total",
		Help:      "Total number of failed search dispatches, by failure category.",
	},
	[]string{"category"},
)

var SearchesExhaustedTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Namespace: "orchestrator",
		Subsystem: "registry",
		Name:      "searches_exhausted_total",
		Help:      "Total number of registry entries that reached the exhausted state.",
	},
)

var QueueEnqueuedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "orchestrator",
		Subsystem: "queue",
		Name:      "enqueued_total",
		Help:      "Total number of registry rows enqueued, by connector.",
	},
	[]string{"connector_id"},
)

var QueueDequeuedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "orchestrator",
		Subsystem: "queue",
		Name:      "dequeued_total",
		Help:      "Total number of queue rows dequeued, by connector.",
	},
	[]string{"connector_id"},
)

var ConnectorRateLimitedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "orchestrator",
		Subsystem: "throttle",
		Name:      "connector_rate_limited_total",
		Help:      "Total number of dispatches that received HTTP 429 and paused the connector, by connector.",
	},
	[]string{"connector_id"},
)

var NotificationsSentTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "orchestrator",
		Subsystem: "notify",
		Name:      "sent_total",
		Help:      "Total number of notification sends, by channel type and outcome.",
	},
	[]string{"channel_type", "outcome"},
)

var NotificationsSuppressedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "orchestrator",
		Subsystem: "notify",
		Name:      "suppressed_total",
		Help:      "Total number of notifications deferred, by reason (quiet_hours or batched).",
	},
	[]string{"reason"},
)

var IndexerHealthPollDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "orchestrator",
		Subsystem: "indexerhealth",
		Name:      "poll_duration_seconds",
		Help:      "Indexer-manager health poll duration in seconds.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	},
	[]string{"instance_id"},
)

// NewMetricsRegistry creates a Prometheus registry with Go/process
// collectors, the shared HTTPRequestDuration metric, and the orchestrator's
// domain metrics.
func NewMetricsRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	reg.MustRegister(All()...)
	return reg
}

// All returns every orchestrator-specific collector for registration.
func All() []prometheus.Collector {
	return []prometheus.Collector{
		HTTPRequestDuration,
		SearchesDispatchedTotal,
		SearchesFailedTotal,
		SearchesExhaustedTotal,
		QueueEnqueuedTotal,
		QueueDequeuedTotal,
		ConnectorRateLimitedTotal,
		NotificationsSentTotal,
		NotificationsSuppressedTotal,
		IndexerHealthPollDuration,
	}
}
