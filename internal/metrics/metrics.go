// Package metrics exposes the service's Prometheus instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ScoreUpdates counts committed score updates.
	ScoreUpdates = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rankfeed_score_updates_total",
		Help: "Total number of committed score updates",
	})

	// UpdateErrors counts score updates that failed against the backing store.
	UpdateErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rankfeed_score_update_errors_total",
		Help: "Total number of failed score updates",
	})

	// UpdateDuration observes the end-to-end atomic update latency.
	UpdateDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "rankfeed_score_update_duration_seconds",
		Help:    "Duration of atomic score updates",
		Buckets: prometheus.DefBuckets,
	})

	// TopCacheHits counts top-N reads served from the snapshot cache.
	TopCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rankfeed_top_cache_hits_total",
		Help: "Total number of top-N reads served from cache",
	})

	// TopCacheMisses counts top-N reads recomputed from the ranking index.
	TopCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rankfeed_top_cache_misses_total",
		Help: "Total number of top-N reads recomputed from the index",
	})

	// DeltaEventsSent counts immediate score-update events delivered to rooms.
	DeltaEventsSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rankfeed_delta_events_sent_total",
		Help: "Total number of immediate score-update events emitted",
	})

	// RefreshesScheduled counts debounced full-refresh timers armed.
	RefreshesScheduled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rankfeed_refreshes_scheduled_total",
		Help: "Total number of coalesced room refreshes scheduled",
	})

	// RefreshesCoalesced counts updates absorbed by an already-pending refresh.
	RefreshesCoalesced = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rankfeed_refreshes_coalesced_total",
		Help: "Total number of updates coalesced into a pending refresh",
	})

	// ConnectedClients gauges currently registered realtime connections.
	ConnectedClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "rankfeed_connected_clients",
		Help: "Number of currently connected realtime clients",
	})

	// RelayPublished counts broadcast envelopes published to the relay topic.
	RelayPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rankfeed_relay_published_total",
		Help: "Total number of broadcast envelopes published to the relay",
	})

	// RelayApplied counts envelopes from other instances applied locally.
	RelayApplied = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rankfeed_relay_applied_total",
		Help: "Total number of relayed envelopes applied to local rooms",
	})
)
