package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SyncRuns counts completed sync invocations by terminal outcome
	// (succeeded, unauthorized, not_found, session_expired, endpoint_not_found,
	// upstream_error).
	SyncRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trialdeck_sync_runs_total",
		Help: "Sync invocations by outcome.",
	}, []string{"outcome"})

	// SyncDuration observes wall-clock duration of full sync runs.
	SyncDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "trialdeck_sync_duration_seconds",
		Help:    "Duration of sync runs.",
		Buckets: prometheus.DefBuckets,
	})

	// EndpointProbes counts study object probe attempts by object name and result.
	EndpointProbes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trialdeck_endpoint_probes_total",
		Help: "Study object endpoint probe attempts.",
	}, []string{"object", "result"})

	// UpsertFailures counts soft (logged, non-fatal) upsert failures by entity.
	UpsertFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trialdeck_upsert_failures_total",
		Help: "Soft upsert failures during sync.",
	}, []string{"entity"})

	// MilestoneFetchFailures counts per-study milestone fetches treated as empty.
	MilestoneFetchFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trialdeck_milestone_fetch_failures_total",
		Help: "Milestone fetches that failed and were treated as zero records.",
	}, []string{"kind"})
)
