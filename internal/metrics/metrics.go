package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CRMCallsTotal tracks outbound CRM API calls per operation and outcome
	CRMCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crmsync_crm_calls_total",
			Help: "Total number of CRM API calls",
		},
		[]string{"operation", "outcome"},
	)

	// CRMCallLatency tracks CRM API call latency per operation
	CRMCallLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "crmsync_crm_call_latency_seconds",
			Help:    "CRM API call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "outcome"},
	)

	// RetryAttempts tracks retries performed per operation
	RetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crmsync_retry_attempts_total",
			Help: "Total number of retry attempts",
		},
		[]string{"operation"},
	)

	// RetryExhaustions tracks operations that failed all retry attempts
	RetryExhaustions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crmsync_retry_exhaustions_total",
			Help: "Total number of operations that exhausted all retries",
		},
		[]string{"operation"},
	)

	// SyncRunsTotal tracks orchestrator runs per outcome
	SyncRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crmsync_sync_runs_total",
			Help: "Total number of lead sync runs",
		},
		[]string{"outcome"},
	)

	// SyncRunDuration tracks end-to-end sync run duration
	SyncRunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "crmsync_sync_run_duration_seconds",
			Help:    "Lead sync run duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"outcome"},
	)

	// SyncStepFailures tracks best-effort step failures per step
	SyncStepFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crmsync_sync_step_failures_total",
			Help: "Total number of failed pipeline steps",
		},
		[]string{"step"},
	)

	// CityCacheHits tracks city lookup cache hits (including negative hits)
	CityCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "crmsync_city_cache_hits_total",
			Help: "Total number of city cache hits",
		},
	)

	// CityCacheMisses tracks city lookup cache misses
	CityCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "crmsync_city_cache_misses_total",
			Help: "Total number of city cache misses",
		},
	)

	// QuotesPending tracks quotes awaiting synchronization
	QuotesPending = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "crmsync_quotes_pending",
			Help: "Number of quotes awaiting CRM synchronization",
		},
	)

	// DBConnectionPoolUsage tracks database connection pool usage percentage
	DBConnectionPoolUsage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "crmsync_db_pool_usage_percent",
			Help: "Database connection pool usage percentage",
		},
	)
)
