package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Loading
	RecordsLoadedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "analytics_records_loaded_total",
		Help: "The total number of player records loaded from the configured source",
	})
	DatasetReloadsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "analytics_dataset_reloads_total",
		Help: "The total number of dataset loads triggered by startup, API or change stream",
	})
	SnapshotCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "analytics_snapshot_cache_hits_total",
		Help: "The total number of loads served from a fresh snapshot",
	})
	SnapshotCacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "analytics_snapshot_cache_misses_total",
		Help: "The total number of loads that fell through to the source",
	})

	// Extraction
	RecordsDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "analytics_records_dropped_total",
		Help: "The total number of records skipped because a required field was missing",
	})
	ValuesDefaultedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "analytics_values_defaulted_total",
		Help: "The total number of field values replaced by their default during coercion",
	}, []string{"field"})

	// Scenarios
	ScenarioRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "analytics_scenario_runs_total",
		Help: "The total number of scenario runs by outcome",
	}, []string{"scenario", "status"})
	ScenarioDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "analytics_scenario_duration_seconds",
		Help:    "Latency of scenario computations",
		Buckets: prometheus.DefBuckets,
	}, []string{"scenario"})

	// Sinks
	ReportsArchivedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "analytics_reports_archived_total",
		Help: "The total number of reports written to PostgreSQL",
	})
	ReportsPublishedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "analytics_reports_published_total",
		Help: "The total number of reports published to Kafka",
	})
	SinkErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "analytics_sink_errors_total",
		Help: "The total number of failed report batch writes by sink",
	}, []string{"sink"})
)
