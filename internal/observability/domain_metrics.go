package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	translationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askdb_translations_total",
			Help: "Total number of natural-language to SQL translations by provider and outcome.",
		},
		[]string{"provider", "outcome"},
	)
	guardRejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askdb_guard_rejections_total",
			Help: "Total number of requests rejected by a safety rule.",
		},
		[]string{"rule"},
	)
	sqlExecutionSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "askdb_sql_execution_seconds",
			Help:    "Latency of validated SQL execution against the target database.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)
	rowsReturned = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "askdb_rows_returned",
			Help:    "Number of rows returned per executed query.",
			Buckets: []float64{0, 1, 10, 50, 100, 500, 1000, 5000},
		},
	)
	summaryFallbacksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "askdb_summary_fallbacks_total",
			Help: "Total number of summaries that degraded to the deterministic fallback.",
		},
	)
	schemaFetchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askdb_schema_fetches_total",
			Help: "Total number of schema introspection runs by outcome.",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(
		translationsTotal,
		guardRejectionsTotal,
		sqlExecutionSeconds,
		rowsReturned,
		summaryFallbacksTotal,
		schemaFetchesTotal,
	)
}

func ObserveTranslation(provider, outcome string) {
	translationsTotal.WithLabelValues(provider, outcome).Inc()
}

func ObserveGuardRejection(rule string) {
	guardRejectionsTotal.WithLabelValues(rule).Inc()
}

func ObserveSQLExecution(rows int, elapsed time.Duration) {
	sqlExecutionSeconds.Observe(elapsed.Seconds())
	rowsReturned.Observe(float64(rows))
}

func IncrementSummaryFallback() {
	summaryFallbacksTotal.Inc()
}

func ObserveSchemaFetch(outcome string) {
	schemaFetchesTotal.WithLabelValues(outcome).Inc()
}
