package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsRegistry holds all Prometheus metrics for Redpen
type MetricsRegistry struct {
	// HTTP Metrics
	HTTPRequestsTotal    prometheus.CounterVec
	HTTPRequestDuration  prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.GaugeVec

	// Database Metrics
	DBQueriesTotal  prometheus.CounterVec
	DBQueryDuration prometheus.HistogramVec
	DBConnections   prometheus.GaugeVec

	// Cache Metrics
	CacheHitsTotal   prometheus.CounterVec
	CacheMissesTotal prometheus.CounterVec

	// Business Metrics
	PointTransactionsTotal prometheus.CounterVec
	PointsSpentTotal       prometheus.Counter
	PointsGrantedTotal     prometheus.Counter
	AICallsTotal           prometheus.CounterVec
	AICallDuration         prometheus.HistogramVec
	OCRJobsTotal           prometheus.CounterVec
	BatchJobsTotal         prometheus.CounterVec
	SentencesPolishedTotal prometheus.CounterVec
	ScheduledJobDuration   prometheus.HistogramVec
}

// NewMetricsRegistry initializes and returns a new MetricsRegistry with all metrics
func NewMetricsRegistry() *MetricsRegistry {
	return &MetricsRegistry{
		// HTTP Metrics
		HTTPRequestsTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "redpen_http_requests_total",
				Help: "Total HTTP requests processed by endpoint, method, and status code",
			},
			[]string{"endpoint", "method", "status_code"},
		),
		HTTPRequestDuration: *promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "redpen_http_request_duration_seconds",
				Help:    "HTTP request latency distribution in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"endpoint", "method"},
		),
		HTTPRequestsInFlight: *promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "redpen_http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
			[]string{"endpoint"},
		),

		// Database Metrics
		DBQueriesTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "redpen_db_queries_total",
				Help: "Total database queries by operation type",
			},
			[]string{"query_type"},
		),
		DBQueryDuration: *promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "redpen_db_query_duration_seconds",
				Help:    "Database query execution time in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"query_type"},
		),
		DBConnections: *promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "redpen_db_connections",
				Help: "Current number of database connections",
			},
			[]string{"state"},
		),

		// Cache Metrics
		CacheHitsTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "redpen_cache_hits_total",
				Help: "Total cache hits by cache key pattern",
			},
			[]string{"cache_key_pattern"},
		),
		CacheMissesTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "redpen_cache_misses_total",
				Help: "Total cache misses by cache key pattern",
			},
			[]string{"cache_key_pattern"},
		),

		// Business Metrics
		PointTransactionsTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "redpen_point_transactions_total",
				Help: "Total point ledger transactions by type",
			},
			[]string{"type"},
		),
		PointsSpentTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "redpen_points_spent_total",
				Help: "Total points deducted from user balances",
			},
		),
		PointsGrantedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "redpen_points_granted_total",
				Help: "Total points credited to user balances",
			},
		),
		AICallsTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "redpen_ai_calls_total",
				Help: "Total model API calls by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		AICallDuration: *promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "redpen_ai_call_duration_seconds",
				Help:    "Model API call latency in seconds",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"operation"},
		),
		OCRJobsTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "redpen_ocr_jobs_total",
				Help: "Total OCR recognition jobs by outcome",
			},
			[]string{"outcome"},
		),
		BatchJobsTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "redpen_batch_jobs_total",
				Help: "Total batch polish jobs by final status",
			},
			[]string{"status"},
		),
		SentencesPolishedTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "redpen_sentences_polished_total",
				Help: "Total sentences processed by the polish worker, by outcome",
			},
			[]string{"outcome"},
		),
		ScheduledJobDuration: *promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "redpen_scheduled_job_duration_seconds",
				Help:    "Scheduled job execution time in seconds",
				Buckets: []float64{0.5, 1, 5, 10, 30, 60, 120, 300, 600},
			},
			[]string{"job_name"},
		),
	}
}
