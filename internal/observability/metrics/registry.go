// Package metrics provides centralized Prometheus metrics for the application.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics track HTTP request patterns and performance
var (
	// HTTPRequestsTotal counts total HTTP requests by method, path, and status
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration measures HTTP request duration in seconds
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestSize measures HTTP request body size in bytes
	HTTPRequestSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_size_bytes",
			Help:    "HTTP request size in bytes",
			Buckets: prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"method", "path"},
	)

	// HTTPResponseSize measures HTTP response body size in bytes
	HTTPResponseSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_response_size_bytes",
			Help:    "HTTP response size in bytes",
			Buckets: prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"method", "path"},
	)

	// ActiveConnections tracks the number of active HTTP connections
	ActiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_active_connections",
			Help: "Number of active HTTP connections",
		},
	)
)

// Business metrics track Microsub-specific operations
var (
	// ItemsTotal tracks total number of items in the database
	ItemsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "items_total",
			Help: "Total number of items in the database",
		},
	)

	// FeedsTotal tracks total number of feed subscriptions
	FeedsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "feeds_total",
			Help: "Total number of feed subscriptions",
		},
	)

	// ItemsIngestedTotal counts items ingested from each feed
	ItemsIngestedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "items_ingested_total",
			Help: "Total number of items ingested from feeds",
		},
		[]string{"feed_id"},
	)

	// ItemsDuplicateTotal counts items rejected as duplicates
	ItemsDuplicateTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "items_duplicate_total",
			Help: "Total number of duplicate items rejected at ingest",
		},
		[]string{"feed_id"},
	)

	// FeedFetchDuration measures time to fetch and process one feed.
	FeedFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feed_fetch_duration_seconds",
			Help:    "Time taken to fetch and process a feed",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
		[]string{"feed_id"},
	)

	// FeedFetchErrors counts errors during feed fetch/parse/store.
	FeedFetchErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_fetch_errors_total",
			Help: "Total number of feed fetch errors",
		},
		[]string{"feed_id", "error_type"},
	)

	// FeedTierGauge tracks the current polling tier of each feed.
	FeedTierGauge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "feed_tier",
			Help: "Current polling tier (0-10) of a feed",
		},
		[]string{"feed_id"},
	)

	// WebSubLeaseRenewalsTotal counts WebSub lease renewal attempts by result.
	WebSubLeaseRenewalsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websub_lease_renewals_total",
			Help: "Total number of WebSub lease renewal attempts",
		},
		[]string{"result"}, // result: success, failure
	)

	// WebSubCallbacksTotal counts inbound WebSub push callbacks.
	WebSubCallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websub_callbacks_total",
			Help: "Total number of WebSub push callbacks received",
		},
		[]string{"result"}, // result: verified, rejected, accepted
	)

	// WebmentionsReceivedTotal counts inbound webmentions by verification result.
	WebmentionsReceivedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webmentions_received_total",
			Help: "Total number of webmentions received",
		},
		[]string{"result"}, // result: verified, rejected, gone
	)
)

// Database metrics track database performance
var (
	// DBQueryDuration measures database query duration
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 10),
		},
		[]string{"operation"},
	)

	// DBConnectionsActive tracks active database connections
	DBConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_active",
			Help: "Number of active database connections",
		},
	)

	// DBConnectionsIdle tracks idle database connections
	DBConnectionsIdle = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_idle",
			Help: "Number of idle database connections",
		},
	)
)

// RecordHTTPRequest records an HTTP request with its metadata
func RecordHTTPRequest(method, path, status string, duration time.Duration, requestSize, responseSize int) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())

	if requestSize > 0 {
		HTTPRequestSize.WithLabelValues(method, path).Observe(float64(requestSize))
	}
	if responseSize > 0 {
		HTTPResponseSize.WithLabelValues(method, path).Observe(float64(responseSize))
	}
}

// RecordOperationDuration records the duration of a named operation
func RecordOperationDuration(operation string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}
