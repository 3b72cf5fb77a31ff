// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cinelog_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	ReviewsSubmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cinelog_reviews_submitted_total",
			Help: "Total number of review upserts",
		},
	)

	ReviewsDeleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cinelog_reviews_deleted_total",
			Help: "Total number of reviews deleted by their owner",
		},
	)

	WatchlistUpdates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinelog_watchlist_updates_total",
			Help: "Watchlist status upserts by status",
		},
		[]string{"status"},
	)

	// CatalogImports counts imports by result: created, existing, race, failed.
	CatalogImports = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinelog_catalog_imports_total",
			Help: "External catalog imports by result",
		},
		[]string{"result"},
	)

	CatalogRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinelog_catalog_requests_total",
			Help: "External catalog API calls by endpoint and outcome",
		},
		[]string{"endpoint", "outcome"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cinelog_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinelog_events_published_total",
			Help: "Activity events handed to the broker by type and outcome",
		},
		[]string{"type", "outcome"},
	)
)
