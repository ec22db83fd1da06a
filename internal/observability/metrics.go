package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis errors by command.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "artfeed_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"command"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "artfeed_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// ScrapeRequests counts photo page ingestions by outcome
	// (ok, fetch_error, http_error, selector_miss).
	ScrapeRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "artfeed_scrape_requests_total",
		Help: "Total number of photo page scrapes by outcome",
	}, []string{"outcome"})

	// ScrapeDuration records wall time spent fetching and parsing a photo page.
	ScrapeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "artfeed_scrape_duration_seconds",
		Help:    "Photo page fetch and extract duration in seconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
	})

	// EmailSync counts user/profile email convergence steps.
	EmailSync = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "artfeed_email_sync_total",
		Help: "User/profile email convergence steps by direction and outcome",
	}, []string{"direction", "outcome"})
)

// ObserveQuery records the latency of a database query started at start.
func ObserveQuery(operation, table string, start time.Time) {
	DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
}
