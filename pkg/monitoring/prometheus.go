package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	dbConnectionsInUse = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_in_use",
			Help: "Database connections currently in use",
		},
	)

	listingQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "listing_queries_total",
			Help: "Listing page queries by cache outcome",
		},
		[]string{"cache"},
	)

	listingQueryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "listing_query_duration_seconds",
			Help:    "Time spent building a listing page from the database",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 2.5, 5.0},
		},
	)

	listingResults = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "listing_results_total",
			Help:    "Number of listings matching the filters of a query",
			Buckets: []float64{0, 1, 9, 50, 100, 500, 1000, 5000},
		},
	)

	searchEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "listing_search_events_total",
			Help: "Search events handed to analytics sinks",
		},
		[]string{"sink", "status"},
	)
)

// PrometheusMiddleware collects HTTP metrics
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		statusCode := strconv.Itoa(c.Writer.Status())
		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}

		httpRequestsTotal.WithLabelValues(c.Request.Method, endpoint, statusCode).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, endpoint).Observe(duration)

		SaveHTTPMetric(c, duration)
	}
}

func UpdateDBConnections(inUse int) {
	dbConnectionsInUse.Set(float64(inUse))
}

// RecordListingQuery records one listing lookup. cache is "hit", "miss" or "off".
func RecordListingQuery(cache string, duration time.Duration, total int64) {
	listingQueriesTotal.WithLabelValues(cache).Inc()
	if cache != "hit" {
		listingQueryDuration.Observe(duration.Seconds())
	}
	listingResults.Observe(float64(total))
}

func RecordSearchEvent(sink, status string) {
	searchEventsTotal.WithLabelValues(sink, status).Inc()
}
