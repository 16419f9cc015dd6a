package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "vendor_performance"

var (
	// HTTPRequestsTotal counts all HTTP requests with labels
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration records request duration in seconds
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// RecomputationsTotal counts metric recomputations by trigger and outcome
	RecomputationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recomputations_total",
			Help:      "Total number of vendor metric recomputations",
		},
		[]string{"trigger", "outcome"},
	)

	// RecomputeDuration records how long a recomputation transaction takes
	RecomputeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recompute_duration_seconds",
			Help:      "Duration of vendor metric recomputations in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"trigger"},
	)

	// PerformanceLogsAppended counts snapshot rows written
	PerformanceLogsAppended = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "performance_logs_appended_total",
			Help:      "Total number of performance log snapshots appended",
		},
	)

	// IdentifierRetries counts create retries caused by duplicate generated identifiers
	IdentifierRetries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "identifier_retries_total",
			Help:      "Total number of create retries after a duplicate vendor code or PO number",
		},
		[]string{"kind"},
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		RecomputationsTotal,
		RecomputeDuration,
		PerformanceLogsAppended,
		IdentifierRetries,
	)
}

// ObserveRecompute records one recomputation.
func ObserveRecompute(trigger string, started time.Time, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	RecomputationsTotal.WithLabelValues(trigger, outcome).Inc()
	RecomputeDuration.WithLabelValues(trigger).Observe(time.Since(started).Seconds())
}

// Middleware returns a gin middleware that records HTTP request metrics.
// The route template is used as the path label to keep cardinality bounded.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		HTTPRequestDuration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
	}
}

// Handler exposes the default registry for scraping.
func Handler() http.Handler {
	return promhttp.Handler()
}
