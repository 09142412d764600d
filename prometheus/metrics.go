package prometheus

import (
	"strconv"
	"time"

	"recruitment-service/pkg/config"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"net/http"
)

var (
	// HTTP request metrics
	HttpRequestsTotal   prometheus.CounterVec
	HttpRequestDuration prometheus.HistogramVec

	// Authentication metrics
	LoginCounter      prometheus.Counter
	RegisterCounter   prometheus.Counter
	AuthErrorsCounter prometheus.CounterVec

	// Database operation metrics
	DbOperationDuration prometheus.HistogramVec

	// Domain operation metrics
	JobOperationsCounter         prometheus.CounterVec
	ApplicationOperationsCounter prometheus.CounterVec
	PermissionDeniedCounter      prometheus.Counter

	// Deadline sweep metrics
	SweepRunsCounter       prometheus.Counter
	SweepClosedJobsCounter prometheus.Counter
	SweepErrorsCounter     prometheus.Counter

	// Published jobs currently open
	PublishedJobsGauge prometheus.Gauge
)

// InitMetrics initializes Prometheus metrics with configuration
func InitMetrics(cfg *config.Config) {
	// Use metric prefix from configuration
	prefix := cfg.Metrics.Prefix

	HttpRequestsTotal = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HttpRequestDuration = *promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	LoginCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_login_attempts_total",
			Help: "Total number of login attempts",
		},
	)

	RegisterCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_registrations_total",
			Help: "Total number of applicant registrations",
		},
	)

	AuthErrorsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_auth_errors_total",
			Help: "Total number of authentication errors",
		},
		[]string{"reason"},
	)

	DbOperationDuration = *promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation_type"},
	)

	JobOperationsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_job_operations_total",
			Help: "Total number of job operations",
		},
		[]string{"operation"},
	)

	ApplicationOperationsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_application_operations_total",
			Help: "Total number of application operations",
		},
		[]string{"operation"},
	)

	PermissionDeniedCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_permission_denied_total",
			Help: "Total number of denied authorization checks",
		},
	)

	SweepRunsCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_sweep_runs_total",
			Help: "Total number of deadline sweep runs",
		},
	)

	SweepClosedJobsCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_sweep_closed_jobs_total",
			Help: "Total number of jobs auto-closed by the deadline sweep",
		},
	)

	SweepErrorsCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_sweep_errors_total",
			Help: "Total number of per-job errors during deadline sweeps",
		},
	)

	PublishedJobsGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: prefix + "_published_jobs",
			Help: "Number of jobs currently in published status",
		},
	)
}

// MetricsMiddleware records request counts and latencies per route
func MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			status := strconv.Itoa(c.Response().Status)
			path := c.Path()
			if path == "" {
				path = c.Request().URL.Path
			}
			HttpRequestsTotal.WithLabelValues(c.Request().Method, path, status).Inc()
			HttpRequestDuration.WithLabelValues(c.Request().Method, path, status).Observe(time.Since(start).Seconds())

			return err
		}
	}
}

// GetPrometheusHandler returns the HTTP handler serving the metrics endpoint
func GetPrometheusHandler() http.Handler {
	return promhttp.Handler()
}

// TrackDBOperation returns a function that records the duration of a database operation
func TrackDBOperation(operationType string) func(startTime time.Time) {
	return func(startTime time.Time) {
		duration := time.Since(startTime).Seconds()
		DbOperationDuration.WithLabelValues(operationType).Observe(duration)
	}
}

// RecordAuthError increments the counter for a failed authentication
func RecordAuthError(reason string) {
	AuthErrorsCounter.WithLabelValues(reason).Inc()
}

// RecordJobOperation increments the counter for job operations
func RecordJobOperation(operation string) {
	JobOperationsCounter.WithLabelValues(operation).Inc()
}

// RecordApplicationOperation increments the counter for application operations
func RecordApplicationOperation(operation string) {
	ApplicationOperationsCounter.WithLabelValues(operation).Inc()
}

// SetPublishedJobs updates the gauge tracking postings open for applications
func SetPublishedJobs(count float64) {
	PublishedJobsGauge.Set(count)
}
