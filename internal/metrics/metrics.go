// Package metrics collects scheduling metrics and exposes them to Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "crew_scheduler"

// Collector records service and HTTP observations. It satisfies
// application.MetricsRecorder.
type Collector struct {
	validations       *prometheus.CounterVec
	validationLatency prometheus.Histogram
	gridBuilds        prometheus.Counter
	gridLatency       prometheus.Histogram
	statusResolutions *prometheus.CounterVec
	auditCache        *prometheus.CounterVec
	httpRequests      *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		validations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assignment_validations_total",
			Help:      "Assignment validations by outcome.",
		}, []string{"outcome"}),
		validationLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "assignment_validation_seconds",
			Help:      "Time spent validating candidate assignments.",
			Buckets:   prometheus.DefBuckets,
		}),
		gridBuilds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "day_grids_built_total",
			Help:      "Availability day grids built.",
		}),
		gridLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "day_grid_build_seconds",
			Help:      "Time spent building availability day grids.",
			Buckets:   prometheus.DefBuckets,
		}),
		statusResolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "activity_status_resolutions_total",
			Help:      "Activity status resolutions by resulting status.",
		}, []string{"status"}),
		auditCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_cache_lookups_total",
			Help:      "Conflict audit cache lookups by result.",
		}, []string{"result"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP responses by method and status code.",
		}, []string{"method", "status_code"}),
	}

	reg.MustRegister(
		c.validations,
		c.validationLatency,
		c.gridBuilds,
		c.gridLatency,
		c.statusResolutions,
		c.auditCache,
		c.httpRequests,
	)

	return c
}

// ObserveValidation records one ConflictGuard run.
func (c *Collector) ObserveValidation(outcome string, elapsed time.Duration) {
	c.validations.WithLabelValues(outcome).Inc()
	c.validationLatency.Observe(elapsed.Seconds())
}

// ObserveGridBuild records one day grid build.
func (c *Collector) ObserveGridBuild(elapsed time.Duration) {
	c.gridBuilds.Inc()
	c.gridLatency.Observe(elapsed.Seconds())
}

// ObserveStatusResolution records a resolved activity status.
func (c *Collector) ObserveStatusResolution(status string) {
	c.statusResolutions.WithLabelValues(status).Inc()
}

// ObserveAuditCache records an audit cache hit or miss.
func (c *Collector) ObserveAuditCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	c.auditCache.WithLabelValues(result).Inc()
}

// RecordHTTPStatus records a served HTTP response.
func (c *Collector) RecordHTTPStatus(method string, statusCode int) {
	c.httpRequests.WithLabelValues(method, strconv.Itoa(statusCode)).Inc()
}

// Handler returns the Prometheus scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
