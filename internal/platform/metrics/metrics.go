// Package metrics exposes Prometheus collectors for the HTTP layer and the
// evaluation domain.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "appraisal"

// Collector owns a private registry. All methods are safe on a nil receiver
// so services can run without metrics in tests.
type Collector struct {
	registry *prometheus.Registry

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	rateLimited         prometheus.Counter

	matricesActivated    prometheus.Counter
	rescales             prometheus.Counter
	weightageRejections  *prometheus.CounterVec
	assignmentsCreated   prometheus.Counter
	cyclesActivated      prometheus.Counter
	evaluationsSubmitted prometheus.Counter
	catalogCache         *prometheus.CounterVec
	jobRuns              *prometheus.CounterVec
}

func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter.",
		}),
		matricesActivated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "matrix",
			Name:      "activated_total",
			Help:      "Matrices moved from draft to active.",
		}),
		rescales: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "matrix",
			Name:      "rescales_total",
			Help:      "Largest-remainder rescales performed.",
		}),
		weightageRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "matrix",
			Name:      "weightage_rejections_total",
			Help:      "Weightage changes rejected by reason.",
		}, []string{"reason"}),
		assignmentsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cycle",
			Name:      "assignments_created_total",
			Help:      "Team assignments created.",
		}),
		cyclesActivated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cycle",
			Name:      "activated_total",
			Help:      "Cycles moved from draft to active.",
		}),
		evaluationsSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "evaluation",
			Name:      "submitted_total",
			Help:      "Employee evaluations submitted or replaced.",
		}),
		catalogCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "parameters",
			Name:      "catalog_cache_total",
			Help:      "Parameter catalog cache lookups by result.",
		}, []string{"result"}),
		jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "jobs",
			Name:      "runs_total",
			Help:      "Background job runs by type and status.",
		}, []string{"job", "status"}),
	}
	c.registry.MustRegister(
		c.httpRequests,
		c.httpRequestDuration,
		c.rateLimited,
		c.matricesActivated,
		c.rescales,
		c.weightageRejections,
		c.assignmentsCreated,
		c.cyclesActivated,
		c.evaluationsSubmitted,
		c.catalogCache,
		c.jobRuns,
	)
	return c
}

func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) ObserveRequest(method, route string, status int, duration time.Duration) {
	if c == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
	if status == http.StatusTooManyRequests {
		c.rateLimited.Inc()
	}
}

func (c *Collector) MatrixActivated() {
	if c == nil {
		return
	}
	c.matricesActivated.Inc()
}

func (c *Collector) Rescaled() {
	if c == nil {
		return
	}
	c.rescales.Inc()
}

func (c *Collector) WeightageRejected(reason string) {
	if c == nil {
		return
	}
	c.weightageRejections.WithLabelValues(reason).Inc()
}

func (c *Collector) AssignmentCreated() {
	if c == nil {
		return
	}
	c.assignmentsCreated.Inc()
}

func (c *Collector) CycleActivated() {
	if c == nil {
		return
	}
	c.cyclesActivated.Inc()
}

func (c *Collector) EvaluationSubmitted() {
	if c == nil {
		return
	}
	c.evaluationsSubmitted.Inc()
}

func (c *Collector) CatalogCache(hit bool) {
	if c == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	c.catalogCache.WithLabelValues(result).Inc()
}

func (c *Collector) JobRun(job, status string) {
	if c == nil {
		return
	}
	c.jobRuns.WithLabelValues(job, status).Inc()
}
