// Package metrics exposes Prometheus instrumentation for the session
// gateway. The Collector doubles as the session package's transition
// recorder so the state machine stays free of Prometheus imports.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the gateway's metric vectors.
type Collector struct {
	registry    *prometheus.Registry
	transitions *prometheus.CounterVec
	requests    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

// New creates a Collector with its own registry, so tests can create
// collectors freely without duplicate-registration panics.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gymovoo_session_transitions_total",
			Help: "Session state transitions by operation and outcome.",
		}, []string{"op", "outcome"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gymovoo_http_requests_total",
			Help: "HTTP requests by route and status class.",
		}, []string{"route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gymovoo_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}
	c.registry.MustRegister(c.transitions, c.requests, c.duration)
	return c
}

// Transition implements the session transition recorder.
func (c *Collector) Transition(op, outcome string) {
	c.transitions.WithLabelValues(op, outcome).Inc()
}

// ObserveRequest records one completed HTTP request.
func (c *Collector) ObserveRequest(route, status string, seconds float64) {
	c.requests.WithLabelValues(route, status).Inc()
	c.duration.WithLabelValues(route).Observe(seconds)
}

// Handler serves the scrape endpoint for this collector's registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
