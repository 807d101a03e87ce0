// Package metrics collects and exposes Prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Sign-in and registration results
const (
	ResultSuccess  = "success"
	ResultFailure  = "failure"
	ResultRejected = "rejected"
)

// Collector records authentication and HTTP metrics.
type Collector struct {
	signIns       *prometheus.CounterVec
	registrations *prometheus.CounterVec
	guardRedirect *prometheus.CounterVec
	httpRequests  *prometheus.CounterVec
	httpDuration  prometheus.Histogram
}

// NewCollector creates a Collector and registers its metrics on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		signIns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "travito_auth_signin_total",
			Help: "Sign-in attempts by provider and result.",
		}, []string{"provider", "result"}),
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "travito_auth_registrations_total",
			Help: "Registration attempts by result.",
		}, []string{"result"}),
		guardRedirect: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "travito_route_guard_redirects_total",
			Help: "Redirects issued by the route guard by reason.",
		}, []string{"reason"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "travito_http_requests_total",
			Help: "HTTP requests by method and status code.",
		}, []string{"method", "status"}),
		httpDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "travito_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.signIns,
		c.registrations,
		c.guardRedirect,
		c.httpRequests,
		c.httpDuration,
	)

	return c
}

func (c *Collector) RecordSignIn(provider, result string) {
	c.signIns.WithLabelValues(provider, result).Inc()
}

func (c *Collector) RecordRegistration(result string) {
	c.registrations.WithLabelValues(result).Inc()
}

func (c *Collector) RecordGuardRedirect(reason string) {
	c.guardRedirect.WithLabelValues(reason).Inc()
}

// RecordHTTPRequest records one served request.
func (c *Collector) RecordHTTPRequest(method string, status int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	c.httpDuration.Observe(duration.Seconds())
}

// SetupMetricsRoute returns the /metrics handler for the given gatherer.
func SetupMetricsRoute(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
