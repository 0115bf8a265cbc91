// Package metrics holds the server's Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics tracks request, authentication and storage outcomes.
//
// All metrics use the intelligence_ prefix.
type Metrics struct {
	// RequestsTotal counts HTTP requests by route pattern, method and status.
	RequestsTotal *prometheus.CounterVec

	// RequestDuration tracks HTTP latency by route pattern and method.
	RequestDuration *prometheus.HistogramVec

	// AuthFailuresTotal counts rejected authentications by reason. Reasons
	// are never sent to clients; this is the only place they surface.
	AuthFailuresTotal *prometheus.CounterVec

	// StorageOpsTotal counts backend operations by op and result.
	StorageOpsTotal *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New registers the collectors on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewWithRegistry(reg, reg)
}

// NewWithRegistry registers the collectors on reg and serves from g.
// Panics if registration fails.
func NewWithRegistry(reg prometheus.Registerer, g prometheus.Gatherer) *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "intelligence_http_requests_total",
				Help: "Total HTTP requests by route, method and status",
			},
			[]string{"route", "method", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "intelligence_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),
		AuthFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "intelligence_auth_failures_total",
				Help: "Rejected authentications by reason",
			},
			[]string{"reason"},
		),
		StorageOpsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "intelligence_storage_operations_total",
				Help: "Storage backend operations by op and result",
			},
			[]string{"op", "result"},
		),
		gatherer: g,
	}

	reg.MustRegister(m.RequestsTotal, m.RequestDuration, m.AuthFailuresTotal, m.StorageOpsTotal)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// ObserveStorage matches storage.Observer.
func (m *Metrics) ObserveStorage(op, result string) {
	m.StorageOpsTotal.WithLabelValues(op, result).Inc()
}

// ObserveAuthFailure records a rejected authentication.
func (m *Metrics) ObserveAuthFailure(reason string) {
	m.AuthFailuresTotal.WithLabelValues(reason).Inc()
}
