// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is safe for concurrent use. All methods accept a nil receiver so
// components can run without instrumentation in tests.
type Metrics struct {
	registry *prometheus.Registry

	AuthFailuresTotal    *prometheus.CounterVec
	LoginsTotal          *prometheus.CounterVec
	RegistrationsTotal   *prometheus.CounterVec
	RequestsTotal        *prometheus.CounterVec
	RequestDuration      *prometheus.HistogramVec
	RateLimitErrorsTotal prometheus.Counter
}

// New creates the collectors and registers them, together with the Go
// runtime and process collectors, on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		AuthFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_failures_total",
				Help: "Authentication and authorization failures by kind",
			},
			[]string{"kind"},
		),
		LoginsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_logins_total",
				Help: "Login attempts by result",
			},
			[]string{"result"},
		),
		RegistrationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_registrations_total",
				Help: "Registration attempts by result",
			},
			[]string{"result"},
		),
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "api_requests_total",
				Help: "Requests served by transport, route and status",
			},
			[]string{"transport", "route", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "api_request_duration_seconds",
				Help:    "Request latency by transport and route",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"transport", "route"},
		),
		RateLimitErrorsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "login_ratelimit_errors_total",
				Help: "Rate limiter backend errors (requests were allowed)",
			},
		),
	}

	reg.MustRegister(
		m.AuthFailuresTotal,
		m.LoginsTotal,
		m.RegistrationsTotal,
		m.RequestsTotal,
		m.RequestDuration,
		m.RateLimitErrorsTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the underlying registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) AuthFailure(kind string) {
	if m == nil {
		return
	}
	m.AuthFailuresTotal.WithLabelValues(kind).Inc()
}

func (m *Metrics) Login(ok bool) {
	if m == nil {
		return
	}
	m.LoginsTotal.WithLabelValues(result(ok)).Inc()
}

func (m *Metrics) Registration(ok bool) {
	if m == nil {
		return
	}
	m.RegistrationsTotal.WithLabelValues(result(ok)).Inc()
}

func (m *Metrics) RateLimitError() {
	if m == nil {
		return
	}
	m.RateLimitErrorsTotal.Inc()
}

// ObserveRequest records one served request. status is an HTTP status code
// or a gRPC code rendered as text.
func (m *Metrics) ObserveRequest(transport, route string, status int, elapsed time.Duration) {
	m.ObserveRequestCode(transport, route, strconv.Itoa(status), elapsed)
}

func (m *Metrics) ObserveRequestCode(transport, route, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(transport, route, status).Inc()
	m.RequestDuration.WithLabelValues(transport, route).Observe(elapsed.Seconds())
}

func result(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
