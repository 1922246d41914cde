// Package metrics exposes Prometheus instrumentation for the storefront.
//
// Wire it once in the router:
//
//	r.Use(m.Middleware)
//	r.Handle("/metrics", m.Handler())
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "storefront"

// Payment confirmation channels.
const (
	ChannelRedirect = "redirect"
	ChannelWebhook  = "webhook"
)

// Payment confirmation outcomes.
const (
	OutcomePaid           = "paid"
	OutcomeAlreadyPaid    = "already_paid"
	OutcomeAmountMismatch = "amount_mismatch"
	OutcomeNotSuccessful  = "not_successful"
	OutcomeNotFound       = "not_found"
	OutcomeIgnored        = "ignored"
	OutcomeError          = "error"
)

// Metrics owns a private registry and the collectors registered on it.
type Metrics struct {
	registry *prometheus.Registry

	RequestDuration      *prometheus.HistogramVec
	RequestTotal         *prometheus.CounterVec
	RequestInFlight      prometheus.Gauge
	PaymentConfirmations *prometheus.CounterVec
	EmailsSent           *prometheus.CounterVec
}

// New creates the collectors and registers them together with the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
		RequestTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests.",
			},
			[]string{"method", "route", "status"},
		),
		RequestInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Number of HTTP requests currently being served.",
		}),
		PaymentConfirmations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "payment",
				Name:      "confirmations_total",
				Help:      "Payment confirmation attempts by channel and outcome.",
			},
			[]string{"channel", "outcome"},
		),
		EmailsSent: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "mail",
				Name:      "messages_total",
				Help:      "Outbound email attempts by kind and result.",
			},
			[]string{"kind", "result"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.RequestDuration,
		m.RequestTotal,
		m.RequestInFlight,
		m.PaymentConfirmations,
		m.EmailsSent,
	)

	return m
}

// Registry returns the registry backing Handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the exposition page.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		Registry:          m.registry,
		EnableOpenMetrics: true,
	})
}

// ObservePayment counts one confirmation attempt. A nil receiver is a no-op
// so services can run without instrumentation in tests.
func (m *Metrics) ObservePayment(channel, outcome string) {
	if m == nil {
		return
	}
	m.PaymentConfirmations.WithLabelValues(channel, outcome).Inc()
}

// ObserveEmail counts one delivery attempt of the given kind.
func (m *Metrics) ObserveEmail(kind string, err error) {
	if m == nil {
		return
	}
	result := "sent"
	if err != nil {
		result = "failed"
	}
	m.EmailsSent.WithLabelValues(kind, result).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware records duration, count and in-flight requests. Routes are
// labelled with their chi pattern to keep ids out of the label set.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		m.RequestInFlight.Inc()
		defer m.RequestInFlight.Dec()

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := strconv.Itoa(rec.status)

		m.RequestDuration.WithLabelValues(r.Method, route, status).Observe(time.Since(start).Seconds())
		m.RequestTotal.WithLabelValues(r.Method, route, status).Inc()
	})
}
