// Package metrics exposes Prometheus instruments for the claim, sweep,
// verification and HTTP paths.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/wordclaim/internal/reclaim"
	"github.com/phrazzld/wordclaim/internal/service/assignment"
	"github.com/phrazzld/wordclaim/internal/service/verification"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "wordclaim"

// Metrics holds every instrument on its own registry.
type Metrics struct {
	registry *prometheus.Registry

	claims        *prometheus.CounterVec
	claimAttempts prometheus.Histogram
	sweeps        *prometheus.CounterVec
	reclaimed     prometheus.Counter
	lastSweep     prometheus.Gauge
	verifications *prometheus.CounterVec
	requests      *prometheus.CounterVec
	duration      *prometheus.HistogramVec
}

var (
	_ assignment.Metrics   = (*Metrics)(nil)
	_ reclaim.Metrics      = (*Metrics)(nil)
	_ verification.Metrics = (*Metrics)(nil)
)

// New registers the instruments, plus the Go runtime and process
// collectors, on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		claims: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "claims_total",
			Help:      "Claim requests by outcome.",
		}, []string{"outcome"}),
		claimAttempts: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "claim_attempts",
			Help:      "Conditional update attempts needed per claim.",
			Buckets:   []float64{1, 2, 3, 5, 8, 13},
		}),
		sweeps: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reclaim_sweeps_total",
			Help:      "Reclamation sweeps by result.",
		}, []string{"result"}),
		reclaimed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reclaimed_words_total",
			Help:      "Words returned to the pool by the sweep.",
		}),
		lastSweep: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "reclaim_last_success_timestamp_seconds",
			Help:      "Unix time of the last successful sweep.",
		}),
		verifications: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verifications_total",
			Help:      "Photo verifications by outcome.",
		}, []string{"outcome"}),
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}
}

// ObserveClaim implements assignment.Metrics.
func (m *Metrics) ObserveClaim(outcome string, attempts int) {
	m.claims.WithLabelValues(outcome).Inc()
	if attempts > 0 {
		m.claimAttempts.Observe(float64(attempts))
	}
}

// ObserveSweep implements reclaim.Metrics.
func (m *Metrics) ObserveSweep(reclaimed int64, err error) {
	if err != nil {
		m.sweeps.WithLabelValues("error").Inc()
		return
	}
	m.sweeps.WithLabelValues("ok").Inc()
	m.reclaimed.Add(float64(reclaimed))
	m.lastSweep.SetToCurrentTime()
}

// ObserveVerification implements verification.Metrics.
func (m *Metrics) ObserveVerification(outcome string) {
	m.verifications.WithLabelValues(outcome).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Middleware records request counts and latency. Routes are labeled with
// their chi pattern so path parameters do not explode cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.requests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		m.duration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}
