// Package metrics exposes Prometheus collectors for the HTTP API and background work.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so tests can build independent instances.
type Metrics struct {
	registry *prometheus.Registry

	requestDuration  *prometheus.HistogramVec
	requestsInFlight prometheus.Gauge
	thumbnails       *prometheus.CounterVec
	lookups          *prometheus.CounterVec
}

// New registers the service collectors plus the Go runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hotube_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds, by route pattern, method and status.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "method", "status"},
		),
		requestsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "hotube_http_requests_in_flight",
			Help: "Number of HTTP requests currently being served.",
		}),
		thumbnails: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hotube_thumbnail_archive_total",
				Help: "Thumbnail archive jobs, by outcome.",
			},
			[]string{"outcome"},
		),
		lookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hotube_youtube_lookups_total",
				Help: "YouTube metadata lookups, by outcome.",
			},
			[]string{"outcome"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requestDuration,
		m.requestsInFlight,
		m.thumbnails,
		m.lookups,
	)
	return m
}

// RegisterPool exports live connection pool gauges.
func (m *Metrics) RegisterPool(pool *pgxpool.Pool) {
	if pool == nil {
		return
	}
	m.registry.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "hotube_db_pool_acquired_connections",
			Help: "Database connections currently in use.",
		}, func() float64 { return float64(pool.Stat().AcquiredConns()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "hotube_db_pool_idle_connections",
			Help: "Idle database connections.",
		}, func() float64 { return float64(pool.Stat().IdleConns()) }),
	)
}

// ThumbnailArchived counts one archiver outcome.
func (m *Metrics) ThumbnailArchived(outcome string) {
	m.thumbnails.WithLabelValues(outcome).Inc()
}

// YouTubeLookup counts one metadata lookup outcome.
func (m *Metrics) YouTubeLookup(outcome string) {
	m.lookups.WithLabelValues(outcome).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware records duration and in-flight requests. It must wrap the mux
// directly so the matched route pattern is visible once the handler returns.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		m.requestsInFlight.Inc()
		defer m.requestsInFlight.Dec()

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		m.requestDuration.WithLabelValues(route, r.Method, strconv.Itoa(rec.status)).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.wroteHeader {
		r.status = code
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }
