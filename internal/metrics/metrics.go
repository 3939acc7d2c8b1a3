// Package metrics описывает Prometheus-метрики сервиса.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics хранит коллекторы сервиса, зарегистрированные в собственном реестре
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPResponseSize     *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	LinksCreated *prometheus.CounterVec
	Redirects    *prometheus.CounterVec
	Signups      *prometheus.CounterVec
	Logins       *prometheus.CounterVec
	CacheLookups *prometheus.CounterVec
}

// New создаёт реестр с метриками процесса и Go runtime
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		HTTPRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		HTTPResponseSize: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_response_size_bytes",
			Help:    "HTTP response size in bytes",
			Buckets: prometheus.ExponentialBuckets(100, 10, 6),
		}, []string{"method", "path"}),
		HTTPRequestsInFlight: f.NewGauge(prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Current number of HTTP requests being processed",
		}),
		LinksCreated: f.NewCounterVec(prometheus.CounterOpts{
			Name: "links_created_total",
			Help: "Total number of shorten attempts by outcome",
		}, []string{"status"}),
		Redirects: f.NewCounterVec(prometheus.CounterOpts{
			Name: "redirects_total",
			Help: "Total number of short code resolutions by outcome",
		}, []string{"status"}),
		Signups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "signups_total",
			Help: "Total number of signup attempts by outcome",
		}, []string{"status"}),
		Logins: f.NewCounterVec(prometheus.CounterOpts{
			Name: "logins_total",
			Help: "Total number of login attempts by outcome",
		}, []string{"status"}),
		CacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cache_lookups_total",
			Help: "Total number of redirect cache lookups by result",
		}, []string{"result"}),
	}
}

// Registry возвращает реестр метрик
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler отдаёт метрики в формате Prometheus
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveHTTP записывает метрики одного HTTP-запроса
func (m *Metrics) ObserveHTTP(method, path string, status int, duration time.Duration, size int) {
	code := strconv.Itoa(status)
	m.HTTPRequestsTotal.WithLabelValues(method, path, code).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path, code).Observe(duration.Seconds())
	m.HTTPResponseSize.WithLabelValues(method, path).Observe(float64(size))
}
