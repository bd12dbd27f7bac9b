// Package metrics содержит Prometheus-метрики сервиса. Метрики регистрируются
// в собственном реестре, у каждого экземпляра роутера свой набор.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	HTTPRequests     *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge
	LinksCreated     *prometheus.CounterVec
	Redirects        *prometheus.CounterVec

	registry *prometheus.Registry
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		RequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Current number of HTTP requests being processed",
			},
		),
		LinksCreated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "links_created_total",
				Help: "Total number of short links created",
			},
			[]string{"source"},
		),
		Redirects: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "redirects_total",
				Help: "Total number of redirect requests",
			},
			[]string{"result"},
		),
		registry: reg,
	}

	reg.MustRegister(
		m.HTTPRequests,
		m.HTTPDuration,
		m.RequestsInFlight,
		m.LinksCreated,
		m.Redirects,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Handler отдаёт реестр в текстовом формате Prometheus
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
