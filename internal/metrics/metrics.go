// Package metrics exposes Prometheus collectors for loads, geocoding and HTTP traffic.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/nao1215/salesdash"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "salesdash"

// Load results
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Metrics owns a private registry so tests and multiple servers do not collide.
type Metrics struct {
	registry *prometheus.Registry

	loads      *prometheus.CounterVec
	loadedRows prometheus.Gauge
	geocodes   *prometheus.CounterVec
	requests   *prometheus.HistogramVec
}

var _ salesdash.GeocodeObserver = (*Metrics)(nil)

// New creates and registers every collector, plus the Go runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loads_total",
			Help:      "Order file loads by format and result.",
		}, []string{"format", "result"}),
		loadedRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "loaded_rows",
			Help:      "Rows in the table currently served.",
		}),
		geocodes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_lookups_total",
			Help:      "State geocode lookups by outcome.",
		}, []string{"outcome"}),
		requests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route, method and status code.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method", "code"}),
	}
	m.registry.MustRegister(
		m.loads,
		m.loadedRows,
		m.geocodes,
		m.requests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry holding every collector.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveGeocode implements salesdash.GeocodeObserver.
func (m *Metrics) ObserveGeocode(outcome salesdash.GeocodeOutcome) {
	m.geocodes.WithLabelValues(string(outcome)).Inc()
}

// ObserveLoad counts a load attempt. rows is recorded as the served table size on success.
func (m *Metrics) ObserveLoad(format string, rows int, err error) {
	if err != nil {
		m.loads.WithLabelValues(format, ResultError).Inc()
		return
	}
	m.loads.WithLabelValues(format, ResultOK).Inc()
	m.loadedRows.Set(float64(rows))
}

// ObserveRequest records one served HTTP request.
func (m *Metrics) ObserveRequest(route, method string, code int, elapsed time.Duration) {
	m.requests.WithLabelValues(route, method, strconv.Itoa(code)).Observe(elapsed.Seconds())
}
