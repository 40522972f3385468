// Package metrics exposes Prometheus collectors for the HTTP surface and the batch workers.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rohits-web03/dnastore/internal/models"
)

const namespace = "dnastore"

// Metrics owns a private registry so tests can create instances freely.
type Metrics struct {
	registry *prometheus.Registry

	requests         *prometheus.HistogramVec
	batchesSubmitted prometheus.Counter
	batchesFinished  *prometheus.CounterVec
	batchDuration    *prometheus.HistogramVec
	queueDepth       prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route pattern and status code.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		batchesSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "batch",
			Name:      "submitted_total",
			Help:      "Batches created by the batch upload endpoint.",
		}),
		batchesFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "batch",
			Name:      "finished_total",
			Help:      "Batches that reached a terminal status.",
		}, []string{"status"}),
		batchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "batch",
			Name:      "duration_seconds",
			Help:      "Time from submission to terminal status.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"status"}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "batch",
			Name:      "queue_depth",
			Help:      "Batches waiting for a worker.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests,
		m.batchesSubmitted,
		m.batchesFinished,
		m.batchDuration,
		m.queueDepth,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveRequest records one HTTP request. route should be the matched mux pattern,
// not the raw path, to keep label cardinality bounded.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}

func (m *Metrics) BatchSubmitted() {
	m.batchesSubmitted.Inc()
}

func (m *Metrics) BatchFinished(status models.BatchStatus, elapsed time.Duration) {
	m.batchesFinished.WithLabelValues(string(status)).Inc()
	m.batchDuration.WithLabelValues(string(status)).Observe(elapsed.Seconds())
}

func (m *Metrics) SetQueueDepth(n int) {
	m.queueDepth.Set(float64(n))
}
