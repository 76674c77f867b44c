// Package metrics holds the Prometheus collectors of the scheduler.
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

const namespace = "scheduler"

// Search outcomes.
const (
	OutcomeFound    = "found"
	OutcomeNoSlot   = "no_slot"
	OutcomeConflict = "conflict"
	OutcomeError    = "error"
	OutcomeBooked   = "booked"
	OutcomeRejected = "rejected"
)

type Metrics struct {
	registry *prometheus.Registry

	candidates     *prometheus.CounterVec
	searchDuration *prometheus.HistogramVec
	schedules      *prometheus.CounterVec
	requests       *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
}

// New creates collectors on a dedicated registry, together with the Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		candidates: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candidates_evaluated_total",
			Help:      "Candidate slots evaluated by the search engine, by feasibility.",
		}, []string{"feasible"}),
		searchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Duration of slot searches.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
		}, []string{"outcome"}),
		schedules: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "schedule_requests_total",
			Help:      "Schedule operations by outcome.",
		}, []string{"outcome"}),
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"method", "route", "status"}),
		requestLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// RegisterQueueLength exposes the worker queue length, read at scrape time.
func (m *Metrics) RegisterQueueLength(length func() int) {
	promauto.With(m.registry).NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "worker_queue_length",
		Help:      "Tasks waiting for a worker.",
	}, func() float64 {
		return float64(length())
	})
}

func (m *Metrics) CandidateEvaluated(feasible bool) {
	m.candidates.WithLabelValues(strconv.FormatBool(feasible)).Inc()
}

func (m *Metrics) ObserveSearch(outcome string, d time.Duration) {
	m.searchDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

func (m *Metrics) ScheduleOutcome(outcome string) {
	m.schedules.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestLatency.WithLabelValues(method, route).Observe(d.Seconds())
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
