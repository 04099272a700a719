// Package metrics exposes Prometheus counters and histograms fed by bus
// events.
package metrics

import (
	"context"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	eventbus "github.com/hanpama/querytrainer/internal/eventbus"
	events "github.com/hanpama/querytrainer/internal/events"
)

const namespace = "querytrainer"

type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	queries      *prometheus.CounterVec
	queryRows    prometheus.Histogram
	grades       *prometheus.CounterVec
	solves       prometheus.Counter
}

// New creates the collectors on a private registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "http_requests_total",
			Help: "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "queries_total",
			Help: "Learner queries by root and outcome (ok or the rejection code).",
		}, []string{"root", "outcome"}),
		queryRows: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "query_rows",
			Help:    "Rows returned by accepted queries.",
			Buckets: []float64{0, 1, 2, 3, 5, 10, 20},
		}),
		grades: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "grades_total",
			Help: "Graded submissions by task and state.",
		}, []string{"task", "state"}),
		solves: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "tasks_solved_total",
			Help: "Tasks solved for the first time by a learner.",
		}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests, m.httpDuration, m.queries, m.queryRows, m.grades, m.solves,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Attach feeds the collectors from bus events.
func (m *Metrics) Attach() (unsubscribe func()) {
	offs := []func(){
		eventbus.Subscribe(func(_ context.Context, e events.HTTPFinish) {
			route := e.Route
			if route == "" {
				route = "unmatched"
			}
			m.httpRequests.WithLabelValues(route, strconv.Itoa(e.Status)).Inc()
			m.httpDuration.WithLabelValues(route).Observe(e.Duration.Seconds())
		}),
		eventbus.Subscribe(func(_ context.Context, e events.QueryFinish) {
			outcome := "ok"
			if e.ErrorCode != "" {
				outcome = e.ErrorCode
			} else {
				m.queryRows.Observe(float64(e.Rows))
			}
			root := e.Root
			if root == "" {
				root = "unknown"
			}
			m.queries.WithLabelValues(root, outcome).Inc()
		}),
		eventbus.Subscribe(func(_ context.Context, e events.GradeFinish) {
			m.grades.WithLabelValues(strconv.Itoa(e.TaskID), e.State).Inc()
			if e.NewlySolved {
				m.solves.Inc()
			}
		}),
	}
	return func() {
		for _, off := range offs {
			off()
		}
	}
}
