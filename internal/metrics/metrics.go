// Package metrics provides Prometheus metrics for TaskPilot monitoring.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once     sync.Once
	instance *Metrics
)

// Metrics holds all Prometheus metric collectors.
type Metrics struct {
	// HTTP
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Agent pipeline
	AgentExecutionsTotal *prometheus.CounterVec
	AgentDuration        *prometheus.HistogramVec
	AnalysisRunsTotal    *prometheus.CounterVec
	AnalysisRunDuration  prometheus.Histogram

	// Business
	TasksCreatedTotal prometheus.Counter

	// Cache
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec
}

// Get returns the singleton Metrics instance.
func Get() *Metrics {
	once.Do(func() {
		instance = newMetrics()
	})
	return instance
}

func newMetrics() *Metrics {
	m := &Metrics{}

	m.HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "taskpilot",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by endpoint, method, and status code",
		},
		[]string{"endpoint", "method", "status"},
	)

	m.HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "taskpilot",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"endpoint", "method"},
	)

	m.HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "taskpilot",
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Current number of HTTP requests being processed",
		},
	)

	m.AgentExecutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "taskpilot",
			Subsystem: "agents",
			Name:      "executions_total",
			Help:      "Total agent step executions by agent type and outcome",
		},
		[]string{"agent", "status"},
	)

	m.AgentDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "taskpilot",
			Subsystem: "agents",
			Name:      "step_duration_seconds",
			Help:      "Agent step duration in seconds",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"agent"},
	)

	m.AnalysisRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "taskpilot",
			Subsystem: "analysis",
			Name:      "runs_total",
			Help:      "Completed analysis runs by outcome",
		},
		[]string{"status"},
	)

	m.AnalysisRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "taskpilot",
			Subsystem: "analysis",
			Name:      "run_duration_seconds",
			Help:      "Wall-clock duration of a full analysis run in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	m.TasksCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "taskpilot",
			Subsystem: "tasks",
			Name:      "created_total",
			Help:      "Total tasks created",
		},
	)

	m.CacheHitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "taskpilot",
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Cache hits by key prefix",
		},
		[]string{"prefix"},
	)

	m.CacheMissesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "taskpilot",
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Cache misses by key prefix",
		},
		[]string{"prefix"},
	)

	return m
}

// RecordHTTPRequest records one completed HTTP request.
func (m *Metrics) RecordHTTPRequest(endpoint, method string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(endpoint, method, statusLabel(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(endpoint, method).Observe(duration.Seconds())
}

// RecordAgentExecution records one agent step.
func (m *Metrics) RecordAgentExecution(agent string, success bool, duration time.Duration) {
	status := "ok"
	if !success {
		status = "error"
	}
	m.AgentExecutionsTotal.WithLabelValues(agent, status).Inc()
	m.AgentDuration.WithLabelValues(agent).Observe(duration.Seconds())
}

// RecordAnalysisRun records one completed orchestration run.
func (m *Metrics) RecordAnalysisRun(success bool, duration time.Duration) {
	status := "ok"
	if !success {
		status = "degraded"
	}
	m.AnalysisRunsTotal.WithLabelValues(status).Inc()
	m.AnalysisRunDuration.Observe(duration.Seconds())
}

func statusLabel(status int) string {
	switch {
	case status < 200:
		return "1xx"
	case status < 300:
		return "2xx"
	case status < 400:
		return "3xx"
	case status < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
