// Package metrics provides internal Prometheus metrics for the engine.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Collector records run, node, and invocation metrics.
type Collector struct {
	runsTotal      *prometheus.CounterVec
	runDuration    *prometheus.HistogramVec
	nodesTotal     *prometheus.CounterVec
	nodeDuration   *prometheus.HistogramVec
	invokeTotal    *prometheus.CounterVec
	invokeDuration prometheus.Histogram

	logger *zap.Logger
}

// NewCollector creates and registers the engine metrics under the given
// namespace.
func NewCollector(namespace string, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	c.runsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Total pipeline runs by schema and status.",
		},
		[]string{"schema", "status"},
	)
	c.runDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Pipeline run duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"schema"},
	)
	c.nodesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "node_executions_total",
			Help:      "Total node executions by kind and status.",
		},
		[]string{"kind", "status"},
	)
	c.nodeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "node_duration_seconds",
			Help:      "Node execution duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"kind"},
	)
	c.invokeTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invocations_total",
			Help:      "Total agent service invocations by status.",
		},
		[]string{"status"},
	)
	c.invokeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "invocation_duration_seconds",
			Help:      "Agent service invocation duration in seconds.",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	return c
}

// RecordRun records one completed pipeline run.
func (c *Collector) RecordRun(schema, status string, duration time.Duration) {
	c.runsTotal.WithLabelValues(schema, status).Inc()
	c.runDuration.WithLabelValues(schema).Observe(duration.Seconds())
}

// RecordNode records one node execution.
func (c *Collector) RecordNode(kind, status string, duration time.Duration) {
	c.nodesTotal.WithLabelValues(kind, status).Inc()
	c.nodeDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// RecordInvocation records one agent service call.
func (c *Collector) RecordInvocation(status string, duration time.Duration) {
	c.invokeTotal.WithLabelValues(status).Inc()
	c.invokeDuration.Observe(duration.Seconds())
}
