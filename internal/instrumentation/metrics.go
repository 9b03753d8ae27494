// Package instrumentation holds the Prometheus metrics for the MCP
// server.
package instrumentation

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	ToolCalls   *prometheus.CounterVec
	ToolLatency *prometheus.HistogramVec
}

// NewMetrics registers the metric set against reg. Tests pass a private
// registry; main passes prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ToolCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tideline_mcp_tool_calls_total",
			Help: "Tool invocations by tool name and outcome",
		}, []string{"tool", "outcome"}),

		ToolLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tideline_mcp_tool_latency_seconds",
			Help:    "Tool invocation latency, upstream call included",
			Buckets: prometheus.DefBuckets,
		}, []string{"tool"}),
	}
}

// RecordToolCall records one completed tool invocation.
func (m *Metrics) RecordToolCall(tool, outcome string, elapsed time.Duration) {
	m.ToolCalls.WithLabelValues(tool, outcome).Inc()
	m.ToolLatency.WithLabelValues(tool).Observe(elapsed.Seconds())
}
