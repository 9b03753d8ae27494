package instrumentation

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordToolCall(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordToolCall("binance_get_trades", "ok", 120*time.Millisecond)
	m.RecordToolCall("binance_get_trades", "ok", 80*time.Millisecond)
	m.RecordToolCall("binance_get_trades", "tool_error", 10*time.Millisecond)

	if got := testutil.ToFloat64(m.ToolCalls.WithLabelValues("binance_get_trades", "ok")); got != 2 {
		t.Errorf("expected 2 ok calls, got %v", got)
	}
	if got := testutil.ToFloat64(m.ToolCalls.WithLabelValues("binance_get_trades", "tool_error")); got != 1 {
		t.Errorf("expected 1 tool_error call, got %v", got)
	}
	if got := testutil.CollectAndCount(m.ToolLatency, "tideline_mcp_tool_latency_seconds"); got != 1 {
		t.Errorf("expected 1 latency series, got %d", got)
	}
}

func TestNewMetricsIsolatedRegistries(t *testing.T) {
	// Each registry gets its own metric set; registering twice against
	// separate registries must not panic on duplicate registration.
	a := NewMetrics(prometheus.NewRegistry())
	b := NewMetrics(prometheus.NewRegistry())

	a.RecordToolCall("quality_get_status", "ok", time.Millisecond)
	if got := testutil.ToFloat64(b.ToolCalls.WithLabelValues("quality_get_status", "ok")); got != 0 {
		t.Errorf("registries must be independent, got %v", got)
	}
}
