// Package observability bundles Prometheus collectors for the proctor.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the agent and provider collectors on a private registry.
type Metrics struct {
	registry     *prometheus.Registry
	ChatTurns    *prometheus.CounterVec
	ChatDuration *prometheus.HistogramVec
	ToolCalls    *prometheus.CounterVec
	ProviderErrs *prometheus.CounterVec
}

// NewMetrics constructs a metrics registry with proctor collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	turns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "proctor_chat_turns_total",
		Help: "Completed chat turns by outcome",
	}, []string{"outcome"})

	durs := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "proctor_chat_duration_seconds",
		Help:    "Chat turn duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})

	tools := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "proctor_tool_calls_total",
		Help: "Tool executions by tool and status",
	}, []string{"tool", "status"})

	provErrs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "proctor_provider_errors_total",
		Help: "Provider failures by provider and kind",
	}, []string{"provider", "kind"})

	reg.MustRegister(turns, durs, tools, provErrs)

	return &Metrics{
		registry:     reg,
		ChatTurns:    turns,
		ChatDuration: durs,
		ToolCalls:    tools,
		ProviderErrs: provErrs,
	}
}

// Registry returns the underlying Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordChatTurn records one completed chat turn.
func (m *Metrics) RecordChatTurn(outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	if outcome == "" {
		outcome = "unknown"
	}
	m.ChatTurns.WithLabelValues(outcome).Inc()
	m.ChatDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// RecordToolCall records one tool execution.
func (m *Metrics) RecordToolCall(tool, status string) {
	if m == nil {
		return
	}
	m.ToolCalls.WithLabelValues(tool, status).Inc()
}

// RecordProviderError records a provider failure.
func (m *Metrics) RecordProviderError(provider, kind string) {
	if m == nil {
		return
	}
	if provider == "" {
		provider = "unknown"
	}
	if kind == "" {
		kind = "unknown"
	}
	m.ProviderErrs.WithLabelValues(provider, kind).Inc()
}
