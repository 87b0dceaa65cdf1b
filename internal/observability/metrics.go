package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for agent sessions and model calls.
// It satisfies agent.Recorder.
type Metrics struct {
	registry *prometheus.Registry

	// Agent
	actionsTotal  *prometheus.CounterVec
	turnsTotal    prometheus.Counter
	sessionsTotal *prometheus.CounterVec
	sessionTurns  prometheus.Histogram

	// LLM
	llmRequestsTotal   *prometheus.CounterVec
	llmRequestDuration *prometheus.HistogramVec
	llmTokensUsed      *prometheus.CounterVec
}

// NewMetrics registers every collector on a fresh registry under namespace.
func NewMetrics(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		actionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actions_total",
			Help:      "Browser actions dispatched, by action and outcome.",
		}, []string{"action", "status"}),
		turnsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Model turns completed across all sessions.",
		}),
		sessionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_total",
			Help:      "Agent sessions ended, by terminal state.",
		}, []string{"state"}),
		sessionTurns: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "session_turns",
			Help:      "Number of model turns a session used.",
			Buckets:   prometheus.LinearBuckets(1, 1, 10),
		}),
		llmRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_requests_total",
			Help:      "Model requests, by model and outcome.",
		}, []string{"model", "status"}),
		llmRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_request_duration_seconds",
			Help:      "Model request latency in seconds.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"model"}),
		llmTokensUsed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_tokens_used_total",
			Help:      "Tokens consumed, by model and direction.",
		}, []string{"model", "type"}),
	}
}

// ActionDispatched counts one dispatch.
func (m *Metrics) ActionDispatched(action, status string) {
	m.actionsTotal.WithLabelValues(action, status).Inc()
}

// TurnCompleted counts one model turn.
func (m *Metrics) TurnCompleted() {
	m.turnsTotal.Inc()
}

// SessionEnded records the terminal state and turn usage of a session.
func (m *Metrics) SessionEnded(state string, turns int) {
	m.sessionsTotal.WithLabelValues(state).Inc()
	m.sessionTurns.Observe(float64(turns))
}

// LLMRequest records one model call.
func (m *Metrics) LLMRequest(model, status string, took time.Duration, promptTokens, outputTokens int) {
	m.llmRequestsTotal.WithLabelValues(model, status).Inc()
	m.llmRequestDuration.WithLabelValues(model).Observe(took.Seconds())
	if promptTokens > 0 {
		m.llmTokensUsed.WithLabelValues(model, "prompt").Add(float64(promptTokens))
	}
	if outputTokens > 0 {
		m.llmTokensUsed.WithLabelValues(model, "output").Add(float64(outputTokens))
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
