package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

const (
	namespace = "jobsuche"
	subsystem = "mcp"
)

var (
	// HTTP requests served by the http transport
	RequestsTotal *prometheus.CounterVec

	// Tool calls by outcome
	ToolCallsTotal *prometheus.CounterVec
	ToolDuration   *prometheus.HistogramVec

	// Per-listing detail fetch outcomes inside expansions and batches
	DetailOutcomesTotal *prometheus.CounterVec

	// Upstream Jobsuche API calls
	UpstreamRequestsTotal *prometheus.CounterVec
	UpstreamLatency       *prometheus.HistogramVec

	// Circuit breaker state per upstream operation
	CircuitBreakerState *prometheus.GaugeVec

	// Time spent waiting for the pacer per class
	PacerWait *prometheus.HistogramVec
)

func init() {
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "status"},
	)

	ToolCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "tool_calls_total",
			Help:      "Total tool invocations",
		},
		[]string{"tool_name", "status"},
	)

	ToolDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "tool_duration_seconds",
			Help:      "Tool execution duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"tool_name"},
	)

	DetailOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "detail_outcomes_total",
			Help:      "Job detail fetches inside expansions by outcome",
		},
		[]string{"tool_name", "status"},
	)

	UpstreamRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "upstream_requests_total",
			Help:      "Requests sent to the Jobsuche API",
		},
		[]string{"operation", "status"},
	)

	UpstreamLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "upstream_latency_seconds",
			Help:      "Jobsuche API response time in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"operation"},
	)

	CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state (0=closed, 0.5=half-open, 1=open)",
		},
		[]string{"operation"},
	)

	PacerWait = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "pacer_wait_seconds",
			Help:      "Time callers waited for the pacer",
			Buckets:   []float64{0, 0.01, 0.05, 0.1, 0.2, 0.5, 1, 2},
		},
		[]string{"class"},
	)

	prometheus.MustRegister(RequestsTotal)
	prometheus.MustRegister(ToolCallsTotal)
	prometheus.MustRegister(ToolDuration)
	prometheus.MustRegister(DetailOutcomesTotal)
	prometheus.MustRegister(UpstreamRequestsTotal)
	prometheus.MustRegister(UpstreamLatency)
	prometheus.MustRegister(CircuitBreakerState)
	prometheus.MustRegister(PacerWait)
	log.Debug().Msg("jobsuche metrics registered with Prometheus")
}

// RecordRequest records an HTTP request
func RecordRequest(method, status string) {
	RequestsTotal.WithLabelValues(method, status).Inc()
}

// RecordToolCall records a tool invocation
func RecordToolCall(toolName, status string, durationSec float64) {
	if status == "" {
		status = "unknown"
	}
	ToolCallsTotal.WithLabelValues(toolName, status).Inc()
	ToolDuration.WithLabelValues(toolName).Observe(durationSec)
}

// RecordDetailOutcomes records the ok/error split of an expansion.
func RecordDetailOutcomes(toolName string, ok, failed int) {
	if ok > 0 {
		DetailOutcomesTotal.WithLabelValues(toolName, "ok").Add(float64(ok))
	}
	if failed > 0 {
		DetailOutcomesTotal.WithLabelValues(toolName, "error").Add(float64(failed))
	}
}

// RecordUpstreamRequest records one upstream call and its latency
func RecordUpstreamRequest(operation, status string, durationSec float64) {
	UpstreamRequestsTotal.WithLabelValues(operation, status).Inc()
	UpstreamLatency.WithLabelValues(operation).Observe(durationSec)
}

// SetCircuitBreakerState sets the circuit breaker state
func SetCircuitBreakerState(operation string, state string) {
	var val float64
	switch state {
	case "closed":
		val = 0.0
	case "half-open":
		val = 0.5
	case "open":
		val = 1.0
	}
	CircuitBreakerState.WithLabelValues(operation).Set(val)
}

// RecordPacerWait records how long a caller waited for a pace slot
func RecordPacerWait(class string, durationSec float64) {
	PacerWait.WithLabelValues(class).Observe(durationSec)
}
