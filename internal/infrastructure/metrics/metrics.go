package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

// Service metrics - using explicit registration
var (
	// Request counters
	RequestsTotal *prometheus.CounterVec

	// Tool call counters
	ToolCallsTotal *prometheus.CounterVec

	// Tool duration histogram
	ToolDuration *prometheus.HistogramVec

	// Upstream provider latency
	ProviderLatency *prometheus.HistogramVec

	// Retry attempts per operation
	RetryAttemptsTotal *prometheus.CounterVec

	// Circuit breaker state gauge
	CircuitBreakerState *prometheus.GaugeVec

	// Admission gate occupancy
	GateInFlight prometheus.Gauge

	// Result cache hits/misses
	CacheLookupsTotal *prometheus.CounterVec

	// Dropped malformed result entries
	DroppedResultsTotal *prometheus.CounterVec
)

// init creates and registers all metrics with the default registry
func init() {
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tavily",
			Subsystem: "mcp",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "status"},
	)

	ToolCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tavily",
			Subsystem: "mcp",
			Name:      "tool_calls_total",
			Help:      "Total tool invocations",
		},
		[]string{"tool_name", "status"},
	)

	ToolDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tavily",
			Subsystem: "mcp",
			Name:      "tool_duration_seconds",
			Help:      "Tool execution duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"tool_name"},
	)

	ProviderLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tavily",
			Subsystem: "mcp",
			Name:      "provider_latency_seconds",
			Help:      "Upstream provider response time in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"operation"},
	)

	RetryAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tavily",
			Subsystem: "mcp",
			Name:      "retry_attempts_total",
			Help:      "Retry attempts beyond the first, per operation",
		},
		[]string{"operation"},
	)

	CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "tavily",
			Subsystem: "mcp",
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state (0=closed, 0.5=half-open, 1=open)",
		},
		[]string{"operation"},
	)

	GateInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "tavily",
			Subsystem: "mcp",
			Name:      "gate_in_flight",
			Help:      "Outbound provider calls currently admitted by the gate",
		},
	)

	CacheLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tavily",
			Subsystem: "mcp",
			Name:      "cache_lookups_total",
			Help:      "Search result cache lookups",
		},
		[]string{"outcome"},
	)

	DroppedResultsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tavily",
			Subsystem: "mcp",
			Name:      "dropped_results_total",
			Help:      "Provider result entries dropped for missing required fields",
		},
		[]string{"tool_name"},
	)

	prometheus.MustRegister(RequestsTotal)
	prometheus.MustRegister(ToolCallsTotal)
	prometheus.MustRegister(ToolDuration)
	prometheus.MustRegister(ProviderLatency)
	prometheus.MustRegister(RetryAttemptsTotal)
	prometheus.MustRegister(CircuitBreakerState)
	prometheus.MustRegister(GateInFlight)
	prometheus.MustRegister(CacheLookupsTotal)
	prometheus.MustRegister(DroppedResultsTotal)
	log.Info().Msg("MCP metrics registered with Prometheus")
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

// RecordProviderLatency records upstream response time for an operation
func RecordProviderLatency(operation string, durationSec float64) {
	ProviderLatency.WithLabelValues(operation).Observe(durationSec)
}

// RecordRetry records one retry attempt for an operation
func RecordRetry(operation string) {
	RetryAttemptsTotal.WithLabelValues(operation).Inc()
}

// SetCircuitBreakerState sets the circuit breaker state gauge
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

// RecordCacheLookup records a cache hit or miss
func RecordCacheLookup(hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	CacheLookupsTotal.WithLabelValues(outcome).Inc()
}

// RecordDroppedResults records result entries dropped during formatting
func RecordDroppedResults(toolName string, count int) {
	if count <= 0 {
		return
	}
	DroppedResultsTotal.WithLabelValues(toolName).Add(float64(count))
}
