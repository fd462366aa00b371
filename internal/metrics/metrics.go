package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Emotion metrics
var (
	// EmotionFireTotal counts trigger evaluation events by kind.
	EmotionFireTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "idol_emotion_fire_events_total",
			Help: "Emotion trigger evaluation events by kind",
		},
		[]string{"kind"},
	)

	// EmotionTransitionsTotal counts committed transitions.
	EmotionTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "idol_emotion_transitions_total",
			Help: "Committed emotion transitions by source and target state",
		},
		[]string{"from", "to"},
	)

	// EmotionSessions tracks live per-user emotion sessions.
	EmotionSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "idol_emotion_sessions_current",
			Help: "Number of live per-user emotion sessions",
		},
	)
)

// Chat metrics
var (
	// ChatRequestsTotal counts chat requests by outcome.
	ChatRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "idol_chat_requests_total",
			Help: "Chat requests by status",
		},
		[]string{"status"},
	)

	// LLMRequestDuration tracks generation latency in seconds.
	LLMRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "idol_llm_request_duration_seconds",
			Help:    "LLM generation latency in seconds",
			Buckets: []float64{.1, .25, .5, 1, 2, 5, 10, 30},
		},
		[]string{"provider", "status"},
	)
)

// Memory metrics
var (
	// MemoryOperationsTotal counts memory operations by operation and status.
	MemoryOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "idol_memory_operations_total",
			Help: "Memory operations by operation and status",
		},
		[]string{"operation", "status"},
	)

	// MemoryEntriesRemoved counts entries removed by trimming and expiry.
	MemoryEntriesRemoved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "idol_memory_entries_removed_total",
			Help: "Memory entries removed by reason",
		},
		[]string{"reason"},
	)
)

// Status returns the status label for err.
func Status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
