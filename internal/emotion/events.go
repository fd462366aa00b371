package emotion

import (
	"context"
	"log/slog"
)

// EventKind classifies one step of trigger evaluation.
type EventKind string

const (
	EventNoTransitions       EventKind = "no_transitions"
	EventGuardRejected       EventKind = "guard_rejected"
	EventProbabilityRejected EventKind = "probability_rejected"
	EventCommitted           EventKind = "committed"
	EventNoMatch             EventKind = "no_match"
)

// Event describes what happened while evaluating a trigger.
// To is the candidate target for rejections and the new state for commits.
type Event struct {
	Kind        EventKind
	Trigger     string
	From        State
	To          State
	Sample      float64
	Probability float64
}

// EventSink receives evaluation events.
type EventSink interface {
	Emit(Event)
}

type nopSink struct{}

func (nopSink) Emit(Event) {}

// MultiSink fans events out to several sinks.
type MultiSink []EventSink

func (m MultiSink) Emit(e Event) {
	for _, sink := range m {
		if sink != nil {
			sink.Emit(e)
		}
	}
}

// LogSink writes events to a slog logger.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink returns a LogSink; a nil logger uses slog.Default.
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Emit(e Event) {
	level := slog.LevelDebug
	switch e.Kind {
	case EventNoTransitions:
		level = slog.LevelWarn
	case EventCommitted:
		level = slog.LevelInfo
	}
	s.logger.Log(context.Background(), level, "emotion trigger evaluated",
		"kind", string(e.Kind),
		"trigger", e.Trigger,
		"from", string(e.From),
		"to", string(e.To),
		"sample", e.Sample,
		"probability", e.Probability,
	)
}
