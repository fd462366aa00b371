package metrics

import "github.com/easeaico/project-idol/internal/emotion"

// EmotionSink records FSM evaluation events.
type EmotionSink struct{}

var _ emotion.EventSink = EmotionSink{}

func (EmotionSink) Emit(e emotion.Event) {
	EmotionFireTotal.WithLabelValues(string(e.Kind)).Inc()
	if e.Kind == emotion.EventCommitted {
		EmotionTransitionsTotal.WithLabelValues(string(e.From), string(e.To)).Inc()
	}
}
