package types

import "time"

const (
	// EventChat is logged for every handled chat turn.
	EventChat = "chat"
	// EventEmotionTransition is logged when a trigger commits a transition.
	EventEmotionTransition = "emotion_transition"
)

// InteractionEntry is one record of the persona's interaction log.
type InteractionEntry struct {
	ID           string         `json:"id"`
	Timestamp    time.Time      `json:"timestamp"`
	EventType    string         `json:"event_type"`
	Description  string         `json:"description"`
	EmotionState string         `json:"emotion_state"`
	Intensity    float64        `json:"intensity"`
	UserID       string         `json:"user_id,omitempty"`
	Data         map[string]any `json:"additional_data,omitempty"`
}

// InteractionFilter selects interaction log entries. Zero fields match everything.
type InteractionFilter struct {
	UserID       string
	EventType    string
	EmotionState string
	Since        time.Time
	Until        time.Time
	Limit        int
}

// Match reports whether e passes every set field of the filter.
func (f InteractionFilter) Match(e InteractionEntry) bool {
	switch {
	case f.UserID != "" && e.UserID != f.UserID:
		return false
	case f.EventType != "" && e.EventType != f.EventType:
		return false
	case f.EmotionState != "" && e.EmotionState != f.EmotionState:
		return false
	case !f.Since.IsZero() && e.Timestamp.Before(f.Since):
		return false
	case !f.Until.IsZero() && e.Timestamp.After(f.Until):
		return false
	}
	return true
}
