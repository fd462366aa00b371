package emotion

import "fmt"

// State is a discrete emotional state.
type State string

const (
	StateNeutral   State = "neutral"
	StateHappy     State = "happy"
	StateExcited   State = "excited"
	StateSad       State = "sad"
	StateAngry     State = "angry"
	StateShy       State = "shy"
	StateConfident State = "confident"
)

var allStates = []State{
	StateNeutral,
	StateHappy,
	StateExcited,
	StateSad,
	StateAngry,
	StateShy,
	StateConfident,
}

// States returns every known state in declaration order.
func States() []State {
	out := make([]State, len(allStates))
	copy(out, allStates)
	return out
}

// Valid reports whether s is one of the fixed states.
func (s State) Valid() bool {
	for _, known := range allStates {
		if s == known {
			return true
		}
	}
	return false
}

func (s State) String() string {
	return string(s)
}

// ParseState converts a raw value into a State.
func ParseState(raw string) (State, error) {
	s := State(raw)
	if !s.Valid() {
		return "", fmt.Errorf("unknown emotion state: %q", raw)
	}
	return s, nil
}

// Well-known triggers used by the default table and the classifiers.
const (
	TriggerPositive = "positive_interaction"
	TriggerNegative = "negative_interaction"
	TriggerExciting = "exciting_event"
	TriggerComfort  = "comfort"
	TriggerNeutral  = "neutral"
)

// Transition is one candidate edge in the state graph.
type Transition struct {
	From        State          `json:"from_state"`
	To          State          `json:"to_state"`
	Trigger     string         `json:"trigger"`
	Probability float64        `json:"probability"`
	Conditions  map[string]any `json:"conditions,omitempty"`
}

// DefaultTransitions is the baseline transition set every machine starts with.
func DefaultTransitions() []Transition {
	return []Transition{
		{From: StateNeutral, To: StateHappy, Trigger: TriggerPositive, Probability: 0.8},
		{From: StateNeutral, To: StateSad, Trigger: TriggerNegative, Probability: 0.7},
		{From: StateHappy, To: StateExcited, Trigger: TriggerExciting, Probability: 0.6},
		{From: StateSad, To: StateNeutral, Trigger: TriggerComfort, Probability: 0.5},
	}
}

// Snapshot is the externally visible emotion of a session.
type Snapshot struct {
	State     State   `json:"state"`
	Mood      State   `json:"mood"`
	Intensity float64 `json:"intensity"`
}

// ClampIntensity bounds intensity to 0-1.
func ClampIntensity(v float64) float64 {
	switch {
	case v != v: // NaN
		return 0
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// Validate checks that both states are known and the probability is in [0,1].
func (t Transition) Validate() error {
	if !t.From.Valid() {
		return fmt.Errorf("unknown from_state: %q", t.From)
	}
	if !t.To.Valid() {
		return fmt.Errorf("unknown to_state: %q", t.To)
	}
	if t.Trigger == "" {
		return fmt.Errorf("trigger is required")
	}
	if t.Probability != t.Probability || t.Probability < 0 || t.Probability > 1 {
		return fmt.Errorf("probability must be between 0 and 1, got %v", t.Probability)
	}
	return nil
}
