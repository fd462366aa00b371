package emotion

import "reflect"

// Machine is the emotion finite-state machine.
// It is not safe for concurrent use; see Session.
type Machine struct {
	current State
	table   map[State][]Transition
	sampler Sampler
	sink    EventSink
}

// Option configures a Machine.
type Option func(*Machine)

// WithInitialState sets the starting state. Unknown states are ignored.
func WithInitialState(s State) Option {
	return func(m *Machine) {
		if s.Valid() {
			m.current = s
		}
	}
}

// WithTransitions replaces the default table.
func WithTransitions(transitions []Transition) Option {
	return func(m *Machine) {
		m.table = buildTable(transitions)
	}
}

// WithSampler injects the probability source.
func WithSampler(s Sampler) Option {
	return func(m *Machine) {
		if s != nil {
			m.sampler = s
		}
	}
}

// WithEventSink injects the observability sink.
func WithEventSink(sink EventSink) Option {
	return func(m *Machine) {
		if sink != nil {
			m.sink = sink
		}
	}
}

// NewMachine returns a Machine in the neutral state seeded with DefaultTransitions.
func NewMachine(opts ...Option) *Machine {
	m := &Machine{
		current: StateNeutral,
		table:   buildTable(DefaultTransitions()),
		sampler: globalSampler{},
		sink:    nopSink{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func buildTable(transitions []Transition) map[State][]Transition {
	table := make(map[State][]Transition)
	for _, t := range transitions {
		table[t.From] = append(table[t.From], t)
	}
	return table
}

// RegisterTransition appends t to the bucket of t.From.
func (m *Machine) RegisterTransition(t Transition) {
	m.table[t.From] = append(m.table[t.From], t)
}

// CurrentState returns the current state.
func (m *Machine) CurrentState() State {
	return m.current
}

// Transitions returns a copy of the bucket for from.
func (m *Machine) Transitions(from State) []Transition {
	bucket := m.table[from]
	out := make([]Transition, len(bucket))
	copy(out, bucket)
	return out
}

// Fire evaluates trigger against the current state's transitions.
// The first candidate that passes its guard and the probability gate is committed.
// It returns true if the state was (re)asserted by a transition.
func (m *Machine) Fire(trigger string, ctx map[string]any) bool {
	from := m.current
	bucket, ok := m.table[from]
	if !ok || len(bucket) == 0 {
		m.sink.Emit(Event{Kind: EventNoTransitions, Trigger: trigger, From: from})
		return false
	}

	for _, t := range bucket {
		if t.Trigger != trigger {
			continue
		}
		if !conditionsMet(t.Conditions, ctx) {
			m.sink.Emit(Event{Kind: EventGuardRejected, Trigger: trigger, From: from, To: t.To, Probability: t.Probability})
			continue
		}

		sample := m.sampler.Float64()
		if sample >= t.Probability {
			m.sink.Emit(Event{Kind: EventProbabilityRejected, Trigger: trigger, From: from, To: t.To, Sample: sample, Probability: t.Probability})
			continue
		}

		m.current = t.To
		m.sink.Emit(Event{Kind: EventCommitted, Trigger: trigger, From: from, To: t.To, Sample: sample, Probability: t.Probability})
		return true
	}

	m.sink.Emit(Event{Kind: EventNoMatch, Trigger: trigger, From: from})
	return false
}

// conditionsMet treats nil and empty conditions alike.
func conditionsMet(conditions, ctx map[string]any) bool {
	if len(conditions) == 0 {
		return true
	}
	if ctx == nil {
		return false
	}
	for key, want := range conditions {
		got, ok := ctx[key]
		if !ok || !reflect.DeepEqual(got, want) {
			return false
		}
	}
	return true
}
