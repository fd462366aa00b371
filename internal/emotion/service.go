package emotion

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"
)

// Session pairs a Machine with a Tracker and serializes access to both.
type Session struct {
	mu      sync.Mutex
	machine *Machine
	tracker *Tracker
}

// NewSession returns a session owning a new machine built from opts.
func NewSession(tracker *Tracker, opts ...Option) *Session {
	if tracker == nil {
		tracker = NewTracker(StateNeutral, 0.1)
	}
	return &Session{
		machine: NewMachine(opts...),
		tracker: tracker,
	}
}

// Fire evaluates trigger and returns whether a transition committed together
// with the resulting snapshot.
func (s *Session) Fire(trigger string, ctx map[string]any) (bool, Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ok := s.machine.Fire(trigger, ctx)
	return ok, s.snapshotLocked()
}

// FireAndSet evaluates trigger and, when a transition commits, sets the
// tracker to the new state at intensity. Both happen under one lock.
// from is the state the trigger was evaluated in.
func (s *Session) FireAndSet(trigger string, ctx map[string]any, intensity float64) (committed bool, from State, snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	from = s.machine.CurrentState()
	committed = s.machine.Fire(trigger, ctx)
	if committed {
		s.tracker.Set(s.machine.CurrentState(), intensity)
	}
	return committed, from, s.snapshotLocked()
}

// Set updates the intensity tracker.
func (s *Session) Set(mood State, intensity float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracker.Set(mood, intensity)
}

// Decay steps the tracker by rate.
func (s *Session) Decay(rate float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracker.Decay(rate)
}

// Step decays the tracker by its configured rate.
func (s *Session) Step() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracker.Step()
}

// RegisterTransition adds a transition to this session's machine.
func (s *Session) RegisterTransition(t Transition) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.machine.RegisterTransition(t)
}

// Transitions lists the machine's transitions leaving from.
func (s *Session) Transitions(from State) []Transition {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.Transitions(from)
}

// Snapshot returns the current state, mood and intensity.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Restore overwrites the session with a persisted snapshot.
func (s *Session) Restore(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if snap.State.Valid() {
		s.machine.current = snap.State
	}
	if snap.Mood.Valid() {
		s.tracker.mood = snap.Mood
	}
	s.tracker.intensity = ClampIntensity(snap.Intensity)
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{
		State:     s.machine.CurrentState(),
		Mood:      s.tracker.Mood(),
		Intensity: s.tracker.Intensity(),
	}
}

// SnapshotStore persists session snapshots per user.
type SnapshotStore interface {
	Load(ctx context.Context, userID string) (Snapshot, bool, error)
	Save(ctx context.Context, userID string, snap Snapshot) error
}

// Registry owns one Session per user.
type Registry struct {
	mu         sync.Mutex
	sessions   map[string]*Session
	loads      singleflight.Group
	newSession func() *Session
	store      SnapshotStore
	clock      clockwork.Clock
}

// NewRegistry returns a Registry. store may be nil.
func NewRegistry(newSession func() *Session, store SnapshotStore, clock clockwork.Clock) *Registry {
	if newSession == nil {
		newSession = func() *Session { return NewSession(nil) }
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Registry{
		sessions:   make(map[string]*Session),
		newSession: newSession,
		store:      store,
		clock:      clock,
	}
}

// Get returns the user's session, creating and restoring it on first use.
// Snapshot loads run outside the registry lock; concurrent first calls for
// one user share a single load.
func (r *Registry) Get(ctx context.Context, userID string) *Session {
	if s, ok := r.lookup(userID); ok {
		return s
	}

	v, _, _ := r.loads.Do(userID, func() (any, error) {
		if s, ok := r.lookup(userID); ok {
			return s, nil
		}

		s := r.newSession()
		if r.store != nil {
			snap, found, err := r.store.Load(ctx, userID)
			if err != nil {
				slog.Warn("failed to load emotion snapshot", "user_id", userID, "error", err.Error())
			} else if found {
				s.Restore(snap)
			}
		}

		r.mu.Lock()
		defer r.mu.Unlock()
		if existing, ok := r.sessions[userID]; ok {
			return existing, nil
		}
		r.sessions[userID] = s
		return s, nil
	})
	return v.(*Session)
}

func (r *Registry) lookup(userID string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[userID]
	return s, ok
}

// Save persists the session's snapshot when a store is configured.
func (r *Registry) Save(ctx context.Context, userID string, s *Session) error {
	if r.store == nil || s == nil {
		return nil
	}
	return r.store.Save(ctx, userID, s.Snapshot())
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// DecayAll steps every session's tracker once.
func (r *Registry) DecayAll() int {
	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.mu.Unlock()

	for _, s := range sessions {
		s.Step()
	}
	return len(sessions)
}

// RunDecay calls DecayAll every interval until ctx is done.
func (r *Registry) RunDecay(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := r.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			n := r.DecayAll()
			slog.Debug("emotion decay tick", "sessions", n)
		}
	}
}
