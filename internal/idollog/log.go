// Package idollog keeps a bounded in-process log of persona interactions.
package idollog

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/easeaico/project-idol/internal/types"
)

// DefaultMaxEntries is used when no positive bound is configured.
const DefaultMaxEntries = 1000

// Persister writes entries through to durable storage.
type Persister interface {
	SaveInteraction(ctx context.Context, entry types.InteractionEntry) error
}

// Log is a bounded, append-only interaction log. The oldest entry is evicted
// once the bound is reached.
type Log struct {
	mu         sync.RWMutex
	entries    []types.InteractionEntry
	maxEntries int
	clock      clockwork.Clock
	persister  Persister
}

// New returns a Log. persister may be nil.
func New(maxEntries int, clock clockwork.Clock, persister Persister) *Log {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Log{
		entries:    make([]types.InteractionEntry, 0, min(maxEntries, 64)),
		maxEntries: maxEntries,
		clock:      clock,
		persister:  persister,
	}
}

// Add stamps entry with an id and timestamp and appends it.
// A persister failure is returned, but the entry stays in the log.
func (l *Log) Add(ctx context.Context, entry types.InteractionEntry) (types.InteractionEntry, error) {
	entry.ID = uuid.NewString()
	entry.Timestamp = l.clock.Now()

	l.mu.Lock()
	l.entries = append(l.entries, entry)
	if over := len(l.entries) - l.maxEntries; over > 0 {
		l.entries = append(l.entries[:0:0], l.entries[over:]...)
	}
	l.mu.Unlock()

	slog.Debug("interaction logged", "event_type", entry.EventType, "description", entry.Description, "emotion", entry.EmotionState)

	if l.persister != nil {
		if err := l.persister.SaveInteraction(ctx, entry); err != nil {
			return entry, fmt.Errorf("failed to persist interaction: %w", err)
		}
	}
	return entry, nil
}

// Recent returns up to limit of the newest entries, oldest first.
func (l *Log) Recent(limit int) []types.InteractionEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if limit <= 0 {
		return nil
	}
	start := max(len(l.entries)-limit, 0)
	return append([]types.InteractionEntry(nil), l.entries[start:]...)
}

// ByType returns entries with the given event type.
func (l *Log) ByType(eventType string) []types.InteractionEntry {
	return l.filter(func(e types.InteractionEntry) bool { return e.EventType == eventType })
}

// ByEmotion returns entries recorded in the given emotion state.
func (l *Log) ByEmotion(state string) []types.InteractionEntry {
	return l.filter(func(e types.InteractionEntry) bool { return e.EmotionState == state })
}

// ByDateRange returns entries with start <= timestamp <= end.
func (l *Log) ByDateRange(start, end time.Time) []types.InteractionEntry {
	return l.filter(func(e types.InteractionEntry) bool {
		return !e.Timestamp.Before(start) && !e.Timestamp.After(end)
	})
}

// Search returns entries matching f, newest first, bounded by f.Limit.
func (l *Log) Search(f types.InteractionFilter) []types.InteractionEntry {
	var candidates []types.InteractionEntry
	switch {
	case !f.Since.IsZero() || !f.Until.IsZero():
		until := f.Until
		if until.IsZero() {
			until = l.clock.Now()
		}
		candidates = l.ByDateRange(f.Since, until)
	case f.EventType != "":
		candidates = l.ByType(f.EventType)
	case f.EmotionState != "":
		candidates = l.ByEmotion(f.EmotionState)
	default:
		candidates = l.Recent(l.Len())
	}

	out := make([]types.InteractionEntry, 0, len(candidates))
	for i := len(candidates) - 1; i >= 0; i-- {
		if !f.Match(candidates[i]) {
			continue
		}
		out = append(out, candidates[i])
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out
}

// Len returns the number of entries held.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Clear drops every entry.
func (l *Log) Clear() {
	l.mu.Lock()
	l.entries = l.entries[:0]
	l.mu.Unlock()
	slog.Info("interaction log cleared")
}

func (l *Log) filter(keep func(types.InteractionEntry) bool) []types.InteractionEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []types.InteractionEntry
	for _, e := range l.entries {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}
