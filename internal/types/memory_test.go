package types

import (
	"testing"
	"time"
)

func TestMemoryEntryHasTags(t *testing.T) {
	m := MemoryEntry{Tags: []string{"chat", "web", "粉絲互動"}}

	if !m.HasTags(nil) {
		t.Fatalf("expected empty filter to match")
	}
	if !m.HasTags([]string{"chat", "粉絲互動"}) {
		t.Fatalf("expected subset to match")
	}
	if m.HasTags([]string{"chat", "discord"}) {
		t.Fatalf("expected missing tag to fail")
	}
}

func TestInteractionFilterMatch(t *testing.T) {
	ts := time.Date(2026, 5, 1, 20, 0, 0, 0, time.UTC)
	e := InteractionEntry{UserID: "u1", EventType: EventChat, EmotionState: "happy", Timestamp: ts}

	matching := []InteractionFilter{
		{},
		{UserID: "u1", EventType: EventChat, EmotionState: "happy"},
		{Since: ts, Until: ts},
		{Since: ts.Add(-time.Hour)},
	}
	for _, f := range matching {
		if !f.Match(e) {
			t.Fatalf("expected %+v to match", f)
		}
	}

	rejecting := []InteractionFilter{
		{UserID: "u2"},
		{EventType: EventEmotionTransition},
		{EmotionState: "sad"},
		{Since: ts.Add(time.Second)},
		{Until: ts.Add(-time.Second)},
	}
	for _, f := range rejecting {
		if f.Match(e) {
			t.Fatalf("expected %+v to reject", f)
		}
	}
}
