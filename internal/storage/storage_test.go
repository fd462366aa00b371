package storage

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/easeaico/project-idol/internal/emotion"
	"github.com/easeaico/project-idol/internal/types"
)

func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.Open("host=localhost user=idol dbname=idol sslmode=disable"), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
	})
	if err != nil {
		t.Fatalf("failed to open dry run db: %v", err)
	}
	return db
}

func TestMemoryEntryModelRoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	entry := types.MemoryEntry{
		UserID:    "u1",
		Content:   "明天去看演唱会",
		Tags:      []string{types.TagChat, "web"},
		Embedding: []float32{0.1, 0.2},
		CreatedAt: now,
	}

	model, err := memoryEntryToModel(entry)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if model.Role != types.RoleUser {
		t.Fatalf("expected default role %q, got %q", types.RoleUser, model.Role)
	}
	if string(model.Tags) != `["chat","web"]` {
		t.Fatalf("unexpected tags json: %s", model.Tags)
	}
	if model.Embedding == nil {
		t.Fatalf("expected embedding")
	}

	model.ID = 7
	back := memoryEntryFromModel(model)
	if back.ID != 7 || back.UserID != "u1" || back.Content != entry.Content {
		t.Fatalf("unexpected entry: %+v", back)
	}
	if len(back.Tags) != 2 || back.Tags[1] != "web" {
		t.Fatalf("unexpected tags: %v", back.Tags)
	}
	if len(back.Embedding) != 2 {
		t.Fatalf("expected embedding to survive, got %v", back.Embedding)
	}
}

func TestMemoryEntryModelWithoutEmbedding(t *testing.T) {
	model, err := memoryEntryToModel(types.MemoryEntry{UserID: "u1", Role: types.RoleAssistant, Content: "好呀"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if model.Embedding != nil {
		t.Fatalf("expected nil embedding")
	}
	if string(model.Tags) != "[]" {
		t.Fatalf("expected empty tag array, got %s", model.Tags)
	}
	if model.Role != types.RoleAssistant {
		t.Fatalf("expected assistant role, got %q", model.Role)
	}
}

func TestInteractionModelRoundTrip(t *testing.T) {
	entry := types.InteractionEntry{
		ID:           "6f1c",
		Timestamp:    time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC),
		EventType:    types.EventChat,
		Description:  "chat",
		EmotionState: "happy",
		Intensity:    0.8,
		UserID:       "u1",
		Data:         map[string]any{"platform": "web"},
	}
	model, err := interactionToModel(entry)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var data map[string]any
	if err := json.Unmarshal(model.Data, &data); err != nil {
		t.Fatalf("invalid data json: %v", err)
	}
	if data["platform"] != "web" {
		t.Fatalf("unexpected data: %v", data)
	}

	back := interactionFromModel(model)
	if back.ID != entry.ID || back.EmotionState != "happy" || back.Data["platform"] != "web" {
		t.Fatalf("unexpected entry: %+v", back)
	}
}

func TestSnapshotModelRoundTrip(t *testing.T) {
	snap := emotion.Snapshot{State: emotion.StateExcited, Mood: emotion.StateExcited, Intensity: 0.9}
	model := snapshotToModel("u1", snap)
	if model.UserID != "u1" || model.State != "excited" || model.Mood != "excited" {
		t.Fatalf("unexpected model: %+v", model)
	}
	if back := snapshotFromModel(model); back != snap {
		t.Fatalf("expected %+v, got %+v", snap, back)
	}
}

func TestListQuerySQL(t *testing.T) {
	db := dryRunDB(t)
	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		query, err := listQuery(tx, "u1", []string{types.TagChat}, 5)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var records []memoryEntryModel
		return query.Find(&records)
	})

	for _, want := range []string{"memory_entries", "tags @>", "ORDER BY created_at DESC, id DESC", "LIMIT 5"} {
		if !strings.Contains(sql, want) {
			t.Fatalf("expected %q in %s", want, sql)
		}
	}
}

func TestListQueryWithoutTags(t *testing.T) {
	db := dryRunDB(t)
	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		query, _ := listQuery(tx, "u1", nil, 0)
		var records []memoryEntryModel
		return query.Find(&records)
	})
	if strings.Contains(sql, "tags @>") || strings.Contains(sql, "LIMIT") {
		t.Fatalf("unexpected filter in %s", sql)
	}
}

func TestTrimQuerySQL(t *testing.T) {
	db := dryRunDB(t)
	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		return trimQuery(tx, "u1", 3).Delete(&memoryEntryModel{})
	})
	for _, want := range []string{"DELETE FROM", "NOT IN (SELECT id FROM", "LIMIT 3"} {
		if !strings.Contains(sql, want) {
			t.Fatalf("expected %q in %s", want, sql)
		}
	}
}

func TestInteractionQuerySQL(t *testing.T) {
	db := dryRunDB(t)
	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		var records []interactionLogModel
		return interactionQuery(tx, types.InteractionFilter{
			UserID:       "u1",
			EmotionState: "happy",
			Since:        time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
			Limit:        20,
		}).Find(&records)
	})

	for _, want := range []string{"interaction_logs", "user_id = 'u1'", "emotion_state = 'happy'", "timestamp >=", "ORDER BY timestamp DESC", "LIMIT 20"} {
		if !strings.Contains(sql, want) {
			t.Fatalf("expected %q in %s", want, sql)
		}
	}
	if strings.Contains(sql, "event_type =") {
		t.Fatalf("unexpected event_type filter in %s", sql)
	}
}
