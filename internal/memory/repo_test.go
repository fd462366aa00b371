package memory

import (
	"context"
	"testing"
	"time"

	"github.com/easeaico/project-idol/internal/types"
)

func TestInMemoryRepoListLimit(t *testing.T) {
	repo := NewInMemoryRepo()
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 4; i++ {
		if _, err := repo.Add(ctx, types.MemoryEntry{UserID: "u", Content: string(rune('a' + i)), CreatedAt: base.Add(time.Duration(i) * time.Minute)}); err != nil {
			t.Fatalf("Add returned error: %v", err)
		}
	}

	entries, err := repo.List(ctx, "u", nil, 2)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(entries) != 2 || entries[0].Content != "d" || entries[1].Content != "c" {
		t.Fatalf("unexpected entries: %+v", entries)
	}
}

func TestInMemoryRepoTrimKeepsNewest(t *testing.T) {
	repo := NewInMemoryRepo()
	ctx := context.Background()
	now := time.Now()

	for i := 0; i < 3; i++ {
		_, _ = repo.Add(ctx, types.MemoryEntry{UserID: "u", Content: string(rune('a' + i)), CreatedAt: now})
	}

	removed, err := repo.Trim(ctx, "u", 1)
	if err != nil {
		t.Fatalf("Trim returned error: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 removed, got %d", removed)
	}
	entries, _ := repo.List(ctx, "u", nil, 0)
	if len(entries) != 1 || entries[0].Content != "c" {
		t.Fatalf("expected last inserted entry kept on timestamp tie, got %+v", entries)
	}
}

func TestInMemoryRepoSearchSimilar(t *testing.T) {
	repo := NewInMemoryRepo()
	ctx := context.Background()

	_, _ = repo.Add(ctx, types.MemoryEntry{UserID: "u", Content: "close", Embedding: []float32{1, 0.1}})
	_, _ = repo.Add(ctx, types.MemoryEntry{UserID: "u", Content: "exact", Embedding: []float32{1, 0}})
	_, _ = repo.Add(ctx, types.MemoryEntry{UserID: "u", Content: "far", Embedding: []float32{0, 1}})
	_, _ = repo.Add(ctx, types.MemoryEntry{UserID: "v", Content: "other user", Embedding: []float32{1, 0}})

	results, err := repo.SearchSimilar(ctx, "u", []float32{1, 0}, 5, 0.5)
	if err != nil {
		t.Fatalf("SearchSimilar returned error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Content != "exact" || results[1].Content != "close" {
		t.Fatalf("expected results ordered by similarity, got %+v", results)
	}

	top1, _ := repo.SearchSimilar(ctx, "u", []float32{1, 0}, 1, 0.5)
	if len(top1) != 1 {
		t.Fatalf("expected topK to bound results, got %d", len(top1))
	}
}

func TestFitDimensions(t *testing.T) {
	long := make([]float32, EmbeddingDimensions+10)
	got, err := fitDimensions(long, "test")
	if err != nil || len(got) != EmbeddingDimensions {
		t.Fatalf("expected truncation, got %d/%v", len(got), err)
	}
	if _, err := fitDimensions(make([]float32, 10), "test"); err == nil {
		t.Fatalf("expected error for short embedding")
	}
}
