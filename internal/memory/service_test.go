package memory

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/easeaico/project-idol/internal/types"
)

type mockEmbedder struct {
	queryVec    []float32
	documentVec []float32
	err         error
	documents   []string
}

func (m *mockEmbedder) EmbedQuery(_ context.Context, _ string) ([]float32, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.queryVec, nil
}

func (m *mockEmbedder) EmbedDocument(_ context.Context, text string) ([]float32, error) {
	m.documents = append(m.documents, text)
	if m.err != nil {
		return nil, m.err
	}
	return m.documentVec, nil
}

func newTestService(maxPerUser int, embedder Embedder) (*Service, *InMemoryRepo, *clockwork.FakeClock) {
	repo := NewInMemoryRepo()
	clock := clockwork.NewFakeClockAt(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	svc := NewService(repo, embedder, clock, Config{
		MaxPerUser:          maxPerUser,
		ExpiryDays:          30,
		TopK:                3,
		SimilarityThreshold: 0.5,
	})
	return svc, repo, clock
}

func TestServiceStoreAndGet(t *testing.T) {
	svc, _, clock := newTestService(100, nil)
	ctx := context.Background()

	if _, err := svc.Store(ctx, "user-1", "你好", []string{"chat", "web"}); err != nil {
		t.Fatalf("Store returned error: %v", err)
	}
	clock.Advance(time.Minute)
	reply, err := svc.StoreReply(ctx, "user-1", "嗨嗨！", []string{"chat", "reply"})
	if err != nil {
		t.Fatalf("StoreReply returned error: %v", err)
	}
	if reply.Role != types.RoleAssistant || reply.ID == 0 {
		t.Fatalf("unexpected reply entry: %+v", reply)
	}

	entries, err := svc.Get(ctx, "user-1", nil)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Content != "嗨嗨！" {
		t.Fatalf("expected newest first, got %q", entries[0].Content)
	}

	tagged, _ := svc.Get(ctx, "user-1", []string{"chat", "web"})
	if len(tagged) != 1 || tagged[0].Role != types.RoleUser {
		t.Fatalf("expected tag filter to require all tags, got %+v", tagged)
	}

	other, _ := svc.Get(ctx, "user-2", nil)
	if len(other) != 0 {
		t.Fatalf("expected no memories for other user, got %d", len(other))
	}
}

func TestServiceStoreRequiresUser(t *testing.T) {
	svc, _, _ := newTestService(10, nil)
	if _, err := svc.Store(context.Background(), " ", "hi", nil); err == nil {
		t.Fatalf("expected error for empty user id")
	}
}

func TestServiceTrimsToMaxPerUser(t *testing.T) {
	svc, repo, clock := newTestService(3, nil)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := svc.Store(ctx, "user-1", fmt.Sprintf("msg-%d", i), []string{"chat"}); err != nil {
			t.Fatalf("Store returned error: %v", err)
		}
		clock.Advance(time.Second)
	}
	if _, err := svc.Store(ctx, "user-2", "other", nil); err != nil {
		t.Fatalf("Store returned error: %v", err)
	}

	entries, _ := repo.List(ctx, "user-1", nil, 0)
	if len(entries) != 3 {
		t.Fatalf("expected 3 retained entries, got %d", len(entries))
	}
	if entries[0].Content != "msg-4" || entries[2].Content != "msg-2" {
		t.Fatalf("expected newest entries retained, got %q..%q", entries[0].Content, entries[2].Content)
	}
	if others, _ := repo.List(ctx, "user-2", nil, 0); len(others) != 1 {
		t.Fatalf("expected other user untouched, got %d", len(others))
	}
}

func TestServiceCleanupRemovesExpired(t *testing.T) {
	svc, repo, clock := newTestService(100, nil)
	ctx := context.Background()

	if _, err := svc.Store(ctx, "user-1", "old", nil); err != nil {
		t.Fatalf("Store returned error: %v", err)
	}
	clock.Advance(31 * 24 * time.Hour)
	if _, err := svc.Store(ctx, "user-1", "fresh", nil); err != nil {
		t.Fatalf("Store returned error: %v", err)
	}

	removed, err := svc.Cleanup(ctx)
	if err != nil {
		t.Fatalf("Cleanup returned error: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
	entries, _ := repo.List(ctx, "user-1", nil, 0)
	if len(entries) != 1 || entries[0].Content != "fresh" {
		t.Fatalf("unexpected remaining entries: %+v", entries)
	}
}

func TestServiceSearch(t *testing.T) {
	embedder := &mockEmbedder{documentVec: []float32{1, 0}, queryVec: []float32{1, 0}}
	svc, _, _ := newTestService(100, embedder)
	ctx := context.Background()

	if _, err := svc.Store(ctx, "user-1", "喜歡草莓蛋糕", nil); err != nil {
		t.Fatalf("Store returned error: %v", err)
	}
	embedder.documentVec = []float32{0, 1}
	if _, err := svc.Store(ctx, "user-1", "今天下雨", nil); err != nil {
		t.Fatalf("Store returned error: %v", err)
	}

	results, err := svc.Search(ctx, "user-1", "甜點")
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if len(results) != 1 || results[0].Content != "喜歡草莓蛋糕" {
		t.Fatalf("unexpected search results: %+v", results)
	}
	if len(embedder.documents) != 2 {
		t.Fatalf("expected documents to be embedded, got %d", len(embedder.documents))
	}
}

func TestServiceSearchWithoutEmbedder(t *testing.T) {
	svc, _, _ := newTestService(100, nil)
	results, err := svc.Search(context.Background(), "user-1", "anything")
	if err != nil || results != nil {
		t.Fatalf("expected nil results, got %v/%v", results, err)
	}
}

func TestServiceStoreSurvivesEmbedFailure(t *testing.T) {
	svc, _, _ := newTestService(100, &mockEmbedder{err: errors.New("quota")})
	entry, err := svc.Store(context.Background(), "user-1", "hi", nil)
	if err != nil {
		t.Fatalf("expected store to succeed, got %v", err)
	}
	if entry.Embedding != nil {
		t.Fatalf("expected no embedding, got %v", entry.Embedding)
	}
}

func TestServiceRunCleanup(t *testing.T) {
	svc, repo, clock := newTestService(100, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if _, err := svc.Store(ctx, "user-1", "old", nil); err != nil {
		t.Fatalf("Store returned error: %v", err)
	}
	clock.Advance(31 * 24 * time.Hour)

	done := make(chan struct{})
	go func() {
		svc.RunCleanup(ctx, time.Hour)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for {
		entries, _ := repo.List(context.Background(), "user-1", nil, 0)
		if len(entries) == 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("cleanup loop never ran")
		}
		clock.Advance(time.Hour)
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	<-done
}
