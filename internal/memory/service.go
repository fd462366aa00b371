package memory

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/easeaico/project-idol/internal/metrics"
	"github.com/easeaico/project-idol/internal/types"
)

// Config bounds the memory log.
type Config struct {
	MaxPerUser          int
	ExpiryDays          int
	TopK                int
	SimilarityThreshold float64
}

// Service manages per-user memory logs.
type Service struct {
	repo     Repo
	embedder Embedder
	clock    clockwork.Clock
	cfg      Config
}

// NewService returns a memory service. embedder may be nil, which disables Search.
func NewService(repo Repo, embedder Embedder, clock clockwork.Clock, cfg Config) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Service{
		repo:     repo,
		embedder: embedder,
		clock:    clock,
		cfg:      cfg,
	}
}

// Store records a user message.
func (s *Service) Store(ctx context.Context, userID, content string, tags []string) (types.MemoryEntry, error) {
	return s.add(ctx, userID, types.RoleUser, content, tags)
}

// StoreReply records a persona reply.
func (s *Service) StoreReply(ctx context.Context, userID, content string, tags []string) (types.MemoryEntry, error) {
	return s.add(ctx, userID, types.RoleAssistant, content, tags)
}

func (s *Service) add(ctx context.Context, userID, role, content string, tags []string) (types.MemoryEntry, error) {
	if strings.TrimSpace(userID) == "" {
		return types.MemoryEntry{}, fmt.Errorf("user id is required")
	}

	now := s.clock.Now().UTC()
	entry := types.MemoryEntry{
		UserID:    userID,
		Role:      role,
		Content:   content,
		Tags:      tags,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if s.embedder != nil {
		vec, err := s.embedder.EmbedDocument(ctx, content)
		if err != nil {
			slog.Warn("failed to embed memory, storing without embedding", "user_id", userID, "error", err.Error())
		} else {
			entry.Embedding = vec
		}
	}

	saved, err := s.repo.Add(ctx, entry)
	metrics.MemoryOperationsTotal.WithLabelValues("store", metrics.Status(err)).Inc()
	if err != nil {
		return types.MemoryEntry{}, fmt.Errorf("failed to store memory: %w", err)
	}

	if s.cfg.MaxPerUser > 0 {
		removed, err := s.repo.Trim(ctx, userID, s.cfg.MaxPerUser)
		if err != nil {
			slog.Warn("failed to trim memories", "user_id", userID, "error", err.Error())
		} else if removed > 0 {
			metrics.MemoryEntriesRemoved.WithLabelValues("trim").Add(float64(removed))
		}
	}
	return saved, nil
}

// Get returns the user's memories carrying all tags, newest first,
// bounded by MaxPerUser.
func (s *Service) Get(ctx context.Context, userID string, tags []string) ([]types.MemoryEntry, error) {
	entries, err := s.repo.List(ctx, userID, tags, s.cfg.MaxPerUser)
	metrics.MemoryOperationsTotal.WithLabelValues("get", metrics.Status(err)).Inc()
	if err != nil {
		return nil, fmt.Errorf("failed to get memories: %w", err)
	}
	return entries, nil
}

// Cleanup removes memories older than ExpiryDays.
func (s *Service) Cleanup(ctx context.Context) (int64, error) {
	if s.cfg.ExpiryDays <= 0 {
		return 0, nil
	}
	cutoff := s.clock.Now().UTC().AddDate(0, 0, -s.cfg.ExpiryDays)
	removed, err := s.repo.DeleteBefore(ctx, cutoff)
	metrics.MemoryOperationsTotal.WithLabelValues("cleanup", metrics.Status(err)).Inc()
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup memories: %w", err)
	}
	if removed > 0 {
		metrics.MemoryEntriesRemoved.WithLabelValues("expired").Add(float64(removed))
	}
	return removed, nil
}

// Search returns memories semantically related to query.
// Without an embedder it returns nil.
func (s *Service) Search(ctx context.Context, userID, query string) ([]types.RetrievedMemory, error) {
	if s.embedder == nil || strings.TrimSpace(query) == "" {
		return nil, nil
	}

	vec, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	results, err := s.repo.SearchSimilar(ctx, userID, vec, s.cfg.TopK, s.cfg.SimilarityThreshold)
	metrics.MemoryOperationsTotal.WithLabelValues("search", metrics.Status(err)).Inc()
	if err != nil {
		return nil, fmt.Errorf("failed to search memories: %w", err)
	}
	return results, nil
}

// RunCleanup calls Cleanup every interval until ctx is done.
func (s *Service) RunCleanup(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := s.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			removed, err := s.Cleanup(ctx)
			if err != nil {
				slog.Error("memory cleanup failed", "error", err.Error())
				continue
			}
			slog.Info("memory cleanup finished", "removed", removed)
		}
	}
}
