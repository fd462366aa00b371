package memory

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/easeaico/project-idol/internal/types"
)

// Repo persists memory entries.
type Repo interface {
	// Add stores entry and returns it with its assigned ID.
	Add(ctx context.Context, entry types.MemoryEntry) (types.MemoryEntry, error)
	// List returns the user's entries carrying all tags, newest first.
	// A limit <= 0 means no limit.
	List(ctx context.Context, userID string, tags []string, limit int) ([]types.MemoryEntry, error)
	// DeleteBefore removes entries created before cutoff.
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
	// Trim keeps only the user's newest keep entries.
	Trim(ctx context.Context, userID string, keep int) (int64, error)
	SearchSimilar(ctx context.Context, userID string, embedding []float32, topK int, threshold float64) ([]types.RetrievedMemory, error)
}

// InMemoryRepo is a Repo kept in process memory.
type InMemoryRepo struct {
	mu      sync.RWMutex
	entries []types.MemoryEntry
	nextID  int
}

var _ Repo = (*InMemoryRepo)(nil)

// NewInMemoryRepo returns an empty InMemoryRepo.
func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{nextID: 1}
}

func (r *InMemoryRepo) Add(_ context.Context, entry types.MemoryEntry) (types.MemoryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry.ID = r.nextID
	r.nextID++
	entry.Tags = append([]string(nil), entry.Tags...)
	r.entries = append(r.entries, entry)
	return entry, nil
}

func (r *InMemoryRepo) List(_ context.Context, userID string, tags []string, limit int) ([]types.MemoryEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	results := make([]types.MemoryEntry, 0)
	for _, entry := range r.entries {
		if entry.UserID == userID && entry.HasTags(tags) {
			results = append(results, entry)
		}
	}
	sortNewestFirst(results)
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (r *InMemoryRepo) DeleteBefore(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.entries[:0]
	var removed int64
	for _, entry := range r.entries {
		if entry.CreatedAt.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, entry)
	}
	r.entries = kept
	return removed, nil
}

func (r *InMemoryRepo) Trim(_ context.Context, userID string, keep int) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	owned := make([]types.MemoryEntry, 0)
	for _, entry := range r.entries {
		if entry.UserID == userID {
			owned = append(owned, entry)
		}
	}
	if len(owned) <= keep {
		return 0, nil
	}
	sortNewestFirst(owned)
	drop := make(map[int]struct{}, len(owned)-keep)
	for _, entry := range owned[keep:] {
		drop[entry.ID] = struct{}{}
	}

	kept := r.entries[:0]
	for _, entry := range r.entries {
		if _, ok := drop[entry.ID]; ok {
			continue
		}
		kept = append(kept, entry)
	}
	r.entries = kept
	return int64(len(drop)), nil
}

func (r *InMemoryRepo) SearchSimilar(_ context.Context, userID string, embedding []float32, topK int, threshold float64) ([]types.RetrievedMemory, error) {
	if len(embedding) == 0 {
		return nil, nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var results []types.RetrievedMemory
	for _, entry := range r.entries {
		if entry.UserID != userID || len(entry.Embedding) != len(embedding) {
			continue
		}
		sim := cosineSimilarity(entry.Embedding, embedding)
		if sim <= threshold {
			continue
		}
		results = append(results, types.RetrievedMemory{
			Content:    entry.Content,
			Role:       entry.Role,
			Similarity: sim,
			CreatedAt:  entry.CreatedAt,
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// sortNewestFirst orders by creation time, breaking ties by insertion order.
func sortNewestFirst(entries []types.MemoryEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].ID > entries[j].ID
		}
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
}

func cosineSimilarity(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
