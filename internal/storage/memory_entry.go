package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"

	"github.com/easeaico/project-idol/internal/memory"
	"github.com/easeaico/project-idol/internal/types"
)

// memoryEntryModel maps to the memory_entries table.
type memoryEntryModel struct {
	ID      int    `gorm:"primaryKey"`
	UserID  string `gorm:"index;not null"`
	Role    string `gorm:"not null;default:user"`
	Content string `gorm:"not null"`
	// Tags are stored as a JSONB array and filtered with @>.
	Tags      json.RawMessage  `gorm:"type:jsonb"`
	Embedding *pgvector.Vector `gorm:"type:vector(768)"`
	CreatedAt time.Time        `gorm:"index"`
	UpdatedAt time.Time
}

func (memoryEntryModel) TableName() string {
	return "memory_entries"
}

// MemoryRepo accesses memory entries.
type MemoryRepo struct {
	db *gorm.DB
}

var _ memory.Repo = (*MemoryRepo)(nil)

// NewMemoryRepo returns a MemoryRepo.
func NewMemoryRepo(db *gorm.DB) *MemoryRepo {
	return &MemoryRepo{db: db}
}

func (r *MemoryRepo) Add(ctx context.Context, entry types.MemoryEntry) (types.MemoryEntry, error) {
	record, err := memoryEntryToModel(entry)
	if err != nil {
		return types.MemoryEntry{}, err
	}
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		return types.MemoryEntry{}, fmt.Errorf("failed to insert memory entry: %w", err)
	}
	entry.ID = record.ID
	entry.CreatedAt = record.CreatedAt
	entry.UpdatedAt = record.UpdatedAt
	return entry, nil
}

func (r *MemoryRepo) List(ctx context.Context, userID string, tags []string, limit int) ([]types.MemoryEntry, error) {
	query, err := listQuery(r.db.WithContext(ctx), userID, tags, limit)
	if err != nil {
		return nil, err
	}

	var records []memoryEntryModel
	if err := query.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to query memory entries: %w", err)
	}

	results := make([]types.MemoryEntry, 0, len(records))
	for _, record := range records {
		results = append(results, memoryEntryFromModel(record))
	}
	return results, nil
}

func listQuery(db *gorm.DB, userID string, tags []string, limit int) (*gorm.DB, error) {
	query := db.Model(&memoryEntryModel{}).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC")
	if len(tags) > 0 {
		raw, err := json.Marshal(tags)
		if err != nil {
			return nil, fmt.Errorf("failed to encode tag filter: %w", err)
		}
		query = query.Where("tags @> ?::jsonb", string(raw))
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	return query, nil
}

func (r *MemoryRepo) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&memoryEntryModel{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete expired memories: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *MemoryRepo) Trim(ctx context.Context, userID string, keep int) (int64, error) {
	db := r.db.WithContext(ctx)
	result := trimQuery(db, userID, keep).Delete(&memoryEntryModel{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to trim memories: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func trimQuery(db *gorm.DB, userID string, keep int) *gorm.DB {
	newest := db.Model(&memoryEntryModel{}).
		Select("id").
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(keep)
	return db.Where("user_id = ? AND id NOT IN (?)", userID, newest)
}

func (r *MemoryRepo) SearchSimilar(ctx context.Context, userID string, embedding []float32, topK int, threshold float64) ([]types.RetrievedMemory, error) {
	if len(embedding) == 0 {
		return nil, nil
	}
	if topK <= 0 {
		topK = 5
	}

	vec := pgvector.NewVector(embedding)
	var results []types.RetrievedMemory
	if err := r.db.WithContext(ctx).
		Raw(similarQuery, vec, userID, vec, threshold, topK).
		Scan(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to search similar memories: %w", err)
	}
	return results, nil
}

// similarQuery ranks by cosine similarity.
const similarQuery = `
	SELECT * FROM (
		SELECT role, content, created_at, 1 - (embedding <=> ?) AS similarity
		FROM memory_entries
		WHERE embedding IS NOT NULL AND user_id = ?
		ORDER BY embedding <=> ?
	) ranked
	WHERE similarity > ?
	LIMIT ?`

func memoryEntryToModel(entry types.MemoryEntry) (memoryEntryModel, error) {
	tags, err := marshalJSON(entry.Tags)
	if err != nil {
		return memoryEntryModel{}, fmt.Errorf("failed to encode memory tags: %w", err)
	}
	var vector *pgvector.Vector
	if len(entry.Embedding) > 0 {
		v := pgvector.NewVector(entry.Embedding)
		vector = &v
	}
	role := entry.Role
	if role == "" {
		role = types.RoleUser
	}
	return memoryEntryModel{
		UserID:    entry.UserID,
		Role:      role,
		Content:   entry.Content,
		Tags:      tags,
		Embedding: vector,
		CreatedAt: entry.CreatedAt,
		UpdatedAt: entry.UpdatedAt,
	}, nil
}

// memoryEntryFromModel converts database model to domain struct.
func memoryEntryFromModel(model memoryEntryModel) types.MemoryEntry {
	var tags []string
	_ = unmarshalJSON(model.Tags, &tags)
	var embedding []float32
	if model.Embedding != nil {
		embedding = model.Embedding.Slice()
	}
	return types.MemoryEntry{
		ID:        model.ID,
		UserID:    model.UserID,
		Role:      model.Role,
		Content:   model.Content,
		Tags:      tags,
		Embedding: embedding,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

// marshalJSON encodes a value into JSONB. Nil slices encode as an empty array.
func marshalJSON(value any) (json.RawMessage, error) {
	if tags, ok := value.([]string); ok && tags == nil {
		return json.RawMessage("[]"), nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	if string(raw) == "null" {
		return nil, nil
	}
	return json.RawMessage(raw), nil
}

// unmarshalJSON decodes JSONB into the provided target.
func unmarshalJSON(data json.RawMessage, target any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, target)
}
