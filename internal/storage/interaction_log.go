package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/easeaico/project-idol/internal/idollog"
	"github.com/easeaico/project-idol/internal/types"
)

// interactionLogModel maps to the interaction_logs table.
type interactionLogModel struct {
	ID           string    `gorm:"primaryKey;type:uuid"`
	Timestamp    time.Time `gorm:"index"`
	EventType    string    `gorm:"index"`
	Description  string
	EmotionState string `gorm:"index"`
	Intensity    float64
	UserID       string          `gorm:"index"`
	Data         json.RawMessage `gorm:"type:jsonb"`
}

func (interactionLogModel) TableName() string {
	return "interaction_logs"
}

// InteractionRepo persists interaction log entries.
type InteractionRepo struct {
	db *gorm.DB
}

var _ idollog.Persister = (*InteractionRepo)(nil)

// NewInteractionRepo returns an InteractionRepo.
func NewInteractionRepo(db *gorm.DB) *InteractionRepo {
	return &InteractionRepo{db: db}
}

func (r *InteractionRepo) SaveInteraction(ctx context.Context, entry types.InteractionEntry) error {
	record, err := interactionToModel(entry)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		return fmt.Errorf("failed to insert interaction log: %w", err)
	}
	return nil
}

// List returns entries matching f, newest first.
func (r *InteractionRepo) List(ctx context.Context, f types.InteractionFilter) ([]types.InteractionEntry, error) {
	var records []interactionLogModel
	if err := interactionQuery(r.db.WithContext(ctx), f).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to query interaction logs: %w", err)
	}
	results := make([]types.InteractionEntry, 0, len(records))
	for _, record := range records {
		results = append(results, interactionFromModel(record))
	}
	return results, nil
}

func interactionQuery(db *gorm.DB, f types.InteractionFilter) *gorm.DB {
	query := db.Model(&interactionLogModel{}).Order("timestamp DESC")
	if f.UserID != "" {
		query = query.Where("user_id = ?", f.UserID)
	}
	if f.EventType != "" {
		query = query.Where("event_type = ?", f.EventType)
	}
	if f.EmotionState != "" {
		query = query.Where("emotion_state = ?", f.EmotionState)
	}
	if !f.Since.IsZero() {
		query = query.Where("timestamp >= ?", f.Since)
	}
	if !f.Until.IsZero() {
		query = query.Where("timestamp <= ?", f.Until)
	}
	if f.Limit > 0 {
		query = query.Limit(f.Limit)
	}
	return query
}

func interactionToModel(entry types.InteractionEntry) (interactionLogModel, error) {
	var data json.RawMessage
	if len(entry.Data) > 0 {
		raw, err := marshalJSON(entry.Data)
		if err != nil {
			return interactionLogModel{}, fmt.Errorf("failed to encode interaction data: %w", err)
		}
		data = raw
	}
	return interactionLogModel{
		ID:           entry.ID,
		Timestamp:    entry.Timestamp,
		EventType:    entry.EventType,
		Description:  entry.Description,
		EmotionState: entry.EmotionState,
		Intensity:    entry.Intensity,
		UserID:       entry.UserID,
		Data:         data,
	}, nil
}

func interactionFromModel(model interactionLogModel) types.InteractionEntry {
	var data map[string]any
	_ = unmarshalJSON(model.Data, &data)
	return types.InteractionEntry{
		ID:           model.ID,
		Timestamp:    model.Timestamp,
		EventType:    model.EventType,
		Description:  model.Description,
		EmotionState: model.EmotionState,
		Intensity:    model.Intensity,
		UserID:       model.UserID,
		Data:         data,
	}
}
