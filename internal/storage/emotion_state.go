package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/easeaico/project-idol/internal/emotion"
)

// emotionStateModel maps to the emotion_states table.
type emotionStateModel struct {
	UserID    string `gorm:"primaryKey"`
	State     string `gorm:"not null"`
	Mood      string `gorm:"not null"`
	Intensity float64
	UpdatedAt time.Time
}

func (emotionStateModel) TableName() string {
	return "emotion_states"
}

// EmotionStateRepo stores one emotion snapshot per user.
type EmotionStateRepo struct {
	db *gorm.DB
}

var _ emotion.SnapshotStore = (*EmotionStateRepo)(nil)

// NewEmotionStateRepo returns an EmotionStateRepo.
func NewEmotionStateRepo(db *gorm.DB) *EmotionStateRepo {
	return &EmotionStateRepo{db: db}
}

func (r *EmotionStateRepo) Load(ctx context.Context, userID string) (emotion.Snapshot, bool, error) {
	var record emotionStateModel
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return emotion.Snapshot{}, false, nil
	}
	if err != nil {
		return emotion.Snapshot{}, false, fmt.Errorf("failed to load emotion state: %w", err)
	}
	return snapshotFromModel(record), true, nil
}

func (r *EmotionStateRepo) Save(ctx context.Context, userID string, snap emotion.Snapshot) error {
	record := snapshotToModel(userID, snap)
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"state", "mood", "intensity", "updated_at"}),
		}).
		Create(&record).Error; err != nil {
		return fmt.Errorf("failed to save emotion state: %w", err)
	}
	return nil
}

func snapshotToModel(userID string, snap emotion.Snapshot) emotionStateModel {
	return emotionStateModel{
		UserID:    userID,
		State:     snap.State.String(),
		Mood:      snap.Mood.String(),
		Intensity: snap.Intensity,
	}
}

func snapshotFromModel(model emotionStateModel) emotion.Snapshot {
	return emotion.Snapshot{
		State:     emotion.State(model.State),
		Mood:      emotion.State(model.Mood),
		Intensity: model.Intensity,
	}
}
