// Package storage persists memories, interaction logs and emotion snapshots in PostgreSQL.
package storage

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Store holds the DB pool and repositories.
type Store struct {
	db            *gorm.DB
	Memories      *MemoryRepo
	Interactions  *InteractionRepo
	EmotionStates *EmotionStateRepo
}

// NewStore opens and pings the PostgreSQL database.
func NewStore(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open gorm database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return newStore(db), nil
}

func newStore(db *gorm.DB) *Store {
	return &Store{
		db:            db,
		Memories:      NewMemoryRepo(db),
		Interactions:  NewInteractionRepo(db),
		EmotionStates: NewEmotionStateRepo(db),
	}
}

// Migrate enables pgvector and creates the tables.
func (s *Store) Migrate(ctx context.Context) error {
	db := s.db.WithContext(ctx)
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		return fmt.Errorf("failed to create vector extension: %w", err)
	}
	if err := db.AutoMigrate(&memoryEntryModel{}, &interactionLogModel{}, &emotionStateModel{}); err != nil {
		return fmt.Errorf("failed to migrate tables: %w", err)
	}
	slog.Info("database migrated", "tables", []string{
		memoryEntryModel{}.TableName(),
		interactionLogModel{}.TableName(),
		emotionStateModel{}.TableName(),
	})
	return nil
}

func (s *Store) DB() *gorm.DB {
	return s.db
}

func (s *Store) Close() {
	if s.db == nil {
		return
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return
	}
	_ = sqlDB.Close()
}
