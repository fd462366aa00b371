// Package main creates the database schema.
package main

import (
	"context"
	"log"
	"log/slog"
	"time"

	"github.com/easeaico/project-idol/internal/config"
	"github.com/easeaico/project-idol/internal/logging"
	"github.com/easeaico/project-idol/internal/storage"
)

func main() {
	cfg, err := config.LoadDatabase()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	store, err := storage.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}
	slog.Info("database initialized")
}
