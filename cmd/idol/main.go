// Package main runs the idol persona chat server.
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/easeaico/project-idol/internal/chat"
	"github.com/easeaico/project-idol/internal/config"
	"github.com/easeaico/project-idol/internal/emotion"
	"github.com/easeaico/project-idol/internal/idollog"
	"github.com/easeaico/project-idol/internal/logging"
	"github.com/easeaico/project-idol/internal/memory"
	"github.com/easeaico/project-idol/internal/metrics"
	"github.com/easeaico/project-idol/internal/models"
	"github.com/easeaico/project-idol/internal/persona"
	"github.com/easeaico/project-idol/internal/prompt"
	"github.com/easeaico/project-idol/internal/server"
	"github.com/easeaico/project-idol/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	clock := clockwork.NewRealClock()

	// 存储：未配置数据库时使用内存实现
	var (
		memoryRepo   memory.Repo = memory.NewInMemoryRepo()
		snapshots    emotion.SnapshotStore
		persister    idollog.Persister
		interactions chat.InteractionStore
		healthChecks []server.HealthCheck
	)
	if cfg.UseDatabase() {
		store, err := storage.NewStore(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("failed to connect to database: %v", err)
		}
		defer store.Close()

		memoryRepo = store.Memories
		snapshots = store.EmotionStates
		persister = store.Interactions
		interactions = store.Interactions
		healthChecks = append(healthChecks, server.HealthCheck{
			Name: "postgres",
			Check: func(ctx context.Context) error {
				sqlDB, err := store.DB().DB()
				if err != nil {
					return err
				}
				return sqlDB.PingContext(ctx)
			},
		})
	} else {
		slog.Warn("DATABASE_URL not set, memories and emotion state are kept in memory only")
	}

	var embedder memory.Embedder
	if cfg.EmbeddingsEnabled() {
		e, err := memory.NewGenAIEmbedder(ctx, cfg.GoogleAPIKey, cfg.EmbeddingModel)
		if err != nil {
			log.Fatalf("failed to create embedder: %v", err)
		}
		embedder = e
	}

	memoryService := memory.NewService(memoryRepo, embedder, clock, memory.Config{
		MaxPerUser:          cfg.MaxMemories,
		ExpiryDays:          cfg.MemoryExpiryDays,
		TopK:                cfg.TopK,
		SimilarityThreshold: cfg.SimilarityThreshold,
	})

	// 模型
	provider, err := models.ParseProvider(cfg.LLMProvider)
	if err != nil {
		log.Fatalf("invalid llm provider: %v", err)
	}
	llm, err := models.New(ctx, provider, cfg.LLMModel, cfg.LLMAPIKey)
	if err != nil {
		log.Fatalf("failed to create llm: %v", err)
	}
	generator := models.NewGenerator(llm, provider, cfg.LLMTemperature, cfg.LLMMaxTokens)

	var classifier emotion.Classifier = emotion.NewKeywordClassifier()
	if cfg.Classifier == "llm" {
		classifier = emotion.NewAnalyzer(llm)
	}

	// 情绪：每个用户一个会话
	sink := emotion.MultiSink{emotion.NewLogSink(logging.Logger), metrics.EmotionSink{}}
	sessions := emotion.NewRegistry(func() *emotion.Session {
		return emotion.NewSession(
			emotion.NewTracker(emotion.StateNeutral, cfg.EmotionDecayRate),
			emotion.WithEventSink(sink),
		)
	}, snapshots, clock)

	p := persona.New(persona.Config{
		Name:       cfg.PersonaName,
		Style:      cfg.PersonaStyle,
		Greeting:   cfg.PersonaGreeting,
		SpeechTone: cfg.PersonaTone,
		Likes:      persona.SplitList(cfg.PersonaLikes),
		MemoryTags: persona.SplitList(cfg.PersonaMemoryTags),
	})

	handler := chat.NewHandler(
		p,
		classifier,
		sessions,
		memoryService,
		prompt.NewBuilder(cfg.HistoryLimit, clock),
		generator,
		idollog.New(cfg.InteractionLogSize, clock, persister),
		interactions,
	)

	go sessions.RunDecay(ctx, cfg.EmotionDecayInterval)
	go memoryService.RunCleanup(ctx, cfg.MemoryCleanupInterval)

	srv := server.New(server.Config{Port: cfg.Port, CORSOrigins: cfg.CORSOrigins}, handler, p, healthChecks)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server stopped", "error", err.Error())
			cancel()
		}
	}()

	slog.Info("idol started", "persona", p.Name(), "provider", string(provider), "classifier", cfg.Classifier)
	<-ctx.Done()

	slog.Info("正在关闭...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shutdown server", "error", err.Error())
	}
}
