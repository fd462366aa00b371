// Package server exposes the chat handler over HTTP with echo.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/easeaico/project-idol/internal/chat"
	"github.com/easeaico/project-idol/internal/emotion"
	"github.com/easeaico/project-idol/internal/persona"
	"github.com/easeaico/project-idol/internal/types"
)

type chatService interface {
	Chat(ctx context.Context, req chat.Request) (chat.Response, error)
	History(ctx context.Context, userID string) ([]chat.Message, error)
	Emotion(ctx context.Context, userID string) emotion.Snapshot
	Transitions(ctx context.Context, userID string) []emotion.Transition
	RegisterTransition(ctx context.Context, userID string, t emotion.Transition) error
	Interactions(ctx context.Context, f types.InteractionFilter) ([]types.InteractionEntry, error)
	ClearInteractions()
}

// HealthCheck reports whether one dependency is reachable.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Config holds the server settings.
type Config struct {
	Port        string
	CORSOrigins string
}

type Server struct {
	echo   *echo.Echo
	config Config

	chat    chatService
	persona *persona.Persona

	healthChecks []HealthCheck
	startTime    time.Time
}

// New builds the echo server and registers its routes.
func New(cfg Config, chat chatService, p *persona.Persona, healthChecks []HealthCheck) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	srv := &Server{
		echo:         e,
		config:       cfg,
		chat:         chat,
		persona:      p,
		healthChecks: healthChecks,
		startTime:    time.Now(),
	}
	srv.registerRoutes()
	return srv
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	if err := s.echo.Start(":" + s.config.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}

func corsOrigins(raw string) []string {
	var origins []string
	for _, origin := range strings.Split(raw, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
