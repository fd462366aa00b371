package server

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/easeaico/project-idol/internal/chat"
	"github.com/easeaico/project-idol/internal/emotion"
	"github.com/easeaico/project-idol/internal/types"
)

const (
	healthCheckTimeout = 2 * time.Second

	defaultLogLimit = 50
	maxLogLimit     = 500
)

func (s *Server) handleChat(c echo.Context) error {
	var req chat.Request
	if err := c.Bind(&req); err != nil {
		return fmt.Errorf("%w: %w", chat.ErrInvalidRequest, err)
	}

	resp, err := s.chat.Chat(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleHistory(c echo.Context) error {
	messages, err := s.chat.History(c.Request().Context(), c.Param("user_id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"messages": messages})
}

func (s *Server) handleEmotion(c echo.Context) error {
	snap := s.chat.Emotion(c.Request().Context(), c.Param("user_id"))
	return c.JSON(http.StatusOK, snap)
}

func (s *Server) handleListTransitions(c echo.Context) error {
	transitions := s.chat.Transitions(c.Request().Context(), c.Param("user_id"))
	return c.JSON(http.StatusOK, map[string]any{"transitions": transitions})
}

func (s *Server) handleRegisterTransition(c echo.Context) error {
	var t emotion.Transition
	if err := c.Bind(&t); err != nil {
		return fmt.Errorf("%w: %w", chat.ErrInvalidRequest, err)
	}
	if err := s.chat.RegisterTransition(c.Request().Context(), c.Param("user_id"), t); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, t)
}

func (s *Server) handleInteractions(c echo.Context) error {
	f, err := interactionFilter(c)
	if err != nil {
		return err
	}
	entries, err := s.chat.Interactions(c.Request().Context(), f)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"entries": entries})
}

func (s *Server) handleClearInteractions(c echo.Context) error {
	s.chat.ClearInteractions()
	return c.NoContent(http.StatusNoContent)
}

func interactionFilter(c echo.Context) (types.InteractionFilter, error) {
	f := types.InteractionFilter{
		UserID:       c.Param("user_id"),
		EventType:    c.QueryParam("type"),
		EmotionState: c.QueryParam("emotion"),
		Limit:        defaultLogLimit,
	}

	if raw := c.QueryParam("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return f, fmt.Errorf("%w: invalid limit %q", chat.ErrInvalidRequest, raw)
		}
		f.Limit = min(limit, maxLogLimit)
	}

	var err error
	if f.Since, err = queryTime(c, "since"); err != nil {
		return f, err
	}
	if f.Until, err = queryTime(c, "until"); err != nil {
		return f, err
	}
	return f, nil
}

func queryTime(c echo.Context, name string) (time.Time, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return time.Time{}, nil
	}
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid %s %q", chat.ErrInvalidRequest, name, raw)
	}
	return ts, nil
}

func (s *Server) handlePersona(c echo.Context) error {
	return c.JSON(http.StatusOK, s.persona.Config())
}

func (s *Server) handleHealth(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), healthCheckTimeout)
	defer cancel()

	for _, hc := range s.healthChecks {
		if err := hc.Check(ctx); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{
				"status":       "unhealthy",
				"failed_check": hc.Name,
				"error":        err.Error(),
			})
		}
	}
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
		"uptime": time.Since(s.startTime).Round(time.Second).String(),
	})
}
