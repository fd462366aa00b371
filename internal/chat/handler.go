// Package chat runs one persona chat turn: classify, transition, remember, prompt, generate.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/easeaico/project-idol/internal/emotion"
	"github.com/easeaico/project-idol/internal/idollog"
	"github.com/easeaico/project-idol/internal/logging"
	"github.com/easeaico/project-idol/internal/metrics"
	"github.com/easeaico/project-idol/internal/persona"
	"github.com/easeaico/project-idol/internal/prompt"
	"github.com/easeaico/project-idol/internal/types"
)

var (
	// ErrInvalidRequest marks a request missing its user or message.
	ErrInvalidRequest = errors.New("invalid chat request")
	// ErrGeneration marks a failed model call.
	ErrGeneration = errors.New("failed to generate reply")
)

const defaultPlatform = "web"

// Request is one incoming chat message.
type Request struct {
	UserID   string `json:"user_id"`
	Message  string `json:"message"`
	Platform string `json:"platform,omitempty"`
}

// Response is the persona's reply with its emotion after the turn.
type Response struct {
	Response  string  `json:"response"`
	Emotion   string  `json:"emotion"`
	Intensity float64 `json:"emotion_intensity"`
}

// Message is one chat history item.
type Message struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Sender    string    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
}

// MemoryStore is the memory log used by a chat turn.
type MemoryStore interface {
	Store(ctx context.Context, userID, content string, tags []string) (types.MemoryEntry, error)
	StoreReply(ctx context.Context, userID, content string, tags []string) (types.MemoryEntry, error)
	Get(ctx context.Context, userID string, tags []string) ([]types.MemoryEntry, error)
	Search(ctx context.Context, userID, query string) ([]types.RetrievedMemory, error)
}

// Generator turns prompt contents into reply text.
type Generator interface {
	Generate(ctx context.Context, contents []*genai.Content) (string, error)
}

// InteractionStore reads the persisted interaction log.
type InteractionStore interface {
	List(ctx context.Context, f types.InteractionFilter) ([]types.InteractionEntry, error)
}

// Handler wires the chat dependencies together.
type Handler struct {
	persona      *persona.Persona
	classifier   emotion.Classifier
	sessions     *emotion.Registry
	memory       MemoryStore
	builder      *prompt.Builder
	generator    Generator
	log          *idollog.Log
	interactions InteractionStore
}

// NewHandler returns a Handler. log and interactions may be nil; without
// interactions, log queries are served from the in-memory log.
func NewHandler(
	p *persona.Persona,
	classifier emotion.Classifier,
	sessions *emotion.Registry,
	memory MemoryStore,
	builder *prompt.Builder,
	generator Generator,
	log *idollog.Log,
	interactions InteractionStore,
) *Handler {
	if classifier == nil {
		classifier = emotion.NewKeywordClassifier()
	}
	return &Handler{
		persona:      p,
		classifier:   classifier,
		sessions:     sessions,
		memory:       memory,
		builder:      builder,
		generator:    generator,
		log:          log,
		interactions: interactions,
	}
}

// Chat handles one user message and returns the persona's reply.
func (h *Handler) Chat(ctx context.Context, req Request) (resp Response, err error) {
	defer func() {
		metrics.ChatRequestsTotal.WithLabelValues(chatStatus(err)).Inc()
	}()

	userID := strings.TrimSpace(req.UserID)
	message := strings.TrimSpace(req.Message)
	if userID == "" || message == "" {
		return Response{}, fmt.Errorf("%w: user_id and message are required", ErrInvalidRequest)
	}
	platform := strings.TrimSpace(req.Platform)
	if platform == "" {
		platform = defaultPlatform
	}
	logger := logging.WithUser(userID).With("platform", platform)

	classification, cerr := h.classifier.Classify(ctx, message)
	if cerr != nil {
		logger.Warn("failed to classify message, using neutral trigger", "error", cerr.Error())
		classification = emotion.Classification{Trigger: emotion.TriggerNeutral, Intensity: emotion.BaselineIntensity}
	}

	session := h.sessions.Get(ctx, userID)
	metrics.EmotionSessions.Set(float64(h.sessions.Len()))

	committed, from, snap := session.FireAndSet(classification.Trigger, map[string]any{
		"platform": platform,
		"user_id":  userID,
		"trigger":  classification.Trigger,
	}, classification.Intensity)
	if committed {
		h.record(ctx, logger, types.InteractionEntry{
			EventType:    types.EventEmotionTransition,
			Description:  fmt.Sprintf("%s -> %s", from, snap.State),
			EmotionState: snap.State.String(),
			Intensity:    snap.Intensity,
			UserID:       userID,
			Data: map[string]any{
				"from":    from.String(),
				"trigger": classification.Trigger,
			},
		})
	}

	if _, err := h.memory.Store(ctx, userID, message, []string{types.TagChat, platform}); err != nil {
		logger.Warn("failed to store user message", "error", err.Error())
	}

	recent, err := h.memory.Get(ctx, userID, nil)
	if err != nil {
		logger.Warn("failed to load memories", "error", err.Error())
	}
	related, err := h.memory.Search(ctx, userID, message)
	if err != nil {
		logger.Warn("failed to search memories", "error", err.Error())
	}

	contents, err := h.builder.Build(prompt.BuildContext{
		Persona:     h.persona.Config(),
		Style:       h.persona.ResponseStyle(snap.Mood),
		Intensity:   snap.Intensity,
		Recent:      withoutCurrent(recent, message),
		Related:     related,
		UserMessage: message,
	})
	if err != nil {
		return Response{}, fmt.Errorf("failed to build prompt: %w", err)
	}

	reply, err := h.generator.Generate(ctx, contents)
	if err != nil {
		return Response{}, fmt.Errorf("%w: %w", ErrGeneration, err)
	}

	if _, err := h.memory.StoreReply(ctx, userID, reply, []string{types.TagReply, platform}); err != nil {
		logger.Warn("failed to store reply", "error", err.Error())
	}
	h.record(ctx, logger, types.InteractionEntry{
		EventType:    types.EventChat,
		Description:  message,
		EmotionState: snap.State.String(),
		Intensity:    snap.Intensity,
		UserID:       userID,
		Data: map[string]any{
			"platform":  platform,
			"trigger":   classification.Trigger,
			"committed": committed,
			"response":  reply,
		},
	})
	if err := h.sessions.Save(ctx, userID, session); err != nil {
		logger.Warn("failed to save emotion snapshot", "error", err.Error())
	}

	logger.Info("chat handled", "trigger", classification.Trigger, "emotion", snap.State.String(), "intensity", snap.Intensity)
	return Response{
		Response:  reply,
		Emotion:   snap.State.String(),
		Intensity: snap.Intensity,
	}, nil
}

// History returns the user's stored messages, oldest first.
func (h *Handler) History(ctx context.Context, userID string) ([]Message, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("%w: user_id is required", ErrInvalidRequest)
	}

	entries, err := h.memory.Get(ctx, userID, nil)
	if err != nil {
		return nil, err
	}

	messages := make([]Message, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		messages = append(messages, Message{
			ID:        strconv.Itoa(e.ID),
			Content:   e.Content,
			Sender:    e.Role,
			Timestamp: e.CreatedAt,
		})
	}
	return messages, nil
}

// Emotion returns the user's current emotion snapshot.
func (h *Handler) Emotion(ctx context.Context, userID string) emotion.Snapshot {
	return h.sessions.Get(ctx, userID).Snapshot()
}

// Interactions returns the user's interaction log entries matching f, newest first.
func (h *Handler) Interactions(ctx context.Context, f types.InteractionFilter) ([]types.InteractionEntry, error) {
	if strings.TrimSpace(f.UserID) == "" {
		return nil, fmt.Errorf("%w: user_id is required", ErrInvalidRequest)
	}
	if !f.Since.IsZero() && !f.Until.IsZero() && f.Until.Before(f.Since) {
		return nil, fmt.Errorf("%w: until is before since", ErrInvalidRequest)
	}

	if h.interactions != nil {
		entries, err := h.interactions.List(ctx, f)
		if err != nil {
			return nil, fmt.Errorf("failed to list interactions: %w", err)
		}
		return entries, nil
	}
	if h.log == nil {
		return []types.InteractionEntry{}, nil
	}
	return h.log.Search(f), nil
}

// ClearInteractions drops the in-memory interaction log. Persisted rows are kept.
func (h *Handler) ClearInteractions() {
	if h.log != nil {
		h.log.Clear()
	}
}

func (h *Handler) record(ctx context.Context, logger *slog.Logger, entry types.InteractionEntry) {
	if h.log == nil {
		return
	}
	if _, err := h.log.Add(ctx, entry); err != nil {
		logger.Warn("failed to persist interaction", "event_type", entry.EventType, "error", err.Error())
	}
}

// withoutCurrent drops the just-stored message so it is not repeated as context.
func withoutCurrent(recent []types.MemoryEntry, message string) []types.MemoryEntry {
	if len(recent) > 0 && recent[0].Role == types.RoleUser && recent[0].Content == message {
		return recent[1:]
	}
	return recent
}

func chatStatus(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidRequest):
		return "invalid"
	case errors.Is(err, ErrGeneration):
		return "generation_error"
	default:
		return "error"
	}
}

// Transitions lists the transitions leaving the user's current state.
func (h *Handler) Transitions(ctx context.Context, userID string) []emotion.Transition {
	session := h.sessions.Get(ctx, userID)
	return session.Transitions(session.Snapshot().State)
}

// RegisterTransition adds a validated transition to the user's session.
func (h *Handler) RegisterTransition(ctx context.Context, userID string, t emotion.Transition) error {
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("%w: user_id is required", ErrInvalidRequest)
	}
	if err := t.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	h.sessions.Get(ctx, userID).RegisterTransition(t)
	slog.Info("emotion transition registered", "user_id", userID, "from", t.From.String(), "to", t.To.String(), "trigger", t.Trigger)
	return nil
}
