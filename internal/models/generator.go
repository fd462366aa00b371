package models

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/adk/model"
	"google.golang.org/genai"

	"github.com/easeaico/project-idol/internal/metrics"
	"github.com/easeaico/project-idol/internal/utils"
)

// ErrEmptyResponse is returned when the model produces no text.
var ErrEmptyResponse = errors.New("empty response from model")

// Generator produces a single text reply from prompt contents.
type Generator struct {
	llm         model.LLM
	provider    Provider
	temperature float32
	maxTokens   int32
}

// NewGenerator wraps llm with sampling settings.
func NewGenerator(llm model.LLM, provider Provider, temperature float64, maxTokens int) *Generator {
	return &Generator{
		llm:         llm,
		provider:    provider,
		temperature: float32(temperature),
		maxTokens:   int32(maxTokens),
	}
}

// Generate sends contents to the model and returns the reply text.
// Contents with the system role become the system instruction.
func (g *Generator) Generate(ctx context.Context, contents []*genai.Content) (string, error) {
	req := &model.LLMRequest{
		Model: g.llm.Name(),
		Config: &genai.GenerateContentConfig{
			Temperature:     genai.Ptr(g.temperature),
			MaxOutputTokens: g.maxTokens,
		},
	}

	var system []string
	for _, c := range contents {
		if c == nil {
			continue
		}
		if c.Role == roleSystem {
			system = append(system, utils.ExtractContentText(c))
			continue
		}
		req.Contents = append(req.Contents, c)
	}
	if len(system) > 0 {
		req.Config.SystemInstruction = genai.NewContentFromText(strings.Join(system, "\n\n"), genai.RoleUser)
	}

	start := time.Now()
	text, err := g.collect(ctx, req)
	metrics.LLMRequestDuration.WithLabelValues(string(g.provider), metrics.Status(err)).Observe(time.Since(start).Seconds())
	if err != nil {
		slog.Error("failed to generate response", "provider", g.provider, "model", g.llm.Name(), "error", err.Error())
		return "", fmt.Errorf("error generating response: %w", err)
	}
	return text, nil
}

func (g *Generator) collect(ctx context.Context, req *model.LLMRequest) (string, error) {
	var sb strings.Builder
	for resp, err := range g.llm.GenerateContent(ctx, req, false) {
		if err != nil {
			return "", err
		}
		if resp == nil || resp.Partial {
			continue
		}
		sb.WriteString(utils.ExtractContentText(resp.Content))
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
