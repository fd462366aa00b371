// Package models 提供各家模型提供方的适配器实现。
package models

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/adk/model"
	"google.golang.org/adk/model/gemini"
	"google.golang.org/genai"
)

// Provider names an LLM backend.
type Provider string

const (
	ProviderGemini     Provider = "gemini"
	ProviderOpenAI     Provider = "openai"
	ProviderGrok       Provider = "grok"
	ProviderOpenRouter Provider = "openrouter"
)

const (
	grokBaseURL       = "https://api.x.ai/v1"
	openRouterBaseURL = "https://openrouter.ai/api/v1"
)

// ParseProvider accepts provider names case-insensitively.
func ParseProvider(s string) (Provider, error) {
	p := Provider(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case ProviderGemini, ProviderOpenAI, ProviderGrok, ProviderOpenRouter:
		return p, nil
	default:
		return "", fmt.Errorf("unknown llm provider: %q", s)
	}
}

// DefaultModel returns the model used when none is configured.
func (p Provider) DefaultModel() string {
	switch p {
	case ProviderOpenAI:
		return "gpt-4o-mini"
	case ProviderGrok:
		return "grok-3-mini"
	case ProviderOpenRouter:
		return "google/gemini-2.5-flash"
	default:
		return "gemini-2.5-flash"
	}
}

// New creates the adk model for provider.
func New(ctx context.Context, provider Provider, modelName, apiKey string) (model.LLM, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if modelName == "" {
		modelName = provider.DefaultModel()
	}

	switch provider {
	case ProviderGemini:
		llm, err := gemini.NewModel(ctx, modelName, &genai.ClientConfig{
			APIKey:  apiKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create gemini model: %w", err)
		}
		return llm, nil
	case ProviderOpenAI:
		return newCompatModel(modelName, apiKey, "", "openai"), nil
	case ProviderGrok:
		return newCompatModel(modelName, apiKey, grokBaseURL, "grok"), nil
	case ProviderOpenRouter:
		return newCompatModel(modelName, apiKey, openRouterBaseURL, "openrouter"), nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %q", provider)
	}
}
