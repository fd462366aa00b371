package models

import (
	"context"
	"errors"
	"iter"
	"strings"
	"testing"

	"google.golang.org/adk/model"
	"google.golang.org/genai"
)

type fakeLLM struct {
	responses []*model.LLMResponse
	err       error
	req       *model.LLMRequest
}

func (f *fakeLLM) Name() string { return "fake-model" }

func (f *fakeLLM) GenerateContent(_ context.Context, req *model.LLMRequest, _ bool) iter.Seq2[*model.LLMResponse, error] {
	f.req = req
	return func(yield func(*model.LLMResponse, error) bool) {
		if f.err != nil {
			yield(nil, f.err)
			return
		}
		for _, r := range f.responses {
			if !yield(r, nil) {
				return
			}
		}
	}
}

func textResponse(text string, partial bool) *model.LLMResponse {
	return &model.LLMResponse{Content: genai.NewContentFromText(text, genai.RoleModel), Partial: partial}
}

func TestGeneratorGenerate(t *testing.T) {
	llm := &fakeLLM{responses: []*model.LLMResponse{
		textResponse("嗨", true),
		textResponse(" 嗨嗨！本小姐來了 ", false),
	}}
	g := NewGenerator(llm, ProviderOpenAI, 0.7, 1000)

	got, err := g.Generate(context.Background(), []*genai.Content{
		genai.NewContentFromText("你是偶像", "system"),
		genai.NewContentFromText("你好", genai.RoleUser),
	})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if got != "嗨嗨！本小姐來了" {
		t.Fatalf("unexpected reply: %q", got)
	}

	if llm.req.Config.SystemInstruction == nil || llm.req.Config.SystemInstruction.Parts[0].Text != "你是偶像" {
		t.Fatalf("expected system content moved to system instruction")
	}
	if len(llm.req.Contents) != 1 || llm.req.Contents[0].Role != "user" {
		t.Fatalf("expected only the user turn in contents, got %d", len(llm.req.Contents))
	}
	if *llm.req.Config.Temperature != float32(0.7) || llm.req.Config.MaxOutputTokens != 1000 {
		t.Fatalf("unexpected sampling config: %+v", llm.req.Config)
	}
}

func TestGeneratorEmptyResponse(t *testing.T) {
	g := NewGenerator(&fakeLLM{responses: []*model.LLMResponse{textResponse("  ", false)}}, ProviderGemini, 0.7, 10)
	_, err := g.Generate(context.Background(), []*genai.Content{genai.NewContentFromText("hi", genai.RoleUser)})
	if !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse, got %v", err)
	}
}

func TestGeneratorWrapsProviderError(t *testing.T) {
	cause := errors.New("quota exceeded")
	g := NewGenerator(&fakeLLM{err: cause}, ProviderGemini, 0.7, 10)
	_, err := g.Generate(context.Background(), []*genai.Content{genai.NewContentFromText("hi", genai.RoleUser)})
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "error generating response:") {
		t.Fatalf("unexpected error text: %v", err)
	}
}

func TestParseProvider(t *testing.T) {
	p, err := ParseProvider(" GEMINI ")
	if err != nil || p != ProviderGemini {
		t.Fatalf("expected gemini, got %s/%v", p, err)
	}
	if _, err := ParseProvider("claude"); err == nil {
		t.Fatalf("expected error for unknown provider")
	}
}

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := New(context.Background(), ProviderOpenAI, "gpt-4o-mini", ""); err == nil {
		t.Fatalf("expected error without api key")
	}
}

func TestNewCompatProviders(t *testing.T) {
	for _, p := range []Provider{ProviderOpenAI, ProviderGrok, ProviderOpenRouter} {
		llm, err := New(context.Background(), p, "", "test-key")
		if err != nil {
			t.Fatalf("New(%s) returned error: %v", p, err)
		}
		if llm.Name() != p.DefaultModel() {
			t.Fatalf("expected default model %s, got %s", p.DefaultModel(), llm.Name())
		}
	}
}
