package models

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"net/http"
	"runtime"
	"slices"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"google.golang.org/adk/model"
	"google.golang.org/genai"
)

// compatModel 封装 OpenAI 兼容的聊天接口（OpenAI、Grok、OpenRouter）。
type compatModel struct {
	client    *openai.Client
	name      string
	provider  string
	userAgent string
}

const (
	roleUser   = "user"
	roleModel  = "model"
	roleSystem = "system"
)

// toolCallBuilder accumulates a tool call across stream chunks.
type toolCallBuilder struct {
	ID   string
	Name string
	Args strings.Builder
}

func (b *toolCallBuilder) part() *genai.Part {
	return &genai.Part{
		FunctionCall: &genai.FunctionCall{
			ID:   b.ID,
			Name: b.Name,
			Args: parseFunctionArgs(b.Args.String()),
		},
	}
}

func newCompatModel(modelName, apiKey, baseURL, provider string) *compatModel {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	client := openai.NewClient(opts...)

	return &compatModel{
		client:    &client,
		name:      modelName,
		provider:  provider,
		userAgent: fmt.Sprintf("project-idol/%s go/%s", provider, strings.TrimPrefix(runtime.Version(), "go")),
	}
}

func (m *compatModel) Name() string {
	return m.name
}

func (m *compatModel) GenerateContent(ctx context.Context, req *model.LLMRequest, stream bool) iter.Seq2[*model.LLMResponse, error] {
	ensureUserTurn(req)

	if req.Config == nil {
		req.Config = &genai.GenerateContentConfig{}
	}
	if req.Config.HTTPOptions == nil {
		req.Config.HTTPOptions = &genai.HTTPOptions{}
	}
	if req.Config.HTTPOptions.Headers == nil {
		req.Config.HTTPOptions.Headers = make(http.Header)
	}
	req.Config.HTTPOptions.Headers.Set("user-agent", m.userAgent)

	params := buildParams(req, m.name)
	reqOpts := []option.RequestOption{option.WithHeader("user-agent", m.userAgent)}

	if stream {
		return m.generateStream(ctx, params, reqOpts)
	}
	return func(yield func(*model.LLMResponse, error) bool) {
		resp, err := m.generate(ctx, params, reqOpts)
		yield(resp, err)
	}
}

func (m *compatModel) generate(ctx context.Context, params openai.ChatCompletionNewParams, opts []option.RequestOption) (*model.LLMResponse, error) {
	resp, err := m.client.Chat.Completions.New(ctx, params, opts...)
	if err != nil {
		slog.Error("failed to call llm API", "provider", m.provider, "error", err.Error())
		return nil, fmt.Errorf("failed to call %s API: %w", m.provider, err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return &model.LLMResponse{}, nil
	}

	choice := resp.Choices[0]
	content := &genai.Content{Role: roleModel}
	if choice.Message.Content != "" {
		content.Parts = append(content.Parts, &genai.Part{Text: choice.Message.Content})
	}
	for _, tc := range choice.Message.ToolCalls {
		if tc.Type != "function" || tc.ID == "" || tc.Function.Name == "" {
			continue
		}
		builder := &toolCallBuilder{ID: tc.ID, Name: tc.Function.Name}
		builder.Args.WriteString(tc.Function.Arguments)
		content.Parts = append(content.Parts, builder.part())
	}

	return &model.LLMResponse{
		Content:      content,
		TurnComplete: true,
	}, nil
}

func (m *compatModel) generateStream(ctx context.Context, params openai.ChatCompletionNewParams, opts []option.RequestOption) iter.Seq2[*model.LLMResponse, error] {
	return func(yield func(*model.LLMResponse, error) bool) {
		stream := m.client.Chat.Completions.NewStreaming(ctx, params, opts...)
		defer func() {
			if err := stream.Close(); err != nil {
				slog.Error("failed to close stream", "error", err.Error())
			}
		}()

		tools := make(map[int64]*toolCallBuilder)
		var text strings.Builder
		for stream.Next() {
			chunk := stream.Current()
			if len(chunk.Choices) == 0 {
				continue
			}
			choice := chunk.Choices[0]

			if delta := choice.Delta.Content; delta != "" {
				text.WriteString(delta)
				partial := &model.LLMResponse{
					Content: genai.NewContentFromText(delta, genai.RoleModel),
					Partial: true,
				}
				if !yield(partial, nil) {
					return
				}
			}

			for _, tc := range choice.Delta.ToolCalls {
				builder, ok := tools[tc.Index]
				if !ok {
					builder = &toolCallBuilder{}
					tools[tc.Index] = builder
				}
				if tc.ID != "" {
					builder.ID = tc.ID
				}
				if tc.Function.Name != "" {
					builder.Name = tc.Function.Name
				}
				builder.Args.WriteString(tc.Function.Arguments)
			}

			if choice.FinishReason != "" {
				final := &model.LLMResponse{
					Content:      &genai.Content{Role: roleModel, Parts: finalParts(text.String(), tools)},
					TurnComplete: true,
				}
				if !yield(final, nil) {
					return
				}
			}
		}

		if err := stream.Err(); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				yield(nil, fmt.Errorf("context cancelled: %w", err))
				return
			}
			slog.Error("failed to stream call llm API", "provider", m.provider, "error", err.Error())
			yield(nil, fmt.Errorf("stream error: %w", err))
		}
	}
}

// finalParts returns the aggregated text followed by tool calls in index order.
func finalParts(text string, tools map[int64]*toolCallBuilder) []*genai.Part {
	var parts []*genai.Part
	if text = strings.TrimSpace(text); text != "" {
		parts = append(parts, &genai.Part{Text: text})
	}
	indices := make([]int64, 0, len(tools))
	for idx := range tools {
		indices = append(indices, idx)
	}
	slices.Sort(indices)
	for _, idx := range indices {
		parts = append(parts, tools[idx].part())
	}
	return parts
}

// ensureUserTurn makes sure the conversation ends with a user message.
func ensureUserTurn(req *model.LLMRequest) {
	if len(req.Contents) == 0 {
		req.Contents = append(req.Contents, genai.NewContentFromText("Handle the requests as specified in the System Instruction.", genai.RoleUser))
		return
	}
	if last := req.Contents[len(req.Contents)-1]; last != nil && last.Role != roleUser {
		req.Contents = append(req.Contents, genai.NewContentFromText("Continue processing previous requests as instructed.", genai.RoleUser))
	}
}

func parseFunctionArgs(raw string) map[string]any {
	args := make(map[string]any)
	if raw == "" {
		return args
	}
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		slog.Error("failed to parse function arguments", "error", err.Error(), "json", raw)
		return make(map[string]any)
	}
	return args
}
