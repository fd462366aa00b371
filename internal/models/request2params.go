package models

import (
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/openai/openai-go/v3"
	"google.golang.org/adk/model"
	"google.golang.org/genai"
)

// buildParams converts an adk request to chat completion parameters.
func buildParams(req *model.LLMRequest, defaultModel string) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{Model: req.Model}
	if req.Model == "" {
		params.Model = defaultModel
	}

	var messages []openai.ChatCompletionMessageParamUnion
	if req.Config != nil && req.Config.SystemInstruction != nil {
		if text := contentText(req.Config.SystemInstruction); text != "" {
			messages = append(messages, openai.SystemMessage(text))
		}
	}
	params.Messages = append(messages, convertContents(req.Contents)...)

	if cfg := req.Config; cfg != nil {
		if cfg.Temperature != nil {
			params.Temperature = openai.Float(float64(*cfg.Temperature))
		}
		if cfg.TopP != nil {
			params.TopP = openai.Float(float64(*cfg.TopP))
		}
		if cfg.MaxOutputTokens > 0 {
			params.MaxTokens = openai.Int(int64(cfg.MaxOutputTokens))
		}
		if tools := convertTools(cfg.Tools); len(tools) > 0 {
			params.Tools = tools
		}
	}
	return params
}

// convertTools maps function declarations to function tools.
func convertTools(tools []*genai.Tool) []openai.ChatCompletionToolUnionParam {
	var out []openai.ChatCompletionToolUnionParam
	for _, t := range tools {
		if t == nil {
			continue
		}
		for _, fn := range t.FunctionDeclarations {
			if fn == nil {
				continue
			}
			out = append(out, openai.ChatCompletionToolUnionParam{
				OfFunction: &openai.ChatCompletionFunctionToolParam{
					Function: openai.FunctionDefinitionParam{
						Name:        fn.Name,
						Description: openai.String(fn.Description),
						Parameters:  functionParameters(fn),
					},
				},
			})
		}
	}
	return out
}

// functionParameters reads ParametersJsonSchema; genai.Schema parameters are not supported.
func functionParameters(fn *genai.FunctionDeclaration) openai.FunctionParameters {
	switch schema := fn.ParametersJsonSchema.(type) {
	case *jsonschema.Schema:
		params := schemaToMap(schema)
		if _, ok := params["type"]; !ok {
			params["type"] = "object"
		}
		if _, ok := params["required"]; !ok {
			params["required"] = []string{}
		}
		return openai.FunctionParameters(params)
	case map[string]any:
		return openai.FunctionParameters(schema)
	default:
		return nil
	}
}

// schemaToMap renders the subset of JSON Schema chat completion APIs accept.
func schemaToMap(schema *jsonschema.Schema) map[string]any {
	if schema == nil {
		return nil
	}
	out := make(map[string]any)

	switch {
	case schema.Type != "":
		out["type"] = schema.Type
	case len(schema.Types) > 0:
		out["type"] = schema.Types[0]
	}
	if schema.Description != "" {
		out["description"] = schema.Description
	}
	if schema.Format != "" {
		out["format"] = schema.Format
	}
	if len(schema.Enum) > 0 {
		out["enum"] = schema.Enum
	}
	if schema.Const != nil {
		out["const"] = *schema.Const
	}
	if len(schema.Default) > 0 {
		var v any
		if err := json.Unmarshal(schema.Default, &v); err == nil {
			out["default"] = v
		}
	}

	setFloat(out, "minimum", schema.Minimum)
	setFloat(out, "maximum", schema.Maximum)
	setFloat(out, "exclusiveMinimum", schema.ExclusiveMinimum)
	setFloat(out, "exclusiveMaximum", schema.ExclusiveMaximum)
	setInt(out, "minLength", schema.MinLength)
	setInt(out, "maxLength", schema.MaxLength)
	if schema.Pattern != "" {
		out["pattern"] = schema.Pattern
	}

	if schema.Items != nil {
		out["items"] = schemaToMap(schema.Items)
	}
	if len(schema.Properties) > 0 {
		props := make(map[string]any, len(schema.Properties))
		for name, prop := range schema.Properties {
			if prop != nil {
				props[name] = schemaToMap(prop)
			}
		}
		out["properties"] = props
	}
	if len(schema.Required) > 0 {
		out["required"] = schema.Required
	}
	return out
}

func setFloat(m map[string]any, key string, v *float64) {
	if v != nil {
		m[key] = *v
	}
}

func setInt(m map[string]any, key string, v *int) {
	if v != nil {
		m[key] = *v
	}
}

// convertContents maps genai contents to chat messages. Function responses
// become tool messages and function calls become assistant tool calls.
func convertContents(contents []*genai.Content) []openai.ChatCompletionMessageParamUnion {
	var messages []openai.ChatCompletionMessageParamUnion

	for _, content := range contents {
		if content == nil {
			continue
		}

		if responses := functionResponses(content); len(responses) > 0 {
			messages = append(messages, responses...)
			continue
		}

		text := contentText(content)
		switch content.Role {
		case roleSystem:
			messages = append(messages, openai.SystemMessage(text))
		case roleModel, "assistant":
			messages = append(messages, assistantMessage(content, text))
		default:
			messages = append(messages, openai.UserMessage(text))
		}
	}
	return messages
}

func functionResponses(content *genai.Content) []openai.ChatCompletionMessageParamUnion {
	var out []openai.ChatCompletionMessageParamUnion
	for _, part := range content.Parts {
		if part == nil || part.FunctionResponse == nil || part.FunctionResponse.ID == "" {
			continue
		}
		payload, err := json.Marshal(part.FunctionResponse.Response)
		if err != nil {
			slog.Error("failed to marshal function response", "error", err.Error())
			continue
		}
		out = append(out, openai.ToolMessage(string(payload), part.FunctionResponse.ID))
	}
	return out
}

func assistantMessage(content *genai.Content, text string) openai.ChatCompletionMessageParamUnion {
	var calls []openai.ChatCompletionMessageToolCallUnionParam
	for _, part := range content.Parts {
		if part == nil || part.FunctionCall == nil || part.FunctionCall.ID == "" {
			continue
		}
		args, err := json.Marshal(part.FunctionCall.Args)
		if err != nil {
			slog.Error("failed to marshal function call args", "error", err.Error())
			continue
		}
		calls = append(calls, openai.ChatCompletionMessageToolCallUnionParam{
			OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
				ID: part.FunctionCall.ID,
				Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
					Name:      part.FunctionCall.Name,
					Arguments: string(args),
				},
			},
		})
	}
	if len(calls) == 0 {
		return openai.AssistantMessage(text)
	}

	msg := openai.ChatCompletionAssistantMessageParam{ToolCalls: calls}
	if text != "" {
		msg.Content.OfString = openai.String(text)
	}
	return openai.ChatCompletionMessageParamUnion{OfAssistant: &msg}
}

func contentText(content *genai.Content) string {
	var sb strings.Builder
	for _, part := range content.Parts {
		if part != nil && part.Text != "" {
			sb.WriteString(part.Text)
		}
	}
	return sb.String()
}
