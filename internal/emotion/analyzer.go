package emotion

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"google.golang.org/adk/model"
	"google.golang.org/genai"

	"github.com/easeaico/project-idol/internal/utils"
)

const analyzerInstruction = `你是情绪触发分类器。根据用户消息，从以下触发器中选择一个：
positive_interaction、negative_interaction、exciting_event、comfort、neutral。
同时给出 0 到 1 之间的强度。
调用 report_trigger 工具提交结果；若无法调用工具，仅返回 JSON：{"trigger":"<触发器>","intensity":<数字>}。`

const reportTriggerTool = "report_trigger"

// Analyzer classifies messages with a language model.
type Analyzer struct {
	model model.LLM
}

// NewAnalyzer returns an Analyzer.
func NewAnalyzer(m model.LLM) *Analyzer {
	return &Analyzer{model: m}
}

// Classify asks the model for a trigger and intensity. The model may answer
// with a report_trigger call or with plain JSON text.
func (a *Analyzer) Classify(ctx context.Context, text string) (Classification, error) {
	neutral := Classification{Trigger: TriggerNeutral, Intensity: BaselineIntensity}
	if a == nil || a.model == nil {
		return neutral, fmt.Errorf("emotion analyzer not configured")
	}

	if strings.TrimSpace(text) == "" {
		return neutral, nil
	}

	req := &model.LLMRequest{
		Contents: []*genai.Content{genai.NewContentFromText(text, genai.RoleUser)},
		Config: &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(analyzerInstruction, genai.RoleUser),
			Temperature:       genai.Ptr[float32](0),
			Tools:             []*genai.Tool{{FunctionDeclarations: []*genai.FunctionDeclaration{reportTriggerDeclaration()}}},
		},
	}

	var resp *model.LLMResponse
	var err error
	for r, e := range a.model.GenerateContent(ctx, req, false) {
		resp, err = r, e
		break
	}
	if err != nil {
		return neutral, fmt.Errorf("failed to classify message: %w", err)
	}
	if resp == nil || resp.Content == nil {
		return neutral, fmt.Errorf("empty classifier response")
	}

	parsed, err := parseClassifierResponse(resp.Content)
	if err != nil {
		return neutral, err
	}
	if !KnownTrigger(parsed.Trigger) {
		return neutral, fmt.Errorf("unknown trigger: %s", parsed.Trigger)
	}
	return Classification{
		Trigger:   parsed.Trigger,
		Intensity: ClampIntensity(parsed.Intensity),
	}, nil
}

func parseClassifierResponse(content *genai.Content) (utils.ClassifierOutput, error) {
	for _, part := range content.Parts {
		if part == nil || part.FunctionCall == nil || part.FunctionCall.Name != reportTriggerTool {
			continue
		}
		return utils.ClassifierOutputFromArgs(part.FunctionCall.Args)
	}
	return utils.ParseClassifierOutput(utils.ExtractContentText(content))
}

func reportTriggerDeclaration() *genai.FunctionDeclaration {
	minIntensity, maxIntensity := 0.0, 1.0
	return &genai.FunctionDeclaration{
		Name:        reportTriggerTool,
		Description: "提交用户消息对应的情绪触发器与强度",
		ParametersJsonSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"trigger": {
					Type:        "string",
					Description: "情绪触发器",
					Enum:        []any{TriggerPositive, TriggerNegative, TriggerExciting, TriggerComfort, TriggerNeutral},
				},
				"intensity": {
					Type:        "number",
					Description: "情绪强度",
					Minimum:     &minIntensity,
					Maximum:     &maxIntensity,
				},
			},
			Required: []string{"trigger", "intensity"},
		},
	}
}
