package utils

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ClassifierOutput is the structured response from the trigger classifier model.
type ClassifierOutput struct {
	Trigger   string  `json:"trigger"`
	Intensity float64 `json:"intensity"`
}

// ParseClassifierOutput extracts and normalizes structured classifier output.
// A missing intensity defaults to 0.5.
func ParseClassifierOutput(raw string) (ClassifierOutput, error) {
	clean := extractJSONObject(raw)

	var output struct {
		Trigger   string   `json:"trigger"`
		Intensity *float64 `json:"intensity"`
	}
	if err := json.Unmarshal([]byte(clean), &output); err != nil {
		return ClassifierOutput{}, fmt.Errorf("failed to parse classifier output: %w", err)
	}

	trigger := strings.ToLower(strings.TrimSpace(output.Trigger))
	if trigger == "" {
		return ClassifierOutput{}, fmt.Errorf("missing trigger")
	}

	intensity := 0.5
	if output.Intensity != nil {
		intensity = *output.Intensity
	}
	return ClassifierOutput{Trigger: trigger, Intensity: intensity}, nil
}

// ClassifierOutputFromArgs reads classifier output from tool call arguments.
func ClassifierOutputFromArgs(args map[string]any) (ClassifierOutput, error) {
	trigger, _ := args["trigger"].(string)
	trigger = strings.ToLower(strings.TrimSpace(trigger))
	if trigger == "" {
		return ClassifierOutput{}, fmt.Errorf("missing trigger")
	}

	intensity := 0.5
	switch v := args["intensity"].(type) {
	case float64:
		intensity = v
	case int:
		intensity = float64(v)
	}
	return ClassifierOutput{Trigger: trigger, Intensity: intensity}, nil
}

func extractJSONObject(raw string) string {
	clean := strings.TrimSpace(raw)
	start := strings.Index(clean, "{")
	end := strings.LastIndex(clean, "}")
	if start >= 0 && end > start {
		clean = clean[start : end+1]
	}
	return clean
}
