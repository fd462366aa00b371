package utils

import (
	"testing"

	"google.golang.org/genai"
)

func TestExtractContentText(t *testing.T) {
	content := &genai.Content{Parts: []*genai.Part{{Text: "你好"}, nil, {Text: "呀"}}}
	if got := ExtractContentText(content); got != "你好呀" {
		t.Fatalf("unexpected text: %q", got)
	}
	if got := ExtractContentText(nil); got != "" {
		t.Fatalf("expected empty text for nil content, got %q", got)
	}
}

func TestNormalizePromptText(t *testing.T) {
	got := NormalizePromptText(`{{char}} 向 {{user}} 打招呼\n`, "琴音", "粉丝")
	if got != "琴音 向 粉丝 打招呼\n" {
		t.Fatalf("unexpected text: %q", got)
	}
}
