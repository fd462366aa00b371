package prompt

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"google.golang.org/genai"

	"github.com/easeaico/project-idol/internal/emotion"
	"github.com/easeaico/project-idol/internal/persona"
	"github.com/easeaico/project-idol/internal/types"
)

// BuildContext contains all inputs for prompt assembly.
type BuildContext struct {
	Persona   persona.Config
	Style     persona.Style
	Intensity float64
	// Recent is the user's memory log, newest first.
	Recent      []types.MemoryEntry
	Related     []types.RetrievedMemory
	UserMessage string
}

// Builder assembles the persona prompt.
type Builder struct {
	historyLimit int
	clock        clockwork.Clock
}

// NewBuilder creates a prompt Builder.
func NewBuilder(historyLimit int, clock clockwork.Clock) *Builder {
	if historyLimit <= 0 {
		historyLimit = 10
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Builder{
		historyLimit: historyLimit,
		clock:        clock,
	}
}

// Build returns the system instruction and the user turn.
func (b *Builder) Build(ctx BuildContext) ([]*genai.Content, error) {
	if strings.TrimSpace(ctx.Persona.Name) == "" {
		return nil, fmt.Errorf("persona name is required")
	}

	recent := ctx.Recent
	if len(recent) > b.historyLimit {
		recent = recent[:b.historyLimit]
	}

	data := struct {
		Persona         persona.Config
		Style           persona.Style
		Intensity       float64
		MoodInstruction string
		Related         []types.RetrievedMemory
		Now             string
	}{
		Persona:         ctx.Persona,
		Style:           ctx.Style,
		Intensity:       ctx.Intensity,
		MoodInstruction: emotion.MoodInstruction(emotion.State(ctx.Style.Mood)),
		Related:         ctx.Related,
		Now:             b.clock.Now().Format(time.RFC3339),
	}

	var buf bytes.Buffer
	if err := promptTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to build prompt: %w", err)
	}

	style := ctx.Style
	systemContent := genai.NewContentFromText(buf.String(), "system")
	userContent := genai.NewContentFromText(FormatPrompt(ctx.UserMessage, chronological(recent), &style), "user")
	return []*genai.Content{systemContent, userContent}, nil
}

// FormatPrompt lays out context, style and the user message as a plain
// completion prompt ending in "Assistant:".
func FormatPrompt(userMessage string, context []types.MemoryEntry, style *persona.Style) string {
	var parts []string

	if len(context) > 0 {
		lines := make([]string, 0, len(context))
		for _, m := range context {
			lines = append(lines, fmt.Sprintf("- (%s) %s", m.Role, m.Content))
		}
		parts = append(parts, "Context:\n"+strings.Join(lines, "\n"))
	}

	if style != nil {
		parts = append(parts, fmt.Sprintf("Style: tone=%s; mood=%s; style=%s", style.Tone, style.Mood, style.Style))
	}

	parts = append(parts, "User: "+userMessage, "Assistant:")
	return strings.Join(parts, "\n")
}

// chronological returns a copy of newest-first entries in oldest-first order.
func chronological(entries []types.MemoryEntry) []types.MemoryEntry {
	out := make([]types.MemoryEntry, len(entries))
	for i, e := range entries {
		out[len(entries)-1-i] = e
	}
	return out
}

func join(items []string, sep string) string {
	return strings.Join(items, sep)
}
