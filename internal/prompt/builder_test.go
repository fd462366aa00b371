package prompt

import (
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/easeaico/project-idol/internal/persona"
	"github.com/easeaico/project-idol/internal/types"
	"github.com/easeaico/project-idol/internal/utils"
)

func testPersona() persona.Config {
	return persona.Config{
		Name:       "星野 琴音",
		Style:      "元氣 / 有點中二",
		SpeechTone: "活潑、感性",
		Likes:      []string{"唱歌", "甜食"},
	}
}

func TestBuildIncludesPersonaMoodAndMemories(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2024, 6, 1, 20, 0, 0, 0, time.UTC))
	b := NewBuilder(2, clock)

	contents, err := b.Build(BuildContext{
		Persona:   testPersona(),
		Style:     persona.Style{Tone: "活潑、感性", Mood: "happy", Style: "元氣 / 有點中二"},
		Intensity: 0.8,
		Recent: []types.MemoryEntry{
			{Role: types.RoleAssistant, Content: "third"},
			{Role: types.RoleUser, Content: "second"},
			{Role: types.RoleUser, Content: "first"},
		},
		Related:     []types.RetrievedMemory{{Role: types.RoleUser, Content: "喜歡草莓蛋糕"}},
		UserMessage: "晚安",
	})
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if len(contents) != 2 {
		t.Fatalf("expected 2 contents, got %d", len(contents))
	}

	system := utils.ExtractContentText(contents[0])
	for _, want := range []string{"星野 琴音", "唱歌、甜食", "happy", "0.80", "语气温柔积极", "喜歡草莓蛋糕", "2024-06-01T20:00:00Z"} {
		if !strings.Contains(system, want) {
			t.Fatalf("expected system prompt to contain %q:\n%s", want, system)
		}
	}

	user := utils.ExtractContentText(contents[1])
	if strings.Contains(user, "first") {
		t.Fatalf("expected history limit to drop oldest entry:\n%s", user)
	}
	if strings.Index(user, "second") > strings.Index(user, "third") {
		t.Fatalf("expected context oldest first:\n%s", user)
	}
	if !strings.HasSuffix(user, "User: 晚安\nAssistant:") {
		t.Fatalf("unexpected user turn:\n%s", user)
	}
	if contents[1].Role != "user" {
		t.Fatalf("expected user role, got %s", contents[1].Role)
	}
}

func TestBuildRequiresPersonaName(t *testing.T) {
	if _, err := NewBuilder(0, nil).Build(BuildContext{UserMessage: "hi"}); err == nil {
		t.Fatalf("expected error without persona name")
	}
}

func TestBuildNeutralHasNoMoodInstruction(t *testing.T) {
	contents, err := NewBuilder(0, nil).Build(BuildContext{
		Persona:     testPersona(),
		Style:       persona.Style{Mood: "neutral"},
		UserMessage: "hi",
	})
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if strings.Contains(utils.ExtractContentText(contents[0]), "表现：") {
		t.Fatalf("expected no mood instruction for neutral")
	}
}

func TestFormatPrompt(t *testing.T) {
	got := FormatPrompt("你好", nil, nil)
	if got != "User: 你好\nAssistant:" {
		t.Fatalf("unexpected prompt: %q", got)
	}

	style := &persona.Style{Tone: "活潑", Mood: "happy", Style: "元氣"}
	got = FormatPrompt("你好", []types.MemoryEntry{{Role: "user", Content: "昨天的演唱會"}}, style)
	want := "Context:\n- (user) 昨天的演唱會\nStyle: tone=活潑; mood=happy; style=元氣\nUser: 你好\nAssistant:"
	if got != want {
		t.Fatalf("unexpected prompt:\n%q\nwant:\n%q", got, want)
	}
}
