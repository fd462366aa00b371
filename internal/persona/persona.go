// Package persona 描述偶像角色的固定设定与回复风格。
package persona

import (
	"strings"

	"github.com/easeaico/project-idol/internal/emotion"
	"github.com/easeaico/project-idol/internal/utils"
)

// Config is the static persona definition.
type Config struct {
	Name       string   `json:"name"`
	Style      string   `json:"style"`
	Greeting   string   `json:"greeting"`
	SpeechTone string   `json:"speech_tone"`
	Likes      []string `json:"likes"`
	MemoryTags []string `json:"memory_tags"`
}

// Style is the response style handed to the prompt builder.
type Style struct {
	Tone  string `json:"tone"`
	Mood  string `json:"mood"`
	Style string `json:"style"`
}

// Persona wraps a Config.
type Persona struct {
	cfg Config
}

// New returns a Persona with blank list entries removed and {{char}}
// placeholders in the greeting expanded.
func New(cfg Config) *Persona {
	cfg.Greeting = utils.NormalizePromptText(cfg.Greeting, cfg.Name, "user")
	cfg.Likes = compact(cfg.Likes)
	cfg.MemoryTags = compact(cfg.MemoryTags)
	return &Persona{cfg: cfg}
}

// Config returns a copy of the persona definition.
func (p *Persona) Config() Config {
	out := p.cfg
	out.Likes = append([]string(nil), p.cfg.Likes...)
	out.MemoryTags = append([]string(nil), p.cfg.MemoryTags...)
	return out
}

// Name returns the persona name.
func (p *Persona) Name() string {
	return p.cfg.Name
}

// Greeting returns the opening line.
func (p *Persona) Greeting() string {
	return p.cfg.Greeting
}

// ResponseStyle combines the persona tone with the given mood.
// Unknown moods are reported as neutral.
func (p *Persona) ResponseStyle(mood emotion.State) Style {
	if !mood.Valid() {
		mood = emotion.StateNeutral
	}
	return Style{
		Tone:  p.cfg.SpeechTone,
		Mood:  mood.String(),
		Style: p.cfg.Style,
	}
}

// SplitList parses a comma separated list, accepting the full-width comma too.
func SplitList(raw string) []string {
	raw = strings.ReplaceAll(raw, "，", ",")
	return compact(strings.Split(raw, ","))
}

func compact(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
