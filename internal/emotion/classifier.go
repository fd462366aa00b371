package emotion

import (
	"context"
	"strings"
)

// Classification is the trigger derived from a user message.
type Classification struct {
	Trigger   string  `json:"trigger"`
	Intensity float64 `json:"intensity"`
}

// Classifier derives a trigger from message text.
type Classifier interface {
	Classify(ctx context.Context, text string) (Classification, error)
}

// KnownTrigger reports whether trigger is one the classifiers emit.
func KnownTrigger(trigger string) bool {
	switch trigger {
	case TriggerPositive, TriggerNegative, TriggerExciting, TriggerComfort, TriggerNeutral:
		return true
	default:
		return false
	}
}

type weightedKeyword struct {
	keyword string
	weight  float64
}

// KeywordClassifier scores weighted keywords per trigger. It needs no model.
type KeywordClassifier struct {
	patterns map[string][]weightedKeyword
	order    []string
}

// NewKeywordClassifier returns a classifier with built-in bilingual patterns.
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{
		patterns: map[string][]weightedKeyword{
			TriggerExciting: {
				{keyword: "太棒了", weight: 0.5}, {keyword: "好激动", weight: 0.5},
				{keyword: "演唱会", weight: 0.4}, {keyword: "惊喜", weight: 0.4},
				{keyword: "amazing", weight: 0.5}, {keyword: "can't wait", weight: 0.5},
				{keyword: "concert", weight: 0.4}, {keyword: "surprise", weight: 0.4},
			},
			TriggerComfort: {
				{keyword: "别难过", weight: 0.6}, {keyword: "抱抱", weight: 0.5},
				{keyword: "没关系", weight: 0.4}, {keyword: "我在", weight: 0.3},
				{keyword: "it's okay", weight: 0.5}, {keyword: "hug", weight: 0.5},
				{keyword: "don't be sad", weight: 0.6}, {keyword: "i'm here", weight: 0.4},
			},
			TriggerPositive: {
				{keyword: "喜欢", weight: 0.4}, {keyword: "谢谢", weight: 0.3},
				{keyword: "可爱", weight: 0.4}, {keyword: "开心", weight: 0.3},
				{keyword: "哈哈", weight: 0.3}, {keyword: "love", weight: 0.4},
				{keyword: "thanks", weight: 0.3}, {keyword: "cute", weight: 0.4},
				{keyword: "great", weight: 0.3}, {keyword: "nice", weight: 0.3},
			},
			TriggerNegative: {
				{keyword: "讨厌", weight: 0.5}, {keyword: "无聊", weight: 0.4},
				{keyword: "烦", weight: 0.4}, {keyword: "难听", weight: 0.5},
				{keyword: "失望", weight: 0.4}, {keyword: "hate", weight: 0.5},
				{keyword: "boring", weight: 0.4}, {keyword: "annoying", weight: 0.4},
				{keyword: "terrible", weight: 0.5}, {keyword: "disappointed", weight: 0.4},
			},
		},
		// Ties resolve in this order.
		order: []string{TriggerExciting, TriggerComfort, TriggerNegative, TriggerPositive},
	}
}

// Classify returns the highest scoring trigger, or neutral when nothing matches.
// Intensity grows with the score and with exclamation marks.
func (c *KeywordClassifier) Classify(_ context.Context, text string) (Classification, error) {
	lower := strings.ToLower(text)

	best := TriggerNeutral
	bestScore := 0.0
	for _, trigger := range c.order {
		score := 0.0
		for _, kw := range c.patterns[trigger] {
			if strings.Contains(lower, kw.keyword) {
				score += kw.weight
			}
		}
		if score > bestScore {
			best = trigger
			bestScore = score
		}
	}

	if best == TriggerNeutral {
		return Classification{Trigger: TriggerNeutral, Intensity: BaselineIntensity}, nil
	}

	exclaims := strings.Count(text, "!") + strings.Count(text, "！")
	boost := float64(exclaims) * 0.1
	if boost > 0.2 {
		boost = 0.2
	}
	return Classification{
		Trigger:   best,
		Intensity: ClampIntensity(0.4 + bestScore + boost),
	}, nil
}
