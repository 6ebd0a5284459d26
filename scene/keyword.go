package scene

import (
	"context"
	"strings"

	"github.com/chorusmesh/chorus/core"
	"github.com/chorusmesh/chorus/textscore"
)

// KeywordClassifier is a rule-based Classifier built on keyword matching and
// the textscore emotion detector. Confidence stays deliberately modest: rules
// cannot compete with a model-backed collaborator, and downstream scheduling
// already degrades gracefully on low confidence.
type KeywordClassifier struct {
	detector textscore.EmotionDetector
}

// NewKeywordClassifier constructs a classifier with the default emotion detector.
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{detector: textscore.NewKeywordDetector()}
}

// NewKeywordClassifierWithDetector constructs a classifier with a custom detector.
func NewKeywordClassifierWithDetector(d textscore.EmotionDetector) *KeywordClassifier {
	return &KeywordClassifier{detector: d}
}

var sceneKeywords = map[core.SceneType][]string{
	core.SceneEmotionalSupport:   {"feel", "feeling", "sad", "lonely", "depressed", "upset", "hurt", "comfort", "miss"},
	core.SceneCreativeBrainstorm: {"idea", "ideas", "brainstorm", "imagine", "what if", "invent", "creative"},
	core.SceneKnowledgeQuery:     {"what is", "how does", "why does", "explain", "who is", "when did", "define"},
	core.SceneTaskAssistance:     {"help me", "can you", "need to", "todo", "schedule", "fix", "write me", "plan"},
	core.SceneConflictResolution: {"argue", "argument", "disagree", "conflict", "fight", "mediate"},
	core.SceneStorytelling:       {"story", "once upon", "tell me a", "chapter", "narrative"},
	core.SceneRoleplay:           {"pretend", "roleplay", "act as", "in character"},
}

// Classify implements Classifier. It never returns an error; unmatched input
// falls back to a casual chat analysis enriched with the detected emotion.
func (k *KeywordClassifier) Classify(_ context.Context, _ string, userMessage string) (core.SceneAnalysis, error) {
	lower := strings.ToLower(userMessage)

	analysis := Fallback()
	analysis.PrimaryEmotion = k.detector.Detect(userMessage)

	// Fixed evaluation order keeps classification deterministic on ties.
	ordered := []core.SceneType{
		core.SceneEmotionalSupport,
		core.SceneCreativeBrainstorm,
		core.SceneKnowledgeQuery,
		core.SceneTaskAssistance,
		core.SceneConflictResolution,
		core.SceneStorytelling,
		core.SceneRoleplay,
	}

	bestHits := 0
	for _, sceneType := range ordered {
		hits := 0
		for _, kw := range sceneKeywords[sceneType] {
			if strings.Contains(lower, kw) {
				hits++
			}
		}
		if hits > bestHits {
			bestHits = hits
			analysis.Type = sceneType
		}
	}

	if bestHits > 0 {
		analysis.Confidence = 0.55 + 0.1*float64(min(bestHits, 3))
	}

	switch analysis.PrimaryEmotion {
	case core.EmotionNegative, core.EmotionAnxious:
		analysis.EmotionalIntensity = 0.7
		if bestHits == 0 {
			analysis.Type = core.SceneEmotionalSupport
			analysis.Confidence = 0.5
		}
	case core.EmotionExcited:
		analysis.EmotionalIntensity = 0.6
	case core.EmotionPositive:
		analysis.EmotionalIntensity = 0.4
	}

	if strings.Contains(lower, "urgent") || strings.Contains(lower, "asap") || strings.Contains(lower, "right now") {
		analysis.Intent.Urgency = 0.9
		analysis.Intent.Primary = "immediate_assistance"
	}

	return analysis, nil
}
