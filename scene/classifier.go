package scene

import (
	"context"

	"github.com/chorusmesh/chorus/core"
)

// Classifier produces the SceneAnalysis for one conversational turn. It may
// be backed by a language model or by rules; the orchestration core only
// consumes its typed output.
type Classifier interface {
	Classify(ctx context.Context, conversationID, userMessage string) (core.SceneAnalysis, error)
}

// ClassifierFunc adapts a plain function to the Classifier interface.
type ClassifierFunc func(ctx context.Context, conversationID, userMessage string) (core.SceneAnalysis, error)

// Classify implements Classifier.
func (f ClassifierFunc) Classify(ctx context.Context, conversationID, userMessage string) (core.SceneAnalysis, error) {
	return f(ctx, conversationID, userMessage)
}

// Fallback returns the safe default analysis substituted when classification
// fails or is unavailable: a low-confidence casual chat scene.
func Fallback() core.SceneAnalysis {
	return core.SceneAnalysis{
		Type:           core.SceneCasualChat,
		PrimaryEmotion: core.EmotionNeutral,
		Confidence:     0.3,
		Dynamics: core.SocialDynamics{
			Tone:          "neutral",
			PowerBalance:  "balanced",
			IntimacyLevel: "casual",
			GroupCohesion: 0.5,
		},
		Intent: core.UserIntent{
			Primary:     "chat",
			Urgency:     0.2,
			Expectation: "conversation",
		},
		Flow: core.ConversationFlow{
			Phase:    "ongoing",
			Momentum: "steady",
			Pattern:  "turn_taking",
		},
	}
}

// Classify resolves an analysis through the given classifier, substituting
// Fallback on error or nil classifier. It never returns an error.
func Classify(ctx context.Context, c Classifier, conversationID, userMessage string) core.SceneAnalysis {
	if c == nil {
		return Fallback()
	}
	analysis, err := c.Classify(ctx, conversationID, userMessage)
	if err != nil {
		return Fallback()
	}
	if analysis.Type == "" {
		analysis.Type = core.SceneCasualChat
	}
	return analysis
}
