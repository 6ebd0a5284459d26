package core

// SceneType categorizes the conversational situation a turn belongs to.
// The set is fixed; classifiers must map anything unrecognized to
// SceneCasualChat with low confidence.
type SceneType string

const (
	// SceneCasualChat is relaxed small talk with no strong goal.
	SceneCasualChat SceneType = "casual_chat"
	// SceneEmotionalSupport indicates the user is seeking comfort or empathy.
	SceneEmotionalSupport SceneType = "emotional_support"
	// SceneTaskAssistance indicates a concrete task the user wants done.
	SceneTaskAssistance SceneType = "task_assistance"
	// SceneCreativeBrainstorm indicates open-ended idea generation.
	SceneCreativeBrainstorm SceneType = "creative_brainstorm"
	// SceneKnowledgeQuery indicates a factual question.
	SceneKnowledgeQuery SceneType = "knowledge_query"
	// SceneConflictResolution indicates mediation between disagreeing parties.
	SceneConflictResolution SceneType = "conflict_resolution"
	// SceneGroupDiscussion indicates a multi-party exchange of viewpoints.
	SceneGroupDiscussion SceneType = "group_discussion"
	// SceneStorytelling indicates collaborative narrative construction.
	SceneStorytelling SceneType = "storytelling"
	// SceneRoleplay indicates in-character interaction.
	SceneRoleplay SceneType = "roleplay"
)

// Emotion is the coarse emotional category detected for a turn.
type Emotion string

const (
	// EmotionNeutral is the absence of a detectable dominant emotion.
	EmotionNeutral Emotion = "neutral"
	// EmotionPositive covers joy, satisfaction and gratitude.
	EmotionPositive Emotion = "positive"
	// EmotionNegative covers sadness, frustration and anger.
	EmotionNegative Emotion = "negative"
	// EmotionExcited covers enthusiasm and anticipation.
	EmotionExcited Emotion = "excited"
	// EmotionAnxious covers worry and uncertainty.
	EmotionAnxious Emotion = "anxious"
)

// SocialDynamics captures the interpersonal texture of the conversation.
// GroupCohesion is in [0,1]; low cohesion makes the scheduler prefer
// sequential execution over parallel fan-out.
type SocialDynamics struct {
	Tone          string  `json:"tone"`
	PowerBalance  string  `json:"power_balance"`
	IntimacyLevel string  `json:"intimacy_level"`
	GroupCohesion float64 `json:"group_cohesion"`
}

// UserIntent describes what the user is trying to achieve this turn.
// Urgency is in [0,1] and drives the scheduler's efficiency override.
type UserIntent struct {
	Primary     string   `json:"primary"`
	Secondary   []string `json:"secondary,omitempty"`
	Urgency     float64  `json:"urgency"`
	Expectation string   `json:"expectation"`
}

// ConversationFlow describes where in the dialogue arc the turn sits.
type ConversationFlow struct {
	Phase    string `json:"phase"`
	Momentum string `json:"momentum"`
	Pattern  string `json:"pattern"`
}

// ParticipationSuggestion is the classifier's per-responder hint about who
// should speak and in what role. Priority is an independent ranking score in
// [0,1]; priorities across a plan need not sum to 1.
type ParticipationSuggestion struct {
	ResponderID          string  `json:"responder_id"`
	Role                 string  `json:"role"`
	Timing               string  `json:"timing"`
	ExpectedContribution string  `json:"expected_contribution"`
	Priority             float64 `json:"priority"`
}

// SceneAnalysis is the immutable, externally produced classification of one
// conversational turn. It is the sole input driving strategy selection; the
// orchestration core never mutates it.
type SceneAnalysis struct {
	Type               SceneType                 `json:"type"`
	SecondaryType      SceneType                 `json:"secondary_type,omitempty"`
	PrimaryEmotion     Emotion                   `json:"primary_emotion"`
	EmotionalIntensity float64                   `json:"emotional_intensity"`
	Topics             []string                  `json:"topics,omitempty"`
	Confidence         float64                   `json:"confidence"`
	Dynamics           SocialDynamics            `json:"dynamics"`
	Intent             UserIntent                `json:"intent"`
	Flow               ConversationFlow          `json:"flow"`
	Participation      []ParticipationSuggestion `json:"participation,omitempty"`
}

// SuggestionFor returns the participation suggestion for a responder id, if
// the classifier produced one.
func (s SceneAnalysis) SuggestionFor(responderID string) (ParticipationSuggestion, bool) {
	for _, p := range s.Participation {
		if p.ResponderID == responderID {
			return p, true
		}
	}
	return ParticipationSuggestion{}, false
}
