package textscore

import (
	"strings"

	"github.com/chorusmesh/chorus/core"
)

// EmotionDetector classifies the dominant emotion of a text.
type EmotionDetector interface {
	Detect(text string) core.Emotion
}

// KeywordDetector detects emotion by counting lexicon hits per category and
// returning the category with the most hits. Ties and zero hits yield
// EmotionNeutral.
type KeywordDetector struct {
	lexicon map[core.Emotion][]string
}

// NewKeywordDetector constructs a detector with the built-in English lexicon.
func NewKeywordDetector() *KeywordDetector {
	return &KeywordDetector{lexicon: defaultLexicon}
}

// NewKeywordDetectorWithLexicon constructs a detector with a custom lexicon.
func NewKeywordDetectorWithLexicon(lexicon map[core.Emotion][]string) *KeywordDetector {
	return &KeywordDetector{lexicon: lexicon}
}

var defaultLexicon = map[core.Emotion][]string{
	core.EmotionPositive: {"thanks", "thank", "great", "love", "happy", "glad", "awesome", "wonderful", "nice", "good"},
	core.EmotionNegative: {"sad", "angry", "hate", "terrible", "awful", "upset", "frustrated", "depressed", "cry", "lonely", "hurt"},
	core.EmotionExcited:  {"wow", "amazing", "excited", "can't wait", "incredible", "fantastic", "yes!"},
	core.EmotionAnxious:  {"worried", "nervous", "scared", "afraid", "anxious", "stress", "stressed", "panic", "unsure"},
}

// Detect implements EmotionDetector.
func (d *KeywordDetector) Detect(text string) core.Emotion {
	lower := strings.ToLower(text)

	best := core.EmotionNeutral
	bestHits := 0
	for _, emotion := range []core.Emotion{core.EmotionNegative, core.EmotionAnxious, core.EmotionExcited, core.EmotionPositive} {
		hits := 0
		for _, kw := range d.lexicon[emotion] {
			if strings.Contains(lower, kw) {
				hits++
			}
		}
		if hits > bestHits {
			bestHits = hits
			best = emotion
		}
	}
	return best
}
