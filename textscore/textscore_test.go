package textscore

import (
	"testing"

	"github.com/chorusmesh/chorus/core"
	"github.com/stretchr/testify/assert"
)

func TestLexicalScorer_Score(t *testing.T) {
	s := NewLexicalScorer()

	assert.Equal(t, 1.0, s.Score("hello world", "Hello, world!"))
	assert.Equal(t, 0.0, s.Score("hello world", "completely different tokens"))
	assert.Equal(t, 1.0, s.Score("", ""))
	assert.Equal(t, 0.0, s.Score("hello", ""))

	// Partial overlap: {a,b,c} vs {b,c,d} -> 2/4.
	assert.InDelta(t, 0.5, s.Score("a b c", "b c d"), 1e-9)
}

func TestAveragePairwise(t *testing.T) {
	s := NewLexicalScorer()

	assert.Equal(t, 0.0, AveragePairwise(s, nil))
	assert.Equal(t, 1.0, AveragePairwise(s, []string{"only one"}))

	texts := []string{"a b c", "a b c", "x y z"}
	// Pairs: (1,2)=1, (1,3)=0, (2,3)=0 -> 1/3.
	assert.InDelta(t, 1.0/3.0, AveragePairwise(s, texts), 1e-9)
}

func TestKeywordDetector_Detect(t *testing.T) {
	d := NewKeywordDetector()

	tests := []struct {
		text string
		want core.Emotion
	}{
		{"I feel so sad and lonely today", core.EmotionNegative},
		{"thanks, that was great!", core.EmotionPositive},
		{"I'm worried and a bit scared about tomorrow", core.EmotionAnxious},
		{"wow this is amazing", core.EmotionExcited},
		{"what is the capital of France", core.EmotionNeutral},
		{"", core.EmotionNeutral},
	}
	for _, tt := range tests {
		assert.Equalf(t, tt.want, d.Detect(tt.text), "text %q", tt.text)
	}
}

func TestKeywordDetector_CustomLexicon(t *testing.T) {
	d := NewKeywordDetectorWithLexicon(map[core.Emotion][]string{
		core.EmotionExcited: {"zap"},
	})
	assert.Equal(t, core.EmotionExcited, d.Detect("ZAP zap"))
	assert.Equal(t, core.EmotionNeutral, d.Detect("sad")) // not in custom lexicon
}
