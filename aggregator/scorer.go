package aggregator

import (
	"github.com/chorusmesh/chorus/core"
	"github.com/chorusmesh/chorus/textscore"
)

// Scorer computes the five-dimension quality breakdown for a response set.
// The similarity and emotion heuristics are pluggable; the dimension
// semantics and the combining weights are not.
type Scorer struct {
	similarity textscore.SimilarityScorer
	emotion    textscore.EmotionDetector
}

// NewScorer constructs a Scorer. Nil heuristics default to the built-in
// lexical scorer and keyword detector.
func NewScorer(similarity textscore.SimilarityScorer, emotion textscore.EmotionDetector) *Scorer {
	if similarity == nil {
		similarity = textscore.NewLexicalScorer()
	}
	if emotion == nil {
		emotion = textscore.NewKeywordDetector()
	}
	return &Scorer{similarity: similarity, emotion: emotion}
}

// Breakdown scores the response set across the five fixed dimensions, each
// clamped into [0,1]. An empty set scores zero everywhere.
func (s *Scorer) Breakdown(responses []core.Response, actx Context) core.QualityBreakdown {
	if len(responses) == 0 {
		return core.QualityBreakdown{}
	}

	contents := make([]string, len(responses))
	for i, r := range responses {
		contents[i] = r.Content
	}

	return core.QualityBreakdown{
		Coherence:          textscore.AveragePairwise(s.similarity, contents),
		Completeness:       s.completeness(responses, actx),
		Relevance:          s.relevance(contents, actx),
		Diversity:          s.diversity(contents),
		EmotionalAlignment: s.emotionalAlignment(contents, actx),
	}.Clamped()
}

// completeness blends responder coverage with content sufficiency.
func (s *Scorer) completeness(responses []core.Response, actx Context) float64 {
	coverage := 1.0
	if actx.TotalResponders > 0 {
		coverage = float64(len(responses)) / float64(actx.TotalResponders)
	}

	var length float64
	for _, r := range responses {
		l := float64(len(r.Content)) / 80
		if l > 1 {
			l = 1
		}
		length += l
	}
	length /= float64(len(responses))

	return 0.6*core.Clamp01(coverage) + 0.4*length
}

// relevance is the mean lexical overlap with the user's message. Without a
// user message there is nothing to compare against and the score is neutral.
func (s *Scorer) relevance(contents []string, actx Context) float64 {
	if actx.UserMessage == "" {
		return 0.5
	}
	var sum float64
	for _, c := range contents {
		sum += s.similarity.Score(c, actx.UserMessage)
	}
	return sum / float64(len(contents))
}

// diversity is the inverse of mutual similarity. A single response cannot be
// diverse and scores a low baseline rather than zero.
func (s *Scorer) diversity(contents []string) float64 {
	if len(contents) < 2 {
		return 0.3
	}
	return 1 - textscore.AveragePairwise(s.similarity, contents)
}

// emotionalAlignment is the fraction of responses whose detected emotion
// matches the scene's. Neutral scenes have no target to align with and score
// a relaxed baseline; a neutral response against an emotional scene counts as
// half aligned.
func (s *Scorer) emotionalAlignment(contents []string, actx Context) float64 {
	target := actx.Scene.PrimaryEmotion
	if target == "" || target == core.EmotionNeutral {
		return 0.7
	}

	var sum float64
	for _, c := range contents {
		switch s.emotion.Detect(c) {
		case target:
			sum += 1
		case core.EmotionNeutral:
			sum += 0.5
		}
	}
	return sum / float64(len(contents))
}
