package textscore

import (
	"strings"
	"unicode"
)

// SimilarityScorer scores how alike two texts are, in [0,1].
type SimilarityScorer interface {
	Score(a, b string) float64
}

// LexicalScorer is a token-overlap (Jaccard) similarity scorer. It is cheap,
// deterministic and language-agnostic; good enough for duplicate detection
// and relevance checks inside aggregation.
type LexicalScorer struct{}

// NewLexicalScorer constructs a LexicalScorer.
func NewLexicalScorer() *LexicalScorer { return &LexicalScorer{} }

// Score implements SimilarityScorer. Two empty texts score 1; one empty text
// scores 0.
func (s *LexicalScorer) Score(a, b string) float64 {
	ta := tokenSet(a)
	tb := tokenSet(b)
	if len(ta) == 0 && len(tb) == 0 {
		return 1
	}
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	inter := 0
	for tok := range ta {
		if _, ok := tb[tok]; ok {
			inter++
		}
	}
	union := len(ta) + len(tb) - inter
	return float64(inter) / float64(union)
}

// tokenSet lowercases and splits on any non letter/digit rune.
func tokenSet(text string) map[string]struct{} {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

// AveragePairwise returns the mean similarity over all unordered pairs of
// texts. A single text returns 1 (trivially coherent with itself); an empty
// slice returns 0.
func AveragePairwise(scorer SimilarityScorer, texts []string) float64 {
	if len(texts) == 0 {
		return 0
	}
	if len(texts) == 1 {
		return 1
	}
	var sum float64
	pairs := 0
	for i := 0; i < len(texts); i++ {
		for j := i + 1; j < len(texts); j++ {
			sum += scorer.Score(texts[i], texts[j])
			pairs++
		}
	}
	return sum / float64(pairs)
}
