package aggregator

import (
	"sort"
	"strings"

	"github.com/chorusmesh/chorus/core"
	"github.com/chorusmesh/chorus/textscore"
)

// Most strategies cap the merged output at three responses; more than that
// stops reading as one coherent answer.
const maxFinalResponses = 3

// ConsensusStrategy favors mutually similar responses: the responses that
// most agree with the rest of the set. Coherence of its output is high by
// construction.
type ConsensusStrategy struct {
	similarity textscore.SimilarityScorer
}

// NewConsensusStrategy constructs a ConsensusStrategy.
func NewConsensusStrategy(similarity textscore.SimilarityScorer) *ConsensusStrategy {
	if similarity == nil {
		similarity = textscore.NewLexicalScorer()
	}
	return &ConsensusStrategy{similarity: similarity}
}

func (s *ConsensusStrategy) Name() string { return "consensus" }

// IsApplicable requires at least three results; consensus over fewer is
// meaningless.
func (s *ConsensusStrategy) IsApplicable(results []core.AgentResult, _ Context) bool {
	return len(results) >= 3
}

func (s *ConsensusStrategy) Applicability(results []core.AgentResult, actx Context) float64 {
	score := 0.5
	if len(results) >= 4 {
		score += 0.2
	}
	switch actx.Scene.Type {
	case core.SceneGroupDiscussion, core.SceneConflictResolution:
		score += 0.2
	}
	return core.Clamp01(score)
}

// Merge ranks each response by its mean similarity to all others and keeps
// the top agreeing ones.
func (s *ConsensusStrategy) Merge(results []core.AgentResult, _ Context) []core.Response {
	responses := toResponses(results)
	if len(responses) <= 1 {
		return responses
	}

	type scored struct {
		resp      core.Response
		agreement float64
	}
	ranked := make([]scored, len(responses))
	for i, r := range responses {
		var sum float64
		for j, other := range responses {
			if i == j {
				continue
			}
			sum += s.similarity.Score(r.Content, other.Content)
		}
		ranked[i] = scored{resp: r, agreement: sum / float64(len(responses)-1)}
	}

	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].agreement > ranked[j].agreement })

	n := len(ranked)
	if n > maxFinalResponses {
		n = maxFinalResponses
	}
	out := make([]core.Response, 0, n)
	for _, sc := range ranked[:n] {
		out = append(out, sc.resp)
	}
	return out
}

// ConfidenceWeightedStrategy keeps the most confident responses. It is the
// universal fallback among the built-ins: applicable to any non-empty set.
type ConfidenceWeightedStrategy struct{}

// NewConfidenceWeightedStrategy constructs a ConfidenceWeightedStrategy.
func NewConfidenceWeightedStrategy() *ConfidenceWeightedStrategy {
	return &ConfidenceWeightedStrategy{}
}

func (s *ConfidenceWeightedStrategy) Name() string { return "confidence_weighted" }

func (s *ConfidenceWeightedStrategy) IsApplicable(results []core.AgentResult, _ Context) bool {
	return len(results) >= 1
}

func (s *ConfidenceWeightedStrategy) Applicability(_ []core.AgentResult, actx Context) float64 {
	score := 0.5
	// Uncertain scenes lean on responder self-confidence.
	if actx.Scene.Confidence < 0.7 {
		score += 0.2
	}
	return core.Clamp01(score)
}

func (s *ConfidenceWeightedStrategy) Merge(results []core.AgentResult, _ Context) []core.Response {
	responses := toResponses(results)
	sort.SliceStable(responses, func(i, j int) bool { return responses[i].Confidence > responses[j].Confidence })
	if len(responses) > maxFinalResponses {
		responses = responses[:maxFinalResponses]
	}
	return responses
}

// EmotionAlignedStrategy keeps responses whose detected emotion matches the
// scene's target emotion.
type EmotionAlignedStrategy struct {
	emotion textscore.EmotionDetector
}

// NewEmotionAlignedStrategy constructs an EmotionAlignedStrategy.
func NewEmotionAlignedStrategy(emotion textscore.EmotionDetector) *EmotionAlignedStrategy {
	if emotion == nil {
		emotion = textscore.NewKeywordDetector()
	}
	return &EmotionAlignedStrategy{emotion: emotion}
}

func (s *EmotionAlignedStrategy) Name() string { return "emotion_aligned" }

func (s *EmotionAlignedStrategy) IsApplicable(results []core.AgentResult, actx Context) bool {
	if len(results) == 0 {
		return false
	}
	return actx.Scene.Type == core.SceneEmotionalSupport ||
		(actx.Scene.PrimaryEmotion != "" && actx.Scene.PrimaryEmotion != core.EmotionNeutral)
}

func (s *EmotionAlignedStrategy) Applicability(_ []core.AgentResult, actx Context) float64 {
	score := 0.4
	if actx.Scene.Type == core.SceneEmotionalSupport {
		score += 0.4
	}
	score += 0.2 * actx.Scene.EmotionalIntensity
	return core.Clamp01(score)
}

// Merge filters to aligned responses, falling back to the full set when the
// filter would leave nothing.
func (s *EmotionAlignedStrategy) Merge(results []core.AgentResult, actx Context) []core.Response {
	responses := toResponses(results)
	target := actx.Scene.PrimaryEmotion

	var aligned []core.Response
	for _, r := range responses {
		if s.emotion.Detect(r.Content) == target {
			aligned = append(aligned, r)
		}
	}
	if len(aligned) == 0 {
		aligned = responses
	}
	if len(aligned) > maxFinalResponses {
		aligned = aligned[:maxFinalResponses]
	}
	return aligned
}

// DiversityMaxStrategy selects a maximally dissimilar subset so the output
// covers distinct angles.
type DiversityMaxStrategy struct {
	similarity textscore.SimilarityScorer
}

// NewDiversityMaxStrategy constructs a DiversityMaxStrategy.
func NewDiversityMaxStrategy(similarity textscore.SimilarityScorer) *DiversityMaxStrategy {
	if similarity == nil {
		similarity = textscore.NewLexicalScorer()
	}
	return &DiversityMaxStrategy{similarity: similarity}
}

func (s *DiversityMaxStrategy) Name() string { return "diversity_max" }

func (s *DiversityMaxStrategy) IsApplicable(results []core.AgentResult, _ Context) bool {
	return len(results) >= 2
}

func (s *DiversityMaxStrategy) Applicability(results []core.AgentResult, actx Context) float64 {
	score := 0.4
	switch actx.Scene.Type {
	case core.SceneCreativeBrainstorm, core.SceneGroupDiscussion:
		score += 0.3
	}
	if len(results) >= 4 {
		score += 0.1
	}
	return core.Clamp01(score)
}

// Merge seeds with the most confident response, then greedily adds the
// response least similar to everything already selected.
func (s *DiversityMaxStrategy) Merge(results []core.AgentResult, _ Context) []core.Response {
	responses := toResponses(results)
	if len(responses) <= 1 {
		return responses
	}

	sort.SliceStable(responses, func(i, j int) bool { return responses[i].Confidence > responses[j].Confidence })
	selected := []core.Response{responses[0]}
	remaining := responses[1:]

	for len(selected) < maxFinalResponses && len(remaining) > 0 {
		bestIdx := 0
		bestMax := 2.0
		for i, cand := range remaining {
			maxSim := 0.0
			for _, sel := range selected {
				if sim := s.similarity.Score(cand.Content, sel.Content); sim > maxSim {
					maxSim = sim
				}
			}
			if maxSim < bestMax {
				bestMax = maxSim
				bestIdx = i
			}
		}
		selected = append(selected, remaining[bestIdx])
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}
	return selected
}

// QualityFirstStrategy returns the single best response, scored by a blend
// of self-confidence and relevance to the user's message.
type QualityFirstStrategy struct {
	similarity textscore.SimilarityScorer
}

// NewQualityFirstStrategy constructs a QualityFirstStrategy.
func NewQualityFirstStrategy(similarity textscore.SimilarityScorer) *QualityFirstStrategy {
	if similarity == nil {
		similarity = textscore.NewLexicalScorer()
	}
	return &QualityFirstStrategy{similarity: similarity}
}

func (s *QualityFirstStrategy) Name() string { return "quality_first" }

func (s *QualityFirstStrategy) IsApplicable(results []core.AgentResult, _ Context) bool {
	return len(results) >= 1
}

func (s *QualityFirstStrategy) Applicability(_ []core.AgentResult, actx Context) float64 {
	score := 0.5
	switch actx.Scene.Type {
	case core.SceneTaskAssistance, core.SceneKnowledgeQuery:
		score += 0.2
	}
	return core.Clamp01(score)
}

func (s *QualityFirstStrategy) Merge(results []core.AgentResult, actx Context) []core.Response {
	responses := toResponses(results)
	if len(responses) == 0 {
		return responses
	}

	best := responses[0]
	bestScore := -1.0
	for _, r := range responses {
		relevance := 0.5
		if actx.UserMessage != "" {
			relevance = s.similarity.Score(r.Content, actx.UserMessage)
		}
		sc := 0.7*r.Confidence + 0.3*relevance
		if sc > bestScore {
			best = r
			bestScore = sc
		}
	}
	return []core.Response{best}
}

// SynthesisMergeStrategy joins the top responses into one combined answer
// attributed to a synthetic responder id.
type SynthesisMergeStrategy struct{}

// NewSynthesisMergeStrategy constructs a SynthesisMergeStrategy.
func NewSynthesisMergeStrategy() *SynthesisMergeStrategy {
	return &SynthesisMergeStrategy{}
}

func (s *SynthesisMergeStrategy) Name() string { return "synthesis_merge" }

func (s *SynthesisMergeStrategy) IsApplicable(results []core.AgentResult, _ Context) bool {
	return len(results) >= 2
}

func (s *SynthesisMergeStrategy) Applicability(_ []core.AgentResult, actx Context) float64 {
	score := 0.4
	switch actx.Scene.Type {
	case core.SceneStorytelling, core.SceneRoleplay:
		score += 0.3
	}
	return core.Clamp01(score)
}

func (s *SynthesisMergeStrategy) Merge(results []core.AgentResult, _ Context) []core.Response {
	responses := toResponses(results)
	if len(responses) == 0 {
		return responses
	}

	sort.SliceStable(responses, func(i, j int) bool { return responses[i].Confidence > responses[j].Confidence })
	if len(responses) > maxFinalResponses {
		responses = responses[:maxFinalResponses]
	}

	parts := make([]string, 0, len(responses))
	var confidence float64
	for _, r := range responses {
		parts = append(parts, r.Content)
		confidence += r.Confidence
	}
	return []core.Response{{
		ResponderID: "synthesis",
		Content:     strings.Join(parts, "\n\n"),
		Confidence:  confidence / float64(len(responses)),
	}}
}

// DefaultCatalog returns a catalog with the six built-in aggregation
// strategies in their canonical order, sharing the given heuristics.
func DefaultCatalog(similarity textscore.SimilarityScorer, emotion textscore.EmotionDetector) *Catalog {
	c := NewCatalog()
	for _, st := range []Strategy{
		NewConsensusStrategy(similarity),
		NewConfidenceWeightedStrategy(),
		NewEmotionAlignedStrategy(emotion),
		NewDiversityMaxStrategy(similarity),
		NewQualityFirstStrategy(similarity),
		NewSynthesisMergeStrategy(),
	} {
		// Built-in names are unique; Register cannot fail here.
		_ = c.Register(st)
	}
	return c
}
