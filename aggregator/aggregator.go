package aggregator

import (
	"sort"
	"strings"

	"github.com/chorusmesh/chorus/core"
	"github.com/chorusmesh/chorus/logging"
	"github.com/chorusmesh/chorus/textscore"
)

// SuccessRates exposes historical per-strategy success ratios for selection
// scoring. *scheduler.History satisfies it, so scheduling and aggregation can
// share one history or keep separate ones.
type SuccessRates interface {
	SuccessRate(strategy string) float64
}

// neutralRates is the no-history default: every strategy scores the 0.5 prior.
type neutralRates struct{}

func (neutralRates) SuccessRate(string) float64 { return 0.5 }

// Weights blends the three selection signals, mirroring the scheduler.
type Weights struct {
	Applicability float64
	History       float64
	Fitness       float64
}

// DefaultWeights is the canonical 0.4/0.3/0.3 blend.
var DefaultWeights = Weights{Applicability: 0.4, History: 0.3, Fitness: 0.3}

// DefaultMinQuality is the quality floor below which one repair pass runs.
const DefaultMinQuality = 0.7

// Similarity above which two responses count as near-duplicates during
// repair.
const duplicateThreshold = 0.85

// Relevance below which a response is dropped during repair.
const relevanceFloor = 0.1

// Mutual similarity above which a result set counts as convergent, which
// hard-prefers a consensus-style strategy.
const convergenceThreshold = 0.8

// Options configures an Aggregator.
type Options struct {
	Logger     logging.Logger
	Similarity textscore.SimilarityScorer
	Emotion    textscore.EmotionDetector
	History    SuccessRates
	Weights    Weights
	MinQuality float64
}

// Aggregator scores and selects one aggregation strategy per turn, delegates
// response selection to it and quality-scores the outcome. It is safe for
// concurrent use; all mutable state lives in the injected catalog and
// history.
type Aggregator struct {
	catalog    *Catalog
	scorer     *Scorer
	similarity textscore.SimilarityScorer
	history    SuccessRates
	weights    Weights
	minQuality float64
	logger     logging.Logger
}

// New constructs an Aggregator over the given catalog.
func New(catalog *Catalog, optFns ...func(o *Options)) *Aggregator {
	opts := Options{
		Logger:     logging.NoOpLogger{},
		Similarity: textscore.NewLexicalScorer(),
		Emotion:    textscore.NewKeywordDetector(),
		History:    neutralRates{},
		Weights:    DefaultWeights,
		MinQuality: DefaultMinQuality,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.History == nil {
		opts.History = neutralRates{}
	}
	return &Aggregator{
		catalog:    catalog,
		scorer:     NewScorer(opts.Similarity, opts.Emotion),
		similarity: opts.Similarity,
		history:    opts.History,
		weights:    opts.Weights,
		minQuality: opts.MinQuality,
		logger:     opts.Logger,
	}
}

// Aggregate merges one turn's results. It never fails: an empty or fully
// failed result set yields a deterministic zero-quality non-error result.
func (a *Aggregator) Aggregate(results []core.AgentResult, actx Context) core.AggregatedResult {
	successful := make([]core.AgentResult, 0, len(results))
	for _, r := range results {
		if r.HasContent() {
			successful = append(successful, r)
		}
	}

	if len(successful) == 0 {
		return core.AggregatedResult{
			Success:        false,
			FinalResponses: []core.Response{},
			QualityScore:   0,
			Metadata: core.AggregationMetadata{
				Strategy:        "none",
				TotalResponders: len(results),
			},
			Recommendations: []string{"no successful responder output, review responder configuration"},
		}
	}

	strategy := a.selectStrategy(successful, actx)
	strategyName := "fallback"
	var final []core.Response
	if strategy != nil {
		strategyName = strategy.Name()
		final = strategy.Merge(successful, actx)
	} else {
		final = fallbackMerge(successful)
	}
	breakdown := a.scorer.Breakdown(final, actx)

	if breakdown.WeightedScore() < a.minQuality {
		if repaired := a.repair(final, actx); len(repaired) > 0 {
			// One recompute after the single repair pass, never looped.
			final = repaired
			breakdown = a.scorer.Breakdown(final, actx)
		}
	}

	quality := breakdown.WeightedScore()
	a.logger.Debug("aggregator: merged results",
		"strategy", strategyName, "responses", len(final), "quality", quality)

	return core.AggregatedResult{
		Success:        len(final) > 0,
		FinalResponses: final,
		QualityScore:   quality,
		Confidence:     meanConfidence(final),
		Metadata: core.AggregationMetadata{
			Strategy:             strategyName,
			TotalResponders:      len(results),
			SuccessfulResponders: len(successful),
			QualityBreakdown:     breakdown,
		},
		Recommendations: a.recommendations(results, successful, quality, breakdown),
		NextActions:     a.nextActions(quality, actx),
	}
}

// selectStrategy mirrors the scheduler: hard overrides first, then the
// weighted applicability/history/fitness blend with registration-order
// tie-breaking. With no applicable strategy the first registered one serves
// as last resort; an empty catalog returns nil and Aggregate falls back to
// the pass-through merge.
func (a *Aggregator) selectStrategy(results []core.AgentResult, actx Context) Strategy {
	all := a.catalog.All()
	if len(all) == 0 {
		a.logger.Warn("aggregator: empty strategy catalog, using fallback merge", "results", len(results))
		return nil
	}

	var applicable []Strategy
	for _, st := range all {
		if st.IsApplicable(results, actx) {
			applicable = append(applicable, st)
		}
	}
	if len(applicable) == 0 {
		a.logger.Warn("aggregator: no applicable strategy, using first registered", "results", len(results))
		return all[0]
	}

	if st := a.override(results, actx, applicable); st != nil {
		return st
	}

	best := applicable[0]
	bestScore := -1.0
	for _, st := range applicable {
		score := a.weights.Applicability*st.Applicability(results, actx) +
			a.weights.History*a.history.SuccessRate(st.Name()) +
			a.weights.Fitness*contextFitness(st, results, actx)
		if score > bestScore {
			best = st
			bestScore = score
		}
	}
	return best
}

// override implements the hard preferences that precede scoring. Each only
// takes effect when the preferred strategy is in the applicable set.
func (a *Aggregator) override(results []core.AgentResult, actx Context, applicable []Strategy) Strategy {
	if len(results) >= 3 && a.mutualSimilarity(results) > convergenceThreshold {
		if st := findByHint(applicable, "consensus"); st != nil {
			return st
		}
	}
	if actx.Scene.Type == core.SceneEmotionalSupport {
		if st := findByHint(applicable, "emotion"); st != nil {
			return st
		}
	}
	return nil
}

func (a *Aggregator) mutualSimilarity(results []core.AgentResult) float64 {
	contents := make([]string, 0, len(results))
	for _, r := range results {
		contents = append(contents, r.Data.Content)
	}
	return textscore.AveragePairwise(a.similarity, contents)
}

func findByHint(strategies []Strategy, hints ...string) Strategy {
	for _, st := range strategies {
		name := strings.ToLower(st.Name())
		for _, h := range hints {
			if strings.Contains(name, h) {
				return st
			}
		}
	}
	return nil
}

// contextFitness rewards known scene/strategy affinities over result-set
// properties. Hints are matched on the strategy name so custom strategies
// can opt into affinities by naming convention.
func contextFitness(st Strategy, results []core.AgentResult, actx Context) float64 {
	name := strings.ToLower(st.Name())
	score := 0.5

	switch actx.Scene.Type {
	case core.SceneEmotionalSupport:
		if strings.Contains(name, "emotion") {
			score += 0.3
		}
	case core.SceneCreativeBrainstorm:
		if strings.Contains(name, "diversity") || strings.Contains(name, "synthesis") {
			score += 0.3
		}
	case core.SceneGroupDiscussion, core.SceneConflictResolution:
		if strings.Contains(name, "consensus") {
			score += 0.3
		}
	case core.SceneKnowledgeQuery, core.SceneTaskAssistance:
		if strings.Contains(name, "quality") {
			score += 0.2
		}
	}

	if actx.Scene.Confidence < 0.6 && strings.Contains(name, "confidence") {
		score += 0.2
	}
	if len(results) >= 4 && strings.Contains(name, "consensus") {
		score += 0.1
	}

	return core.Clamp01(score)
}

// repair is the bounded quality-recovery pass: drop near-duplicates to raise
// coherence-per-response value, then drop responses with almost no overlap
// with the user's message to raise relevance. At least one response always
// survives.
func (a *Aggregator) repair(responses []core.Response, actx Context) []core.Response {
	deduped := make([]core.Response, 0, len(responses))
	for _, cand := range responses {
		dup := false
		for _, kept := range deduped {
			if a.similarity.Score(cand.Content, kept.Content) > duplicateThreshold {
				dup = true
				break
			}
		}
		if !dup {
			deduped = append(deduped, cand)
		}
	}

	if actx.UserMessage == "" {
		return deduped
	}
	relevant := make([]core.Response, 0, len(deduped))
	for _, r := range deduped {
		if a.similarity.Score(r.Content, actx.UserMessage) >= relevanceFloor {
			relevant = append(relevant, r)
		}
	}
	if len(relevant) == 0 {
		return deduped
	}
	return relevant
}

func (a *Aggregator) recommendations(all, successful []core.AgentResult, quality float64, breakdown core.QualityBreakdown) []string {
	var recs []string
	if len(all) > 0 && float64(len(successful))/float64(len(all)) < 0.5 {
		recs = append(recs, "success rate low, review responder configuration")
	}
	if quality < a.minQuality {
		recs = append(recs, "quality below target after repair, consider adding more capable responders")
	}
	if breakdown.Coherence < 0.4 {
		recs = append(recs, "responses diverge strongly, a sequential strategy may produce more coherent output")
	}
	return recs
}

// nextActions produces the ranked advisory follow-ups. They never affect
// control flow.
func (a *Aggregator) nextActions(quality float64, actx Context) []core.NextAction {
	var actions []core.NextAction
	if quality < 0.6 {
		actions = append(actions, core.NextAction{
			Action:   "escalate",
			Priority: 0.9,
			Reason:   "aggregate quality below acceptable threshold",
		})
	}
	if actx.Scene.Intent.Urgency > 0.7 {
		actions = append(actions, core.NextAction{
			Action:   "clarify",
			Priority: 0.8,
			Reason:   "high urgency, confirm the response meets the immediate need",
		})
	}
	if actx.Scene.EmotionalIntensity >= 0.6 {
		actions = append(actions, core.NextAction{
			Action:   "emotional_followup",
			Priority: 0.7,
			Reason:   "high emotional intensity, check in with the user",
		})
	}

	sort.SliceStable(actions, func(i, j int) bool { return actions[i].Priority > actions[j].Priority })
	return actions
}

// fallbackMerge is the strategy-free safety net, mirroring the scheduler's
// fallback plan: pass results through in confidence order, capped at the
// usual response limit.
func fallbackMerge(results []core.AgentResult) []core.Response {
	responses := toResponses(results)
	sort.SliceStable(responses, func(i, j int) bool {
		return responses[i].Confidence > responses[j].Confidence
	})
	if len(responses) > maxFinalResponses {
		responses = responses[:maxFinalResponses]
	}
	return responses
}

func meanConfidence(responses []core.Response) float64 {
	if len(responses) == 0 {
		return 0
	}
	var sum float64
	for _, r := range responses {
		sum += r.Confidence
	}
	return core.Clamp01(sum / float64(len(responses)))
}
