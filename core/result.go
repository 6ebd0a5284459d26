package core

import "time"

// Fixed weights combining the five quality dimensions into an overall score.
// These are contractual: the overall score is always the weighted sum of the
// breakdown under exactly these weights.
const (
	WeightCoherence          = 0.25
	WeightCompleteness       = 0.20
	WeightRelevance          = 0.30
	WeightDiversity          = 0.15
	WeightEmotionalAlignment = 0.10
)

// ResultData is the successful payload of one responder invocation.
type ResultData struct {
	Content    string  `json:"content"`
	Confidence float64 `json:"confidence"`
}

// ResultMetrics records observability data for one invocation, including
// retries consumed.
type ResultMetrics struct {
	ExecutionTime time.Duration `json:"execution_time"`
	Attempts      int           `json:"attempts"`
}

// AgentResult is the outcome of one responder invocation. Never mutated after
// creation; only read by the aggregator. A failed invocation carries Err and
// a nil Data.
type AgentResult struct {
	ResponderID string        `json:"responder_id"`
	Success     bool          `json:"success"`
	Data        *ResultData   `json:"data,omitempty"`
	Err         string        `json:"error,omitempty"`
	Metrics     ResultMetrics `json:"metrics"`
}

// FailedResult builds a failure AgentResult for a responder with the given error.
func FailedResult(responderID string, err error, metrics ResultMetrics) AgentResult {
	r := AgentResult{ResponderID: responderID, Success: false, Metrics: metrics}
	if err != nil {
		r.Err = err.Error()
	}
	return r
}

// HasContent reports whether the result succeeded with non-empty content.
func (r AgentResult) HasContent() bool {
	return r.Success && r.Data != nil && r.Data.Content != ""
}

// Response is one entry of the merged output returned to the caller.
type Response struct {
	ResponderID string  `json:"responder_id"`
	Content     string  `json:"content"`
	Confidence  float64 `json:"confidence"`
}

// QualityBreakdown scores a merged result set across the five fixed
// dimensions, each in [0,1].
type QualityBreakdown struct {
	Coherence          float64 `json:"coherence"`
	Completeness       float64 `json:"completeness"`
	Relevance          float64 `json:"relevance"`
	Diversity          float64 `json:"diversity"`
	EmotionalAlignment float64 `json:"emotional_alignment"`
}

// WeightedScore combines the dimensions under the fixed weights. Recomputing
// this from a returned breakdown must equal the returned quality score within
// floating-point tolerance.
func (q QualityBreakdown) WeightedScore() float64 {
	return WeightCoherence*q.Coherence +
		WeightCompleteness*q.Completeness +
		WeightRelevance*q.Relevance +
		WeightDiversity*q.Diversity +
		WeightEmotionalAlignment*q.EmotionalAlignment
}

// Clamped returns a copy with every dimension forced into [0,1].
func (q QualityBreakdown) Clamped() QualityBreakdown {
	q.Coherence = clamp01(q.Coherence)
	q.Completeness = clamp01(q.Completeness)
	q.Relevance = clamp01(q.Relevance)
	q.Diversity = clamp01(q.Diversity)
	q.EmotionalAlignment = clamp01(q.EmotionalAlignment)
	return q
}

// NextAction is an advisory follow-up suggestion ranked by priority. Never
// affects control flow.
type NextAction struct {
	Action   string  `json:"action"`
	Priority float64 `json:"priority"`
	Reason   string  `json:"reason,omitempty"`
}

// AggregationMetadata describes how the merged result was produced.
type AggregationMetadata struct {
	Strategy             string           `json:"strategy"`
	TotalResponders      int              `json:"total_responders"`
	SuccessfulResponders int              `json:"successful_responders"`
	QualityBreakdown     QualityBreakdown `json:"quality_breakdown"`
}

// AggregatedResult is the terminal artifact of one turn: the merged,
// quality-scored output of all responder invocations. Immutable once
// returned.
type AggregatedResult struct {
	Success         bool                `json:"success"`
	FinalResponses  []Response          `json:"final_responses"`
	QualityScore    float64             `json:"quality_score"`
	Confidence      float64             `json:"confidence"`
	Metadata        AggregationMetadata `json:"metadata"`
	Recommendations []string            `json:"recommendations,omitempty"`
	NextActions     []NextAction        `json:"next_actions,omitempty"`
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Clamp01 forces a score into [0,1]. Exported for strategy implementations
// that compute dimension scores from unbounded heuristics.
func Clamp01(v float64) float64 { return clamp01(v) }
