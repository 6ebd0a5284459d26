package core

import "context"

// Input is the opaque structure passed through to responders. The
// orchestration core never inspects it beyond attaching the prior-result
// accumulator in pipeline phases; responder implementations decide how to
// render it into a prompt.
type Input struct {
	ConversationID string        `json:"conversation_id"`
	UserMessage    string        `json:"user_message"`
	Scene          SceneAnalysis `json:"scene"`
	ExpectedRole   string        `json:"expected_role,omitempty"`
	PriorResults   []AgentResult `json:"prior_results,omitempty"`
}

// WithRole returns a copy of the input carrying the given expected role.
func (in Input) WithRole(role string) Input {
	in.ExpectedRole = role
	return in
}

// WithPrior returns a copy of the input with the prior-result accumulator
// extended by one result. The original slice is not shared, so concurrent
// invocations never observe each other's accumulators.
func (in Input) WithPrior(r AgentResult) Input {
	prior := make([]AgentResult, 0, len(in.PriorResults)+1)
	prior = append(prior, in.PriorResults...)
	prior = append(prior, r)
	in.PriorResults = prior
	return in
}

// Responder is an external execution unit that turns an input into generated
// text content plus a confidence score. Implementations must respect context
// cancellation; the executor bounds each phase with a wall-clock deadline.
//
// Execute may signal failure either by returning a non-nil error or by
// returning a result with Success=false; the executor normalizes both into a
// failed AgentResult and never aborts the phase.
type Responder interface {
	ID() string
	Capabilities() []string
	Execute(ctx context.Context, input Input) (AgentResult, error)
}
