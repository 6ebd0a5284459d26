package responder

import (
	"context"

	"github.com/chorusmesh/chorus/core"
)

// Static is a responder that always returns the same content. Useful for
// examples, smoke tests and canned fallback voices.
type Static struct {
	id           string
	capabilities []string
	content      string
	confidence   float64
}

// NewStatic constructs a Static responder.
func NewStatic(id, content string, confidence float64, capabilities ...string) *Static {
	return &Static{
		id:           id,
		capabilities: capabilities,
		content:      content,
		confidence:   core.Clamp01(confidence),
	}
}

// ID implements core.Responder.
func (s *Static) ID() string { return s.id }

// Capabilities implements core.Responder.
func (s *Static) Capabilities() []string { return s.capabilities }

// Execute implements core.Responder.
func (s *Static) Execute(ctx context.Context, _ core.Input) (core.AgentResult, error) {
	if err := ctx.Err(); err != nil {
		return core.FailedResult(s.id, err, core.ResultMetrics{}), err
	}
	return core.AgentResult{
		ResponderID: s.id,
		Success:     true,
		Data:        &core.ResultData{Content: s.content, Confidence: s.confidence},
	}, nil
}

// Func adapts a plain function into a core.Responder, the test double of
// choice when behavior needs to vary per invocation.
type Func struct {
	id           string
	capabilities []string
	fn           func(ctx context.Context, input core.Input) (core.AgentResult, error)
}

// NewFunc constructs a Func responder.
func NewFunc(id string, fn func(ctx context.Context, input core.Input) (core.AgentResult, error), capabilities ...string) *Func {
	return &Func{id: id, capabilities: capabilities, fn: fn}
}

// ID implements core.Responder.
func (f *Func) ID() string { return f.id }

// Capabilities implements core.Responder.
func (f *Func) Capabilities() []string { return f.capabilities }

// Execute implements core.Responder.
func (f *Func) Execute(ctx context.Context, input core.Input) (core.AgentResult, error) {
	return f.fn(ctx, input)
}
