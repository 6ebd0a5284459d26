package core

import (
	"strings"
	"time"
)

// PhaseMode selects how a phase runs its responders.
type PhaseMode string

const (
	// ModeSequential invokes responders one at a time in listed order.
	ModeSequential PhaseMode = "sequential"
	// ModeParallel invokes all responders concurrently; partial success is
	// expected and normal.
	ModeParallel PhaseMode = "parallel"
	// ModePipeline invokes responders one at a time, feeding each the
	// previous responder's result so they can build on one another.
	ModePipeline PhaseMode = "pipeline"
	// ModeConditional evaluates a per-responder predicate before invoking;
	// responders whose predicate fails are skipped.
	ModeConditional PhaseMode = "conditional"
)

// Complexity is the strategy's coarse estimate of how demanding a plan is.
type Complexity string

const (
	// ComplexitySimple marks single-phase, single-responder plans.
	ComplexitySimple Complexity = "simple"
	// ComplexityModerate marks the common multi-responder case.
	ComplexityModerate Complexity = "moderate"
	// ComplexityComplex marks multi-phase plans with cross-phase dependencies.
	ComplexityComplex Complexity = "complex"
)

// RetryPolicy controls re-invocation of a failed responder. Backoff is linear
// (the same wait between every attempt), not exponential. An empty
// RetryableConditions list means any error is retryable; otherwise the error
// text must contain one of the listed fragments.
type RetryPolicy struct {
	MaxAttempts         int           `json:"max_attempts"`
	Backoff             time.Duration `json:"backoff"`
	RetryableConditions []string      `json:"retryable_conditions,omitempty"`
}

// Retryable reports whether err qualifies for another attempt under this policy.
func (p RetryPolicy) Retryable(err error) bool {
	if err == nil {
		return false
	}
	if len(p.RetryableConditions) == 0 {
		return true
	}
	msg := err.Error()
	for _, cond := range p.RetryableConditions {
		if cond != "" && strings.Contains(msg, cond) {
			return true
		}
	}
	return false
}

// AgentExecution is one responder slot inside a phase. Built fresh per plan
// and discarded with it. Condition is only consulted in ModeConditional
// phases; nil means always run.
type AgentExecution struct {
	ResponderID       string                   `json:"responder_id"`
	Priority          float64                  `json:"priority"`
	ExpectedRole      string                   `json:"expected_role"`
	EstimatedDuration time.Duration            `json:"estimated_duration"`
	RetryPolicy       *RetryPolicy             `json:"retry_policy,omitempty"`
	Condition         func(SceneAnalysis) bool `json:"-"`
}

// ConditionKind identifies a phase gate check.
type ConditionKind string

const (
	// ConditionSceneConfidence gates on the scene classifier's confidence.
	ConditionSceneConfidence ConditionKind = "scene_confidence"
	// ConditionPoolSize gates on the number of available responders.
	ConditionPoolSize ConditionKind = "responder_pool_size"
	// ConditionCustom delegates to an arbitrary predicate.
	ConditionCustom ConditionKind = "custom"
)

// PhaseCondition gates whether a phase runs at all. A failed condition skips
// the phase silently: no results, no error.
type PhaseCondition struct {
	Kind      ConditionKind                            `json:"kind"`
	Threshold float64                                  `json:"threshold"`
	Predicate func(scene SceneAnalysis, pool int) bool `json:"-"`
}

// Evaluate reports whether the gate passes for the given scene and pool size.
// Unknown kinds pass so a malformed condition never silently disables a phase.
func (c PhaseCondition) Evaluate(scene SceneAnalysis, poolSize int) bool {
	switch c.Kind {
	case ConditionSceneConfidence:
		return scene.Confidence >= c.Threshold
	case ConditionPoolSize:
		return float64(poolSize) >= c.Threshold
	case ConditionCustom:
		if c.Predicate == nil {
			return true
		}
		return c.Predicate(scene, poolSize)
	default:
		return true
	}
}

// Phase is one unit of an execution plan with a single concurrency mode.
// Phases execute in declaration order; Dependencies gate whether a phase runs
// (it is skipped when a named dependency produced no successful result), not
// when it runs.
type Phase struct {
	Name         string           `json:"name"`
	Agents       []AgentExecution `json:"agents"`
	Mode         PhaseMode        `json:"mode"`
	Dependencies []string         `json:"dependencies,omitempty"`
	Timeout      time.Duration    `json:"timeout"`
	Conditions   []PhaseCondition `json:"conditions,omitempty"`
}

// ResourceRequirements is the strategy's declared resource envelope.
type ResourceRequirements struct {
	MaxConcurrent  int           `json:"max_concurrent"`
	EstimatedTotal time.Duration `json:"estimated_total"`
}

// ExecutionPlan is the scheduler's output for one turn: which responders run,
// in what shape, under what gates. Immutable after the scheduler's
// optimization pass; never persisted beyond the turn.
type ExecutionPlan struct {
	StrategyName       string               `json:"strategy_name"`
	Phases             []Phase              `json:"phases"`
	Resources          ResourceRequirements `json:"resources"`
	QualityExpectation float64              `json:"quality_expectation"`
	Complexity         Complexity           `json:"complexity"`
}

// TotalSlots returns the number of declared responder slots across all
// phases. RunPlan never yields more results than this.
func (p *ExecutionPlan) TotalSlots() int {
	n := 0
	for _, ph := range p.Phases {
		n += len(ph.Agents)
	}
	return n
}
