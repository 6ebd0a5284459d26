package executor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chorusmesh/chorus/core"
	"github.com/chorusmesh/chorus/logging"
)

// Options configures an Executor.
type Options struct {
	// Logger receives structured execution logs. Defaults to NoOpLogger.
	Logger logging.Logger
	// Events is the advisory lifecycle side channel. A nil handler is valid.
	Events core.EventHandler
	// DefaultPhaseTimeout bounds phases that declare no timeout of their own.
	DefaultPhaseTimeout time.Duration
}

// Executor runs execution plans against a responder registry. Safe for
// concurrent use; all per-turn state lives on the stack of RunPlan.
type Executor struct {
	registry *core.Registry
	logger   logging.Logger
	events   core.EventHandler
	timeout  time.Duration
}

// New constructs an Executor over the given registry.
func New(registry *core.Registry, optFns ...func(o *Options)) *Executor {
	opts := Options{
		Logger:              logging.NoOpLogger{},
		DefaultPhaseTimeout: 30 * time.Second,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Executor{
		registry: registry,
		logger:   opts.Logger,
		events:   opts.Events,
		timeout:  opts.DefaultPhaseTimeout,
	}
}

// RunPlan executes every phase of the plan in declaration order and returns
// the accumulated results. The returned slice never exceeds the plan's total
// declared responder slots. RunPlan never returns an error: all failures are
// encoded as failed AgentResults.
func (e *Executor) RunPlan(ctx context.Context, plan *core.ExecutionPlan, input core.Input) []core.AgentResult {
	if plan == nil {
		return nil
	}

	var all []core.AgentResult
	turnID := input.ConversationID
	// Phase name -> number of successful results, for dependency gating.
	succeeded := make(map[string]int, len(plan.Phases))

	for _, phase := range plan.Phases {
		// Cancellation is only checked between phases, not mid-phase.
		if ctx.Err() != nil {
			e.logger.Info("executor: turn cancelled, returning accumulated results", "completed_phases", len(succeeded))
			break
		}

		if !e.phaseRunnable(phase, input.Scene, succeeded) {
			e.emitPhase(core.EventPhaseSkipped, turnID, phase.Name)
			succeeded[phase.Name] = 0
			continue
		}

		e.emitPhase(core.EventPhaseStarted, turnID, phase.Name)
		start := time.Now()

		timeout := phase.Timeout
		if timeout <= 0 {
			timeout = e.timeout
		}
		phaseCtx, cancel := context.WithTimeout(ctx, timeout)
		results := e.runPhase(phaseCtx, phase, input)
		cancel()

		ok := 0
		for _, r := range results {
			if r.Success {
				ok++
			}
			e.emitResponder(turnID, phase.Name, r)
		}
		succeeded[phase.Name] = ok
		all = append(all, results...)

		e.logger.Debug("executor: phase complete", "phase", phase.Name, "mode", phase.Mode, "results", len(results), "successes", ok, "duration", time.Since(start))
	}

	return all
}

// phaseRunnable evaluates condition gates and dependency gates. Dependencies
// gate whether a phase runs, not when: a dependency that produced zero
// successful results (or was itself skipped) disables its dependents.
func (e *Executor) phaseRunnable(phase core.Phase, scene core.SceneAnalysis, succeeded map[string]int) bool {
	poolSize := e.registry.Len()
	for _, cond := range phase.Conditions {
		if !cond.Evaluate(scene, poolSize) {
			return false
		}
	}
	for _, dep := range phase.Dependencies {
		if n, ran := succeeded[dep]; ran && n == 0 {
			return false
		}
	}
	return true
}

func (e *Executor) runPhase(ctx context.Context, phase core.Phase, input core.Input) []core.AgentResult {
	switch phase.Mode {
	case core.ModeParallel:
		return e.runParallel(ctx, phase, input)
	case core.ModePipeline:
		return e.runPipeline(ctx, phase, input)
	case core.ModeConditional:
		return e.runConditional(ctx, phase, input)
	default:
		return e.runSequential(ctx, phase, input)
	}
}

// runSequential invokes responders one at a time in listed order, each
// awaiting the previous. Invocation N+1 never starts before N completes.
// The phase budget is checked between slots: once it is exhausted the
// remaining slots are recorded as failures without being invoked, so a
// context-ignoring responder can overrun the budget by at most one
// invocation.
func (e *Executor) runSequential(ctx context.Context, phase core.Phase, input core.Input) []core.AgentResult {
	results := make([]core.AgentResult, 0, len(phase.Agents))
	for i, exec := range phase.Agents {
		if ctx.Err() != nil {
			results = append(results, e.expireRemaining(phase, phase.Agents[i:])...)
			break
		}
		results = append(results, e.invoke(ctx, exec, input.WithRole(exec.ExpectedRole)))
	}
	return results
}

// runParallel invokes all responders concurrently. Each invocation receives
// an independent copy of the phase input; completion order is not
// significant but results are reported in slot order for determinism. On
// phase timeout, in-flight invocations are abandoned and their slots recorded
// as failures.
func (e *Executor) runParallel(ctx context.Context, phase core.Phase, input core.Input) []core.AgentResult {
	results := make([]core.AgentResult, len(phase.Agents))
	var mu sync.Mutex
	filled := make([]bool, len(phase.Agents))

	var wg sync.WaitGroup
	for i, exec := range phase.Agents {
		wg.Add(1)
		go func(slot int, exec core.AgentExecution) {
			defer wg.Done()
			r := e.invoke(ctx, exec, input.WithRole(exec.ExpectedRole))
			mu.Lock()
			results[slot] = r
			filled[slot] = true
			mu.Unlock()
		}(i, exec)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		// Phase budget exhausted: abandon whatever is still in flight.
	}

	mu.Lock()
	defer mu.Unlock()
	out := make([]core.AgentResult, len(phase.Agents))
	for i, exec := range phase.Agents {
		if filled[i] {
			out[i] = results[i]
			continue
		}
		out[i] = core.FailedResult(exec.ResponderID, fmt.Errorf("phase %s timed out before responder completed", phase.Name), core.ResultMetrics{Attempts: 1})
	}
	return out
}

// runPipeline invokes responders one at a time, augmenting each invocation's
// input with the previous responder's result so responders build on one
// another. Failed links contribute their failure to the accumulator but do
// not break the chain. Like runSequential, an exhausted phase budget expires
// the remaining links instead of invoking them.
func (e *Executor) runPipeline(ctx context.Context, phase core.Phase, input core.Input) []core.AgentResult {
	results := make([]core.AgentResult, 0, len(phase.Agents))
	current := input
	for i, exec := range phase.Agents {
		if ctx.Err() != nil {
			results = append(results, e.expireRemaining(phase, phase.Agents[i:])...)
			break
		}
		r := e.invoke(ctx, exec, current.WithRole(exec.ExpectedRole))
		results = append(results, r)
		current = current.WithPrior(r)
	}
	return results
}

// runConditional evaluates each responder's predicate against the scene
// before invoking; responders whose predicate fails are skipped entirely
// (no result recorded).
func (e *Executor) runConditional(ctx context.Context, phase core.Phase, input core.Input) []core.AgentResult {
	results := make([]core.AgentResult, 0, len(phase.Agents))
	for _, exec := range phase.Agents {
		if exec.Condition != nil && !exec.Condition(input.Scene) {
			continue
		}
		if ctx.Err() != nil {
			results = append(results, e.expireSlot(phase, exec))
			continue
		}
		results = append(results, e.invoke(ctx, exec, input.WithRole(exec.ExpectedRole)))
	}
	return results
}

// expireRemaining marks slots the phase budget ran out for as failures
// without invoking them.
func (e *Executor) expireRemaining(phase core.Phase, remaining []core.AgentExecution) []core.AgentResult {
	out := make([]core.AgentResult, 0, len(remaining))
	for _, exec := range remaining {
		out = append(out, e.expireSlot(phase, exec))
	}
	return out
}

func (e *Executor) expireSlot(phase core.Phase, exec core.AgentExecution) core.AgentResult {
	e.logger.Warn("executor: phase budget exhausted, skipping responder", "phase", phase.Name, "responder", exec.ResponderID)
	return core.FailedResult(exec.ResponderID, fmt.Errorf("phase %s timed out before responder started", phase.Name), core.ResultMetrics{})
}

// invoke runs one responder slot under its retry policy. Backoff is linear:
// the policy's fixed wait between every attempt. Unknown responder ids and
// non-retryable errors become failed results immediately.
func (e *Executor) invoke(ctx context.Context, exec core.AgentExecution, input core.Input) core.AgentResult {
	responder, ok := e.registry.Get(exec.ResponderID)
	if !ok {
		return core.FailedResult(exec.ResponderID, fmt.Errorf("responder %q not registered", exec.ResponderID), core.ResultMetrics{Attempts: 1})
	}

	maxAttempts := 1
	var backoff time.Duration
	if exec.RetryPolicy != nil && exec.RetryPolicy.MaxAttempts > 1 {
		maxAttempts = exec.RetryPolicy.MaxAttempts
		backoff = exec.RetryPolicy.Backoff
	}

	start := time.Now()
	var lastErr error
	attempts := 0

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		attempts = attempt
		result, err := responder.Execute(ctx, input)
		if err == nil && result.Success {
			result.ResponderID = exec.ResponderID
			result.Metrics.ExecutionTime = time.Since(start)
			result.Metrics.Attempts = attempt
			return result
		}

		if err == nil {
			err = fmt.Errorf("responder %q reported failure: %s", exec.ResponderID, result.Err)
		}
		lastErr = err
		e.logger.Warn("executor: responder attempt failed", "responder", exec.ResponderID, "attempt", attempt, "error", err)

		if attempt == maxAttempts || exec.RetryPolicy == nil || !exec.RetryPolicy.Retryable(err) {
			break
		}
		select {
		case <-ctx.Done():
			return core.FailedResult(exec.ResponderID, ctx.Err(), core.ResultMetrics{ExecutionTime: time.Since(start), Attempts: attempt})
		case <-time.After(backoff):
		}
	}

	return core.FailedResult(exec.ResponderID, lastErr, core.ResultMetrics{ExecutionTime: time.Since(start), Attempts: attempts})
}

func (e *Executor) emitPhase(t core.EventType, turnID, phase string) {
	ev := core.NewEvent(turnID, t)
	ev.Phase = phase
	e.events.Emit(ev)
}

func (e *Executor) emitResponder(turnID, phase string, r core.AgentResult) {
	ev := core.NewEvent(turnID, core.EventResponderComplete)
	ev.Phase = phase
	ev.Responder = r.ResponderID
	ev.Payload = map[string]any{"success": r.Success, "attempts": r.Metrics.Attempts}
	e.events.Emit(ev)
}
