package executor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/chorusmesh/chorus/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedResponder executes a caller-supplied function and records call order.
type scriptedResponder struct {
	id    string
	fn    func(ctx context.Context, input core.Input) (core.AgentResult, error)
	calls int32
}

func (s *scriptedResponder) ID() string             { return s.id }
func (s *scriptedResponder) Capabilities() []string { return nil }
func (s *scriptedResponder) Execute(ctx context.Context, input core.Input) (core.AgentResult, error) {
	atomic.AddInt32(&s.calls, 1)
	if s.fn != nil {
		return s.fn(ctx, input)
	}
	return okResult(s.id, "response from "+s.id), nil
}

func okResult(id, content string) core.AgentResult {
	return core.AgentResult{
		ResponderID: id,
		Success:     true,
		Data:        &core.ResultData{Content: content, Confidence: 0.9},
	}
}

func newExecutor(t *testing.T, responders ...core.Responder) (*Executor, *core.Registry) {
	t.Helper()
	reg := core.NewRegistry()
	for _, r := range responders {
		require.NoError(t, reg.Register(r))
	}
	return New(reg), reg
}

func phaseOf(mode core.PhaseMode, ids ...string) core.Phase {
	agents := make([]core.AgentExecution, 0, len(ids))
	for _, id := range ids {
		agents = append(agents, core.AgentExecution{ResponderID: id, Priority: 0.5})
	}
	return core.Phase{Name: "test_phase", Mode: mode, Agents: agents, Timeout: 5 * time.Second}
}

func planOf(phases ...core.Phase) *core.ExecutionPlan {
	return &core.ExecutionPlan{StrategyName: "test", Phases: phases}
}

func TestRunPlan_SequentialOrder(t *testing.T) {
	var mu sync.Mutex
	var order []string
	mk := func(id string) *scriptedResponder {
		return &scriptedResponder{id: id, fn: func(context.Context, core.Input) (core.AgentResult, error) {
			mu.Lock()
			order = append(order, id)
			mu.Unlock()
			return okResult(id, id), nil
		}}
	}
	e, _ := newExecutor(t, mk("a"), mk("b"), mk("c"))

	results := e.RunPlan(context.Background(), planOf(phaseOf(core.ModeSequential, "a", "b", "c")), core.Input{})
	require.Len(t, results, 3)
	assert.Equal(t, []string{"a", "b", "c"}, order)
	for _, r := range results {
		assert.True(t, r.Success)
	}
}

func TestRunPlan_ParallelPartialFailureIsolation(t *testing.T) {
	fail := &scriptedResponder{id: "bad", fn: func(context.Context, core.Input) (core.AgentResult, error) {
		return core.AgentResult{}, errors.New("forced failure")
	}}
	e, _ := newExecutor(t, &scriptedResponder{id: "a"}, fail, &scriptedResponder{id: "c"})

	results := e.RunPlan(context.Background(), planOf(phaseOf(core.ModeParallel, "a", "bad", "c")), core.Input{})
	require.Len(t, results, 3)

	byID := map[string]core.AgentResult{}
	for _, r := range results {
		byID[r.ResponderID] = r
	}
	assert.True(t, byID["a"].Success)
	assert.True(t, byID["c"].Success)
	assert.False(t, byID["bad"].Success)
	assert.Contains(t, byID["bad"].Err, "forced failure")
}

func TestRunPlan_PipelinePassesPriorResults(t *testing.T) {
	var mu sync.Mutex
	priorCounts := map[string]int{}
	mk := func(id string) *scriptedResponder {
		return &scriptedResponder{id: id, fn: func(_ context.Context, input core.Input) (core.AgentResult, error) {
			mu.Lock()
			priorCounts[id] = len(input.PriorResults)
			mu.Unlock()
			return okResult(id, "built on "+id), nil
		}}
	}
	e, _ := newExecutor(t, mk("a"), mk("b"), mk("c"))

	results := e.RunPlan(context.Background(), planOf(phaseOf(core.ModePipeline, "a", "b", "c")), core.Input{})
	require.Len(t, results, 3)
	assert.Equal(t, 0, priorCounts["a"])
	assert.Equal(t, 1, priorCounts["b"])
	assert.Equal(t, 2, priorCounts["c"])
}

func TestRunPlan_ConditionalSkipsResponders(t *testing.T) {
	e, _ := newExecutor(t, &scriptedResponder{id: "a"}, &scriptedResponder{id: "b"})

	phase := phaseOf(core.ModeConditional, "a", "b")
	phase.Agents[0].Condition = func(s core.SceneAnalysis) bool { return s.EmotionalIntensity >= 0.5 }
	phase.Agents[1].Condition = func(s core.SceneAnalysis) bool { return s.EmotionalIntensity < 0.5 }

	input := core.Input{Scene: core.SceneAnalysis{EmotionalIntensity: 0.8}}
	results := e.RunPlan(context.Background(), planOf(phase), input)

	require.Len(t, results, 1)
	assert.Equal(t, "a", results[0].ResponderID)
}

func TestRunPlan_RetrySucceedsAfterTransientFailure(t *testing.T) {
	var attempts int32
	flaky := &scriptedResponder{id: "flaky", fn: func(context.Context, core.Input) (core.AgentResult, error) {
		if atomic.AddInt32(&attempts, 1) == 1 {
			return core.AgentResult{}, errors.New("transient timeout")
		}
		return okResult("flaky", "second time lucky"), nil
	}}
	e, _ := newExecutor(t, flaky)

	phase := phaseOf(core.ModeSequential, "flaky")
	phase.Agents[0].RetryPolicy = &core.RetryPolicy{MaxAttempts: 3, Backoff: 5 * time.Millisecond, RetryableConditions: []string{"timeout"}}

	results := e.RunPlan(context.Background(), planOf(phase), core.Input{})
	require.Len(t, results, 1)
	assert.True(t, results[0].Success)
	assert.Equal(t, 2, results[0].Metrics.Attempts)
}

func TestRunPlan_NonRetryableErrorFailsImmediately(t *testing.T) {
	bad := &scriptedResponder{id: "bad", fn: func(context.Context, core.Input) (core.AgentResult, error) {
		return core.AgentResult{}, errors.New("invalid configuration")
	}}
	e, _ := newExecutor(t, bad)

	phase := phaseOf(core.ModeSequential, "bad")
	phase.Agents[0].RetryPolicy = &core.RetryPolicy{MaxAttempts: 3, Backoff: time.Millisecond, RetryableConditions: []string{"timeout"}}

	results := e.RunPlan(context.Background(), planOf(phase), core.Input{})
	require.Len(t, results, 1)
	assert.False(t, results[0].Success)
	assert.Equal(t, 1, results[0].Metrics.Attempts)
	assert.Equal(t, int32(1), atomic.LoadInt32(&bad.calls))
}

func TestRunPlan_PhaseConditionSkipsSilently(t *testing.T) {
	a := &scriptedResponder{id: "a"}
	e, _ := newExecutor(t, a)

	gated := phaseOf(core.ModeSequential, "a")
	gated.Name = "gated"
	gated.Conditions = []core.PhaseCondition{{Kind: core.ConditionSceneConfidence, Threshold: 0.9}}
	open := phaseOf(core.ModeSequential, "a")
	open.Name = "open"

	input := core.Input{Scene: core.SceneAnalysis{Confidence: 0.5}}
	results := e.RunPlan(context.Background(), planOf(gated, open), input)

	// Gated phase contributes nothing, not even failures; the next phase still runs.
	require.Len(t, results, 1)
	assert.True(t, results[0].Success)
}

func TestRunPlan_DependencyGateSkipsDependentPhase(t *testing.T) {
	fail := &scriptedResponder{id: "bad", fn: func(context.Context, core.Input) (core.AgentResult, error) {
		return core.AgentResult{}, errors.New("down")
	}}
	follow := &scriptedResponder{id: "next"}
	e, _ := newExecutor(t, fail, follow)

	first := phaseOf(core.ModeSequential, "bad")
	first.Name = "first"
	second := phaseOf(core.ModeSequential, "next")
	second.Name = "second"
	second.Dependencies = []string{"first"}

	results := e.RunPlan(context.Background(), planOf(first, second), core.Input{})
	require.Len(t, results, 1) // only the failed first-phase result
	assert.False(t, results[0].Success)
	assert.Equal(t, int32(0), atomic.LoadInt32(&follow.calls))
}

func TestRunPlan_PhaseTimeoutAbandonsInFlight(t *testing.T) {
	slow := &scriptedResponder{id: "slow", fn: func(ctx context.Context, _ core.Input) (core.AgentResult, error) {
		select {
		case <-time.After(2 * time.Second):
			return okResult("slow", "too late"), nil
		case <-ctx.Done():
			return core.AgentResult{}, ctx.Err()
		}
	}}
	fast := &scriptedResponder{id: "fast"}
	e, _ := newExecutor(t, slow, fast)

	phase := phaseOf(core.ModeParallel, "slow", "fast")
	phase.Timeout = 50 * time.Millisecond

	start := time.Now()
	results := e.RunPlan(context.Background(), planOf(phase), core.Input{})
	assert.Less(t, time.Since(start), time.Second)

	require.Len(t, results, 2)
	byID := map[string]core.AgentResult{}
	for _, r := range results {
		byID[r.ResponderID] = r
	}
	assert.False(t, byID["slow"].Success)
	assert.True(t, byID["fast"].Success)
}

func TestRunPlan_SequentialExpiresSlotsAfterBudget(t *testing.T) {
	// Ignores the phase context entirely, overrunning the budget.
	stubborn := &scriptedResponder{id: "stubborn", fn: func(context.Context, core.Input) (core.AgentResult, error) {
		time.Sleep(150 * time.Millisecond)
		return okResult("stubborn", "eventually"), nil
	}}
	b := &scriptedResponder{id: "b"}
	c := &scriptedResponder{id: "c"}
	e, _ := newExecutor(t, stubborn, b, c)

	phase := phaseOf(core.ModeSequential, "stubborn", "b", "c")
	phase.Timeout = 50 * time.Millisecond

	start := time.Now()
	results := e.RunPlan(context.Background(), planOf(phase), core.Input{})
	// Overruns by at most the one in-flight invocation.
	assert.Less(t, time.Since(start), time.Second)

	require.Len(t, results, 3)
	assert.True(t, results[0].Success)
	assert.False(t, results[1].Success)
	assert.False(t, results[2].Success)
	assert.Contains(t, results[1].Err, "timed out before responder started")
	assert.Equal(t, int32(0), atomic.LoadInt32(&b.calls))
	assert.Equal(t, int32(0), atomic.LoadInt32(&c.calls))
}

func TestRunPlan_PipelineExpiresLinksAfterBudget(t *testing.T) {
	stubborn := &scriptedResponder{id: "stubborn", fn: func(context.Context, core.Input) (core.AgentResult, error) {
		time.Sleep(150 * time.Millisecond)
		return okResult("stubborn", "eventually"), nil
	}}
	next := &scriptedResponder{id: "next"}
	e, _ := newExecutor(t, stubborn, next)

	phase := phaseOf(core.ModePipeline, "stubborn", "next")
	phase.Timeout = 50 * time.Millisecond

	results := e.RunPlan(context.Background(), planOf(phase), core.Input{})
	require.Len(t, results, 2)
	assert.False(t, results[1].Success)
	assert.Equal(t, int32(0), atomic.LoadInt32(&next.calls))
}

func TestRunPlan_CancellationBetweenPhases(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	first := &scriptedResponder{id: "a", fn: func(context.Context, core.Input) (core.AgentResult, error) {
		cancel() // cancel the turn while the first phase is running
		return okResult("a", "done"), nil
	}}
	second := &scriptedResponder{id: "b"}
	e, _ := newExecutor(t, first, second)

	p1 := phaseOf(core.ModeSequential, "a")
	p1.Name = "p1"
	p2 := phaseOf(core.ModeSequential, "b")
	p2.Name = "p2"

	results := e.RunPlan(ctx, planOf(p1, p2), core.Input{})
	require.Len(t, results, 1)
	assert.Equal(t, "a", results[0].ResponderID)
	assert.Equal(t, int32(0), atomic.LoadInt32(&second.calls))
}

func TestRunPlan_ResultCountNeverExceedsSlots(t *testing.T) {
	e, _ := newExecutor(t, &scriptedResponder{id: "a"}, &scriptedResponder{id: "b"})
	plan := planOf(
		phaseOf(core.ModeSequential, "a", "b"),
		phaseOf(core.ModeParallel, "a", "b"),
		phaseOf(core.ModePipeline, "a"),
	)

	results := e.RunPlan(context.Background(), plan, core.Input{})
	assert.LessOrEqual(t, len(results), plan.TotalSlots())
}

func TestRunPlan_UnknownResponderRecordedAsFailure(t *testing.T) {
	e, _ := newExecutor(t, &scriptedResponder{id: "a"})
	results := e.RunPlan(context.Background(), planOf(phaseOf(core.ModeSequential, "a", "ghost")), core.Input{})
	require.Len(t, results, 2)
	assert.True(t, results[0].Success)
	assert.False(t, results[1].Success)
	assert.Contains(t, results[1].Err, "not registered")
}

func TestRunPlan_EmitsLifecycleEvents(t *testing.T) {
	reg := core.NewRegistry()
	require.NoError(t, reg.Register(&scriptedResponder{id: "a"}))

	var mu sync.Mutex
	var types []core.EventType
	e := New(reg, func(o *Options) {
		o.Events = func(ev core.Event) {
			mu.Lock()
			types = append(types, ev.Type)
			mu.Unlock()
		}
	})

	gated := phaseOf(core.ModeSequential, "a")
	gated.Name = "gated"
	gated.Conditions = []core.PhaseCondition{{Kind: core.ConditionSceneConfidence, Threshold: 0.99}}

	e.RunPlan(context.Background(), planOf(phaseOf(core.ModeSequential, "a"), gated), core.Input{})

	assert.Equal(t, []core.EventType{core.EventPhaseStarted, core.EventResponderComplete, core.EventPhaseSkipped}, types)
}

func TestRunPlan_NilPlan(t *testing.T) {
	e, _ := newExecutor(t)
	assert.Nil(t, e.RunPlan(context.Background(), nil, core.Input{}))
}
