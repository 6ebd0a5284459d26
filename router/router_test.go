package router

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chorusmesh/chorus/core"
)

type stubResponder struct {
	id   string
	caps []string
}

func (s *stubResponder) ID() string             { return s.id }
func (s *stubResponder) Capabilities() []string { return s.caps }
func (s *stubResponder) Execute(_ context.Context, _ core.Input) (core.AgentResult, error) {
	return core.AgentResult{ResponderID: s.id, Success: true, Data: &core.ResultData{Content: "ok", Confidence: 0.9}}, nil
}

// deliverySink records deliveries and optionally fails for selected responders.
type deliverySink struct {
	mu        sync.Mutex
	delivered []struct {
		ID  string
		Msg core.AgentMessage
	}
	failFor map[string]bool
}

func newSink() *deliverySink {
	return &deliverySink{failFor: map[string]bool{}}
}

func (s *deliverySink) fn() DeliveryFunc {
	return func(id string, msg core.AgentMessage) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.failFor[id] {
			return fmt.Errorf("delivery refused")
		}
		s.delivered = append(s.delivered, struct {
			ID  string
			Msg core.AgentMessage
		}{id, msg})
		return nil
	}
}

func (s *deliverySink) ids() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.delivered))
	for _, d := range s.delivered {
		out = append(out, d.ID)
	}
	return out
}

func (s *deliverySink) last() (core.AgentMessage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.delivered) == 0 {
		return core.AgentMessage{}, false
	}
	return s.delivered[len(s.delivered)-1].Msg, true
}

func newTestContext(t *testing.T, sceneType core.SceneType, ids ...string) *Context {
	t.Helper()
	reg := core.NewRegistry()
	for _, id := range ids {
		require.NoError(t, reg.Register(&stubResponder{id: id, caps: []string{"chat"}}))
	}
	return &Context{
		Scene:    core.SceneAnalysis{Type: sceneType, Confidence: 0.9},
		Registry: reg,
		TurnID:   "turn-1",
	}
}

func singleTarget(id string) Target {
	return Target{Kind: TargetSingle, IDs: []string{id}, Timing: TimingImmediate}
}

func TestAddRuleValidation(t *testing.T) {
	r := New()

	assert.Error(t, r.AddRule(Rule{ID: "", Targets: []Target{singleTarget("a")}}))
	assert.Error(t, r.AddRule(Rule{ID: "no-targets"}))

	require.NoError(t, r.AddRule(Rule{ID: "ok", Priority: 1.7, Targets: []Target{singleTarget("a")}}))
	assert.Error(t, r.AddRule(Rule{ID: "ok", Targets: []Target{singleTarget("b")}}), "duplicate id rejected")

	rules := r.Rules()
	require.Len(t, rules, 1)
	assert.Equal(t, 1.0, rules[0].Priority, "priority clamped into [0,1]")

	assert.True(t, r.RemoveRule("ok"))
	assert.False(t, r.RemoveRule("ok"))
}

func TestRouteHighPriorityShortCircuits(t *testing.T) {
	sink := newSink()
	r := New(func(o *Options) { o.Deliver = sink.fn() })

	require.NoError(t, r.AddRule(Rule{
		ID:       "low",
		Priority: 0.3,
		Targets:  []Target{singleTarget("bravo")},
	}))
	require.NoError(t, r.AddRule(Rule{
		ID:       "high",
		Priority: 0.9,
		Targets:  []Target{singleTarget("alpha")},
	}))

	rctx := newTestContext(t, core.SceneCasualChat, "alpha", "bravo")
	execs := r.Route(core.NewAgentMessage("notify", "scheduler", nil), rctx)

	require.Len(t, execs, 1, "low-priority rule never applied")
	assert.Equal(t, "high", execs[0].RuleID)
	assert.Equal(t, []string{"alpha"}, execs[0].DeliveredTo)
	assert.Equal(t, []string{"alpha"}, sink.ids(), "bravo's delivery never happened")
}

func TestRouteFailedHighPriorityDoesNotShortCircuit(t *testing.T) {
	sink := newSink()
	sink.failFor["alpha"] = true
	r := New(func(o *Options) { o.Deliver = sink.fn() })

	require.NoError(t, r.AddRule(Rule{ID: "high", Priority: 0.9, Targets: []Target{singleTarget("alpha")}}))
	require.NoError(t, r.AddRule(Rule{ID: "low", Priority: 0.3, Targets: []Target{singleTarget("bravo")}}))

	rctx := newTestContext(t, core.SceneCasualChat, "alpha", "bravo")
	execs := r.Route(core.NewAgentMessage("notify", "scheduler", nil), rctx)

	require.Len(t, execs, 2)
	assert.False(t, execs[0].Success)
	assert.True(t, execs[1].Success)
	assert.Equal(t, []string{"bravo"}, sink.ids())
}

func TestRouteIdempotentTargets(t *testing.T) {
	sink := newSink()
	r := New(func(o *Options) { o.Deliver = sink.fn() })

	require.NoError(t, r.AddRule(Rule{
		ID:       "caps",
		Priority: 0.5,
		Conditions: []Condition{
			{Kind: ConditionMessageType, Equals: "notify"},
		},
		Targets: []Target{{Kind: TargetMultiple, Selector: func(resp core.Responder) bool {
			return true
		}, Timing: TimingImmediate}},
	}))

	rctx := newTestContext(t, core.SceneCasualChat, "alpha", "bravo", "charlie")
	msg := core.NewAgentMessage("notify", "scheduler", map[string]any{"k": "v"})

	first := r.Route(msg, rctx)
	second := r.Route(msg, rctx)

	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].DeliveredTo, second[0].DeliveredTo, "same message, same context, same targets")
	assert.Equal(t, []string{"alpha", "bravo", "charlie"}, first[0].DeliveredTo)
}

func TestRouteConditionsAreANDCombined(t *testing.T) {
	sink := newSink()
	r := New(func(o *Options) { o.Deliver = sink.fn() })

	require.NoError(t, r.AddRule(Rule{
		ID:       "both",
		Priority: 0.5,
		Conditions: []Condition{
			{Kind: ConditionSender, Equals: "scheduler"},
			{Kind: ConditionSceneType, Equals: string(core.SceneEmotionalSupport)},
		},
		Targets: []Target{singleTarget("alpha")},
	}))

	rctx := newTestContext(t, core.SceneCasualChat, "alpha")
	execs := r.Route(core.NewAgentMessage("notify", "scheduler", nil), rctx)
	require.Len(t, execs, 1)
	assert.True(t, execs[0].Degraded, "one failing clause means no match")

	rctx2 := newTestContext(t, core.SceneEmotionalSupport, "alpha")
	execs2 := r.Route(core.NewAgentMessage("notify", "scheduler", nil), rctx2)
	require.Len(t, execs2, 1)
	assert.Equal(t, "both", execs2[0].RuleID)
}

func TestRoutePayloadPathCondition(t *testing.T) {
	sink := newSink()
	r := New(func(o *Options) { o.Deliver = sink.fn() })

	require.NoError(t, r.AddRule(Rule{
		ID:       "nested",
		Priority: 0.5,
		Conditions: []Condition{
			{Kind: ConditionPayloadPath, Path: "phase.name", Value: "synthesis"},
		},
		Targets: []Target{singleTarget("alpha")},
	}))

	rctx := newTestContext(t, core.SceneCasualChat, "alpha")
	msg := core.NewAgentMessage("phase_update", "executor", map[string]any{
		"phase": map[string]any{"name": "synthesis"},
	})
	execs := r.Route(msg, rctx)
	require.Len(t, execs, 1)
	assert.Equal(t, "nested", execs[0].RuleID)
	assert.False(t, execs[0].Degraded)
}

func TestRouteDegradedDeliveryOnNoMatch(t *testing.T) {
	sink := newSink()
	r := New(func(o *Options) { o.Deliver = sink.fn() })

	rctx := newTestContext(t, core.SceneCasualChat, "alpha", "bravo")
	execs := r.Route(core.NewAgentMessage("unmatched", "nobody", nil), rctx)

	require.Len(t, execs, 1)
	assert.True(t, execs[0].Degraded)
	assert.True(t, execs[0].Success)
	assert.Equal(t, []string{"alpha"}, execs[0].DeliveredTo)
}

func TestRouteDegradedWithEmptyRegistry(t *testing.T) {
	r := New()
	rctx := &Context{Registry: core.NewRegistry()}

	execs := r.Route(core.NewAgentMessage("unmatched", "nobody", nil), rctx)
	require.Len(t, execs, 1)
	assert.True(t, execs[0].Degraded)
	assert.False(t, execs[0].Success)
	assert.NotEmpty(t, execs[0].Errors)
}

func TestTransformationDropsMessage(t *testing.T) {
	sink := newSink()
	r := New(func(o *Options) { o.Deliver = sink.fn() })

	require.NoError(t, r.AddRule(Rule{
		ID:       "filtered",
		Priority: 0.5,
		Targets:  []Target{singleTarget("alpha")},
		Transformations: []Transformation{
			DropTransformation(func(msg core.AgentMessage) bool { return msg.Type != "noise" }),
		},
	}))

	rctx := newTestContext(t, core.SceneCasualChat, "alpha")
	execs := r.Route(core.NewAgentMessage("noise", "executor", nil), rctx)

	require.Len(t, execs, 1)
	assert.True(t, execs[0].Success)
	assert.Empty(t, execs[0].DeliveredTo)
	assert.Empty(t, sink.ids())
}

func TestDroppedHighPriorityDoesNotShortCircuit(t *testing.T) {
	sink := newSink()
	r := New(func(o *Options) { o.Deliver = sink.fn() })

	require.NoError(t, r.AddRule(Rule{
		ID:       "high-filtered",
		Priority: 0.9,
		Targets:  []Target{singleTarget("alpha")},
		Transformations: []Transformation{
			DropTransformation(func(msg core.AgentMessage) bool { return msg.Type != "noise" }),
		},
	}))
	require.NoError(t, r.AddRule(Rule{ID: "low", Priority: 0.3, Targets: []Target{singleTarget("bravo")}}))

	rctx := newTestContext(t, core.SceneCasualChat, "alpha", "bravo")
	execs := r.Route(core.NewAgentMessage("noise", "executor", nil), rctx)

	require.Len(t, execs, 2, "zero-delivery rule leaves lower-priority rules in play")
	assert.Empty(t, execs[0].DeliveredTo)
	assert.Equal(t, []string{"bravo"}, execs[1].DeliveredTo)
	assert.Equal(t, []string{"bravo"}, sink.ids())
}

func TestTransformationDoesNotLeakAcrossRules(t *testing.T) {
	sink := newSink()
	r := New(func(o *Options) { o.Deliver = sink.fn() })

	require.NoError(t, r.AddRule(Rule{
		ID:       "mutating",
		Priority: 0.6,
		Targets:  []Target{singleTarget("alpha")},
		Transformations: []Transformation{
			func(msg core.AgentMessage) *core.AgentMessage {
				msg.Payload["tag"] = "mutated"
				return &msg
			},
		},
	}))
	require.NoError(t, r.AddRule(Rule{ID: "plain", Priority: 0.5, Targets: []Target{singleTarget("bravo")}}))

	rctx := newTestContext(t, core.SceneCasualChat, "alpha", "bravo")
	msg := core.NewAgentMessage("notify", "scheduler", map[string]any{"tag": "original"})
	r.Route(msg, rctx)

	require.Len(t, sink.delivered, 2)
	assert.Equal(t, "mutated", sink.delivered[0].Msg.Payload["tag"])
	assert.Equal(t, "original", sink.delivered[1].Msg.Payload["tag"], "second rule sees the untouched message")
}

func TestGlobalMiddlewareEnrichesMessage(t *testing.T) {
	sink := newSink()
	r := New(func(o *Options) { o.Deliver = sink.fn() })
	r.Use(SceneContextMiddleware())

	require.NoError(t, r.AddRule(Rule{ID: "any", Priority: 0.5, Targets: []Target{singleTarget("alpha")}}))

	rctx := newTestContext(t, core.SceneCreativeBrainstorm, "alpha")
	r.Route(core.NewAgentMessage("notify", "scheduler", nil), rctx)

	msg, ok := sink.last()
	require.True(t, ok)
	assert.Equal(t, string(core.SceneCreativeBrainstorm), msg.Payload["scene_type"])
	assert.Equal(t, 0.9, msg.Payload["scene_confidence"])
}

func TestUrgencyBoostMiddleware(t *testing.T) {
	sink := newSink()
	r := New(func(o *Options) { o.Deliver = sink.fn() })

	require.NoError(t, r.AddRule(Rule{
		ID:         "urgent",
		Priority:   0.5,
		Targets:    []Target{singleTarget("alpha")},
		Middleware: []Middleware{UrgencyBoostMiddleware(0.8, 0.3)},
	}))

	rctx := newTestContext(t, core.SceneTaskAssistance, "alpha")
	rctx.Scene.Intent.Urgency = 0.95
	r.Route(core.NewAgentMessage("notify", "scheduler", nil), rctx)

	msg, ok := sink.last()
	require.True(t, ok)
	assert.InDelta(t, 0.8, msg.Metadata.Priority, 1e-9)
}

func TestBroadcastTarget(t *testing.T) {
	sink := newSink()
	r := New(func(o *Options) { o.Deliver = sink.fn() })

	require.NoError(t, r.AddRule(Rule{
		ID:       "all",
		Priority: 0.5,
		Targets:  []Target{{Kind: TargetBroadcast, Timing: TimingImmediate}},
	}))

	rctx := newTestContext(t, core.SceneCasualChat, "alpha", "bravo", "charlie")
	execs := r.Route(core.NewAgentMessage("announce", "engine", nil), rctx)

	require.Len(t, execs, 1)
	assert.Equal(t, []string{"alpha", "bravo", "charlie"}, execs[0].DeliveredTo)
}

func TestPartialDeliveryFailureIsolated(t *testing.T) {
	sink := newSink()
	sink.failFor["bravo"] = true
	r := New(func(o *Options) { o.Deliver = sink.fn() })

	require.NoError(t, r.AddRule(Rule{
		ID:       "all",
		Priority: 0.5,
		Targets:  []Target{{Kind: TargetBroadcast, Timing: TimingImmediate}},
	}))

	rctx := newTestContext(t, core.SceneCasualChat, "alpha", "bravo", "charlie")
	execs := r.Route(core.NewAgentMessage("announce", "engine", nil), rctx)

	require.Len(t, execs, 1)
	assert.False(t, execs[0].Success)
	assert.Equal(t, []string{"alpha", "charlie"}, execs[0].DeliveredTo)
	require.Len(t, execs[0].Errors, 1)
	assert.Contains(t, execs[0].Errors[0], "bravo")
}

func TestDelayedDeliveryReportsOptimisticSuccess(t *testing.T) {
	sink := newSink()
	r := New(func(o *Options) {
		o.Deliver = sink.fn()
		o.DelayOffset = 10 * time.Millisecond
	})

	require.NoError(t, r.AddRule(Rule{
		ID:       "later",
		Priority: 0.5,
		Targets:  []Target{{Kind: TargetSingle, IDs: []string{"alpha"}, Timing: TimingDelayed}},
	}))

	rctx := newTestContext(t, core.SceneCasualChat, "alpha")
	execs := r.Route(core.NewAgentMessage("notify", "scheduler", nil), rctx)

	require.Len(t, execs, 1)
	assert.True(t, execs[0].Success)
	assert.Equal(t, []string{"alpha"}, execs[0].DeliveredTo)
	assert.Empty(t, sink.ids(), "not delivered yet")

	assert.Eventually(t, func() bool {
		return len(sink.ids()) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestQueueDrainsAndRetriesPartialFailures(t *testing.T) {
	sink := newSink()
	sink.failFor["alpha"] = true
	r := New(func(o *Options) { o.Deliver = sink.fn() })

	require.NoError(t, r.AddRule(Rule{ID: "only", Priority: 0.5, Targets: []Target{singleTarget("alpha")}}))

	q := NewQueue(r, 8, nil)
	defer q.Close()

	rctx := newTestContext(t, core.SceneCasualChat, "alpha")

	// First delivery fails; the queue retries until the sink recovers.
	require.NoError(t, q.Enqueue(core.NewAgentMessage("notify", "scheduler", nil), rctx))
	time.Sleep(20 * time.Millisecond)
	sink.mu.Lock()
	sink.failFor["alpha"] = false
	sink.mu.Unlock()

	assert.Eventually(t, func() bool {
		return len(sink.ids()) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestQueueGivesUpAfterMaxRequeues(t *testing.T) {
	sink := newSink()
	sink.failFor["alpha"] = true
	r := New(func(o *Options) { o.Deliver = sink.fn() })
	require.NoError(t, r.AddRule(Rule{ID: "only", Priority: 0.5, Targets: []Target{singleTarget("alpha")}}))

	q := NewQueue(r, 8, nil)
	defer q.Close()

	rctx := newTestContext(t, core.SceneCasualChat, "alpha")
	require.NoError(t, q.Enqueue(core.NewAgentMessage("notify", "scheduler", nil), rctx))

	// Give the worker time to exhaust its re-queues, then recover the sink:
	// the abandoned message must not come back.
	time.Sleep(100 * time.Millisecond)
	sink.mu.Lock()
	sink.failFor["alpha"] = false
	sink.mu.Unlock()
	time.Sleep(50 * time.Millisecond)

	assert.Empty(t, sink.ids())
}

func TestQueueRejectsWhenFullOrClosed(t *testing.T) {
	// A slow delivery pins the drain worker so a burst saturates the size-1
	// buffer.
	r := New(func(o *Options) {
		o.Deliver = func(string, core.AgentMessage) error {
			time.Sleep(200 * time.Millisecond)
			return nil
		}
	})
	require.NoError(t, r.AddRule(Rule{ID: "only", Priority: 0.5, Targets: []Target{singleTarget("alpha")}}))
	q := NewQueue(r, 1, nil)

	rctx := newTestContext(t, core.SceneCasualChat, "alpha")
	var sawFull bool
	for i := 0; i < 8; i++ {
		if err := q.Enqueue(core.NewAgentMessage("notify", "x", nil), rctx); err != nil {
			sawFull = true
			break
		}
	}
	assert.True(t, sawFull)

	q.Close()
	assert.Error(t, q.Enqueue(core.NewAgentMessage("notify", "x", nil), rctx))
}
