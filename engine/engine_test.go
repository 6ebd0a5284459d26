package engine

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chorusmesh/chorus/aggregator"
	"github.com/chorusmesh/chorus/core"
	"github.com/chorusmesh/chorus/responder"
	"github.com/chorusmesh/chorus/scene"
	"github.com/chorusmesh/chorus/scheduler"
)

func newEngine(t *testing.T, reg *core.Registry, optFns ...func(o *Options)) *Engine {
	t.Helper()
	e, err := New(reg, scheduler.DefaultCatalog(), aggregator.DefaultCatalog(nil, nil), optFns...)
	require.NoError(t, err)
	return e
}

func registryWith(t *testing.T, responders ...core.Responder) *core.Registry {
	t.Helper()
	reg := core.NewRegistry()
	for _, r := range responders {
		require.NoError(t, reg.Register(r))
	}
	return reg
}

func TestNewRequiresCatalogs(t *testing.T) {
	reg := core.NewRegistry()

	_, err := New(nil, scheduler.DefaultCatalog(), aggregator.DefaultCatalog(nil, nil))
	assert.Error(t, err)

	_, err = New(reg, scheduler.NewCatalog(), aggregator.DefaultCatalog(nil, nil))
	assert.Error(t, err, "empty scheduling catalog is a configuration error")

	_, err = New(reg, scheduler.DefaultCatalog(), aggregator.NewCatalog())
	assert.Error(t, err, "empty aggregation catalog is a configuration error")
}

func TestProcessTurnHappyPath(t *testing.T) {
	reg := registryWith(t,
		responder.NewStatic("sage", "Here is a considered answer about your question.", 0.85, "chat"),
		responder.NewStatic("wit", "A quicker take on the same question, with a twist.", 0.7, "chat"),
		responder.NewStatic("scribe", "Let me add some background context to that.", 0.8, "chat"),
	)
	e := newEngine(t, reg)

	out := e.ProcessTurn(context.Background(), "conv-1", "tell me something interesting")

	assert.True(t, out.Success)
	assert.NotEmpty(t, out.Responses)
	assert.NotEmpty(t, out.AgentsUsed)
	assert.NotEmpty(t, out.Strategy)
	assert.NotEmpty(t, out.AggregationStrategy)
	assert.Greater(t, out.Quality, 0.0)
	assert.Greater(t, out.TotalExecutionTime.Nanoseconds(), int64(0))
}

func TestProcessTurnEmptyPool(t *testing.T) {
	e := newEngine(t, core.NewRegistry())

	out := e.ProcessTurn(context.Background(), "conv-1", "anyone there?")

	assert.False(t, out.Success)
	assert.Equal(t, 0.0, out.Quality)
	assert.NotNil(t, out.Responses)
	assert.Empty(t, out.Responses)
}

func TestProcessTurnAllRespondersFail(t *testing.T) {
	failing := func(id string) core.Responder {
		return responder.NewFunc(id, func(context.Context, core.Input) (core.AgentResult, error) {
			return core.AgentResult{}, fmt.Errorf("model unavailable")
		}, "chat")
	}
	reg := registryWith(t, failing("a"), failing("b"), failing("c"))
	e := newEngine(t, reg)

	out := e.ProcessTurn(context.Background(), "conv-1", "hello?")

	assert.False(t, out.Success)
	assert.Equal(t, 0.0, out.Quality)
	assert.Empty(t, out.Responses)
	assert.NotEmpty(t, out.AgentsUsed, "failed invocations still count as used")
}

func TestProcessTurnClassifierFailureFallsBack(t *testing.T) {
	reg := registryWith(t, responder.NewStatic("solo", "a fine answer either way", 0.8, "chat"))
	e := newEngine(t, reg, func(o *Options) {
		o.Classifier = scene.ClassifierFunc(func(context.Context, string, string) (core.SceneAnalysis, error) {
			return core.SceneAnalysis{}, fmt.Errorf("classifier offline")
		})
	})

	out := e.ProcessTurn(context.Background(), "conv-1", "what now")

	assert.True(t, out.Success)
	assert.Equal(t, core.SceneCasualChat, out.SceneType, "fallback scene substituted")
}

func TestProcessTurnEmitsLifecycleEvents(t *testing.T) {
	reg := registryWith(t, responder.NewStatic("solo", "content for the event trail", 0.8, "chat"))

	var mu sync.Mutex
	var types []core.EventType
	e := newEngine(t, reg, func(o *Options) {
		o.Events = func(ev core.Event) {
			mu.Lock()
			types = append(types, ev.Type)
			mu.Unlock()
		}
	})

	e.ProcessTurn(context.Background(), "conv-1", "hello")

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, core.EventTurnStarted, types[0])
	assert.Equal(t, core.EventTurnComplete, types[len(types)-1])
	assert.Contains(t, types, core.EventRoutingComplete)
	assert.Contains(t, types, core.EventPhaseStarted)
	assert.Contains(t, types, core.EventResponderComplete)
	assert.Contains(t, types, core.EventAggregationComplete)
}

func TestProcessTurnRecordsHistory(t *testing.T) {
	reg := registryWith(t,
		responder.NewStatic("a", "a reasonably complete and relevant answer to the question", 0.9, "chat"),
		responder.NewStatic("b", "another take on the question with further useful detail", 0.8, "chat"),
	)
	history := scheduler.NewHistory()
	e := newEngine(t, reg, func(o *Options) { o.History = history })

	out := e.ProcessTurn(context.Background(), "conv-1", "a question")

	assert.Equal(t, 1, history.Attempts(out.Strategy))
}

func TestProcessTurnEmotionalScene(t *testing.T) {
	reg := registryWith(t,
		responder.NewStatic("empath", "I am so sorry, that sounds really hurt and lonely to carry.", 0.85, "empathy", "chat"),
		responder.NewStatic("helper", "Here are three concrete steps you could take next.", 0.8, "chat"),
		responder.NewStatic("cheer", "It is sad now but brighter days are close, hang in there.", 0.7, "chat"),
	)
	e := newEngine(t, reg)

	out := e.ProcessTurn(context.Background(), "conv-1", "I feel so sad and lonely since the breakup")

	assert.True(t, out.Success)
	assert.Equal(t, core.SceneEmotionalSupport, out.SceneType)
	assert.Contains(t, out.Strategy, "emotion", "emotional scenes pick an emotion-oriented strategy")
}
