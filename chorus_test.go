package chorus

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chorusmesh/chorus/config"
	"github.com/chorusmesh/chorus/core"
	"github.com/chorusmesh/chorus/responder"
	"github.com/chorusmesh/chorus/router"
)

func TestNewWithDefaults(t *testing.T) {
	c, err := New()
	require.NoError(t, err)

	require.NoError(t, c.RegisterResponder(responder.NewStatic("a", "hello from the default stack", 0.8, "chat")))
	out := c.ProcessTurn(context.Background(), "conv-1", "hi there")

	assert.True(t, out.Success)
	assert.NotEmpty(t, out.Responses)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Aggregator.MinQuality = 2

	_, err := New(func(o *Options) { o.Config = cfg })
	assert.Error(t, err)
}

func TestAdministrativeSurface(t *testing.T) {
	c, err := New()
	require.NoError(t, err)

	require.NoError(t, c.RegisterResponder(responder.NewStatic("a", "x", 0.8)))
	assert.Error(t, c.RegisterResponder(responder.NewStatic("a", "y", 0.8)), "duplicate responder id")
	assert.True(t, c.RemoveResponder("a"))
	assert.False(t, c.RemoveResponder("a"))

	rule := router.Rule{
		ID:       "greetings",
		Priority: 0.5,
		Targets:  []router.Target{{Kind: router.TargetBroadcast, Timing: router.TimingImmediate}},
	}
	require.NoError(t, c.AddRoutingRule(rule))
	assert.Error(t, c.AddRoutingRule(rule), "duplicate rule id")
	assert.True(t, c.RemoveRoutingRule("greetings"))
}

func TestProcessTurnDeliversCoordinationMessages(t *testing.T) {
	var mu sync.Mutex
	var delivered []string
	c, err := New(func(o *Options) {
		o.Deliver = func(id string, msg core.AgentMessage) error {
			mu.Lock()
			delivered = append(delivered, id+":"+msg.Type)
			mu.Unlock()
			return nil
		}
	})
	require.NoError(t, err)

	require.NoError(t, c.RegisterResponder(responder.NewStatic("listener", "noted", 0.8, "chat")))
	require.NoError(t, c.AddRoutingRule(router.Rule{
		ID:       "coordination",
		Priority: 0.5,
		Conditions: []router.Condition{
			{Kind: router.ConditionMessageType, Equals: "turn_coordination"},
		},
		Targets: []router.Target{{Kind: router.TargetBroadcast, Timing: router.TimingImmediate}},
	}))

	c.ProcessTurn(context.Background(), "conv-1", "hello")

	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, delivered, "listener:turn_coordination")
}

func TestVersionIsSet(t *testing.T) {
	assert.NotEmpty(t, Version)
}
