package router

import (
	"fmt"

	"github.com/chorusmesh/chorus/core"
)

// Context carries the per-turn surroundings a routing operation may consult:
// the scene, the responder registry and the turn id. It is read-only from
// the router's perspective.
type Context struct {
	Scene    core.SceneAnalysis
	Registry *core.Registry
	TurnID   string
}

// ConditionKind identifies what a rule condition inspects.
type ConditionKind string

const (
	// ConditionSender matches the message's sender identity.
	ConditionSender ConditionKind = "sender"
	// ConditionMessageType matches the message type.
	ConditionMessageType ConditionKind = "message_type"
	// ConditionPayloadPath matches a dotted-path payload lookup against a value.
	ConditionPayloadPath ConditionKind = "payload_path"
	// ConditionSceneType matches the routing context's scene type.
	ConditionSceneType ConditionKind = "scene_type"
	// ConditionPoolCapability requires some registered responder to declare a capability.
	ConditionPoolCapability ConditionKind = "pool_capability"
	// ConditionPredicate is the escape hatch for arbitrary predicates.
	ConditionPredicate ConditionKind = "predicate"
)

// Condition is one clause of a rule's AND-combined condition list.
type Condition struct {
	Kind      ConditionKind
	Equals    string
	Path      string
	Value     any
	Predicate func(msg core.AgentMessage, rctx *Context) bool
}

// Matches evaluates the condition against a message and context. Malformed
// conditions (unknown kind, nil predicate) fail closed: a rule should not
// fire on clauses it cannot evaluate.
func (c Condition) Matches(msg core.AgentMessage, rctx *Context) bool {
	switch c.Kind {
	case ConditionSender:
		return msg.Metadata.Sender == c.Equals
	case ConditionMessageType:
		return msg.Type == c.Equals
	case ConditionPayloadPath:
		v, ok := msg.PayloadPath(c.Path)
		if !ok {
			return false
		}
		return fmt.Sprintf("%v", v) == fmt.Sprintf("%v", c.Value)
	case ConditionSceneType:
		return rctx != nil && string(rctx.Scene.Type) == c.Equals
	case ConditionPoolCapability:
		return rctx != nil && rctx.Registry != nil && len(rctx.Registry.WithCapability(c.Equals)) > 0
	case ConditionPredicate:
		return c.Predicate != nil && c.Predicate(msg, rctx)
	default:
		return false
	}
}

// TargetKind selects how a target resolves recipients.
type TargetKind string

const (
	// TargetSingle delivers to the first match from the selector or id list.
	TargetSingle TargetKind = "single"
	// TargetMultiple delivers to every match from the selector or id list.
	TargetMultiple TargetKind = "multiple"
	// TargetBroadcast delivers to every registered responder.
	TargetBroadcast TargetKind = "broadcast"
	// TargetConditional delivers to every responder the selector accepts.
	TargetConditional TargetKind = "conditional"
)

// Timing controls when a resolved delivery happens.
type Timing string

const (
	// TimingImmediate delivers during the routing call.
	TimingImmediate Timing = "immediate"
	// TimingDelayed delivers after the router's short fixed offset.
	TimingDelayed Timing = "delayed"
	// TimingScheduled delivers after the router's longer fixed offset.
	TimingScheduled Timing = "scheduled"
)

// Selector filters responders for target resolution.
type Selector func(core.Responder) bool

// Target declares one delivery destination of a rule.
type Target struct {
	Kind     TargetKind
	IDs      []string
	Selector Selector
	Timing   Timing
}

// Transformation is a pure message-to-message function. Returning nil drops
// the message for the owning rule.
type Transformation func(msg core.AgentMessage) *core.AgentMessage

// Middleware may enrich a message's metadata or payload in flight. Unlike a
// transformation it cannot drop the message.
type Middleware func(msg core.AgentMessage, rctx *Context) core.AgentMessage

// Rule is a declarative condition-to-target mapping. Registered once at
// startup and read-only during operation; Priority is in [0,1] and orders
// rule application.
type Rule struct {
	ID              string
	Priority        float64
	Conditions      []Condition
	Targets         []Target
	Transformations []Transformation
	Middleware      []Middleware
}

// matches reports whether every condition holds (AND). A rule without
// conditions matches everything.
func (r Rule) matches(msg core.AgentMessage, rctx *Context) bool {
	for _, c := range r.Conditions {
		if !c.Matches(msg, rctx) {
			return false
		}
	}
	return true
}
