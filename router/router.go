package router

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/chorusmesh/chorus/core"
	"github.com/chorusmesh/chorus/logging"
)

// DeliveryFunc hands a routed message to one responder. Implementations
// decide what delivery means (an in-process callback, a notification push);
// the router only records the outcome.
type DeliveryFunc func(responderID string, msg core.AgentMessage) error

// Priority above which a successfully executed rule short-circuits all
// lower-priority matches for the same message. Only rules that delivered to
// at least one target short-circuit; a rule whose transformation dropped the
// message leaves lower-priority rules in play.
const shortCircuitPriority = 0.8

// Options configures a Router.
type Options struct {
	Logger logging.Logger
	// Deliver receives every resolved delivery. Defaults to a no-op sink.
	Deliver DeliveryFunc
	// DelayOffset is the fixed wait for delayed targets.
	DelayOffset time.Duration
	// ScheduleOffset is the longer fixed wait for scheduled targets.
	ScheduleOffset time.Duration
}

// Router evaluates registered rules against messages and delivers to the
// resolved targets. The rule set is process-lifetime state mutated only via
// AddRule/RemoveRule/Use; Route itself holds no hidden state.
type Router struct {
	mu             sync.RWMutex
	rules          []Rule
	middleware     []Middleware
	logger         logging.Logger
	deliver        DeliveryFunc
	delayOffset    time.Duration
	scheduleOffset time.Duration
}

// New constructs a Router.
func New(optFns ...func(o *Options)) *Router {
	opts := Options{
		Logger:         logging.NoOpLogger{},
		Deliver:        func(string, core.AgentMessage) error { return nil },
		DelayOffset:    100 * time.Millisecond,
		ScheduleOffset: time.Second,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Router{
		logger:         opts.Logger,
		deliver:        opts.Deliver,
		delayOffset:    opts.DelayOffset,
		scheduleOffset: opts.ScheduleOffset,
	}
}

// AddRule registers a routing rule. Administrative operation, not part of
// per-turn state; priorities are clamped into [0,1].
func (r *Router) AddRule(rule Rule) error {
	if rule.ID == "" {
		return fmt.Errorf("router: rule with empty id")
	}
	if len(rule.Targets) == 0 {
		return fmt.Errorf("router: rule %q has no targets", rule.ID)
	}
	rule.Priority = core.Clamp01(rule.Priority)

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.rules {
		if existing.ID == rule.ID {
			return fmt.Errorf("router: rule %q already registered", rule.ID)
		}
	}
	r.rules = append(r.rules, rule)
	return nil
}

// RemoveRule deletes a rule by id, reporting whether it was present.
func (r *Router) RemoveRule(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, rule := range r.rules {
		if rule.ID == id {
			r.rules = append(r.rules[:i], r.rules[i+1:]...)
			return true
		}
	}
	return false
}

// Use appends a global middleware applied before every rule's own chain.
func (r *Router) Use(mw Middleware) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.middleware = append(r.middleware, mw)
}

// Rules returns a copy of the registered rules in registration order.
func (r *Router) Rules() []Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Rule, len(r.rules))
	copy(out, r.rules)
	return out
}

// Route dispatches one message: every matching rule is applied in descending
// priority order, each producing one RoutingExecution. Delivery failures to
// one target never block delivery to others. With no matching rule the
// message goes to an arbitrary available responder, recorded as degraded.
func (r *Router) Route(msg core.AgentMessage, rctx *Context) []core.RoutingExecution {
	r.mu.RLock()
	matching := make([]Rule, 0, len(r.rules))
	for _, rule := range r.rules {
		if rule.matches(msg, rctx) {
			matching = append(matching, rule)
		}
	}
	globals := make([]Middleware, len(r.middleware))
	copy(globals, r.middleware)
	r.mu.RUnlock()

	if len(matching) == 0 {
		return []core.RoutingExecution{r.routeDegraded(msg, rctx)}
	}

	// Stable sort keeps registration order among equal priorities.
	sort.SliceStable(matching, func(i, j int) bool { return matching[i].Priority > matching[j].Priority })

	var executions []core.RoutingExecution
	for _, rule := range matching {
		exec := r.applyRule(rule, msg, rctx, globals)
		executions = append(executions, exec)
		if exec.Success && len(exec.DeliveredTo) > 0 && rule.Priority > shortCircuitPriority {
			r.logger.Debug("router: short-circuit after high-priority rule", "rule", rule.ID, "priority", rule.Priority)
			break
		}
	}
	return executions
}

// applyRule runs one rule's transformation and middleware pipelines and
// delivers to its resolved targets.
func (r *Router) applyRule(rule Rule, msg core.AgentMessage, rctx *Context, globals []Middleware) core.RoutingExecution {
	exec := core.RoutingExecution{RuleID: rule.ID, Success: true}

	// Work on a copy so one rule's pipeline never leaks into another's.
	current := msg.Clone()
	for _, tf := range rule.Transformations {
		next := tf(current)
		if next == nil {
			// The transformation dropped the message for this rule.
			exec.DeliveredTo = []string{}
			return exec
		}
		current = *next
	}
	for _, mw := range globals {
		current = mw(current, rctx)
	}
	for _, mw := range rule.Middleware {
		current = mw(current, rctx)
	}

	for _, target := range rule.Targets {
		ids := r.resolveTarget(target, rctx)
		for _, id := range ids {
			if err := r.dispatch(target.Timing, id, current); err != nil {
				exec.Success = false
				exec.Errors = append(exec.Errors, fmt.Sprintf("%s: %v", id, err))
				continue
			}
			exec.DeliveredTo = append(exec.DeliveredTo, id)
		}
	}
	return exec
}

// resolveTarget turns a target declaration into responder ids. Resolution is
// deterministic: explicit ids in declared order, selector scans in registry
// order.
func (r *Router) resolveTarget(target Target, rctx *Context) []string {
	var pool []core.Responder
	if rctx != nil && rctx.Registry != nil {
		pool = rctx.Registry.All()
	}

	selected := func() []string {
		var out []string
		out = append(out, target.IDs...)
		if target.Selector != nil {
			for _, resp := range pool {
				if target.Selector(resp) {
					out = append(out, resp.ID())
				}
			}
		}
		return out
	}

	switch target.Kind {
	case TargetSingle:
		ids := selected()
		if len(ids) == 0 {
			return nil
		}
		return ids[:1]
	case TargetMultiple:
		return selected()
	case TargetBroadcast:
		out := make([]string, 0, len(pool))
		for _, resp := range pool {
			out = append(out, resp.ID())
		}
		return out
	case TargetConditional:
		if target.Selector == nil {
			return nil
		}
		var out []string
		for _, resp := range pool {
			if target.Selector(resp) {
				out = append(out, resp.ID())
			}
		}
		return out
	default:
		return nil
	}
}

// dispatch performs one delivery honoring the target's timing. Deferred
// timings report success optimistically; their eventual failure is logged,
// not recorded, since the routing operation has already returned.
func (r *Router) dispatch(timing Timing, responderID string, msg core.AgentMessage) error {
	offset := time.Duration(0)
	switch timing {
	case TimingDelayed:
		offset = r.delayOffset
	case TimingScheduled:
		offset = r.scheduleOffset
	}
	if offset <= 0 {
		return r.deliver(responderID, msg)
	}

	time.AfterFunc(offset, func() {
		if err := r.deliver(responderID, msg); err != nil {
			r.logger.Warn("router: deferred delivery failed", "responder", responderID, "message", msg.ID, "error", err)
		}
	})
	return nil
}

// routeDegraded is the no-match last resort: hand the message to the first
// available responder and record the degraded outcome explicitly.
func (r *Router) routeDegraded(msg core.AgentMessage, rctx *Context) core.RoutingExecution {
	exec := core.RoutingExecution{Degraded: true}
	if rctx == nil || rctx.Registry == nil || rctx.Registry.Len() == 0 {
		exec.Success = false
		exec.Errors = []string{"no responders available for degraded delivery"}
		return exec
	}
	id := rctx.Registry.All()[0].ID()
	if err := r.deliver(id, msg); err != nil {
		exec.Success = false
		exec.Errors = []string{fmt.Sprintf("%s: %v", id, err)}
		return exec
	}
	exec.Success = true
	exec.DeliveredTo = []string{id}
	r.logger.Warn("router: no rule matched, degraded delivery", "message", msg.ID, "delivered_to", id)
	return exec
}
