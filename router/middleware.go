package router

import "github.com/chorusmesh/chorus/core"

// SceneContextMiddleware stamps the routing context's scene type and
// confidence into the message payload so downstream recipients can react to
// the conversational situation without re-classifying.
func SceneContextMiddleware() Middleware {
	return func(msg core.AgentMessage, rctx *Context) core.AgentMessage {
		if rctx == nil {
			return msg
		}
		out := msg.Clone()
		if out.Payload == nil {
			out.Payload = map[string]any{}
		}
		out.Payload["scene_type"] = string(rctx.Scene.Type)
		out.Payload["scene_confidence"] = rctx.Scene.Confidence
		return out
	}
}

// UrgencyBoostMiddleware raises message priority under high scene urgency so
// urgent turns cut ahead in any recipient-side ordering.
func UrgencyBoostMiddleware(threshold, boost float64) Middleware {
	return func(msg core.AgentMessage, rctx *Context) core.AgentMessage {
		if rctx == nil || rctx.Scene.Intent.Urgency <= threshold {
			return msg
		}
		out := msg.Clone()
		out.Metadata.Priority = core.Clamp01(out.Metadata.Priority + boost)
		return out
	}
}

// DropTransformation builds a transformation that discards messages the
// predicate rejects. Useful for rule-local filtering without a condition.
func DropTransformation(keep func(core.AgentMessage) bool) Transformation {
	return func(msg core.AgentMessage) *core.AgentMessage {
		if !keep(msg) {
			return nil
		}
		return &msg
	}
}
