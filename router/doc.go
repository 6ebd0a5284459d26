// Package router implements rule-based dispatch of structured notifications
// between orchestration components and responders. Rules are declarative:
// AND-combined conditions select messages, transformation and middleware
// pipelines reshape them, and target selectors resolve recipients with
// per-target delivery timing.
//
// Routing is a pure function of the rule set, the message and the routing
// context: routing the same message twice through an unchanged rule set
// yields the same delivery targets. A successfully executed rule with
// priority above 0.8 short-circuits all lower-priority matches. When nothing
// matches, the message is handed to an arbitrary available responder and the
// outcome is recorded as a degraded delivery.
//
// A secondary queue mode offers best-effort asynchronous delivery with
// bounded re-queues, drained by a single worker to preserve per-message
// retry ordering.
package router
