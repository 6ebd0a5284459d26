// Package core provides the foundational domain types, interfaces and
// contracts used by Chorus. It defines the core abstractions for:
//
//   - Scene analysis (the classified conversational context driving scheduling)
//   - Execution plans (phases, concurrency modes, retry policies)
//   - Responders (external units producing text + confidence) and their Registry
//   - Results (per-responder AgentResult, merged AggregatedResult, quality breakdown)
//   - Messages (transient routed notifications) and routing outcomes
//   - Lifecycle events emitted over the caller-supplied side channel
//
// The package intentionally keeps implementation concerns (scheduling,
// execution, routing, aggregation) out of scope, exposing small types and
// interfaces so components can be wired explicitly rather than through
// ambient global state. All per-turn structures are owned by the turn that
// created them and discarded at its end; only the Registry is
// process-lifetime state.
package core
