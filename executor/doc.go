// Package executor walks an execution plan's ordered phases, running each
// phase's responders according to its declared concurrency mode (sequential,
// parallel, pipeline, conditional) under per-responder retry policies and a
// per-phase wall-clock timeout.
//
// The executor is built for partial-failure tolerance: a single responder
// failure never aborts its phase or the plan; it is recorded as a failed
// AgentResult and execution continues. Condition gates and unsatisfied phase
// dependencies skip a phase silently. Turn-level cancellation is checked
// between phases only, returning whatever results have accumulated.
package executor
