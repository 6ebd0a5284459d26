// Package engine wires the orchestration pipeline for one conversational
// turn: classify the scene, schedule an execution plan, run it against the
// responder registry, route coordination messages and aggregate the raw
// results into a single quality-scored output.
//
// ProcessTurn always returns a structured result. Classifier failures fall
// back to a safe default scene, plan and aggregation failures fall back to
// hard-coded defaults inside their components, and an empty responder pool
// yields an explicit unsuccessful result rather than an error. Lifecycle
// events stream on an advisory side channel that correctness never depends
// on.
package engine
