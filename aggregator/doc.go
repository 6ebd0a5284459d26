// Package aggregator merges the raw per-responder results of one turn into a
// single quality-scored output. A catalog of named aggregation strategies is
// scored per turn with the same applicability/history/fitness blend the
// scheduler uses, but over result-set properties instead of plan properties;
// the winning strategy selects and orders the final responses.
//
// Every aggregated result carries a five-dimension quality breakdown
// (coherence, completeness, relevance, diversity, emotional alignment) whose
// weighted sum is the overall quality score. Results below the minimum
// quality get one bounded repair pass: near-duplicate and low-relevance
// responses are dropped and the breakdown recomputed once, never looped.
//
// Aggregation never fails: an empty result set yields a zero-quality
// non-error result, and recommendations plus next actions are advisory
// metadata only.
package aggregator
