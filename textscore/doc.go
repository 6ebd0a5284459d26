// Package textscore holds the pluggable text heuristics used by aggregation
// and scene fallback classification: lexical similarity scoring and keyword
// based emotion detection. Both hide behind narrow interfaces so they can be
// swapped for better implementations without touching any control flow; the
// exact heuristic weights are an implementation detail, not a contract.
package textscore
