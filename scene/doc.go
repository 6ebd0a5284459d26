// Package scene defines the contract with the external scene classifier
// collaborator and the degraded defaults used when it fails. The
// orchestration core treats classifier failure as degraded-quality input,
// never as a fatal error: any error from a Classifier is replaced by the
// low-confidence Fallback analysis.
//
// A keyword-based classifier is included so the core can run without a model
// backed collaborator (tests, examples, offline operation).
package scene
