// Package responder provides core.Responder implementations and the shared
// prompt rendering used by the provider-backed adapters in the openai and
// anthropic subpackages. Static and Func responders serve tests, examples
// and deterministic deployments.
package responder
