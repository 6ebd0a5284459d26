// Package openai adapts the OpenAI Chat Completions API into a
// core.Responder. Each Execute is one non-streaming completion; the opaque
// input is rendered into a role-conditioned prompt and the finish reason is
// mapped onto a confidence score.
package openai

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go"

	"github.com/chorusmesh/chorus/core"
	"github.com/chorusmesh/chorus/responder"
)

// Options configure the OpenAI responder adapter.
// Fields mirror a subset of Chat Completion parameters intentionally kept
// minimal; extend via functional options without breaking callers.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
	Capabilities        []string
	// SystemPrompt overrides the default role-conditioned instruction.
	SystemPrompt string
}

// Responder wraps the OpenAI Chat Completions API behind core.Responder.
type Responder struct {
	id     string
	client *openai.Client
	opts   Options
}

// New creates a new OpenAI responder using the official client
func New(id string, optFns ...func(o *Options)) *Responder {
	client := openai.NewClient()
	return NewFromClient(id, &client, optFns...)
}

// NewFromClient creates a new OpenAI responder from an existing client
func NewFromClient(id string, client *openai.Client, optFns ...func(o *Options)) *Responder {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.7,
		MaxCompletionTokens: 1024,
		Capabilities:        []string{"chat"},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Responder{id: id, client: client, opts: opts}
}

// ID implements core.Responder.
func (r *Responder) ID() string { return r.id }

// Capabilities implements core.Responder.
func (r *Responder) Capabilities() []string { return r.opts.Capabilities }

// Execute implements core.Responder with a single non-streaming completion.
func (r *Responder) Execute(ctx context.Context, input core.Input) (core.AgentResult, error) {
	start := time.Now()

	system := r.opts.SystemPrompt
	if system == "" {
		system = responder.SystemPrompt(input.ExpectedRole)
	}

	params := openai.ChatCompletionNewParams{
		Model: r.opts.Model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(responder.UserPrompt(input)),
		},
		Temperature:         openai.Float(r.opts.Temperature),
		MaxCompletionTokens: openai.Int(r.opts.MaxCompletionTokens),
	}

	resp, err := r.client.Chat.Completions.New(ctx, params)
	metrics := core.ResultMetrics{ExecutionTime: time.Since(start)}
	if err != nil {
		return core.FailedResult(r.id, fmt.Errorf("openai api error: %w", err), metrics), nil
	}
	if len(resp.Choices) == 0 {
		return core.FailedResult(r.id, fmt.Errorf("no choices returned"), metrics), nil
	}

	choice := resp.Choices[0]
	return core.AgentResult{
		ResponderID: r.id,
		Success:     true,
		Data: &core.ResultData{
			Content:    choice.Message.Content,
			Confidence: confidenceFor(choice.FinishReason),
		},
		Metrics: metrics,
	}, nil
}

// confidenceFor maps the completion finish reason onto a confidence score: a
// clean stop is trusted, a truncated answer much less.
func confidenceFor(finishReason string) float64 {
	switch finishReason {
	case "stop":
		return 0.9
	case "length":
		return 0.6
	default:
		return 0.5
	}
}
