// Package anthropic adapts the Anthropic Messages API into a core.Responder.
package anthropic

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/chorusmesh/chorus/core"
	"github.com/chorusmesh/chorus/responder"
)

// Options configures the Anthropic responder adapter (temperature, model id,
// max tokens, API key). Extend via functional options to preserve stability.
type Options struct {
	Model        anthropic.Model
	Temperature  float64
	MaxTokens    int64
	APIKey       string
	Capabilities []string
	// SystemPrompt overrides the default role-conditioned instruction.
	SystemPrompt string
}

// Responder wraps the Anthropic Messages API behind core.Responder.
type Responder struct {
	id     string
	client *anthropic.Client
	opts   Options
}

// New creates a new Anthropic responder using the official client
func New(id string, optFns ...func(o *Options)) *Responder {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := anthropic.NewClient(clientOpts...)

	return &Responder{id: id, client: &client, opts: opts}
}

// NewFromClient creates a new Anthropic responder from an existing client
func NewFromClient(id string, client *anthropic.Client, optFns ...func(o *Options)) *Responder {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Responder{id: id, client: client, opts: opts}
}

func defaultOptions() Options {
	return Options{
		Model:        anthropic.ModelClaude3_5Sonnet20241022,
		Temperature:  0.7,
		MaxTokens:    1024,
		Capabilities: []string{"chat"},
	}
}

// ID implements core.Responder.
func (r *Responder) ID() string { return r.id }

// Capabilities implements core.Responder.
func (r *Responder) Capabilities() []string { return r.opts.Capabilities }

// Execute implements core.Responder with a single non-streaming message call.
func (r *Responder) Execute(ctx context.Context, input core.Input) (core.AgentResult, error) {
	start := time.Now()

	system := r.opts.SystemPrompt
	if system == "" {
		system = responder.SystemPrompt(input.ExpectedRole)
	}

	params := anthropic.MessageNewParams{
		Model:       r.opts.Model,
		MaxTokens:   r.opts.MaxTokens,
		Temperature: anthropic.Float(r.opts.Temperature),
		System: []anthropic.TextBlockParam{
			{Text: system},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(responder.UserPrompt(input))),
		},
	}

	resp, err := r.client.Messages.New(ctx, params)
	metrics := core.ResultMetrics{ExecutionTime: time.Since(start)}
	if err != nil {
		return core.FailedResult(r.id, fmt.Errorf("anthropic api error: %w", err), metrics), nil
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.AsText().Text)
		}
	}
	if text.Len() == 0 {
		return core.FailedResult(r.id, fmt.Errorf("no text content returned"), metrics), nil
	}

	return core.AgentResult{
		ResponderID: r.id,
		Success:     true,
		Data: &core.ResultData{
			Content:    text.String(),
			Confidence: confidenceFor(string(resp.StopReason)),
		},
		Metrics: metrics,
	}, nil
}

// confidenceFor maps the stop reason onto a confidence score: a clean end of
// turn is trusted, a truncated answer much less.
func confidenceFor(stopReason string) float64 {
	switch stopReason {
	case "end_turn", "stop_sequence":
		return 0.9
	case "max_tokens":
		return 0.6
	default:
		return 0.5
	}
}
