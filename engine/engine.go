package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/chorusmesh/chorus/aggregator"
	"github.com/chorusmesh/chorus/core"
	"github.com/chorusmesh/chorus/executor"
	"github.com/chorusmesh/chorus/logging"
	"github.com/chorusmesh/chorus/router"
	"github.com/chorusmesh/chorus/scene"
	"github.com/chorusmesh/chorus/scheduler"
)

// TurnResult is what ProcessTurn hands back to the caller: the merged
// responses plus observability data about how the turn was produced.
type TurnResult struct {
	TurnID              string          `json:"turn_id"`
	Responses           []core.Response `json:"responses"`
	AgentsUsed          []string        `json:"agents_used"`
	Quality             float64         `json:"quality"`
	Strategy            string          `json:"strategy"`
	AggregationStrategy string          `json:"aggregation_strategy"`
	SceneType           core.SceneType  `json:"scene_type"`
	TotalExecutionTime  time.Duration   `json:"total_execution_time"`
	Success             bool            `json:"success"`
}

// Quality at or above which a turn counts as a success in the strategy
// history.
const historySuccessQuality = 0.6

// Options configures an Engine. Component fields default to working
// implementations built over the shared registry and history.
type Options struct {
	// Classifier produces the scene analysis. Nil falls back to the keyword
	// classifier.
	Classifier scene.Classifier

	// Scheduler, Executor, Router and Aggregator replace the default
	// components when set.
	Scheduler  *scheduler.Scheduler
	Executor   *executor.Executor
	Router     *router.Router
	Aggregator *aggregator.Aggregator

	// History is the shared strategy success history. Defaults to a fresh one.
	History *scheduler.History

	// Logger provides structured logging. Defaults to NoOpLogger.
	Logger logging.Logger

	// Events is the advisory lifecycle side channel. A nil handler is valid.
	Events core.EventHandler
}

// Engine coordinates one conversational turn end to end. Safe for concurrent
// use: per-turn state lives on the stack of ProcessTurn, and the shared
// registry, catalogs and history guard themselves.
type Engine struct {
	registry   *core.Registry
	classifier scene.Classifier
	scheduler  *scheduler.Scheduler
	executor   *executor.Executor
	router     *router.Router
	aggregator *aggregator.Aggregator
	history    *scheduler.History
	logger     logging.Logger
	events     core.EventHandler
}

// New constructs an Engine over a registry and the two strategy catalogs.
// Empty catalogs are a configuration error and the only failure mode; once
// constructed, ProcessTurn never returns an error.
func New(registry *core.Registry, strategies *scheduler.Catalog, aggregations *aggregator.Catalog, optFns ...func(o *Options)) (*Engine, error) {
	if registry == nil {
		return nil, fmt.Errorf("engine: nil registry")
	}
	if strategies == nil || strategies.Len() == 0 {
		return nil, fmt.Errorf("engine: no scheduling strategies registered")
	}
	if aggregations == nil || aggregations.Len() == 0 {
		return nil, fmt.Errorf("engine: no aggregation strategies registered")
	}

	opts := Options{
		Classifier: scene.NewKeywordClassifier(),
		Logger:     logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.History == nil {
		opts.History = scheduler.NewHistory()
	}
	if opts.Scheduler == nil {
		opts.Scheduler = scheduler.New(strategies, opts.History, func(o *scheduler.Options) {
			o.Logger = opts.Logger
		})
	}
	if opts.Executor == nil {
		opts.Executor = executor.New(registry, func(o *executor.Options) {
			o.Logger = opts.Logger
			o.Events = opts.Events
		})
	}
	if opts.Router == nil {
		opts.Router = router.New(func(o *router.Options) {
			o.Logger = opts.Logger
		})
	}
	if opts.Aggregator == nil {
		opts.Aggregator = aggregator.New(aggregations, func(o *aggregator.Options) {
			o.Logger = opts.Logger
			o.History = opts.History
		})
	}

	return &Engine{
		registry:   registry,
		classifier: opts.Classifier,
		scheduler:  opts.Scheduler,
		executor:   opts.Executor,
		router:     opts.Router,
		aggregator: opts.Aggregator,
		history:    opts.History,
		logger:     opts.Logger,
		events:     opts.Events,
	}, nil
}

// Registry returns the responder registry for administrative registration.
func (e *Engine) Registry() *core.Registry { return e.registry }

// Router returns the message router for administrative rule management.
func (e *Engine) Router() *router.Router { return e.router }

// History returns the shared strategy success history.
func (e *Engine) History() *scheduler.History { return e.history }

// ProcessTurn runs one conversational turn. Synchronous from the caller's
// point of view and never returns an error: every failure mode degrades into
// a structured result.
func (e *Engine) ProcessTurn(ctx context.Context, conversationID, userMessage string) TurnResult {
	turnID := core.NewID()
	start := time.Now()
	e.events.Emit(core.NewEvent(turnID, core.EventTurnStarted))

	if e.registry.Len() == 0 {
		e.logger.Warn("engine: responder pool empty", "turn", turnID)
		return e.finish(turnID, TurnResult{
			TurnID:    turnID,
			Responses: []core.Response{},
			Success:   false,
		}, start)
	}

	analysis := scene.Classify(ctx, e.classifier, conversationID, userMessage)
	responders := e.registry.All()

	plan := e.scheduler.Schedule(analysis, responders)
	e.logger.Info("engine: plan scheduled",
		"turn", turnID, "strategy", plan.StrategyName, "phases", len(plan.Phases), "scene_type", analysis.Type)

	e.announceTurn(turnID, analysis, plan)

	input := core.Input{
		ConversationID: conversationID,
		UserMessage:    userMessage,
		Scene:          analysis,
	}
	results := e.executor.RunPlan(ctx, plan, input)

	merged := e.aggregator.Aggregate(results, aggregator.Context{
		Scene:           analysis,
		UserMessage:     userMessage,
		TotalResponders: len(results),
	})
	e.history.Record(plan.StrategyName, merged.QualityScore >= historySuccessQuality)

	aggEvent := core.NewEvent(turnID, core.EventAggregationComplete)
	aggEvent.Payload = map[string]any{
		"strategy": merged.Metadata.Strategy,
		"quality":  merged.QualityScore,
	}
	e.events.Emit(aggEvent)

	return e.finish(turnID, TurnResult{
		TurnID:              turnID,
		Responses:           merged.FinalResponses,
		AgentsUsed:          agentsUsed(results),
		Quality:             merged.QualityScore,
		Strategy:            plan.StrategyName,
		AggregationStrategy: merged.Metadata.Strategy,
		SceneType:           analysis.Type,
		Success:             merged.Success,
	}, start)
}

// announceTurn routes the per-turn coordination message so rule-subscribed
// responders learn a turn is in flight. Routing failures are recorded in the
// executions and never block the turn.
func (e *Engine) announceTurn(turnID string, analysis core.SceneAnalysis, plan *core.ExecutionPlan) {
	msg := core.NewAgentMessage("turn_coordination", "engine", map[string]any{
		"strategy": plan.StrategyName,
		"phases":   len(plan.Phases),
	})
	execs := e.router.Route(msg, &router.Context{
		Scene:    analysis,
		Registry: e.registry,
		TurnID:   turnID,
	})

	event := core.NewEvent(turnID, core.EventRoutingComplete)
	event.Payload = map[string]any{"executions": len(execs)}
	e.events.Emit(event)
}

func (e *Engine) finish(turnID string, result TurnResult, start time.Time) TurnResult {
	result.TotalExecutionTime = time.Since(start)
	e.events.Emit(core.NewEvent(turnID, core.EventTurnComplete))
	e.logger.Info("engine: turn complete",
		"turn", turnID, "success", result.Success, "quality", result.Quality, "duration", result.TotalExecutionTime)
	return result
}

// agentsUsed lists the distinct responder ids that were invoked, in first
// invocation order.
func agentsUsed(results []core.AgentResult) []string {
	seen := make(map[string]struct{}, len(results))
	var out []string
	for _, r := range results {
		if _, ok := seen[r.ResponderID]; ok {
			continue
		}
		seen[r.ResponderID] = struct{}{}
		out = append(out, r.ResponderID)
	}
	return out
}
