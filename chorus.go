// Package chorus provides a high-level façade over the orchestration engine
// enabling rapid construction of multi-responder conversation systems. Most
// applications interact with this package by:
//  1. Creating a Chorus via New() (optionally overriding the config,
//     classifier, catalogs or logger)
//  2. Registering one or more responders (static, provider-backed, custom)
//  3. Processing turns with ProcessTurn
//
// The façade delegates orchestration to engine.Engine while keeping setup
// and usage ergonomics concise. All defaults are safe for local development
// and testing; production deployments typically supply provider-backed
// responders and a structured logger.
package chorus

import (
	"context"

	"github.com/chorusmesh/chorus/aggregator"
	"github.com/chorusmesh/chorus/config"
	"github.com/chorusmesh/chorus/core"
	"github.com/chorusmesh/chorus/engine"
	"github.com/chorusmesh/chorus/executor"
	"github.com/chorusmesh/chorus/logging"
	"github.com/chorusmesh/chorus/router"
	"github.com/chorusmesh/chorus/scene"
	"github.com/chorusmesh/chorus/scheduler"
	"github.com/chorusmesh/chorus/textscore"
)

// Version of the chorus module.
const Version = "0.1.0"

// Options configures a Chorus instance.
type Options struct {
	// Config supplies the tunables. Defaults to config.Default().
	Config *config.Config

	// Classifier produces the scene analysis for each turn. Defaults to the
	// built-in keyword classifier.
	Classifier scene.Classifier

	// Strategies is the scheduling strategy catalog. Defaults to the five
	// built-in strategies.
	Strategies *scheduler.Catalog

	// Aggregations is the aggregation strategy catalog. Defaults to the six
	// built-in strategies.
	Aggregations *aggregator.Catalog

	// Similarity and Emotion are the text heuristics shared by the built-in
	// catalogs and the aggregator. Default to the lexical scorer and keyword
	// detector.
	Similarity textscore.SimilarityScorer
	Emotion    textscore.EmotionDetector

	// Deliver receives routed messages. Defaults to a no-op sink.
	Deliver router.DeliveryFunc

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger

	// Events is the advisory lifecycle side channel for streaming/progress
	// UIs. A nil handler is valid.
	Events core.EventHandler
}

// Chorus is the high-level façade aggregating the engine and its
// administrative surfaces.
type Chorus struct {
	registry     *core.Registry
	strategies   *scheduler.Catalog
	aggregations *aggregator.Catalog
	rtr          *router.Router
	engine       *engine.Engine
}

// New creates a Chorus instance with optional overrides. Unset components are
// initialized with the built-in defaults. The only failure mode is a
// configuration error such as an empty strategy catalog.
func New(optFns ...func(o *Options)) (*Chorus, error) {
	opts := Options{
		Config:     config.Default(),
		Classifier: scene.NewKeywordClassifier(),
		Similarity: textscore.NewLexicalScorer(),
		Emotion:    textscore.NewKeywordDetector(),
		Logger:     logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Config == nil {
		opts.Config = config.Default()
	}
	if err := opts.Config.Validate(); err != nil {
		return nil, err
	}
	if opts.Strategies == nil {
		opts.Strategies = scheduler.DefaultCatalog()
	}
	if opts.Aggregations == nil {
		opts.Aggregations = aggregator.DefaultCatalog(opts.Similarity, opts.Emotion)
	}

	registry := core.NewRegistry()
	history := scheduler.NewHistory()

	sched := scheduler.New(opts.Strategies, history, func(o *scheduler.Options) {
		o.Logger = opts.Logger
		o.Weights = scheduler.Weights{
			Applicability: opts.Config.Scheduler.ApplicabilityWeight,
			History:       opts.Config.Scheduler.HistoryWeight,
			Fitness:       opts.Config.Scheduler.FitnessWeight,
		}
	})
	exec := executor.New(registry, func(o *executor.Options) {
		o.Logger = opts.Logger
		o.Events = opts.Events
		o.DefaultPhaseTimeout = opts.Config.DefaultPhaseTimeout()
	})
	rtr := router.New(func(o *router.Options) {
		o.Logger = opts.Logger
		o.DelayOffset = opts.Config.DelayOffset()
		o.ScheduleOffset = opts.Config.ScheduleOffset()
		if opts.Deliver != nil {
			o.Deliver = opts.Deliver
		}
	})
	// Default rule set: fan turn coordination out to the whole pool. Callers
	// can remove or override it by id.
	if err := rtr.AddRule(router.Rule{
		ID:       "default-turn-coordination",
		Priority: 0.5,
		Conditions: []router.Condition{
			{Kind: router.ConditionMessageType, Equals: "turn_coordination"},
		},
		Targets: []router.Target{{Kind: router.TargetBroadcast, Timing: router.TimingImmediate}},
	}); err != nil {
		return nil, err
	}

	agg := aggregator.New(opts.Aggregations, func(o *aggregator.Options) {
		o.Logger = opts.Logger
		o.Similarity = opts.Similarity
		o.Emotion = opts.Emotion
		o.History = history
		o.MinQuality = opts.Config.Aggregator.MinQuality
	})

	eng, err := engine.New(registry, opts.Strategies, opts.Aggregations, func(o *engine.Options) {
		o.Classifier = opts.Classifier
		o.Scheduler = sched
		o.Executor = exec
		o.Router = rtr
		o.Aggregator = agg
		o.History = history
		o.Logger = opts.Logger
		o.Events = opts.Events
	})
	if err != nil {
		return nil, err
	}

	return &Chorus{
		registry:     registry,
		strategies:   opts.Strategies,
		aggregations: opts.Aggregations,
		rtr:          rtr,
		engine:       eng,
	}, nil
}

// RegisterResponder adds a responder to the pool.
func (c *Chorus) RegisterResponder(r core.Responder) error {
	return c.registry.Register(r)
}

// RemoveResponder removes a responder from the pool.
func (c *Chorus) RemoveResponder(id string) bool {
	return c.registry.Remove(id)
}

// RegisterStrategy adds a scheduling strategy to the catalog.
func (c *Chorus) RegisterStrategy(st scheduler.Strategy) error {
	return c.strategies.Register(st)
}

// RegisterAggregation adds an aggregation strategy to the catalog.
func (c *Chorus) RegisterAggregation(st aggregator.Strategy) error {
	return c.aggregations.Register(st)
}

// AddRoutingRule registers a routing rule.
func (c *Chorus) AddRoutingRule(rule router.Rule) error {
	return c.rtr.AddRule(rule)
}

// RemoveRoutingRule deletes a routing rule by id.
func (c *Chorus) RemoveRoutingRule(id string) bool {
	return c.rtr.RemoveRule(id)
}

// Use appends a global routing middleware.
func (c *Chorus) Use(mw router.Middleware) {
	c.rtr.Use(mw)
}

// ProcessTurn runs one conversational turn against the registered responder
// pool. It never returns an error; every failure mode degrades into a
// structured result.
func (c *Chorus) ProcessTurn(ctx context.Context, conversationID, userMessage string) engine.TurnResult {
	return c.engine.ProcessTurn(ctx, conversationID, userMessage)
}
