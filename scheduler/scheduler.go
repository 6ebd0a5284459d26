package scheduler

import (
	"strings"
	"time"

	"github.com/chorusmesh/chorus/core"
	"github.com/chorusmesh/chorus/logging"
)

// Weights blends the three selection signals. They should sum to 1 but this
// is not enforced; the comparison is relative.
type Weights struct {
	Applicability float64
	History       float64
	Fitness       float64
}

// DefaultWeights is the canonical 0.4/0.3/0.3 blend.
var DefaultWeights = Weights{Applicability: 0.4, History: 0.3, Fitness: 0.3}

// Minimum timeout a phase can be shrunk to under urgency pressure.
const timeoutFloor = 5 * time.Second

// Options configures a Scheduler.
type Options struct {
	Weights Weights
	Logger  logging.Logger
}

// Scheduler scores and selects one scheduling strategy per turn, delegates
// plan construction to it and post-processes the plan against scene signals.
// It is safe for concurrent use; all mutable state lives in the injected
// catalog and history.
type Scheduler struct {
	catalog *Catalog
	history *History
	weights Weights
	logger  logging.Logger
}

// New constructs a Scheduler over the given catalog and history.
func New(catalog *Catalog, history *History, optFns ...func(o *Options)) *Scheduler {
	opts := Options{
		Weights: DefaultWeights,
		Logger:  logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if history == nil {
		history = NewHistory()
	}
	return &Scheduler{catalog: catalog, history: history, weights: opts.Weights, logger: opts.Logger}
}

// Schedule selects a strategy and returns its optimized execution plan. It
// never fails: with no applicable strategy, or when the winner's plan
// construction errors, it returns the hard-coded fallback plan.
func (s *Scheduler) Schedule(scene core.SceneAnalysis, responders []core.Responder) *core.ExecutionPlan {
	applicable := s.applicable(scene, responders)
	if len(applicable) == 0 {
		s.logger.Warn("scheduler: no applicable strategy, using fallback plan", "scene_type", scene.Type)
		return s.fallbackPlan(responders)
	}

	winner := s.override(scene, applicable)
	if winner == nil {
		winner = s.bestByScore(scene, responders, applicable)
	}

	plan, err := winner.BuildPlan(scene, responders)
	if err != nil || plan == nil || len(plan.Phases) == 0 {
		s.logger.Error("scheduler: plan construction failed, using fallback plan", "strategy", winner.Name(), "error", err)
		return s.fallbackPlan(responders)
	}

	s.optimize(plan, scene)
	return plan
}

func (s *Scheduler) applicable(scene core.SceneAnalysis, responders []core.Responder) []Strategy {
	var out []Strategy
	for _, st := range s.catalog.All() {
		if st.IsApplicable(scene, responders) {
			out = append(out, st)
		}
	}
	return out
}

// override implements the hard preferences that precede scoring. Each only
// takes effect when the preferred strategy is in the applicable set.
func (s *Scheduler) override(scene core.SceneAnalysis, applicable []Strategy) Strategy {
	if scene.Intent.Urgency > 0.8 {
		if st := findByHint(applicable, "fast", "efficien"); st != nil {
			return st
		}
	}
	if scene.Type == core.SceneEmotionalSupport {
		if st := findByHint(applicable, "emotion"); st != nil {
			return st
		}
	}
	if scene.Type == core.SceneCreativeBrainstorm {
		if st := findByHint(applicable, "collab"); st != nil {
			return st
		}
	}
	return nil
}

func findByHint(strategies []Strategy, hints ...string) Strategy {
	for _, st := range strategies {
		name := strings.ToLower(st.Name())
		for _, h := range hints {
			if strings.Contains(name, h) {
				return st
			}
		}
	}
	return nil
}

// bestByScore picks the highest scoring strategy; strict comparison keeps
// catalog registration order as the tie-breaker.
func (s *Scheduler) bestByScore(scene core.SceneAnalysis, responders []core.Responder, applicable []Strategy) Strategy {
	best := applicable[0]
	bestScore := -1.0
	for _, st := range applicable {
		score := s.weights.Applicability*st.Applicability(scene, responders) +
			s.weights.History*s.history.SuccessRate(st.Name()) +
			s.weights.Fitness*contextFitness(st, scene, len(responders))
		if score > bestScore {
			best = st
			bestScore = score
		}
	}
	s.logger.Debug("scheduler: strategy scored", "strategy", best.Name(), "score", bestScore, "applicable", len(applicable))
	return best
}

// contextFitness rewards known scene/strategy affinities. Hints are matched
// on the strategy name so custom strategies can opt into affinities by
// naming convention.
func contextFitness(st Strategy, scene core.SceneAnalysis, poolSize int) float64 {
	name := strings.ToLower(st.Name())
	score := 0.5

	switch scene.Type {
	case core.SceneEmotionalSupport:
		if strings.Contains(name, "emotion") {
			score += 0.3
		}
	case core.SceneCreativeBrainstorm, core.SceneGroupDiscussion:
		if strings.Contains(name, "collab") {
			score += 0.3
		}
	case core.SceneKnowledgeQuery, core.SceneTaskAssistance:
		if strings.Contains(name, "pipeline") {
			score += 0.2
		}
	}

	if scene.Intent.Urgency > 0.6 && (strings.Contains(name, "fast") || strings.Contains(name, "efficien")) {
		score += 0.2
	}
	if poolSize >= 4 && strings.Contains(name, "collab") {
		score += 0.1
	}

	return core.Clamp01(score)
}

// optimize applies the post-selection adjustments driven by scene signals.
// The plan is mutated in place; after this pass it is treated as immutable.
func (s *Scheduler) optimize(plan *core.ExecutionPlan, scene core.SceneAnalysis) {
	for i := range plan.Phases {
		phase := &plan.Phases[i]

		if scene.Intent.Urgency > 0.7 && phase.Timeout > 0 {
			shrunk := time.Duration(float64(phase.Timeout) * 0.8)
			if shrunk < timeoutFloor {
				shrunk = timeoutFloor
			}
			if shrunk < phase.Timeout {
				phase.Timeout = shrunk
			}
		}

		if scene.Dynamics.GroupCohesion < 0.5 && phase.Mode == core.ModeParallel {
			phase.Mode = core.ModeSequential
		}

		if scene.Confidence < 0.7 {
			for j := range phase.Agents {
				if phase.Agents[j].RetryPolicy == nil {
					phase.Agents[j].RetryPolicy = &core.RetryPolicy{
						MaxAttempts: 2,
						Backoff:     time.Second,
					}
				}
			}
		}
	}
}

// fallbackPlan is the never-fails safety net: a single sequential phase over
// the top 3 responders in registry order.
func (s *Scheduler) fallbackPlan(responders []core.Responder) *core.ExecutionPlan {
	n := len(responders)
	if n > 3 {
		n = 3
	}
	agents := make([]core.AgentExecution, 0, n)
	for _, r := range responders[:n] {
		agents = append(agents, core.AgentExecution{
			ResponderID:       r.ID(),
			Priority:          0.5,
			ExpectedRole:      "responder",
			EstimatedDuration: 4 * time.Second,
		})
	}

	return &core.ExecutionPlan{
		StrategyName: "fallback",
		Phases: []core.Phase{{
			Name:    "fallback_response",
			Mode:    core.ModeSequential,
			Agents:  agents,
			Timeout: 20 * time.Second,
		}},
		Resources:          core.ResourceRequirements{MaxConcurrent: 1, EstimatedTotal: 20 * time.Second},
		QualityExpectation: 0.6,
		Complexity:         core.ComplexitySimple,
	}
}
