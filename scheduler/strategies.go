package scheduler

import (
	"fmt"
	"time"

	"github.com/chorusmesh/chorus/core"
)

// EmotionFirstStrategy leads with empathetic responders when the scene
// carries emotional weight. Plans are strictly sequential: emotional support
// reads as a conversation, not a fan-out.
type EmotionFirstStrategy struct{}

// NewEmotionFirstStrategy constructs the strategy.
func NewEmotionFirstStrategy() *EmotionFirstStrategy { return &EmotionFirstStrategy{} }

// Name implements Strategy.
func (s *EmotionFirstStrategy) Name() string { return "emotion_first" }

// IsApplicable implements Strategy.
func (s *EmotionFirstStrategy) IsApplicable(scene core.SceneAnalysis, responders []core.Responder) bool {
	if len(responders) == 0 {
		return false
	}
	return scene.Type == core.SceneEmotionalSupport || scene.EmotionalIntensity >= 0.5
}

// Applicability implements Strategy.
func (s *EmotionFirstStrategy) Applicability(scene core.SceneAnalysis, _ []core.Responder) float64 {
	score := 0.4 + 0.4*scene.EmotionalIntensity
	if scene.Type == core.SceneEmotionalSupport {
		score += 0.2
	}
	return core.Clamp01(score)
}

// BuildPlan implements Strategy. The lead phase runs up to three responders
// sequentially; a follow-up phase adds one closing contribution but only when
// the classifier was confident and the lead phase actually produced output.
func (s *EmotionFirstStrategy) BuildPlan(scene core.SceneAnalysis, responders []core.Responder) (*core.ExecutionPlan, error) {
	if len(responders) == 0 {
		return nil, fmt.Errorf("emotion_first: no responders available")
	}
	ranked := rankByParticipation(scene, responders)

	phases := []core.Phase{{
		Name:    "emotional_response",
		Mode:    core.ModeSequential,
		Agents:  executionsFor(ranked, 3, "empath", 4*time.Second),
		Timeout: 20 * time.Second,
	}}

	if len(ranked) > 1 {
		closing := executionsFor(ranked[:1], 1, "supporter", 3*time.Second)
		phases = append(phases, core.Phase{
			Name:         "support_followup",
			Mode:         core.ModeSequential,
			Agents:       closing,
			Dependencies: []string{"emotional_response"},
			Timeout:      10 * time.Second,
			Conditions: []core.PhaseCondition{
				{Kind: core.ConditionSceneConfidence, Threshold: 0.5},
			},
		})
	}

	return &core.ExecutionPlan{
		StrategyName:       s.Name(),
		Phases:             phases,
		Resources:          core.ResourceRequirements{MaxConcurrent: 1, EstimatedTotal: 30 * time.Second},
		QualityExpectation: 0.8,
		Complexity:         core.ComplexityModerate,
	}, nil
}

// FastSingleStrategy is the efficiency-oriented strategy: one responder, one
// phase, tight estimates. Preferred under high urgency.
type FastSingleStrategy struct{}

// NewFastSingleStrategy constructs the strategy.
func NewFastSingleStrategy() *FastSingleStrategy { return &FastSingleStrategy{} }

// Name implements Strategy.
func (s *FastSingleStrategy) Name() string { return "fast_single" }

// IsApplicable implements Strategy.
func (s *FastSingleStrategy) IsApplicable(_ core.SceneAnalysis, responders []core.Responder) bool {
	return len(responders) > 0
}

// Applicability implements Strategy.
func (s *FastSingleStrategy) Applicability(scene core.SceneAnalysis, _ []core.Responder) float64 {
	return core.Clamp01(0.3 + 0.6*scene.Intent.Urgency)
}

// BuildPlan implements Strategy.
func (s *FastSingleStrategy) BuildPlan(scene core.SceneAnalysis, responders []core.Responder) (*core.ExecutionPlan, error) {
	if len(responders) == 0 {
		return nil, fmt.Errorf("fast_single: no responders available")
	}
	ranked := rankByParticipation(scene, responders)

	return &core.ExecutionPlan{
		StrategyName: s.Name(),
		Phases: []core.Phase{{
			Name:    "rapid_response",
			Mode:    core.ModeSequential,
			Agents:  executionsFor(ranked, 1, "responder", 2500*time.Millisecond),
			Timeout: 10 * time.Second,
		}},
		Resources:          core.ResourceRequirements{MaxConcurrent: 1, EstimatedTotal: 3 * time.Second},
		QualityExpectation: 0.6,
		Complexity:         core.ComplexitySimple,
	}, nil
}

// CollaborativeStrategy fans responders out in parallel and synthesizes
// afterwards. Fits brainstorming and group discussion, where breadth beats
// depth.
type CollaborativeStrategy struct{}

// NewCollaborativeStrategy constructs the strategy.
func NewCollaborativeStrategy() *CollaborativeStrategy { return &CollaborativeStrategy{} }

// Name implements Strategy.
func (s *CollaborativeStrategy) Name() string { return "collaborative" }

// IsApplicable implements Strategy.
func (s *CollaborativeStrategy) IsApplicable(_ core.SceneAnalysis, responders []core.Responder) bool {
	return len(responders) >= 2
}

// Applicability implements Strategy.
func (s *CollaborativeStrategy) Applicability(scene core.SceneAnalysis, responders []core.Responder) float64 {
	score := 0.35 + 0.05*float64(len(responders))
	if scene.Type == core.SceneCreativeBrainstorm || scene.Type == core.SceneGroupDiscussion {
		score += 0.25
	}
	return core.Clamp01(score)
}

// BuildPlan implements Strategy. Synthesis depends on ideation: if every
// ideation invocation failed there is nothing to synthesize and the phase is
// skipped.
func (s *CollaborativeStrategy) BuildPlan(scene core.SceneAnalysis, responders []core.Responder) (*core.ExecutionPlan, error) {
	if len(responders) < 2 {
		return nil, fmt.Errorf("collaborative: need at least 2 responders, have %d", len(responders))
	}
	ranked := rankByParticipation(scene, responders)

	ideation := executionsFor(ranked, 4, "contributor", 5*time.Second)
	synthesis := executionsFor(ranked[:1], 1, "synthesizer", 4*time.Second)

	return &core.ExecutionPlan{
		StrategyName: s.Name(),
		Phases: []core.Phase{
			{
				Name:    "ideation",
				Mode:    core.ModeParallel,
				Agents:  ideation,
				Timeout: 20 * time.Second,
			},
			{
				Name:         "synthesis",
				Mode:         core.ModeSequential,
				Agents:       synthesis,
				Dependencies: []string{"ideation"},
				Timeout:      15 * time.Second,
			},
		},
		Resources:          core.ResourceRequirements{MaxConcurrent: len(ideation), EstimatedTotal: 35 * time.Second},
		QualityExpectation: 0.75,
		Complexity:         core.ComplexityComplex,
	}, nil
}

// DeepPipelineStrategy chains responders so each builds on the previous
// output. Fits knowledge queries and task assistance where refinement helps.
type DeepPipelineStrategy struct{}

// NewDeepPipelineStrategy constructs the strategy.
func NewDeepPipelineStrategy() *DeepPipelineStrategy { return &DeepPipelineStrategy{} }

// Name implements Strategy.
func (s *DeepPipelineStrategy) Name() string { return "deep_pipeline" }

// IsApplicable implements Strategy.
func (s *DeepPipelineStrategy) IsApplicable(scene core.SceneAnalysis, responders []core.Responder) bool {
	if len(responders) < 2 {
		return false
	}
	return scene.Type == core.SceneKnowledgeQuery || scene.Type == core.SceneTaskAssistance
}

// Applicability implements Strategy.
func (s *DeepPipelineStrategy) Applicability(scene core.SceneAnalysis, responders []core.Responder) float64 {
	score := 0.45 + 0.04*float64(len(responders))
	if scene.Intent.Expectation == "detailed" {
		score += 0.15
	}
	return core.Clamp01(score)
}

// BuildPlan implements Strategy.
func (s *DeepPipelineStrategy) BuildPlan(scene core.SceneAnalysis, responders []core.Responder) (*core.ExecutionPlan, error) {
	if len(responders) < 2 {
		return nil, fmt.Errorf("deep_pipeline: need at least 2 responders, have %d", len(responders))
	}
	ranked := rankByParticipation(scene, responders)

	return &core.ExecutionPlan{
		StrategyName: s.Name(),
		Phases: []core.Phase{{
			Name:    "progressive_refinement",
			Mode:    core.ModePipeline,
			Agents:  executionsFor(ranked, 3, "refiner", 6*time.Second),
			Timeout: 30 * time.Second,
		}},
		Resources:          core.ResourceRequirements{MaxConcurrent: 1, EstimatedTotal: 30 * time.Second},
		QualityExpectation: 0.8,
		Complexity:         core.ComplexityModerate,
	}, nil
}

// BalancedRoundStrategy is the general-purpose default: a sequential round
// over the top-ranked responders, with an optional emotion-gated closing
// contribution.
type BalancedRoundStrategy struct{}

// NewBalancedRoundStrategy constructs the strategy.
func NewBalancedRoundStrategy() *BalancedRoundStrategy { return &BalancedRoundStrategy{} }

// Name implements Strategy.
func (s *BalancedRoundStrategy) Name() string { return "balanced_round" }

// IsApplicable implements Strategy.
func (s *BalancedRoundStrategy) IsApplicable(_ core.SceneAnalysis, responders []core.Responder) bool {
	return len(responders) > 0
}

// Applicability implements Strategy.
func (s *BalancedRoundStrategy) Applicability(_ core.SceneAnalysis, _ []core.Responder) float64 {
	return 0.5
}

// BuildPlan implements Strategy.
func (s *BalancedRoundStrategy) BuildPlan(scene core.SceneAnalysis, responders []core.Responder) (*core.ExecutionPlan, error) {
	if len(responders) == 0 {
		return nil, fmt.Errorf("balanced_round: no responders available")
	}
	ranked := rankByParticipation(scene, responders)

	phases := []core.Phase{{
		Name:    "round_robin",
		Mode:    core.ModeSequential,
		Agents:  executionsFor(ranked, 3, "participant", 4*time.Second),
		Timeout: 20 * time.Second,
	}}

	if len(ranked) > 1 {
		closer := executionsFor(ranked[len(ranked)-1:], 1, "closer", 3*time.Second)
		closer[0].Condition = func(sc core.SceneAnalysis) bool { return sc.EmotionalIntensity >= 0.6 }
		phases = append(phases, core.Phase{
			Name:         "emotional_closure",
			Mode:         core.ModeConditional,
			Agents:       closer,
			Dependencies: []string{"round_robin"},
			Timeout:      10 * time.Second,
		})
	}

	return &core.ExecutionPlan{
		StrategyName:       s.Name(),
		Phases:             phases,
		Resources:          core.ResourceRequirements{MaxConcurrent: 1, EstimatedTotal: 30 * time.Second},
		QualityExpectation: 0.7,
		Complexity:         core.ComplexityModerate,
	}, nil
}

// DefaultCatalog returns a catalog pre-registered with the five built-in
// strategies in their canonical order.
func DefaultCatalog() *Catalog {
	c := NewCatalog()
	for _, st := range []Strategy{
		NewEmotionFirstStrategy(),
		NewFastSingleStrategy(),
		NewCollaborativeStrategy(),
		NewDeepPipelineStrategy(),
		NewBalancedRoundStrategy(),
	} {
		// Names are unique by construction; Register cannot fail here.
		_ = c.Register(st)
	}
	return c
}
