package scheduler

import (
	"fmt"
	"sync"

	"github.com/chorusmesh/chorus/core"
)

// Strategy is the shared applicability + plan-construction contract every
// scheduling strategy implements. Strategies are stateless values enumerated
// at process start; per-turn data flows in through the arguments.
type Strategy interface {
	// Name is the stable identifier recorded on produced plans.
	Name() string

	// IsApplicable reports whether this strategy can serve the scene at all.
	IsApplicable(scene core.SceneAnalysis, responders []core.Responder) bool

	// Applicability scores how well this strategy fits the scene, in [0,1].
	// Only consulted for applicable strategies.
	Applicability(scene core.SceneAnalysis, responders []core.Responder) float64

	// BuildPlan materializes an execution plan for the scene.
	BuildPlan(scene core.SceneAnalysis, responders []core.Responder) (*core.ExecutionPlan, error)
}

// Catalog is the process-lifetime, registration-ordered set of scheduling
// strategies. Score ties are broken by registration order, so order matters
// and is preserved. Mutations are administrative only.
type Catalog struct {
	mu         sync.RWMutex
	strategies []Strategy
}

// NewCatalog constructs an empty catalog.
func NewCatalog() *Catalog { return &Catalog{} }

// Register appends a strategy. Duplicate names are rejected.
func (c *Catalog) Register(st Strategy) error {
	if st == nil {
		return fmt.Errorf("catalog: nil strategy")
	}
	if st.Name() == "" {
		return fmt.Errorf("catalog: strategy with empty name")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, existing := range c.strategies {
		if existing.Name() == st.Name() {
			return fmt.Errorf("catalog: strategy %q already registered", st.Name())
		}
	}
	c.strategies = append(c.strategies, st)
	return nil
}

// All returns the strategies in registration order as a copy.
func (c *Catalog) All() []Strategy {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Strategy, len(c.strategies))
	copy(out, c.strategies)
	return out
}

// ByName returns the strategy with the given name.
func (c *Catalog) ByName(name string) (Strategy, bool) {
	for _, st := range c.All() {
		if st.Name() == name {
			return st, true
		}
	}
	return nil, false
}

// Len returns the number of registered strategies.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.strategies)
}
