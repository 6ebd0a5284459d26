package aggregator

import (
	"fmt"
	"sync"

	"github.com/chorusmesh/chorus/core"
)

// Context carries the per-turn surroundings an aggregation consults: the
// classified scene, the user's message for relevance scoring, and the size of
// the invoked responder set.
type Context struct {
	Scene           core.SceneAnalysis
	UserMessage     string
	TotalResponders int
}

// Strategy selects and orders the final responses from a set of successful
// results. Strategies are stateless values enumerated at process start;
// selection mirrors the scheduler's mechanics over result-set properties.
type Strategy interface {
	// Name is the stable identifier recorded on aggregated results.
	Name() string

	// IsApplicable reports whether this strategy can serve the result set at all.
	IsApplicable(results []core.AgentResult, actx Context) bool

	// Applicability scores how well this strategy fits the result set, in
	// [0,1]. Only consulted for applicable strategies.
	Applicability(results []core.AgentResult, actx Context) float64

	// Merge picks the final response subset and ordering. Inputs are already
	// filtered to successful results with content.
	Merge(results []core.AgentResult, actx Context) []core.Response
}

// Catalog is the process-lifetime, registration-ordered set of aggregation
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

// toResponses converts successful results into responses in the given order.
func toResponses(results []core.AgentResult) []core.Response {
	out := make([]core.Response, 0, len(results))
	for _, r := range results {
		if r.Data == nil {
			continue
		}
		out = append(out, core.Response{
			ResponderID: r.ResponderID,
			Content:     r.Data.Content,
			Confidence:  r.Data.Confidence,
		})
	}
	return out
}
