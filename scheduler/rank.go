package scheduler

import (
	"sort"
	"time"

	"github.com/chorusmesh/chorus/core"
)

// rankedResponder pairs a responder with its effective participation priority.
type rankedResponder struct {
	responder core.Responder
	priority  float64
	role      string
}

// rankByParticipation orders responders by the scene's participation
// suggestion priority, descending; responders without a suggestion keep a
// neutral 0.5 priority. The sort is stable so registry order breaks ties.
func rankByParticipation(scene core.SceneAnalysis, responders []core.Responder) []rankedResponder {
	ranked := make([]rankedResponder, 0, len(responders))
	for _, r := range responders {
		rr := rankedResponder{responder: r, priority: 0.5}
		if s, ok := scene.SuggestionFor(r.ID()); ok {
			rr.priority = s.Priority
			rr.role = s.Role
		}
		ranked = append(ranked, rr)
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].priority > ranked[j].priority })
	return ranked
}

// executionsFor builds up to n agent executions from the ranked responders.
// defaultRole is used when the participation plan did not suggest one.
func executionsFor(ranked []rankedResponder, n int, defaultRole string, estimate time.Duration) []core.AgentExecution {
	if n > len(ranked) {
		n = len(ranked)
	}
	out := make([]core.AgentExecution, 0, n)
	for _, rr := range ranked[:n] {
		role := rr.role
		if role == "" {
			role = defaultRole
		}
		out = append(out, core.AgentExecution{
			ResponderID:       rr.responder.ID(),
			Priority:          rr.priority,
			ExpectedRole:      role,
			EstimatedDuration: estimate,
		})
	}
	return out
}
