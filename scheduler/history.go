package scheduler

import "sync"

// History tracks per-strategy success rates across turns. It is
// process-lifetime, in-memory state (plans are never persisted, so neither is
// their history) and safe for concurrent use: turns read rates while the
// engine records outcomes after aggregation.
type History struct {
	mu    sync.RWMutex
	stats map[string]*strategyStats
}

type strategyStats struct {
	attempts  int
	successes int
}

// NewHistory constructs an empty history.
func NewHistory() *History {
	return &History{stats: make(map[string]*strategyStats)}
}

// Record notes one turn outcome for a strategy.
func (h *History) Record(strategy string, success bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.stats[strategy]
	if !ok {
		s = &strategyStats{}
		h.stats[strategy] = s
	}
	s.attempts++
	if success {
		s.successes++
	}
}

// SuccessRate returns the observed success ratio for a strategy, or the
// neutral 0.5 prior when it has never run. This keeps unproven strategies
// competitive with established ones.
func (h *History) SuccessRate(strategy string) float64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	s, ok := h.stats[strategy]
	if !ok || s.attempts == 0 {
		return 0.5
	}
	return float64(s.successes) / float64(s.attempts)
}

// Attempts returns how many turns a strategy has been used for.
func (h *History) Attempts(strategy string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if s, ok := h.stats[strategy]; ok {
		return s.attempts
	}
	return 0
}
