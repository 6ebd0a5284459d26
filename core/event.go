package core

import (
	"time"

	"github.com/google/uuid"
)

// EventType names a lifecycle notification emitted during turn processing.
type EventType string

const (
	// EventTurnStarted is emitted when ProcessTurn begins.
	EventTurnStarted EventType = "turn_started"
	// EventPhaseStarted is emitted before a phase dispatches its responders.
	EventPhaseStarted EventType = "phase_started"
	// EventPhaseSkipped is emitted when a condition or dependency gate fails.
	EventPhaseSkipped EventType = "phase_skipped"
	// EventResponderComplete is emitted after each invocation, success or not.
	EventResponderComplete EventType = "responder_complete"
	// EventRoutingComplete is emitted after a routing operation finishes.
	EventRoutingComplete EventType = "routing_complete"
	// EventAggregationComplete is emitted once the merged result is ready.
	EventAggregationComplete EventType = "aggregation_complete"
	// EventTurnComplete is emitted just before ProcessTurn returns.
	EventTurnComplete EventType = "turn_complete"
)

// Event is an advisory lifecycle notification for streaming/progress UIs.
// Correctness of a turn never depends on anyone consuming these. Treat as
// immutable after emission.
type Event struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	TurnID    string         `json:"turn_id"`
	Phase     string         `json:"phase,omitempty"`
	Responder string         `json:"responder,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Payload   map[string]any `json:"payload,omitempty"`
}

// NewEvent creates an event bound to a turn with a fresh id and UTC timestamp.
func NewEvent(turnID string, t EventType) Event {
	return Event{
		ID:        NewID(),
		Type:      t,
		TurnID:    turnID,
		Timestamp: time.Now().UTC(),
	}
}

// NewID generates a new unique identifier for events, messages and turns.
func NewID() string { return uuid.NewString() }

// EventHandler is the caller-supplied side channel for lifecycle events.
// A nil handler is valid and discards everything.
type EventHandler func(Event)

// Emit delivers an event, tolerating a nil handler.
func (h EventHandler) Emit(e Event) {
	if h != nil {
		h(e)
	}
}
