package core

import (
	"strings"
	"time"
)

// MessageMetadata carries routing-relevant envelope data for an AgentMessage.
// Priority is in [0,1] and may be boosted by middleware.
type MessageMetadata struct {
	Timestamp time.Time `json:"timestamp"`
	Sender    string    `json:"sender"`
	Recipient string    `json:"recipient,omitempty"`
	Priority  float64   `json:"priority"`
}

// AgentMessage is a transient structured notification dispatched through the
// router. It exists only for the duration of a routing operation and is never
// persisted.
type AgentMessage struct {
	ID       string          `json:"id"`
	Type     string          `json:"type"`
	Payload  map[string]any  `json:"payload,omitempty"`
	Metadata MessageMetadata `json:"metadata"`
}

// NewAgentMessage constructs a message with a fresh id and UTC timestamp.
func NewAgentMessage(msgType, sender string, payload map[string]any) AgentMessage {
	return AgentMessage{
		ID:      NewID(),
		Type:    msgType,
		Payload: payload,
		Metadata: MessageMetadata{
			Timestamp: time.Now().UTC(),
			Sender:    sender,
			Priority:  0.5,
		},
	}
}

// PayloadPath resolves a dotted path (e.g. "scene.type") into the payload.
// Intermediate values must be map[string]any.
func (m AgentMessage) PayloadPath(path string) (any, bool) {
	if m.Payload == nil || path == "" {
		return nil, false
	}
	parts := strings.Split(path, ".")
	var cur any = m.Payload
	for _, p := range parts {
		node, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = node[p]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Clone returns a deep-enough copy for transformation pipelines: the payload
// map is copied one level deep so a transformation never mutates the message
// seen by other rules.
func (m AgentMessage) Clone() AgentMessage {
	cp := m
	if m.Payload != nil {
		cp.Payload = make(map[string]any, len(m.Payload))
		for k, v := range m.Payload {
			cp.Payload[k] = v
		}
	}
	return cp
}

// RoutingExecution records the outcome of applying one routing rule (or the
// degraded no-match fallback) to a message. Successes and failures alike are
// recorded for observability.
type RoutingExecution struct {
	RuleID      string   `json:"rule_id,omitempty"`
	DeliveredTo []string `json:"delivered_to"`
	Success     bool     `json:"success"`
	Errors      []string `json:"errors,omitempty"`
	Degraded    bool     `json:"degraded,omitempty"`
}
