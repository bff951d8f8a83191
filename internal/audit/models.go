// Package audit captures the review trail of the reconciliation engine:
// every applied merge, every rejected merge, and every status override is
// emitted as an event. Sinks fan the events out to memory (tests), PostgreSQL
// (outbox), or Kafka (downstream compliance consumers).
package audit

import "time"

// Action classifies an audit event.
type Action string

const (
	ActionMergeApplied  Action = "merge_applied"
	ActionMergeRejected Action = "merge_rejected"
	ActionStatusChanged Action = "status_changed"
)

// Event is emitted from the record service to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	ClientID  string    `json:"client_id"`
	EntityKey string    `json:"entity_key"`
	Role      string    `json:"role"`
	Action    Action    `json:"action"`
	Reason    string    `json:"reason,omitempty"`
}
