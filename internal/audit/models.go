// Package audit captures structured operational events for decisions and
// reviews. The durable audit trail lives in the decision store; these events
// feed operational consumers (dashboards, compliance pipelines) and are
// strictly best-effort.
package audit

import "time"

// Action labels what happened.
type Action string

const (
	ActionDecisionCreated  Action = "decision_created"
	ActionDecisionReviewed Action = "decision_reviewed"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp    time.Time `json:"timestamp"`
	Action       Action    `json:"action"`
	DecisionID   string    `json:"decision_id"`
	ClientIDHash string    `json:"client_id_hash,omitempty"`
	Decision     string    `json:"decision"`
	PolicyRule   string    `json:"policy_rule,omitempty"`
	ReviewerID   string    `json:"reviewer_id,omitempty"`
}
