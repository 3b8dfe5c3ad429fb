// Package decision owns the decision record lifecycle: creation from the two
// channel scores, immutability of the original determination, and the
// append-only review trail a human may layer on top.
package decision

import (
	"time"

	"sentinelle/internal/explain"
	"sentinelle/internal/policy"
	"sentinelle/internal/scoring"
)

// HumanDecision is the reviewer's verdict on a record.
type HumanDecision string

const (
	HumanApprove HumanDecision = "APPROVE"
	HumanReject  HumanDecision = "REJECT"
)

// Valid reports whether h is a known verdict.
func (h HumanDecision) Valid() bool {
	return h == HumanApprove || h == HumanReject
}

// Request is the validated input for one decision: the applicant's credit
// profile and the transaction under scrutiny. It is persisted verbatim for
// audit and replay, except that the raw client identifier is redacted before
// storage (only the salted hash survives).
type Request struct {
	Applicant   scoring.ApplicantProfile   `json:"client"`
	Transaction scoring.TransactionDetails `json:"transaction"`
}

// Record is the system of record for one decision. Every field except
// Decision is write-once at creation; Decision is mutated exclusively by the
// review state machine, and every mutation appends a ReviewEntry.
type Record struct {
	DecisionID   string  `json:"decision_id"`
	ClientIDHash string  `json:"client_id_hash"`
	RiskScore    float64 `json:"risk_score"`
	FraudScore   float64 `json:"fraud_score"`

	Decision   policy.Decision `json:"decision"`
	PolicyRule string          `json:"policy_rule"`

	ModelVersions  map[string]string    `json:"model_versions"`
	Explanations   explain.Explanations `json:"explanations"`
	RequestPayload Request              `json:"request_payload"`

	CreatedAt time.Time `json:"created_at"`

	// Reviews in creation order; owned by this record, never shared.
	Reviews []ReviewEntry `json:"reviews,omitempty"`
}

// ReviewEntry is one immutable entry in a record's audit sequence.
type ReviewEntry struct {
	ReviewerID       string          `json:"reviewer_id"`
	HumanDecision    HumanDecision   `json:"human_decision"`
	Comment          string          `json:"comment"`
	PreviousDecision policy.Decision `json:"previous_decision"`
	FinalDecision    policy.Decision `json:"final_decision"`
	CreatedAt        time.Time       `json:"created_at"`
}

// Clone deep-copies the record so store callers can never alias internal
// state.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	out := *r
	if r.ModelVersions != nil {
		out.ModelVersions = make(map[string]string, len(r.ModelVersions))
		for k, v := range r.ModelVersions {
			out.ModelVersions[k] = v
		}
	}
	out.Explanations.CreditTopFeatures = append([]explain.FeatureImpact(nil), r.Explanations.CreditTopFeatures...)
	out.Explanations.FraudTopFeatures = append([]explain.FeatureImpact(nil), r.Explanations.FraudTopFeatures...)
	out.Reviews = append([]ReviewEntry(nil), r.Reviews...)
	return &out
}
