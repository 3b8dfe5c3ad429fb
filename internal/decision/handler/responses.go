package handler

import (
	"time"

	"sentinelle/internal/decision"
	"sentinelle/internal/explain"
)

// DecideResponse is the HTTP response for POST /decision.
type DecideResponse struct {
	DecisionID    string               `json:"decision_id"`
	Decision      string               `json:"decision"`
	RiskScore     float64              `json:"risk_score"`
	FraudScore    float64              `json:"fraud_score"`
	PolicyRule    string               `json:"policy_rule"`
	ModelVersions map[string]string    `json:"model_versions"`
	Explanations  explain.Explanations `json:"explanations"`
	CreatedAt     time.Time            `json:"created_at"`
	ReportSummary string               `json:"report_summary,omitempty"`
}

// FromOutcome converts a decision outcome to an HTTP response.
func FromOutcome(out *decision.Outcome) *DecideResponse {
	return &DecideResponse{
		DecisionID:    out.Record.DecisionID,
		Decision:      string(out.Record.Decision),
		RiskScore:     out.Record.RiskScore,
		FraudScore:    out.Record.FraudScore,
		PolicyRule:    out.Record.PolicyRule,
		ModelVersions: out.Record.ModelVersions,
		Explanations:  out.Record.Explanations,
		CreatedAt:     out.Record.CreatedAt,
		ReportSummary: out.ReportSummary,
	}
}

// RecordResponse is the HTTP response for GET /decision/{decision_id}.
type RecordResponse struct {
	DecisionID    string                `json:"decision_id"`
	ClientIDHash  string                `json:"client_id_hash"`
	Decision      string                `json:"decision"`
	RiskScore     float64               `json:"risk_score"`
	FraudScore    float64               `json:"fraud_score"`
	PolicyRule    string                `json:"policy_rule"`
	ModelVersions map[string]string     `json:"model_versions"`
	CreatedAt     time.Time             `json:"created_at"`
	Reviews       []ReviewEntryResponse `json:"reviews"`
}

// ReviewEntryResponse is one review in a record's trail.
type ReviewEntryResponse struct {
	ReviewerID       string    `json:"reviewer_id"`
	HumanDecision    string    `json:"human_decision"`
	Comment          string    `json:"comment"`
	PreviousDecision string    `json:"previous_decision"`
	FinalDecision    string    `json:"final_decision"`
	CreatedAt        time.Time `json:"created_at"`
}

// FromRecord converts a decision record to an HTTP response.
func FromRecord(record *decision.Record) *RecordResponse {
	reviews := make([]ReviewEntryResponse, 0, len(record.Reviews))
	for _, entry := range record.Reviews {
		reviews = append(reviews, ReviewEntryResponse{
			ReviewerID:       entry.ReviewerID,
			HumanDecision:    string(entry.HumanDecision),
			Comment:          entry.Comment,
			PreviousDecision: string(entry.PreviousDecision),
			FinalDecision:    string(entry.FinalDecision),
			CreatedAt:        entry.CreatedAt,
		})
	}
	return &RecordResponse{
		DecisionID:    record.DecisionID,
		ClientIDHash:  record.ClientIDHash,
		Decision:      string(record.Decision),
		RiskScore:     record.RiskScore,
		FraudScore:    record.FraudScore,
		PolicyRule:    record.PolicyRule,
		ModelVersions: record.ModelVersions,
		CreatedAt:     record.CreatedAt,
		Reviews:       reviews,
	}
}

// ExplainResponse is the HTTP response for GET /explain/{decision_id}.
type ExplainResponse struct {
	DecisionID    string               `json:"decision_id"`
	Decision      string               `json:"decision"`
	PolicyRule    string               `json:"policy_rule"`
	ModelVersions map[string]string    `json:"model_versions"`
	Explanations  explain.Explanations `json:"explanations"`
}

// FromRecordExplanations projects the explanation view of a record.
func FromRecordExplanations(record *decision.Record) *ExplainResponse {
	return &ExplainResponse{
		DecisionID:    record.DecisionID,
		Decision:      string(record.Decision),
		PolicyRule:    record.PolicyRule,
		ModelVersions: record.ModelVersions,
		Explanations:  record.Explanations,
	}
}

// ReviewResponse is the HTTP response for POST /review/{decision_id}.
type ReviewResponse struct {
	DecisionID       string `json:"decision_id"`
	PreviousDecision string `json:"previous_decision"`
	HumanDecision    string `json:"human_decision"`
	FinalDecision    string `json:"final_decision"`
}

// FromReviewOutcome converts a review outcome to an HTTP response.
func FromReviewOutcome(out *decision.ReviewOutcome) *ReviewResponse {
	return &ReviewResponse{
		DecisionID:       out.DecisionID,
		PreviousDecision: string(out.PreviousDecision),
		HumanDecision:    string(out.HumanDecision),
		FinalDecision:    string(out.FinalDecision),
	}
}
