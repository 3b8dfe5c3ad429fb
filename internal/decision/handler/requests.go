package handler

import (
	"strings"

	"sentinelle/internal/decision"
	"sentinelle/internal/scoring"
	dErrors "sentinelle/pkg/domain-errors"
)

// DecideRequest is the HTTP request body for POST /decision.
type DecideRequest struct {
	Client      scoring.ApplicantProfile   `json:"client"`
	Transaction scoring.TransactionDetails `json:"transaction"`
}

// Validate validates both feature blocks and normalizes the country code.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *DecideRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if err := r.Client.Validate(); err != nil {
		return err
	}
	if err := r.Transaction.Validate(); err != nil {
		return err
	}
	r.Transaction.NormalizeCountry()
	return nil
}

// ToDomain converts the validated body into a domain request.
func (r *DecideRequest) ToDomain() decision.Request {
	return decision.Request{
		Applicant:   r.Client,
		Transaction: r.Transaction,
	}
}

// ReviewRequest is the HTTP request body for POST /review/{decision_id}.
type ReviewRequest struct {
	// ReviewerID is a fallback for deployments without reviewer tokens; when
	// a token is present its identity wins.
	ReviewerID    string `json:"reviewer_id,omitempty"`
	HumanDecision string `json:"human_decision"`
	Comment       string `json:"comment"`
}

// Validate validates the review submission.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *ReviewRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	r.HumanDecision = strings.TrimSpace(r.HumanDecision)
	if !decision.HumanDecision(r.HumanDecision).Valid() {
		return dErrors.New(dErrors.CodeValidation, "human_decision must be APPROVE or REJECT")
	}

	r.Comment = strings.TrimSpace(r.Comment)
	if len(r.Comment) < 3 || len(r.Comment) > 500 {
		return dErrors.New(dErrors.CodeValidation, "comment must be between 3 and 500 characters")
	}

	r.ReviewerID = strings.TrimSpace(r.ReviewerID)
	if r.ReviewerID != "" && (len(r.ReviewerID) < 2 || len(r.ReviewerID) > 64) {
		return dErrors.New(dErrors.CodeValidation, "reviewer_id must be between 2 and 64 characters")
	}

	return nil
}
