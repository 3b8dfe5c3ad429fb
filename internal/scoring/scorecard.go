package scoring

import (
	"context"
	"math"

	"sentinelle/internal/explain"
)

// Scorecard is the built-in credit risk scorer: a logistic model over
// standardized numeric features and a one-hot employment category. It stands
// in for a trained artifact behind the same interface, and doubles as the
// reference producer of per-encoded-column contributions (each column's weight
// times its standardized value, against a zero background).
type Scorecard struct {
	version   string
	intercept float64
	numeric   []numericTerm
	category  map[string]float64
	table     *explain.CanonTable
}

type numericTerm struct {
	encoded   string
	canonical string
	mean      float64
	stddev    float64
	weight    float64
	value     func(ApplicantProfile) float64
}

// NewScorecard builds the default scorecard with its declared schema. The
// coefficients are fixed at construction; there is no lazy state.
func NewScorecard() *Scorecard {
	s := &Scorecard{
		version:   "credit_risk:scorecard-v1",
		intercept: -1.1,
		numeric: []numericTerm{
			{
				encoded: "num__age", canonical: "age",
				mean: 42, stddev: 12, weight: -0.35,
				value: func(p ApplicantProfile) float64 { return float64(p.Age) },
			},
			{
				encoded: "num__income_annual", canonical: "income_annual",
				mean: 48000, stddev: 22000, weight: -0.9,
				value: func(p ApplicantProfile) float64 { return p.IncomeAnnual },
			},
			{
				encoded: "num__debt_to_income", canonical: "debt_to_income",
				mean: 0.32, stddev: 0.18, weight: 1.4,
				value: func(p ApplicantProfile) float64 { return p.DebtToIncome },
			},
			{
				encoded: "num__credit_history_length_months", canonical: "credit_history_length_months",
				mean: 120, stddev: 70, weight: -0.6,
				value: func(p ApplicantProfile) float64 { return float64(p.CreditHistoryLengthMonths) },
			},
			{
				encoded: "num__num_open_accounts", canonical: "num_open_accounts",
				mean: 5, stddev: 3, weight: 0.25,
				value: func(p ApplicantProfile) float64 { return float64(p.NumOpenAccounts) },
			},
			{
				encoded: "num__late_payments_12m", canonical: "late_payments_12m",
				mean: 0.8, stddev: 1.5, weight: 1.8,
				value: func(p ApplicantProfile) float64 { return float64(p.LatePayments12M) },
			},
		},
		category: map[string]float64{
			EmploymentCDI:         -0.7,
			EmploymentCDD:         0.3,
			EmploymentIndependant: 0.45,
			EmploymentEtudiant:    0.5,
			EmploymentSansEmploi:  1.2,
			EmploymentRetraite:    -0.1,
		},
	}

	table := explain.NewCanonTable()
	for _, term := range s.numeric {
		table.DeclareNumeric(term.encoded, term.canonical)
	}
	table.DeclareCategory("cat__employment_status_", "employment_status")
	s.table = table

	return s
}

// Score computes the default probability and the per-encoded-column
// contributions that produced it.
func (s *Scorecard) Score(_ context.Context, profile ApplicantProfile) (ChannelOutput, error) {
	contributions := make([]explain.FeatureContribution, 0, len(s.numeric)+1)

	z := s.intercept
	for _, term := range s.numeric {
		standardized := (term.value(profile) - term.mean) / term.stddev
		contribution := term.weight * standardized
		z += contribution
		contributions = append(contributions, explain.FeatureContribution{
			EncodedName: term.encoded,
			Value:       contribution,
		})
	}

	// Exactly one one-hot column is active per row; unknown statuses are
	// rejected upstream by validation and contribute nothing here.
	if weight, ok := s.category[profile.EmploymentStatus]; ok {
		z += weight
		contributions = append(contributions, explain.FeatureContribution{
			EncodedName: "cat__employment_status_" + profile.EmploymentStatus,
			Value:       weight,
		})
	}

	return ChannelOutput{
		Raw:           1.0 / (1.0 + math.Exp(-z)),
		Contributions: contributions,
		Table:         s.table,
	}, nil
}

// Version identifies the scorecard for the audit trail.
func (s *Scorecard) Version() string { return s.version }
