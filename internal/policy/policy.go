// Package policy arbitrates the two channel scores into a single decision.
// Arbitration is pure domain logic: no I/O, no mutable state, every score pair
// in [0,1]x[0,1] maps to exactly one decision.
package policy

import "fmt"

// Decision is the outcome of arbitration and the mutable state of a decision
// record under review.
type Decision string

const (
	DecisionAccept Decision = "ACCEPT"
	DecisionReview Decision = "REVIEW"
	DecisionReject Decision = "REJECT"
	DecisionAlert  Decision = "ALERT"
)

// Valid reports whether d is one of the four decisions.
func (d Decision) Valid() bool {
	switch d {
	case DecisionAccept, DecisionReview, DecisionReject, DecisionAlert:
		return true
	}
	return false
}

// Thresholds are the four arbitration cut-offs.
type Thresholds struct {
	FraudAlert  float64
	RiskReject  float64
	ReviewLower float64
	ReviewUpper float64
}

// Validate reports ordering problems as warnings. The recommended invariant is
// review_lower < review_upper <= risk_reject < fraud_alert; violating it still
// yields a total arbitration function but produces unreachable REVIEW bands.
func (t Thresholds) Validate() []string {
	var warnings []string
	if t.ReviewLower >= t.ReviewUpper {
		warnings = append(warnings, fmt.Sprintf(
			"review band is empty: review_lower (%g) >= review_upper (%g)", t.ReviewLower, t.ReviewUpper))
	}
	if t.ReviewUpper > t.RiskReject {
		warnings = append(warnings, fmt.Sprintf(
			"review band overlaps reject region: review_upper (%g) > risk_reject (%g)", t.ReviewUpper, t.RiskReject))
	}
	if t.RiskReject >= t.FraudAlert {
		warnings = append(warnings, fmt.Sprintf(
			"risk_reject (%g) >= fraud_alert (%g)", t.RiskReject, t.FraudAlert))
	}
	return warnings
}

// Result couples the decision with the exact rule that fired, captured
// verbatim into the decision record for auditability.
type Result struct {
	Decision Decision
	Rule     string
}

// Apply evaluates the rules in strict priority order; the first match wins.
//
// Fraud pre-empts every credit path: fraud risk has asymmetric downside, so an
// alert overrides accept, review and reject alike. The REVIEW band is
// half-open (lower inclusive, upper exclusive) so a score on the boundary with
// REJECT is classified exactly once.
func Apply(riskScore, fraudScore float64, t Thresholds) Result {
	if fraudScore >= t.FraudAlert {
		return Result{
			Decision: DecisionAlert,
			Rule:     fmt.Sprintf("fraud_score >= %g => ALERT", t.FraudAlert),
		}
	}
	if riskScore >= t.RiskReject {
		return Result{
			Decision: DecisionReject,
			Rule:     fmt.Sprintf("risk_score >= %g => REJECT", t.RiskReject),
		}
	}
	if t.ReviewLower <= riskScore && riskScore < t.ReviewUpper {
		return Result{
			Decision: DecisionReview,
			Rule:     fmt.Sprintf("risk_score in [%g, %g) => REVIEW (human-in-the-loop)", t.ReviewLower, t.ReviewUpper),
		}
	}
	return Result{
		Decision: DecisionAccept,
		Rule:     "otherwise => ACCEPT",
	}
}
