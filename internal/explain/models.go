// Package explain turns a model's raw per-encoded-feature contributions into
// ranked, human-readable impacts over the original feature names.
package explain

// Direction states which way a feature pushed the score.
type Direction string

const (
	DirectionPositive Direction = "positive" // increases risk / fraud flag
	DirectionNegative Direction = "negative" // decreases risk / fraud flag
)

// FeatureContribution is one encoded column's signed contribution for a single
// inference. Ephemeral; never persisted directly.
type FeatureContribution struct {
	EncodedName string
	Value       float64
}

// FeatureImpact is an aggregated, display-ready attribution for one canonical
// feature. Magnitude is the absolute aggregated contribution; the sign lives
// in Direction.
type FeatureImpact struct {
	Feature   string    `json:"feature"`
	Direction Direction `json:"direction"`
	Magnitude float64   `json:"magnitude"`
}

// Explanations holds the ranked impacts for both channels of one decision.
// Display and audit only; never fed back into arbitration.
type Explanations struct {
	CreditTopFeatures []FeatureImpact `json:"credit_top_features"`
	FraudTopFeatures  []FeatureImpact `json:"fraud_top_features"`
}
