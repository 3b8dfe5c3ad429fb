// Package scoring defines the model boundary: per-channel scorers produce a
// raw numeric output (and optionally feature contributions) which the
// normalizer maps into a bounded [0,1] score. Scorer handles are constructed
// once at startup and injected; the engine holds no lazy global model state.
package scoring

import (
	"context"

	"sentinelle/internal/explain"
)

// Channel identifies an independent risk channel. Each channel has its own
// normalization and model version string.
type Channel string

const (
	ChannelCreditRisk Channel = "credit_risk"
	ChannelFraud      Channel = "fraud"
)

// ChannelOutput is one channel's raw result for a single inference.
// Contributions and Table are optional: when a model cannot be introspected,
// explanations degrade to empty while the decision proceeds.
type ChannelOutput struct {
	Raw           float64
	Contributions []explain.FeatureContribution
	Table         *explain.CanonTable
}

// CreditScorer produces the credit risk channel's raw output: a
// class-membership probability in [0,1] (up to floating point overshoot).
type CreditScorer interface {
	Score(ctx context.Context, profile ApplicantProfile) (ChannelOutput, error)
	Version() string
}

// FraudScorer produces the fraud channel's raw output: an unbounded anomaly
// margin where higher means more normal, by the detector's convention.
type FraudScorer interface {
	Score(ctx context.Context, tx TransactionDetails) (ChannelOutput, error)
	Version() string
}
