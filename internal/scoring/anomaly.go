package scoring

import (
	"context"
	"math"

	"sentinelle/internal/explain"
)

// AnomalyScorer is the built-in fraud detector: a penalty model emitting an
// unbounded margin where higher means more normal, matching the convention of
// isolation-forest style detectors. Each penalty is also reported as a
// positive contribution toward the fraud flag so the aggregator can explain
// the fraud channel the same way it explains credit risk.
type AnomalyScorer struct {
	version string
	base    float64
	table   *explain.CanonTable
}

// Merchant categories treated as elevated-risk.
var riskyMerchants = map[string]struct{}{
	"crypto":   {},
	"gambling": {},
	"jewelry":  {},
}

// homeCountry anchors the distance and country heuristics.
const homeCountry = "FR"

// NewAnomalyScorer builds the default fraud scorer with its declared schema.
func NewAnomalyScorer() *AnomalyScorer {
	table := explain.NewCanonTable().
		DeclareNumeric("num__amount", "amount").
		DeclareNumeric("num__distance_from_home_km", "distance_from_home_km").
		DeclareCategory("cat__hour_", "hour").
		DeclareCategory("cat__is_new_device_", "is_new_device").
		DeclareCategory("cat__country_", "country").
		DeclareCategory("cat__merchant_category_", "merchant_category")

	return &AnomalyScorer{
		version: "fraud:anomaly-margin-v1",
		base:    2.2,
		table:   table,
	}
}

// Score computes margin = base - sum(penalties). A fully unremarkable
// transaction keeps the whole base margin and normalizes well under the alert
// threshold.
func (s *AnomalyScorer) Score(_ context.Context, tx TransactionDetails) (ChannelOutput, error) {
	tx.NormalizeCountry()

	var contributions []explain.FeatureContribution
	penalty := func(encoded string, value float64) {
		if value <= 0 {
			return
		}
		contributions = append(contributions, explain.FeatureContribution{
			EncodedName: encoded,
			Value:       value,
		})
	}

	// Amount: penalize orders of magnitude above a 100-unit baseline.
	amountPenalty := 0.9 * math.Max(0, math.Log10(tx.Amount/100))
	penalty("num__amount", amountPenalty)

	// Distance from home: grows slowly, saturating the nightly-commute range.
	distancePenalty := 0.6 * math.Log10(1+tx.DistanceFromHomeKM/50)
	penalty("num__distance_from_home_km", distancePenalty)

	var hourPenalty float64
	if tx.Hour >= 22 || tx.Hour <= 5 {
		hourPenalty = 0.8
		penalty("cat__hour_night", hourPenalty)
	}

	var devicePenalty float64
	if tx.IsNewDevice {
		devicePenalty = 1.1
		penalty("cat__is_new_device_true", devicePenalty)
	}

	var countryPenalty float64
	if tx.Country != homeCountry {
		countryPenalty = 0.4
		penalty("cat__country_foreign", countryPenalty)
	}

	var merchantPenalty float64
	if _, ok := riskyMerchants[tx.MerchantCategory]; ok {
		merchantPenalty = 0.7
		penalty("cat__merchant_category_risky", merchantPenalty)
	}

	margin := s.base - amountPenalty - distancePenalty - hourPenalty - devicePenalty - countryPenalty - merchantPenalty

	return ChannelOutput{
		Raw:           margin,
		Contributions: contributions,
		Table:         s.table,
	}, nil
}

// Version identifies the detector for the audit trail.
func (s *AnomalyScorer) Version() string { return s.version }
