package explain

import (
	"math"
	"sort"
)

const (
	// significanceFloor suppresses noise-level attributions from the report.
	significanceFloor = 0.01

	// topK bounds how many impacts reach the report.
	topK = 5
)

// Aggregate folds raw per-encoded-column contributions into ranked canonical
// impacts:
//
//  1. resolve each encoded name through the table,
//  2. sum values per canonical name (a category can fire through more than one
//     column, so accumulate rather than overwrite),
//  3. drop |sum| <= 0.01,
//  4. sort by |sum| descending, ties by name ascending for determinism,
//  5. keep the top 5, direction from the sign.
//
// A nil table or empty contribution list yields an empty slice: explanation is
// best-effort and must never block a decision.
func Aggregate(contributions []FeatureContribution, table *CanonTable) []FeatureImpact {
	if table == nil || len(contributions) == 0 {
		return []FeatureImpact{}
	}

	sums := make(map[string]float64, len(contributions))
	for _, c := range contributions {
		sums[table.Resolve(c.EncodedName)] += c.Value
	}

	type aggregated struct {
		feature string
		value   float64
	}
	kept := make([]aggregated, 0, len(sums))
	for feature, value := range sums {
		if math.Abs(value) <= significanceFloor || math.IsNaN(value) {
			continue
		}
		kept = append(kept, aggregated{feature: feature, value: value})
	}

	sort.Slice(kept, func(i, j int) bool {
		ai, aj := math.Abs(kept[i].value), math.Abs(kept[j].value)
		if ai != aj {
			return ai > aj
		}
		return kept[i].feature < kept[j].feature
	})

	if len(kept) > topK {
		kept = kept[:topK]
	}

	impacts := make([]FeatureImpact, 0, len(kept))
	for _, a := range kept {
		direction := DirectionPositive
		if a.value < 0 {
			direction = DirectionNegative
		}
		impacts = append(impacts, FeatureImpact{
			Feature:   a.feature,
			Direction: direction,
			Magnitude: math.Abs(a.value),
		})
	}
	return impacts
}
