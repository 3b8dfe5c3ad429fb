package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the decision module: business outcomes,
// score distributions, and simple input drift signals.
type Metrics struct {
	Decisions *prometheus.CounterVec
	Reviews   *prometheus.CounterVec

	RiskScoreDist  prometheus.Histogram
	FraudScoreDist prometheus.Histogram

	ScoringLatency prometheus.Histogram

	InputIncomeDist    prometheus.Histogram
	InputDebtRatioDist prometheus.Histogram
	DriftWarning       *prometheus.GaugeVec
}

// New creates a Metrics instance with all decision module metrics registered.
func New() *Metrics {
	scoreBuckets := []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0}
	return &Metrics{
		Decisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sentinelle_decisions_total",
			Help: "Total decisions by outcome and the policy rule that fired",
		}, []string{"decision", "policy_rule"}),

		Reviews: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sentinelle_reviews_total",
			Help: "Total human review submissions by final decision",
		}, []string{"final_decision"}),

		RiskScoreDist: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "sentinelle_risk_score_distribution",
			Help:    "Distribution of normalized credit risk scores",
			Buckets: scoreBuckets,
		}),

		FraudScoreDist: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "sentinelle_fraud_score_distribution",
			Help:    "Distribution of normalized fraud scores",
			Buckets: scoreBuckets,
		}),

		ScoringLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "sentinelle_scoring_duration_seconds",
			Help:    "Duration of scoring both channels for one decision",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),

		InputIncomeDist: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "sentinelle_input_income_distribution",
			Help:    "Distribution of applicant annual income",
			Buckets: []float64{20000, 40000, 60000, 80000, 100000, 150000, 200000},
		}),

		InputDebtRatioDist: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "sentinelle_input_debt_ratio_distribution",
			Help:    "Distribution of applicant debt-to-income ratio",
			Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8},
		}),

		DriftWarning: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "sentinelle_input_drift_warning",
			Help: "1 when the latest request's feature fell outside the expected population",
		}, []string{"feature"}),
	}
}

// ObserveDecision records one arbitrated decision and its score distribution.
func (m *Metrics) ObserveDecision(decision, policyRule string, riskScore, fraudScore float64) {
	if m == nil {
		return
	}
	m.Decisions.WithLabelValues(decision, policyRule).Inc()
	m.RiskScoreDist.Observe(riskScore)
	m.FraudScoreDist.Observe(fraudScore)
}

// ObserveReview records a human review submission.
func (m *Metrics) ObserveReview(finalDecision string) {
	if m != nil {
		m.Reviews.WithLabelValues(finalDecision).Inc()
	}
}

// ObserveScoringLatency records how long both channels took for one request.
func (m *Metrics) ObserveScoringLatency(d time.Duration) {
	if m != nil {
		m.ScoringLatency.Observe(d.Seconds())
	}
}

// ObserveInputs tracks input distributions and flags population drift. The
// drift rule is a deliberate expert heuristic: income above 150k or a debt
// ratio above 0.6 signals a population the models were not fitted on.
func (m *Metrics) ObserveInputs(incomeAnnual, debtToIncome float64) {
	if m == nil {
		return
	}
	m.InputIncomeDist.Observe(incomeAnnual)
	m.InputDebtRatioDist.Observe(debtToIncome)

	m.DriftWarning.WithLabelValues("income_annual").Set(boolToGauge(incomeAnnual > 150000))
	m.DriftWarning.WithLabelValues("debt_to_income").Set(boolToGauge(debtToIncome > 0.6))
}

func boolToGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
