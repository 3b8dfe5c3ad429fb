package decision

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"sentinelle/internal/audit"
	"sentinelle/internal/explain"
	"sentinelle/internal/policy"
	"sentinelle/internal/report"
	"sentinelle/internal/scoring"
	dErrors "sentinelle/pkg/domain-errors"
	"sentinelle/pkg/requestcontext"
)

// =============================================================================
// Decision Service Test Suite
// =============================================================================
// Justification for unit tests: the service is where concurrency, arbitration,
// pseudonymization, persistence ordering and audit emission meet; stub scorers
// let each path be pinned exactly, which E2E tests over real models cannot.

const testSalt = "test-salt"

type stubCreditScorer struct {
	out scoring.ChannelOutput
	err error
}

func (s stubCreditScorer) Score(_ context.Context, _ scoring.ApplicantProfile) (scoring.ChannelOutput, error) {
	return s.out, s.err
}

func (s stubCreditScorer) Version() string { return "credit_risk:stub-v1" }

type stubFraudScorer struct {
	out scoring.ChannelOutput
	err error
}

func (s stubFraudScorer) Score(_ context.Context, _ scoring.TransactionDetails) (scoring.ChannelOutput, error) {
	return s.out, s.err
}

func (s stubFraudScorer) Version() string { return "fraud:stub-v1" }

type DecisionServiceSuite struct {
	suite.Suite
	store      *InMemoryStore
	auditStore *audit.InMemoryStore
	auditor    *audit.Publisher
	thresholds policy.Thresholds
}

func TestDecisionServiceSuite(t *testing.T) {
	suite.Run(t, new(DecisionServiceSuite))
}

func (s *DecisionServiceSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.auditStore = audit.NewInMemoryStore()
	s.auditor = audit.NewPublisher(s.auditStore)
	s.thresholds = policy.Thresholds{
		FraudAlert:  0.85,
		RiskReject:  0.70,
		ReviewLower: 0.45,
		ReviewUpper: 0.70,
	}
}

// newService builds a service over stub scorers with fixed raw outputs.
// creditRaw is a probability; fraudRaw is an anomaly margin (higher = more
// normal).
func (s *DecisionServiceSuite) newService(creditRaw, fraudRaw float64) *Service {
	svc, err := NewService(
		stubCreditScorer{out: scoring.ChannelOutput{Raw: creditRaw}},
		stubFraudScorer{out: scoring.ChannelOutput{Raw: fraudRaw}},
		s.thresholds,
		s.store,
		s.auditor,
		nil,
		nil,
		nil,
		testSalt,
	)
	s.Require().NoError(err)
	return svc
}

func (s *DecisionServiceSuite) request() Request {
	return Request{
		Applicant: scoring.ApplicantProfile{
			ClientID:                  "client-42",
			Age:                       34,
			IncomeAnnual:              42000,
			EmploymentStatus:          "CDI",
			DebtToIncome:              0.31,
			CreditHistoryLengthMonths: 84,
			NumOpenAccounts:           3,
			LatePayments12M:           0,
		},
		Transaction: scoring.TransactionDetails{
			Amount:             230.5,
			MerchantCategory:   "electronics",
			Country:            "FR",
			Hour:               15,
			IsNewDevice:        false,
			DistanceFromHomeKM: 4.2,
		},
	}
}

// =============================================================================
// Constructor Tests
// =============================================================================

func (s *DecisionServiceSuite) TestNewService() {
	credit := stubCreditScorer{}
	fraud := stubFraudScorer{}

	s.Run("nil scorer returns error", func() {
		_, err := NewService(nil, fraud, s.thresholds, s.store, s.auditor, nil, nil, nil, testSalt)
		s.Error(err)
	})

	s.Run("nil store returns error", func() {
		_, err := NewService(credit, fraud, s.thresholds, nil, s.auditor, nil, nil, nil, testSalt)
		s.Error(err)
		s.Contains(err.Error(), "store")
	})

	s.Run("empty salt returns error", func() {
		_, err := NewService(credit, fraud, s.thresholds, s.store, s.auditor, nil, nil, nil, "")
		s.Error(err)
		s.Contains(err.Error(), "salt")
	})
}

// =============================================================================
// Decide Tests
// =============================================================================

func (s *DecisionServiceSuite) TestDecideReject() {
	// Raw credit probability 0.75 with a calm transaction (margin 2.2 maps to
	// a fraud score just under 0.1) lands in the REJECT band.
	svc := s.newService(0.75, 2.2)
	ctx := context.Background()

	out, err := svc.Decide(ctx, s.request())
	s.Require().NoError(err)
	record := out.Record

	s.Equal(policy.DecisionReject, record.Decision)
	s.Contains(record.PolicyRule, "risk_score >= 0.7")
	s.InDelta(0.75, record.RiskScore, 1e-9)
	s.Less(record.FraudScore, 0.45)

	s.Run("record is persisted and retrievable", func() {
		stored, err := svc.Get(ctx, record.DecisionID)
		s.Require().NoError(err)
		s.Equal(record.DecisionID, stored.DecisionID)
		s.Equal(policy.DecisionReject, stored.Decision)
	})

	s.Run("client id is pseudonymized", func() {
		s.Equal(HashClientID(testSalt, "client-42"), record.ClientIDHash)
		s.Empty(record.RequestPayload.Applicant.ClientID)
	})

	s.Run("model versions are captured per channel", func() {
		s.Equal("credit_risk:stub-v1", record.ModelVersions["credit_risk"])
		s.Equal("fraud:stub-v1", record.ModelVersions["fraud"])
	})

	s.Run("creation emits an audit event", func() {
		events, err := s.auditStore.ListByDecision(ctx, record.DecisionID)
		s.Require().NoError(err)
		s.Require().Len(events, 1)
		s.Equal(audit.ActionDecisionCreated, events[0].Action)
		s.Equal(record.ClientIDHash, events[0].ClientIDHash)
	})
}

func (s *DecisionServiceSuite) TestDecideAlert() {
	// A negative anomaly margin maps above the alert threshold regardless of
	// the credit channel.
	svc := s.newService(0.10, -3.0)

	out, err := svc.Decide(context.Background(), s.request())
	s.Require().NoError(err)

	s.Equal(policy.DecisionAlert, out.Record.Decision)
	s.Contains(out.Record.PolicyRule, "fraud_score >= 0.85")
	s.Greater(out.Record.FraudScore, 0.85)
}

func (s *DecisionServiceSuite) TestDecideAccept() {
	svc := s.newService(0.20, 2.2)

	out, err := svc.Decide(context.Background(), s.request())
	s.Require().NoError(err)

	s.Equal(policy.DecisionAccept, out.Record.Decision)
	s.Equal("otherwise => ACCEPT", out.Record.PolicyRule)
	s.Empty(out.Record.Reviews)
}

func (s *DecisionServiceSuite) TestDecideUsesRequestTime() {
	svc := s.newService(0.20, 2.2)
	at := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), at)

	out, err := svc.Decide(ctx, s.request())
	s.Require().NoError(err)

	s.Equal(at, out.Record.CreatedAt)
	s.Contains(out.Record.DecisionID, "dcn_20250314_092653")
}

func (s *DecisionServiceSuite) TestDecideScoringFailure() {
	svc, err := NewService(
		stubCreditScorer{err: errors.New("model file corrupt")},
		stubFraudScorer{out: scoring.ChannelOutput{Raw: 2.2}},
		s.thresholds,
		s.store,
		s.auditor,
		nil,
		nil,
		nil,
		testSalt,
	)
	s.Require().NoError(err)

	_, err = svc.Decide(context.Background(), s.request())
	s.Require().Error(err)
	s.Equal(dErrors.CodeModelUnavailable, dErrors.CodeOf(err))

	// No partial record may exist after a channel failure.
	s.Zero(s.store.Len())
}

func (s *DecisionServiceSuite) TestDecideExplanations() {
	table := explain.NewCanonTable().
		DeclareNumeric("num__income_annual", "income_annual").
		DeclareCategory("cat__employment_status_", "employment_status")
	creditOut := scoring.ChannelOutput{
		Raw: 0.3,
		Contributions: []explain.FeatureContribution{
			{EncodedName: "num__income_annual", Value: -0.4},
			{EncodedName: "cat__employment_status_CDI", Value: -0.2},
		},
		Table: table,
	}
	svc, err := NewService(
		stubCreditScorer{out: creditOut},
		stubFraudScorer{out: scoring.ChannelOutput{Raw: 2.2}},
		s.thresholds,
		s.store,
		s.auditor,
		nil,
		nil,
		nil,
		testSalt,
	)
	s.Require().NoError(err)

	out, err := svc.Decide(context.Background(), s.request())
	s.Require().NoError(err)

	top := out.Record.Explanations.CreditTopFeatures
	s.Require().Len(top, 2)
	s.Equal("income_annual", top[0].Feature)
	s.Equal(explain.DirectionNegative, top[0].Direction)
	s.Equal("employment_status", top[1].Feature)
	s.Empty(out.Record.Explanations.FraudTopFeatures)
}

func (s *DecisionServiceSuite) TestDecideWithNarrativeAgent() {
	agent := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.Equal("/report", r.URL.Path)
		var payload report.Payload
		s.Require().NoError(json.NewDecoder(r.Body).Decode(&payload))
		s.Equal("REJECT", payload.Decision)
		_ = json.NewEncoder(w).Encode(map[string]string{"report_summary": "rejected on risk"})
	}))
	defer agent.Close()

	svc, err := NewService(
		stubCreditScorer{out: scoring.ChannelOutput{Raw: 0.75}},
		stubFraudScorer{out: scoring.ChannelOutput{Raw: 2.2}},
		s.thresholds,
		s.store,
		s.auditor,
		report.NewClient(true, agent.URL, time.Second),
		nil,
		nil,
		testSalt,
	)
	s.Require().NoError(err)

	out, err := svc.Decide(context.Background(), s.request())
	s.Require().NoError(err)
	s.Equal("rejected on risk", out.ReportSummary)
}

func (s *DecisionServiceSuite) TestDecideAgentFailureDoesNotFailDecision() {
	agent := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer agent.Close()

	svc, err := NewService(
		stubCreditScorer{out: scoring.ChannelOutput{Raw: 0.75}},
		stubFraudScorer{out: scoring.ChannelOutput{Raw: 2.2}},
		s.thresholds,
		s.store,
		s.auditor,
		report.NewClient(true, agent.URL, time.Second),
		nil,
		nil,
		testSalt,
	)
	s.Require().NoError(err)

	out, err := svc.Decide(context.Background(), s.request())
	s.Require().NoError(err)
	s.Empty(out.ReportSummary)
	s.Equal(policy.DecisionReject, out.Record.Decision)
}

// =============================================================================
// Review Tests
// =============================================================================

func (s *DecisionServiceSuite) TestReview() {
	ctx := context.Background()

	decide := func(creditRaw float64) *Record {
		out, err := s.newService(creditRaw, 2.2).Decide(ctx, s.request())
		s.Require().NoError(err)
		return out.Record
	}

	s.Run("approving a REVIEW settles it to ACCEPT", func() {
		record := decide(0.55)
		s.Require().Equal(policy.DecisionReview, record.Decision)

		svc := s.newService(0.55, 2.2)
		outcome, err := svc.Review(ctx, record.DecisionID, ReviewInput{
			ReviewerID:    "analyst-7",
			HumanDecision: HumanApprove,
			Comment:       "income documents check out",
		})
		s.Require().NoError(err)
		s.Equal(policy.DecisionReview, outcome.PreviousDecision)
		s.Equal(policy.DecisionAccept, outcome.FinalDecision)

		stored, err := svc.Get(ctx, record.DecisionID)
		s.Require().NoError(err)
		s.Equal(policy.DecisionAccept, stored.Decision)
		s.Require().Len(stored.Reviews, 1)
		s.Equal("analyst-7", stored.Reviews[0].ReviewerID)
	})

	s.Run("rejecting a REVIEW settles it to REJECT", func() {
		record := decide(0.55)

		outcome, err := s.newService(0.55, 2.2).Review(ctx, record.DecisionID, ReviewInput{
			ReviewerID:    "analyst-7",
			HumanDecision: HumanReject,
			Comment:       "stated income not plausible",
		})
		s.Require().NoError(err)
		s.Equal(policy.DecisionReject, outcome.FinalDecision)
	})

	s.Run("reviewing a settled decision records but does not change it", func() {
		record := decide(0.75)
		s.Require().Equal(policy.DecisionReject, record.Decision)

		svc := s.newService(0.75, 2.2)
		outcome, err := svc.Review(ctx, record.DecisionID, ReviewInput{
			ReviewerID:    "analyst-9",
			HumanDecision: HumanApprove,
			Comment:       "second opinion, for the file",
		})
		s.Require().NoError(err)
		s.Equal(policy.DecisionReject, outcome.PreviousDecision)
		s.Equal(policy.DecisionReject, outcome.FinalDecision)

		stored, err := svc.Get(ctx, record.DecisionID)
		s.Require().NoError(err)
		s.Equal(policy.DecisionReject, stored.Decision)
		s.Len(stored.Reviews, 1)
	})

	s.Run("unknown decision id maps to not found", func() {
		_, err := s.newService(0.55, 2.2).Review(ctx, "dcn_missing", ReviewInput{
			ReviewerID:    "analyst-7",
			HumanDecision: HumanApprove,
			Comment:       "no such record",
		})
		s.Require().Error(err)
		s.Equal(dErrors.CodeNotFound, dErrors.CodeOf(err))
	})

	s.Run("review emits an audit event with the reviewer", func() {
		record := decide(0.55)

		_, err := s.newService(0.55, 2.2).Review(ctx, record.DecisionID, ReviewInput{
			ReviewerID:    "analyst-7",
			HumanDecision: HumanApprove,
			Comment:       "approved after call",
		})
		s.Require().NoError(err)

		events, err := s.auditStore.ListByDecision(ctx, record.DecisionID)
		s.Require().NoError(err)
		s.Require().Len(events, 2)
		s.Equal(audit.ActionDecisionReviewed, events[1].Action)
		s.Equal("analyst-7", events[1].ReviewerID)
		s.Equal("ACCEPT", events[1].Decision)
	})
}

func (s *DecisionServiceSuite) TestReviewTrailReplaysToCurrentDecision() {
	ctx := context.Background()
	out, err := s.newService(0.55, 2.2).Decide(ctx, s.request())
	s.Require().NoError(err)

	svc := s.newService(0.55, 2.2)
	for _, human := range []HumanDecision{HumanApprove, HumanReject, HumanApprove} {
		_, err := svc.Review(ctx, out.Record.DecisionID, ReviewInput{
			ReviewerID:    "analyst-7",
			HumanDecision: human,
			Comment:       "round trip",
		})
		s.Require().NoError(err)
	}

	stored, err := svc.Get(ctx, out.Record.DecisionID)
	s.Require().NoError(err)
	s.Equal(stored.Decision, Replay(OriginalDecision(stored), stored.Reviews))
	s.Equal(policy.DecisionReview, OriginalDecision(stored))
}

// =============================================================================
// Get Tests
// =============================================================================

func (s *DecisionServiceSuite) TestGetUnknownID() {
	_, err := s.newService(0.2, 2.2).Get(context.Background(), "dcn_missing")
	s.Require().Error(err)
	s.Equal(dErrors.CodeNotFound, dErrors.CodeOf(err))
}
