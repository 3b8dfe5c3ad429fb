package decision

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"sentinelle/internal/audit"
	"sentinelle/internal/decision/metrics"
	"sentinelle/internal/explain"
	"sentinelle/internal/policy"
	"sentinelle/internal/report"
	"sentinelle/internal/scoring"
	dErrors "sentinelle/pkg/domain-errors"
	"sentinelle/pkg/requestcontext"
	"sentinelle/pkg/sentinel"
)

// Service orchestrates one decision end to end: score both channels,
// normalize, aggregate explanations, arbitrate, persist, and emit the
// side-channel signals (metrics, audit events, optional narrative). All
// collaborators are injected once at startup.
type Service struct {
	credit scoring.CreditScorer
	fraud  scoring.FraudScorer

	thresholds policy.Thresholds
	store      Store
	auditor    *audit.Publisher
	reporter   *report.Client
	metrics    *metrics.Metrics
	logger     *slog.Logger

	clientIDSalt string
}

// NewService wires a decision service. reporter may be nil (agent disabled);
// metrics may be nil in tests.
func NewService(
	credit scoring.CreditScorer,
	fraud scoring.FraudScorer,
	thresholds policy.Thresholds,
	store Store,
	auditor *audit.Publisher,
	reporter *report.Client,
	m *metrics.Metrics,
	logger *slog.Logger,
	clientIDSalt string,
) (*Service, error) {
	if credit == nil || fraud == nil {
		return nil, errors.New("both channel scorers are required")
	}
	if store == nil {
		return nil, errors.New("decision store is required")
	}
	if auditor == nil {
		return nil, errors.New("audit publisher is required")
	}
	if clientIDSalt == "" {
		return nil, errors.New("client id salt is required")
	}
	return &Service{
		credit:       credit,
		fraud:        fraud,
		thresholds:   thresholds,
		store:        store,
		auditor:      auditor,
		reporter:     reporter,
		metrics:      m,
		logger:       logger,
		clientIDSalt: clientIDSalt,
	}, nil
}

// Outcome is what Decide returns to the transport layer.
type Outcome struct {
	Record        *Record
	ReportSummary string
}

// Decide runs the full pipeline for one validated request.
//
// A scoring failure means no decision can be produced (no partial record is
// written); a persistence failure is equally fatal, because a decision that
// cannot be durably recorded must not be reported as final. Explanation
// aggregation and the narrative report are best-effort by design.
func (s *Service) Decide(ctx context.Context, req Request) (*Outcome, error) {
	scoringStart := time.Now()

	var creditOut, fraudOut scoring.ChannelOutput
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		creditOut, err = s.credit.Score(gctx, req.Applicant)
		return err
	})
	g.Go(func() error {
		var err error
		fraudOut, err = s.fraud.Score(gctx, req.Transaction)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeModelUnavailable, "scoring channel unavailable", err)
	}
	s.metrics.ObserveScoringLatency(time.Since(scoringStart))

	riskScore := scoring.Normalize(scoring.ChannelCreditRisk, creditOut.Raw)
	fraudScore := scoring.Normalize(scoring.ChannelFraud, fraudOut.Raw)

	explanations := explain.Explanations{
		CreditTopFeatures: explain.Aggregate(creditOut.Contributions, creditOut.Table),
		FraudTopFeatures:  explain.Aggregate(fraudOut.Contributions, fraudOut.Table),
	}

	arbitration := policy.Apply(riskScore, fraudScore, s.thresholds)

	s.metrics.ObserveDecision(string(arbitration.Decision), arbitration.Rule, riskScore, fraudScore)
	s.metrics.ObserveInputs(req.Applicant.IncomeAnnual, req.Applicant.DebtToIncome)

	now := requestcontext.Now(ctx)
	record := &Record{
		DecisionID:     NewDecisionID(now),
		ClientIDHash:   HashClientID(s.clientIDSalt, req.Applicant.ClientID),
		RiskScore:      riskScore,
		FraudScore:     fraudScore,
		Decision:       arbitration.Decision,
		PolicyRule:     arbitration.Rule,
		ModelVersions:  s.modelVersions(),
		Explanations:   explanations,
		RequestPayload: redactClientID(req),
		CreatedAt:      now,
	}

	if err := s.store.Create(ctx, record); err != nil {
		return nil, dErrors.Wrap(dErrors.CodePersistence, "decision could not be durably recorded", err)
	}

	s.emitAudit(ctx, audit.Event{
		Action:       audit.ActionDecisionCreated,
		DecisionID:   record.DecisionID,
		ClientIDHash: record.ClientIDHash,
		Decision:     string(record.Decision),
		PolicyRule:   record.PolicyRule,
		Timestamp:    now,
	})

	return &Outcome{
		Record:        record,
		ReportSummary: s.narrate(ctx, record),
	}, nil
}

// Get returns one decision record with its review trail.
func (s *Service) Get(ctx context.Context, decisionID string) (*Record, error) {
	record, err := s.store.Get(ctx, decisionID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "decision_id not found")
		}
		return nil, dErrors.Wrap(dErrors.CodePersistence, "decision lookup failed", err)
	}
	return record, nil
}

// ReviewInput is a validated human review submission.
type ReviewInput struct {
	ReviewerID    string
	HumanDecision HumanDecision
	Comment       string
}

// ReviewOutcome reports how a review settled.
type ReviewOutcome struct {
	DecisionID       string
	PreviousDecision policy.Decision
	HumanDecision    HumanDecision
	FinalDecision    policy.Decision
}

// Review applies the review state machine to one record. The entry append and
// the decision overwrite happen atomically inside the store; the original
// arbitration fields are never altered.
func (s *Service) Review(ctx context.Context, decisionID string, input ReviewInput) (*ReviewOutcome, error) {
	now := requestcontext.Now(ctx)

	// The store hands back the entry it appended for this call; the re-read
	// record may already carry later entries from concurrent reviews, so a
	// positional lookup would report someone else's outcome.
	record, entry, err := s.store.AppendReview(ctx, decisionID, func(current policy.Decision) ReviewEntry {
		return ReviewEntry{
			ReviewerID:       input.ReviewerID,
			HumanDecision:    input.HumanDecision,
			Comment:          input.Comment,
			PreviousDecision: current,
			FinalDecision:    Resolve(current, input.HumanDecision),
			CreatedAt:        now,
		}
	})
	if err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, "decision_id not found")
		case errors.Is(err, sentinel.ErrConflict):
			return nil, dErrors.New(dErrors.CodeConflict, "concurrent review conflict, retry")
		default:
			return nil, dErrors.Wrap(dErrors.CodePersistence, "review could not be recorded", err)
		}
	}

	s.metrics.ObserveReview(string(entry.FinalDecision))
	s.emitAudit(ctx, audit.Event{
		Action:       audit.ActionDecisionReviewed,
		DecisionID:   record.DecisionID,
		ClientIDHash: record.ClientIDHash,
		Decision:     string(entry.FinalDecision),
		ReviewerID:   entry.ReviewerID,
		Timestamp:    now,
	})

	return &ReviewOutcome{
		DecisionID:       record.DecisionID,
		PreviousDecision: entry.PreviousDecision,
		HumanDecision:    entry.HumanDecision,
		FinalDecision:    entry.FinalDecision,
	}, nil
}

func (s *Service) modelVersions() map[string]string {
	return map[string]string{
		string(scoring.ChannelCreditRisk): s.credit.Version(),
		string(scoring.ChannelFraud):      s.fraud.Version(),
	}
}

// redactClientID strips the raw client identifier from the persisted payload;
// only the salted hash survives storage.
func redactClientID(req Request) Request {
	req.Applicant.ClientID = ""
	return req
}

func (s *Service) emitAudit(ctx context.Context, event audit.Event) {
	if err := s.auditor.Emit(ctx, event); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "audit event emission failed",
			"decision_id", event.DecisionID,
			"action", event.Action,
			"error", err,
		)
	}
}

func (s *Service) narrate(ctx context.Context, record *Record) string {
	if s.reporter == nil {
		return ""
	}
	summary, err := s.reporter.Generate(ctx, report.Payload{
		Decision:      string(record.Decision),
		RiskScore:     record.RiskScore,
		FraudScore:    record.FraudScore,
		PolicyRule:    record.PolicyRule,
		ModelVersions: record.ModelVersions,
		Explanations:  record.Explanations,
	})
	if err != nil {
		if s.logger != nil {
			s.logger.WarnContext(ctx, "narrative report generation failed",
				"decision_id", record.DecisionID,
				"error", err,
			)
		}
		return ""
	}
	return summary
}
