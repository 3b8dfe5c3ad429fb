package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"sentinelle/internal/decision"
	dErrors "sentinelle/pkg/domain-errors"
	"sentinelle/pkg/platform/httputil"
	"sentinelle/pkg/requestcontext"
)

// Service defines the interface for decision operations.
type Service interface {
	Decide(ctx context.Context, req decision.Request) (*decision.Outcome, error)
	Get(ctx context.Context, decisionID string) (*decision.Record, error)
	Review(ctx context.Context, decisionID string, input decision.ReviewInput) (*decision.ReviewOutcome, error)
}

// Handler wires decision endpoints to the decision service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a decision handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts the open decision endpoints on the router. The review
// endpoint is registered separately so the caller can gate it behind
// reviewer authentication.
func (h *Handler) Register(r chi.Router) {
	r.Post("/decision", h.HandleDecide)
	r.Get("/decision/{decision_id}", h.HandleGet)
	r.Get("/explain/{decision_id}", h.HandleExplain)
}

// RegisterReview mounts POST /review/{decision_id}.
func (h *Handler) RegisterReview(r chi.Router) {
	r.Post("/review/{decision_id}", h.HandleReview)
}

// HandleDecide handles POST /decision requests.
func (h *Handler) HandleDecide(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[DecideRequest](w, r, h.logger)
	if !ok {
		return
	}

	out, err := h.service.Decide(ctx, req.ToDomain())
	if err != nil {
		h.logger.ErrorContext(ctx, "decision evaluation failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "decision evaluated",
		"request_id", requestID,
		"decision_id", out.Record.DecisionID,
		"decision", out.Record.Decision,
		"policy_rule", out.Record.PolicyRule,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	httputil.WriteJSON(w, http.StatusOK, FromOutcome(out))
}

// HandleGet handles GET /decision/{decision_id} requests.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	record, err := h.service.Get(ctx, chi.URLParam(r, "decision_id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromRecord(record))
}

// HandleExplain handles GET /explain/{decision_id} requests.
func (h *Handler) HandleExplain(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	record, err := h.service.Get(ctx, chi.URLParam(r, "decision_id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromRecordExplanations(record))
}

// HandleReview handles POST /review/{decision_id} requests.
func (h *Handler) HandleReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	decisionID := chi.URLParam(r, "decision_id")

	req, ok := httputil.DecodeAndPrepare[ReviewRequest](w, r, h.logger)
	if !ok {
		return
	}

	// A token-authenticated identity always wins over the body field.
	reviewerID := requestcontext.ReviewerID(ctx)
	if reviewerID == "" {
		reviewerID = req.ReviewerID
	}
	if reviewerID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "reviewer_id is required"))
		return
	}

	out, err := h.service.Review(ctx, decisionID, decision.ReviewInput{
		ReviewerID:    reviewerID,
		HumanDecision: decision.HumanDecision(req.HumanDecision),
		Comment:       req.Comment,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "decision review failed",
			"request_id", requestID,
			"decision_id", decisionID,
			"reviewer_id", reviewerID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "decision reviewed",
		"request_id", requestID,
		"decision_id", decisionID,
		"reviewer_id", reviewerID,
		"previous_decision", out.PreviousDecision,
		"final_decision", out.FinalDecision,
	)

	httputil.WriteJSON(w, http.StatusOK, FromReviewOutcome(out))
}
