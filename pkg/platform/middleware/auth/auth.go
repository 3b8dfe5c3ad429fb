// Package auth gates reviewer endpoints behind bearer-token authentication.
// The validator is an interface so tests can stub it without minting tokens.
package auth

import (
	"log/slog"
	"net/http"
	"strings"

	dErrors "sentinelle/pkg/domain-errors"
	"sentinelle/pkg/platform/httputil"
	"sentinelle/pkg/requestcontext"
)

// ReviewerClaims carries the identity extracted from a reviewer token.
type ReviewerClaims struct {
	ReviewerID string
}

// TokenValidator validates a bearer token and returns the reviewer claims.
type TokenValidator interface {
	ValidateToken(tokenString string) (*ReviewerClaims, error)
}

// RequireReviewer rejects requests without a valid reviewer bearer token and
// injects the reviewer ID into the request context.
func RequireReviewer(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const bearerPrefix = "Bearer "

			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, bearerPrefix) {
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "reviewer bearer token required"))
				return
			}

			claims, err := validator.ValidateToken(strings.TrimPrefix(authHeader, bearerPrefix))
			if err != nil {
				if logger != nil {
					logger.WarnContext(r.Context(), "reviewer token rejected",
						"request_id", requestcontext.RequestID(r.Context()),
						"error", err,
					)
				}
				httputil.WriteError(w, err)
				return
			}

			ctx := requestcontext.WithReviewerID(r.Context(), claims.ReviewerID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
