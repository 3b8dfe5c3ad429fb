// Package httptransport assembles the HTTP surface: middleware chain, domain
// handlers, health and metrics endpoints. It holds no business logic.
package httptransport

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sentinelle/internal/decision/handler"
	platformredis "sentinelle/internal/platform/redis"
	authmw "sentinelle/pkg/platform/middleware/auth"
	"sentinelle/pkg/platform/middleware/requestmeta"
)

// Deps carries everything the router mounts. DB and Redis are optional and
// only drive health reporting; TokenValidator gates the review endpoint when
// present.
type Deps struct {
	Logger          *slog.Logger
	DecisionHandler *handler.Handler
	TokenValidator  authmw.TokenValidator

	DB    *sql.DB
	Redis *platformredis.Client
}

// NewRouter wires all endpoints behind the shared middleware chain.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(requestmeta.Middleware)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(30 * time.Second))

	deps.DecisionHandler.Register(r)

	if deps.TokenValidator != nil {
		r.Group(func(r chi.Router) {
			r.Use(authmw.RequireReviewer(deps.TokenValidator, deps.Logger))
			deps.DecisionHandler.RegisterReview(r)
		})
	} else {
		deps.DecisionHandler.RegisterReview(r)
	}

	r.Get("/healthz", healthHandler(deps))
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// healthHandler reports readiness of the optional backends. A degraded
// backend yields 503 so orchestrators stop routing, while the process keeps
// serving /metrics for diagnosis.
func healthHandler(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		components := map[string]string{"service": "ok"}

		if deps.DB != nil {
			if err := deps.DB.PingContext(ctx); err != nil {
				components["postgres"] = "unavailable"
				status = http.StatusServiceUnavailable
			} else {
				components["postgres"] = "ok"
			}
		}
		if deps.Redis != nil {
			if err := deps.Redis.Health(ctx); err != nil {
				components["redis"] = "unavailable"
				status = http.StatusServiceUnavailable
			} else {
				components["redis"] = "ok"
			}
		}

		overall := "ok"
		if status != http.StatusOK {
			overall = "degraded"
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":     overall,
			"components": components,
		})
	}
}
