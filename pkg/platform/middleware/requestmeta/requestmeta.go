// Package requestmeta stamps each request with an ID and a request-scoped
// time. Downstream code reads both through pkg/requestcontext, which keeps a
// single clock reading per request and makes handler logs correlatable.
package requestmeta

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"sentinelle/pkg/requestcontext"
)

// HeaderRequestID is echoed back so clients can correlate responses with logs.
const HeaderRequestID = "X-Request-Id"

// Middleware injects a request ID and request time into the context. An
// incoming X-Request-Id is trusted for correlation; otherwise one is minted.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		ctx = requestcontext.WithTime(ctx, time.Now().UTC())

		w.Header().Set(HeaderRequestID, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
