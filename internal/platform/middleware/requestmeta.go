package middleware

import (
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"signet/pkg/requestcontext"
)

// RequestMetadata copies the chi request id and the x-client-id header into
// the request context so downstream code reads them via requestcontext.
func RequestMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if reqID := chimiddleware.GetReqID(ctx); reqID != "" {
			ctx = requestcontext.WithRequestID(ctx, reqID)
		}
		if clientID := r.Header.Get("x-client-id"); clientID != "" {
			ctx = requestcontext.WithClientID(ctx, clientID)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
