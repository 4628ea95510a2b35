// Package middleware provides the HTTP middleware stack: request IDs,
// timing, panic recovery, CORS, metrics, rate limiting, timeouts, and an
// optional admission queue.
package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// RequestID assigns each request an ID, exposed both as the X-Request-ID
// response header and in the request context. A caller-supplied
// X-Request-ID header is kept so IDs can be traced across services.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", requestID)
		ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
