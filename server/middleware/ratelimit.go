package middleware

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/bellhop-ai/bellhop/errors"
	"github.com/bellhop-ai/bellhop/server/metrics"
)

// visitorLimiters tracks a token bucket per client IP.
type visitorLimiters struct {
	mu       sync.Mutex
	visitors map[string]*rate.Limiter
}

func (l *visitorLimiters) get(ip string, create func() *rate.Limiter) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, ok := l.visitors[ip]
	if !ok {
		limiter = create()
		l.visitors[ip] = limiter
	}
	return limiter
}

// RateLimit limits each client IP to requestsPerMinute with the given
// burst. Rejected requests get a structured 429 and count toward the
// rate-limit metric.
func RateLimit(requestsPerMinute, burst int, m *metrics.Metrics) func(http.Handler) http.Handler {
	limiters := &visitorLimiters{visitors: make(map[string]*rate.Limiter)}
	every := rate.Every(time.Minute / time.Duration(requestsPerMinute))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			limiter := limiters.get(ip, func() *rate.Limiter {
				return rate.NewLimiter(every, burst)
			})

			if !limiter.Allow() {
				if m != nil {
					m.RateLimitHits.WithLabelValues(ip).Inc()
				}
				requestID, _ := r.Context().Value(RequestIDKey).(string)
				errors.WriteError(w, errors.NewRateLimitError(requestID, 60))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}
