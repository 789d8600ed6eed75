package middleware

import (
	"net/http"

	"golang.org/x/time/rate"
)

// RateLimitMiddleware implements rate limiting using a token bucket shared by
// every caller.
func RateLimitMiddleware(requestsPerSecond float64, burstSize int) func(http.Handler) http.Handler {
	limiter := rate.NewLimiter(rate.Limit(requestsPerSecond), burstSize)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				w.Write([]byte(`{"error": "Rate limit exceeded"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// APIRateLimitMiddleware covers the query endpoints (search, analytics,
// export). These re-read the archive from disk per request, so a runaway
// caller gets throttled rather than thrashing the filesystem.
func APIRateLimitMiddleware() func(http.Handler) http.Handler {
	return RateLimitMiddleware(10, 20)
}

// ArchiveRateLimitMiddleware covers the endpoints that call out to Slack. One
// archive run at a time is plenty.
func ArchiveRateLimitMiddleware() func(http.Handler) http.Handler {
	return RateLimitMiddleware(0.2, 1)
}
