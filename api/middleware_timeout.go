package api

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

// TimeoutMiddleware adds request timeout to prevent long-running requests. It must not
// wrap websocket routes, the timeout writer cannot be hijacked.
func TimeoutMiddleware(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		h := http.TimeoutHandler(next, timeout, `{"error": "Request timeout", "message": "The request took too long to process"}`)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			h.ServeHTTP(w, r)
			if elapsed := time.Since(start); elapsed >= timeout {
				zap.S().Warnw("Request timeout",
					"path", r.URL.Path,
					"method", r.Method,
					"timeout", timeout)
			}
		})
	}
}
