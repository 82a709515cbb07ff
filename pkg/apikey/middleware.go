package apikey

import (
	"net/http"
	"strconv"

	"github.com/quietloop/orchestrator/internal/httpserver"
	"github.com/quietloop/orchestrator/pkg/throttle"
)

// ScopedAuth authenticates requests via a per-key X-API-Key header (distinct
// from the shared admin key) and enforces the key's own rate limit. It
// implements spec.md 4.F's inbound API-key variant for external callers who
// should not hold the admin key.
func ScopedAuth(service *Service, limiter *throttle.APIKeyLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rawKey := r.Header.Get("X-API-Key")
			if rawKey == "" {
				httpserver.RespondError(w, http.StatusUnauthorized, "unauthorized", "missing API key")
				return
			}

			row, ok := service.Authenticate(r.Context(), rawKey)
			if !ok {
				httpserver.RespondError(w, http.StatusUnauthorized, "unauthorized", "invalid or revoked API key")
				return
			}

			result, err := limiter.Check(r.Context(), row.ID.String(), row.LimitPerMinute)
			if err != nil {
				httpserver.RespondError(w, http.StatusInternalServerError, "internal_error", "failed to check rate limit")
				return
			}
			if result.Limit != nil {
				w.Header().Set("X-RateLimit-Limit", strconv.Itoa(*result.Limit))
				w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
			}
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetInSeconds, 10))
			if !result.Allowed {
				httpserver.RespondError(w, http.StatusTooManyRequests, "rate_limited", "API key rate limit exceeded")
				return
			}

			ctx := httpserver.WithActor(r.Context(), "apikey:"+row.Name)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
