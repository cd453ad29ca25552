package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/spotlight/userprofile/internal/auth"
)

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	Logger  *slog.Logger
	Keyring *auth.Keyring
	// MinDuration pads every uncached verification so response timing does
	// not reveal which check failed. Zero disables padding.
	MinDuration time.Duration
}

// Auth returns a middleware that requires a valid API key from the
// Authorization or X-API-Key header.
func Auth(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			key := extractAPIKey(r)
			principal, cached, err := cfg.Keyring.Verify(key)
			if err != nil {
				reason := "invalid_key"
				if key == "" {
					reason = "missing_key"
				}
				cfg.Logger.Warn("authentication failed",
					slog.String("reason", reason),
					slog.String("ip", r.RemoteAddr),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				padDuration(start, cfg.MinDuration)
				writeAuthError(w)
				return
			}
			if !cached {
				padDuration(start, cfg.MinDuration)
			}

			cfg.Logger.Debug("authentication successful",
				slog.String("key_prefix", principal.KeyPrefix),
				slog.Bool("cache_hit", cached),
				slog.String("request_id", GetRequestID(r.Context())),
			)

			ctx := auth.ContextWithPrincipal(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func padDuration(start time.Time, min time.Duration) {
	if elapsed := time.Since(start); elapsed < min {
		time.Sleep(min - elapsed)
	}
}

// extractAPIKey extracts the API key from the request.
// Supports both "Authorization: Bearer <key>" and "X-API-Key: <key>" headers.
func extractAPIKey(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return r.Header.Get("X-API-Key")
}

// writeAuthError writes a 401 Unauthorized response.
// Uses the same message for all auth failures to prevent enumeration.
func writeAuthError(w http.ResponseWriter) {
	writeErrorJSON(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or missing API key")
}
