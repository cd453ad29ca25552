package handler

import (
	"context"
	"net/http"
	"time"
)

// readinessTimeout bounds all dependency checks of one /readyz request.
const readinessTimeout = 5 * time.Second

// HealthChecker defines an interface for checking service health.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// HealthHandler manages health check endpoints.
type HealthHandler struct {
	store HealthChecker
	cache HealthChecker
}

// NewHealthHandler creates a new HealthHandler.
// Pass nil for cache when Redis is not configured.
func NewHealthHandler(store, cache HealthChecker) *HealthHandler {
	return &HealthHandler{
		store: store,
		cache: cache,
	}
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Healthz is a liveness probe. It never checks dependencies.
//
// GET /healthz
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// Readyz is a readiness probe. It returns 200 only if the profile store and,
// when configured, Redis respond.
//
// GET /readyz
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	checks := map[string]string{
		"store": probe(ctx, h.store),
		"redis": probe(ctx, h.cache),
	}

	response := HealthResponse{Status: "ok", Checks: checks}
	statusCode := http.StatusOK
	for _, result := range checks {
		if result != "ok" && result != "not configured" {
			response.Status = "unhealthy"
			statusCode = http.StatusServiceUnavailable
		}
	}

	writeJSON(w, statusCode, response)
}

func probe(ctx context.Context, checker HealthChecker) string {
	if checker == nil {
		return "not configured"
	}
	if err := checker.Ping(ctx); err != nil {
		return "error: " + err.Error()
	}
	return "ok"
}
