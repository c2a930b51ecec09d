package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

// HealthCheckFunc reports the health of one dependency.
type HealthCheckFunc func(ctx context.Context) error

// HealthChecker handles health check requests
type HealthChecker struct {
	checks map[string]HealthCheckFunc
}

// NewHealthChecker creates a health checker. Nil checks are skipped.
func NewHealthChecker(checks map[string]HealthCheckFunc) *HealthChecker {
	filtered := make(map[string]HealthCheckFunc, len(checks))
	for name, fn := range checks {
		if fn != nil {
			filtered[name] = fn
		}
	}
	return &HealthChecker{checks: filtered}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// RegisterRoutes registers the health endpoint on the root router
func (h *HealthChecker) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
}

// HealthCheck handles the /healthz endpoint. ?mode=extended probes every
// dependency.
func (h *HealthChecker) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	statusCode := http.StatusOK

	if r.URL.Query().Get("mode") == "extended" {
		response.Checks = make(map[string]string, len(h.checks))
		for name, check := range h.checks {
			if err := runCheck(r.Context(), check); err != nil {
				response.Status = "unhealthy"
				response.Checks[name] = "unhealthy: " + sanitizeErrorMessage(err.Error())
			} else {
				response.Checks[name] = "healthy"
			}
		}
		if response.Status == "unhealthy" {
			statusCode = http.StatusServiceUnavailable
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(response)
}

func runCheck(ctx context.Context, check HealthCheckFunc) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return check(ctx)
}
