package handlers

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/bellhop-ai/bellhop/server/provider"
)

// HealthResponse reports service liveness and model reachability.
type HealthResponse struct {
	Status      string `json:"status"`
	ModelStatus string `json:"model_status"`
	Timestamp   string `json:"timestamp"`
}

// HealthHandler serves liveness checks. Model reachability comes from the
// circuit breaker state rather than a probe call, so health checks stay
// cheap and never burn provider quota.
type HealthHandler struct {
	reporter provider.HealthReporter
	logger   *zap.Logger
}

// NewHealthHandler creates the handler. A nil reporter reports healthy.
func NewHealthHandler(reporter provider.HealthReporter, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{reporter: reporter, logger: logger}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:      "ok",
		ModelStatus: "healthy",
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	}

	if h.reporter != nil && !h.reporter.Healthy() {
		resp.Status = "degraded"
		resp.ModelStatus = "unavailable"
	}

	writeJSON(w, http.StatusOK, resp, h.logger)
}
