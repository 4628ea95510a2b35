package handlers

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/bellhop-ai/bellhop/errors"
	"github.com/bellhop-ai/bellhop/server/classifier"
	"github.com/bellhop-ai/bellhop/server/middleware"
	"github.com/bellhop-ai/bellhop/server/schema"
	"github.com/bellhop-ai/bellhop/server/validation"
)

// InsightsHandler serves the free-text analysis variant: sentiment,
// emotion, and operational hints for staff rather than tickets.
type InsightsHandler struct {
	service   *classifier.Service
	validator *validation.Validator
	logger    *zap.Logger
}

// NewInsightsHandler creates the handler.
func NewInsightsHandler(service *classifier.Service, validator *validation.Validator, logger *zap.Logger) *InsightsHandler {
	return &InsightsHandler{
		service:   service,
		validator: validator,
		logger:    logger,
	}
}

func (h *InsightsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !requireJSONPost(w, r) {
		return
	}

	requestID := middleware.GetRequestID(r.Context())
	logger := h.logger.With(
		zap.String("request_id", requestID),
		zap.String("path", r.URL.Path),
	)

	var req schema.ClassificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, errors.NewValidationError(
			requestID,
			"Invalid insights request format",
			map[string]interface{}{"error": err.Error()},
		))
		return
	}

	if err := h.validator.CheckRequest(&req); err != nil {
		var reqErr *validation.RequestError
		if stderrors.As(err, &reqErr) {
			errors.WriteError(w, errors.NewValidationError(
				requestID,
				"Request validation failed",
				validationDetails(reqErr),
			))
			return
		}
		errors.WriteError(w, errors.NewValidationError(requestID, err.Error(), nil))
		return
	}

	insights := h.service.Insights(r.Context(), req.GuestMessage)

	if _, failed := insights["fallback_analysis"]; failed {
		logger.Warn("Insights generation fell back")
	}

	writeJSON(w, http.StatusOK, insights, logger)
}
