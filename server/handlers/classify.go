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

// ClassifyHandler serves single-message classification.
type ClassifyHandler struct {
	service   *classifier.Service
	validator *validation.Validator
	logger    *zap.Logger
}

// NewClassifyHandler creates the handler. All parameters must be non-nil.
func NewClassifyHandler(service *classifier.Service, validator *validation.Validator, logger *zap.Logger) *ClassifyHandler {
	return &ClassifyHandler{
		service:   service,
		validator: validator,
		logger:    logger,
	}
}

func (h *ClassifyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
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
			"Invalid classification request format",
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

	result := h.service.Classify(r.Context(), req)

	logger.Info("Classified guest message",
		zap.String("status", string(result.Status)),
		zap.Bool("should_create_ticket", result.ShouldCreateTicket),
		zap.Int("categories", len(result.Categories)),
		zap.Float64("confidence", result.Confidence),
	)

	writeJSON(w, http.StatusOK, result, logger)
}
