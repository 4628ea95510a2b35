package handlers

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/bellhop-ai/bellhop/errors"
	"github.com/bellhop-ai/bellhop/server/classifier"
	"github.com/bellhop-ai/bellhop/server/middleware"
	"github.com/bellhop-ai/bellhop/server/schema"
	"github.com/bellhop-ai/bellhop/server/validation"
)

// BatchRequest is a list of guest messages classified in one call.
type BatchRequest struct {
	Messages []schema.ClassificationRequest `json:"messages"`
}

// BatchResponse wraps the per-message results. Results keep the order of
// the request messages.
type BatchResponse struct {
	Results        []*schema.ClassificationResult `json:"results"`
	TotalProcessed int                            `json:"total_processed"`
}

// BatchClassifyHandler serves batch classification.
type BatchClassifyHandler struct {
	service      *classifier.Service
	validator    *validation.Validator
	maxBatchSize int
	logger       *zap.Logger
}

// NewBatchClassifyHandler creates the handler. maxBatchSize caps the
// accepted message count per call.
func NewBatchClassifyHandler(service *classifier.Service, validator *validation.Validator, maxBatchSize int, logger *zap.Logger) *BatchClassifyHandler {
	return &BatchClassifyHandler{
		service:      service,
		validator:    validator,
		maxBatchSize: maxBatchSize,
		logger:       logger,
	}
}

func (h *BatchClassifyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !requireJSONPost(w, r) {
		return
	}

	requestID := middleware.GetRequestID(r.Context())
	logger := h.logger.With(
		zap.String("request_id", requestID),
		zap.String("path", r.URL.Path),
	)

	var req BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, errors.NewValidationError(
			requestID,
			"Invalid batch request format",
			map[string]interface{}{"error": err.Error()},
		))
		return
	}

	if len(req.Messages) == 0 {
		errors.WriteError(w, errors.NewValidationError(
			requestID,
			"Batch must contain at least one message",
			nil,
		))
		return
	}
	if len(req.Messages) > h.maxBatchSize {
		errors.WriteError(w, errors.NewValidationError(
			requestID,
			fmt.Sprintf("Batch size %d exceeds limit %d", len(req.Messages), h.maxBatchSize),
			map[string]interface{}{
				"batch_size": len(req.Messages),
				"limit":      h.maxBatchSize,
			},
		))
		return
	}

	// All items must pass validation before any model call is made, so a
	// malformed item cannot burn provider quota for the rest.
	for i := range req.Messages {
		if err := h.validator.CheckRequest(&req.Messages[i]); err != nil {
			var reqErr *validation.RequestError
			details := map[string]interface{}{"index": i}
			if stderrors.As(err, &reqErr) {
				details["fields"] = validationDetails(reqErr)["fields"]
			}
			errors.WriteError(w, errors.NewValidationError(
				requestID,
				fmt.Sprintf("Batch message %d failed validation", i),
				details,
			))
			return
		}
	}

	results := h.service.ClassifyBatch(r.Context(), req.Messages)

	logger.Info("Classified message batch",
		zap.Int("total_processed", len(results)),
	)

	writeJSON(w, http.StatusOK, BatchResponse{
		Results:        results,
		TotalProcessed: len(results),
	}, logger)
}
