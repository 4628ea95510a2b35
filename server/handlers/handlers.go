// Package handlers provides the HTTP surface of the bellhop server:
// classification (single and batch), insights, the category listing, and
// health. Handlers parse and validate; all model interaction goes through
// the classifier service.
package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/bellhop-ai/bellhop/errors"
	"github.com/bellhop-ai/bellhop/server/middleware"
	"github.com/bellhop-ai/bellhop/server/validation"
)

// writeJSON encodes v as the response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v interface{}, logger *zap.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", zap.Error(err))
	}
}

// requireJSONPost rejects anything but a JSON POST. Returns false after
// writing the error response.
func requireJSONPost(w http.ResponseWriter, r *http.Request) bool {
	requestID := middleware.GetRequestID(r.Context())

	if r.Method != http.MethodPost {
		errors.WriteError(w, errors.NewValidationError(
			requestID,
			"Method not allowed",
			map[string]interface{}{
				"method":          r.Method,
				"allowed_methods": []string{"POST"},
			},
		))
		return false
	}

	if ct := r.Header.Get("Content-Type"); ct != "application/json" {
		errors.WriteError(w, errors.NewValidationError(
			requestID,
			"Content-Type header must be application/json",
			map[string]interface{}{
				"content_type": ct,
			},
		))
		return false
	}

	return true
}

// validationDetails flattens a validator failure into the error details
// attached to a 400 response.
func validationDetails(err *validation.RequestError) map[string]interface{} {
	fields := make([]map[string]interface{}, len(err.Details))
	for i, d := range err.Details {
		fields[i] = map[string]interface{}{
			"field":   d.Field,
			"message": d.Message,
			"code":    d.Code,
		}
	}
	return map[string]interface{}{"fields": fields}
}
