package errors

import (
	"net/http"
)

// NewError is the general-purpose constructor with full control over the
// error's fields. Prefer the specialized constructors below.
func NewError(errType ErrorType, message string, code int, requestID string, details map[string]interface{}, err error) *BellhopError {
	return &BellhopError{
		Type:      errType,
		Message:   message,
		Code:      code,
		RequestID: requestID,
		Details:   details,
		err:       err,
	}
}

// NewValidationError creates a 400 for malformed inbound requests:
// missing guest messages, wrong field types, oversized inputs.
func NewValidationError(requestID, message string, details map[string]interface{}) *BellhopError {
	return &BellhopError{
		Type:      ValidationError,
		Message:   message,
		Code:      http.StatusBadRequest,
		RequestID: requestID,
		Details:   details,
	}
}

// NewProviderError creates a 502 for model provider failures that cannot
// be absorbed into a fallback result.
func NewProviderError(requestID, message string, err error) *BellhopError {
	return &BellhopError{
		Type:      ProviderError,
		Message:   message,
		Code:      http.StatusBadGateway,
		RequestID: requestID,
		err:       err,
	}
}

// NewRateLimitError creates a 429 with a retry hint.
func NewRateLimitError(requestID string, retryAfter int) *BellhopError {
	return &BellhopError{
		Type:      RateLimitError,
		Message:   "Rate limit exceeded",
		Code:      http.StatusTooManyRequests,
		RequestID: requestID,
		Details: map[string]interface{}{
			"retry_after": retryAfter,
		},
	}
}

// NewInternalError creates a 500 for unexpected failures such as panics.
func NewInternalError(requestID string, err error) *BellhopError {
	return &BellhopError{
		Type:      InternalError,
		Message:   "An internal error occurred",
		Code:      http.StatusInternalServerError,
		RequestID: requestID,
		err:       err,
	}
}
