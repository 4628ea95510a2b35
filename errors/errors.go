// Package errors provides the structured error handling used across the
// bellhop server: typed errors with HTTP status codes, JSON error
// responses carrying request IDs, and integrated zap logging.
//
// Basic usage:
//
//	errors.ErrorWithType(w, "guest_message is required", errors.ValidationError, http.StatusBadRequest)
//
// or, with full context:
//
//	errors.WriteError(w, errors.NewValidationError(requestID, "guest_message is required", details))
package errors

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

// DefaultLogger is used by the package when no logger is supplied. It can
// be replaced with SetLogger.
var DefaultLogger *zap.Logger

func init() {
	var err error
	DefaultLogger, err = zap.NewProduction()
	if err != nil {
		DefaultLogger = zap.NewNop()
	}
}

// SetLogger replaces the package logger. A nil logger is ignored so
// logging can never be silently disabled.
func SetLogger(logger *zap.Logger) {
	if logger != nil {
		DefaultLogger = logger
	}
}

// ErrorType categorizes errors for client handling.
type ErrorType string

const (
	// ValidationError covers malformed inbound requests: empty messages,
	// wrong types, oversized payloads.
	ValidationError ErrorType = "validation_error"

	// ProviderError covers failures talking to the model provider.
	ProviderError ErrorType = "provider_error"

	// RateLimitError covers request throttling.
	RateLimitError ErrorType = "rate_limit_error"

	// InternalError covers unexpected server failures.
	InternalError ErrorType = "internal_error"

	// ConfigError covers configuration problems.
	ConfigError ErrorType = "config_error"

	// NotFoundError covers unknown resources.
	NotFoundError ErrorType = "not_found"
)

// BellhopError is the error type surfaced to HTTP clients. It serializes
// to JSON while keeping the underlying error for logs.
type BellhopError struct {
	Type      ErrorType              `json:"type"`
	Message   string                 `json:"message"`
	Code      int                    `json:"-"`
	RequestID string                 `json:"request_id"`
	Details   map[string]interface{} `json:"details,omitempty"`

	err error
}

// Error implements the error interface.
func (e *BellhopError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error.
func (e *BellhopError) Unwrap() error {
	return e.err
}

// Is matches on error type only, for use with errors.Is.
func (e *BellhopError) Is(target error) bool {
	t, ok := target.(*BellhopError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// WriteError writes err as a JSON response with its status code.
func WriteError(w http.ResponseWriter, err *BellhopError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.Code)
	if encErr := json.NewEncoder(w).Encode(err); encErr != nil {
		DefaultLogger.Error("failed to encode error response", zap.Error(encErr))
	}
}

// Error is a drop-in replacement for http.Error producing a structured
// InternalError response. The request ID is read from the response
// headers when present.
func Error(w http.ResponseWriter, message string, code int) {
	ErrorWithType(w, message, InternalError, code)
}

// ErrorWithType is Error with an explicit error type.
func ErrorWithType(w http.ResponseWriter, message string, errType ErrorType, code int) {
	WriteError(w, &BellhopError{
		Type:      errType,
		Message:   message,
		Code:      code,
		RequestID: w.Header().Get("X-Request-ID"),
	})
}
