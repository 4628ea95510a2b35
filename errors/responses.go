package errors

import (
	"errors"
)

// ErrorResponse is the wire shape of an error, used by tests and clients
// to decode error bodies.
type ErrorResponse struct {
	Type      ErrorType              `json:"type"`
	Message   string                 `json:"message"`
	RequestID string                 `json:"request_id"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// As wraps errors.As for callers that only import this package.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
