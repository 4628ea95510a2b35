package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sony/gobreaker"
)

// UpstreamError covers network failures, timeouts, auth failures, and any
// other case where the model endpoint did not produce a usable response.
type UpstreamError struct {
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream: %v", e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// RateLimitError indicates provider throttling. Callers may retry once
// after a short backoff; the client already does.
type RateLimitError struct {
	Err error
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited: %v", e.Err)
}

func (e *RateLimitError) Unwrap() error { return e.Err }

// ParseError indicates the model responded but no well-formed JSON object
// could be extracted from its text.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse: %s", e.Reason)
}

// classifyErr maps a raw provider failure onto the error taxonomy.
// Provider SDKs do not expose structured throttling errors uniformly, so
// rate limits are recognized by message.
func classifyErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return &UpstreamError{Err: err}
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return &UpstreamError{Err: err}
	case isRateLimitMessage(err.Error()):
		return &RateLimitError{Err: err}
	default:
		return &UpstreamError{Err: err}
	}
}

func isRateLimitMessage(msg string) bool {
	msg = strings.ToLower(msg)
	return strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "too many requests") ||
		strings.Contains(msg, "429")
}
