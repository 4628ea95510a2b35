// Package provider implements the outbound model call. It knows nothing
// about hotels or tickets: callers hand it instruction text and get the
// model's raw text back, with failures classified into upstream, rate
// limit, and parse errors. Any provider satisfying Client can be swapped
// in without touching prompt or validation code.
package provider

import (
	"context"
)

// Client sends an instruction to a model endpoint and returns its raw text
// response. system may be empty for single-prompt calls.
//
// Errors are one of *UpstreamError or *RateLimitError.
type Client interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// HealthReporter is implemented by clients that can cheaply report whether
// the model endpoint looks reachable.
type HealthReporter interface {
	Healthy() bool
}
