package provider

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"github.com/teilomillet/gollm"
	"go.uber.org/zap"

	"github.com/bellhop-ai/bellhop/server/circuitbreaker"
)

const (
	defaultCallTimeout  = 30 * time.Second
	defaultRetryBackoff = 500 * time.Millisecond
)

// GollmClient is the gollm-backed Client. Every call runs with a bounded
// deadline and under circuit breaker protection; a single rate-limit retry
// with a short backoff is the only retry policy.
type GollmClient struct {
	llm          gollm.LLM
	breaker      *circuitbreaker.CircuitBreaker
	logger       *zap.Logger
	callTimeout  time.Duration
	retryBackoff time.Duration
}

// GollmOptions configures a GollmClient. Zero values fall back to
// defaults; a nil Breaker disables breaker protection.
type GollmOptions struct {
	Breaker      *circuitbreaker.CircuitBreaker
	CallTimeout  time.Duration
	RetryBackoff time.Duration
}

// NewGollmClient wraps an initialized gollm LLM.
func NewGollmClient(llm gollm.LLM, logger *zap.Logger, opts GollmOptions) *GollmClient {
	c := &GollmClient{
		llm:          llm,
		breaker:      opts.Breaker,
		logger:       logger,
		callTimeout:  opts.CallTimeout,
		retryBackoff: opts.RetryBackoff,
	}
	if c.callTimeout <= 0 {
		c.callTimeout = defaultCallTimeout
	}
	if c.retryBackoff <= 0 {
		c.retryBackoff = defaultRetryBackoff
	}
	return c
}

// Complete implements Client.
func (c *GollmClient) Complete(ctx context.Context, system, user string) (string, error) {
	out, err := c.generate(ctx, system, user)

	var rl *RateLimitError
	if errors.As(err, &rl) {
		c.logger.Warn("model call rate limited, retrying once",
			zap.Duration("backoff", c.retryBackoff))
		select {
		case <-time.After(c.retryBackoff):
		case <-ctx.Done():
			return "", &UpstreamError{Err: ctx.Err()}
		}
		out, err = c.generate(ctx, system, user)
	}
	return out, err
}

func (c *GollmClient) generate(ctx context.Context, system, user string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	var messages []gollm.PromptMessage
	if system != "" {
		messages = append(messages, gollm.PromptMessage{Role: "system", Content: system})
	}
	messages = append(messages, gollm.PromptMessage{Role: "user", Content: user})
	prompt := &gollm.Prompt{Messages: messages}

	var out string
	call := func() error {
		resp, err := c.llm.Generate(ctx, prompt)
		if err != nil {
			return err
		}
		out = resp
		return nil
	}

	var err error
	if c.breaker != nil {
		err = c.breaker.Execute(call)
	} else {
		err = call()
	}
	if err != nil {
		return "", classifyErr(err)
	}
	return out, nil
}

// Healthy implements HealthReporter. The breaker state is the cheap
// reachability signal: an open breaker means recent calls failed.
func (c *GollmClient) Healthy() bool {
	if c.breaker == nil {
		return true
	}
	return c.breaker.State() != gobreaker.StateOpen
}
