// Package classifier orchestrates the classification pipeline: build the
// prompt, call the model, extract and validate the JSON verdict. All
// semantic judgement lives in the model; this package only moves data
// through the pipeline and absorbs failures into safe fallbacks.
package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bellhop-ai/bellhop/server/metrics"
	"github.com/bellhop-ai/bellhop/server/prompt"
	"github.com/bellhop-ai/bellhop/server/provider"
	"github.com/bellhop-ai/bellhop/server/schema"
)

const defaultBatchConcurrency = 4

// fallbackPrefix opens the reasoning of every fallback result, so callers
// reading only the text can still tell a model verdict from a failure.
const fallbackPrefix = "classification unavailable: "

// Service classifies guest messages via an external model.
type Service struct {
	client           provider.Client
	logger           *zap.Logger
	metrics          *metrics.Metrics
	batchConcurrency int

	mu      sync.RWMutex
	prompts *prompt.Builder
}

// Options tunes optional service behavior.
type Options struct {
	// Metrics enables pipeline instrumentation when non-nil.
	Metrics *metrics.Metrics

	// BatchConcurrency caps in-flight model calls during batch
	// classification. Zero uses the default.
	BatchConcurrency int
}

// NewService creates a classifier over the given model client and prompt
// builder.
func NewService(client provider.Client, prompts *prompt.Builder, logger *zap.Logger, opts Options) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	concurrency := opts.BatchConcurrency
	if concurrency <= 0 {
		concurrency = defaultBatchConcurrency
	}
	return &Service{
		client:           client,
		logger:           logger,
		metrics:          opts.Metrics,
		batchConcurrency: concurrency,
		prompts:          prompts,
	}
}

// SetPromptBuilder swaps the prompt builder, used when the category
// taxonomy is reloaded from configuration. Safe for concurrent use.
func (s *Service) SetPromptBuilder(b *prompt.Builder) {
	s.mu.Lock()
	s.prompts = b
	s.mu.Unlock()
}

func (s *Service) builder() *prompt.Builder {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prompts
}

// Categories returns the taxonomy currently used for classification.
func (s *Service) Categories() []prompt.Category {
	return s.builder().Categories()
}

// Classify runs one guest message through the pipeline. It never returns
// an error for a well-formed request: when the model is unreachable or
// returns output that cannot be validated, the result is a conservative
// fallback (no ticket, zero confidence) whose Status field says which
// side failed.
func (s *Service) Classify(ctx context.Context, req schema.ClassificationRequest) *schema.ClassificationResult {
	b := s.builder()

	start := time.Now()
	text, err := s.client.Complete(ctx, b.ClassificationSystem(), b.ClassificationUser(req))
	if s.metrics != nil {
		s.metrics.ModelCallDuration.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		return s.fallback(err)
	}

	raw, err := provider.ExtractJSON(text)
	if err != nil {
		s.logger.Warn("model output contained no JSON object",
			zap.Error(err),
			zap.Int("output_length", len(text)))
		return s.fallback(err)
	}

	result, notes, err := schema.Decode(raw)
	if err != nil {
		s.logger.Warn("model output failed schema validation", zap.Error(err))
		return s.fallback(err)
	}
	for _, note := range notes {
		s.logger.Debug("model output repaired", zap.String("note", note))
	}

	s.observe(result.Status)
	return result
}

// ClassifyBatch classifies each message independently, bounded by the
// configured concurrency. The returned slice has the same length and
// order as the input; a failure on one item never affects the others.
func (s *Service) ClassifyBatch(ctx context.Context, reqs []schema.ClassificationRequest) []*schema.ClassificationResult {
	results := make([]*schema.ClassificationResult, len(reqs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.batchConcurrency)
	for i, req := range reqs {
		i, req := i, req
		g.Go(func() error {
			results[i] = s.Classify(ctx, req)
			return nil
		})
	}
	// Classify absorbs all failures, so the group never errors.
	_ = g.Wait()

	return results
}

// Insights runs the free-text analysis variant: sentiment, emotion, and
// operational hints as an open JSON object rather than the fixed ticket
// schema. Failures produce a small fallback object instead of an error.
func (s *Service) Insights(ctx context.Context, message string) map[string]interface{} {
	b := s.builder()

	start := time.Now()
	text, err := s.client.Complete(ctx, "", b.Insights(message))
	if s.metrics != nil {
		s.metrics.ModelCallDuration.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		return insightsFallback(err)
	}

	raw, err := provider.ExtractJSON(text)
	if err != nil {
		s.logger.Warn("insights output contained no JSON object", zap.Error(err))
		return insightsFallback(err)
	}

	var insights map[string]interface{}
	if err := json.Unmarshal(raw, &insights); err != nil {
		s.logger.Warn("insights output was not a JSON object", zap.Error(err))
		return insightsFallback(err)
	}
	return insights
}

// fallback builds the conservative no-ticket result for a failed
// classification, mapping the error to a result status.
func (s *Service) fallback(err error) *schema.ClassificationResult {
	status, reason := statusFor(err)
	s.observe(status)

	return &schema.ClassificationResult{
		ShouldCreateTicket: false,
		Categories:         []schema.TicketCategory{},
		Confidence:         0,
		Reasoning:          fallbackPrefix + reason,
		SuggestedPriority:  schema.UrgencyLow,
		Status:             status,
	}
}

// statusFor maps a pipeline error to the result status and a short
// human-readable reason. Model-side failures (unreachable, rate limited)
// are upstream; malformed output is a parse failure.
func statusFor(err error) (schema.ResultStatus, string) {
	var (
		upstreamErr  *provider.UpstreamError
		rateLimitErr *provider.RateLimitError
		parseErr     *provider.ParseError
		schemaErr    *schema.SchemaError
	)
	switch {
	case errors.As(err, &rateLimitErr):
		return schema.StatusUpstreamFailure, "provider rate limited"
	case errors.As(err, &upstreamErr):
		return schema.StatusUpstreamFailure, "provider unreachable"
	case errors.As(err, &parseErr):
		return schema.StatusParseFailure, "model returned no parseable JSON"
	case errors.As(err, &schemaErr):
		return schema.StatusParseFailure, fmt.Sprintf("model output invalid (%s)", schemaErr.Field)
	}
	return schema.StatusUpstreamFailure, "provider unreachable"
}

func insightsFallback(err error) map[string]interface{} {
	return map[string]interface{}{
		"error":             fmt.Sprintf("insights generation failed: %v", err),
		"fallback_analysis": "Unable to provide detailed insights due to processing error",
	}
}

func (s *Service) observe(status schema.ResultStatus) {
	if s.metrics != nil {
		s.metrics.ClassificationsTotal.WithLabelValues(string(status)).Inc()
	}
}
