// Package server assembles the HTTP surface: routing, middleware stack,
// and the lifecycle of the listener.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/bellhop-ai/bellhop/config"
	"github.com/bellhop-ai/bellhop/server/classifier"
	"github.com/bellhop-ai/bellhop/server/handlers"
	"github.com/bellhop-ai/bellhop/server/metrics"
	"github.com/bellhop-ai/bellhop/server/middleware"
	"github.com/bellhop-ai/bellhop/server/provider"
	"github.com/bellhop-ai/bellhop/server/validation"
)

// RouterConfig carries everything the HTTP surface needs.
type RouterConfig struct {
	Service   *classifier.Service
	Validator *validation.Validator
	Health    provider.HealthReporter
	Metrics   *metrics.Metrics
	Logger    *zap.Logger

	// MaxBatchSize caps messages per batch call.
	MaxBatchSize int

	// RequestTimeout bounds each request end to end. Zero disables it.
	RequestTimeout time.Duration

	// RateLimit enables per-client request limiting when non-nil.
	RateLimit *config.RateLimitConfig

	// Queue bounds in-flight requests when non-nil.
	Queue *middleware.AdmissionQueue
}

// NewRouter builds the chi router with the full middleware stack and all
// routes mounted.
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTimer)
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))
	r.Use(middleware.CORS)
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}
	if cfg.Metrics != nil {
		r.Use(middleware.PrometheusMetrics(cfg.Metrics))
	}
	if cfg.RateLimit != nil && cfg.RateLimit.Enabled {
		r.Use(middleware.RateLimit(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst, cfg.Metrics))
	}
	if cfg.Queue != nil {
		r.Use(cfg.Queue.Handler)
	}

	r.Method(http.MethodPost, "/v1/classify",
		handlers.NewClassifyHandler(cfg.Service, cfg.Validator, cfg.Logger))
	r.Method(http.MethodPost, "/v1/batch-classify",
		handlers.NewBatchClassifyHandler(cfg.Service, cfg.Validator, cfg.MaxBatchSize, cfg.Logger))
	r.Method(http.MethodPost, "/v1/insights",
		handlers.NewInsightsHandler(cfg.Service, cfg.Validator, cfg.Logger))
	r.Method(http.MethodGet, "/v1/categories",
		handlers.NewCategoriesHandler(cfg.Service, cfg.Logger))
	r.Method(http.MethodGet, "/health",
		handlers.NewHealthHandler(cfg.Health, cfg.Logger))
	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics.Handler())
	}

	return r
}

// Server wraps the HTTP listener with graceful shutdown.
type Server struct {
	httpServer      *http.Server
	shutdownTimeout time.Duration
	logger          *zap.Logger
}

// NewServer creates a server for the given handler.
func NewServer(cfg config.ServerConfig, handler http.Handler, logger *zap.Logger) *Server {
	shutdownTimeout := cfg.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 30 * time.Second
	}
	return &Server{
		httpServer: &http.Server{
			Addr:           fmt.Sprintf(":%d", cfg.Port),
			Handler:        handler,
			ReadTimeout:    cfg.ReadTimeout,
			WriteTimeout:   cfg.WriteTimeout,
			MaxHeaderBytes: cfg.MaxHeaderBytes,
		},
		shutdownTimeout: shutdownTimeout,
		logger:          logger,
	}
}

// Start runs the server and blocks until ctx is canceled or the listener
// fails. Cancellation triggers a graceful shutdown bounded by the
// configured timeout.
func (s *Server) Start(ctx context.Context) error {
	errChan := make(chan error, 1)

	go func() {
		s.logger.Info("Server started", zap.String("address", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()

		s.logger.Info("Shutting down server")
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil

	case err := <-errChan:
		return err
	}
}
