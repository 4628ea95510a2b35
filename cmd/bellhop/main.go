package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/teilomillet/gollm"
	"go.uber.org/zap"

	"github.com/bellhop-ai/bellhop/config"
	"github.com/bellhop-ai/bellhop/errors"
	"github.com/bellhop-ai/bellhop/server"
	"github.com/bellhop-ai/bellhop/server/circuitbreaker"
	"github.com/bellhop-ai/bellhop/server/classifier"
	"github.com/bellhop-ai/bellhop/server/metrics"
	"github.com/bellhop-ai/bellhop/server/middleware"
	"github.com/bellhop-ai/bellhop/server/prompt"
	"github.com/bellhop-ai/bellhop/server/provider"
	"github.com/bellhop-ai/bellhop/server/schema"
	"github.com/bellhop-ai/bellhop/server/validation"
)

var (
	configFile = flag.String("config", "bellhop.yaml", "Path to configuration file")
	validate   = flag.Bool("validate", false, "Validate configuration and exit")
	version    = flag.Bool("version", false, "Print version and exit")
)

const Version = "v0.1.0"

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("bellhop %s\n", Version)
		os.Exit(0)
	}

	cfg, err := config.LoadFile(*configFile)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("Config file %s not found, using defaults", *configFile)
			cfg = config.DefaultConfig()
		} else {
			log.Fatalf("Failed to load config: %v", err)
		}
	}

	if *validate {
		fmt.Println("Configuration is valid")
		os.Exit(0)
	}

	logger, err := newLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()
	errors.SetLogger(logger)

	m := metrics.NewMetrics()

	llm, err := createLLM(cfg.LLM)
	if err != nil {
		logger.Fatal("Failed to create LLM client", zap.Error(err))
	}

	breaker := circuitbreaker.New("model", circuitbreaker.Config{
		MaxRequests:      cfg.CircuitBreaker.MaxRequests,
		Interval:         cfg.CircuitBreaker.Interval,
		Timeout:          cfg.CircuitBreaker.Timeout,
		FailureThreshold: cfg.CircuitBreaker.FailureThreshold,
	}, logger, m.Registry())

	client := provider.NewGollmClient(llm, logger, provider.GollmOptions{
		Breaker:      breaker,
		CallTimeout:  cfg.LLM.CallTimeout,
		RetryBackoff: cfg.LLM.RetryBackoff,
	})

	svc := classifier.NewService(client, prompt.NewBuilder(promptCategories(cfg)), logger, classifier.Options{
		Metrics:          m,
		BatchConcurrency: cfg.Classifier.BatchConcurrency,
	})

	requestValidator, err := validation.NewValidator(cfg.LLM.Model, cfg.LLM.MaxMessageTokens)
	if err != nil {
		logger.Fatal("Failed to create request validator", zap.Error(err))
	}

	var queue *middleware.AdmissionQueue
	if cfg.Queue.Enabled {
		queue = middleware.NewAdmissionQueue(middleware.QueueConfig{
			InitialSize:  cfg.Queue.InitialSize,
			Metrics:      m,
			StatePath:    cfg.Queue.StatePath,
			SaveInterval: cfg.Queue.SaveInterval,
		})
	}

	router := server.NewRouter(server.RouterConfig{
		Service:        svc,
		Validator:      requestValidator,
		Health:         client,
		Metrics:        m,
		Logger:         logger,
		MaxBatchSize:   cfg.Classifier.MaxBatchSize,
		RequestTimeout: cfg.Server.WriteTimeout,
		RateLimit:      &cfg.RateLimit,
		Queue:          queue,
	})

	srv := server.NewServer(cfg.Server, router, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Reload the category taxonomy when the config file changes. Server
	// and provider settings still require a restart.
	watcher, err := config.NewFileWatcher(*configFile, logger)
	if err != nil {
		logger.Warn("Config watching disabled", zap.Error(err))
	} else {
		defer watcher.Close()
		go func() {
			for next := range watcher.Subscribe() {
				svc.SetPromptBuilder(prompt.NewBuilder(promptCategories(next)))
				if queue != nil && next.Queue.Enabled {
					queue.SetMaxSize(next.Queue.InitialSize)
				}
				logger.Info("Reloaded category taxonomy",
					zap.Int("categories", len(next.Classifier.Categories)))
			}
		}()
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("Received shutdown signal")
		cancel()
	}()

	logger.Info("Starting bellhop",
		zap.String("version", Version),
		zap.Int("port", cfg.Server.Port),
		zap.String("provider", cfg.LLM.Provider),
		zap.String("model", cfg.LLM.Model),
	)
	if err := srv.Start(ctx); err != nil {
		logger.Fatal("Server error", zap.Error(err))
	}

	if queue != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()
		if err := queue.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Queue shutdown incomplete", zap.Error(err))
		}
	}
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.Format == "text" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}
	zapCfg.Level = level

	return zapCfg.Build()
}

func createLLM(cfg config.LLMConfig) (gollm.LLM, error) {
	opts := []gollm.ConfigOption{
		gollm.SetProvider(cfg.Provider),
		gollm.SetModel(cfg.Model),
	}
	if cfg.APIKey != "" {
		opts = append(opts, gollm.SetAPIKey(cfg.APIKey))
	}

	llm, err := gollm.NewLLM(opts...)
	if err != nil {
		return nil, fmt.Errorf("create LLM: %w", err)
	}

	if cfg.Endpoint != "" {
		llm.SetEndpoint(cfg.Endpoint)
	}
	for key, value := range cfg.Options {
		llm.SetOption(key, value)
	}

	return llm, nil
}

func promptCategories(cfg *config.Config) []prompt.Category {
	categories := make([]prompt.Category, len(cfg.Classifier.Categories))
	for i, c := range cfg.Classifier.Categories {
		categories[i] = prompt.Category{
			Key:                   schema.ServiceCategory(c.Key),
			Name:                  c.Name,
			Description:           c.Description,
			Department:            c.Department,
			TypicalCompletionTime: c.TypicalCompletionTime,
		}
	}
	return categories
}
