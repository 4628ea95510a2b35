// Package config provides configuration for the bellhop server: HTTP
// settings, the model provider, classifier behavior, and the service
// category taxonomy. The taxonomy is deliberately data, not code: the
// classifier carries no hardcoded business rules, so everything the model
// is told about categories comes from here.
package config

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bellhop-ai/bellhop/server/schema"
)

// Config is the complete server configuration.
type Config struct {
	Server         ServerConfig         `yaml:"server"`
	LLM            LLMConfig            `yaml:"llm"`
	Classifier     ClassifierConfig     `yaml:"classifier"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuit_breaker"`
	RateLimit      RateLimitConfig      `yaml:"rate_limit"`
	Queue          QueueConfig          `yaml:"queue"`
	Logging        LoggingConfig        `yaml:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// LLMConfig holds the model provider settings. All generation parameters
// are configuration; the code never hardcodes model behavior.
type LLMConfig struct {
	// Provider is the gollm provider name (e.g. "mistral", "anthropic",
	// "openai", "ollama").
	Provider string `yaml:"provider"`

	// Model is the model name (e.g. "mistral-large-latest").
	Model string `yaml:"model"`

	// APIKey authenticates against the provider. Use ${VAR} syntax to
	// pull it from the environment.
	APIKey string `yaml:"api_key"`

	// Endpoint overrides the provider endpoint, mainly for Ollama.
	Endpoint string `yaml:"endpoint"`

	// CallTimeout bounds a single outbound model call.
	CallTimeout time.Duration `yaml:"call_timeout"`

	// RetryBackoff is the pause before the single rate-limit retry.
	RetryBackoff time.Duration `yaml:"retry_backoff"`

	// MaxMessageTokens caps the guest message size, measured in model
	// tokens. Zero disables the check.
	MaxMessageTokens int `yaml:"max_message_tokens"`

	// Options carries provider-specific generation parameters such as
	// temperature and max_tokens, passed through verbatim.
	Options map[string]interface{} `yaml:"options"`
}

// CategoryConfig describes one service category shown to the model and
// served by the categories endpoint.
type CategoryConfig struct {
	Key                   string `yaml:"key"`
	Name                  string `yaml:"name"`
	Description           string `yaml:"description"`
	Department            string `yaml:"department"`
	TypicalCompletionTime string `yaml:"typical_completion_time"`
}

// ClassifierConfig holds classification behavior settings.
type ClassifierConfig struct {
	// BatchConcurrency caps how many batch items are classified in
	// flight at once, to stay inside provider rate limits.
	BatchConcurrency int `yaml:"batch_concurrency"`

	// MaxBatchSize caps the number of messages accepted per batch call.
	MaxBatchSize int `yaml:"max_batch_size"`

	// Categories is the service taxonomy.
	Categories []CategoryConfig `yaml:"categories"`
}

// CircuitBreakerConfig holds breaker thresholds for the model call.
type CircuitBreakerConfig struct {
	MaxRequests      uint32        `yaml:"max_requests"`
	Interval         time.Duration `yaml:"interval"`
	Timeout          time.Duration `yaml:"timeout"`
	FailureThreshold uint32        `yaml:"failure_threshold"`
}

// RateLimitConfig holds per-client HTTP rate limiting settings.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requests_per_minute"`
	Burst             int  `yaml:"burst"`
}

// QueueConfig holds the optional admission queue settings.
type QueueConfig struct {
	Enabled      bool          `yaml:"enabled"`
	InitialSize  int64         `yaml:"initial_size"`
	StatePath    string        `yaml:"state_path"`
	SaveInterval time.Duration `yaml:"save_interval"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`

	// Format is json or text.
	Format string `yaml:"format"`
}

// DefaultConfig returns a working configuration with the standard hotel
// taxonomy. A config file layers on top of these values.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    45 * time.Second,
			MaxHeaderBytes:  1 << 20,
			ShutdownTimeout: 30 * time.Second,
		},
		LLM: LLMConfig{
			Provider:         "mistral",
			Model:            "mistral-large-latest",
			APIKey:           "${MISTRAL_API_KEY}",
			CallTimeout:      30 * time.Second,
			RetryBackoff:     500 * time.Millisecond,
			MaxMessageTokens: 2048,
			Options: map[string]interface{}{
				"temperature": 0.1,
				"max_tokens":  2000,
			},
		},
		Classifier: ClassifierConfig{
			BatchConcurrency: 4,
			MaxBatchSize:     50,
			Categories: []CategoryConfig{
				{
					Key:                   "service_fb",
					Name:                  "Food & Beverage",
					Description:           "Food, beverages, room service, restaurant requests, coffee, tea, meals, drinks, dining, snacks, water, ice",
					Department:            "F&B",
					TypicalCompletionTime: "15-30 minutes",
				},
				{
					Key:                   "housekeeping",
					Name:                  "Housekeeping",
					Description:           "Room cleaning, towels, linens, bathroom supplies, bed making, trash removal, fresh sheets, pillows, blankets",
					Department:            "Housekeeping",
					TypicalCompletionTime: "20-45 minutes",
				},
				{
					Key:                   "maintenance",
					Name:                  "Maintenance",
					Description:           "Repairs, technical issues, broken items, AC/heating, plumbing, electrical, lights, TV, WiFi, locks, windows, appliances",
					Department:            "Engineering",
					TypicalCompletionTime: "30-120 minutes",
				},
				{
					Key:                   "porter",
					Name:                  "Porter Services",
					Description:           "Luggage assistance, heavy item moving, transportation of bags, bell services, package delivery",
					Department:            "Bell Services",
					TypicalCompletionTime: "5-15 minutes",
				},
				{
					Key:                   "concierge",
					Name:                  "Concierge",
					Description:           "External services, directions, recommendations, bookings outside the hotel, tours, tickets, transportation, local information",
					Department:            "Concierge",
					TypicalCompletionTime: "10-60 minutes",
				},
				{
					Key:                   "reception",
					Name:                  "Reception",
					Description:           "Check-in/out, billing, room changes, hotel policies, complaints, front desk services, reservations, key cards",
					Department:            "Front Office",
					TypicalCompletionTime: "5-20 minutes",
				},
			},
		},
		CircuitBreaker: CircuitBreakerConfig{
			MaxRequests:      1,
			Interval:         30 * time.Second,
			Timeout:          time.Minute,
			FailureThreshold: 5,
		},
		RateLimit: RateLimitConfig{
			Enabled:           false,
			RequestsPerMinute: 100,
			Burst:             20,
		},
		Queue: QueueConfig{
			Enabled:      false,
			InitialSize:  1000,
			StatePath:    "",
			SaveInterval: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadFile loads configuration from a YAML file.
func LoadFile(filename string) (*Config, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	return Load(f)
}

// Load reads YAML from r, expands environment variables, layers the result
// over DefaultConfig, and validates it.
func Load(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := expandEnvVars(string(data))

	cfg := DefaultConfig()
	dec := yaml.NewDecoder(strings.NewReader(expanded))
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// expandEnvVars resolves ${VAR} references, with ${VAR:-default} supplying
// a fallback when the variable is unset or empty.
func expandEnvVars(s string) string {
	return os.Expand(s, func(key string) string {
		if i := strings.Index(key, ":-"); i >= 0 {
			if val := os.Getenv(key[:i]); val != "" {
				return val
			}
			return key[i+2:]
		}
		return os.Getenv(key)
	})
}

// Validate checks the configuration for values that would break the
// server at runtime.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if c.Server.ReadTimeout < 0 {
		return fmt.Errorf("negative read timeout: %v", c.Server.ReadTimeout)
	}
	if c.Server.WriteTimeout < 0 {
		return fmt.Errorf("negative write timeout: %v", c.Server.WriteTimeout)
	}
	if c.Server.ShutdownTimeout < 0 {
		return fmt.Errorf("negative shutdown timeout: %v", c.Server.ShutdownTimeout)
	}

	if c.LLM.Provider == "" {
		return fmt.Errorf("empty LLM provider")
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("empty LLM model")
	}
	if c.LLM.CallTimeout <= 0 {
		return fmt.Errorf("call timeout must be positive: %v", c.LLM.CallTimeout)
	}
	if c.LLM.MaxMessageTokens < 0 {
		return fmt.Errorf("negative max message tokens: %d", c.LLM.MaxMessageTokens)
	}

	if c.Classifier.BatchConcurrency <= 0 {
		return fmt.Errorf("batch concurrency must be positive: %d", c.Classifier.BatchConcurrency)
	}
	if c.Classifier.MaxBatchSize <= 0 {
		return fmt.Errorf("max batch size must be positive: %d", c.Classifier.MaxBatchSize)
	}
	if len(c.Classifier.Categories) == 0 {
		return fmt.Errorf("no service categories configured")
	}
	seen := make(map[string]bool, len(c.Classifier.Categories))
	for i, cat := range c.Classifier.Categories {
		if !schema.ServiceCategory(cat.Key).Valid() {
			return fmt.Errorf("category %d: unknown key %q", i, cat.Key)
		}
		if seen[cat.Key] {
			return fmt.Errorf("category %d: duplicate key %q", i, cat.Key)
		}
		seen[cat.Key] = true
		if cat.Description == "" {
			return fmt.Errorf("category %q: empty description", cat.Key)
		}
	}

	if c.RateLimit.Enabled {
		if c.RateLimit.RequestsPerMinute <= 0 {
			return fmt.Errorf("rate limit requests per minute must be positive: %d", c.RateLimit.RequestsPerMinute)
		}
		if c.RateLimit.Burst <= 0 {
			return fmt.Errorf("rate limit burst must be positive: %d", c.RateLimit.Burst)
		}
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	return nil
}
