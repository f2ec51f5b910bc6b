package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string           `toml:"environment"` // "development" or "production"
	Server      ServerConfig     `toml:"server"`
	Storage     StorageConfig    `toml:"storage"`
	Logging     LoggingConfig    `toml:"logging"`
	LLM         LLMConfig        `toml:"llm"`
	Ask         AskConfig        `toml:"ask"`
	Embeddings  EmbeddingsConfig `toml:"embeddings"`
}

type ServerConfig struct {
	Port int    `toml:"port" validate:"gt=0,lte=65535"`
	Host string `toml:"host" validate:"required"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path" validate:"required_unless=InMemory true"` // Database directory path
	InMemory       bool   `toml:"in_memory"`                                     // Keep the store in RAM, no files on disk
	ResetOnStartup bool   `toml:"reset_on_startup"`                              // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Output []string `toml:"output"` // "stdout", "file"
}

// LLMConfig configures the cloud LLM providers
type LLMConfig struct {
	Provider        string  `toml:"provider" validate:"oneof=gemini claude"` // chat provider
	GoogleAPIKey    string  `toml:"google_api_key"`
	AnthropicAPIKey string  `toml:"anthropic_api_key"`
	EmbedModelName  string  `toml:"embed_model_name"`
	ChatModelName   string  `toml:"chat_model_name"`
	EmbedDimension  int     `toml:"embed_dimension" validate:"gt=0"`
	Timeout         string  `toml:"timeout"` // e.g. "30s" - per provider call
	MaxTokens       int     `toml:"max_tokens"`
	Temperature     float32 `toml:"temperature"`
	// Rate limiting across all provider calls (golang.org/x/time/rate)
	RateLimitPerSecond float64 `toml:"rate_limit_per_second"`
	RateLimitBurst     int     `toml:"rate_limit_burst"`
}

// AskConfig configures context assembly for question answering
type AskConfig struct {
	// MaxContextChars truncates the assembled context when > 0. Applied
	// identically regardless of collection. 0 disables truncation.
	MaxContextChars int `toml:"max_context_chars" validate:"gte=0"`
}

// EmbeddingsConfig configures the re-embed coordinator
type EmbeddingsConfig struct {
	Schedule string `toml:"schedule"` // cron expression, empty disables
	Limit    int    `toml:"limit"`    // max documents per re-embed run
}

// DefaultConfig returns the baseline configuration before file and env overrides
func DefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8755,
			Host: "localhost",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data/scholia",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout"},
		},
		LLM: LLMConfig{
			Provider:           "gemini",
			EmbedModelName:     "gemini-embedding-001",
			ChatModelName:      "gemini-2.0-flash",
			EmbedDimension:     768,
			Timeout:            "30s",
			MaxTokens:          2048,
			RateLimitPerSecond: 2,
			RateLimitBurst:     4,
		},
		Ask: AskConfig{
			MaxContextChars: 0,
		},
		Embeddings: EmbeddingsConfig{
			Schedule: "@every 5m",
			Limit:    25,
		},
	}
}

// LoadFromFiles loads configuration with layered precedence:
// defaults -> files (later files override earlier) -> environment variables.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := DefaultConfig()

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnvOverrides applies SCHOLIA_* environment variables over file values
func applyEnvOverrides(config *Config) {
	if v := os.Getenv("SCHOLIA_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			config.Server.Port = port
		}
	}
	if v := os.Getenv("SCHOLIA_SERVER_HOST"); v != "" {
		config.Server.Host = v
	}
	if v := os.Getenv("SCHOLIA_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
	if v := os.Getenv("SCHOLIA_BADGER_PATH"); v != "" {
		config.Storage.Badger.Path = v
	}
	if v := os.Getenv("SCHOLIA_LLM_PROVIDER"); v != "" {
		config.LLM.Provider = v
	}
	if v := os.Getenv("GOOGLE_API_KEY"); v != "" {
		config.LLM.GoogleAPIKey = v
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		config.LLM.AnthropicAPIKey = v
	}
}

// ApplyFlagOverrides applies command-line overrides (highest priority)
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// Validate checks structural constraints on the resolved configuration
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if _, err := time.ParseDuration(c.LLM.Timeout); err != nil {
		return fmt.Errorf("invalid llm.timeout %q: %w", c.LLM.Timeout, err)
	}

	return nil
}

// ProviderTimeout returns the parsed per-call provider timeout
func (c *Config) ProviderTimeout() time.Duration {
	d, err := time.ParseDuration(c.LLM.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}
