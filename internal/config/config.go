package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const envPrefix = "LENSREPORT"

type Config struct {
	SearchAPIKey    string `envconfig:"SEARCH_API_KEY"`
	AnthropicAPIKey string `envconfig:"ANTHROPIC_API_KEY"`

	SearchBaseURL string `envconfig:"SEARCH_BASE_URL" default:"https://www.searchapi.io/api/v1/search"`
	SearchEngine  string `envconfig:"SEARCH_ENGINE" default:"google_lens"`

	LLMBaseURL   string `envconfig:"LLM_BASE_URL" default:"https://api.anthropic.com/v1/"`
	LLMModel     string `envconfig:"LLM_MODEL" default:"claude-3-5-sonnet-20241022"`
	LLMMaxTokens int    `envconfig:"LLM_MAX_TOKENS" default:"1024"`

	DriveBaseURL string        `envconfig:"DRIVE_BASE_URL" default:"https://drive.google.com"`
	WorkDir      string        `envconfig:"WORK_DIR"`
	HTTPTimeout  time.Duration `envconfig:"HTTP_TIMEOUT" default:"60s"`

	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
}

var (
	ErrMissingSearchKey    = errors.New("search API key is required (set LENSREPORT_SEARCH_API_KEY)")
	ErrMissingAnthropicKey = errors.New("Anthropic API key is required (set LENSREPORT_ANTHROPIC_API_KEY)")
)

// Load reads the configuration and fails when a required API key is absent.
func Load() (*Config, error) {
	cfg, err := Read()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Read loads a .env file when present, then the LENSREPORT_* environment,
// without validating it.
func Read() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if cfg.WorkDir == "" {
		cfg.WorkDir = os.TempDir()
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.SearchAPIKey == "" {
		return ErrMissingSearchKey
	}
	if c.AnthropicAPIKey == "" {
		return ErrMissingAnthropicKey
	}
	if c.LLMMaxTokens <= 0 {
		return fmt.Errorf("LLM max tokens must be positive, got: %d", c.LLMMaxTokens)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("HTTP timeout must be positive, got: %s", c.HTTPTimeout)
	}
	return nil
}

func (c *Config) HasSentry() bool {
	return c.SentryDSN != ""
}
