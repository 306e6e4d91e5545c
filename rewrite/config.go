package rewrite

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	"github.com/spf13/viper"
)

// Provider names accepted in configuration.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// EnvConfig holds the API keys read from the environment.
type EnvConfig struct {
	APIKey       string `env:"API_KEY"`
	GeminiAPIKey string `env:"GEMINI_API_KEY"`
	OpenAIAPIKey string `env:"OPENAI_API_KEY"`
}

// Key returns the key for provider. API_KEY wins over the provider-specific
// variables.
func (e EnvConfig) Key(provider string) string {
	if e.APIKey != "" {
		return e.APIKey
	}
	switch provider {
	case ProviderOpenAI:
		return e.OpenAIAPIKey
	default:
		return e.GeminiAPIKey
	}
}

// Config configures the rewrite client.
type Config struct {
	Provider  string        `yaml:"provider"`
	Model     string        `yaml:"model"`
	BaseURL   string        `yaml:"base_url"`
	APIKey    string        `yaml:"api_key"`
	Timeout   time.Duration `yaml:"timeout"`
	RateLimit float64       `yaml:"rate_limit"` // Requests per second, 0 disables
}

// DefaultConfig returns the default rewrite configuration.
func DefaultConfig() Config {
	return Config{
		Provider:  ProviderGemini,
		Model:     DefaultModel,
		Timeout:   60 * time.Second,
		RateLimit: 1,
	}
}

// Validate checks the configuration for invalid values.
func (c Config) Validate() error {
	switch c.Provider {
	case ProviderGemini, ProviderOpenAI:
	default:
		return fmt.Errorf("unsupported rewrite provider %q (want %s or %s)", c.Provider, ProviderGemini, ProviderOpenAI)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("rewrite timeout must not be negative, got %s", c.Timeout)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("rewrite rate limit must not be negative, got %v", c.RateLimit)
	}
	return nil
}

// LoadConfigFromViper reads rewrite.* keys and fills a missing API key from
// the environment.
func LoadConfigFromViper() (Config, error) {
	cfg := DefaultConfig()

	if p := viper.GetString("rewrite.provider"); p != "" {
		cfg.Provider = strings.ToLower(p)
	}
	if m := viper.GetString("rewrite.model"); m != "" {
		cfg.Model = m
	} else if cfg.Provider == ProviderOpenAI {
		cfg.Model = "gpt-4o-mini"
	}
	cfg.BaseURL = viper.GetString("rewrite.base_url")
	cfg.APIKey = viper.GetString("rewrite.api_key")
	if viper.IsSet("rewrite.timeout") {
		cfg.Timeout = viper.GetDuration("rewrite.timeout")
	}
	if viper.IsSet("rewrite.rate_limit") {
		cfg.RateLimit = viper.GetFloat64("rewrite.rate_limit")
	}

	if cfg.APIKey == "" {
		envCfg, err := env.ParseAs[EnvConfig]()
		if err != nil {
			return cfg, fmt.Errorf("parse environment: %w", err)
		}
		cfg.APIKey = envCfg.Key(cfg.Provider)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid rewrite configuration: %w", err)
	}
	return cfg, nil
}

// New builds a Client for cfg. It returns ErrMissingAPIKey when no key is
// configured.
func New(ctx context.Context, cfg Config, logger *log.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	httpClient := &http.Client{Timeout: cfg.Timeout}

	var backend Backend
	var err error
	switch cfg.Provider {
	case ProviderOpenAI:
		backend, err = NewOpenAIBackend(cfg.APIKey, cfg.BaseURL, httpClient)
	default:
		backend, err = NewGeminiBackend(ctx, cfg.APIKey, cfg.BaseURL, httpClient)
	}
	if err != nil {
		return nil, err
	}

	return NewClient(backend,
		WithModel(cfg.Model),
		WithRateLimit(cfg.RateLimit),
		WithLogger(logger),
	), nil
}
