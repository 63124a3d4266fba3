// Package config loads the application's runtime configuration from the
// environment. Each concern has its own struct, parsed from env tags and then
// normalized.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// parseEnv loads env-tagged fields into target.
func parseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Server holds HTTP server and persistence settings.
type Server struct {
	Port              int    `env:"PORT" envDefault:"8080"`
	DatabaseURL       string `env:"DATABASE_URL"`
	BaseURL           string `env:"BASE_URL" envDefault:"http://localhost:8080"`
	SessionCookieName string `env:"SESSION_COOKIE_NAME" envDefault:"session"`
}

// LoadServer reads server settings from the environment.
func LoadServer() (*Server, error) {
	var cfg Server
	if err := parseEnv(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Server) normalize() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required but not set")
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("PORT out of range: %d", c.Port)
	}
	if c.SessionCookieName == "" {
		return fmt.Errorf("SESSION_COOKIE_NAME cannot be empty")
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	return nil
}

// AI holds model provider settings and the retry policy for structured calls.
type AI struct {
	Provider        string        `env:"AI_PROVIDER" envDefault:"gemini"`
	GeminiAPIKey    string        `env:"GEMINI_API_KEY"`
	AnthropicAPIKey string        `env:"ANTHROPIC_API_KEY"`
	Model           string        `env:"AI_MODEL"`
	MaxAttempts     int           `env:"AI_MAX_ATTEMPTS" envDefault:"3"`
	InitialBackoff  time.Duration `env:"AI_INITIAL_BACKOFF" envDefault:"1s"`
	MaxBackoff      time.Duration `env:"AI_MAX_BACKOFF" envDefault:"4s"`
}

// LoadAI reads AI settings from the environment.
func LoadAI() (*AI, error) {
	var cfg AI
	if err := parseEnv(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *AI) normalize() error {
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	switch c.Provider {
	case "gemini", "anthropic":
	default:
		return fmt.Errorf("unsupported AI_PROVIDER: %q (must be gemini or anthropic)", c.Provider)
	}
	if c.APIKey() == "" {
		return fmt.Errorf("API key for provider %s is required but not set", c.Provider)
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("AI_MAX_ATTEMPTS must be at least 1, got: %d", c.MaxAttempts)
	}
	if c.InitialBackoff <= 0 {
		return fmt.Errorf("AI_INITIAL_BACKOFF must be positive, got: %s", c.InitialBackoff)
	}
	if c.MaxBackoff < c.InitialBackoff {
		return fmt.Errorf("AI_MAX_BACKOFF (%s) must not be less than AI_INITIAL_BACKOFF (%s)", c.MaxBackoff, c.InitialBackoff)
	}
	return nil
}

// APIKey returns the key for the configured provider.
func (c *AI) APIKey() string {
	if c.Provider == "anthropic" {
		return c.AnthropicAPIKey
	}
	return c.GeminiAPIKey
}
