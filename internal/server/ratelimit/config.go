package ratelimit

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// EndpointConfig represents rate limiting configuration for a specific endpoint.
type EndpointConfig struct {
	Path   string        // Endpoint path pattern (a trailing "/" means prefix match)
	Method string        // HTTP method (GET, POST, etc.)
	Limit  int           // Maximum requests per window
	Window time.Duration // Time window
	Burst  int           // Burst capacity (defaults to Limit if 0)
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool
	DefaultLimit    int
	DefaultWindow   time.Duration
	CleanupInterval time.Duration
	Whitelist       map[string]bool
	Blacklist       map[string]bool
	EndpointConfigs []EndpointConfig
}

type envConfig struct {
	Enabled         bool          `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	DefaultLimit    int           `env:"RATE_LIMIT_DEFAULT_LIMIT" envDefault:"1000"`
	DefaultWindow   time.Duration `env:"RATE_LIMIT_DEFAULT_WINDOW" envDefault:"1m"`
	CleanupInterval time.Duration `env:"RATE_LIMIT_CLEANUP_INTERVAL" envDefault:"5m"`
	Whitelist       []string      `env:"RATE_LIMIT_WHITELIST" envSeparator:","`
	Blacklist       []string      `env:"RATE_LIMIT_BLACKLIST" envSeparator:","`
	AILimit         int           `env:"RATE_LIMIT_AI_LIMIT" envDefault:"30"`
	AIWindow        time.Duration `env:"RATE_LIMIT_AI_WINDOW" envDefault:"1h"`
	AIBurst         int           `env:"RATE_LIMIT_AI_BURST" envDefault:"3"`
}

// LoadConfig loads rate limiting configuration from environment variables.
func LoadConfig() (*Config, error) {
	var raw envConfig
	if err := env.Parse(&raw); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if !raw.Enabled {
		return &Config{Enabled: false}, nil
	}
	if raw.DefaultLimit < 0 || raw.DefaultWindow <= 0 {
		return nil, fmt.Errorf("invalid default rate limit: %d per %s", raw.DefaultLimit, raw.DefaultWindow)
	}
	if raw.AILimit < 0 || raw.AIWindow <= 0 {
		return nil, fmt.Errorf("invalid AI rate limit: %d per %s", raw.AILimit, raw.AIWindow)
	}

	return &Config{
		Enabled:         true,
		DefaultLimit:    raw.DefaultLimit,
		DefaultWindow:   raw.DefaultWindow,
		CleanupInterval: raw.CleanupInterval,
		Whitelist:       toSet(raw.Whitelist),
		Blacklist:       toSet(raw.Blacklist),
		EndpointConfigs: DefaultEndpointConfigs(raw.AILimit, raw.AIWindow, raw.AIBurst),
	}, nil
}

// DefaultEndpointConfigs returns the endpoint tiers. AI-backed endpoints share
// the strictest tier, whose limits come from configuration.
func DefaultEndpointConfigs(aiLimit int, aiWindow time.Duration, aiBurst int) []EndpointConfig {
	return []EndpointConfig{
		// Tier 1: model calls (strictest limits)
		{Path: "/submit", Method: http.MethodPost, Limit: aiLimit, Window: aiWindow, Burst: aiBurst},
		{Path: "/refine", Method: http.MethodPost, Limit: aiLimit, Window: aiWindow, Burst: aiBurst},
		{Path: "/ask-ai", Method: http.MethodPost, Limit: aiLimit, Window: aiWindow, Burst: aiBurst},
		{Path: "/follow-up/", Method: http.MethodGet, Limit: aiLimit, Window: aiWindow, Burst: aiBurst},

		// Tier 2: credential endpoints
		{Path: "/register", Method: http.MethodPost, Limit: 20, Window: time.Minute, Burst: 5},
		{Path: "/login", Method: http.MethodPost, Limit: 20, Window: time.Minute, Burst: 5},

		// Tier 3: writes
		{Path: "/complaint/", Method: http.MethodPost, Limit: 100, Window: time.Minute, Burst: 10},

		// Tier 4: reads use the default limit; health is unlimited (see MatchEndpoint)
	}
}

func toSet(items []string) map[string]bool {
	result := make(map[string]bool, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			result[item] = true
		}
	}
	return result
}
