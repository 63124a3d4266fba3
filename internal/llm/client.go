package llm

import (
	"context"
	"fmt"
)

// Candidate is one completion returned by a provider.
type Candidate struct {
	Text string
}

// TextGenerator is the raw text-generation primitive of a provider.
// Implementations must wrap transient capacity failures with ErrOverloaded.
type TextGenerator interface {
	// Generate sends prompt as a single user turn to model.
	Generate(ctx context.Context, model, prompt string) ([]Candidate, error)
	// Close releases any resources held by the generator
	Close() error
}

// NewGenerator creates a TextGenerator for the configured provider
func NewGenerator(ctx context.Context, config *Config, apiKey string) (TextGenerator, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required for provider %s", config.Provider)
	}

	switch config.Provider {
	case ProviderAnthropic:
		return NewAnthropicGenerator(apiKey), nil
	case ProviderGemini:
		return NewGeminiGenerator(ctx, apiKey)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", config.Provider)
	}
}

// firstText returns the text of the first candidate, or "" when there is none.
func firstText(candidates []Candidate) string {
	if len(candidates) == 0 {
		return ""
	}
	return candidates[0].Text
}
