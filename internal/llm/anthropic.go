package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// statusOverloaded is Anthropic's "overloaded_error" status code.
const statusOverloaded = 529

const anthropicMaxTokens = 4096

// AnthropicGenerator implements TextGenerator for Anthropic's Messages API.
type AnthropicGenerator struct {
	client anthropic.Client
}

// NewAnthropicGenerator creates a new Anthropic generator
func NewAnthropicGenerator(apiKey string) *AnthropicGenerator {
	return &AnthropicGenerator{
		// Retries are owned by Caller so the backoff policy stays in one place.
		client: anthropic.NewClient(option.WithAPIKey(apiKey), option.WithMaxRetries(0)),
	}
}

// Generate sends prompt as a single user message.
// The message's text blocks form one candidate; a reply without text yields none.
func (g *AnthropicGenerator) Generate(ctx context.Context, model, prompt string) ([]Candidate, error) {
	if model == "" {
		return nil, fmt.Errorf("no model configured")
	}

	message, err := g.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: anthropicMaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		if isAnthropicOverloaded(err) {
			return nil, fmt.Errorf("%w: %v", ErrOverloaded, err)
		}
		return nil, fmt.Errorf("Anthropic API error: %w", err)
	}

	var parts []string
	for _, block := range message.Content {
		if block.Type == "text" {
			parts = append(parts, block.Text)
		}
	}
	if len(parts) == 0 {
		return nil, nil
	}
	return []Candidate{{Text: strings.Join(parts, "")}}, nil
}

// Close is a no-op; the SDK client holds no resources.
func (g *AnthropicGenerator) Close() error {
	return nil
}

func isAnthropicOverloaded(err error) bool {
	var apiErr *anthropic.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == statusOverloaded || apiErr.StatusCode == http.StatusServiceUnavailable
}
