package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/googleapis/gax-go/v2/apierror"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// GeminiGenerator implements TextGenerator for Google Gemini
type GeminiGenerator struct {
	client *genai.Client
}

// NewGeminiGenerator creates a new Gemini generator
func NewGeminiGenerator(ctx context.Context, apiKey string) (*GeminiGenerator, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiGenerator{client: client}, nil
}

// Generate sends a single-turn prompt and returns every candidate's text.
func (g *GeminiGenerator) Generate(ctx context.Context, model, prompt string) ([]Candidate, error) {
	if model == "" {
		return nil, fmt.Errorf("no model configured")
	}

	resp, err := g.client.GenerativeModel(model).GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		if isGeminiOverloaded(err) {
			return nil, fmt.Errorf("%w: %v", ErrOverloaded, err)
		}
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}

	return geminiCandidates(resp), nil
}

// Close releases resources held by the client
func (g *GeminiGenerator) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

// geminiCandidates flattens the text parts of each candidate.
// Candidates without text parts are kept with empty text so indexes line up.
func geminiCandidates(resp *genai.GenerateContentResponse) []Candidate {
	if resp == nil {
		return nil
	}
	out := make([]Candidate, 0, len(resp.Candidates))
	for _, c := range resp.Candidates {
		if c == nil || c.Content == nil {
			out = append(out, Candidate{})
			continue
		}
		var sb strings.Builder
		for _, part := range c.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				sb.WriteString(string(text))
			}
		}
		out = append(out, Candidate{Text: sb.String()})
	}
	return out
}

// isGeminiOverloaded reports whether err is the 503 "model is overloaded" response.
func isGeminiOverloaded(err error) bool {
	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		return gErr.Code == http.StatusServiceUnavailable
	}
	var apiErr *apierror.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPCode() == http.StatusServiceUnavailable
	}
	return false
}
