package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"
)

// Default retry policy.
const (
	DefaultMaxAttempts    = 3
	DefaultInitialBackoff = time.Second
	DefaultMaxBackoff     = 4 * time.Second
)

// Caller is the single AI-access point used by the complaint service.
// StructuredCall is the retrying JSON path; FreeTextCall is the best-effort
// raw text path with a single attempt.
type Caller struct {
	gen            TextGenerator
	model          string
	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	sleep          func(ctx context.Context, d time.Duration) error
}

// CallerOption configures a Caller.
type CallerOption func(*Caller)

// WithMaxAttempts sets the total number of attempts for StructuredCall.
func WithMaxAttempts(n int) CallerOption {
	return func(c *Caller) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// WithBackoff sets the first delay and the delay cap.
func WithBackoff(initial, maxDelay time.Duration) CallerOption {
	return func(c *Caller) {
		if initial > 0 {
			c.initialBackoff = initial
		}
		if maxDelay > 0 {
			c.maxBackoff = maxDelay
		}
	}
}

// WithSleep replaces the delay function. Tests use it to record backoff.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) CallerOption {
	return func(c *Caller) {
		if fn != nil {
			c.sleep = fn
		}
	}
}

// NewCaller creates a Caller that sends every prompt to model through gen.
func NewCaller(gen TextGenerator, model string, opts ...CallerOption) *Caller {
	c := &Caller{
		gen:            gen,
		model:          model,
		maxAttempts:    DefaultMaxAttempts,
		initialBackoff: DefaultInitialBackoff,
		maxBackoff:     DefaultMaxBackoff,
		sleep:          sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StructuredCall sends prompt and parses the reply as a JSON object.
//
// Only ErrOverloaded failures are retried, with exponential backoff starting at
// the initial delay. Any other generator failure, or running out of attempts,
// yields ErrAIUnavailable. Text that is not a JSON object yields
// ErrAIMalformedResponse without retrying.
func (c *Caller) StructuredCall(ctx context.Context, prompt string) (map[string]any, error) {
	delay := c.initialBackoff

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		candidates, err := c.gen.Generate(ctx, c.model, prompt)
		if err == nil {
			return parseObject(firstText(candidates))
		}

		if errors.Is(err, ErrOverloaded) && attempt < c.maxAttempts {
			log.Printf("[ai] Model overloaded. Retrying in %s... (attempt %d)", delay, attempt)
			if err := c.sleep(ctx, delay); err != nil {
				log.Printf("[ai] Retry wait interrupted: %v", err)
				return nil, ErrAIUnavailable
			}
			delay = min(delay*2, c.maxBackoff)
			continue
		}

		log.Printf("[ai] AI call failed after %d attempt(s) or for a non-retryable reason: %v", attempt, err)
		return nil, ErrAIUnavailable
	}

	return nil, ErrAIUnavailable
}

// FreeTextCall sends prompt once and returns the first candidate's raw text.
// An empty reply is not an error; callers decide on a fallback.
func (c *Caller) FreeTextCall(ctx context.Context, prompt string) (string, error) {
	candidates, err := c.gen.Generate(ctx, c.model, prompt)
	if err != nil {
		log.Printf("[ai] Free-text call failed: %v", err)
		return "", ErrAIUnavailable
	}
	return firstText(candidates), nil
}

func parseObject(raw string) (map[string]any, error) {
	var result map[string]any
	if err := json.Unmarshal([]byte(StripJSONFence(raw)), &result); err != nil {
		log.Printf("[ai] Unparseable AI response (%d bytes): %v", len(raw), err)
		return nil, fmt.Errorf("%w: %v", ErrAIMalformedResponse, err)
	}
	if result == nil {
		return nil, fmt.Errorf("%w: response is not a JSON object", ErrAIMalformedResponse)
	}
	return result, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
