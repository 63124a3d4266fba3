package llm

import "errors"

var (
	// ErrAIUnavailable is returned when the model could not produce a response:
	// retries were exhausted or the upstream failure was not retryable.
	// The underlying cause is logged, never returned.
	ErrAIUnavailable = errors.New("failed to get a valid response from the AI after multiple attempts")

	// ErrAIMalformedResponse is returned when the model's text is not the
	// JSON document the prompt asked for.
	ErrAIMalformedResponse = errors.New("AI returned a malformed response")

	// ErrOverloaded marks a transient capacity failure from the provider.
	// It is the only condition the Caller retries on.
	ErrOverloaded = errors.New("model overloaded")
)

// IsAIError reports whether err originated in the AI layer.
func IsAIError(err error) bool {
	return errors.Is(err, ErrAIUnavailable) || errors.Is(err, ErrAIMalformedResponse)
}
