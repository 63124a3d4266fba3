package llm

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedGenerator replays a fixed sequence of results, one per call.
type scriptedGenerator struct {
	mu      sync.Mutex
	results []scriptedResult
	prompts []string
	models  []string
}

type scriptedResult struct {
	candidates []Candidate
	err        error
}

func (g *scriptedGenerator) Generate(_ context.Context, model, prompt string) ([]Candidate, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompts = append(g.prompts, prompt)
	g.models = append(g.models, model)
	if len(g.results) == 0 {
		return nil, errors.New("unexpected call")
	}
	r := g.results[0]
	g.results = g.results[1:]
	return r.candidates, r.err
}

func (g *scriptedGenerator) Close() error { return nil }

func (g *scriptedGenerator) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.prompts)
}

func text(s string) scriptedResult {
	return scriptedResult{candidates: []Candidate{{Text: s}}}
}

func failure(err error) scriptedResult {
	return scriptedResult{err: err}
}

func overloaded() scriptedResult {
	return failure(errors.Join(ErrOverloaded, errors.New("503 Service Unavailable")))
}

// sleepRecorder captures requested delays instead of sleeping.
type sleepRecorder struct {
	delays []time.Duration
}

func (r *sleepRecorder) sleep(_ context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return nil
}

func newTestCaller(gen TextGenerator, rec *sleepRecorder, opts ...CallerOption) *Caller {
	return NewCaller(gen, "test-model", append([]CallerOption{WithSleep(rec.sleep)}, opts...)...)
}

func TestStructuredCall_Success(t *testing.T) {
	gen := &scriptedGenerator{results: []scriptedResult{text(`{"newDraft": "Dear Sir"}`)}}
	rec := &sleepRecorder{}

	got, err := newTestCaller(gen, rec).StructuredCall(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "Dear Sir", got["newDraft"])
	assert.Equal(t, 1, gen.calls())
	assert.Empty(t, rec.delays)
	assert.Equal(t, []string{"test-model"}, gen.models)
	assert.Equal(t, []string{"prompt"}, gen.prompts)
}

func TestStructuredCall_FencedResponse(t *testing.T) {
	gen := &scriptedGenerator{results: []scriptedResult{text("```json\n{\"followUpDraft\": \"Reminder\"}\n```")}}

	got, err := newTestCaller(gen, &sleepRecorder{}).StructuredCall(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "Reminder", got["followUpDraft"])
}

func TestStructuredCall_RetriesOverloadThenSucceeds(t *testing.T) {
	gen := &scriptedGenerator{results: []scriptedResult{
		overloaded(),
		text(`{"ok": true}`),
	}}
	rec := &sleepRecorder{}

	got, err := newTestCaller(gen, rec).StructuredCall(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, true, got["ok"])
	assert.Equal(t, 2, gen.calls())
	assert.Equal(t, []time.Duration{time.Second}, rec.delays)
}

func TestStructuredCall_ThreeOverloadsExhaustRetries(t *testing.T) {
	gen := &scriptedGenerator{results: []scriptedResult{overloaded(), overloaded(), overloaded()}}
	rec := &sleepRecorder{}

	_, err := newTestCaller(gen, rec).StructuredCall(context.Background(), "prompt")
	require.ErrorIs(t, err, ErrAIUnavailable)
	assert.Equal(t, 3, gen.calls())
	// 1000 * 2^(k-1) ms before attempt k+1
	assert.Equal(t, []time.Duration{1000 * time.Millisecond, 2000 * time.Millisecond}, rec.delays)
}

func TestStructuredCall_UnavailableHidesCause(t *testing.T) {
	cause := errors.New("secret upstream detail")
	gen := &scriptedGenerator{results: []scriptedResult{failure(cause)}}

	_, err := newTestCaller(gen, &sleepRecorder{}).StructuredCall(context.Background(), "prompt")
	require.Error(t, err)
	assert.Equal(t, ErrAIUnavailable, err)
	assert.NotContains(t, err.Error(), "secret upstream detail")
}

func TestStructuredCall_NonRetryableFailures(t *testing.T) {
	tests := []struct {
		name    string
		result  scriptedResult
		wantErr error
	}{
		{
			name:    "network error",
			result:  failure(errors.New("dial tcp: connection refused")),
			wantErr: ErrAIUnavailable,
		},
		{
			name:    "non-overload service error",
			result:  failure(errors.New("400 invalid argument")),
			wantErr: ErrAIUnavailable,
		},
		{
			name:    "parse error",
			result:  text("I'm sorry, I can't help with that."),
			wantErr: ErrAIMalformedResponse,
		},
		{
			name:    "no candidates",
			result:  scriptedResult{},
			wantErr: ErrAIMalformedResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &scriptedGenerator{results: []scriptedResult{tt.result, text(`{"unused": true}`)}}
			rec := &sleepRecorder{}

			_, err := newTestCaller(gen, rec).StructuredCall(context.Background(), "prompt")
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, 1, gen.calls(), "must not retry")
			assert.Empty(t, rec.delays)
		})
	}
}

func TestStructuredCall_OverloadThenHardFailureStops(t *testing.T) {
	gen := &scriptedGenerator{results: []scriptedResult{
		overloaded(),
		failure(errors.New("permission denied")),
		text(`{"unused": true}`),
	}}
	rec := &sleepRecorder{}

	_, err := newTestCaller(gen, rec).StructuredCall(context.Background(), "prompt")
	assert.ErrorIs(t, err, ErrAIUnavailable)
	assert.Equal(t, 2, gen.calls())
	assert.Equal(t, []time.Duration{time.Second}, rec.delays)
}

func TestStructuredCall_BackoffIsCapped(t *testing.T) {
	results := make([]scriptedResult, 0, 6)
	for i := 0; i < 6; i++ {
		results = append(results, overloaded())
	}
	gen := &scriptedGenerator{results: results}
	rec := &sleepRecorder{}

	_, err := newTestCaller(gen, rec, WithMaxAttempts(6)).StructuredCall(context.Background(), "prompt")
	assert.ErrorIs(t, err, ErrAIUnavailable)
	assert.Equal(t, []time.Duration{
		time.Second, 2 * time.Second, 4 * time.Second, 4 * time.Second, 4 * time.Second,
	}, rec.delays)
}

func TestStructuredCall_CancelledDuringBackoff(t *testing.T) {
	gen := &scriptedGenerator{results: []scriptedResult{overloaded(), text(`{"ok": true}`)}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewCaller(gen, "test-model", WithBackoff(time.Hour, time.Hour))
	_, err := c.StructuredCall(ctx, "prompt")
	assert.ErrorIs(t, err, ErrAIUnavailable)
	assert.Equal(t, 1, gen.calls())
}

func TestFreeTextCall(t *testing.T) {
	t.Run("returns raw text without parsing", func(t *testing.T) {
		gen := &scriptedGenerator{results: []scriptedResult{text("Upload your ID as a PDF.")}}
		got, err := newTestCaller(gen, &sleepRecorder{}).FreeTextCall(context.Background(), "q")
		require.NoError(t, err)
		assert.Equal(t, "Upload your ID as a PDF.", got)
	})

	t.Run("empty reply is not an error", func(t *testing.T) {
		gen := &scriptedGenerator{results: []scriptedResult{{}}}
		got, err := newTestCaller(gen, &sleepRecorder{}).FreeTextCall(context.Background(), "q")
		require.NoError(t, err)
		assert.Equal(t, "", got)
	})

	t.Run("overload is not retried", func(t *testing.T) {
		gen := &scriptedGenerator{results: []scriptedResult{overloaded(), text("late")}}
		rec := &sleepRecorder{}
		_, err := newTestCaller(gen, rec).FreeTextCall(context.Background(), "q")
		assert.ErrorIs(t, err, ErrAIUnavailable)
		assert.Equal(t, 1, gen.calls())
		assert.Empty(t, rec.delays)
	})
}

func TestSleepContext(t *testing.T) {
	assert.NoError(t, sleepContext(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleepContext(ctx, time.Hour), context.Canceled)
}
