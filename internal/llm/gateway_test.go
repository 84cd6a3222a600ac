package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	name     string
	attempts int
	// script returns the response for the given 1-indexed attempt.
	script func(attempt int) (string, error)
}

func (s *stubProvider) Name() string     { return s.name }
func (s *stubProvider) Models() []string { return []string{"stub-model"} }

func (s *stubProvider) Generate(_ context.Context, _, _ string, _ GenerateConfig) (string, error) {
	s.attempts++
	return s.script(s.attempts)
}

func newTestGateway(p *stubProvider, maxRetries int) *Gateway {
	return NewGatewayWithProviders(p.name, maxRetries, time.Millisecond, p)
}

func TestGenerateSucceedsFirstAttempt(t *testing.T) {
	p := &stubProvider{name: "stub", script: func(int) (string, error) { return "hello world", nil }}
	g := newTestGateway(p, 3)

	res, err := g.Generate(context.Background(), "stub-model", "say hi", GenerateConfig{})
	require.NoError(t, err)

	assert.Equal(t, 1, p.attempts)
	assert.Equal(t, "hello world", res.Content)
	assert.Equal(t, "stub-model", res.Model)
	assert.Equal(t, "stub", res.Provider)
	// ceil(len("say hi"+"hello world")/4) = ceil(17/4)
	assert.Equal(t, 5, res.TokensUsed)
}

func TestGenerateRetriesThenSucceeds(t *testing.T) {
	p := &stubProvider{name: "stub", script: func(attempt int) (string, error) {
		if attempt < 3 {
			return "", errors.New("transient")
		}
		return "ok", nil
	}}
	g := newTestGateway(p, 3)

	res, err := g.Generate(context.Background(), "stub-model", "p", GenerateConfig{})
	require.NoError(t, err)
	assert.Equal(t, 3, p.attempts)
	assert.Equal(t, "ok", res.Content)
}

func TestGenerateExhaustsRetries(t *testing.T) {
	boom := errors.New("boom")
	p := &stubProvider{name: "stub", script: func(int) (string, error) { return "", boom }}
	g := newTestGateway(p, 3)

	_, err := g.Generate(context.Background(), "stub-model", "p", GenerateConfig{})

	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 3, p.attempts, "exactly maxRetries attempts")
	assert.Equal(t, 3, exhausted.Attempts)
	assert.Equal(t, "stub", exhausted.Provider)
	assert.ErrorIs(t, err, boom)
}

func TestGenerateEmptyContentIsFailure(t *testing.T) {
	p := &stubProvider{name: "stub", script: func(int) (string, error) { return "", nil }}
	g := newTestGateway(p, 2)

	_, err := g.Generate(context.Background(), "stub-model", "p", GenerateConfig{})

	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 2, p.attempts)
	assert.ErrorIs(t, err, errEmptyResponse)
}

func TestGenerateRespectsContextDuringBackoff(t *testing.T) {
	p := &stubProvider{name: "stub", script: func(int) (string, error) { return "", errors.New("down") }}
	g := NewGatewayWithProviders("stub", 5, time.Minute, p)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := g.Generate(ctx, "stub-model", "p", GenerateConfig{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, p.attempts, "no further attempts once the context is done")
}

func TestGenerateFallbackProvider(t *testing.T) {
	primary := &stubProvider{name: "primary", script: func(int) (string, error) { return "", errors.New("down") }}
	fallback := &stubProvider{name: "fallback", script: func(int) (string, error) { return "rescued", nil }}

	g := NewGatewayWithProviders("primary", 2, time.Millisecond, primary, fallback)
	g.fallbackProvider = "fallback"

	res, err := g.Generate(context.Background(), "stub-model", "p", GenerateConfig{})
	require.NoError(t, err)
	assert.Equal(t, 2, primary.attempts)
	assert.Equal(t, "rescued", res.Content)
	assert.Equal(t, "fallback", res.Provider)
}

func TestGenerateUnknownProvider(t *testing.T) {
	g := NewGatewayWithProviders("nope", 3, time.Millisecond)

	_, err := g.Generate(context.Background(), "m", "p", GenerateConfig{})
	assert.Error(t, err)
}
