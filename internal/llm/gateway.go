package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ninjiez/promptmaster-v3/internal/config"
	"github.com/ninjiez/promptmaster-v3/pkg/tokenizer"
)

// ExhaustedError reports that every retry attempt against a provider failed.
// The per-attempt errors are logged; only the last one is carried.
type ExhaustedError struct {
	Provider string
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("generation failed after %d attempts on %s: %v", e.Attempts, e.Provider, e.Err)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }

var errEmptyResponse = errors.New("empty response from model")

// Gateway routes generation requests to a configured provider with bounded
// retries and exponential backoff, optionally falling back to a second
// provider once the primary is exhausted.
type Gateway struct {
	providers        map[string]Provider
	defaultProvider  string
	fallbackProvider string
	maxRetries       int

	// backoffUnit scales the 2^attempt wait between attempts. One second in
	// production; tests shrink it.
	backoffUnit time.Duration
}

func NewGateway(cfg config.AIConfig) (*Gateway, error) {
	g := &Gateway{
		providers:        make(map[string]Provider),
		defaultProvider:  cfg.DefaultProvider,
		fallbackProvider: cfg.FallbackProvider,
		maxRetries:       cfg.MaxRetries,
		backoffUnit:      time.Second,
	}

	if cfg.GeminiKey != "" {
		p, err := NewGeminiProvider(cfg.GeminiKey)
		if err != nil {
			return nil, fmt.Errorf("init gemini provider: %w", err)
		}
		g.providers["gemini"] = p
	}
	if cfg.OpenAIKey != "" {
		g.providers["openai"] = NewOpenAIProvider(cfg.OpenAIKey)
	}
	if cfg.AnthropicKey != "" {
		g.providers["anthropic"] = NewAnthropicProvider(cfg.AnthropicKey)
	}

	return g, nil
}

// NewGatewayWithProviders wires an explicit provider set; used by tests.
func NewGatewayWithProviders(defaultProvider string, maxRetries int, backoffUnit time.Duration, providers ...Provider) *Gateway {
	g := &Gateway{
		providers:       make(map[string]Provider, len(providers)),
		defaultProvider: defaultProvider,
		maxRetries:      maxRetries,
		backoffUnit:     backoffUnit,
	}
	for _, p := range providers {
		g.providers[p.Name()] = p
	}
	return g
}

func (g *Gateway) Provider(name string) (Provider, error) {
	p, ok := g.providers[name]
	if !ok {
		return nil, fmt.Errorf("provider %q not configured", name)
	}
	return p, nil
}

func (g *Gateway) ListModels() map[string][]string {
	out := make(map[string][]string, len(g.providers))
	for name, p := range g.providers {
		out[name] = p.Models()
	}
	return out
}

// Generate calls the default provider with retries; if a fallback provider is
// configured and the primary exhausts its attempts, the fallback gets the
// same number of attempts.
func (g *Gateway) Generate(ctx context.Context, model, prompt string, cfg GenerateConfig) (*Result, error) {
	res, err := g.generateWithRetry(ctx, g.defaultProvider, model, prompt, cfg)
	if err != nil && g.fallbackProvider != "" && g.fallbackProvider != g.defaultProvider {
		slog.Warn("primary provider exhausted, trying fallback",
			"primary", g.defaultProvider,
			"fallback", g.fallbackProvider,
			"error", err,
		)
		return g.generateWithRetry(ctx, g.fallbackProvider, model, prompt, cfg)
	}
	return res, err
}

func (g *Gateway) generateWithRetry(ctx context.Context, providerName, model, prompt string, cfg GenerateConfig) (*Result, error) {
	p, err := g.Provider(providerName)
	if err != nil {
		return nil, err
	}

	maxRetries := g.maxRetries
	if maxRetries < 1 {
		maxRetries = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		start := time.Now()
		content, err := p.Generate(ctx, model, prompt, cfg)
		if err == nil && content == "" {
			err = errEmptyResponse
		}
		if err == nil {
			return &Result{
				Content:    content,
				TokensUsed: tokenizer.EstimateExchange(prompt, content),
				Model:      model,
				Provider:   providerName,
				LatencyMs:  time.Since(start).Milliseconds(),
			}, nil
		}

		lastErr = err
		slog.Error("generation attempt failed",
			"provider", providerName,
			"model", model,
			"attempt", attempt,
			"error", err,
		)

		if attempt == maxRetries {
			break
		}

		backoff := time.Duration(1<<uint(attempt)) * g.backoffUnit
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}

	return nil, &ExhaustedError{Provider: providerName, Attempts: maxRetries, Err: lastErr}
}
