package llm

import (
	"context"
)

// Provider abstracts a text-generation backend (Gemini, OpenAI, Anthropic).
type Provider interface {
	// Generate produces text for a single prompt. An empty result is treated
	// by callers as a failure equivalent to a transport error.
	Generate(ctx context.Context, model, prompt string, cfg GenerateConfig) (string, error)
	Name() string
	Models() []string
}

// GenerateConfig carries sampling parameters for one generation call.
type GenerateConfig struct {
	Temperature     float64 `json:"temperature,omitempty"`
	MaxOutputTokens int     `json:"max_output_tokens,omitempty"`
	TopP            float64 `json:"top_p,omitempty"`
	TopK            int     `json:"top_k,omitempty"`
}

// DefaultGenerateConfig mirrors the calibration the operation templates were
// written against.
func DefaultGenerateConfig() GenerateConfig {
	return GenerateConfig{
		Temperature:     0.7,
		MaxOutputTokens: 20000,
		TopP:            0.8,
		TopK:            40,
	}
}

// Result is the outcome of a successful generation call. TokensUsed is the
// approximate chars/4 estimate of the full exchange, not a provider-reported
// count; the flat-rate token economics are calibrated against it.
type Result struct {
	Content    string `json:"content"`
	TokensUsed int    `json:"tokens_used"`
	Model      string `json:"model"`
	Provider   string `json:"provider"`
	LatencyMs  int64  `json:"latency_ms"`
}
