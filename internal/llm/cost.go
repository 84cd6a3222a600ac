package llm

// costPerThousand stores approximate USD pricing per 1K tokens for known
// models. Used for usage analytics only; user-facing billing is the flat
// token rate per operation.
var costPerThousand = map[string]float64{
	// Google
	"gemini-2.5-flash":     0.0007,
	"gemini-2.0-flash-exp": 0.0015,
	"gemini-1.5-pro":       0.0035,
	"gemini-1.5-flash":     0.0007,

	// OpenAI
	"gpt-4":         0.045,
	"gpt-4-turbo":   0.02,
	"gpt-4o":        0.01,
	"gpt-4o-mini":   0.000375,
	"gpt-3.5-turbo": 0.001,

	// Anthropic
	"claude-3-haiku-20240307":  0.00075,
	"claude-sonnet-4-20250514": 0.009,
	"claude-opus-4-20250514":   0.045,
}

const defaultCostPerThousand = 0.002

// CalculateCost converts an estimated token count into an approximate USD
// cost for the given model.
func CalculateCost(model string, tokensUsed int) float64 {
	price, ok := costPerThousand[model]
	if !ok {
		price = defaultCostPerThousand
	}
	return float64(tokensUsed) / 1000.0 * price
}
