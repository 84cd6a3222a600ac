package tokenizer

// Estimate approximates the token count of text as ceil(len/4), roughly four
// characters per token for English. This is a deliberately cheap proxy, not a
// real tokenizer: the flat-rate billing throughout the system is calibrated
// against this estimate, so it must stay consistent rather than exact.
func Estimate(text string) int {
	if text == "" {
		return 0
	}
	return (len(text) + 3) / 4
}

// EstimateExchange estimates the combined token count of a prompt and the
// response it produced, matching how usage is metered per generation call.
func EstimateExchange(prompt, response string) int {
	return Estimate(prompt + response)
}
