package tokenizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimate(t *testing.T) {
	assert.Equal(t, 0, Estimate(""))
	assert.Equal(t, 1, Estimate("a"))
	assert.Equal(t, 1, Estimate("abcd"))
	assert.Equal(t, 2, Estimate("abcde"))
	assert.Equal(t, 25, Estimate(strings.Repeat("x", 100)))
	assert.Equal(t, 26, Estimate(strings.Repeat("x", 101)))
}

func TestEstimateExchange(t *testing.T) {
	prompt := strings.Repeat("p", 10)
	response := strings.Repeat("r", 6)
	assert.Equal(t, 4, EstimateExchange(prompt, response))
}
