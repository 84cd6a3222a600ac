package billing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackByID(t *testing.T) {
	p, err := PackByID("SKEPTIC")
	require.NoError(t, err)
	assert.Equal(t, 500, p.Tokens)
	assert.Equal(t, int64(499), p.PriceCents)

	_, err = PackByID("NOPE")
	assert.Error(t, err)
}

func TestPacksOrderedByPrice(t *testing.T) {
	packs := Packs()
	require.Len(t, packs, 4)
	for i := 1; i < len(packs); i++ {
		assert.Greater(t, packs[i].PriceCents, packs[i-1].PriceCents)
	}
}
