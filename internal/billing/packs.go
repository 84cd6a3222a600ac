package billing

import "fmt"

// TokenPack is a fixed-price bundle of tokens purchasable via checkout.
type TokenPack struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Tokens     int    `json:"tokens"`
	PriceCents int64  `json:"price_cents"`
}

var packs = map[string]TokenPack{
	"SKEPTIC":         {ID: "SKEPTIC", Name: "Skeptic", Tokens: 500, PriceCents: 499},
	"PROMPT_KIDDO":    {ID: "PROMPT_KIDDO", Name: "Prompt Kiddo", Tokens: 2500, PriceCents: 999},
	"PROMPT_ENGINEER": {ID: "PROMPT_ENGINEER", Name: "Prompt Engineer", Tokens: 10000, PriceCents: 1999},
	"PROMPT_GOD":      {ID: "PROMPT_GOD", Name: "Prompt GOD", Tokens: 100000, PriceCents: 4999},
}

func Packs() []TokenPack {
	return []TokenPack{
		packs["SKEPTIC"],
		packs["PROMPT_KIDDO"],
		packs["PROMPT_ENGINEER"],
		packs["PROMPT_GOD"],
	}
}

func PackByID(id string) (TokenPack, error) {
	p, ok := packs[id]
	if !ok {
		return TokenPack{}, fmt.Errorf("unknown token pack %q", id)
	}
	return p, nil
}
