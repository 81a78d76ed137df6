package catalog

import (
	"math"
	"unicode/utf8"
)

// Book is the local shape every fetcher produces. It is rebuilt fresh on
// each fetch; nothing caches it.
type Book struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Author      string  `json:"author"`
	Description string  `json:"description,omitempty"`
	CoverURL    string  `json:"coverUrl"`
	Price       float64 `json:"price"`
}

// Price pairs per call site. The catalog APIs carry no prices, so the
// storefront derives a synthetic one from the title length; each page uses
// its own base/range so the derivation stays reproducible per surface.
const (
	shopPriceBase, shopPriceMod     = 20, 30
	detailPriceBase, detailPriceMod = 15, 20
	heroPriceBase, heroPriceMod     = 15, 10
	searchPriceBase, searchPriceMod = 25, 15
)

// Price derives the display price from the title: base + len(title) mod m,
// rounded to two decimals. Deterministic for a fixed title and pair.
func Price(title string, base, mod int) float64 {
	v := float64(base + utf8.RuneCountInString(title)%mod)
	return math.Round(v*100) / 100
}
