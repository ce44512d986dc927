package domain

import (
	"strings"

	"github.com/samber/lo"
)

// Asset is a cryptocurrency entry with its current USD price.
// Values are immutable once fetched; a fresh fetch replaces the whole list.
type Asset struct {
	ID       string  `json:"id"`
	Symbol   string  `json:"symbol"`
	Name     string  `json:"name"`
	Image    string  `json:"image"`
	PriceUSD float64 `json:"currentPrice"`
}

// Ticker returns the upper-cased symbol used for display.
func (a Asset) Ticker() string {
	return strings.ToUpper(a.Symbol)
}

// Matches reports whether query is a case-insensitive substring of the asset name or symbol.
// An empty query matches every asset.
func (a Asset) Matches(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(a.Name), q) ||
		strings.Contains(strings.ToLower(a.Symbol), q)
}

// FilterAssets returns the assets matching query, preserving order.
func FilterAssets(assets []Asset, query string) []Asset {
	return lo.Filter(assets, func(a Asset, _ int) bool { return a.Matches(query) })
}

// FindAsset looks an asset up by its source id.
func FindAsset(assets []Asset, id string) (Asset, bool) {
	return lo.Find(assets, func(a Asset) bool { return a.ID == id })
}

// Mode selects what the "from" side of a conversion is.
type Mode string

const (
	ModeAssetToAsset Mode = "asset-to-asset"
	ModeFiatToAsset  Mode = "fiat-to-asset"
)

// ParseMode accepts the canonical names plus the short forms "asset" and "fiat".
func ParseMode(s string) (Mode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "asset", string(ModeAssetToAsset), "crypto", "crypto-to-crypto":
		return ModeAssetToAsset, true
	case "fiat", string(ModeFiatToAsset), "currency", "currency-to-crypto":
		return ModeFiatToAsset, true
	}
	return "", false
}

// Toggle returns the other mode.
func (m Mode) Toggle() Mode {
	if m == ModeFiatToAsset {
		return ModeAssetToAsset
	}
	return ModeFiatToAsset
}
