package domain

import (
	"strings"

	"github.com/samber/lo"
)

// FiatCurrency is a government currency with a fixed rate relative to USD.
// RateToUSD is the number of units of this currency per one US dollar.
type FiatCurrency struct {
	Code      string  `json:"code"`
	Symbol    string  `json:"symbol"`
	RateToUSD float64 `json:"rate"`
}

// DefaultFiat is the fiat code selected before the user picks one.
const DefaultFiat = "USD"

// fiatCurrencies is unexported to prevent external mutation. Rates are static, not live.
var fiatCurrencies = []FiatCurrency{
	{Code: "USD", Symbol: "$", RateToUSD: 1},
	{Code: "EUR", Symbol: "€", RateToUSD: 0.92},
	{Code: "GBP", Symbol: "£", RateToUSD: 0.79},
	{Code: "JPY", Symbol: "¥", RateToUSD: 149.5},
	{Code: "INR", Symbol: "₹", RateToUSD: 84.2},
	{Code: "AUD", Symbol: "A$", RateToUSD: 1.52},
	{Code: "CAD", Symbol: "C$", RateToUSD: 1.36},
}

// FiatCurrencies returns a copy of the supported fiat table in display order.
func FiatCurrencies() []FiatCurrency {
	out := make([]FiatCurrency, len(fiatCurrencies))
	copy(out, fiatCurrencies)
	return out
}

// LookupFiat finds a fiat currency by code, ignoring case.
func LookupFiat(code string) (FiatCurrency, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	return lo.Find(fiatCurrencies, func(c FiatCurrency) bool { return c.Code == code })
}

// FiatRates returns code -> rate for every supported fiat currency.
func FiatRates() map[string]float64 {
	return lo.SliceToMap(fiatCurrencies, func(c FiatCurrency) (string, float64) {
		return c.Code, c.RateToUSD
	})
}
