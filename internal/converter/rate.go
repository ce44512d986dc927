package converter

import (
	"fmt"

	"github.com/mtlprog/coinconv/internal/domain"
)

// Rate is the unit exchange-rate panel shown under the form: Unit is
// "1 SRC = X DST" with X at fixed 8 decimals, USD the price line of the priced
// side and Value is X itself.
type Rate struct {
	Unit  string  `json:"unit"`
	USD   string  `json:"usd"`
	Value float64 `json:"-"`
}

// ExchangeRate computes the rate panel for s. In asset mode both selections are
// required; in fiat mode only the target. ok is false when the panel is hidden.
func ExchangeRate(s State, fiatRates map[string]float64) (Rate, bool) {
	switch s.Mode {
	case domain.ModeFiatToAsset:
		rate, known := fiatRates[s.Fiat]
		if s.Target == nil || !known {
			return Rate{}, false
		}
		v := rate / s.Target.PriceUSD
		return Rate{
			Unit:  fmt.Sprintf("1 %s = %s %s", s.Fiat, domain.FormatAmount(v), s.Target.Ticker()),
			USD:   fmt.Sprintf("1 %s = %s USD", s.Target.Ticker(), domain.FormatUSD(s.Target.PriceUSD)),
			Value: v,
		}, true
	default:
		if s.Source == nil || s.Target == nil {
			return Rate{}, false
		}
		v := s.Source.PriceUSD / s.Target.PriceUSD
		return Rate{
			Unit:  fmt.Sprintf("1 %s = %s %s", s.Source.Ticker(), domain.FormatAmount(v), s.Target.Ticker()),
			USD:   fmt.Sprintf("1 %s = %s USD", s.Source.Ticker(), domain.FormatUSD(s.Source.PriceUSD)),
			Value: v,
		}, true
	}
}

// Summary is the "Conversion complete" description for s, or false when the
// selections the mode needs are missing.
func Summary(s State) (string, bool) {
	switch s.Mode {
	case domain.ModeFiatToAsset:
		if s.Target == nil {
			return "", false
		}
		return fmt.Sprintf("%s %s = %s %s", s.SourceAmount, s.Fiat, s.TargetAmount, s.Target.Ticker()), true
	default:
		if s.Source == nil || s.Target == nil {
			return "", false
		}
		return fmt.Sprintf("%s %s = %s %s", s.SourceAmount, s.Source.Ticker(), s.TargetAmount, s.Target.Ticker()), true
	}
}
