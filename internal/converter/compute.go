package converter

import (
	"github.com/mtlprog/coinconv/internal/domain"
)

// State is everything the converter form shows. TargetAmount is derived:
// it is only written by Compute results (and exchanged by Swap).
type State struct {
	Mode         domain.Mode   `json:"mode"`
	SourceAmount string        `json:"sourceAmount"`
	Source       *domain.Asset `json:"source"`
	Target       *domain.Asset `json:"target"`
	Fiat         string        `json:"fiat"`
	TargetAmount string        `json:"targetAmount"`
}

// InitialState is the form before any asset list has arrived.
func InitialState() State {
	return State{
		Mode:         domain.ModeAssetToAsset,
		SourceAmount: "1",
		Fiat:         domain.DefaultFiat,
		TargetAmount: "0",
	}
}

// Compute derives the target amount for s. The boolean is false when there is
// nothing to compute: a missing selection, an unknown fiat code or an amount that
// does not parse. Callers keep their previous result in that case.
// A zero target price is not guarded and yields "Infinity" or "NaN".
func Compute(s State, fiatRates map[string]float64) (string, bool) {
	value, ok := computeValue(s, fiatRates)
	if !ok {
		return "", false
	}
	return domain.FormatAmount(value), true
}

func computeValue(s State, fiatRates map[string]float64) (float64, bool) {
	if s.Target == nil {
		return 0, false
	}
	amount, ok := domain.ParseAmount(s.SourceAmount)
	if !ok {
		return 0, false
	}

	switch s.Mode {
	case domain.ModeFiatToAsset:
		rate, ok := fiatRates[s.Fiat]
		if !ok {
			return 0, false
		}
		return amount * rate / s.Target.PriceUSD, true
	default:
		if s.Source == nil {
			return 0, false
		}
		return amount * s.Source.PriceUSD / s.Target.PriceUSD, true
	}
}
