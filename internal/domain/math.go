package domain

import (
	"math"
	"strconv"
	"strings"

	"github.com/leekchan/accounting"
)

// AmountPrecision is the number of decimal places every converted amount is shown with.
const AmountPrecision = 8

const usdDisplayPrecision = 3

// ParseAmount parses a user-entered amount. Empty, non-numeric and non-finite input is rejected.
func ParseAmount(value string) (float64, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// FormatAmount renders v with exactly AmountPrecision decimals, rounding the exact binary value.
// Non-finite values (a zero target price) are rendered as Infinity, -Infinity or NaN.
func FormatAmount(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	}
	return strconv.FormatFloat(v, 'f', AmountPrecision, 64)
}

// FormatUSD renders a USD price with thousands separators and up to three
// fraction digits, trailing zeros stripped: 64000 -> "$64,000", 0.12345 -> "$0.123".
func FormatUSD(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "$" + FormatAmount(v)
	}
	ac := accounting.Accounting{Symbol: "$", Precision: usdDisplayPrecision}
	s := ac.FormatMoneyFloat64(v)
	if !strings.Contains(s, ".") {
		return s
	}
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	return s
}
