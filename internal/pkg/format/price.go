// Package format renders prices and deltas for table and chart labels.
package format

import (
	"github.com/shopspring/decimal"
)

// Price renders a close price for display. Prices at or above one
// dollar get two decimals; sub-dollar prices keep six so small caps
// don't collapse to 0.00. Trailing zeros are trimmed.
func Price(v float64) string {
	d := decimal.NewFromFloat(v)
	places := int32(2)
	if d.Abs().LessThan(decimal.NewFromInt(1)) {
		places = 6
	}
	return d.Round(places).String()
}

// Change renders a signed absolute delta with two decimals, prefixing
// gains with a plus.
func Change(v float64) string {
	return signed(v, "")
}

// Percent renders a signed percentage with two decimals.
func Percent(v float64) string {
	return signed(v, "%")
}

func signed(v float64, suffix string) string {
	d := decimal.NewFromFloat(v).Round(2)
	out := d.StringFixed(2) + suffix
	if d.IsPositive() {
		out = "+" + out
	}
	return out
}
