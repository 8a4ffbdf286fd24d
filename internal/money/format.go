// Package money renders and parses amounts using the Brazilian convention:
// period for thousands and comma for decimals.
package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// FormatNumber renders v with two decimals, e.g. 1234.5 as "1.234,50".
// Halves are rounded away from zero.
func FormatNumber(v float64) string {
	fixed := decimal.NewFromFloat(v).Round(2).StringFixed(2)
	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign = "-"
		fixed = fixed[1:]
	}
	intPart, frac, _ := strings.Cut(fixed, ".")
	return sign + groupThousands(intPart) + "," + frac
}

// FormatBRL renders v as a Real amount, e.g. "R$ 1.234,56".
func FormatBRL(v float64) string {
	return "R$ " + FormatNumber(v)
}

// FormatPlain renders v with two decimals and no grouping, e.g. "16.50".
func FormatPlain(v float64) string {
	return decimal.NewFromFloat(v).Round(2).StringFixed(2)
}

// FormatPercent renders a fractional rate as a percentage with two decimals,
// e.g. 0.0925 as "9.25%".
func FormatPercent(rate float64) string {
	return decimal.NewFromFloat(rate).Mul(hundred).Round(2).StringFixed(2) + "%"
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
