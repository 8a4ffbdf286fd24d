package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidAmount is returned when an amount cannot be parsed.
var ErrInvalidAmount = errors.New("invalid amount")

// ParseAmount accepts "1.234,56", "1234,56", "R$ 1.234,56", "1.000" and
// "1234.56". Periods are thousands separators whenever they split the
// integer part into groups of three, as in the values the page displays;
// otherwise a single period is the decimal separator.
func ParseAmount(value string) (float64, error) {
	s := strings.TrimSpace(value)
	s = strings.TrimSpace(strings.TrimPrefix(s, "R$"))
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}

	intPart, frac, hasComma := strings.Cut(s, ",")
	switch {
	case hasComma:
		if strings.Contains(intPart, ".") && !groupedThousands(intPart) {
			return 0, fmt.Errorf("%w: misplaced thousands separator in %q", ErrInvalidAmount, value)
		}
		s = strings.ReplaceAll(intPart, ".", "") + "." + frac
	case groupedThousands(s):
		s = strings.ReplaceAll(s, ".", "")
	case strings.Count(s, ".") > 1:
		return 0, fmt.Errorf("%w: misplaced thousands separator in %q", ErrInvalidAmount, value)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, value)
	}
	return d.InexactFloat64(), nil
}

// groupedThousands reports whether s looks like "1.234" or "-12.345.678":
// a leading group of one to three digits not starting with zero, followed
// by at least one period and three-digit group.
func groupedThousands(s string) bool {
	groups := strings.Split(strings.TrimPrefix(s, "-"), ".")
	if len(groups) < 2 {
		return false
	}
	lead := groups[0]
	if len(lead) == 0 || len(lead) > 3 || lead[0] == '0' || !allDigits(lead) {
		return false
	}
	for _, g := range groups[1:] {
		if len(g) != 3 || !allDigits(g) {
			return false
		}
	}
	return true
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
