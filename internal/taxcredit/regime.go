package taxcredit

import (
	"errors"
	"fmt"
	"strings"
)

// Regime identifies the PIS/COFINS tax regime of the purchasing company.
type Regime int

const (
	// Cumulative ("Lucro Presumido") does not allow credits on purchases.
	Cumulative Regime = iota
	// NonCumulative ("Lucro Real") allows PIS/COFINS paid on inputs to be credited.
	NonCumulative
)

const (
	codeCumulative    = "cumulative"
	codeNonCumulative = "non_cumulative"

	// LabelNonCumulative is the selector label shown for NonCumulative.
	LabelNonCumulative = "Não Cumulativo (Lucro Real)"
	// LabelCumulative is the selector label shown for Cumulative.
	LabelCumulative = "Cumulativo (Lucro Presumido)"
)

// ErrUnknownRegime is returned when a regime label or code is not recognised.
var ErrUnknownRegime = errors.New("unknown tax regime")

// Regimes returns every regime in display order.
func Regimes() []Regime {
	return []Regime{NonCumulative, Cumulative}
}

// String returns the machine code of the regime.
func (r Regime) String() string {
	if r == NonCumulative {
		return codeNonCumulative
	}
	return codeCumulative
}

// Label returns the human readable selector label.
func (r Regime) Label() string {
	if r == NonCumulative {
		return LabelNonCumulative
	}
	return LabelCumulative
}

// Rate returns the combined credit rate applied under the regime.
func (r Regime) Rate() float64 {
	if r == NonCumulative {
		return CombinedRate
	}
	return 0
}

// MarshalText encodes the regime as its code.
func (r Regime) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText decodes a regime code or label.
func (r *Regime) UnmarshalText(text []byte) error {
	parsed, err := ParseRegime(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// ParseRegime resolves a code or selector label into a Regime.
// Matching ignores case and surrounding whitespace.
func ParseRegime(value string) (Regime, error) {
	trimmed := strings.TrimSpace(value)
	switch {
	case strings.EqualFold(trimmed, codeNonCumulative), strings.EqualFold(trimmed, LabelNonCumulative):
		return NonCumulative, nil
	case strings.EqualFold(trimmed, codeCumulative), strings.EqualFold(trimmed, LabelCumulative):
		return Cumulative, nil
	}
	return Cumulative, fmt.Errorf("%w: %q", ErrUnknownRegime, value)
}

// ParseRegimeLenient behaves like ParseRegime but treats any unrecognised
// value, including the empty string, as Cumulative.
func ParseRegimeLenient(value string) Regime {
	r, err := ParseRegime(value)
	if err != nil {
		return Cumulative
	}
	return r
}
