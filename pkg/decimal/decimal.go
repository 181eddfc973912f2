package decimal

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrEmpty is returned when an amount string carries no digits.
var ErrEmpty = errors.New("empty amount")

// Zero is the additive identity with scale 0.
var Zero = decimal.Zero

// Parse creates an exact decimal from a string, keeping the scale written
// in the input ("1.50" has scale 2).
func Parse(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Decimal{}, ErrEmpty
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return d, nil
}

// MustParse is Parse for literals known to be valid. It panics otherwise.
func MustParse(s string) decimal.Decimal {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Scale returns the number of digits after the decimal point.
func Scale(d decimal.Decimal) int32 {
	if exp := d.Exponent(); exp < 0 {
		return -exp
	}
	return 0
}

// Format renders d with exactly the scale its arithmetic produced. Trailing
// zeros are kept: 300.3456 - 300.3456 prints as "0.0000".
func Format(d decimal.Decimal) string {
	if scale := Scale(d); scale > 0 {
		return d.StringFixed(scale)
	}
	return d.String()
}

// Equal compares by value, ignoring scale.
func Equal(a, b decimal.Decimal) bool {
	return a.Equal(b)
}
