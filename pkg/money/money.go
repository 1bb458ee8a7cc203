package money

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Cents is an amount of money in minor units. All ledger arithmetic is done
// on Cents; decimal is only used at the edges (parsing, formatting, percentages).
type Cents int64

// Zero is the zero amount.
const Zero Cents = 0

var (
	ErrInvalidAmount = errors.New("invalid money amount")
	ErrOverflow      = fmt.Errorf("%w: out of range", ErrInvalidAmount)

	hundred  = decimal.NewFromInt(100)
	minCents = decimal.NewFromInt(math.MinInt64)
	maxCents = decimal.NewFromInt(math.MaxInt64)
)

// FromDecimal converts a decimal major-unit amount (e.g. 12.345) to Cents,
// rounding half away from zero to the nearest minor unit. Amounts that do
// not fit in Cents return ErrOverflow.
func FromDecimal(d decimal.Decimal) (Cents, error) {
	minor := d.Shift(2).Round(0)
	if minor.LessThan(minCents) || minor.GreaterThan(maxCents) {
		return 0, fmt.Errorf("%w: %s", ErrOverflow, d.String())
	}
	return Cents(minor.IntPart()), nil
}

// Parse parses a major-unit string such as "12.50" or "-3".
func Parse(s string) (Cents, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty string", ErrInvalidAmount)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrInvalidAmount, s, err)
	}
	return FromDecimal(d)
}

// MustParse is Parse for constants and tests.
func MustParse(s string) Cents {
	c, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Decimal returns the amount in major units.
func (c Cents) Decimal() decimal.Decimal {
	return decimal.New(int64(c), -2)
}

// String formats with exactly two decimals, e.g. "12.50".
func (c Cents) String() string {
	return c.Decimal().StringFixed(2)
}

// Mul multiplies by an integer quantity.
func (c Cents) Mul(quantity int) (Cents, error) {
	if c == 0 || quantity == 0 {
		return 0, nil
	}
	q := Cents(quantity)
	product := c * q
	if product/q != c || (c == -1 && q == math.MinInt64) || (q == -1 && c == math.MinInt64) {
		return 0, fmt.Errorf("%w: %s x %d", ErrOverflow, c, quantity)
	}
	return product, nil
}

// Add returns c + o.
func (c Cents) Add(o Cents) (Cents, error) {
	sum := c + o
	if (o > 0 && sum < c) || (o < 0 && sum > c) {
		return 0, fmt.Errorf("%w: %s + %s", ErrOverflow, c, o)
	}
	return sum, nil
}

// ApplyDiscount returns c × (1 − percent/100) rounded half-up to the minor
// unit. Percent is clamped to [0, 100].
func (c Cents) ApplyDiscount(percent int) Cents {
	if percent <= 0 {
		return c
	}
	if percent >= 100 {
		return 0
	}
	factor := hundred.Sub(decimal.NewFromInt(int64(percent))).Div(hundred)
	return Cents(decimal.NewFromInt(int64(c)).Mul(factor).Round(0).IntPart())
}

// IsPositive reports c > 0.
func (c Cents) IsPositive() bool { return c > 0 }

// IsNegative reports c < 0.
func (c Cents) IsNegative() bool { return c < 0 }

// MarshalJSON renders the amount as a JSON number in major units.
func (c Cents) MarshalJSON() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalJSON accepts a JSON number or a numeric string in major units.
func (c *Cents) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*c = 0
		return nil
	}
	parsed, err := Parse(strings.Trim(string(data), `"`))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
