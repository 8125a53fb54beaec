// Package core provides money parsing and handling utilities.
//
// Amounts are held as integer cents. The display format uses "." as the
// thousands separator and "," as the decimal separator ("1.234,56").
package core

import (
	"bytes"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	hundred  = decimal.NewFromInt(100)
	maxCents = decimal.NewFromInt(math.MaxInt64)
	minCents = decimal.NewFromInt(math.MinInt64)
)

// centsOf rounds d to whole cents. It reports false when the result does not
// fit in int64.
func centsOf(d decimal.Decimal) (Money, bool) {
	// Integer digits of d. Beyond 17 the cents cannot fit.
	mag := d.NumDigits() + int(d.Exponent())
	switch {
	case d.IsZero() || mag < -3:
		return Money{}, true
	case mag > 17:
		return Money{}, false
	}
	cents := d.Mul(hundred).Round(0)
	if cents.GreaterThan(maxCents) || cents.LessThan(minCents) {
		return Money{}, false
	}
	return Money{Cents: cents.IntPart()}, true
}

// Decimal returns the amount as an exact decimal with two fractional digits.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// Float returns the amount as a float64 for display and JSON purposes.
// Use cents for calculations.
func (m Money) Float() float64 {
	return m.Decimal().InexactFloat64()
}

func (m Money) Add(o Money) Money { return Money{Cents: m.Cents + o.Cents} }

func (m Money) Mul(n int64) Money { return Money{Cents: m.Cents * n} }

func (m Money) IsZero() bool { return m.Cents == 0 }

// Format renders the amount in display format, e.g. 1234.56 -> "1.234,56".
func (m Money) Format() string {
	return formatDecimal(m.Decimal())
}

func (m Money) String() string { return m.Format() }

// FormatAmount renders v in display format with two decimals. NaN and
// infinities render as zero.
func FormatAmount(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return formatDecimal(decimal.Zero)
	}
	return formatDecimal(decimal.NewFromFloat(v).Round(2))
}

// ParseAmount parses a display-format amount. It never fails: text that
// cannot be read as an amount yields 0.
//
// A leading "$" and surrounding blanks are ignored, every "." is treated as
// a thousands separator and "," as the decimal separator.
func ParseAmount(s string) float64 {
	d, ok := parseDisplay(s)
	if !ok {
		return 0
	}
	v := d.InexactFloat64()
	if math.IsInf(v, 0) {
		return 0
	}
	return v
}

// ParseMoney is ParseAmount rounded to cents. Amounts too large for cents
// yield zero.
func ParseMoney(s string) Money {
	d, ok := parseDisplay(s)
	if !ok {
		return Money{}
	}
	m, _ := centsOf(d)
	return m
}

func parseDisplay(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")
	if !isPlainNumber(s) {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// isPlainNumber reports whether s is an optional sign followed by digits with
// at most one decimal point.
func isPlainNumber(s string) bool {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "-"), "+")
	digits, points := 0, 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '.':
			points++
		default:
			return false
		}
	}
	return digits > 0 && points <= 1
}

func formatDecimal(d decimal.Decimal) string {
	fixed := d.StringFixed(2)
	neg := strings.HasPrefix(fixed, "-")
	fixed = strings.TrimPrefix(fixed, "-")

	intPart, fracPart, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	if neg && strings.Trim(intPart+fracPart, "0") != "" {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	b.WriteByte(',')
	b.WriteString(fracPart)
	return b.String()
}

// MarshalJSON encodes the amount as a plain number with two decimals.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal().StringFixed(2)), nil
}

// UnmarshalJSON accepts either a JSON number (1234.56) or a display-format
// string ("1.234,56").
func (m *Money) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*m = Money{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		*m = ParseMoney(strings.Trim(string(data), `"`))
		return nil
	}
	d, err := decimal.NewFromString(string(data))
	if err != nil {
		return Invalid("amount", ErrInvalidAmount)
	}
	cents, ok := centsOf(d)
	if !ok {
		return Invalid("amount", ErrInvalidAmount)
	}
	*m = cents
	return nil
}

// Split divides amount between A and B according to ratio. Each share is
// truncated to whole cents and the leftover cents go to the larger share
// (A on a tie), so the two shares always add up to amount.
func Split(amount Money, ratio SplitRatio) (Money, Money) {
	ratio = ratio.Normalized()
	total := decimal.NewFromFloat(ratio.A).Add(decimal.NewFromFloat(ratio.B))
	cents := decimal.NewFromInt(amount.Cents)

	a := cents.Mul(decimal.NewFromFloat(ratio.A)).Div(total).Truncate(0).IntPart()
	b := cents.Mul(decimal.NewFromFloat(ratio.B)).Div(total).Truncate(0).IntPart()

	rest := amount.Cents - a - b
	if ratio.B > ratio.A {
		b += rest
	} else {
		a += rest
	}
	return Money{Cents: a}, Money{Cents: b}
}
