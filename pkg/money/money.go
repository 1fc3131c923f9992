// Package money renders monetary amounts for display. Amounts are kept
// at full precision everywhere else and rounded to cents only here.
package money

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

const cents = 2

// Format renders amount as symbol-prefixed text with comma thousands
// separators and two decimals, e.g. "Q1,299.99".
func Format(amount float64, symbol string) string {
	if !finite(amount) {
		return symbol + strconv.FormatFloat(amount, 'f', cents, 64)
	}

	d := decimal.NewFromFloat(amount).Round(cents)
	neg := d.Sign() < 0

	whole, frac, _ := strings.Cut(d.Abs().StringFixed(cents), ".")

	var b strings.Builder
	b.Grow(len(whole) + len(whole)/3 + len(symbol) + 4)
	if neg {
		b.WriteByte('-')
	}
	b.WriteString(symbol)

	rem := len(whole) % 3
	if rem == 0 {
		rem = 3
	}
	b.WriteString(whole[:rem])
	for i := rem; i < len(whole); i += 3 {
		b.WriteByte(',')
		b.WriteString(whole[i : i+3])
	}

	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}

// Round returns amount rounded half away from zero to cents.
func Round(amount float64) float64 {
	if !finite(amount) {
		return amount
	}
	return decimal.NewFromFloat(amount).Round(cents).InexactFloat64()
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
