// Package core holds the goal record, its partial-update type and the
// amount helpers shared by every layer.
//
// Amounts are shopspring decimals. Parsing accepts both dot (12.34) and
// comma (12,34) separators; formatting always renders dollars with two
// decimals and thousands separators.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ParseAmount converts user input to a decimal rounded half-up to cents.
//
// Empty input is zero. Negative values parse; rejecting them is the form's
// job via GoalFields.Validate.
//
//	ParseAmount("12,345") -> 12.35
//	ParseAmount(" 7 ")    -> 7
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d.Round(2), nil
}

// FormatAmount renders d as "$1,234.56" ("-$5.00" for negatives).
func FormatAmount(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}
	fixed := d.StringFixed(2)
	intPart, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + "$" + b.String() + "." + frac
}

// Progress returns balance as a percentage of target clamped to [0, 100].
// A zero or negative target yields 0.
func Progress(balance, target decimal.Decimal) float64 {
	if !target.IsPositive() {
		return 0
	}
	pct := balance.Div(target).Mul(hundred)
	switch {
	case pct.GreaterThan(hundred):
		return 100
	case pct.IsNegative():
		return 0
	}
	f, _ := pct.Float64()
	return f
}
