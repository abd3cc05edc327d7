// Package money holds the decimal helpers shared by cart, order and
// recommendation pricing.
package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// PercentInput is the outcome of parsing a user-supplied percentage.
type PercentInput struct {
	Value   decimal.Decimal
	Valid   bool // false when the raw input was empty or not a number
	Clamped bool // true when the parsed number fell outside [0,100]
}

// ParsePercent accepts "10", "12.5" and "12,5". Invalid input yields a zero
// Value with Valid=false; callers decide whether that is an error.
func ParsePercent(raw string) PercentInput {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, ",", "."))
	if raw == "" {
		return PercentInput{Value: decimal.Zero}
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return PercentInput{Value: decimal.Zero}
	}
	clamped := ClampPercent(d)
	return PercentInput{Value: clamped, Valid: true, Clamped: !clamped.Equal(d)}
}

// ClampPercent bounds p to [0,100].
func ClampPercent(p decimal.Decimal) decimal.Decimal {
	if p.IsNegative() {
		return decimal.Zero
	}
	if p.GreaterThan(hundred) {
		return hundred
	}
	return p
}

// ApplyDiscount returns price × (100 − pct)/100 rounded to the currency minor unit.
func ApplyDiscount(price, pct decimal.Decimal) decimal.Decimal {
	return price.Mul(hundred.Sub(pct)).Div(hundred).Round(2)
}

// Savings is the amount taken off price by pct.
func Savings(price, pct decimal.Decimal) decimal.Decimal {
	return price.Sub(ApplyDiscount(price, pct))
}
