package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestParsePercent(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		valid   bool
		clamped bool
	}{
		{"10", "10", true, false},
		{"12,5", "12.5", true, false},
		{" 7.25 ", "7.25", true, false},
		{"150", "100", true, true},
		{"-3", "0", true, true},
		{"", "0", false, false},
		{"abc", "0", false, false},
		{"1,2,3", "0", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got := ParsePercent(tt.raw)
			assert.True(t, got.Value.Equal(d(tt.want)), "value %s", got.Value)
			assert.Equal(t, tt.valid, got.Valid)
			assert.Equal(t, tt.clamped, got.Clamped)
		})
	}
}

func TestApplyDiscount(t *testing.T) {
	assert.True(t, ApplyDiscount(d("500"), d("10")).Equal(d("450")))
	assert.True(t, ApplyDiscount(d("1000"), d("0")).Equal(d("1000")))
	assert.True(t, ApplyDiscount(d("99.99"), d("15")).Equal(d("84.99")))
	assert.True(t, ApplyDiscount(d("250"), d("100")).IsZero())
	assert.True(t, Savings(d("500"), d("10")).Equal(d("50")))
}
