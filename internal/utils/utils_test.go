package utils

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"2024-12-25", "2024-12-25", true},
		{" 2024-12-25 ", "2024-12-25", true},
		{"2024-12-25T10:30:00Z", "2024-12-25", true},
		{"2024-12-25T23:30:00+05:30", "2024-12-25", true},
		{"2024-12-25 08:00:00", "2024-12-25", true},
		{"", "", false},
		{"25-12-2024", "", false},
		{"2024-13-01", "", false},
		{"2024-12-25x", "", false},
	}

	for _, tt := range tests {
		got, ok := NormalizeDate(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestFormatCurrency(t *testing.T) {
	tests := []struct {
		currency string
		amount   string
		want     string
	}{
		{"inr", "1300", "INR 1,300.00"},
		{"", "0.5", "0.50"},
		{"INR", "1234567.89", "INR 1,234,567.89"},
		{"", "-12", "-12.00"},
		{"INR", "1.005", "INR 1.01"},
		{"INR", "2.675", "INR 2.68"},
		{"", "999.995", "1,000.00"},
		{"", "0", "0.00"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatCurrency(tt.currency, decimal.RequireFromString(tt.amount)), tt.amount)
	}
	assert.Equal(t, "60.27", FormatMoney(decimal.RequireFromString("60.270")))
}

func TestNormalizeField(t *testing.T) {
	assert.Equal(t, "adultprice", NormalizeField(" Adult Price "))
	assert.Equal(t, "weekendchildprice", NormalizeField("weekendChildPrice"))
}
