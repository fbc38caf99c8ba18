package utils

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatMoney keeps consistent decimal formatting for currency fields.
func FormatMoney(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}

// FormatCurrency renders an amount with thousand separators, e.g. "INR 1,300.00".
// Cents round half away from zero.
func FormatCurrency(currency string, amount decimal.Decimal) string {
	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Neg()
	}
	whole, cents, _ := strings.Cut(amount.StringFixed(2), ".")
	out := sign + formatThousand(whole) + "." + cents
	if c := strings.ToUpper(strings.TrimSpace(currency)); c != "" {
		return c + " " + out
	}
	return out
}

func formatThousand(digits string) string {
	var out strings.Builder
	for i, c := range digits {
		if i != 0 && (len(digits)-i)%3 == 0 {
			out.WriteByte(',')
		}
		out.WriteRune(c)
	}
	return out.String()
}
