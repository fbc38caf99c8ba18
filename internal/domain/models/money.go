package models

import "github.com/shopspring/decimal"

func init() {
	// Amounts travel as JSON numbers, the way the booking backend sends them.
	decimal.MarshalJSONWithoutQuotes = true
}
