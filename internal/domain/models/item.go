package models

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// Named price fields used by ticket orders.
const (
	FieldAdult          = "adultprice"
	FieldChild          = "childprice"
	FieldAdvance        = "advanceprice"
	FieldWeekendAdult   = "weekendadultprice"
	FieldWeekendChild   = "weekendchildprice"
	FieldWeekendAdvance = "weekendadvanceprice"
)

// PriceFields maps a price field name to its amount.
type PriceFields map[string]decimal.Decimal

// BookableItem is a purchasable unit with base prices and sparse
// per-date overrides keyed by YYYY-MM-DD.
type BookableItem struct {
	ID            string
	Name          string
	Prices        PriceFields
	SpecialPrices map[string]PriceFields
}

// Price returns the base value of a field and whether it is set.
func (it *BookableItem) Price(field string) (decimal.Decimal, bool) {
	if it == nil || it.Prices == nil {
		return decimal.Zero, false
	}
	v, ok := it.Prices[field]
	return v, ok
}

// Override returns the override for a normalized date, if any.
func (it *BookableItem) Override(date string) (PriceFields, bool) {
	if it == nil || it.SpecialPrices == nil {
		return nil, false
	}
	o, ok := it.SpecialPrices[date]
	return o, ok
}

// UnmarshalJSON reads the backend's flat item shape: top-level keys ending
// in "price" are price fields and overrides live under "specialPrices".
// Amounts that are negative or not plain decimals are dropped.
func (it *BookableItem) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	out := BookableItem{Prices: PriceFields{}, SpecialPrices: map[string]PriceFields{}}
	for k, v := range raw {
		switch k {
		case "_id", "id":
			out.ID = readID(v)
		case "name", "title":
			if out.Name == "" {
				_ = json.Unmarshal(v, &out.Name)
			}
		case "specialPrices", "special_prices":
			var byDate map[string]map[string]json.RawMessage
			if err := json.Unmarshal(v, &byDate); err != nil {
				continue
			}
			for date, fields := range byDate {
				pf := PriceFields{}
				for name, amount := range fields {
					if n, ok := readAmount(amount); ok {
						pf[name] = n
					}
				}
				out.SpecialPrices[date] = pf
			}
		default:
			if !IsPriceField(k) {
				continue
			}
			if n, ok := readAmount(v); ok {
				out.Prices[k] = n
			}
		}
	}
	*it = out
	return nil
}

// MarshalJSON writes the same flat shape UnmarshalJSON accepts.
func (it BookableItem) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(it.Prices)+3)
	for k, v := range it.Prices {
		m[k] = v
	}
	m["_id"] = it.ID
	m["name"] = it.Name
	sp := it.SpecialPrices
	if sp == nil {
		sp = map[string]PriceFields{}
	}
	m["specialPrices"] = sp
	return json.Marshal(m)
}

func readID(v json.RawMessage) string {
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(string(bytes.Trim(v, `"`)))
}

// IsPriceField reports whether a top-level item key names a price.
func IsPriceField(name string) bool {
	return strings.HasSuffix(strings.ToLower(strings.TrimSpace(name)), "price")
}

// readAmount accepts JSON numbers and numeric strings.
func readAmount(v json.RawMessage) (decimal.Decimal, bool) {
	s := strings.TrimSpace(string(v))
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(v, &str); err != nil {
			return decimal.Zero, false
		}
		s = strings.TrimSpace(str)
	}
	if s == "" || s == "null" {
		return decimal.Zero, false
	}
	n, err := decimal.NewFromString(s)
	if err != nil || n.IsNegative() {
		return decimal.Zero, false
	}
	return n, true
}

// TicketOrder is a multi-ticket order for one item on one date.
type TicketOrder struct {
	Item         *BookableItem
	AdultCount   int
	ChildCount   int
	Date         string
	IsSpecialDay bool
}

// OrderTotals is the aggregate of a TicketOrder.
type OrderTotals struct {
	GrandTotal   decimal.Decimal `json:"grandTotal"`
	AdvanceTotal decimal.Decimal `json:"advanceTotal"`
}
