// Package pricing resolves the effective price of a bookable item on a
// calendar date and aggregates ticket order totals. Nothing here does I/O
// and nothing returns an error: missing data resolves to zero.
package pricing

import (
	"sort"
	"strings"
	"time"

	"storefront/internal/domain/models"
	"storefront/internal/utils"

	"github.com/shopspring/decimal"
)

// WeekendPolicy decides when a weekend price field replaces the ordinary one
// on a special day.
type WeekendPolicy int

const (
	// WeekendNonZero uses the weekend value only when it resolves to a
	// non-zero amount. A free weekend price is indistinguishable from unset.
	WeekendNonZero WeekendPolicy = iota
	// WeekendWhenSet uses the weekend value whenever the field is defined in
	// the base prices or in the date override, including an explicit 0.
	WeekendWhenSet
)

// ParseWeekendPolicy maps a config value to a policy; unknown values fall
// back to WeekendNonZero.
func ParseWeekendPolicy(s string) WeekendPolicy {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "when_set", "when-set", "whenset", "presence":
		return WeekendWhenSet
	default:
		return WeekendNonZero
	}
}

func (p WeekendPolicy) String() string {
	if p == WeekendWhenSet {
		return "when_set"
	}
	return "non_zero"
}

// Resolver carries the pricing policy. The zero value is ready to use.
type Resolver struct {
	Weekend WeekendPolicy
}

var defaultResolver = Resolver{}

// EffectivePrice is Resolver.EffectivePrice with the default policy.
func EffectivePrice(item *models.BookableItem, field, date string) decimal.Decimal {
	return defaultResolver.EffectivePrice(item, field, date)
}

// EffectivePriceAt is Resolver.EffectivePriceAt with the default policy.
func EffectivePriceAt(item *models.BookableItem, field string, t time.Time) decimal.Decimal {
	return defaultResolver.EffectivePriceAt(item, field, t)
}

// TicketOrderTotal is Resolver.TicketOrderTotal with the default policy.
func TicketOrderTotal(order models.TicketOrder) models.OrderTotals {
	return defaultResolver.TicketOrderTotal(order)
}

// EffectivePrice returns the override value for field on date when the
// override defines it, otherwise the base value, otherwise 0. An empty or
// unparsable date skips the override lookup.
func (r Resolver) EffectivePrice(item *models.BookableItem, field, date string) decimal.Decimal {
	v, _ := r.lookup(item, field, date)
	return v
}

// EffectivePriceAt resolves against the calendar date of t in t's location.
func (r Resolver) EffectivePriceAt(item *models.BookableItem, field string, t time.Time) decimal.Decimal {
	if t.IsZero() {
		return r.EffectivePrice(item, field, "")
	}
	return r.EffectivePrice(item, field, utils.FormatDate(t))
}

// lookup resolves a field and reports whether any source defined it.
func (r Resolver) lookup(item *models.BookableItem, field, date string) (decimal.Decimal, bool) {
	if item == nil {
		return decimal.Zero, false
	}
	if day, ok := utils.NormalizeDate(date); ok {
		if o, ok := item.Override(day); ok {
			if v, ok := o[field]; ok {
				return v, true
			}
		}
	}
	return item.Price(field)
}

// HasSpecialPricing reports whether a non-empty override exists for date.
func HasSpecialPricing(item *models.BookableItem, date string) bool {
	day, ok := utils.NormalizeDate(date)
	if !ok {
		return false
	}
	o, ok := item.Override(day)
	return ok && len(o) > 0
}

// SpecialPricingDates lists every override date in ascending order.
func SpecialPricingDates(item *models.BookableItem) []string {
	if item == nil || len(item.SpecialPrices) == 0 {
		return []string{}
	}
	out := make([]string, 0, len(item.SpecialPrices))
	for d := range item.SpecialPrices {
		out = append(out, d)
	}
	// lexical order is chronological for YYYY-MM-DD
	sort.Strings(out)
	return out
}
