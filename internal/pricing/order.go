package pricing

import (
	"storefront/internal/domain/models"

	"github.com/shopspring/decimal"
)

type fieldPair struct {
	ordinary string
	weekend  string
}

var (
	adultPair   = fieldPair{models.FieldAdult, models.FieldWeekendAdult}
	childPair   = fieldPair{models.FieldChild, models.FieldWeekendChild}
	advancePair = fieldPair{models.FieldAdvance, models.FieldWeekendAdvance}
)

// TicketOrderTotal aggregates a ticket order. Advance is charged per head
// for adults and children alike.
func (r Resolver) TicketOrderTotal(order models.TicketOrder) models.OrderTotals {
	adults := nonNegativeCount(order.AdultCount)
	children := nonNegativeCount(order.ChildCount)

	adultPrice := r.unitPrice(order, adultPair)
	childPrice := r.unitPrice(order, childPair)
	advancePrice := r.unitPrice(order, advancePair)

	return models.OrderTotals{
		GrandTotal:   adultPrice.Mul(decimal.NewFromInt(adults)).Add(childPrice.Mul(decimal.NewFromInt(children))),
		AdvanceTotal: advancePrice.Mul(decimal.NewFromInt(adults + children)),
	}
}

func (r Resolver) unitPrice(order models.TicketOrder, pair fieldPair) decimal.Decimal {
	ordinary, _ := r.lookup(order.Item, pair.ordinary, order.Date)
	if !order.IsSpecialDay {
		return clampPrice(ordinary)
	}

	weekend, defined := r.lookup(order.Item, pair.weekend, order.Date)
	switch r.Weekend {
	case WeekendWhenSet:
		if defined {
			return clampPrice(weekend)
		}
	default:
		if !weekend.IsZero() {
			return clampPrice(weekend)
		}
	}
	return clampPrice(ordinary)
}

func nonNegativeCount(n int) int64 {
	if n < 0 {
		return 0
	}
	return int64(n)
}

func clampPrice(v decimal.Decimal) decimal.Decimal {
	if v.IsNegative() {
		return decimal.Zero
	}
	return v
}
