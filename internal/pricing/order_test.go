package pricing

import (
	"testing"

	"storefront/internal/domain/models"

	"github.com/stretchr/testify/assert"
)

func parkItem() *models.BookableItem {
	return &models.BookableItem{
		Prices: prices(map[string]string{
			models.FieldAdult:          "500",
			models.FieldChild:          "300",
			models.FieldAdvance:        "100",
			models.FieldWeekendAdult:   "650",
			models.FieldWeekendChild:   "0",
			models.FieldWeekendAdvance: "150",
		}),
		SpecialPrices: map[string]models.PriceFields{
			"2024-12-25": prices(map[string]string{models.FieldAdult: "800", models.FieldWeekendAdult: "900"}),
		},
	}
}

func TestTicketOrderTotal_OrdinaryDay(t *testing.T) {
	got := TicketOrderTotal(models.TicketOrder{
		Item:       parkItem(),
		AdultCount: 2,
		ChildCount: 1,
		Date:       "2024-12-20",
	})

	assertAmount(t, "1300", got.GrandTotal)
	assertAmount(t, "300", got.AdvanceTotal)
}

func TestTicketOrderTotal_SpecialDayNonZeroPolicy(t *testing.T) {
	got := TicketOrderTotal(models.TicketOrder{
		Item:         parkItem(),
		AdultCount:   2,
		ChildCount:   1,
		Date:         "2024-12-21",
		IsSpecialDay: true,
	})

	// weekend child price is 0, so the ordinary child price applies
	assertAmount(t, "1600", got.GrandTotal)
	assertAmount(t, "450", got.AdvanceTotal)
}

func TestTicketOrderTotal_SpecialDayWhenSetPolicy(t *testing.T) {
	r := Resolver{Weekend: WeekendWhenSet}
	got := r.TicketOrderTotal(models.TicketOrder{
		Item:         parkItem(),
		AdultCount:   2,
		ChildCount:   1,
		Date:         "2024-12-21",
		IsSpecialDay: true,
	})

	assertAmount(t, "1300", got.GrandTotal, "explicit free weekend child ticket is honored")
	assertAmount(t, "450", got.AdvanceTotal)
}

func TestTicketOrderTotal_WhenSetFallsBackWhenUndefined(t *testing.T) {
	item := &models.BookableItem{Prices: prices(map[string]string{
		models.FieldAdult: "500", models.FieldChild: "300", models.FieldAdvance: "100",
	})}
	r := Resolver{Weekend: WeekendWhenSet}
	got := r.TicketOrderTotal(models.TicketOrder{Item: item, AdultCount: 1, ChildCount: 1, IsSpecialDay: true})

	assertAmount(t, "800", got.GrandTotal)
	assertAmount(t, "200", got.AdvanceTotal)
}

func TestTicketOrderTotal_DateOverrideOnSpecialDay(t *testing.T) {
	got := TicketOrderTotal(models.TicketOrder{
		Item:         parkItem(),
		AdultCount:   1,
		Date:         "2024-12-25",
		IsSpecialDay: true,
	})

	assertAmount(t, "900", got.GrandTotal)
	assertAmount(t, "150", got.AdvanceTotal)
}

func TestTicketOrderTotal_ExactDecimals(t *testing.T) {
	item := &models.BookableItem{Prices: prices(map[string]string{
		models.FieldAdult: "19.99", models.FieldChild: "0.1", models.FieldAdvance: "0.1",
	})}
	got := TicketOrderTotal(models.TicketOrder{Item: item, AdultCount: 3, ChildCount: 3})

	assertAmount(t, "60.27", got.GrandTotal)
	assertAmount(t, "0.6", got.AdvanceTotal)
	assert.Equal(t, "60.27", got.GrandTotal.String())
}

func TestTicketOrderTotal_ZeroAndNegativeCounts(t *testing.T) {
	item := parkItem()

	zero := TicketOrderTotal(models.TicketOrder{Item: item, Date: "2024-12-20"})
	assert.True(t, zero.GrandTotal.IsZero())
	assert.True(t, zero.AdvanceTotal.IsZero())

	neg := TicketOrderTotal(models.TicketOrder{Item: item, AdultCount: -3, ChildCount: -1})
	assert.True(t, neg.GrandTotal.IsZero())
	assert.True(t, neg.AdvanceTotal.IsZero())

	none := TicketOrderTotal(models.TicketOrder{AdultCount: 4})
	assert.True(t, none.GrandTotal.IsZero())
}

func TestTicketOrderTotal_NegativePriceClamped(t *testing.T) {
	item := &models.BookableItem{Prices: prices(map[string]string{models.FieldAdult: "-50", models.FieldAdvance: "-1"})}
	got := TicketOrderTotal(models.TicketOrder{Item: item, AdultCount: 2})

	assertAmount(t, "0", got.GrandTotal)
	assertAmount(t, "0", got.AdvanceTotal)
}

func TestTicketOrderTotal_MonotonicInCounts(t *testing.T) {
	item := parkItem()
	for _, special := range []bool{false, true} {
		prev := models.OrderTotals{}
		for n := 0; n <= 6; n++ {
			got := TicketOrderTotal(models.TicketOrder{Item: item, AdultCount: n, ChildCount: n / 2, Date: "2024-12-21", IsSpecialDay: special})
			assert.True(t, got.GrandTotal.GreaterThanOrEqual(prev.GrandTotal))
			assert.True(t, got.AdvanceTotal.GreaterThanOrEqual(prev.AdvanceTotal))
			prev = got
		}
	}
}
