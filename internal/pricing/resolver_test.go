package pricing

import (
	"encoding/json"
	"testing"
	"time"

	"storefront/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func christmasItem() *models.BookableItem {
	return &models.BookableItem{
		ID:     "park-1",
		Prices: prices(map[string]string{models.FieldAdult: "500", models.FieldChild: "300"}),
		SpecialPrices: map[string]models.PriceFields{
			"2024-12-25": prices(map[string]string{models.FieldAdult: "700"}),
		},
	}
}

func TestEffectivePrice_OverrideAndFallback(t *testing.T) {
	item := christmasItem()

	assertAmount(t, "700", EffectivePrice(item, models.FieldAdult, "2024-12-25"))
	assertAmount(t, "500", EffectivePrice(item, models.FieldAdult, "2024-12-26"))
}

func TestEffectivePrice_PartialOverrideKeepsOtherFields(t *testing.T) {
	item := christmasItem()

	// the 25th only overrides adultprice; childprice must fall back to base
	assertAmount(t, "300", EffectivePrice(item, models.FieldChild, "2024-12-25"))
}

func TestEffectivePrice_MissingData(t *testing.T) {
	item := christmasItem()

	assertAmount(t, "0", EffectivePrice(nil, models.FieldAdult, "2024-12-25"))
	assertAmount(t, "0", EffectivePrice(item, "unknownprice", "2024-12-25"))
	assertAmount(t, "500", EffectivePrice(item, models.FieldAdult, ""))
	assertAmount(t, "500", EffectivePrice(item, models.FieldAdult, "not-a-date"))
	assertAmount(t, "0", EffectivePrice(&models.BookableItem{}, models.FieldAdult, "2024-12-25"))
}

func TestEffectivePrice_TimestampInput(t *testing.T) {
	item := christmasItem()

	assertAmount(t, "700", EffectivePrice(item, models.FieldAdult, "2024-12-25T09:15:00Z"))

	day := time.Date(2024, 12, 25, 18, 0, 0, 0, time.UTC)
	assertAmount(t, "700", EffectivePriceAt(item, models.FieldAdult, day))
	assertAmount(t, "500", EffectivePriceAt(item, models.FieldAdult, time.Time{}))
}

func TestEffectivePrice_OverrideOfZeroWins(t *testing.T) {
	item := christmasItem()
	item.SpecialPrices["2025-01-01"] = prices(map[string]string{models.FieldAdult: "0"})

	assertAmount(t, "0", EffectivePrice(item, models.FieldAdult, "2025-01-01"))
}

func TestEffectivePrice_NoOverrideEqualsBase(t *testing.T) {
	item := christmasItem()
	for _, day := range []string{"2024-01-01", "2024-06-15", "2024-12-24", "2025-12-25"} {
		for _, f := range []string{models.FieldAdult, models.FieldChild, models.FieldAdvance} {
			base, _ := item.Price(f)
			assert.True(t, base.Equal(EffectivePrice(item, f, day)), "%s %s", f, day)
		}
	}
}

func TestHasSpecialPricing(t *testing.T) {
	item := christmasItem()
	item.SpecialPrices["2024-12-31"] = models.PriceFields{}

	assert.True(t, HasSpecialPricing(item, "2024-12-25"))
	assert.False(t, HasSpecialPricing(item, "2024-12-31"), "empty override is not special pricing")
	assert.False(t, HasSpecialPricing(item, "2024-12-26"))
	assert.False(t, HasSpecialPricing(nil, "2024-12-25"))
	assert.False(t, HasSpecialPricing(item, ""))
}

func TestSpecialPricingDates(t *testing.T) {
	item := &models.BookableItem{SpecialPrices: map[string]models.PriceFields{
		"2025-01-26": prices(map[string]string{models.FieldAdult: "1"}),
		"2024-12-25": prices(map[string]string{models.FieldAdult: "1"}),
		"2024-08-15": {},
		"2025-01-01": prices(map[string]string{models.FieldChild: "2"}),
	}}

	got := SpecialPricingDates(item)
	assert.Equal(t, []string{"2024-08-15", "2024-12-25", "2025-01-01", "2025-01-26"}, got)
	assert.Empty(t, SpecialPricingDates(nil))
	assert.NotNil(t, SpecialPricingDates(&models.BookableItem{}))
}

func TestParseWeekendPolicy(t *testing.T) {
	assert.Equal(t, WeekendWhenSet, ParseWeekendPolicy("when_set"))
	assert.Equal(t, WeekendWhenSet, ParseWeekendPolicy(" Presence "))
	assert.Equal(t, WeekendNonZero, ParseWeekendPolicy(""))
	assert.Equal(t, WeekendNonZero, ParseWeekendPolicy("bogus"))
	assert.Equal(t, "when_set", WeekendWhenSet.String())
}

func TestBookableItemJSON(t *testing.T) {
	raw := []byte(`{
		"_id": "abc123",
		"name": "Water Park",
		"adultprice": 500,
		"childprice": "300.50",
		"advanceprice": 100,
		"description": "splash",
		"specialPrices": {"2024-12-25": {"adultprice": 700, "childprice": "bad"}}
	}`)

	var item models.BookableItem
	require.NoError(t, json.Unmarshal(raw, &item))
	assert.Equal(t, "abc123", item.ID)
	assert.Equal(t, "Water Park", item.Name)
	assertAmount(t, "300.50", item.Prices[models.FieldChild])
	assert.NotContains(t, item.Prices, "description")
	assert.Len(t, item.SpecialPrices["2024-12-25"], 1)
	assertAmount(t, "700", EffectivePrice(&item, models.FieldAdult, "2024-12-25"))

	out, err := json.Marshal(item)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"childprice":300.5`, "amounts are written as JSON numbers")

	var back models.BookableItem
	require.NoError(t, json.Unmarshal(out, &back))
	assert.Equal(t, item.ID, back.ID)
	assert.Len(t, back.Prices, len(item.Prices))
	for k, v := range item.Prices {
		assertAmount(t, v.String(), back.Prices[k], k)
	}
	assertAmount(t, "700", back.SpecialPrices["2024-12-25"][models.FieldAdult])
}

func TestBookableItemJSON_RejectsUnusableAmounts(t *testing.T) {
	raw := []byte(`{
		"_id": "x",
		"__v": 3,
		"rating": 4.5,
		"adultprice": "NaN",
		"childprice": "Inf",
		"advanceprice": -5,
		"weekendadultprice": "-1",
		"weekendchildprice": 250,
		"specialPrices": {"2024-12-25": {"adultprice": -700, "childprice": 40}}
	}`)

	var item models.BookableItem
	require.NoError(t, json.Unmarshal(raw, &item))

	assert.Equal(t, []string{models.FieldWeekendChild}, keys(item.Prices))
	assert.Equal(t, []string{models.FieldChild}, keys(item.SpecialPrices["2024-12-25"]))
	assertAmount(t, "0", EffectivePrice(&item, models.FieldAdult, "2024-12-25"))
}

func keys(p models.PriceFields) []string {
	out := make([]string, 0, len(p))
	for k := range p {
		out = append(out, k)
	}
	return out
}
