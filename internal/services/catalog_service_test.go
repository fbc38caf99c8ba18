package services

import (
	"context"
	"testing"

	"storefront/internal/domain"
	"storefront/internal/domain/models"
	"storefront/internal/pricing"
	"storefront/internal/repositories"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeItems struct {
	items map[string]models.BookableItem
	gets  int
}

func (f *fakeItems) GetByID(_ context.Context, id string) (models.BookableItem, error) {
	f.gets++
	it, ok := f.items[id]
	if !ok {
		return models.BookableItem{}, domain.NotFoundError{Resource: "item"}
	}
	return it, nil
}

func (f *fakeItems) UpdateSpecialPrices(_ context.Context, id string, fn func(map[string]models.PriceFields) error) error {
	it, ok := f.items[id]
	if !ok {
		return domain.NotFoundError{Resource: "item"}
	}
	sp := map[string]models.PriceFields{}
	for k, v := range it.SpecialPrices {
		sp[k] = v
	}
	if err := fn(sp); err != nil {
		return err
	}
	it.SpecialPrices = sp
	f.items[id] = it
	return nil
}

type mapCache struct {
	items   map[string]models.BookableItem
	deletes int
}

func (c *mapCache) Get(_ context.Context, id string) (models.BookableItem, error) {
	it, ok := c.items[id]
	if !ok {
		return models.BookableItem{}, repositories.ErrCacheMiss
	}
	return it, nil
}

func (c *mapCache) Set(_ context.Context, item models.BookableItem) error {
	c.items[item.ID] = item
	return nil
}

func (c *mapCache) Delete(_ context.Context, id string) error {
	c.deletes++
	delete(c.items, id)
	return nil
}

func amounts(kv map[string]string) models.PriceFields {
	out := models.PriceFields{}
	for k, v := range kv {
		out[k] = decimal.RequireFromString(v)
	}
	return out
}

func assertAmount(t *testing.T, want string, got decimal.Decimal, msg ...any) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s %v", want, got.String(), msg)
}

func newCatalog() (CatalogService, *fakeItems, *mapCache) {
	items := &fakeItems{items: map[string]models.BookableItem{
		"park-1": {
			ID:   "park-1",
			Name: "Water Park",
			Prices: amounts(map[string]string{
				models.FieldAdult:        "500",
				models.FieldChild:        "300",
				models.FieldAdvance:      "100",
				models.FieldWeekendAdult: "650",
			}),
			SpecialPrices: map[string]models.PriceFields{
				"2024-12-25": amounts(map[string]string{models.FieldAdult: "700"}),
			},
		},
	}}
	cache := &mapCache{items: map[string]models.BookableItem{}}
	return CatalogService{Items: items, Cache: cache}, items, cache
}

func TestCatalogService_Price(t *testing.T) {
	svc, items, _ := newCatalog()
	ctx := context.Background()

	q, err := svc.Price(ctx, "park-1", "adultprice", "2024-12-25")
	require.NoError(t, err)
	assertAmount(t, "700", q.Amount)
	assert.True(t, q.Special)

	q, err = svc.Price(ctx, "park-1", "AdultPrice", "2024-12-26T08:00:00Z")
	require.NoError(t, err)
	assertAmount(t, "500", q.Amount)
	assert.Equal(t, "2024-12-26", q.Date)
	assert.False(t, q.Special)

	assert.Equal(t, 1, items.gets, "second lookup is served from cache")

	_, err = svc.Price(ctx, "park-1", "adultprice", "25/12/2024")
	assert.True(t, domain.IsValidation(err))

	_, err = svc.Price(ctx, "nope", "adultprice", "")
	assert.True(t, domain.IsNotFound(err))
}

func TestCatalogService_Quote(t *testing.T) {
	svc, _, _ := newCatalog()
	ctx := context.Background()

	q, err := svc.Quote(ctx, "park-1", 2, 1, "2024-12-26", false)
	require.NoError(t, err)
	assertAmount(t, "1300", q.GrandTotal)
	assertAmount(t, "300", q.AdvanceTotal)

	q, err = svc.Quote(ctx, "park-1", 2, 1, "2024-12-28", true)
	require.NoError(t, err)
	assertAmount(t, "1600", q.GrandTotal)

	_, err = svc.Quote(ctx, "park-1", -1, 0, "", false)
	assert.True(t, domain.IsValidation(err))
}

func TestCatalogService_QuoteWeekendPolicy(t *testing.T) {
	svc, items, _ := newCatalog()
	it := items.items["park-1"]
	it.Prices[models.FieldWeekendChild] = decimal.Zero
	items.items["park-1"] = it

	q, err := svc.Quote(context.Background(), "park-1", 0, 2, "", true)
	require.NoError(t, err)
	assertAmount(t, "600", q.GrandTotal, "zero weekend price falls back by default")

	svc.Resolver = pricing.Resolver{Weekend: pricing.WeekendWhenSet}
	svc.Cache = nil
	q, err = svc.Quote(context.Background(), "park-1", 0, 2, "", true)
	require.NoError(t, err)
	assertAmount(t, "0", q.GrandTotal)
}

func TestCatalogService_SpecialPrices(t *testing.T) {
	svc, items, cache := newCatalog()
	ctx := context.Background()

	_, err := svc.Item(ctx, "park-1")
	require.NoError(t, err)

	merged, err := svc.SetSpecialPrice(ctx, "park-1", "2024-12-25", amounts(map[string]string{"ChildPrice": "400.25"}))
	require.NoError(t, err)
	assert.Len(t, merged, 2)
	assertAmount(t, "700", merged[models.FieldAdult])
	assertAmount(t, "400.25", merged[models.FieldChild])
	assert.Equal(t, 1, cache.deletes)

	q, err := svc.Price(ctx, "park-1", "childprice", "2024-12-25")
	require.NoError(t, err)
	assertAmount(t, "400.25", q.Amount)

	dates, err := svc.SpecialDates(ctx, "park-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-12-25"}, dates)

	_, err = svc.SetSpecialPrice(ctx, "park-1", "2024-12-31", amounts(map[string]string{"adultprice": "-1"}))
	assert.True(t, domain.IsValidation(err))
	_, err = svc.SetSpecialPrice(ctx, "park-1", "2024-12-31", nil)
	assert.True(t, domain.IsValidation(err))
	_, err = svc.SetSpecialPrice(ctx, "park-1", "soon", amounts(map[string]string{"adultprice": "1"}))
	assert.True(t, domain.IsValidation(err))

	require.NoError(t, svc.ClearSpecialPrice(ctx, "park-1", "2024-12-25"))
	assert.Empty(t, items.items["park-1"].SpecialPrices)
	assert.True(t, domain.IsNotFound(svc.ClearSpecialPrice(ctx, "park-1", "2024-12-25")))
}
