package repositories

import (
	"context"
	"testing"
	"time"

	"storefront/internal/domain/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisItemCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cache := NewRedisItemCache(client, 5*time.Minute)
	ctx := context.Background()

	_, err := cache.Get(ctx, "park-1")
	assert.ErrorIs(t, err, ErrCacheMiss)

	item := models.BookableItem{
		ID:            "park-1",
		Name:          "Water Park",
		Prices:        models.PriceFields{models.FieldAdult: decimal.RequireFromString("499.99")},
		SpecialPrices: map[string]models.PriceFields{"2024-12-25": {models.FieldAdult: decimal.NewFromInt(700)}},
	}
	require.NoError(t, cache.Set(ctx, item))
	assert.Equal(t, 5*time.Minute, mr.TTL("item:park-1"))

	got, err := cache.Get(ctx, "park-1")
	require.NoError(t, err)
	assert.Equal(t, item.Name, got.Name)
	assert.Equal(t, "499.99", got.Prices[models.FieldAdult].String())
	assert.Equal(t, "700", got.SpecialPrices["2024-12-25"][models.FieldAdult].String())

	require.NoError(t, cache.Delete(ctx, "park-1"))
	_, err = cache.Get(ctx, "park-1")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, cache.Set(ctx, item))
	mr.FastForward(6 * time.Minute)
	_, err = cache.Get(ctx, "park-1")
	assert.ErrorIs(t, err, ErrCacheMiss)
}
