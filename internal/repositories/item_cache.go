package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"storefront/internal/domain/models"

	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss is returned by ItemCache.Get when nothing is cached.
var ErrCacheMiss = errors.New("cache miss")

// ItemCache is a TTL cache for catalog items.
type ItemCache interface {
	Get(ctx context.Context, id string) (models.BookableItem, error)
	Set(ctx context.Context, item models.BookableItem) error
	Delete(ctx context.Context, id string) error
}

// RedisItemCache stores items as JSON under "item:<id>".
type RedisItemCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisItemCache(client *redis.Client, ttl time.Duration) *RedisItemCache {
	return &RedisItemCache{client: client, ttl: ttl}
}

func itemKey(id string) string {
	return "item:" + id
}

func (c *RedisItemCache) Get(ctx context.Context, id string) (models.BookableItem, error) {
	data, err := c.client.Get(ctx, itemKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.BookableItem{}, ErrCacheMiss
	}
	if err != nil {
		return models.BookableItem{}, err
	}

	var item models.BookableItem
	if err := json.Unmarshal(data, &item); err != nil {
		return models.BookableItem{}, err
	}
	return item, nil
}

func (c *RedisItemCache) Set(ctx context.Context, item models.BookableItem) error {
	data, err := json.Marshal(item)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, itemKey(item.ID), data, c.ttl).Err()
}

func (c *RedisItemCache) Delete(ctx context.Context, id string) error {
	return c.client.Del(ctx, itemKey(id)).Err()
}
