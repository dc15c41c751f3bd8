package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	itemDomain "github.com/jush-ua/Kumila-Rentals-sub000/internal/domain/item"
)

const itemCacheKeyPrefix = "item"

// ErrMiss is returned by Get when the item is not cached.
var ErrMiss = errors.New("cache miss")

// ItemCache stores catalog items as Redis hashes under "item:{id}".
// Only catalog reads go through it; the reservation engine always reads the
// database.
type ItemCache struct {
	client *RedisClient
	ttl    time.Duration
}

// NewItemCache creates an ItemCache whose entries expire after ttl.
func NewItemCache(r *RedisClient, ttl time.Duration) *ItemCache {
	return &ItemCache{client: r, ttl: ttl}
}

// Get returns the cached item or ErrMiss.
func (c *ItemCache) Get(ctx context.Context, id int64) (*itemDomain.Item, error) {
	vals, err := c.client.Client().HGetAll(ctx, c.key(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrMiss
		}
		return nil, fmt.Errorf("cache get: %w", err)
	}
	if len(vals) == 0 {
		return nil, ErrMiss
	}
	return decodeItem(vals)
}

// Set writes item with the configured TTL in one pipeline.
func (c *ItemCache) Set(ctx context.Context, it *itemDomain.Item) error {
	key := c.key(it.ID())
	prices := it.Prices()

	pipe := c.client.Client().Pipeline()
	pipe.HSet(ctx, key,
		"id", strconv.FormatInt(it.ID(), 10),
		"name", it.Name(),
		"category", it.Category(),
		"size", it.Size(),
		"daily_cents", strconv.FormatInt(prices.DailyCents, 10),
		"weekly_cents", strconv.FormatInt(prices.WeeklyCents, 10),
		"monthly_cents", strconv.FormatInt(prices.MonthlyCents, 10),
		"description", it.Description(),
		"status", string(it.Status()),
		"version", strconv.FormatInt(it.Version(), 10),
		"created_at", it.CreatedAt().UTC().Format(time.RFC3339Nano),
		"updated_at", it.UpdatedAt().UTC().Format(time.RFC3339Nano),
	)
	pipe.Expire(ctx, key, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Delete evicts an item.
func (c *ItemCache) Delete(ctx context.Context, id int64) error {
	if err := c.client.Client().Del(ctx, c.key(id)).Err(); err != nil {
		return fmt.Errorf("cache delete: %w", err)
	}
	return nil
}

func (c *ItemCache) key(id int64) string {
	return fmt.Sprintf("%s:%d", itemCacheKeyPrefix, id)
}

func decodeItem(vals map[string]string) (*itemDomain.Item, error) {
	ints := map[string]int64{}
	for _, field := range []string{"id", "daily_cents", "weekly_cents", "monthly_cents", "version"} {
		n, err := strconv.ParseInt(vals[field], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("cache parse %s: %w", field, err)
		}
		ints[field] = n
	}
	createdAt, err := time.Parse(time.RFC3339Nano, vals["created_at"])
	if err != nil {
		return nil, fmt.Errorf("cache parse created_at: %w", err)
	}
	updatedAt, err := time.Parse(time.RFC3339Nano, vals["updated_at"])
	if err != nil {
		return nil, fmt.Errorf("cache parse updated_at: %w", err)
	}

	return itemDomain.Reconstruct(
		ints["id"],
		vals["name"], vals["category"], vals["size"],
		itemDomain.PriceTiers{
			DailyCents:   ints["daily_cents"],
			WeeklyCents:  ints["weekly_cents"],
			MonthlyCents: ints["monthly_cents"],
		},
		vals["description"],
		itemDomain.Status(vals["status"]),
		ints["version"],
		createdAt, updatedAt,
	), nil
}
