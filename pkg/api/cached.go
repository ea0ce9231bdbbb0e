package api

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/noxer-shop/storefront/models"
	"github.com/noxer-shop/storefront/pkg/cache"
)

// CachePrefix namespaces every response cache key
const CachePrefix = "catalog:"

const mainKey = CachePrefix + "main"

// Cached serves repeated queries from a response cache and collapses
// concurrent identical requests into one upstream call.
type Cached struct {
	next   Fetcher
	store  cache.Store
	ttl    time.Duration
	group  singleflight.Group
	logger *slog.Logger
}

func NewCached(next Fetcher, store cache.Store, ttl time.Duration, logger *slog.Logger) *Cached {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cached{next: next, store: store, ttl: ttl, logger: logger}
}

// FilterKey is the cache key of a filtered query
func FilterKey(q models.Query) string {
	b, _ := json.Marshal(newFilterRequest(q)) // plain struct, cannot fail
	sum := sha256.Sum256(b)
	return CachePrefix + "filter:" + hex.EncodeToString(sum[:12])
}

func (c *Cached) MainProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if c.lookup(ctx, mainKey, &products) {
		return products, nil
	}

	v, err, _ := c.group.Do(mainKey, func() (any, error) {
		products, err := c.next.MainProducts(ctx)
		if err != nil {
			return nil, err
		}
		c.populate(ctx, mainKey, products)
		return products, nil
	})
	if err != nil {
		return nil, err
	}
	return cloneProducts(v.([]models.Product)), nil
}

func (c *Cached) FilteredProducts(ctx context.Context, q models.Query) (models.PaginatedResult, error) {
	key := FilterKey(q)
	var res models.PaginatedResult
	if c.lookup(ctx, key, &res) {
		return res, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		res, err := c.next.FilteredProducts(ctx, q)
		if err != nil {
			return nil, err
		}
		c.populate(ctx, key, res)
		return res, nil
	})
	if err != nil {
		return models.PaginatedResult{}, err
	}
	res = v.(models.PaginatedResult)
	res.Data = cloneProducts(res.Data)
	return res, nil
}

// Invalidate drops every cached response
func (c *Cached) Invalidate(ctx context.Context) (int, error) {
	return c.store.Invalidate(ctx, CachePrefix)
}

// lookup reports a hit. Read and decode failures count as misses.
func (c *Cached) lookup(ctx context.Context, key string, out any) bool {
	b, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			c.logger.Warn("response cache read failed, fetching upstream", "key", key, "error", err)
		}
		return false
	}
	if err := json.Unmarshal(b, out); err != nil {
		c.logger.Warn("response cache entry is corrupt, fetching upstream", "key", key, "error", err)
		return false
	}
	c.logger.Debug("response cache hit", "key", key)
	return true
}

func (c *Cached) populate(ctx context.Context, key string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		c.logger.Warn("failed to encode response for cache", "key", key, "error", err)
		return
	}
	if err := c.store.Set(ctx, key, b, c.ttl); err != nil {
		c.logger.Warn("failed to populate response cache", "key", key, "error", fmt.Errorf("set: %w", err))
	}
}

// cloneProducts gives each singleflight waiter its own slice
func cloneProducts(p []models.Product) []models.Product {
	if p == nil {
		return nil
	}
	out := make([]models.Product, len(p))
	copy(out, p)
	return out
}
