package cache

import (
	"context"
	"errors"
	"log/slog"

	"github.com/cozanostra7/shopstore/internal/catalog"
)

// CachedRepository wraps a catalog repository with a read-through product
// cache. Cache failures degrade to the underlying store and are logged, never
// surfaced.
type CachedRepository struct {
	catalog.Repository
	cache  ProductCache
	logger *slog.Logger
}

func NewCachedRepository(repo catalog.Repository, cache ProductCache, logger *slog.Logger) *CachedRepository {
	return &CachedRepository{Repository: repo, cache: cache, logger: logger}
}

func (c *CachedRepository) GetProduct(ctx context.Context, productID string) (*catalog.Product, error) {
	cached, err := c.cache.Get(ctx, productID)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		c.logger.Warn("product cache read failed", "productId", productID, "error", err)
	}

	p, err := c.Repository.GetProduct(ctx, productID)
	if err != nil || p == nil {
		return p, err
	}
	if err := c.cache.Set(ctx, p); err != nil {
		c.logger.Warn("product cache write failed", "productId", productID, "error", err)
	}
	return p, nil
}

func (c *CachedRepository) UpdateProduct(ctx context.Context, p *catalog.Product) (bool, error) {
	ok, err := c.Repository.UpdateProduct(ctx, p)
	if err == nil && ok {
		c.invalidate(ctx, p.ID)
	}
	return ok, err
}

func (c *CachedRepository) DeleteProduct(ctx context.Context, productID string) (bool, error) {
	ok, err := c.Repository.DeleteProduct(ctx, productID)
	if err == nil && ok {
		c.invalidate(ctx, productID)
	}
	return ok, err
}

func (c *CachedRepository) invalidate(ctx context.Context, productID string) {
	if err := c.cache.Delete(ctx, productID); err != nil {
		c.logger.Warn("product cache invalidation failed", "productId", productID, "error", err)
	}
}
