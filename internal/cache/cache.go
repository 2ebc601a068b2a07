package cache

import (
	"context"
	"errors"

	"github.com/cozanostra7/shopstore/internal/catalog"
)

// ErrCacheMiss is returned when the key is absent from the cache.
var ErrCacheMiss = errors.New("cache miss")

type ProductCache interface {
	Get(ctx context.Context, productID string) (*catalog.Product, error)
	Set(ctx context.Context, p *catalog.Product) error
	Delete(ctx context.Context, productID string) error
}
