package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

type Collection struct {
	ID    string `json:"collectionId"`
	Title string `json:"title"`

	// ProductsCount is filled on reads, never stored.
	ProductsCount int `json:"productsCount"`
}

type Product struct {
	ID           string          `json:"productId"`
	Title        string          `json:"title"`
	Slug         string          `json:"slug"`
	Description  string          `json:"description,omitempty"`
	UnitPrice    decimal.Decimal `json:"unitPrice"`
	Inventory    int             `json:"inventory"`
	LastUpdate   time.Time       `json:"lastUpdate"`
	CollectionID string          `json:"collectionId"`
}

// ListParams narrows and orders a product listing.
type ListParams struct {
	CollectionID string
	Search       string
	OrderBy      string // unit_price | -unit_price | last_update | -last_update
	Limit        int
	Offset       int
}
