package cart

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is the trimmed product view carried on cart reads. Prices here are
// always the product's current price, never a stored copy.
type Product struct {
	ID        string          `json:"productId"`
	Title     string          `json:"title"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

type Item struct {
	ID         string          `json:"itemId"`
	Product    Product         `json:"product"`
	Quantity   int             `json:"quantity"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
}

type Cart struct {
	ID        string          `json:"cartId"`
	CreatedAt time.Time       `json:"createdAt"`
	Items     []Item          `json:"items"`
	Total     decimal.Decimal `json:"totalPrice"`
}
