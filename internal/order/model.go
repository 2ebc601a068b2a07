package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product identifies the purchased product on an order item. The price lives
// on the item itself: it was copied from the product at checkout and never
// tracks later price changes.
type Product struct {
	ID    string `json:"productId"`
	Title string `json:"title"`
}

type Item struct {
	ID        string          `json:"itemId"`
	Product   Product         `json:"product"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

type Order struct {
	ID            string          `json:"orderId"`
	CustomerID    string          `json:"customerId"`
	PaymentStatus Status          `json:"paymentStatus"`
	PlacedAt      time.Time       `json:"placedAt"`
	Items         []Item          `json:"items"`
	Total         decimal.Decimal `json:"totalAmount"`
}

func (o *Order) recalcTotal() {
	o.Total = decimal.Zero
	for _, it := range o.Items {
		o.Total = o.Total.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
}
