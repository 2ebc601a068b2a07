package events

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderPlacedItem struct {
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

// OrderPlaced is the wire contract for the order.placed queue. Downstream
// consumers (payment flow, email) key on OrderID.
type OrderPlaced struct {
	EventType   string            `json:"eventType"`
	EventID     string            `json:"eventId"`
	OrderID     string            `json:"orderId"`
	CustomerID  string            `json:"customerId"`
	TotalAmount decimal.Decimal   `json:"totalAmount"`
	Items       []OrderPlacedItem `json:"items"`
	Timestamp   time.Time         `json:"timestamp"`
}
