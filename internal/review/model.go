package review

import "time"

type Review struct {
	ID          string    `json:"reviewId"`
	ProductID   string    `json:"productId"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}
