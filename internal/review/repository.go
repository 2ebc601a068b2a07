package review

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

var ErrProductNotFound = errors.New("product not found")

type Repository interface {
	ListByProduct(ctx context.Context, productID string) ([]Review, error)
	Create(ctx context.Context, rev *Review) error
}

type repo struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repo{db: db}
}

func (r *repo) ListByProduct(ctx context.Context, productID string) ([]Review, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, product_id, name, description, created_at
		FROM reviews WHERE product_id = $1
		ORDER BY created_at DESC, id`,
		productID,
	)
	if err != nil {
		return nil, fmt.Errorf("select reviews: %w", err)
	}
	defer rows.Close()

	var reviews []Review
	for rows.Next() {
		var rev Review
		if err := rows.Scan(&rev.ID, &rev.ProductID, &rev.Name, &rev.Description, &rev.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		reviews = append(reviews, rev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return reviews, nil
}

func (r *repo) Create(ctx context.Context, rev *Review) error {
	if rev.ID == "" {
		rev.ID = uuid.NewString()
	}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO reviews (id, product_id, name, description)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`,
		rev.ID, rev.ProductID, rev.Name, rev.Description,
	).Scan(&rev.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			return ErrProductNotFound
		}
		return fmt.Errorf("insert review: %w", err)
	}
	return nil
}
