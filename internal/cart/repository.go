package cart

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

var (
	ErrCartNotFound    = errors.New("cart not found")
	ErrProductNotFound = errors.New("product not found")
	ErrItemNotFound    = errors.New("cart item not found")
	ErrInvalidQuantity = errors.New("quantity must be a positive integer")
)

type Repository interface {
	Create(ctx context.Context) (*Cart, error)
	Get(ctx context.Context, cartID string) (*Cart, error)
	Delete(ctx context.Context, cartID string) error
	ListItems(ctx context.Context, cartID string) ([]Item, error)
	AddItem(ctx context.Context, cartID, productID string, quantity int) (*Item, error)
	UpdateItemQuantity(ctx context.Context, cartID, itemID string, quantity int) (*Item, error)
	RemoveItem(ctx context.Context, cartID, itemID string) error
}

type repo struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repo{db: db}
}

func (r *repo) Create(ctx context.Context) (*Cart, error) {
	c := &Cart{ID: uuid.NewString(), Total: decimal.Zero}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO carts (id) VALUES ($1) RETURNING created_at`,
		c.ID,
	).Scan(&c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert cart: %w", err)
	}
	return c, nil
}

func (r *repo) Get(ctx context.Context, cartID string) (*Cart, error) {
	var c Cart
	err := r.db.QueryRowContext(ctx,
		`SELECT id, created_at FROM carts WHERE id = $1`,
		cartID,
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// caller (handler) can turn this into 404
			return nil, nil
		}
		return nil, fmt.Errorf("select cart: %w", err)
	}

	items, err := r.ListItems(ctx, cartID)
	if err != nil {
		return nil, err
	}
	c.Items = items

	c.Total = decimal.Zero
	for _, it := range c.Items {
		c.Total = c.Total.Add(it.TotalPrice)
	}
	return &c, nil
}

func (r *repo) Delete(ctx context.Context, cartID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM carts WHERE id = $1`, cartID)
	if err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrCartNotFound
	}
	return nil
}

// ListItems returns the cart's items with each product's current price.
func (r *repo) ListItems(ctx context.Context, cartID string) ([]Item, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT ci.id, ci.quantity, p.id, p.title, p.unit_price
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = $1
		ORDER BY p.title`,
		cartID,
	)
	if err != nil {
		return nil, fmt.Errorf("select cart_items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.Quantity, &it.Product.ID, &it.Product.Title, &it.Product.UnitPrice); err != nil {
			return nil, fmt.Errorf("scan cart_item: %w", err)
		}
		it.TotalPrice = it.Product.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return items, nil
}

// AddItem merges the quantity into an existing row for the same product or
// inserts a new one. The conflict is resolved by the database in a single
// statement, so concurrent adds for the same (cart, product) never lose an
// update.
func (r *repo) AddItem(ctx context.Context, cartID, productID string, quantity int) (*Item, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	var it Item
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO cart_items (id, cart_id, product_id, quantity)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (cart_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
		RETURNING id, quantity`,
		uuid.NewString(), cartID, productID, quantity,
	).Scan(&it.ID, &it.Quantity)
	if err != nil {
		if isFKViolation(err, "cart_items_cart_id_fkey") {
			return nil, ErrCartNotFound
		}
		if isFKViolation(err, "cart_items_product_id_fkey") {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("upsert cart_item: %w", err)
	}

	if err := r.loadProduct(ctx, productID, &it); err != nil {
		return nil, err
	}
	return &it, nil
}

func (r *repo) UpdateItemQuantity(ctx context.Context, cartID, itemID string, quantity int) (*Item, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	it := Item{ID: itemID, Quantity: quantity}
	var productID string
	err := r.db.QueryRowContext(ctx, `
		UPDATE cart_items SET quantity = $3
		WHERE id = $1 AND cart_id = $2
		RETURNING product_id`,
		itemID, cartID, quantity,
	).Scan(&productID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("update cart_item: %w", err)
	}

	if err := r.loadProduct(ctx, productID, &it); err != nil {
		return nil, err
	}
	return &it, nil
}

func (r *repo) RemoveItem(ctx context.Context, cartID, itemID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM cart_items WHERE id = $1 AND cart_id = $2`,
		itemID, cartID,
	)
	if err != nil {
		return fmt.Errorf("delete cart_item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (r *repo) loadProduct(ctx context.Context, productID string, it *Item) error {
	err := r.db.QueryRowContext(ctx,
		`SELECT id, title, unit_price FROM products WHERE id = $1`,
		productID,
	).Scan(&it.Product.ID, &it.Product.Title, &it.Product.UnitPrice)
	if err != nil {
		return fmt.Errorf("select product: %w", err)
	}
	it.TotalPrice = it.Product.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
	return nil
}

func isFKViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23503" && pqErr.Constraint == constraint
	}
	return false
}
