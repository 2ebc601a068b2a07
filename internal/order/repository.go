package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/cozanostra7/shopstore/internal/cart"
)

var (
	// ErrEmptyCart means checkout was attempted on a cart with no items.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrCustomerNotFound means the acting user has no customer record. That
	// is an upstream invariant violation, not a user mistake.
	ErrCustomerNotFound = errors.New("no customer record for user")
	// ErrTxRetryable wraps lock-timeout and serialization failures. Nothing
	// was committed; the caller may retry.
	ErrTxRetryable = errors.New("transaction aborted, safe to retry")
)

type Repository interface {
	// PlaceOrder converts the cart into an order atomically. See the method
	// on repo for the locking protocol.
	PlaceOrder(ctx context.Context, cartID, userID string) (*Order, error)
	GetByID(ctx context.Context, orderID string) (*Order, error)
	ListByUser(ctx context.Context, userID string) ([]Order, error)
	ListAll(ctx context.Context) ([]Order, error)
	SetPaymentStatus(ctx context.Context, orderID string, status Status) (bool, error)
}

type repo struct {
	db *sql.DB

	// lockTimeout bounds FOR UPDATE waits inside PlaceOrder. Zero disables
	// the bound and leaves only the request context deadline.
	lockTimeout time.Duration
}

func NewRepository(db *sql.DB, lockTimeout time.Duration) Repository {
	return &repo{db: db, lockTimeout: lockTimeout}
}

// PlaceOrder runs the whole checkout as one transaction:
//
//  1. Lock the cart row FOR UPDATE. A concurrent checkout of the same cart
//     blocks here and, once the winner commits the cart delete, observes
//     cart.ErrCartNotFound. That is what makes a naive client retry safe.
//  2. Read the cart's items joined to current product prices, locking the
//     item rows. The prices seen here are the ones frozen onto the order.
//  3. Insert the order and its items, delete the cart, commit.
//
// Nothing outside the database is touched; post-commit notification is the
// caller's job.
func (r *repo) PlaceOrder(ctx context.Context, cartID, userID string) (*Order, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if r.lockTimeout > 0 {
		_, err = tx.ExecContext(ctx, fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", r.lockTimeout.Milliseconds()))
		if err != nil {
			return nil, fmt.Errorf("set lock_timeout: %w", err)
		}
	}

	var lockedCartID string
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM carts WHERE id = $1 FOR UPDATE`,
		cartID,
	).Scan(&lockedCartID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, cart.ErrCartNotFound
		}
		return nil, txError("lock cart", err)
	}

	items, err := r.snapshotCartItems(ctx, tx, cartID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	var customerID string
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM customers WHERE user_id = $1`,
		userID,
	).Scan(&customerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCustomerNotFound
		}
		return nil, txError("select customer", err)
	}

	o := &Order{
		ID:            uuid.NewString(),
		CustomerID:    customerID,
		PaymentStatus: StatusPending,
		Items:         items,
	}
	err = tx.QueryRowContext(ctx,
		`INSERT INTO orders (id, customer_id, payment_status) VALUES ($1, $2, $3) RETURNING placed_at`,
		o.ID, o.CustomerID, o.PaymentStatus,
	).Scan(&o.PlacedAt)
	if err != nil {
		return nil, txError("insert order", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO order_items (id, order_id, product_id, quantity, unit_price) VALUES ($1, $2, $3, $4, $5)`)
	if err != nil {
		return nil, fmt.Errorf("prepare order_items insert: %w", err)
	}
	defer stmt.Close()

	for i := range o.Items {
		o.Items[i].ID = uuid.NewString()
		it := o.Items[i]
		if _, err = stmt.ExecContext(ctx, it.ID, o.ID, it.Product.ID, it.Quantity, it.UnitPrice); err != nil {
			return nil, txError("insert order_item", err)
		}
	}

	// Cart items cascade with the cart. After this commits, a retry with the
	// same cartID fails with CartNotFound instead of double-ordering.
	if _, err = tx.ExecContext(ctx, `DELETE FROM carts WHERE id = $1`, cartID); err != nil {
		return nil, txError("delete cart", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, txError("commit", err)
	}

	o.recalcTotal()
	return o, nil
}

// snapshotCartItems reads the cart's contents and each product's current
// price in one statement, locking the item rows so no concurrent cart
// mutation interleaves with the order being written.
func (r *repo) snapshotCartItems(ctx context.Context, tx *sql.Tx, cartID string) ([]Item, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT ci.product_id, p.title, ci.quantity, p.unit_price
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = $1
		ORDER BY ci.product_id
		FOR UPDATE OF ci`,
		cartID,
	)
	if err != nil {
		return nil, txError("select cart_items", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.Product.ID, &it.Product.Title, &it.Quantity, &it.UnitPrice); err != nil {
			return nil, fmt.Errorf("scan cart_item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, txError("rows", err)
	}
	return items, nil
}

func (r *repo) GetByID(ctx context.Context, orderID string) (*Order, error) {
	var o Order
	err := r.db.QueryRowContext(ctx,
		`SELECT id, customer_id, payment_status, placed_at FROM orders WHERE id = $1`,
		orderID,
	).Scan(&o.ID, &o.CustomerID, &o.PaymentStatus, &o.PlacedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select order: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT oi.id, oi.product_id, p.title, oi.quantity, oi.unit_price
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = $1
		ORDER BY oi.product_id`,
		o.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("select order_items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.Product.ID, &it.Product.Title, &it.Quantity, &it.UnitPrice); err != nil {
			return nil, fmt.Errorf("scan order_item: %w", err)
		}
		o.Items = append(o.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	o.recalcTotal()
	return &o, nil
}

func (r *repo) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	return r.list(ctx, `
		SELECT o.id, o.customer_id, o.payment_status, o.placed_at,
		       oi.id, oi.product_id, p.title, oi.quantity, oi.unit_price
		FROM orders o
		JOIN customers c ON c.id = o.customer_id
		LEFT JOIN order_items oi ON oi.order_id = o.id
		LEFT JOIN products p ON p.id = oi.product_id
		WHERE c.user_id = $1
		ORDER BY o.placed_at DESC, o.id, oi.product_id`,
		userID)
}

func (r *repo) ListAll(ctx context.Context) ([]Order, error) {
	return r.list(ctx, `
		SELECT o.id, o.customer_id, o.payment_status, o.placed_at,
		       oi.id, oi.product_id, p.title, oi.quantity, oi.unit_price
		FROM orders o
		LEFT JOIN order_items oi ON oi.order_id = o.id
		LEFT JOIN products p ON p.id = oi.product_id
		ORDER BY o.placed_at DESC, o.id, oi.product_id`)
}

func (r *repo) list(ctx context.Context, query string, args ...any) ([]Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		var (
			o         Order
			itemID    sql.NullString
			productID sql.NullString
			title     sql.NullString
			quantity  sql.NullInt64
			unitPrice sql.NullString
		)
		if err := rows.Scan(&o.ID, &o.CustomerID, &o.PaymentStatus, &o.PlacedAt,
			&itemID, &productID, &title, &quantity, &unitPrice); err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}

		if len(orders) == 0 || orders[len(orders)-1].ID != o.ID {
			orders = append(orders, o)
		}
		if itemID.Valid {
			last := &orders[len(orders)-1]
			it := Item{
				ID:       itemID.String,
				Product:  Product{ID: productID.String, Title: title.String},
				Quantity: int(quantity.Int64),
			}
			if err := it.UnitPrice.Scan(unitPrice.String); err != nil {
				return nil, fmt.Errorf("scan unit_price: %w", err)
			}
			last.Items = append(last.Items, it)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	for i := range orders {
		orders[i].recalcTotal()
	}
	return orders, nil
}

func (r *repo) SetPaymentStatus(ctx context.Context, orderID string, status Status) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE orders SET payment_status = $2 WHERE id = $1`,
		orderID, status,
	)
	if err != nil {
		return false, fmt.Errorf("update payment_status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// txError wraps storage errors from inside the checkout transaction, marking
// lock-timeout, serialization and deadlock failures as retryable.
func txError(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "55P03", "40001", "40P01": // lock_not_available, serialization_failure, deadlock_detected
			return fmt.Errorf("%s: %w: %v", op, ErrTxRetryable, err)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
