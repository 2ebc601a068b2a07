package customer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

type Repository interface {
	GetByUserID(ctx context.Context, userID string) (*Customer, error)
	GetOrCreate(ctx context.Context, userID string) (*Customer, error)
	Update(ctx context.Context, c *Customer) (bool, error)
	List(ctx context.Context) ([]Customer, error)
}

type repo struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repo{db: db}
}

const columns = `id, user_id, phone, birth_date, membership`

func (r *repo) GetByUserID(ctx context.Context, userID string) (*Customer, error) {
	var c Customer
	err := r.db.QueryRowContext(ctx,
		`SELECT `+columns+` FROM customers WHERE user_id = $1`,
		userID,
	).Scan(&c.ID, &c.UserID, &c.Phone, &c.BirthDate, &c.Membership)
	if err != nil {
		// Genuine absence and storage failures must not be conflated: only
		// ErrNoRows means the record does not exist.
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select customer: %w", err)
	}
	return &c, nil
}

// GetOrCreate looks the customer up and inserts a fresh record only on
// absence. The unique constraint on user_id resolves a concurrent first
// request: the loser's insert is a no-op and the follow-up lookup returns the
// winner's row.
func (r *repo) GetOrCreate(ctx context.Context, userID string) (*Customer, error) {
	c, err := r.GetByUserID(ctx, userID)
	if err != nil || c != nil {
		return c, err
	}

	c = &Customer{ID: uuid.NewString(), UserID: userID, Membership: MembershipBronze}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO customers (id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO NOTHING`,
		c.ID, c.UserID,
	)
	if err != nil {
		return nil, fmt.Errorf("insert customer: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if n == 1 {
		return c, nil
	}

	// Lost the race; the row exists now.
	c, err = r.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("customer for user %s vanished after conflict", userID)
	}
	return c, nil
}

func (r *repo) Update(ctx context.Context, c *Customer) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE customers SET phone = $2, birth_date = $3, membership = $4
		WHERE user_id = $1`,
		c.UserID, c.Phone, c.BirthDate, c.Membership,
	)
	if err != nil {
		return false, fmt.Errorf("update customer: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func (r *repo) List(ctx context.Context) ([]Customer, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+columns+` FROM customers ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("select customers: %w", err)
	}
	defer rows.Close()

	var customers []Customer
	for rows.Next() {
		var c Customer
		if err := rows.Scan(&c.ID, &c.UserID, &c.Phone, &c.BirthDate, &c.Membership); err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		customers = append(customers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return customers, nil
}
