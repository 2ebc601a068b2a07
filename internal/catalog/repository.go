package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

var (
	// ErrProductInUse means the product is referenced by at least one order item.
	ErrProductInUse = errors.New("product is referenced by orders")
	// ErrCollectionInUse means the collection still contains products.
	ErrCollectionInUse = errors.New("collection still contains products")
	// ErrCollectionNotFound means a product referenced an unknown collection.
	ErrCollectionNotFound = errors.New("collection not found")
)

type Repository interface {
	ListProducts(ctx context.Context, p ListParams) ([]Product, error)
	GetProduct(ctx context.Context, productID string) (*Product, error)
	CreateProduct(ctx context.Context, p *Product) error
	UpdateProduct(ctx context.Context, p *Product) (bool, error)
	DeleteProduct(ctx context.Context, productID string) (bool, error)

	ListCollections(ctx context.Context) ([]Collection, error)
	GetCollection(ctx context.Context, collectionID string) (*Collection, error)
	CreateCollection(ctx context.Context, c *Collection) error
	UpdateCollection(ctx context.Context, c *Collection) (bool, error)
	DeleteCollection(ctx context.Context, collectionID string) (bool, error)
}

type repo struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repo{db: db}
}

const productColumns = `id, title, slug, description, unit_price, inventory, last_update, collection_id`

func (r *repo) ListProducts(ctx context.Context, p ListParams) ([]Product, error) {
	var (
		where []string
		args  []any
	)
	if p.CollectionID != "" {
		args = append(args, p.CollectionID)
		where = append(where, fmt.Sprintf("collection_id = $%d", len(args)))
	}
	if p.Search != "" {
		args = append(args, "%"+p.Search+"%")
		where = append(where, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d)", len(args), len(args)))
	}

	q := `SELECT ` + productColumns + ` FROM products`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY " + orderClause(p.OrderBy)

	limit := p.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	args = append(args, limit)
	q += fmt.Sprintf(" LIMIT $%d", len(args))
	if p.Offset > 0 {
		args = append(args, p.Offset)
		q += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("select products: %w", err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		var prod Product
		if err := rows.Scan(&prod.ID, &prod.Title, &prod.Slug, &prod.Description,
			&prod.UnitPrice, &prod.Inventory, &prod.LastUpdate, &prod.CollectionID); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, prod)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return products, nil
}

// orderClause whitelists sort keys so ListParams never reaches the SQL verbatim.
func orderClause(orderBy string) string {
	switch orderBy {
	case "unit_price":
		return "unit_price ASC"
	case "-unit_price":
		return "unit_price DESC"
	case "last_update":
		return "last_update ASC"
	case "-last_update":
		return "last_update DESC"
	default:
		return "title ASC"
	}
}

func (r *repo) GetProduct(ctx context.Context, productID string) (*Product, error) {
	var p Product
	err := r.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`,
		productID,
	).Scan(&p.ID, &p.Title, &p.Slug, &p.Description, &p.UnitPrice, &p.Inventory, &p.LastUpdate, &p.CollectionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select product: %w", err)
	}
	return &p, nil
}

func (r *repo) CreateProduct(ctx context.Context, p *Product) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO products (id, title, slug, description, unit_price, inventory, collection_id)
         VALUES ($1, $2, $3, $4, $5, $6, $7)
         RETURNING last_update`,
		p.ID, p.Title, p.Slug, p.Description, p.UnitPrice, p.Inventory, p.CollectionID,
	).Scan(&p.LastUpdate)
	if err != nil {
		if isFKViolation(err, "products_collection_id_fkey") {
			return ErrCollectionNotFound
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (r *repo) UpdateProduct(ctx context.Context, p *Product) (bool, error) {
	err := r.db.QueryRowContext(ctx,
		`UPDATE products
         SET title = $2, slug = $3, description = $4, unit_price = $5, inventory = $6,
             collection_id = $7, last_update = NOW()
         WHERE id = $1
         RETURNING last_update`,
		p.ID, p.Title, p.Slug, p.Description, p.UnitPrice, p.Inventory, p.CollectionID,
	).Scan(&p.LastUpdate)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		if isFKViolation(err, "products_collection_id_fkey") {
			return false, ErrCollectionNotFound
		}
		return false, fmt.Errorf("update product: %w", err)
	}
	return true, nil
}

func (r *repo) DeleteProduct(ctx context.Context, productID string) (bool, error) {
	// Cart items referencing the product cascade; order items block the delete.
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, productID)
	if err != nil {
		if isFKViolation(err, "order_items_product_id_fkey") {
			return false, ErrProductInUse
		}
		return false, fmt.Errorf("delete product: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func (r *repo) ListCollections(ctx context.Context) ([]Collection, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.id, c.title, COUNT(p.id)
		FROM collections c
		LEFT JOIN products p ON p.collection_id = c.id
		GROUP BY c.id, c.title
		ORDER BY c.title`)
	if err != nil {
		return nil, fmt.Errorf("select collections: %w", err)
	}
	defer rows.Close()

	var collections []Collection
	for rows.Next() {
		var c Collection
		if err := rows.Scan(&c.ID, &c.Title, &c.ProductsCount); err != nil {
			return nil, fmt.Errorf("scan collection: %w", err)
		}
		collections = append(collections, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return collections, nil
}

func (r *repo) GetCollection(ctx context.Context, collectionID string) (*Collection, error) {
	var c Collection
	err := r.db.QueryRowContext(ctx, `
		SELECT c.id, c.title, COUNT(p.id)
		FROM collections c
		LEFT JOIN products p ON p.collection_id = c.id
		WHERE c.id = $1
		GROUP BY c.id, c.title`,
		collectionID,
	).Scan(&c.ID, &c.Title, &c.ProductsCount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select collection: %w", err)
	}
	return &c, nil
}

func (r *repo) CreateCollection(ctx context.Context, c *Collection) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO collections (id, title) VALUES ($1, $2)`, c.ID, c.Title); err != nil {
		return fmt.Errorf("insert collection: %w", err)
	}
	return nil
}

func (r *repo) UpdateCollection(ctx context.Context, c *Collection) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE collections SET title = $2 WHERE id = $1`, c.ID, c.Title)
	if err != nil {
		return false, fmt.Errorf("update collection: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func (r *repo) DeleteCollection(ctx context.Context, collectionID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM collections WHERE id = $1`, collectionID)
	if err != nil {
		if isFKViolation(err, "products_collection_id_fkey") {
			return false, ErrCollectionInUse
		}
		return false, fmt.Errorf("delete collection: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func isFKViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23503" && pqErr.Constraint == constraint
	}
	return false
}
