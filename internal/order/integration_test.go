package order_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/cozanostra7/shopstore/internal/cart"
	"github.com/cozanostra7/shopstore/internal/catalog"
	"github.com/cozanostra7/shopstore/internal/customer"
	"github.com/cozanostra7/shopstore/internal/order"
	"github.com/cozanostra7/shopstore/internal/testutil"
)

type fixture struct {
	db        *sql.DB
	catalog   catalog.Repository
	carts     cart.Repository
	customers customer.Repository
	orders    order.Repository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, cleanup := testutil.StartPostgres(t)
	t.Cleanup(cleanup)

	return &fixture{
		db:        db,
		catalog:   catalog.NewRepository(db),
		carts:     cart.NewRepository(db),
		customers: customer.NewRepository(db),
		orders:    order.NewRepository(db, 3*time.Second),
	}
}

func (f *fixture) seedProduct(t *testing.T, ctx context.Context, title, price string) *catalog.Product {
	t.Helper()

	coll := &catalog.Collection{Title: "Pantry " + title}
	require.NoError(t, f.catalog.CreateCollection(ctx, coll))

	p := &catalog.Product{
		Title:        title,
		Slug:         title,
		UnitPrice:    decimal.RequireFromString(price),
		Inventory:    100,
		CollectionID: coll.ID,
	}
	require.NoError(t, f.catalog.CreateProduct(ctx, p))
	return p
}

func (f *fixture) seedCheckout(t *testing.T, ctx context.Context, userID string) (cartID string, productID string) {
	t.Helper()

	p := f.seedProduct(t, ctx, "Coffee", "10.00")

	c, err := f.carts.Create(ctx)
	require.NoError(t, err)
	_, err = f.carts.AddItem(ctx, c.ID, p.ID, 2)
	require.NoError(t, err)

	_, err = f.customers.GetOrCreate(ctx, userID)
	require.NoError(t, err)

	return c.ID, p.ID
}

func TestCheckout_MovesCartIntoOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cartID, productID := f.seedCheckout(t, ctx, "user-1")

	o, err := f.orders.PlaceOrder(ctx, cartID, "user-1")
	require.NoError(t, err)
	require.Equal(t, order.StatusPending, o.PaymentStatus)
	require.Len(t, o.Items, 1)
	require.Equal(t, productID, o.Items[0].Product.ID)
	require.Equal(t, 2, o.Items[0].Quantity)
	require.True(t, o.Total.Equal(decimal.RequireFromString("20.00")))

	// The cart and its items are gone after commit.
	c, err := f.carts.Get(ctx, cartID)
	require.NoError(t, err)
	require.Nil(t, c)

	var itemCount int
	require.NoError(t, f.db.QueryRowContext(ctx,
		`SELECT count(*) FROM cart_items WHERE cart_id = $1`, cartID).Scan(&itemCount))
	require.Zero(t, itemCount)

	got, err := f.orders.GetByID(ctx, o.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.True(t, got.Total.Equal(o.Total))
}

func TestCheckout_FreezesPrices(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cartID, productID := f.seedCheckout(t, ctx, "user-1")

	o, err := f.orders.PlaceOrder(ctx, cartID, "user-1")
	require.NoError(t, err)

	p, err := f.catalog.GetProduct(ctx, productID)
	require.NoError(t, err)
	p.UnitPrice = decimal.RequireFromString("99.00")
	ok, err := f.catalog.UpdateProduct(ctx, p)
	require.NoError(t, err)
	require.True(t, ok)

	got, err := f.orders.GetByID(ctx, o.ID)
	require.NoError(t, err)
	require.True(t, got.Items[0].UnitPrice.Equal(decimal.RequireFromString("10.00")))
	require.True(t, got.Total.Equal(decimal.RequireFromString("20.00")))
}

func TestCheckout_DoubleSubmitPlacesOneOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cartID, _ := f.seedCheckout(t, ctx, "user-1")

	_, err := f.orders.PlaceOrder(ctx, cartID, "user-1")
	require.NoError(t, err)

	_, err = f.orders.PlaceOrder(ctx, cartID, "user-1")
	require.ErrorIs(t, err, cart.ErrCartNotFound)

	var orderCount int
	require.NoError(t, f.db.QueryRowContext(ctx,
		`SELECT count(*) FROM orders`).Scan(&orderCount))
	require.Equal(t, 1, orderCount)
}

func TestCheckout_ConcurrentSubmitsPlaceOneOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cartID, _ := f.seedCheckout(t, ctx, "user-1")

	const attempts = 4
	errs := make([]error, attempts)

	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.orders.PlaceOrder(ctx, cartID, "user-1")
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			require.ErrorIs(t, err, cart.ErrCartNotFound)
		}
	}
	require.Equal(t, 1, succeeded)

	var orderCount int
	require.NoError(t, f.db.QueryRowContext(ctx,
		`SELECT count(*) FROM orders`).Scan(&orderCount))
	require.Equal(t, 1, orderCount)
}

func TestCheckout_RejectsEmptyCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.carts.Create(ctx)
	require.NoError(t, err)
	_, err = f.customers.GetOrCreate(ctx, "user-1")
	require.NoError(t, err)

	_, err = f.orders.PlaceOrder(ctx, c.ID, "user-1")
	require.ErrorIs(t, err, order.ErrEmptyCart)

	// The cart survives a rejected checkout.
	got, err := f.carts.Get(ctx, c.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
}

func TestCheckout_MissingCustomerLeavesCartIntact(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p := f.seedProduct(t, ctx, "Coffee", "10.00")
	c, err := f.carts.Create(ctx)
	require.NoError(t, err)
	_, err = f.carts.AddItem(ctx, c.ID, p.ID, 1)
	require.NoError(t, err)

	_, err = f.orders.PlaceOrder(ctx, c.ID, "user-without-profile")
	require.ErrorIs(t, err, order.ErrCustomerNotFound)

	got, err := f.carts.Get(ctx, c.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Len(t, got.Items, 1)

	var orderCount int
	require.NoError(t, f.db.QueryRowContext(ctx,
		`SELECT count(*) FROM orders`).Scan(&orderCount))
	require.Zero(t, orderCount)
}

func TestCart_ConcurrentAddsMergeQuantity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p := f.seedProduct(t, ctx, "Coffee", "10.00")
	c, err := f.carts.Create(ctx)
	require.NoError(t, err)

	const adders = 2
	errs := make([]error, adders)

	var wg sync.WaitGroup
	for i := 0; i < adders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.carts.AddItem(ctx, c.ID, p.ID, 1)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}

	got, err := f.carts.Get(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	require.Equal(t, adders, got.Items[0].Quantity)
}

func TestCustomer_ConcurrentFirstRequestsShareOneRow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const callers = 4
	ids := make([]string, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := f.customers.GetOrCreate(ctx, "user-racy")
			if err == nil {
				ids[i] = c.ID
			}
			errs[i] = err
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	for _, id := range ids[1:] {
		require.Equal(t, ids[0], id)
	}

	var rowCount int
	require.NoError(t, f.db.QueryRowContext(ctx,
		`SELECT count(*) FROM customers WHERE user_id = $1`, "user-racy").Scan(&rowCount))
	require.Equal(t, 1, rowCount)
}
