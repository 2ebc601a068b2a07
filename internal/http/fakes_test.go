package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cozanostra7/shopstore/internal/cart"
	"github.com/cozanostra7/shopstore/internal/catalog"
	"github.com/cozanostra7/shopstore/internal/customer"
	"github.com/cozanostra7/shopstore/internal/order"
	"github.com/cozanostra7/shopstore/internal/review"
)

// Struct-of-funcs fakes: a test sets only the methods the route under test
// reaches. An unset method being called is a test bug, so it panics.

type fakeCatalog struct {
	listProducts     func(ctx context.Context, p catalog.ListParams) ([]catalog.Product, error)
	getProduct       func(ctx context.Context, productID string) (*catalog.Product, error)
	createProduct    func(ctx context.Context, p *catalog.Product) error
	updateProduct    func(ctx context.Context, p *catalog.Product) (bool, error)
	deleteProduct    func(ctx context.Context, productID string) (bool, error)
	listCollections  func(ctx context.Context) ([]catalog.Collection, error)
	getCollection    func(ctx context.Context, collectionID string) (*catalog.Collection, error)
	createCollection func(ctx context.Context, c *catalog.Collection) error
	updateCollection func(ctx context.Context, c *catalog.Collection) (bool, error)
	deleteCollection func(ctx context.Context, collectionID string) (bool, error)
}

func (f *fakeCatalog) ListProducts(ctx context.Context, p catalog.ListParams) ([]catalog.Product, error) {
	return f.listProducts(ctx, p)
}
func (f *fakeCatalog) GetProduct(ctx context.Context, productID string) (*catalog.Product, error) {
	return f.getProduct(ctx, productID)
}
func (f *fakeCatalog) CreateProduct(ctx context.Context, p *catalog.Product) error {
	return f.createProduct(ctx, p)
}
func (f *fakeCatalog) UpdateProduct(ctx context.Context, p *catalog.Product) (bool, error) {
	return f.updateProduct(ctx, p)
}
func (f *fakeCatalog) DeleteProduct(ctx context.Context, productID string) (bool, error) {
	return f.deleteProduct(ctx, productID)
}
func (f *fakeCatalog) ListCollections(ctx context.Context) ([]catalog.Collection, error) {
	return f.listCollections(ctx)
}
func (f *fakeCatalog) GetCollection(ctx context.Context, collectionID string) (*catalog.Collection, error) {
	return f.getCollection(ctx, collectionID)
}
func (f *fakeCatalog) CreateCollection(ctx context.Context, c *catalog.Collection) error {
	return f.createCollection(ctx, c)
}
func (f *fakeCatalog) UpdateCollection(ctx context.Context, c *catalog.Collection) (bool, error) {
	return f.updateCollection(ctx, c)
}
func (f *fakeCatalog) DeleteCollection(ctx context.Context, collectionID string) (bool, error) {
	return f.deleteCollection(ctx, collectionID)
}

type fakeCarts struct {
	create     func(ctx context.Context) (*cart.Cart, error)
	get        func(ctx context.Context, cartID string) (*cart.Cart, error)
	delete     func(ctx context.Context, cartID string) error
	listItems  func(ctx context.Context, cartID string) ([]cart.Item, error)
	addItem    func(ctx context.Context, cartID, productID string, quantity int) (*cart.Item, error)
	updateItem func(ctx context.Context, cartID, itemID string, quantity int) (*cart.Item, error)
	removeItem func(ctx context.Context, cartID, itemID string) error
}

func (f *fakeCarts) Create(ctx context.Context) (*cart.Cart, error) { return f.create(ctx) }
func (f *fakeCarts) Get(ctx context.Context, cartID string) (*cart.Cart, error) {
	return f.get(ctx, cartID)
}
func (f *fakeCarts) Delete(ctx context.Context, cartID string) error { return f.delete(ctx, cartID) }
func (f *fakeCarts) ListItems(ctx context.Context, cartID string) ([]cart.Item, error) {
	return f.listItems(ctx, cartID)
}
func (f *fakeCarts) AddItem(ctx context.Context, cartID, productID string, quantity int) (*cart.Item, error) {
	return f.addItem(ctx, cartID, productID, quantity)
}
func (f *fakeCarts) UpdateItemQuantity(ctx context.Context, cartID, itemID string, quantity int) (*cart.Item, error) {
	return f.updateItem(ctx, cartID, itemID, quantity)
}
func (f *fakeCarts) RemoveItem(ctx context.Context, cartID, itemID string) error {
	return f.removeItem(ctx, cartID, itemID)
}

type fakeOrders struct {
	getByID          func(ctx context.Context, orderID string) (*order.Order, error)
	listByUser       func(ctx context.Context, userID string) ([]order.Order, error)
	listAll          func(ctx context.Context) ([]order.Order, error)
	setPaymentStatus func(ctx context.Context, orderID string, status order.Status) (bool, error)
}

func (f *fakeOrders) PlaceOrder(ctx context.Context, cartID, userID string) (*order.Order, error) {
	panic("handlers place orders through the checkout service")
}
func (f *fakeOrders) GetByID(ctx context.Context, orderID string) (*order.Order, error) {
	return f.getByID(ctx, orderID)
}
func (f *fakeOrders) ListByUser(ctx context.Context, userID string) ([]order.Order, error) {
	return f.listByUser(ctx, userID)
}
func (f *fakeOrders) ListAll(ctx context.Context) ([]order.Order, error) {
	return f.listAll(ctx)
}
func (f *fakeOrders) SetPaymentStatus(ctx context.Context, orderID string, status order.Status) (bool, error) {
	return f.setPaymentStatus(ctx, orderID, status)
}

type fakePlacer struct {
	placeOrder func(ctx context.Context, cartID, userID string) (*order.Order, error)
}

func (f *fakePlacer) PlaceOrder(ctx context.Context, cartID, userID string) (*order.Order, error) {
	return f.placeOrder(ctx, cartID, userID)
}

type fakeCustomers struct {
	getByUserID func(ctx context.Context, userID string) (*customer.Customer, error)
	getOrCreate func(ctx context.Context, userID string) (*customer.Customer, error)
	update      func(ctx context.Context, c *customer.Customer) (bool, error)
	list        func(ctx context.Context) ([]customer.Customer, error)
}

func (f *fakeCustomers) GetByUserID(ctx context.Context, userID string) (*customer.Customer, error) {
	return f.getByUserID(ctx, userID)
}
func (f *fakeCustomers) GetOrCreate(ctx context.Context, userID string) (*customer.Customer, error) {
	return f.getOrCreate(ctx, userID)
}
func (f *fakeCustomers) Update(ctx context.Context, c *customer.Customer) (bool, error) {
	return f.update(ctx, c)
}
func (f *fakeCustomers) List(ctx context.Context) ([]customer.Customer, error) {
	return f.list(ctx)
}

type fakeReviews struct {
	listByProduct func(ctx context.Context, productID string) ([]review.Review, error)
	create        func(ctx context.Context, rev *review.Review) error
}

func (f *fakeReviews) ListByProduct(ctx context.Context, productID string) ([]review.Review, error) {
	return f.listByProduct(ctx, productID)
}
func (f *fakeReviews) Create(ctx context.Context, rev *review.Review) error {
	return f.create(ctx, rev)
}

func newTestRouter(d Deps) http.Handler {
	if d.Catalog == nil {
		d.Catalog = &fakeCatalog{}
	}
	if d.Carts == nil {
		d.Carts = &fakeCarts{}
	}
	if d.Orders == nil {
		d.Orders = &fakeOrders{}
	}
	if d.Customers == nil {
		d.Customers = &fakeCustomers{}
	}
	if d.Reviews == nil {
		d.Reviews = &fakeReviews{}
	}
	if d.Checkout == nil {
		d.Checkout = &fakePlacer{}
	}
	return NewRouter(d)
}

func doRequest(t *testing.T, h http.Handler, method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func asUser(userID string) map[string]string {
	return map[string]string{HeaderUserID: userID}
}

func asAdmin(userID string) map[string]string {
	return map[string]string{HeaderUserID: userID, HeaderAdmin: "true"}
}
