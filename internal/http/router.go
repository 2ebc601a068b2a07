package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/cozanostra7/shopstore/internal/cart"
	"github.com/cozanostra7/shopstore/internal/catalog"
	"github.com/cozanostra7/shopstore/internal/customer"
	"github.com/cozanostra7/shopstore/internal/order"
	"github.com/cozanostra7/shopstore/internal/review"
)

type Deps struct {
	Catalog   catalog.Repository
	Carts     cart.Repository
	Orders    order.Repository
	Customers customer.Repository
	Reviews   review.Repository
	Checkout  OrderPlacer
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(Identity)

	r.Get("/health", healthHandler)

	catalogHandler := NewCatalogHandler(d.Catalog)
	cartHandler := NewCartHandler(d.Carts)
	orderHandler := NewOrderHandler(d.Checkout, d.Orders, d.Customers)
	customerHandler := NewCustomerHandler(d.Customers)
	reviewHandler := NewReviewHandler(d.Reviews)

	r.Route("/products", func(r chi.Router) {
		r.Get("/", catalogHandler.ListProducts)
		r.Get("/{productID}", catalogHandler.GetProduct)
		r.Get("/{productID}/reviews", reviewHandler.ListReviews)
		r.Post("/{productID}/reviews", reviewHandler.CreateReview)

		r.Group(func(r chi.Router) {
			r.Use(RequireAdmin)
			r.Post("/", catalogHandler.CreateProduct)
			r.Put("/{productID}", catalogHandler.UpdateProduct)
			r.Delete("/{productID}", catalogHandler.DeleteProduct)
		})
	})

	r.Route("/collections", func(r chi.Router) {
		r.Get("/", catalogHandler.ListCollections)
		r.Get("/{collectionID}", catalogHandler.GetCollection)

		r.Group(func(r chi.Router) {
			r.Use(RequireAdmin)
			r.Post("/", catalogHandler.CreateCollection)
			r.Put("/{collectionID}", catalogHandler.UpdateCollection)
			r.Delete("/{collectionID}", catalogHandler.DeleteCollection)
		})
	})

	// Carts are anonymous: whoever holds the id controls the cart.
	r.Route("/carts", func(r chi.Router) {
		r.Post("/", cartHandler.CreateCart)
		r.Get("/{cartID}", cartHandler.GetCart)
		r.Delete("/{cartID}", cartHandler.DeleteCart)
		r.Get("/{cartID}/items", cartHandler.ListItems)
		r.Post("/{cartID}/items", cartHandler.AddItem)
		r.Patch("/{cartID}/items/{itemID}", cartHandler.UpdateItem)
		r.Delete("/{cartID}/items/{itemID}", cartHandler.RemoveItem)
	})

	r.Route("/orders", func(r chi.Router) {
		r.Use(RequireUser)
		r.Post("/", orderHandler.PlaceOrder)
		r.Get("/", orderHandler.ListOrders)
		r.Get("/{orderID}", orderHandler.GetOrder)

		r.Group(func(r chi.Router) {
			r.Use(RequireAdmin)
			r.Patch("/{orderID}", orderHandler.SetPaymentStatus)
		})
	})

	r.Route("/customers", func(r chi.Router) {
		r.With(RequireAdmin).Get("/", customerHandler.ListCustomers)

		r.Group(func(r chi.Router) {
			r.Use(RequireUser)
			r.Get("/me", customerHandler.Me)
			r.Put("/me", customerHandler.UpdateMe)
		})
	})

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "shopstore",
	})
}
