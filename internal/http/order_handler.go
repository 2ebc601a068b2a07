package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/cozanostra7/shopstore/internal/cart"
	"github.com/cozanostra7/shopstore/internal/customer"
	"github.com/cozanostra7/shopstore/internal/order"
)

// OrderPlacer is the slice of the checkout service the handler needs.
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, cartID, userID string) (*order.Order, error)
}

type OrderHandler struct {
	checkout  OrderPlacer
	orders    order.Repository
	customers customer.Repository
}

func NewOrderHandler(checkout OrderPlacer, orders order.Repository, customers customer.Repository) *OrderHandler {
	return &OrderHandler{checkout: checkout, orders: orders, customers: customers}
}

func (h *OrderHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var body struct {
		CartID string `json:"cartId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	cartID, err := uuid.Parse(body.CartID)
	if err != nil {
		writeFieldError(w, "cartId", "invalid cart id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	o, err := h.checkout.PlaceOrder(ctx, cartID.String(), UserID(r.Context()))
	if err != nil {
		switch {
		case errors.Is(err, cart.ErrCartNotFound):
			writeError(w, http.StatusNotFound, "cart not found")
		case errors.Is(err, order.ErrEmptyCart):
			writeFieldError(w, "cartId", "cart is empty")
		case errors.Is(err, order.ErrTxRetryable):
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusServiceUnavailable, "checkout conflicted, retry")
		default:
			// Includes ErrCustomerNotFound: an authenticated user without a
			// customer record is an integration fault, not a client mistake.
			writeError(w, http.StatusInternalServerError, "failed to place order")
		}
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var (
		orders []order.Order
		err    error
	)
	if IsAdmin(r.Context()) {
		orders, err = h.orders.ListAll(ctx)
	} else {
		orders, err = h.orders.ListByUser(ctx, UserID(r.Context()))
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load orders")
		return
	}
	if orders == nil {
		orders = []order.Order{}
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	o, err := h.orders.GetByID(ctx, orderID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load order")
		return
	}
	if o == nil {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}

	if !IsAdmin(r.Context()) {
		c, err := h.customers.GetByUserID(ctx, UserID(r.Context()))
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to resolve customer")
			return
		}
		if c == nil || c.ID != o.CustomerID {
			writeError(w, http.StatusForbidden, "not your order")
			return
		}
	}

	writeJSON(w, http.StatusOK, o)
}

func (h *OrderHandler) SetPaymentStatus(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")

	var body struct {
		PaymentStatus order.Status `json:"paymentStatus"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if !body.PaymentStatus.Valid() {
		writeFieldError(w, "paymentStatus", "must be one of: pending, complete, failed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	ok, err := h.orders.SetPaymentStatus(ctx, orderID, body.PaymentStatus)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update payment status")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"orderId":       orderID,
		"paymentStatus": string(body.PaymentStatus),
	})
}
