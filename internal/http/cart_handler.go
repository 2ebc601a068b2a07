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
)

type CartHandler struct {
	repo cart.Repository
}

func NewCartHandler(repo cart.Repository) *CartHandler {
	return &CartHandler{repo: repo}
}

func (h *CartHandler) CreateCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	c, err := h.repo.Create(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create cart")
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	cartID, ok := cartIDFromPath(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	c, err := h.repo.Get(ctx, cartID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load cart")
		return
	}
	if c == nil {
		writeError(w, http.StatusNotFound, "cart not found")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *CartHandler) DeleteCart(w http.ResponseWriter, r *http.Request) {
	cartID, ok := cartIDFromPath(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.repo.Delete(ctx, cartID); err != nil {
		if errors.Is(err, cart.ErrCartNotFound) {
			writeError(w, http.StatusNotFound, "cart not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete cart")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	cartID, ok := cartIDFromPath(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	c, err := h.repo.Get(ctx, cartID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load cart items")
		return
	}
	if c == nil {
		writeError(w, http.StatusNotFound, "cart not found")
		return
	}
	items := c.Items
	if items == nil {
		items = []cart.Item{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	cartID, ok := cartIDFromPath(w, r)
	if !ok {
		return
	}

	var body struct {
		ProductID string `json:"productId"`
		Quantity  int    `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if body.ProductID == "" {
		writeFieldError(w, "productId", "productId is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	it, err := h.repo.AddItem(ctx, cartID, body.ProductID, body.Quantity)
	if err != nil {
		switch {
		case errors.Is(err, cart.ErrInvalidQuantity):
			writeFieldError(w, "quantity", "quantity must be a positive integer")
		case errors.Is(err, cart.ErrProductNotFound):
			writeError(w, http.StatusNotFound, "product not found")
		case errors.Is(err, cart.ErrCartNotFound):
			writeError(w, http.StatusNotFound, "cart not found")
		default:
			writeError(w, http.StatusInternalServerError, "failed to add item")
		}
		return
	}
	writeJSON(w, http.StatusCreated, it)
}

func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	cartID, ok := cartIDFromPath(w, r)
	if !ok {
		return
	}
	itemID := chi.URLParam(r, "itemID")

	var body struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	it, err := h.repo.UpdateItemQuantity(ctx, cartID, itemID, body.Quantity)
	if err != nil {
		switch {
		case errors.Is(err, cart.ErrInvalidQuantity):
			writeFieldError(w, "quantity", "quantity must be a positive integer")
		case errors.Is(err, cart.ErrItemNotFound):
			writeError(w, http.StatusNotFound, "cart item not found")
		default:
			writeError(w, http.StatusInternalServerError, "failed to update item")
		}
		return
	}
	writeJSON(w, http.StatusOK, it)
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	cartID, ok := cartIDFromPath(w, r)
	if !ok {
		return
	}
	itemID := chi.URLParam(r, "itemID")

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.repo.RemoveItem(ctx, cartID, itemID); err != nil {
		if errors.Is(err, cart.ErrItemNotFound) {
			writeError(w, http.StatusNotFound, "cart item not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to remove item")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// cartIDFromPath validates the path segment before it reaches the database:
// cart identifiers are UUIDs, and a malformed one is a client error, not a
// missing cart.
func cartIDFromPath(w http.ResponseWriter, r *http.Request) (string, bool) {
	raw := chi.URLParam(r, "cartID")
	id, err := uuid.Parse(raw)
	if err != nil {
		writeFieldError(w, "cartId", "invalid cart id")
		return "", false
	}
	return id.String(), true
}
