package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cozanostra7/shopstore/internal/review"
)

type ReviewHandler struct {
	repo review.Repository
}

func NewReviewHandler(repo review.Repository) *ReviewHandler {
	return &ReviewHandler{repo: repo}
}

func (h *ReviewHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	reviews, err := h.repo.ListByProduct(ctx, productID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load reviews")
		return
	}
	if reviews == nil {
		reviews = []review.Review{}
	}
	writeJSON(w, http.StatusOK, reviews)
}

func (h *ReviewHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")

	var body struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if body.Name == "" {
		writeFieldError(w, "name", "name is required")
		return
	}
	if body.Description == "" {
		writeFieldError(w, "description", "description is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	rev := &review.Review{
		ProductID:   productID,
		Name:        body.Name,
		Description: body.Description,
	}
	if err := h.repo.Create(ctx, rev); err != nil {
		if errors.Is(err, review.ErrProductNotFound) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to create review")
		return
	}
	writeJSON(w, http.StatusCreated, rev)
}
