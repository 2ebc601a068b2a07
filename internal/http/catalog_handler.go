package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/cozanostra7/shopstore/internal/catalog"
)

type CatalogHandler struct {
	repo catalog.Repository
}

func NewCatalogHandler(repo catalog.Repository) *CatalogHandler {
	return &CatalogHandler{repo: repo}
}

func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := catalog.ListParams{
		CollectionID: q.Get("collection_id"),
		Search:       q.Get("search"),
		OrderBy:      q.Get("ordering"),
	}
	params.Limit, _ = strconv.Atoi(q.Get("limit"))
	params.Offset, _ = strconv.Atoi(q.Get("offset"))

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	products, err := h.repo.ListProducts(ctx, params)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load products")
		return
	}
	if products == nil {
		products = []catalog.Product{}
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	p, err := h.repo.GetProduct(ctx, productID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load product")
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type productRequest struct {
	Title        string          `json:"title"`
	Slug         string          `json:"slug"`
	Description  string          `json:"description"`
	UnitPrice    decimal.Decimal `json:"unitPrice"`
	Inventory    int             `json:"inventory"`
	CollectionID string          `json:"collectionId"`
}

func (pr *productRequest) validate(w http.ResponseWriter) bool {
	switch {
	case pr.Title == "":
		writeFieldError(w, "title", "title is required")
	case !pr.UnitPrice.IsPositive():
		writeFieldError(w, "unitPrice", "unitPrice must be positive")
	case pr.Inventory < 0:
		writeFieldError(w, "inventory", "inventory must not be negative")
	case pr.CollectionID == "":
		writeFieldError(w, "collectionId", "collectionId is required")
	default:
		return true
	}
	return false
}

func (h *CatalogHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var body productRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if !body.validate(w) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	p := &catalog.Product{
		Title:        body.Title,
		Slug:         body.Slug,
		Description:  body.Description,
		UnitPrice:    body.UnitPrice,
		Inventory:    body.Inventory,
		CollectionID: body.CollectionID,
	}
	if err := h.repo.CreateProduct(ctx, p); err != nil {
		if errors.Is(err, catalog.ErrCollectionNotFound) {
			writeFieldError(w, "collectionId", "unknown collection")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to create product")
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *CatalogHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var body productRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if !body.validate(w) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	p := &catalog.Product{
		ID:           chi.URLParam(r, "productID"),
		Title:        body.Title,
		Slug:         body.Slug,
		Description:  body.Description,
		UnitPrice:    body.UnitPrice,
		Inventory:    body.Inventory,
		CollectionID: body.CollectionID,
	}
	ok, err := h.repo.UpdateProduct(ctx, p)
	if err != nil {
		if errors.Is(err, catalog.ErrCollectionNotFound) {
			writeFieldError(w, "collectionId", "unknown collection")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update product")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *CatalogHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	ok, err := h.repo.DeleteProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, catalog.ErrProductInUse) {
			writeError(w, http.StatusConflict, "product cannot be deleted, it appears in orders")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete product")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CatalogHandler) ListCollections(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	collections, err := h.repo.ListCollections(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load collections")
		return
	}
	if collections == nil {
		collections = []catalog.Collection{}
	}
	writeJSON(w, http.StatusOK, collections)
}

func (h *CatalogHandler) GetCollection(w http.ResponseWriter, r *http.Request) {
	collectionID := chi.URLParam(r, "collectionID")

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	c, err := h.repo.GetCollection(ctx, collectionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load collection")
		return
	}
	if c == nil {
		writeError(w, http.StatusNotFound, "collection not found")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *CatalogHandler) CreateCollection(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if body.Title == "" {
		writeFieldError(w, "title", "title is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	c := &catalog.Collection{Title: body.Title}
	if err := h.repo.CreateCollection(ctx, c); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create collection")
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *CatalogHandler) UpdateCollection(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if body.Title == "" {
		writeFieldError(w, "title", "title is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	c := &catalog.Collection{ID: chi.URLParam(r, "collectionID"), Title: body.Title}
	ok, err := h.repo.UpdateCollection(ctx, c)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update collection")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "collection not found")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *CatalogHandler) DeleteCollection(w http.ResponseWriter, r *http.Request) {
	collectionID := chi.URLParam(r, "collectionID")

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	ok, err := h.repo.DeleteCollection(ctx, collectionID)
	if err != nil {
		if errors.Is(err, catalog.ErrCollectionInUse) {
			writeError(w, http.StatusConflict, "collection cannot be deleted, it still has products")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete collection")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "collection not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
