package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/cozanostra7/shopstore/internal/customer"
)

type CustomerHandler struct {
	repo customer.Repository
}

func NewCustomerHandler(repo customer.Repository) *CustomerHandler {
	return &CustomerHandler{repo: repo}
}

func (h *CustomerHandler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	customers, err := h.repo.List(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load customers")
		return
	}
	if customers == nil {
		customers = []customer.Customer{}
	}
	writeJSON(w, http.StatusOK, customers)
}

func (h *CustomerHandler) Me(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	c, err := h.repo.GetOrCreate(ctx, UserID(r.Context()))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load customer")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *CustomerHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Phone      string              `json:"phone"`
		BirthDate  *time.Time          `json:"birthDate"`
		Membership customer.Membership `json:"membership"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if body.Membership != "" && !body.Membership.Valid() {
		writeFieldError(w, "membership", "must be one of: bronze, silver, gold")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	c, err := h.repo.GetOrCreate(ctx, UserID(r.Context()))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load customer")
		return
	}

	c.Phone = body.Phone
	c.BirthDate = body.BirthDate
	if body.Membership != "" {
		c.Membership = body.Membership
	}
	if _, err := h.repo.Update(ctx, c); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update customer")
		return
	}
	writeJSON(w, http.StatusOK, c)
}
