package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/velezd/cart-service/internal/domain"
	"github.com/velezd/cart-service/internal/repository"
)

type ItemHandler struct {
	items   repository.ItemRepository
	timeout time.Duration
}

func NewItemHandler(items repository.ItemRepository, timeout time.Duration) *ItemHandler {
	return &ItemHandler{
		items:   items,
		timeout: timeout,
	}
}

type CreateItemRequestDTO struct {
	ID            string  `json:"id,omitempty"`
	Name          string  `json:"name"`
	Description   string  `json:"description,omitempty"`
	UnitPrice     float64 `json:"unit_price"`
	OfferTier     string  `json:"offer_tier,omitempty"`
	StockQuantity int64   `json:"stock_quantity"`
}

func (h *ItemHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	items, err := h.items.ListItems(ctx)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, items)
}

func (h *ItemHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id := chi.URLParam(r, "id")
	item, err := h.items.GetItem(ctx, id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, item)
}

func (h *ItemHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req CreateItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "invalid_name", "name is required")
		return
	}
	if req.UnitPrice < 0 {
		respondError(w, http.StatusBadRequest, "invalid_price", "unit_price must not be negative")
		return
	}
	if req.StockQuantity < 0 {
		respondError(w, http.StatusBadRequest, "invalid_stock", "stock_quantity must not be negative")
		return
	}

	tier := domain.OfferTier(req.OfferTier)
	if req.OfferTier == "" {
		tier = domain.OfferNone
	}
	if !tier.Valid() {
		respondError(w, http.StatusBadRequest, "invalid_offer_tier", "unrecognized offer tier")
		return
	}

	item := &domain.Item{
		ID:            req.ID,
		Name:          req.Name,
		Description:   req.Description,
		UnitPrice:     req.UnitPrice,
		OfferTier:     tier,
		StockQuantity: req.StockQuantity,
	}
	if err := h.items.CreateItem(ctx, item); err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, item)
}
