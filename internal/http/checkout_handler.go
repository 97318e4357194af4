package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/velezd/cart-service/internal/domain"
	"github.com/velezd/cart-service/internal/service"
)

type CheckoutHandler struct {
	checkout *service.CheckoutService
	timeout  time.Duration
}

func NewCheckoutHandler(checkout *service.CheckoutService, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		checkout: checkout,
		timeout:  timeout,
	}
}

type CheckoutRequestDTO struct {
	PaymentMethod string `json:"payment_method"`
	Notes         string `json:"notes,omitempty"`
}

type UpdateStatusRequestDTO struct {
	Status string `json:"status"`
}

func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	var req CheckoutRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	tx, err := h.checkout.Checkout(ctx, userID, domain.PaymentMethod(req.PaymentMethod), req.Notes)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, tx)
}

func (h *CheckoutHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	txs, err := h.checkout.ListTransactions(ctx, userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, txs)
}

func (h *CheckoutHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	id := chi.URLParam(r, "id")
	tx, err := h.checkout.GetTransaction(ctx, userID, id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, tx)
}

// UpdateStatus is the administrative transition endpoint (CANCELLED,
// REFUNDED); it is not part of the checkout flow itself.
func (h *CheckoutHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id := chi.URLParam(r, "id")

	var req UpdateStatusRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	status := domain.TransactionStatus(req.Status)
	switch status {
	case domain.TransactionStatusPending, domain.TransactionStatusCompleted,
		domain.TransactionStatusCancelled, domain.TransactionStatusRefunded,
		domain.TransactionStatusFailed:
	default:
		respondError(w, http.StatusBadRequest, "invalid_status", "unrecognized transaction status")
		return
	}

	tx, err := h.checkout.UpdateStatus(ctx, id, status)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, tx)
}
