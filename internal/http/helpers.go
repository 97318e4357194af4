package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/velezd/cart-service/internal/balance"
	"github.com/velezd/cart-service/internal/repository"
	"github.com/velezd/cart-service/internal/service"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error:   message,
		Code:    code,
		Details: "",
	})
}

// handleServiceError maps service and repository errors to HTTP responses.
// Infrastructure failures (balance service down) map to 502 so clients can
// tell a retryable outage from a terminal business decision.
func handleServiceError(w http.ResponseWriter, err error) {
	var httpStatus int
	var code string

	switch {
	case errors.Is(err, service.ErrInvalidQuantity):
		httpStatus = http.StatusBadRequest
		code = "invalid_quantity"
	case errors.Is(err, service.ErrInvalidRating):
		httpStatus = http.StatusBadRequest
		code = "invalid_rating"
	case errors.Is(err, service.ErrInvalidPaymentMethod):
		httpStatus = http.StatusBadRequest
		code = "invalid_payment_method"
	case errors.Is(err, repository.ErrItemNotFound):
		httpStatus = http.StatusNotFound
		code = "item_not_found"
	case errors.Is(err, repository.ErrLineNotFound):
		httpStatus = http.StatusNotFound
		code = "line_not_found"
	case errors.Is(err, repository.ErrCartNotFound):
		httpStatus = http.StatusNotFound
		code = "cart_not_found"
	case errors.Is(err, repository.ErrTransactionNotFound):
		httpStatus = http.StatusNotFound
		code = "transaction_not_found"
	case errors.Is(err, repository.ErrRatingNotFound):
		httpStatus = http.StatusNotFound
		code = "rating_not_found"
	case errors.Is(err, service.ErrOutOfStock):
		httpStatus = http.StatusConflict
		code = "out_of_stock"
	case errors.Is(err, service.ErrEmptyCart):
		httpStatus = http.StatusConflict
		code = "empty_cart"
	case errors.Is(err, service.ErrNotPurchased):
		httpStatus = http.StatusConflict
		code = "not_purchased"
	case errors.Is(err, service.ErrIllegalTransition):
		httpStatus = http.StatusConflict
		code = "illegal_transition"
	case errors.Is(err, service.ErrInsufficientBalance):
		httpStatus = http.StatusPaymentRequired
		code = "insufficient_balance"
	case errors.Is(err, service.ErrPaymentFailed):
		httpStatus = http.StatusPaymentRequired
		code = "payment_failed"
	case errors.Is(err, balance.ErrUnavailable):
		httpStatus = http.StatusBadGateway
		code = "balance_service_unavailable"
	default:
		httpStatus = http.StatusInternalServerError
		code = "internal_error"
	}

	respondError(w, httpStatus, code, err.Error())
}
