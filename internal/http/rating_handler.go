package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/velezd/cart-service/internal/service"
)

type RatingHandler struct {
	ratings *service.RatingService
	timeout time.Duration
}

func NewRatingHandler(ratings *service.RatingService, timeout time.Duration) *RatingHandler {
	return &RatingHandler{
		ratings: ratings,
		timeout: timeout,
	}
}

type RateItemRequestDTO struct {
	Value  int    `json:"value"`
	Review string `json:"review,omitempty"`
}

func (h *RatingHandler) RateItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	itemID := chi.URLParam(r, "id")

	var req RateItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	rating, err := h.ratings.RateItem(ctx, userID, itemID, req.Value, req.Review)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, rating)
}

func (h *RatingHandler) DeleteRating(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	itemID := chi.URLParam(r, "id")

	if err := h.ratings.DeleteRating(ctx, userID, itemID); err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *RatingHandler) ListRatings(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	itemID := chi.URLParam(r, "id")

	ratings, err := h.ratings.ListForItem(ctx, itemID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, ratings)
}
