package service

import (
	"context"
	"errors"

	"github.com/velezd/cart-service/internal/domain"
	"github.com/velezd/cart-service/internal/repository"
)

// RatingService gates rating submission on proof of purchase: only a user
// with a COMPLETED transaction containing the item may rate it.
type RatingService struct {
	items        repository.ItemRepository
	transactions repository.TransactionRepository
	ratings      repository.RatingRepository
}

func NewRatingService(
	items repository.ItemRepository,
	transactions repository.TransactionRepository,
	ratings repository.RatingRepository,
) *RatingService {
	return &RatingService{
		items:        items,
		transactions: transactions,
		ratings:      ratings,
	}
}

// RateItem creates the user's rating for an item, or updates it in place if
// one already exists. The item's persisted average is recomputed afterwards.
func (s *RatingService) RateItem(ctx context.Context, userID, itemID string, value int, review string) (*domain.Rating, error) {
	if value < 1 || value > 5 {
		return nil, ErrInvalidRating
	}

	if _, err := s.items.GetItem(ctx, itemID); err != nil {
		return nil, err
	}

	purchase, err := s.transactions.FindPurchase(ctx, userID, itemID)
	if err != nil {
		if errors.Is(err, repository.ErrTransactionNotFound) {
			return nil, ErrNotPurchased
		}
		return nil, err
	}

	rating := &domain.Rating{
		UserID:        userID,
		ItemID:        itemID,
		Value:         value,
		Review:        review,
		TransactionID: purchase.ID,
	}
	if err := s.ratings.Upsert(ctx, rating); err != nil {
		return nil, err
	}

	if err := s.recomputeAverage(ctx, itemID); err != nil {
		return nil, err
	}

	return s.ratings.GetByUserAndItem(ctx, userID, itemID)
}

// DeleteRating removes the user's rating and recomputes the item's average
// over the remaining ratings (zero when none remain).
func (s *RatingService) DeleteRating(ctx context.Context, userID, itemID string) error {
	if err := s.ratings.DeleteByUserAndItem(ctx, userID, itemID); err != nil {
		return err
	}

	return s.recomputeAverage(ctx, itemID)
}

func (s *RatingService) ListForItem(ctx context.Context, itemID string) ([]*domain.Rating, error) {
	if _, err := s.items.GetItem(ctx, itemID); err != nil {
		return nil, err
	}
	return s.ratings.ListByItem(ctx, itemID)
}

func (s *RatingService) recomputeAverage(ctx context.Context, itemID string) error {
	ratings, err := s.ratings.ListByItem(ctx, itemID)
	if err != nil {
		return err
	}

	var avg float64
	if len(ratings) > 0 {
		var sum int
		for _, r := range ratings {
			sum += r.Value
		}
		avg = domain.Round1(float64(sum) / float64(len(ratings)))
	}

	return s.items.SetAverageRating(ctx, itemID, avg, int64(len(ratings)))
}
