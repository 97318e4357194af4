package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/velezd/cart-service/internal/domain"
	"github.com/velezd/cart-service/internal/repository"
)

type ratingFixture struct {
	sut   *RatingService
	items *repository.MemoryItemRepository
	txs   *repository.MemoryTransactionRepository
}

func newRatingFixture(t *testing.T) *ratingFixture {
	t.Helper()
	items := repository.NewMemoryItemRepository()
	txs := repository.NewMemoryTransactionRepository()
	seedItem(t, items, "sku-1", 10.00, domain.OfferNone, 100)

	return &ratingFixture{
		sut:   NewRatingService(items, txs, repository.NewMemoryRatingRepository()),
		items: items,
		txs:   txs,
	}
}

func (f *ratingFixture) recordPurchase(t *testing.T, txID, userID, itemID string, status domain.TransactionStatus) {
	t.Helper()
	err := f.txs.Create(context.Background(), &domain.Transaction{
		ID:     txID,
		UserID: userID,
		Items:  []domain.TransactionItem{{ItemID: itemID, PaidQuantity: 1}},
		Status: status,
	})
	require.NoError(t, err)
}

func TestRateItem_InvalidValue(t *testing.T) {
	f := newRatingFixture(t)

	for _, v := range []int{0, -1, 6, 100} {
		_, err := f.sut.RateItem(context.Background(), "u1", "sku-1", v, "")
		require.ErrorIs(t, err, ErrInvalidRating, "value %d", v)
	}
}

func TestRateItem_UnknownItem(t *testing.T) {
	f := newRatingFixture(t)

	_, err := f.sut.RateItem(context.Background(), "u1", "missing", 5, "")
	require.ErrorIs(t, err, repository.ErrItemNotFound)
}

func TestRateItem_NotPurchased(t *testing.T) {
	f := newRatingFixture(t)

	_, err := f.sut.RateItem(context.Background(), "u1", "sku-1", 5, "")
	require.ErrorIs(t, err, ErrNotPurchased)

	// a non-COMPLETED transaction does not qualify either
	f.recordPurchase(t, "tx-1", "u1", "sku-1", domain.TransactionStatusRefunded)
	_, err = f.sut.RateItem(context.Background(), "u1", "sku-1", 5, "")
	require.ErrorIs(t, err, ErrNotPurchased)
}

func TestRateItem_Create(t *testing.T) {
	f := newRatingFixture(t)
	f.recordPurchase(t, "tx-1", "u1", "sku-1", domain.TransactionStatusCompleted)

	rating, err := f.sut.RateItem(context.Background(), "u1", "sku-1", 4, "solid")
	require.NoError(t, err)
	assert.Equal(t, "u1", rating.UserID)
	assert.Equal(t, "sku-1", rating.ItemID)
	assert.Equal(t, 4, rating.Value)
	assert.Equal(t, "solid", rating.Review)
	assert.Equal(t, "tx-1", rating.TransactionID)

	item, err := f.items.GetItem(context.Background(), "sku-1")
	require.NoError(t, err)
	assert.Equal(t, 4.0, item.AverageRating)
	assert.Equal(t, int64(1), item.RatingCount)
}

// Rating the same item again replaces the previous rating; it never becomes
// a second one.
func TestRateItem_UpdateInPlace(t *testing.T) {
	f := newRatingFixture(t)
	f.recordPurchase(t, "tx-1", "u1", "sku-1", domain.TransactionStatusCompleted)

	_, err := f.sut.RateItem(context.Background(), "u1", "sku-1", 2, "meh")
	require.NoError(t, err)

	rating, err := f.sut.RateItem(context.Background(), "u1", "sku-1", 5, "grew on me")
	require.NoError(t, err)
	assert.Equal(t, 5, rating.Value)
	assert.Equal(t, "grew on me", rating.Review)

	ratings, err := f.sut.ListForItem(context.Background(), "sku-1")
	require.NoError(t, err)
	require.Len(t, ratings, 1)

	item, err := f.items.GetItem(context.Background(), "sku-1")
	require.NoError(t, err)
	assert.Equal(t, 5.0, item.AverageRating)
	assert.Equal(t, int64(1), item.RatingCount)
}

func TestRateItem_AverageAcrossUsers(t *testing.T) {
	f := newRatingFixture(t)
	f.recordPurchase(t, "tx-1", "u1", "sku-1", domain.TransactionStatusCompleted)
	f.recordPurchase(t, "tx-2", "u2", "sku-1", domain.TransactionStatusCompleted)
	f.recordPurchase(t, "tx-3", "u3", "sku-1", domain.TransactionStatusCompleted)

	_, err := f.sut.RateItem(context.Background(), "u1", "sku-1", 5, "")
	require.NoError(t, err)
	_, err = f.sut.RateItem(context.Background(), "u2", "sku-1", 4, "")
	require.NoError(t, err)
	_, err = f.sut.RateItem(context.Background(), "u3", "sku-1", 4, "")
	require.NoError(t, err)

	item, err := f.items.GetItem(context.Background(), "sku-1")
	require.NoError(t, err)
	// (5+4+4)/3 = 4.333... rounded to one decimal
	assert.Equal(t, 4.3, item.AverageRating)
	assert.Equal(t, int64(3), item.RatingCount)
}

func TestDeleteRating_RecomputesAverage(t *testing.T) {
	f := newRatingFixture(t)
	f.recordPurchase(t, "tx-1", "u1", "sku-1", domain.TransactionStatusCompleted)
	f.recordPurchase(t, "tx-2", "u2", "sku-1", domain.TransactionStatusCompleted)

	_, err := f.sut.RateItem(context.Background(), "u1", "sku-1", 5, "")
	require.NoError(t, err)
	_, err = f.sut.RateItem(context.Background(), "u2", "sku-1", 1, "")
	require.NoError(t, err)

	require.NoError(t, f.sut.DeleteRating(context.Background(), "u2", "sku-1"))

	item, err := f.items.GetItem(context.Background(), "sku-1")
	require.NoError(t, err)
	assert.Equal(t, 5.0, item.AverageRating)
	assert.Equal(t, int64(1), item.RatingCount)

	// deleting the last rating resets the average to zero
	require.NoError(t, f.sut.DeleteRating(context.Background(), "u1", "sku-1"))
	item, err = f.items.GetItem(context.Background(), "sku-1")
	require.NoError(t, err)
	assert.Equal(t, 0.0, item.AverageRating)
	assert.Equal(t, int64(0), item.RatingCount)
}

func TestDeleteRating_NotFound(t *testing.T) {
	f := newRatingFixture(t)

	err := f.sut.DeleteRating(context.Background(), "u1", "sku-1")
	require.ErrorIs(t, err, repository.ErrRatingNotFound)
}

func TestListForItem_UnknownItem(t *testing.T) {
	f := newRatingFixture(t)

	_, err := f.sut.ListForItem(context.Background(), "missing")
	require.ErrorIs(t, err, repository.ErrItemNotFound)
}
