package repository

import (
	"context"
	"errors"

	"github.com/velezd/cart-service/internal/domain"
)

var (
	ErrCartNotFound        = errors.New("cart not found")
	ErrLineNotFound        = errors.New("item not found in cart")
	ErrItemNotFound        = errors.New("item not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrRatingNotFound      = errors.New("rating not found")
	ErrInsufficientStock   = errors.New("insufficient stock")
)

// CartRepository defines the interface for cart data operations.
// Consumers define this interface, not the storage implementation. The
// aggregator always writes the whole document back via UpsertCart so that
// totals and lines change together.
type CartRepository interface {
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)
	UpsertCart(ctx context.Context, cart *domain.Cart) error
	DeleteCart(ctx context.Context, userID string) error
}

// ItemRepository covers the catalog collection, including the stock mutator
// and the persisted average rating.
type ItemRepository interface {
	GetItem(ctx context.Context, itemID string) (*domain.Item, error)
	ListItems(ctx context.Context) ([]*domain.Item, error)
	CreateItem(ctx context.Context, item *domain.Item) error
	// DecrementStock subtracts qty from the item's stock, failing with
	// ErrInsufficientStock rather than going negative.
	DecrementStock(ctx context.Context, itemID string, qty int64) error
	SetAverageRating(ctx context.Context, itemID string, avg float64, count int64) error
}

type TransactionRepository interface {
	Create(ctx context.Context, tx *domain.Transaction) error
	GetByID(ctx context.Context, id string) (*domain.Transaction, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.Transaction, error)
	UpdateStatus(ctx context.Context, id string, status domain.TransactionStatus) error
	// FindPurchase returns a COMPLETED transaction of the user that contains
	// the item, or ErrTransactionNotFound.
	FindPurchase(ctx context.Context, userID, itemID string) (*domain.Transaction, error)
}

type RatingRepository interface {
	Upsert(ctx context.Context, rating *domain.Rating) error
	GetByUserAndItem(ctx context.Context, userID, itemID string) (*domain.Rating, error)
	DeleteByUserAndItem(ctx context.Context, userID, itemID string) error
	ListByItem(ctx context.Context, itemID string) ([]*domain.Rating, error)
}
