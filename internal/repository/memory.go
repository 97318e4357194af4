package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/velezd/cart-service/internal/domain"
)

// In-memory implementations of the repository interfaces, backed by plain
// maps under an RWMutex. They share the service layer with the MongoDB
// implementations, so the aggregation and checkout logic is written once and
// exercised against either backend.

type MemoryCartRepository struct {
	mu    sync.RWMutex
	carts map[string]*domain.Cart // userID -> cart
}

func NewMemoryCartRepository() *MemoryCartRepository {
	return &MemoryCartRepository{
		carts: make(map[string]*domain.Cart),
	}
}

func (m *MemoryCartRepository) GetCart(_ context.Context, userID string) (*domain.Cart, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cart, exists := m.carts[userID]
	if !exists {
		return nil, ErrCartNotFound
	}

	copied := *cart
	copied.Lines = append([]domain.CartLine(nil), cart.Lines...)
	return &copied, nil
}

func (m *MemoryCartRepository) UpsertCart(_ context.Context, cart *domain.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	if cart.CreatedAt.IsZero() {
		cart.CreatedAt = now
	}
	cart.UpdatedAt = now

	copied := *cart
	copied.Lines = append([]domain.CartLine(nil), cart.Lines...)
	m.carts[cart.UserID] = &copied
	return nil
}

func (m *MemoryCartRepository) DeleteCart(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.carts[userID]; !exists {
		return ErrCartNotFound
	}
	delete(m.carts, userID)
	return nil
}

type MemoryItemRepository struct {
	mu    sync.RWMutex
	items map[string]*domain.Item
}

func NewMemoryItemRepository() *MemoryItemRepository {
	return &MemoryItemRepository{
		items: make(map[string]*domain.Item),
	}
}

func (m *MemoryItemRepository) GetItem(_ context.Context, itemID string) (*domain.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	item, exists := m.items[itemID]
	if !exists {
		return nil, ErrItemNotFound
	}
	copied := *item
	return &copied, nil
}

func (m *MemoryItemRepository) ListItems(_ context.Context) ([]*domain.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	items := make([]*domain.Item, 0, len(m.items))
	for _, item := range m.items {
		copied := *item
		items = append(items, &copied)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

func (m *MemoryItemRepository) CreateItem(_ context.Context, item *domain.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	item.CreatedAt = now
	item.UpdatedAt = now

	copied := *item
	m.items[item.ID] = &copied
	return nil
}

func (m *MemoryItemRepository) DecrementStock(_ context.Context, itemID string, qty int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, exists := m.items[itemID]
	if !exists || item.StockQuantity < qty {
		return ErrInsufficientStock
	}
	item.StockQuantity -= qty
	item.UpdatedAt = time.Now()
	return nil
}

func (m *MemoryItemRepository) SetAverageRating(_ context.Context, itemID string, avg float64, count int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, exists := m.items[itemID]
	if !exists {
		return ErrItemNotFound
	}
	item.AverageRating = avg
	item.RatingCount = count
	item.UpdatedAt = time.Now()
	return nil
}

type MemoryTransactionRepository struct {
	mu  sync.RWMutex
	txs map[string]*domain.Transaction
}

func NewMemoryTransactionRepository() *MemoryTransactionRepository {
	return &MemoryTransactionRepository{
		txs: make(map[string]*domain.Transaction),
	}
}

func (m *MemoryTransactionRepository) Create(_ context.Context, tx *domain.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = now
	}
	tx.UpdatedAt = now

	copied := *tx
	copied.Items = append([]domain.TransactionItem(nil), tx.Items...)
	m.txs[tx.ID] = &copied
	return nil
}

func (m *MemoryTransactionRepository) GetByID(_ context.Context, id string) (*domain.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tx, exists := m.txs[id]
	if !exists {
		return nil, ErrTransactionNotFound
	}
	copied := *tx
	copied.Items = append([]domain.TransactionItem(nil), tx.Items...)
	return &copied, nil
}

func (m *MemoryTransactionRepository) ListByUser(_ context.Context, userID string) ([]*domain.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var txs []*domain.Transaction
	for _, tx := range m.txs {
		if tx.UserID != userID {
			continue
		}
		copied := *tx
		copied.Items = append([]domain.TransactionItem(nil), tx.Items...)
		txs = append(txs, &copied)
	}
	sort.Slice(txs, func(i, j int) bool { return txs[i].CreatedAt.After(txs[j].CreatedAt) })
	return txs, nil
}

func (m *MemoryTransactionRepository) UpdateStatus(_ context.Context, id string, status domain.TransactionStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx, exists := m.txs[id]
	if !exists {
		return ErrTransactionNotFound
	}
	tx.Status = status
	tx.UpdatedAt = time.Now()
	return nil
}

func (m *MemoryTransactionRepository) FindPurchase(_ context.Context, userID, itemID string) (*domain.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var found *domain.Transaction
	for _, tx := range m.txs {
		if tx.UserID != userID || tx.Status != domain.TransactionStatusCompleted {
			continue
		}
		if !tx.Contains(itemID) {
			continue
		}
		if found == nil || tx.CreatedAt.After(found.CreatedAt) {
			found = tx
		}
	}
	if found == nil {
		return nil, ErrTransactionNotFound
	}
	copied := *found
	copied.Items = append([]domain.TransactionItem(nil), found.Items...)
	return &copied, nil
}

type MemoryRatingRepository struct {
	mu      sync.RWMutex
	ratings map[string]*domain.Rating // userID + "/" + itemID
}

func NewMemoryRatingRepository() *MemoryRatingRepository {
	return &MemoryRatingRepository{
		ratings: make(map[string]*domain.Rating),
	}
}

func ratingKey(userID, itemID string) string {
	return userID + "/" + itemID
}

func (m *MemoryRatingRepository) Upsert(_ context.Context, rating *domain.Rating) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	key := ratingKey(rating.UserID, rating.ItemID)
	if existing, exists := m.ratings[key]; exists {
		existing.Value = rating.Value
		existing.Review = rating.Review
		existing.TransactionID = rating.TransactionID
		existing.UpdatedAt = now
		return nil
	}

	rating.CreatedAt = now
	rating.UpdatedAt = now
	copied := *rating
	m.ratings[key] = &copied
	return nil
}

func (m *MemoryRatingRepository) GetByUserAndItem(_ context.Context, userID, itemID string) (*domain.Rating, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rating, exists := m.ratings[ratingKey(userID, itemID)]
	if !exists {
		return nil, ErrRatingNotFound
	}
	copied := *rating
	return &copied, nil
}

func (m *MemoryRatingRepository) DeleteByUserAndItem(_ context.Context, userID, itemID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := ratingKey(userID, itemID)
	if _, exists := m.ratings[key]; !exists {
		return ErrRatingNotFound
	}
	delete(m.ratings, key)
	return nil
}

func (m *MemoryRatingRepository) ListByItem(_ context.Context, itemID string) ([]*domain.Rating, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var ratings []*domain.Rating
	for _, rating := range m.ratings {
		if rating.ItemID != itemID {
			continue
		}
		copied := *rating
		ratings = append(ratings, &copied)
	}
	sort.Slice(ratings, func(i, j int) bool { return ratings[i].UserID < ratings[j].UserID })
	return ratings, nil
}
