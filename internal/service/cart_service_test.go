package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/velezd/cart-service/internal/cache"
	"github.com/velezd/cart-service/internal/domain"
	"github.com/velezd/cart-service/internal/repository"
)

type mockCache struct {
	m    sync.RWMutex
	cart *domain.Cart
	err  error
}

func (m *mockCache) Get(context.Context, string) (*domain.Cart, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	if m.cart == nil {
		return nil, cache.ErrCacheMiss
	}
	return m.cart, nil
}

func (m *mockCache) Set(_ context.Context, _ string, cart *domain.Cart) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.cart = cart
	return m.err
}

func (m *mockCache) Delete(context.Context, string) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.cart = nil
	return m.err
}

func (m *mockCache) getCart() *domain.Cart {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.cart
}

type failingCartRepo struct {
	repository.CartRepository
	err error
}

func (f *failingCartRepo) GetCart(context.Context, string) (*domain.Cart, error) {
	return nil, f.err
}

func seedItem(t *testing.T, items repository.ItemRepository, id string, price float64, tier domain.OfferTier, stock int64) {
	t.Helper()
	err := items.CreateItem(context.Background(), &domain.Item{
		ID:            id,
		Name:          "item " + id,
		UnitPrice:     price,
		OfferTier:     tier,
		StockQuantity: stock,
	})
	require.NoError(t, err)
}

func newCartFixture(t *testing.T) (*CartService, *repository.MemoryItemRepository, *mockCache) {
	t.Helper()
	items := repository.NewMemoryItemRepository()
	mockC := &mockCache{}
	sut := NewCartService(repository.NewMemoryCartRepository(), items, mockC)
	return sut, items, mockC
}

func TestGetCart_EmptyWhenAbsent(t *testing.T) {
	sut, _, _ := newCartFixture(t)

	cart, err := sut.GetCart(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", cart.UserID)
	assert.Empty(t, cart.Lines)
	assert.Equal(t, float64(0), cart.FinalPrice)
}

func TestGetCart_CacheHit(t *testing.T) {
	cached := &domain.Cart{
		UserID: "u1",
		Lines:  []domain.CartLine{{ItemID: "sku-1", PaidQuantity: 1}},
	}
	// repo is empty; the cached cart must be served as-is
	sut := NewCartService(repository.NewMemoryCartRepository(), repository.NewMemoryItemRepository(), &mockCache{cart: cached})

	cart, err := sut.GetCart(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, "sku-1", cart.Lines[0].ItemID)
}

func TestGetCart_PopulatesCacheFromRepo(t *testing.T) {
	sut, items, mockC := newCartFixture(t)
	seedItem(t, items, "sku-1", 10.00, domain.OfferNone, 50)

	_, err := sut.AddItem(context.Background(), "u1", "sku-1", 2)
	require.NoError(t, err)

	cart, err := sut.GetCart(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, cart.Lines, 1)

	require.Eventually(t, func() bool {
		return mockC.getCart() != nil
	}, 100*time.Millisecond, 10*time.Millisecond, "cart was not set in cache")
}

func TestGetCart_RepoError(t *testing.T) {
	repo := &failingCartRepo{err: fmt.Errorf("database error")}
	sut := NewCartService(repo, repository.NewMemoryItemRepository(), &mockCache{})

	cart, err := sut.GetCart(context.Background(), "u1")
	require.ErrorContains(t, err, "database error")
	assert.Nil(t, cart)
}

func TestAddItem_InvalidQuantity(t *testing.T) {
	sut, items, _ := newCartFixture(t)
	seedItem(t, items, "sku-1", 10.00, domain.OfferNone, 50)

	_, err := sut.AddItem(context.Background(), "u1", "sku-1", 0)
	require.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = sut.AddItem(context.Background(), "u1", "sku-1", -5)
	require.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestAddItem_UnknownItem(t *testing.T) {
	sut, _, _ := newCartFixture(t)

	_, err := sut.AddItem(context.Background(), "u1", "missing", 1)
	require.ErrorIs(t, err, repository.ErrItemNotFound)
}

// Adding is incremental: 2 units then 3 more resolve as a single line of 5
// under BUY_1_GET_1_FREE, i.e. 3 paid and 2 free.
func TestAddItem_AccumulatesAndResolves(t *testing.T) {
	sut, items, _ := newCartFixture(t)
	seedItem(t, items, "sku-1", 10.00, domain.OfferBuy1Get1Free, 50)

	cart, err := sut.AddItem(context.Background(), "u1", "sku-1", 2)
	require.NoError(t, err)
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, int64(1), cart.Lines[0].PaidQuantity)
	assert.Equal(t, int64(1), cart.Lines[0].FreeQuantity)

	cart, err = sut.AddItem(context.Background(), "u1", "sku-1", 3)
	require.NoError(t, err)
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, int64(3), cart.Lines[0].PaidQuantity)
	assert.Equal(t, int64(2), cart.Lines[0].FreeQuantity)
	assert.Equal(t, 50.00, cart.TotalPrice)
	assert.Equal(t, 20.00, cart.DiscountAmount)
	assert.Equal(t, 30.00, cart.FinalPrice)
}

// An add refreshes the line's unit price and tier from the catalog.
func TestAddItem_RefreshesCatalogData(t *testing.T) {
	sut, items, _ := newCartFixture(t)
	seedItem(t, items, "sku-1", 10.00, domain.OfferNone, 50)

	_, err := sut.AddItem(context.Background(), "u1", "sku-1", 2)
	require.NoError(t, err)

	// price change and a new promotion land in the catalog
	seedItem(t, items, "sku-1", 8.00, domain.OfferBuy1Get1Free, 50)

	cart, err := sut.AddItem(context.Background(), "u1", "sku-1", 2)
	require.NoError(t, err)
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, 8.00, cart.Lines[0].UnitPrice)
	assert.Equal(t, domain.OfferBuy1Get1Free, cart.Lines[0].OfferTier)
	assert.Equal(t, int64(2), cart.Lines[0].PaidQuantity)
	assert.Equal(t, int64(2), cart.Lines[0].FreeQuantity)
}

func TestAddItem_OutOfStock(t *testing.T) {
	sut, items, _ := newCartFixture(t)
	seedItem(t, items, "sku-1", 10.00, domain.OfferNone, 3)

	_, err := sut.AddItem(context.Background(), "u1", "sku-1", 4)
	require.ErrorIs(t, err, ErrOutOfStock)

	// the line total counts against stock, not just the delta
	_, err = sut.AddItem(context.Background(), "u1", "sku-1", 2)
	require.NoError(t, err)
	_, err = sut.AddItem(context.Background(), "u1", "sku-1", 2)
	require.ErrorIs(t, err, ErrOutOfStock)

	cart, err := sut.GetCart(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, int64(2), cart.Lines[0].TotalQuantity(), "failed add must not change the cart")
}

func TestAddItem_ZeroStock(t *testing.T) {
	sut, items, _ := newCartFixture(t)
	seedItem(t, items, "sku-1", 10.00, domain.OfferNone, 0)

	_, err := sut.AddItem(context.Background(), "u1", "sku-1", 1)
	require.ErrorIs(t, err, ErrOutOfStock)
}

func TestAddItem_InvalidatesCache(t *testing.T) {
	sut, items, mockC := newCartFixture(t)
	seedItem(t, items, "sku-1", 10.00, domain.OfferNone, 50)
	mockC.cart = &domain.Cart{UserID: "u1"}

	_, err := sut.AddItem(context.Background(), "u1", "sku-1", 1)
	require.NoError(t, err)
	assert.Nil(t, mockC.getCart(), "cache was not invalidated")
}

// SetQuantity resolves against the tier stored on the line, not the current
// catalog tier.
func TestSetQuantity_UsesStoredTier(t *testing.T) {
	sut, items, _ := newCartFixture(t)
	seedItem(t, items, "sku-1", 10.00, domain.OfferBuy2Get3Free, 50)

	_, err := sut.AddItem(context.Background(), "u1", "sku-1", 5)
	require.NoError(t, err)

	// catalog drops the promotion afterwards
	seedItem(t, items, "sku-1", 10.00, domain.OfferNone, 50)

	cart, err := sut.SetQuantity(context.Background(), "u1", "sku-1", 6)
	require.NoError(t, err)
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, domain.OfferBuy2Get3Free, cart.Lines[0].OfferTier)
	assert.Equal(t, int64(3), cart.Lines[0].PaidQuantity)
	assert.Equal(t, int64(3), cart.Lines[0].FreeQuantity)
}

func TestSetQuantity_ZeroRemovesLine(t *testing.T) {
	sut, items, _ := newCartFixture(t)
	seedItem(t, items, "sku-1", 10.00, domain.OfferNone, 50)
	seedItem(t, items, "sku-2", 5.00, domain.OfferNone, 50)

	_, err := sut.AddItem(context.Background(), "u1", "sku-1", 2)
	require.NoError(t, err)
	_, err = sut.AddItem(context.Background(), "u1", "sku-2", 1)
	require.NoError(t, err)

	cart, err := sut.SetQuantity(context.Background(), "u1", "sku-1", 0)
	require.NoError(t, err)
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, "sku-2", cart.Lines[0].ItemID)
	assert.Equal(t, 5.00, cart.FinalPrice)
}

func TestSetQuantity_LastLineRemovalEmptiesCart(t *testing.T) {
	sut, items, _ := newCartFixture(t)
	seedItem(t, items, "sku-1", 10.00, domain.OfferNone, 50)

	_, err := sut.AddItem(context.Background(), "u1", "sku-1", 2)
	require.NoError(t, err)

	cart, err := sut.SetQuantity(context.Background(), "u1", "sku-1", 0)
	require.NoError(t, err)
	assert.Empty(t, cart.Lines)
	assert.Equal(t, float64(0), cart.FinalPrice)

	// the stored document is gone as well
	_, err = sut.Snapshot(context.Background(), "u1")
	require.ErrorIs(t, err, repository.ErrCartNotFound)
}

func TestSetQuantity_LineNotFound(t *testing.T) {
	sut, items, _ := newCartFixture(t)
	seedItem(t, items, "sku-1", 10.00, domain.OfferNone, 50)

	// no cart at all
	_, err := sut.SetQuantity(context.Background(), "u1", "sku-1", 2)
	require.ErrorIs(t, err, repository.ErrLineNotFound)

	// cart exists but the line does not
	_, err = sut.AddItem(context.Background(), "u1", "sku-1", 1)
	require.NoError(t, err)
	_, err = sut.SetQuantity(context.Background(), "u1", "sku-2", 2)
	require.ErrorIs(t, err, repository.ErrLineNotFound)
}

func TestRemoveItem(t *testing.T) {
	sut, items, _ := newCartFixture(t)
	seedItem(t, items, "sku-1", 10.00, domain.OfferNone, 50)
	seedItem(t, items, "sku-2", 5.00, domain.OfferNone, 50)

	_, err := sut.AddItem(context.Background(), "u1", "sku-1", 2)
	require.NoError(t, err)
	_, err = sut.AddItem(context.Background(), "u1", "sku-2", 1)
	require.NoError(t, err)

	cart, err := sut.RemoveItem(context.Background(), "u1", "sku-1")
	require.NoError(t, err)
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, "sku-2", cart.Lines[0].ItemID)

	_, err = sut.RemoveItem(context.Background(), "u1", "sku-1")
	require.ErrorIs(t, err, repository.ErrLineNotFound)
}

func TestClearCart(t *testing.T) {
	sut, items, mockC := newCartFixture(t)
	seedItem(t, items, "sku-1", 10.00, domain.OfferNone, 50)

	_, err := sut.AddItem(context.Background(), "u1", "sku-1", 2)
	require.NoError(t, err)

	require.NoError(t, sut.ClearCart(context.Background(), "u1"))
	assert.Nil(t, mockC.getCart())

	// clearing an already-empty cart is not an error
	require.NoError(t, sut.ClearCart(context.Background(), "u1"))

	cart, err := sut.GetCart(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, cart.Lines)
}

func TestAddItem_ConcurrentSameUser(t *testing.T) {
	sut, items, _ := newCartFixture(t)
	seedItem(t, items, "sku-1", 1.00, domain.OfferNone, 1000)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := sut.AddItem(context.Background(), "u1", "sku-1", 1)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	cart, err := sut.GetCart(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, int64(20), cart.Lines[0].TotalQuantity())
	assert.Equal(t, 20.00, cart.FinalPrice)
}
