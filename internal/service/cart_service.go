package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/velezd/cart-service/internal/cache"
	"github.com/velezd/cart-service/internal/domain"
	"github.com/velezd/cart-service/internal/repository"
	"golang.org/x/sync/singleflight"
)

// CartService owns a user's cart and keeps it internally consistent: every
// mutation re-derives each touched line's paid/free split through
// domain.Resolve and refolds the cart totals before the document is written
// back.
type CartService struct {
	repo  repository.CartRepository
	items repository.ItemRepository
	cache cache.CartCache
	sfg   singleflight.Group // Prevents cache stampede
	locks userLocks
}

func NewCartService(repo repository.CartRepository, items repository.ItemRepository, cache cache.CartCache) *CartService {
	return &CartService{
		repo:  repo,
		items: items,
		cache: cache,
	}
}

func (s *CartService) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	// Use singleflight to prevent multiple concurrent cache misses for same key
	v, err, _ := s.sfg.Do(userID, func() (interface{}, error) {

		cart, err := s.cache.Get(ctx, userID)
		if err == nil {
			return cart, nil // cart is in cache
		}

		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Printf("cache get error: %v \n", err) // log cache error but continue
		}

		cart, errGet := s.repo.GetCart(ctx, userID)
		if errGet != nil && errors.Is(errGet, repository.ErrCartNotFound) {
			// absent cart is an empty cart, not persisted
			return emptyCart(userID), nil
		}
		if errGet != nil {
			return nil, errGet
		}

		// set cache
		go func() {
			errSet := s.cache.Set(context.Background(), userID, cart)
			if errSet != nil {
				log.Printf("cache set error: %v \n", errSet)
			}
		}()

		return cart, nil
	})

	if err != nil {
		return nil, err
	}

	return v.(*domain.Cart), nil
}

// AddItem adds requestedQty more units of an item. The quantity is always
// incremental: an existing line's new total is its current total plus
// requestedQty, resolved against the item's current catalog tier and price
// (both refreshed on add).
func (s *CartService) AddItem(ctx context.Context, userID, itemID string, requestedQty int64) (*domain.Cart, error) {
	if requestedQty <= 0 {
		return nil, ErrInvalidQuantity
	}

	unlock := s.locks.lock(userID)
	defer unlock()

	item, err := s.items.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	cart, err := s.loadOrNewCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	newTotal := requestedQty
	idx := cart.FindLine(itemID)
	if idx >= 0 {
		newTotal += cart.Lines[idx].TotalQuantity()
	}

	if !item.InStock() || newTotal > item.StockQuantity {
		return nil, ErrOutOfStock
	}

	paid, free := domain.Resolve(newTotal, item.OfferTier)
	if idx >= 0 {
		line := &cart.Lines[idx]
		line.Name = item.Name
		line.UnitPrice = item.UnitPrice
		line.OfferTier = item.OfferTier
		line.PaidQuantity = paid
		line.FreeQuantity = free
	} else {
		cart.Lines = append(cart.Lines, domain.CartLine{
			ItemID:       itemID,
			Name:         item.Name,
			UnitPrice:    item.UnitPrice,
			PaidQuantity: paid,
			FreeQuantity: free,
			OfferTier:    item.OfferTier,
			AddedAt:      time.Now(),
		})
	}

	return s.saveCart(ctx, cart)
}

// SetQuantity replaces a line's total quantity (paid+free) with an absolute
// value. Unlike AddItem it does not refresh the tier: the split is resolved
// against the tier already stored on the line. A quantity of zero or less
// removes the line.
func (s *CartService) SetQuantity(ctx context.Context, userID, itemID string, newTotalQty int64) (*domain.Cart, error) {
	unlock := s.locks.lock(userID)
	defer unlock()

	cart, err := s.repo.GetCart(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrCartNotFound) {
			return nil, repository.ErrLineNotFound
		}
		return nil, err
	}

	idx := cart.FindLine(itemID)
	if idx < 0 {
		return nil, repository.ErrLineNotFound
	}

	if newTotalQty <= 0 {
		cart.RemoveLine(idx)
		return s.saveCart(ctx, cart)
	}

	line := &cart.Lines[idx]
	paid, free := domain.Resolve(newTotalQty, line.OfferTier)
	line.PaidQuantity = paid
	line.FreeQuantity = free

	return s.saveCart(ctx, cart)
}

func (s *CartService) RemoveItem(ctx context.Context, userID, itemID string) (*domain.Cart, error) {
	unlock := s.locks.lock(userID)
	defer unlock()

	cart, err := s.repo.GetCart(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrCartNotFound) {
			return nil, repository.ErrLineNotFound
		}
		return nil, err
	}

	idx := cart.FindLine(itemID)
	if idx < 0 {
		return nil, repository.ErrLineNotFound
	}

	cart.RemoveLine(idx)
	return s.saveCart(ctx, cart)
}

func (s *CartService) ClearCart(ctx context.Context, userID string) error {
	unlock := s.locks.lock(userID)
	defer unlock()

	return s.clearLocked(ctx, userID)
}

// Snapshot returns the current persisted cart state for checkout
// consumption, bypassing the cache.
func (s *CartService) Snapshot(ctx context.Context, userID string) (*domain.Cart, error) {
	return s.repo.GetCart(ctx, userID)
}

func (s *CartService) loadOrNewCart(ctx context.Context, userID string) (*domain.Cart, error) {
	cart, err := s.repo.GetCart(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrCartNotFound) {
			return emptyCart(userID), nil
		}
		return nil, err
	}
	return cart, nil
}

// saveCart is the single exit point of every mutation: refold totals, then
// persist. An empty cart is deleted rather than stored.
func (s *CartService) saveCart(ctx context.Context, cart *domain.Cart) (*domain.Cart, error) {
	cart.Recalculate()

	if len(cart.Lines) == 0 {
		if err := s.clearLocked(ctx, cart.UserID); err != nil {
			return nil, err
		}
		return emptyCart(cart.UserID), nil
	}

	if err := s.repo.UpsertCart(ctx, cart); err != nil {
		log.Printf("repo upsert cart error: %v \n", err)
		return nil, err
	}

	s.invalidateCache(cart.UserID)
	return cart, nil
}

// clearLocked deletes the cart document; an already-absent cart is fine.
func (s *CartService) clearLocked(ctx context.Context, userID string) error {
	err := s.repo.DeleteCart(ctx, userID)
	if err != nil && !errors.Is(err, repository.ErrCartNotFound) {
		log.Printf("repo delete cart error: %v \n", err)
		return err
	}

	s.invalidateCache(userID)
	return nil
}

func (s *CartService) invalidateCache(userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	errInvalidate := s.cache.Delete(ctx, userID)
	if errInvalidate != nil {
		log.Printf("cache invalidate error: %v \n", errInvalidate)
	}
}

func emptyCart(userID string) *domain.Cart {
	return &domain.Cart{
		UserID:    userID,
		Lines:     nil,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}
