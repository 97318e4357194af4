package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/velezd/cart-service/internal/balance"
	"github.com/velezd/cart-service/internal/domain"
	"github.com/velezd/cart-service/internal/publisher"
	"github.com/velezd/cart-service/internal/repository"
)

// CheckoutService turns a non-empty cart into an immutable COMPLETED
// transaction. The load/validate/charge/persist/clear window runs under the
// user's cart lock, so the flow is atomic from the caller's point of view:
// either a COMPLETED transaction exists and the cart is gone, or nothing
// changed. Stock decrement and the notification are best-effort by design.
type CheckoutService struct {
	carts        *CartService
	items        repository.ItemRepository
	transactions repository.TransactionRepository
	balance      balance.Service
	notifier     publisher.Notifier
}

func NewCheckoutService(
	carts *CartService,
	items repository.ItemRepository,
	transactions repository.TransactionRepository,
	balanceSvc balance.Service,
	notifier publisher.Notifier,
) *CheckoutService {
	return &CheckoutService{
		carts:        carts,
		items:        items,
		transactions: transactions,
		balance:      balanceSvc,
		notifier:     notifier,
	}
}

func (s *CheckoutService) Checkout(ctx context.Context, userID string, method domain.PaymentMethod, notes string) (*domain.Transaction, error) {
	unlock := s.carts.locks.lock(userID)
	defer unlock()

	snapshot, err := s.carts.Snapshot(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrCartNotFound) {
			return nil, ErrEmptyCart
		}
		return nil, err
	}
	if len(snapshot.Lines) == 0 {
		return nil, ErrEmptyCart
	}

	if !method.Valid() {
		return nil, ErrInvalidPaymentMethod
	}

	if method == domain.PaymentWallet {
		if err := s.chargeWallet(ctx, userID, snapshot.FinalPrice); err != nil {
			return nil, err
		}
	}

	tx := buildTransaction(userID, snapshot, method, notes)
	if err := s.transactions.Create(ctx, tx); err != nil {
		return nil, fmt.Errorf("failed to persist transaction: %w", err)
	}

	// Best-effort from here on: the transaction is committed and none of the
	// following failures may undo it.
	for _, line := range snapshot.Lines {
		if errDec := s.items.DecrementStock(ctx, line.ItemID, line.TotalQuantity()); errDec != nil {
			log.Printf("stock decrement failed for item %s: %v", line.ItemID, errDec)
		}
	}

	if errNotify := s.notifier.TransactionCompleted(ctx, tx); errNotify != nil {
		log.Printf("notification failed for transaction %s: %v", tx.ID, errNotify)
	}

	if errClear := s.carts.clearLocked(ctx, userID); errClear != nil {
		log.Printf("failed to clear cart after checkout for user %s: %v", userID, errClear)
	}

	return tx, nil
}

// chargeWallet checks the balance and deducts the payable amount. A balance
// lookup failure surfaces as a balance.ErrUnavailable infrastructure error;
// a deduct failure surfaces as ErrPaymentFailed with the collaborator's
// message attached.
func (s *CheckoutService) chargeWallet(ctx context.Context, userID string, amount float64) error {
	bal, err := s.balance.GetBalance(ctx, userID)
	if err != nil {
		return err
	}

	if bal < amount {
		return ErrInsufficientBalance
	}

	if err := s.balance.Deduct(ctx, userID, amount); err != nil {
		return fmt.Errorf("%w: %v", ErrPaymentFailed, err)
	}

	return nil
}

// UpdateStatus applies an administrative status transition (CANCELLED,
// REFUNDED) or marks a pending transaction FAILED, enforcing the transition
// table.
func (s *CheckoutService) UpdateStatus(ctx context.Context, id string, status domain.TransactionStatus) (*domain.Transaction, error) {
	tx, err := s.transactions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !domain.CanTransitionTo(tx.Status, status) {
		return nil, ErrIllegalTransition
	}

	if err := s.transactions.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}

	tx.Status = status
	return tx, nil
}

func (s *CheckoutService) GetTransaction(ctx context.Context, userID, id string) (*domain.Transaction, error) {
	tx, err := s.transactions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if tx.UserID != userID {
		// someone else's transaction does not exist as far as this user knows
		return nil, repository.ErrTransactionNotFound
	}
	return tx, nil
}

func (s *CheckoutService) ListTransactions(ctx context.Context, userID string) ([]*domain.Transaction, error) {
	return s.transactions.ListByUser(ctx, userID)
}

func buildTransaction(userID string, snapshot *domain.Cart, method domain.PaymentMethod, notes string) *domain.Transaction {
	items := make([]domain.TransactionItem, 0, len(snapshot.Lines))
	for _, line := range snapshot.Lines {
		items = append(items, domain.TransactionItem{
			ItemID:       line.ItemID,
			Name:         line.Name,
			UnitPrice:    line.UnitPrice,
			PaidQuantity: line.PaidQuantity,
			FreeQuantity: line.FreeQuantity,
			OfferTier:    line.OfferTier,
			// paid units only; free units are audit data
			Subtotal: domain.Round2(line.UnitPrice * float64(line.PaidQuantity)),
		})
	}

	now := time.Now()
	return &domain.Transaction{
		ID:             uuid.New().String(),
		UserID:         userID,
		Items:          items,
		TotalAmount:    snapshot.TotalPrice,
		DiscountAmount: snapshot.DiscountAmount,
		FinalAmount:    snapshot.FinalPrice,
		PaymentMethod:  method,
		Status:         domain.TransactionStatusCompleted,
		Notes:          notes,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}
