package domain

import "time"

type PaymentMethod string

const (
	PaymentCash       PaymentMethod = "CASH"
	PaymentCreditCard PaymentMethod = "CREDIT_CARD"
	PaymentDebitCard  PaymentMethod = "DEBIT_CARD"
	PaymentUPI        PaymentMethod = "UPI"
	PaymentNetBanking PaymentMethod = "NET_BANKING"
	PaymentWallet     PaymentMethod = "WALLET"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCreditCard, PaymentDebitCard, PaymentUPI, PaymentNetBanking, PaymentWallet:
		return true
	}
	return false
}

type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "PENDING"
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
	TransactionStatusCancelled TransactionStatus = "CANCELLED"
	TransactionStatusRefunded  TransactionStatus = "REFUNDED"
	TransactionStatusFailed    TransactionStatus = "FAILED"
)

func (s TransactionStatus) IsTerminal() bool {
	return s == TransactionStatusFailed || s == TransactionStatusCancelled || s == TransactionStatusRefunded
}

// String representation (for logging)
func (s TransactionStatus) String() string {
	return string(s)
}

var statusTransitions = map[TransactionStatus][]TransactionStatus{
	TransactionStatusPending:   {TransactionStatusCompleted, TransactionStatusFailed, TransactionStatusCancelled},
	TransactionStatusCompleted: {TransactionStatusRefunded, TransactionStatusCancelled},
}

// CanTransitionTo reports whether a transaction may move from one status to
// another. Checkout only produces COMPLETED or FAILED; CANCELLED and REFUNDED
// are administrative transitions applied later.
func CanTransitionTo(from, to TransactionStatus) bool {
	for _, allowed := range statusTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// TransactionItem is an immutable entry derived from a cart line at checkout.
// Subtotal prices paid units only; free units are recorded for audit.
type TransactionItem struct {
	ItemID       string    `bson:"item_id" json:"item_id"`
	Name         string    `bson:"name" json:"name"`
	UnitPrice    float64   `bson:"unit_price" json:"unit_price"`
	PaidQuantity int64     `bson:"paid_quantity" json:"paid_quantity"`
	FreeQuantity int64     `bson:"free_quantity" json:"free_quantity"`
	OfferTier    OfferTier `bson:"offer_tier" json:"offer_tier"`
	Subtotal     float64   `bson:"subtotal" json:"subtotal"`
}

// Transaction is created once at checkout and never mutated afterwards except
// for status transitions. It is owned independently of the cart it was
// snapshotted from.
type Transaction struct {
	ID             string            `bson:"_id,omitempty" json:"id"`
	UserID         string            `bson:"user_id" json:"user_id"`
	Items          []TransactionItem `bson:"items" json:"items"`
	TotalAmount    float64           `bson:"total_amount" json:"total_amount"`
	DiscountAmount float64           `bson:"discount_amount" json:"discount_amount"`
	FinalAmount    float64           `bson:"final_amount" json:"final_amount"`
	PaymentMethod  PaymentMethod     `bson:"payment_method" json:"payment_method"`
	Status         TransactionStatus `bson:"status" json:"status"`
	Notes          string            `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt      time.Time         `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time         `bson:"updated_at" json:"updated_at"`
}

// Contains reports whether the transaction includes the given item.
func (t *Transaction) Contains(itemID string) bool {
	for _, it := range t.Items {
		if it.ItemID == itemID {
			return true
		}
	}
	return false
}
