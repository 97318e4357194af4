package service

import "errors"

var (
	ErrInvalidQuantity      = errors.New("quantity must be greater than 0")
	ErrOutOfStock           = errors.New("not enough stock for requested quantity")
	ErrEmptyCart            = errors.New("cart is empty, nothing to checkout")
	ErrInvalidPaymentMethod = errors.New("unrecognized payment method")
	ErrInsufficientBalance  = errors.New("wallet balance is below the payable amount")
	ErrPaymentFailed        = errors.New("payment failed")
	ErrNotPurchased         = errors.New("item was not purchased by this user")
	ErrInvalidRating        = errors.New("rating value must be between 1 and 5")
	ErrIllegalTransition    = errors.New("illegal transition of transaction status")
)
