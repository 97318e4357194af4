package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaymentMethod_Valid(t *testing.T) {
	for _, m := range []PaymentMethod{PaymentCash, PaymentCreditCard, PaymentDebitCard, PaymentUPI, PaymentNetBanking, PaymentWallet} {
		assert.True(t, m.Valid(), "%s should be valid", m)
	}

	assert.False(t, PaymentMethod("BITCOIN").Valid())
	assert.False(t, PaymentMethod("").Valid())
	assert.False(t, PaymentMethod("cash").Valid(), "methods are case sensitive")
}

func TestCanTransitionTo(t *testing.T) {
	tests := []struct {
		from    TransactionStatus
		to      TransactionStatus
		allowed bool
	}{
		{TransactionStatusPending, TransactionStatusCompleted, true},
		{TransactionStatusPending, TransactionStatusFailed, true},
		{TransactionStatusPending, TransactionStatusCancelled, true},
		{TransactionStatusPending, TransactionStatusRefunded, false},
		{TransactionStatusCompleted, TransactionStatusRefunded, true},
		{TransactionStatusCompleted, TransactionStatusCancelled, true},
		{TransactionStatusCompleted, TransactionStatusPending, false},
		{TransactionStatusCompleted, TransactionStatusFailed, false},
		{TransactionStatusCancelled, TransactionStatusPending, false},
		{TransactionStatusCancelled, TransactionStatusCompleted, false},
		{TransactionStatusRefunded, TransactionStatusCompleted, false},
		{TransactionStatusFailed, TransactionStatusCompleted, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, CanTransitionTo(tt.from, tt.to))
		})
	}
}

func TestTransactionStatus_IsTerminal(t *testing.T) {
	assert.False(t, TransactionStatusPending.IsTerminal())
	assert.False(t, TransactionStatusCompleted.IsTerminal())
	assert.True(t, TransactionStatusCancelled.IsTerminal())
	assert.True(t, TransactionStatusRefunded.IsTerminal())
	assert.True(t, TransactionStatusFailed.IsTerminal())
}

func TestTransaction_Contains(t *testing.T) {
	tx := &Transaction{
		Items: []TransactionItem{
			{ItemID: "sku-1"},
			{ItemID: "sku-2"},
		},
	}

	assert.True(t, tx.Contains("sku-1"))
	assert.True(t, tx.Contains("sku-2"))
	assert.False(t, tx.Contains("sku-3"))
}
