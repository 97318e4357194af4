package balance

import (
	"context"
	"errors"
)

// Service is the external wallet-balance collaborator consumed at checkout.
// Calls are blocking, sequential I/O with no internal retry.
type Service interface {
	GetBalance(ctx context.Context, userID string) (float64, error)
	Deduct(ctx context.Context, userID string, amount float64) error
}

// ErrUnavailable marks infrastructure failures (timeouts, connection errors,
// open circuit breaker) as distinct from a business decline, so callers can
// tell a retryable outage from a terminal decision.
var ErrUnavailable = errors.New("balance service unavailable")
