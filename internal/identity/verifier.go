package identity

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrAuthFailed means the credentials were rejected.
	ErrAuthFailed = errors.New("authentication failed")
	// ErrVerifierUnavailable means the verifier itself could not be reached;
	// callers should surface this as an infrastructure failure, not a denial.
	ErrVerifierUnavailable = errors.New("identity verifier unavailable")
)

type Identity struct {
	UserID string
}

// Verifier resolves request credentials to a user identity. The real
// verifier is an external service; this service only consumes the contract.
type Verifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}

// StaticVerifier accepts tokens of the form "user:<id>". It stands in for
// the external verifier in development and tests.
type StaticVerifier struct{}

func (StaticVerifier) Verify(_ context.Context, token string) (Identity, error) {
	userID, ok := strings.CutPrefix(token, "user:")
	if !ok || userID == "" {
		return Identity{}, ErrAuthFailed
	}
	return Identity{UserID: userID}, nil
}
