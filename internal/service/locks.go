package service

import "sync"

// userLocks serializes all mutations for a given user. Carts are independent
// per user, so there is no cross-user contention; the checkout engine holds
// the same lock across its load/validate/persist/clear window so a
// concurrent add cannot land mid-checkout.
type userLocks struct {
	locks sync.Map // userID -> *sync.Mutex
}

// lock acquires the user's mutex and returns its unlock function.
func (l *userLocks) lock(userID string) func() {
	v, _ := l.locks.LoadOrStore(userID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
