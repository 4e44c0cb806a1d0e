package concurrency

import (
	"sync"
)

// LockManager serializes commands that share a key inside the process; the
// database row lock covers other processes. Entries are reference counted
// and dropped once no goroutine holds or waits on them, so the table only
// grows with concurrent users.
type LockManager struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

// NewLockManager creates an empty LockManager
func NewLockManager() *LockManager {
	return &LockManager{locks: make(map[string]*keyLock)}
}

// Lock blocks until key is free and returns the matching unlock function.
// The unlock function must be called exactly once.
func (lm *LockManager) Lock(key string) func() {
	lm.mu.Lock()
	kl, ok := lm.locks[key]
	if !ok {
		kl = &keyLock{}
		lm.locks[key] = kl
	}
	kl.refs++
	lm.mu.Unlock()

	kl.mu.Lock()
	return func() {
		kl.mu.Unlock()
		lm.release(key, kl)
	}
}

func (lm *LockManager) release(key string, kl *keyLock) {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	kl.refs--
	if kl.refs == 0 {
		delete(lm.locks, key)
	}
}

// Len reports how many keys are currently held or awaited
func (lm *LockManager) Len() int {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	return len(lm.locks)
}

// WalletKey is the lock key guarding a user's wallet
func WalletKey(userID string) string {
	return "wallet:" + userID
}
