package concurrency

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLockManager_LockSerializes(t *testing.T) {
	lm := NewLockManager()
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := lm.Lock(WalletKey("u"))
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, counter)
	assert.Zero(t, lm.Len(), "idle keys are released")
}

func TestLockManager_KeysAreIndependent(t *testing.T) {
	lm := NewLockManager()
	unlockA := lm.Lock("a")
	defer unlockA()

	acquired := make(chan struct{})
	go func() {
		unlock := lm.Lock("b")
		unlock()
		close(acquired)
	}()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("lock on b blocked behind a")
	}
	assert.Equal(t, 1, lm.Len())
}

func TestLockManager_WaiterKeepsEntry(t *testing.T) {
	lm := NewLockManager()
	unlock := lm.Lock("k")

	got := make(chan struct{})
	go func() {
		u := lm.Lock("k")
		close(got)
		u()
	}()

	select {
	case <-got:
		t.Fatal("second Lock returned while first holder still holds it")
	case <-time.After(20 * time.Millisecond):
	}

	unlock()
	<-got
	assert.Eventually(t, func() bool { return lm.Len() == 0 }, time.Second, 5*time.Millisecond)
}
