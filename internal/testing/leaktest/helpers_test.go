package leaktest

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCheckNoGoroutineLeak_FinishedWork(t *testing.T) {
	CheckNoGoroutineLeak(t, func() {
		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				time.Sleep(time.Millisecond)
			}()
		}
		wg.Wait()
	})
}

func TestSnapshot_ToleratesKnownGoroutines(t *testing.T) {
	snap := Take(t)

	done := make(chan struct{})
	go func() { <-done }()

	snap.Verify(1)
	close(done)
}

func TestSettle_ReportsStragglers(t *testing.T) {
	done := make(chan struct{})
	defer close(done)

	base, _ := settle(1<<30, 0)
	go func() { <-done }()

	n, ok := settle(base, 30*time.Millisecond)
	assert.False(t, ok)
	assert.Greater(t, n, base)
}
