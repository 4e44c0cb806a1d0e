// Package leaktest catches goroutines left running by background workers.
package leaktest

import (
	"runtime"
	"testing"
	"time"
)

const (
	settleTimeout = 2 * time.Second
	pollInterval  = 10 * time.Millisecond
)

// Snapshot records the goroutine count before the code under test runs
type Snapshot struct {
	t      testing.TB
	before int
}

// Take waits briefly for earlier tests to wind down and records the baseline
func Take(t testing.TB) *Snapshot {
	t.Helper()
	runtime.Gosched()
	time.Sleep(pollInterval)
	return &Snapshot{t: t, before: runtime.NumGoroutine()}
}

// Verify fails the test when more than tolerance goroutines outlive the
// baseline. Exiting goroutines get settleTimeout to finish.
func (s *Snapshot) Verify(tolerance int) {
	s.t.Helper()
	after, ok := settle(s.before+tolerance, settleTimeout)
	if !ok {
		s.t.Errorf("goroutine leak: before=%d after=%d tolerance=%d", s.before, after, tolerance)
	}
}

// CheckNoGoroutineLeak runs fn and verifies it leaves no goroutines behind
func CheckNoGoroutineLeak(t testing.TB, fn func()) {
	t.Helper()
	snap := Take(t)
	fn()
	snap.Verify(0)
}

// settle polls until the goroutine count is at most target
func settle(target int, timeout time.Duration) (int, bool) {
	deadline := time.Now().Add(timeout)
	for {
		n := runtime.NumGoroutine()
		if n <= target {
			return n, true
		}
		if time.Now().After(deadline) {
			return n, false
		}
		runtime.Gosched()
		time.Sleep(pollInterval)
	}
}
