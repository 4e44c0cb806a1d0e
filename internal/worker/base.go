package worker

import (
	"context"
	"sync"

	"github.com/osse101/LabRewards_Go/internal/logger"
)

// runGuard counts in-flight runs of a scheduled job and refuses new ones
// after drain starts. The zero value is ready to use.
type runGuard struct {
	mu       sync.Mutex
	draining bool
	inFlight sync.WaitGroup
}

// enter reports whether a run may start; callers that get true must call leave
func (g *runGuard) enter() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.draining {
		return false
	}
	g.inFlight.Add(1)
	return true
}

func (g *runGuard) leave() { g.inFlight.Done() }

// drain blocks new runs and waits for the running ones or ctx
func (g *runGuard) drain(ctx context.Context, name string) error {
	log := logger.FromContext(ctx).With("worker", name)
	log.Info(LogMsgWorkerDraining)

	g.mu.Lock()
	g.draining = true
	g.mu.Unlock()

	idle := make(chan struct{})
	go func() {
		g.inFlight.Wait()
		close(idle)
	}()

	select {
	case <-idle:
		log.Info(LogMsgWorkerStopped)
		return nil
	case <-ctx.Done():
		log.Warn(LogMsgWorkerDrainTimeout)
		return ctx.Err()
	}
}
