package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/osse101/LabRewards_Go/internal/logger"
)

// ActiveUserLister finds users with recent award activity
type ActiveUserLister interface {
	ListRecentlyActiveUsers(ctx context.Context, since time.Time) ([]string, error)
}

// EligibilityRefresher re-evaluates which quests a user can start
type EligibilityRefresher interface {
	RefreshEligibility(ctx context.Context, userID string) error
}

// EligibilityWorker periodically refreshes quest eligibility for recently
// active users. Level-ups refresh immediately through the event bus; this job
// opens the new period of daily and weekly quests.
type EligibilityWorker struct {
	guard runGuard

	users     ActiveUserLister
	refresher EligibilityRefresher
	interval  time.Duration
	lookback  time.Duration
	scheduler gocron.Scheduler
	now       func() time.Time
}

// NewEligibilityWorker creates the worker. A non-positive interval uses
// DefaultEligibilityInterval.
func NewEligibilityWorker(users ActiveUserLister, refresher EligibilityRefresher, interval time.Duration) (*EligibilityWorker, error) {
	if interval <= 0 {
		interval = DefaultEligibilityInterval
	}
	sched, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	return &EligibilityWorker{
		users:     users,
		refresher: refresher,
		interval:  interval,
		lookback:  EligibilityLookback,
		scheduler: sched,
		now:       func() time.Time { return time.Now().UTC() },
	}, nil
}

// Start schedules the refresh job
func (w *EligibilityWorker) Start() error {
	_, err := w.scheduler.NewJob(
		gocron.DurationJob(w.interval),
		gocron.NewTask(func() {
			if _, err := w.RunOnce(context.Background()); err != nil {
				logger.Error(LogMsgEligibilityRefreshFailed, "error", err)
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule eligibility refresh: %w", err)
	}
	w.scheduler.Start()
	logger.Info(LogMsgEligibilityScheduled, "interval", w.interval.String())
	return nil
}

// RunOnce refreshes every recently active user and returns how many were
// refreshed. Per-user failures are logged and do not stop the run.
func (w *EligibilityWorker) RunOnce(ctx context.Context) (int, error) {
	if !w.guard.enter() {
		return 0, nil
	}
	defer w.guard.leave()

	log := logger.FromContext(ctx)
	users, err := w.users.ListRecentlyActiveUsers(ctx, w.now().Add(-w.lookback))
	if err != nil {
		return 0, fmt.Errorf("failed to list active users: %w", err)
	}

	refreshed := 0
	for _, userID := range users {
		if err := ctx.Err(); err != nil {
			return refreshed, err
		}
		if err := w.refresher.RefreshEligibility(ctx, userID); err != nil {
			log.Warn(LogMsgEligibilityUserFailed, "user_id", userID, "error", err)
			continue
		}
		refreshed++
	}

	log.Info(LogMsgEligibilityRefreshed, "users", len(users), "refreshed", refreshed)
	return refreshed, nil
}

// Shutdown stops the scheduler and waits for a running refresh
func (w *EligibilityWorker) Shutdown(ctx context.Context) error {
	if err := w.scheduler.Shutdown(); err != nil {
		logger.FromContext(ctx).Warn(LogMsgSchedulerShutdownFailed, "error", err)
	}
	return w.guard.drain(ctx, EligibilityWorkerName)
}
