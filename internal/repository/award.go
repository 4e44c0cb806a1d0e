package repository

import (
	"context"
	"time"

	"github.com/osse101/LabRewards_Go/internal/domain"
)

// ActivityTotals are the raw counters badge stats are derived from
type ActivityTotals struct {
	CompletedTasks   int64
	WorkSessions     int64
	Projects         int64
	WorkSecondsSince int64
}

// Award defines the interface for award ledger and progression persistence
type Award interface {
	TxBeginner

	// GetProgression returns nil when the user has never been awarded anything
	GetProgression(ctx context.Context, userID string) (*domain.ProgressionState, error)
	GetAwardRecord(ctx context.Context, sourceType domain.SourceType, sourceID string) (*domain.AwardRecord, error)
	// GetActivityTotals counts the user's award records. WorkSecondsSince only
	// sums work session durations recorded at or after since.
	GetActivityTotals(ctx context.Context, userID string, since time.Time) (*ActivityTotals, error)
	// GetActivityDays returns the distinct UTC dates with award records at or
	// after since, newest first.
	GetActivityDays(ctx context.Context, userID string, since time.Time) ([]time.Time, error)
	ListRecentlyActiveUsers(ctx context.Context, since time.Time) ([]string, error)
}
