package award

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/osse101/LabRewards_Go/internal/domain"
	"github.com/osse101/LabRewards_Go/internal/event"
	"github.com/osse101/LabRewards_Go/internal/repository"
)

// mockPublisher records published events
type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishWithRetry(ctx context.Context, evt event.Event) {
	m.Called(ctx, evt)
}

func (m *mockPublisher) publishedTypes() []event.Type {
	var types []event.Type
	for _, c := range m.Calls {
		if c.Method == "PublishWithRetry" {
			types = append(types, c.Arguments.Get(1).(event.Event).Type)
		}
	}
	return types
}

// mockAwardRepo is a hand-written mock of repository.Award
type mockAwardRepo struct {
	mock.Mock
}

func (m *mockAwardRepo) BeginTx(ctx context.Context) (repository.EngineTx, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(repository.EngineTx), args.Error(1)
}

func (m *mockAwardRepo) GetProgression(ctx context.Context, userID string) (*domain.ProgressionState, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ProgressionState), args.Error(1)
}

func (m *mockAwardRepo) GetAwardRecord(ctx context.Context, sourceType domain.SourceType, sourceID string) (*domain.AwardRecord, error) {
	args := m.Called(ctx, sourceType, sourceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AwardRecord), args.Error(1)
}

func (m *mockAwardRepo) GetActivityTotals(ctx context.Context, userID string, since time.Time) (*repository.ActivityTotals, error) {
	args := m.Called(ctx, userID, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.ActivityTotals), args.Error(1)
}

func (m *mockAwardRepo) GetActivityDays(ctx context.Context, userID string, since time.Time) ([]time.Time, error) {
	args := m.Called(ctx, userID, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]time.Time), args.Error(1)
}

func (m *mockAwardRepo) ListRecentlyActiveUsers(ctx context.Context, since time.Time) ([]string, error) {
	args := m.Called(ctx, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}
