package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockUserLister struct {
	mock.Mock
}

func (m *mockUserLister) ListRecentlyActiveUsers(ctx context.Context, since time.Time) ([]string, error) {
	args := m.Called(ctx, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type mockRefresher struct {
	mock.Mock
}

func (m *mockRefresher) RefreshEligibility(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func TestEligibilityWorker_RunOnce(t *testing.T) {
	now := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)
	users := &mockUserLister{}
	users.On("ListRecentlyActiveUsers", mock.Anything, now.Add(-EligibilityLookback)).
		Return([]string{"alice", "bob", "carol"}, nil)

	refresher := &mockRefresher{}
	refresher.On("RefreshEligibility", mock.Anything, "alice").Return(nil)
	refresher.On("RefreshEligibility", mock.Anything, "bob").Return(errors.New("db down"))
	refresher.On("RefreshEligibility", mock.Anything, "carol").Return(nil)

	w, err := NewEligibilityWorker(users, refresher, time.Hour)
	require.NoError(t, err)
	w.now = func() time.Time { return now }

	refreshed, err := w.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, refreshed)

	users.AssertExpectations(t)
	refresher.AssertExpectations(t)
	require.NoError(t, w.Shutdown(context.Background()))
}

func TestEligibilityWorker_ListFailure(t *testing.T) {
	users := &mockUserLister{}
	users.On("ListRecentlyActiveUsers", mock.Anything, mock.Anything).Return(nil, errors.New("db down"))
	refresher := &mockRefresher{}

	w, err := NewEligibilityWorker(users, refresher, time.Hour)
	require.NoError(t, err)

	_, err = w.RunOnce(context.Background())
	assert.Error(t, err)
	refresher.AssertNotCalled(t, "RefreshEligibility", mock.Anything, mock.Anything)
	require.NoError(t, w.Shutdown(context.Background()))
}

type refresherFunc func(ctx context.Context, userID string) error

func (f refresherFunc) RefreshEligibility(ctx context.Context, userID string) error {
	return f(ctx, userID)
}

func TestEligibilityWorker_ScheduledRun(t *testing.T) {
	users := &mockUserLister{}
	users.On("ListRecentlyActiveUsers", mock.Anything, mock.Anything).Return([]string{"alice"}, nil)

	var runs atomic.Int32
	refresher := refresherFunc(func(_ context.Context, userID string) error {
		if userID == "alice" {
			runs.Add(1)
		}
		return nil
	})

	w, err := NewEligibilityWorker(users, refresher, 20*time.Millisecond)
	require.NoError(t, err)
	require.NoError(t, w.Start())

	assert.Eventually(t, func() bool { return runs.Load() > 0 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, w.Shutdown(context.Background()))
}

func TestEligibilityWorker_NoRunAfterShutdown(t *testing.T) {
	users := &mockUserLister{}
	refresher := &mockRefresher{}

	w, err := NewEligibilityWorker(users, refresher, time.Hour)
	require.NoError(t, err)
	require.NoError(t, w.Shutdown(context.Background()))

	refreshed, err := w.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, refreshed)
	users.AssertNotCalled(t, "ListRecentlyActiveUsers", mock.Anything, mock.Anything)
}
