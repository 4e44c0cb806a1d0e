package award

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/osse101/LabRewards_Go/internal/database/memory"
	"github.com/osse101/LabRewards_Go/internal/domain"
	"github.com/osse101/LabRewards_Go/internal/event"
	"github.com/osse101/LabRewards_Go/internal/leveling"
)

var fixedNow = time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*service, *memory.Store, *mockPublisher) {
	t.Helper()
	curve, err := leveling.NewCurve([]int64{0, 100, 300, 700}, nil)
	require.NoError(t, err)

	pub := &mockPublisher{}
	pub.On("PublishWithRetry", mock.Anything, mock.Anything).Return()

	store := memory.New()
	svc := NewService(store, curve, DefaultFormula(), pub).(*service)
	svc.now = func() time.Time { return fixedNow }
	return svc, store, pub
}

func manual(userID, sourceID string, points, xp int64) domain.AwardRequest {
	return domain.AwardRequest{
		UserID:     userID,
		SourceType: domain.SourceManualAdjustment,
		SourceID:   sourceID,
		Points:     points,
		XP:         xp,
	}
}

func TestAwardFromSource_LevelsUp(t *testing.T) {
	svc, _, pub := newTestService(t)
	ctx := context.Background()

	res, err := svc.AwardFromSource(ctx, manual("u1", "adj-1", 10, 150))
	require.NoError(t, err)

	assert.False(t, res.AlreadyAwarded)
	assert.Equal(t, int64(150), res.XPAwarded)
	assert.True(t, res.LeveledUp)
	assert.Equal(t, 1, res.PreviousLevel)
	assert.Equal(t, 2, res.Progression.Level)
	assert.Equal(t, int64(300), res.Progression.NextLevelXP)
	assert.InDelta(t, 0.25, res.Progression.ProgressToNextLevel, 1e-9)
	assert.Equal(t, domain.TierBronze, res.Progression.Tier)

	assert.Equal(t, []event.Type{event.ProgressionAwarded, event.LevelUp}, pub.publishedTypes())
}

func TestAwardFromSource_IdempotentPerSource(t *testing.T) {
	svc, _, pub := newTestService(t)
	ctx := context.Background()

	first, err := svc.AwardFromSource(ctx, manual("u1", "adj-1", 10, 50))
	require.NoError(t, err)
	require.False(t, first.AlreadyAwarded)

	second, err := svc.AwardFromSource(ctx, manual("u1", "adj-1", 999, 999))
	require.NoError(t, err)
	assert.True(t, second.AlreadyAwarded)
	assert.Zero(t, second.PointsAwarded)
	assert.Zero(t, second.XPAwarded)
	assert.False(t, second.LeveledUp)
	assert.Equal(t, int64(10), second.Progression.Points)
	assert.Equal(t, int64(50), second.Progression.XP)

	// Only the first award publishes
	assert.Equal(t, []event.Type{event.ProgressionAwarded}, pub.publishedTypes())

	prog, err := svc.GetUserProgression(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(10), prog.Points)
	assert.Equal(t, int64(50), prog.XP)
}

func TestAwardFromSource_SameIDDifferentSourceTypes(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.AwardFromSource(ctx, manual("u1", "42", 1, 1))
	require.NoError(t, err)

	res, err := svc.AwardFromSource(ctx, domain.AwardRequest{
		UserID: "u1", SourceType: domain.SourceTaskCompleted, SourceID: "42", Points: 1, XP: 1,
	})
	require.NoError(t, err)
	assert.False(t, res.AlreadyAwarded)
	assert.Equal(t, int64(2), res.Progression.Points)
}

func TestAwardFromSource_InvalidInput(t *testing.T) {
	svc, store, pub := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  domain.AwardRequest
	}{
		{"empty user", manual("", "a", 1, 1)},
		{"empty source id", manual("u", "", 1, 1)},
		{"negative points", manual("u", "a", -1, 0)},
		{"negative xp", manual("u", "a", 0, -1)},
		{"unknown source", domain.AwardRequest{UserID: "u", SourceType: "BOGUS", SourceID: "a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AwardFromSource(ctx, tt.req)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}

	rec, err := store.GetAwardRecord(ctx, domain.SourceManualAdjustment, "a")
	require.NoError(t, err)
	assert.Nil(t, rec)
	assert.Empty(t, pub.publishedTypes())
}

func TestAwardFromSource_BeginTxFailure(t *testing.T) {
	repo := &mockAwardRepo{}
	repo.On("BeginTx", mock.Anything).Return(nil, errors.New("pool closed"))

	svc := NewService(repo, nil, DefaultFormula(), nil)
	_, err := svc.AwardFromSource(context.Background(), manual("u", "a", 1, 1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrMsgBeginTxFailed)
	repo.AssertExpectations(t)
}

func TestAwardFromSource_ConcurrentDuplicatesAwardOnce(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	var awarded int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := svc.AwardFromSource(ctx, manual("u1", "session-1", 5, 5))
			if err == nil && !res.AlreadyAwarded {
				atomic.AddInt32(&awarded, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), awarded)
	prog, err := svc.GetUserProgression(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(5), prog.Points)
}

func TestAwardInTx_RollbackLeavesNoTrace(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	tx, err := store.BeginTx(ctx)
	require.NoError(t, err)
	res, err := svc.AwardInTx(ctx, tx, manual("u1", "adj-1", 10, 10))
	require.NoError(t, err)
	assert.Equal(t, int64(10), res.Progression.Points)
	require.NoError(t, tx.Rollback(ctx))

	rec, err := store.GetAwardRecord(ctx, domain.SourceManualAdjustment, "adj-1")
	require.NoError(t, err)
	assert.Nil(t, rec)

	// The same source can still be awarded later
	res, err = svc.AwardFromSource(ctx, manual("u1", "adj-1", 10, 10))
	require.NoError(t, err)
	assert.False(t, res.AlreadyAwarded)
}

func TestAwardFromWorkSession(t *testing.T) {
	hour := int64(3600)

	tests := []struct {
		name       string
		duration   *int64
		taskIDs    []string
		wantPoints int64
		wantXP     int64
	}{
		{"one hour, no tasks", &hour, nil, 10, 120},
		{"one hour, duplicate task ids", &hour, []string{"a", "a", "b"}, 14, 160},
		{"no duration", nil, nil, 2, 25},
		{"no duration with task", nil, []string{"a"}, 4, 45},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newTestService(t)
			res, err := svc.AwardFromWorkSession(context.Background(), domain.WorkSessionAward{
				UserID:           "u1",
				WorkSessionID:    "ws-" + string(rune('a'+i)),
				DurationSeconds:  tt.duration,
				CompletedTaskIDs: tt.taskIDs,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.wantPoints, res.PointsAwarded)
			assert.Equal(t, tt.wantXP, res.XPAwarded)
		})
	}
}

func TestAwardFromWorkSession_NegativeDuration(t *testing.T) {
	svc, _, _ := newTestService(t)
	neg := int64(-1)
	_, err := svc.AwardFromWorkSession(context.Background(), domain.WorkSessionAward{
		UserID: "u1", WorkSessionID: "ws", DurationSeconds: &neg,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAwardFromTaskCompletion(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	res, err := svc.AwardFromTaskCompletion(ctx, domain.TaskCompletionAward{UserID: "u1", TaskID: "t1"})
	require.NoError(t, err)
	assert.Equal(t, int64(5), res.PointsAwarded)
	assert.Equal(t, int64(50), res.XPAwarded)

	three := int64(3)
	res, err = svc.AwardFromTaskCompletion(ctx, domain.TaskCompletionAward{UserID: "u1", TaskID: "t2", TaskPoints: &three, ProjectID: "p1"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.PointsAwarded)
	assert.Equal(t, int64(30), res.XPAwarded)

	rec, err := store.GetAwardRecord(ctx, domain.SourceTaskCompleted, "t2")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "p1", rec.ProjectID)
	assert.Equal(t, fixedNow, rec.CreatedAt)
}

func TestGetUserProgression_UnknownUser(t *testing.T) {
	svc, _, _ := newTestService(t)

	prog, err := svc.GetUserProgression(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Equal(t, 1, prog.Level)
	assert.Equal(t, domain.TierBronze, prog.Tier)
	assert.Zero(t, prog.XP)
	assert.Equal(t, int64(100), prog.NextLevelXP)

	_, err = svc.GetUserProgression(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestGetUserProgression_MaxLevel(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.AdjustManually(ctx, "u1", "adj", 0, 5000)
	require.NoError(t, err)

	prog, err := svc.GetUserProgression(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 4, prog.Level)
	assert.Equal(t, 1.0, prog.ProgressToNextLevel)
	assert.Equal(t, int64(5000), prog.NextLevelXP)
}

func TestGetActivityStats(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	half := int64(1800)

	// Two days ago, yesterday and today
	for i, offset := range []int{-2, -1, 0} {
		svc.now = func() time.Time { return fixedNow.AddDate(0, 0, offset) }
		_, err := svc.AwardFromWorkSession(ctx, domain.WorkSessionAward{
			UserID:          "u1",
			WorkSessionID:   "ws-" + string(rune('a'+i)),
			DurationSeconds: &half,
			ProjectID:       "p1",
		})
		require.NoError(t, err)
	}
	svc.now = func() time.Time { return fixedNow }
	_, err := svc.AwardFromTaskCompletion(ctx, domain.TaskCompletionAward{UserID: "u1", TaskID: "t1", ProjectID: "p2"})
	require.NoError(t, err)

	stats, err := svc.GetActivityStats(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.WorkSessions)
	assert.Equal(t, int64(1), stats.CompletedTasks)
	assert.Equal(t, int64(2), stats.Projects)
	assert.InDelta(t, 1.5, stats.WeeklyHours, 1e-9)
	assert.Equal(t, 3, stats.ConsecutiveDays)
	assert.Equal(t, int64(3*5+5), stats.Points)
}

func TestConsecutiveDays(t *testing.T) {
	day := func(offset int) time.Time {
		return time.Date(2026, 10, 17+offset, 0, 0, 0, 0, time.UTC)
	}

	tests := []struct {
		name string
		days []time.Time
		want int
	}{
		{"no activity", nil, 0},
		{"today only", []time.Time{day(0)}, 1},
		{"ends yesterday", []time.Time{day(-1), day(-2)}, 2},
		{"broken streak", []time.Time{day(-2), day(-3)}, 0},
		{"gap stops count", []time.Time{day(0), day(-1), day(-3), day(-4)}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ConsecutiveDays(tt.days, fixedNow))
		})
	}
}

func TestAwards_ProgressionNeverDecreases(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	ptr := func(v int64) *int64 { return &v }

	steps := []func() error{
		func() error {
			_, err := svc.AwardFromWorkSession(ctx, domain.WorkSessionAward{UserID: "mo", WorkSessionID: "ws-1", DurationSeconds: ptr(1800), CompletedTaskIDs: []string{"a", "b"}})
			return err
		},
		func() error {
			_, err := svc.AwardFromTaskCompletion(ctx, domain.TaskCompletionAward{UserID: "mo", TaskID: "t-1", TaskPoints: ptr(7)})
			return err
		},
		func() error {
			_, err := svc.AwardFromTaskCompletion(ctx, domain.TaskCompletionAward{UserID: "mo", TaskID: "t-1", TaskPoints: ptr(99)})
			return err
		},
		func() error {
			_, err := svc.AdjustManually(ctx, "mo", "adj-1", 0, 250)
			return err
		},
		func() error {
			_, err := svc.AdjustManually(ctx, "mo", "adj-2", -50, -500)
			return err
		},
		func() error {
			_, err := svc.AwardFromWorkSession(ctx, domain.WorkSessionAward{UserID: "mo", WorkSessionID: "ws-1", DurationSeconds: ptr(36000)})
			return err
		},
		func() error {
			_, err := svc.AwardFromWorkSession(ctx, domain.WorkSessionAward{UserID: "mo", WorkSessionID: "ws-2"})
			return err
		},
		func() error {
			_, err := svc.AdjustManually(ctx, "mo", "adj-1", 0, 250)
			return err
		},
		func() error {
			_, err := svc.AwardFromTaskCompletion(ctx, domain.TaskCompletionAward{UserID: "mo", TaskID: "t-2"})
			return err
		},
		func() error {
			_, err := svc.AdjustManually(ctx, "mo", "adj-3", 500, 1000)
			return err
		},
	}

	prev, err := svc.GetUserProgression(ctx, "mo")
	require.NoError(t, err)
	for round := 0; round < 2; round++ {
		for i, step := range steps {
			_ = step()
			got, err := svc.GetUserProgression(ctx, "mo")
			require.NoError(t, err)
			assert.GreaterOrEqual(t, got.Points, prev.Points, "round %d step %d points", round, i)
			assert.GreaterOrEqual(t, got.XP, prev.XP, "round %d step %d xp", round, i)
			assert.GreaterOrEqual(t, got.Level, prev.Level, "round %d step %d level", round, i)
			assert.GreaterOrEqual(t, got.Tier.Rank(), prev.Tier.Rank(), "round %d step %d tier", round, i)
			prev = got
		}
	}
	assert.Equal(t, 4, prev.Level)
}
