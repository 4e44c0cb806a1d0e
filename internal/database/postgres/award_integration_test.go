package postgres

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osse101/LabRewards_Go/internal/domain"
	"github.com/osse101/LabRewards_Go/internal/repository"
)

func insertAward(t *testing.T, repo *AwardRepository, rec *domain.AwardRecord) bool {
	t.Helper()
	ctx := context.Background()
	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)
	defer repository.SafeRollback(ctx, tx)

	inserted, err := tx.InsertAwardRecord(ctx, rec)
	require.NoError(t, err)
	require.NoError(t, tx.Commit(ctx))
	return inserted
}

func TestAwardRepository_InsertAwardRecordIsIdempotent(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewAwardRepository(pool)
	ctx := context.Background()

	rec := &domain.AwardRecord{
		SourceType: domain.SourceTaskCompleted,
		SourceID:   "task-1",
		UserID:     "user-1",
		Points:     5,
		XP:         50,
		TaskCount:  1,
		ProjectID:  "proj-a",
		CreatedAt:  time.Now().UTC(),
	}
	assert.True(t, insertAward(t, repo, rec))
	assert.False(t, insertAward(t, repo, rec), "second insert with the same source must be ignored")

	stored, err := repo.GetAwardRecord(ctx, domain.SourceTaskCompleted, "task-1")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, int64(5), stored.Points)
	assert.Equal(t, "proj-a", stored.ProjectID)

	missing, err := repo.GetAwardRecord(ctx, domain.SourceTaskCompleted, "task-2")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestAwardRepository_ConcurrentInsertOnlyOneWins(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewAwardRepository(pool)

	const workers = 10
	var wg sync.WaitGroup
	results := make(chan bool, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx := context.Background()
			tx, err := repo.BeginTx(ctx)
			if err != nil {
				return
			}
			defer repository.SafeRollback(ctx, tx)
			inserted, err := tx.InsertAwardRecord(ctx, &domain.AwardRecord{
				SourceType: domain.SourceWorkSessionCompleted,
				SourceID:   "ws-race",
				UserID:     "user-race",
				Points:     1,
				CreatedAt:  time.Now().UTC(),
			})
			if err != nil {
				return
			}
			if err := tx.Commit(ctx); err != nil {
				return
			}
			results <- inserted
		}()
	}
	wg.Wait()
	close(results)

	wins := 0
	for inserted := range results {
		if inserted {
			wins++
		}
	}
	assert.Equal(t, 1, wins)
}

func TestAwardRepository_ProgressionRowCreatedOnLock(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewAwardRepository(pool)
	ctx := context.Background()

	st, err := repo.GetProgression(ctx, "fresh-user")
	require.NoError(t, err)
	assert.Nil(t, st)

	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)
	locked, err := tx.GetProgressionForUpdate(ctx, "fresh-user")
	require.NoError(t, err)
	assert.Equal(t, 1, locked.Level)
	assert.Equal(t, domain.TierBronze, locked.Tier)

	locked.Points = 120
	locked.XP = 400
	locked.Level = 3
	locked.UpdatedAt = time.Now().UTC()
	require.NoError(t, tx.UpdateProgression(ctx, locked))
	require.NoError(t, tx.Commit(ctx))

	st, err = repo.GetProgression(ctx, "fresh-user")
	require.NoError(t, err)
	require.NotNil(t, st)
	assert.Equal(t, int64(120), st.Points)
	assert.Equal(t, int64(400), st.XP)
	assert.Equal(t, 3, st.Level)
}

func TestAwardRepository_ActivityAggregates(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewAwardRepository(pool)
	ctx := context.Background()

	now := time.Now().UTC()
	yesterday := now.Add(-24 * time.Hour)
	lastMonth := now.Add(-30 * 24 * time.Hour)

	records := []*domain.AwardRecord{
		{SourceType: domain.SourceTaskCompleted, SourceID: "t1", UserID: "u", TaskCount: 1, ProjectID: "p1", CreatedAt: now},
		{SourceType: domain.SourceTaskCompleted, SourceID: "t2", UserID: "u", TaskCount: 1, ProjectID: "p2", CreatedAt: yesterday},
		{SourceType: domain.SourceWorkSessionCompleted, SourceID: "w1", UserID: "u", DurationSeconds: 3600, ProjectID: "p1", CreatedAt: now},
		{SourceType: domain.SourceWorkSessionCompleted, SourceID: "w2", UserID: "u", DurationSeconds: 7200, CreatedAt: lastMonth},
		{SourceType: domain.SourceTaskCompleted, SourceID: "other", UserID: "someone-else", TaskCount: 1, CreatedAt: now},
	}
	for _, rec := range records {
		require.True(t, insertAward(t, repo, rec))
	}

	totals, err := repo.GetActivityTotals(ctx, "u", now.Add(-7*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), totals.CompletedTasks)
	assert.Equal(t, int64(2), totals.WorkSessions)
	assert.Equal(t, int64(2), totals.Projects)
	assert.Equal(t, int64(3600), totals.WorkSecondsSince, "only sessions inside the window count")

	days, err := repo.GetActivityDays(ctx, "u", now.Add(-7*24*time.Hour))
	require.NoError(t, err)
	require.Len(t, days, 2)
	assert.True(t, days[0].After(days[1]), "days are newest first")

	users, err := repo.ListRecentlyActiveUsers(ctx, now.Add(-time.Hour))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"u", "someone-else"}, users)
}
