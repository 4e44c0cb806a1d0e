package quest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osse101/LabRewards_Go/internal/award"
	"github.com/osse101/LabRewards_Go/internal/cache"
	"github.com/osse101/LabRewards_Go/internal/concurrency"
	"github.com/osse101/LabRewards_Go/internal/database/memory"
	"github.com/osse101/LabRewards_Go/internal/domain"
	"github.com/osse101/LabRewards_Go/internal/event"
	"github.com/osse101/LabRewards_Go/internal/inventory"
	"github.com/osse101/LabRewards_Go/internal/leveling"
	"github.com/osse101/LabRewards_Go/internal/repository"
	"github.com/osse101/LabRewards_Go/internal/wallet"
)

type testEnv struct {
	svc    *service
	store  *memory.Store
	awards award.Service
	wallet wallet.Service
	inv    inventory.Service
	locks  *concurrency.LockManager
}

// busPublisher delivers events synchronously
type busPublisher struct {
	bus event.Bus
}

func (p busPublisher) PublishWithRetry(ctx context.Context, evt event.Event) {
	_ = p.bus.Publish(ctx, evt)
}

func newTestEnv(t *testing.T, pub event.Publisher) *testEnv {
	t.Helper()
	store := memory.New()
	curve, err := leveling.NewCurve([]int64{0, 100, 300, 700}, nil)
	require.NoError(t, err)

	awards := award.NewService(store, curve, award.DefaultFormula(), pub)
	locks := concurrency.NewLockManager()
	w := wallet.NewService(store, locks)
	inv := inventory.NewService(store)
	svc := NewService(store, awards, w, inv, locks, pub, cache.DefaultConfig()).(*service)
	return &testEnv{svc: svc, store: store, awards: awards, wallet: w, inv: inv, locks: locks}
}

func dailyTaskQuest() *domain.Quest {
	return &domain.Quest{
		Code:      "daily_two_tasks",
		Title:     "Two a day",
		QuestType: domain.QuestTypeDaily,
		Requirements: []domain.QuestRequirement{
			{Kind: domain.RequirementCompleteTasks, Target: 2},
		},
		Rewards: []domain.QuestReward{
			{Kind: domain.RewardPoints, Amount: 10},
			{Kind: domain.RewardXP, Amount: 50},
			{Kind: domain.RewardCurrency, Amount: 25},
			{Kind: domain.RewardItem, Amount: 1, ItemKey: "coffee_voucher", ItemName: "Coffee Voucher", Rarity: "common"},
		},
		Active: true,
	}
}

func tasks(userID string, n int64) domain.QuestActivity {
	return domain.QuestActivity{
		UserID: userID,
		Deltas: map[domain.QuestCounter]int64{domain.CounterTasksCompleted: n},
	}
}

func findView(t *testing.T, views []domain.UserQuestView, questID int) domain.UserQuestView {
	t.Helper()
	for _, v := range views {
		if v.Quest.ID == questID {
			return v
		}
	}
	t.Fatalf("quest %d not in view", questID)
	return domain.UserQuestView{}
}

func TestQuestLifecycle_CompleteAndClaim(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	q := dailyTaskQuest()
	require.NoError(t, env.svc.CreateQuest(ctx, q))
	assert.Equal(t, domain.QuestScopeGlobal, q.Scope)

	views, err := env.svc.GetUserQuests(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, domain.QuestStatusEligible, findView(t, views, q.ID).Status)

	completed, err := env.svc.RecordActivity(ctx, tasks("alice", 1))
	require.NoError(t, err)
	assert.Empty(t, completed)

	views, err = env.svc.GetUserQuests(ctx, "alice")
	require.NoError(t, err)
	v := findView(t, views, q.ID)
	assert.Equal(t, domain.QuestStatusInProgress, v.Status)
	assert.Equal(t, int64(1), v.Progress[domain.CounterTasksCompleted])

	_, err = env.svc.ClaimQuestReward(ctx, "alice", q.ID)
	assert.ErrorIs(t, err, domain.ErrQuestNotCompleted)

	completed, err = env.svc.RecordActivity(ctx, tasks("alice", 1))
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, q.ID, completed[0].ID)

	res, err := env.svc.ClaimQuestReward(ctx, "alice", q.ID)
	require.NoError(t, err)
	assert.False(t, res.AlreadyClaimed)
	assert.Equal(t, int64(10), res.PointsAwarded)
	assert.Equal(t, int64(50), res.XPAwarded)
	assert.Equal(t, int64(25), res.CurrencyAwarded)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "quest:daily_two_tasks", res.Items[0].AcquiredVia)
	require.NotNil(t, res.Progression)
	assert.Equal(t, int64(50), res.Progression.XP)

	balance, err := env.wallet.GetBalance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(25), balance)

	items, err := env.inv.GetInventory(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "coffee_voucher", items[0].ItemKey)

	again, err := env.svc.ClaimQuestReward(ctx, "alice", q.ID)
	require.NoError(t, err)
	assert.True(t, again.AlreadyClaimed)
	assert.Zero(t, again.PointsAwarded)

	prog, err := env.awards.GetUserProgression(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(10), prog.Points)

	// Claimed quests ignore further activity in the same period
	completed, err = env.svc.RecordActivity(ctx, tasks("alice", 5))
	require.NoError(t, err)
	assert.Empty(t, completed)

	views, err = env.svc.GetUserQuests(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, domain.QuestStatusClaimed, findView(t, views, q.ID).Status)
}

func TestClaimQuestReward_ConcurrentClaimsGrantOnce(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	q := dailyTaskQuest()
	require.NoError(t, env.svc.CreateQuest(ctx, q))
	_, err := env.svc.RecordActivity(ctx, tasks("bob", 2))
	require.NoError(t, err)

	const n = 10
	var wg sync.WaitGroup
	results := make([]*domain.ClaimResult, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := env.svc.ClaimQuestReward(ctx, "bob", q.ID)
			assert.NoError(t, err)
			results[i] = res
		}(i)
	}
	wg.Wait()

	fresh := 0
	for _, r := range results {
		if r != nil && !r.AlreadyClaimed {
			fresh++
		}
	}
	assert.Equal(t, 1, fresh)

	balance, err := env.wallet.GetBalance(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, int64(25), balance)
}

// grantOrder wraps the wallet and inventory and records the order of grants
type grantOrder struct {
	mu     sync.Mutex
	calls  []string
	wallet WalletCrediter
	inv    InventoryAdder
}

func (g *grantOrder) CreditInTx(ctx context.Context, tx repository.EngineTx, userID string, amount int64) (int64, error) {
	g.mu.Lock()
	g.calls = append(g.calls, "wallet")
	g.mu.Unlock()
	return g.wallet.CreditInTx(ctx, tx, userID, amount)
}

func (g *grantOrder) AddInTx(ctx context.Context, tx repository.EngineTx, grant domain.InventoryGrant) error {
	g.mu.Lock()
	g.calls = append(g.calls, "inventory")
	g.mu.Unlock()
	return g.inv.AddInTx(ctx, tx, grant)
}

func TestClaimQuestReward_CreditsWalletBeforeItems(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	order := &grantOrder{wallet: env.wallet, inv: env.inv}
	env.svc.wallet = order
	env.svc.inventory = order

	q := dailyTaskQuest()
	q.Rewards = append([]domain.QuestReward{
		{Kind: domain.RewardItem, Amount: 2, ItemKey: "sticker", ItemName: "Sticker", Rarity: "common"},
	}, q.Rewards...)
	require.NoError(t, env.svc.CreateQuest(ctx, q))
	_, err := env.svc.RecordActivity(ctx, tasks("ken", 2))
	require.NoError(t, err)

	res, err := env.svc.ClaimQuestReward(ctx, "ken", q.ID)
	require.NoError(t, err)
	assert.Len(t, res.Items, 2)
	assert.Equal(t, []string{"wallet", "inventory", "inventory"}, order.calls)
}

func TestClaimQuestReward_WaitsForWalletLock(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	q := dailyTaskQuest()
	require.NoError(t, env.svc.CreateQuest(ctx, q))
	_, err := env.svc.RecordActivity(ctx, tasks("lena", 2))
	require.NoError(t, err)

	unlock := env.locks.Lock(concurrency.WalletKey("lena"))
	done := make(chan *domain.ClaimResult, 1)
	go func() {
		res, err := env.svc.ClaimQuestReward(ctx, "lena", q.ID)
		assert.NoError(t, err)
		done <- res
	}()

	select {
	case <-done:
		t.Fatal("claim finished while another wallet writer held the lock")
	case <-time.After(50 * time.Millisecond):
	}
	unlock()

	select {
	case res := <-done:
		require.NotNil(t, res)
		assert.Equal(t, int64(25), res.CurrencyAwarded)
	case <-time.After(2 * time.Second):
		t.Fatal("claim did not finish after the lock was released")
	}
}

func TestRecordActivity_SkipsAppliedSource(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	q := dailyTaskQuest()
	require.NoError(t, env.svc.CreateQuest(ctx, q))

	activity := tasks("mona", 1)
	activity.SourceType = domain.SourceTaskCompleted
	activity.SourceID = "task-1"
	for i := 0; i < 3; i++ {
		_, err := env.svc.RecordActivity(ctx, activity)
		require.NoError(t, err)
	}

	views, err := env.svc.GetUserQuests(ctx, "mona")
	require.NoError(t, err)
	v := findView(t, views, q.ID)
	assert.Equal(t, domain.QuestStatusInProgress, v.Status)
	assert.Equal(t, int64(1), v.Progress[domain.CounterTasksCompleted])

	// Same source id for another user is independent
	activity.UserID = "nico"
	_, err = env.svc.RecordActivity(ctx, activity)
	require.NoError(t, err)
	views, err = env.svc.GetUserQuests(ctx, "nico")
	require.NoError(t, err)
	assert.Equal(t, int64(1), findView(t, views, q.ID).Progress[domain.CounterTasksCompleted])
}

func TestQuestGates_LockedUntilLevel(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	q := dailyTaskQuest()
	q.Code = "veteran_tasks"
	q.MinLevel = 2
	require.NoError(t, env.svc.CreateQuest(ctx, q))

	views, err := env.svc.GetUserQuests(ctx, "carol")
	require.NoError(t, err)
	assert.Equal(t, domain.QuestStatusLocked, findView(t, views, q.ID).Status)

	require.NoError(t, env.svc.RefreshEligibility(ctx, "carol"))
	state, err := env.store.GetQuestState(ctx, "carol", q.ID, q.PeriodKey(time.Now()))
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, domain.QuestStatusLocked, state.Status)

	// Activity below the gate does not count
	completed, err := env.svc.RecordActivity(ctx, tasks("carol", 3))
	require.NoError(t, err)
	assert.Empty(t, completed)

	_, err = env.svc.ClaimQuestReward(ctx, "carol", q.ID)
	assert.ErrorIs(t, err, domain.ErrQuestLocked)

	_, err = env.awards.AdjustManually(ctx, "carol", "boost-1", 0, 100)
	require.NoError(t, err)
	require.NoError(t, env.svc.RefreshEligibility(ctx, "carol"))

	views, err = env.svc.GetUserQuests(ctx, "carol")
	require.NoError(t, err)
	v := findView(t, views, q.ID)
	assert.Equal(t, domain.QuestStatusEligible, v.Status)
	assert.Zero(t, v.Progress[domain.CounterTasksCompleted])

	completed, err = env.svc.RecordActivity(ctx, tasks("carol", 2))
	require.NoError(t, err)
	assert.Len(t, completed, 1)
}

func TestRecordActivity_ProjectScope(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	q := &domain.Quest{
		Code:         "apollo_hours",
		Title:        "Apollo hours",
		QuestType:    domain.QuestTypeWeekly,
		Scope:        domain.QuestScopeProject,
		ProjectID:    "apollo",
		Requirements: []domain.QuestRequirement{{Kind: domain.RequirementWorkHours, Target: 1}},
		Rewards:      []domain.QuestReward{{Kind: domain.RewardCurrency, Amount: 5}},
		Active:       true,
	}
	require.NoError(t, env.svc.CreateQuest(ctx, q))

	work := func(project string, secs int64) domain.QuestActivity {
		return domain.QuestActivity{
			UserID:    "dave",
			ProjectID: project,
			Deltas:    map[domain.QuestCounter]int64{domain.CounterWorkSeconds: secs},
		}
	}

	completed, err := env.svc.RecordActivity(ctx, work("gemini", 7200))
	require.NoError(t, err)
	assert.Empty(t, completed)

	completed, err = env.svc.RecordActivity(ctx, work("apollo", 1800))
	require.NoError(t, err)
	assert.Empty(t, completed)

	completed, err = env.svc.RecordActivity(ctx, work("apollo", 1800))
	require.NoError(t, err)
	assert.Len(t, completed, 1)

	res, err := env.svc.ClaimQuestReward(ctx, "dave", q.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), res.CurrencyAwarded)
	assert.Nil(t, res.Items)
	assert.Zero(t, res.PointsAwarded)
}

func TestClaimQuestReward_PreviousPeriodCompletion(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	q := dailyTaskQuest()
	require.NoError(t, env.svc.CreateQuest(ctx, q))

	day1 := time.Date(2026, 3, 9, 22, 0, 0, 0, time.UTC)
	env.svc.now = func() time.Time { return day1 }
	_, err := env.svc.RecordActivity(ctx, tasks("erin", 2))
	require.NoError(t, err)

	env.svc.now = func() time.Time { return day1.Add(4 * time.Hour) }

	views, err := env.svc.GetUserQuests(ctx, "erin")
	require.NoError(t, err)
	v := findView(t, views, q.ID)
	assert.Equal(t, "2026-03-09", v.PeriodKey)
	assert.Equal(t, domain.QuestStatusCompleted, v.Status)

	res, err := env.svc.ClaimQuestReward(ctx, "erin", q.ID)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-09", res.PeriodKey)
	assert.False(t, res.AlreadyClaimed)

	// The new day starts fresh
	completed, err := env.svc.RecordActivity(ctx, tasks("erin", 2))
	require.NoError(t, err)
	assert.Len(t, completed, 1)

	res, err = env.svc.ClaimQuestReward(ctx, "erin", q.ID)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-10", res.PeriodKey)
	assert.False(t, res.AlreadyClaimed)

	balance, err := env.wallet.GetBalance(ctx, "erin")
	require.NoError(t, err)
	assert.Equal(t, int64(50), balance)
}

func TestRecordActivity_InvalidInput(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	_, err := env.svc.RecordActivity(ctx, tasks("", 1))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = env.svc.RecordActivity(ctx, tasks("frank", -1))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = env.svc.ClaimQuestReward(ctx, "frank", 404)
	assert.ErrorIs(t, err, domain.ErrQuestNotFound)

	_, err = env.svc.ClaimQuestReward(ctx, "frank", 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestQuestCRUD(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	invalid := []domain.Quest{
		{Title: "no code", QuestType: domain.QuestTypeDaily, Requirements: []domain.QuestRequirement{{Kind: domain.RequirementEarnXP, Target: 1}}},
		{Code: "no_reqs", Title: "x", QuestType: domain.QuestTypeDaily},
		{Code: "bad_type", Title: "x", QuestType: "HOURLY", Requirements: []domain.QuestRequirement{{Kind: domain.RequirementEarnXP, Target: 1}}},
		{Code: "no_project", Title: "x", QuestType: domain.QuestTypeDaily, Scope: domain.QuestScopeProject, Requirements: []domain.QuestRequirement{{Kind: domain.RequirementEarnXP, Target: 1}}},
		{Code: "item_no_key", Title: "x", QuestType: domain.QuestTypeDaily,
			Requirements: []domain.QuestRequirement{{Kind: domain.RequirementEarnXP, Target: 1}},
			Rewards:      []domain.QuestReward{{Kind: domain.RewardItem, Amount: 1}}},
	}
	for _, q := range invalid {
		q := q
		assert.ErrorIs(t, env.svc.CreateQuest(ctx, &q), domain.ErrInvalidInput, q.Code)
	}

	q := dailyTaskQuest()
	require.NoError(t, env.svc.CreateQuest(ctx, q))

	active, err := env.svc.ListQuests(ctx, true)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	q.Active = false
	require.NoError(t, env.svc.UpdateQuest(ctx, q))

	active, err = env.svc.ListQuests(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, active)

	all, err := env.svc.ListQuests(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, env.svc.DeleteQuest(ctx, q.ID))
	assert.ErrorIs(t, env.svc.DeleteQuest(ctx, q.ID), domain.ErrQuestNotFound)
	_, err = env.svc.GetQuest(ctx, q.ID)
	assert.ErrorIs(t, err, domain.ErrQuestNotFound)
}
