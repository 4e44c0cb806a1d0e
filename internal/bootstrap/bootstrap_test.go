package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osse101/LabRewards_Go/internal/award"
	"github.com/osse101/LabRewards_Go/internal/badge"
	"github.com/osse101/LabRewards_Go/internal/cache"
	"github.com/osse101/LabRewards_Go/internal/catalog"
	"github.com/osse101/LabRewards_Go/internal/concurrency"
	"github.com/osse101/LabRewards_Go/internal/config"
	"github.com/osse101/LabRewards_Go/internal/domain"
	"github.com/osse101/LabRewards_Go/internal/event"
	"github.com/osse101/LabRewards_Go/internal/inventory"
	"github.com/osse101/LabRewards_Go/internal/leveling"
	"github.com/osse101/LabRewards_Go/internal/loot"
	"github.com/osse101/LabRewards_Go/internal/quest"
	"github.com/osse101/LabRewards_Go/internal/wallet"
)

const testCatalog = `{
  "version": "1",
  "badges": [
    {"code": "two_tasks", "name": "Two Tasks", "criteria": [{"kind": "min_tasks", "value": 2}]}
  ],
  "quests": [
    {
      "code": "first_pair", "title": "First pair", "quest_type": "ONE_TIME",
      "requirements": [{"kind": "complete_tasks", "target": 2}],
      "rewards": [{"kind": "currency", "amount": 25}]
    }
  ],
  "chests": [
    {"name": "starter", "price_coins": 10, "entries": [{"item_key": "gem", "weight": 1}]}
  ]
}`

type engine struct {
	badges badge.Service
	quests quest.Service
	loot   loot.Service
	awards award.Service
	wallet wallet.Service
}

func newEngine(t *testing.T) (*engine, *config.Config) {
	t.Helper()
	cfg := &config.Config{
		StorageBackend:      config.StorageBackendMemory,
		EventDeadLetterPath: filepath.Join(t.TempDir(), "dl", "events.jsonl"),
		EventMaxRetries:     1,
		EventRetryDelay:     time.Millisecond,
	}

	repos, err := InitializeRepositories(cfg, nil)
	require.NoError(t, err)

	bus, publisher, err := InitializeEventSystem(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = publisher.Shutdown(context.Background()) })

	cacheCfg := cache.DefaultConfig()
	locks := concurrency.NewLockManager()
	awards := award.NewService(repos.Award, leveling.DefaultCurve(), award.DefaultFormula(), publisher)
	w := wallet.NewService(repos.Wallet, locks)
	inv := inventory.NewService(repos.Inventory)

	e := &engine{
		awards: awards,
		wallet: w,
		badges: badge.NewService(repos.Badge, awards, nil, publisher, cacheCfg),
		quests: quest.NewService(repos.Quest, awards, w, inv, locks, publisher, cacheCfg),
		loot:   loot.NewService(repos.Loot, w, inv, locks, publisher, cacheCfg),
	}

	RegisterEventHandlers(EventHandlerDependencies{
		EventBus:     bus,
		BadgeService: e.badges,
		QuestService: e.quests,
	})
	return e, cfg
}

func (e *engine) stores() catalog.Stores {
	return catalog.Stores{Badges: e.badges, Quests: e.quests, Chests: e.loot}
}

func TestInitializeRepositories(t *testing.T) {
	repos, err := InitializeRepositories(&config.Config{StorageBackend: config.StorageBackendMemory}, nil)
	require.NoError(t, err)
	assert.NotNil(t, repos.Award)
	assert.NotNil(t, repos.Loot)

	_, err = InitializeRepositories(&config.Config{StorageBackend: "sqlite"}, nil)
	assert.ErrorContains(t, err, "sqlite")
}

func TestInitializeEventSystem_CreatesDeadLetterDir(t *testing.T) {
	_, cfg := newEngine(t)
	_, err := os.Stat(filepath.Dir(cfg.EventDeadLetterPath))
	assert.NoError(t, err)
}

func TestEventSettingsFrom_Defaults(t *testing.T) {
	s := eventSettingsFrom(&config.Config{})
	assert.Equal(t, config.DefaultEventMaxRetries, s.maxRetries)
	assert.Equal(t, config.DefaultEventRetryDelay, s.retryDelay)
	assert.Equal(t, config.DefaultEventDeadLetterPath, s.deadLetterPath)

	s = eventSettingsFrom(&config.Config{EventMaxRetries: 2, EventRetryDelay: time.Second, EventDeadLetterPath: "x.jsonl"})
	assert.Equal(t, eventSettings{maxRetries: 2, retryDelay: time.Second, deadLetterPath: "x.jsonl"}, s)
}

func TestReportDeadLetters(t *testing.T) {
	dir := t.TempDir()
	assert.Zero(t, reportDeadLetters(filepath.Join(dir, "none.jsonl")))

	path := filepath.Join(dir, "dl.jsonl")
	w, err := event.NewDeadLetterWriter(path)
	require.NoError(t, err)
	require.NoError(t, w.Write(event.Event{Type: event.LevelUp}, 3, nil))
	require.NoError(t, w.Close())
	assert.Equal(t, 1, reportDeadLetters(path))
}

func TestSyncDefinitions(t *testing.T) {
	e, _ := newEngine(t)
	ctx := context.Background()

	res, err := SyncDefinitions(ctx, "", e.stores())
	require.NoError(t, err)
	assert.False(t, res.Changed())

	path := filepath.Join(t.TempDir(), "definitions.json")
	require.NoError(t, os.WriteFile(path, []byte(testCatalog), 0o600))

	res, err = SyncDefinitions(ctx, path, e.stores())
	require.NoError(t, err)
	assert.True(t, res.Changed())

	res, err = SyncDefinitions(ctx, path, e.stores())
	require.NoError(t, err)
	assert.False(t, res.Changed())

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"badges": [{"name": "no code"}]}`), 0o600))
	_, err = SyncDefinitions(ctx, bad, e.stores())
	assert.Error(t, err)

	_, err = SyncDefinitions(ctx, filepath.Join(t.TempDir(), "missing.json"), e.stores())
	assert.ErrorContains(t, err, ErrMsgFailedLoadDefinitions)
}

func TestRegisteredHandlers_DriveBadgesAndQuests(t *testing.T) {
	e, _ := newEngine(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "definitions.json")
	require.NoError(t, os.WriteFile(path, []byte(testCatalog), 0o600))
	_, err := SyncDefinitions(ctx, path, e.stores())
	require.NoError(t, err)

	for _, id := range []string{"t1", "t2"} {
		_, err := e.awards.AwardFromTaskCompletion(ctx, domain.TaskCompletionAward{UserID: "dana", TaskID: id})
		require.NoError(t, err)
	}

	held, err := e.badges.GetUserBadges(ctx, "dana")
	require.NoError(t, err)
	require.Len(t, held, 1)
	assert.Equal(t, "two_tasks", held[0].Badge.Code)

	quests, err := e.quests.ListQuests(ctx, true)
	require.NoError(t, err)
	require.Len(t, quests, 1)

	res, err := e.quests.ClaimQuestReward(ctx, "dana", quests[0].ID)
	require.NoError(t, err)
	assert.Equal(t, int64(25), res.CurrencyAwarded)

	balance, err := e.wallet.GetBalance(ctx, "dana")
	require.NoError(t, err)
	assert.Equal(t, int64(25), balance)
}

func TestCleanupLogs(t *testing.T) {
	dir := t.TempDir()
	names := []string{
		"session_2026-01-01_00-00-00.log",
		"session_2026-01-02_00-00-00.log",
		"session_2026-01-03_00-00-00.log",
		"notes.txt",
	}
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), nil, 0o600))
	}

	cleanupLogs(dir, 2)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var left []string
	for _, e := range entries {
		left = append(left, e.Name())
	}
	assert.ElementsMatch(t, []string{
		"session_2026-01-02_00-00-00.log",
		"session_2026-01-03_00-00-00.log",
		"notes.txt",
	}, left)
}

func TestGracefulShutdown_SkipsMissingComponents(t *testing.T) {
	assert.NotPanics(t, func() {
		GracefulShutdown(context.Background(), ShutdownComponents{})
	})
}
