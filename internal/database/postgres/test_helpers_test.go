package postgres

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/osse101/LabRewards_Go/internal/database"
	"github.com/osse101/LabRewards_Go/internal/testing/pgtest"
)

var (
	testDBConnString string
	testPool         *pgxpool.Pool
	migrateOnce      sync.Once
	migrateErr       error
)

func TestMain(m *testing.M) {
	flag.Parse()

	stop := func() {}
	if !testing.Short() {
		testDBConnString, stop = pgtest.Start(context.Background())
		if testDBConnString != "" {
			pool, err := database.NewPool(context.Background(), database.PoolConfig{ConnString: testDBConnString, MaxConns: 20})
			if err != nil {
				fmt.Printf("WARNING: Failed to connect to test database: %v\n", err)
			} else {
				testPool = pool
			}
		}
	}

	code := m.Run()

	if testPool != nil {
		testPool.Close()
	}
	stop()
	os.Exit(code)
}

// setupTestDB returns the shared pool with migrations applied and all tables empty.
// It skips the test in short mode or when Docker is unavailable.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	pgtest.RequireDSN(t, testDBConnString)
	if testPool == nil {
		t.Skip("Skipping integration test: database not available")
	}

	ctx := context.Background()
	ensureMigrations(t)

	_, err := testPool.Exec(ctx, `
		TRUNCATE user_progression, award_records, user_badges, badges, user_quest_states, quests, quest_activity_sources,
		         wallets, chest_drop_entries, chest_definitions, inventory_items
		RESTART IDENTITY CASCADE`)
	if err != nil {
		t.Fatalf("failed to truncate tables: %v", err)
	}
	return testPool
}

// ensureMigrations applies migrations once for all tests in the package
func ensureMigrations(t *testing.T) {
	migrateOnce.Do(func() {
		_, migrateErr = database.Migrate(context.Background(), testPool)
	})
	if migrateErr != nil {
		t.Fatalf("failed to apply migrations: %v", migrateErr)
	}
}
