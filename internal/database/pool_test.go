package database

import (
	"context"
	"flag"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osse101/LabRewards_Go/internal/testing/pgtest"
)

var testDBConnString string

func TestMain(m *testing.M) {
	flag.Parse()

	stop := func() {}
	if !testing.Short() {
		testDBConnString, stop = pgtest.Start(context.Background())
	}

	code := m.Run()
	stop()
	os.Exit(code)
}

func TestNewPool_InvalidConnString(t *testing.T) {
	_, err := NewPool(context.Background(), PoolConfig{ConnString: "://not a dsn", MaxConns: 5})
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrMsgFailedToParseConnString)
}

func TestPoolConfig_Apply(t *testing.T) {
	pc, err := pgxpool.ParseConfig("postgres://u:p@localhost:5432/db")
	require.NoError(t, err)

	PoolConfig{MaxConns: 1}.apply(pc)
	assert.Equal(t, int32(1), pc.MaxConns)
	assert.Equal(t, int32(1), pc.MinConns, "min never exceeds max")
	assert.Equal(t, DefaultMaxConnIdleTime, pc.MaxConnIdleTime)
	assert.Equal(t, DefaultMaxConnLifetime, pc.MaxConnLifetime)

	PoolConfig{MaxConns: 10, MaxConnIdleTime: time.Minute, MaxConnLifetime: 2 * time.Minute}.apply(pc)
	assert.Equal(t, int32(10), pc.MaxConns)
	assert.Equal(t, int32(DefaultMinConnections), pc.MinConns)
	assert.Equal(t, time.Minute, pc.MaxConnIdleTime)
	assert.Equal(t, 2*time.Minute, pc.MaxConnLifetime)
}

func TestMigrate_CreatesTables(t *testing.T) {
	pgtest.RequireDSN(t, testDBConnString)

	pool, err := NewPool(context.Background(), PoolConfig{ConnString: testDBConnString, MaxConns: 5})
	require.NoError(t, err)
	defer pool.Close()

	ctx := context.Background()
	version, err := Migrate(ctx, pool)
	require.NoError(t, err)
	assert.Positive(t, version)

	// second run is a no-op
	again, err := Migrate(ctx, pool)
	require.NoError(t, err)
	assert.Equal(t, version, again)

	for _, table := range []string{"user_progression", "award_records", "badges", "user_badges",
		"quests", "user_quest_states", "quest_activity_sources", "wallets", "chest_definitions", "chest_drop_entries", "inventory_items"} {
		var exists bool
		err := pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = $1)`, table).Scan(&exists)
		require.NoError(t, err)
		assert.True(t, exists, "table %s should exist", table)
	}
}

func TestPool_ConnectionsReleased(t *testing.T) {
	pgtest.RequireDSN(t, testDBConnString)

	pool, err := NewPool(context.Background(), PoolConfig{ConnString: testDBConnString, MaxConns: 5})
	require.NoError(t, err)
	defer pool.Close()

	ctx := context.Background()
	for i := 0; i < 10; i++ {
		conn, err := pool.Acquire(ctx)
		require.NoError(t, err, "Failed to acquire connection on iteration %d", i)

		var result int
		require.NoError(t, conn.QueryRow(ctx, "SELECT 1").Scan(&result))
		assert.Equal(t, 1, result)

		conn.Release()
	}

	assert.Equal(t, int32(0), pool.Stat().AcquiredConns())
}
