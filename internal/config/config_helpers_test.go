package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetEnvAsInt(t *testing.T) {
	tests := []struct {
		name  string
		value *string
		want  int
	}{
		{"unset", nil, 42},
		{"valid", strp("100"), 100},
		{"negative", strp("-10"), -10},
		{"zero", strp("0"), 0},
		{"not a number", strp("not-a-number"), 42},
		{"float", strp("42.5"), 42},
		{"empty", strp(""), 42},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setOrUnset(t, "TEST_INT_VAR", tt.value)
			assert.Equal(t, tt.want, getEnvAsInt("TEST_INT_VAR", 42))
		})
	}
}

func TestGetEnvAsDuration(t *testing.T) {
	def := 5 * time.Minute
	tests := []struct {
		name  string
		value *string
		want  time.Duration
	}{
		{"unset", nil, def},
		{"minutes", strp("10m"), 10 * time.Minute},
		{"milliseconds", strp("500ms"), 500 * time.Millisecond},
		{"compound", strp("1h30m45s"), time.Hour + 30*time.Minute + 45*time.Second},
		{"garbage", strp("not-a-duration"), def},
		{"missing unit", strp("100"), def},
		{"empty", strp(""), def},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setOrUnset(t, "TEST_DURATION_VAR", tt.value)
			assert.Equal(t, tt.want, getEnvAsDuration("TEST_DURATION_VAR", def))
		})
	}
}

func strp(s string) *string { return &s }

// setOrUnset sets key for the test, or unsets it when value is nil
func setOrUnset(t *testing.T, key string, value *string) {
	t.Helper()
	if value != nil {
		t.Setenv(key, *value)
		return
	}
	t.Setenv(key, "")
	os.Unsetenv(key)
}

func TestGetEnvAsList(t *testing.T) {
	t.Run("returns nil when unset", func(t *testing.T) {
		os.Unsetenv("TEST_LIST_VAR")
		assert.Nil(t, getEnvAsList("TEST_LIST_VAR"))
	})

	t.Run("trims and drops blanks", func(t *testing.T) {
		t.Setenv("TEST_LIST_VAR", " a ,b,, c ")
		assert.Equal(t, []string{"a", "b", "c"}, getEnvAsList("TEST_LIST_VAR"))
	})
}

func TestLoad_RuntimeTuning(t *testing.T) {
	t.Run("loads defaults", func(t *testing.T) {
		clearEnvVars(t)
		t.Setenv("API_KEY", "test-key")

		cfg, err := Load()

		require.NoError(t, err)
		assert.Equal(t, DefaultDBMaxConns, cfg.DBMaxConns)
		assert.Equal(t, DefaultDefinitionCacheSize, cfg.DefinitionCacheSize)
		assert.Equal(t, DefaultDefinitionCacheTTL, cfg.DefinitionCacheTTL)
		assert.Equal(t, DefaultWorkerCount, cfg.WorkerCount)
		assert.Equal(t, DefaultWorkerQueueSize, cfg.WorkerQueueSize)
		assert.Equal(t, DefaultEventDeadLetterPath, cfg.EventDeadLetterPath)
	})

	t.Run("loads custom values", func(t *testing.T) {
		clearEnvVars(t)
		t.Setenv("API_KEY", "test-key")
		t.Setenv("DB_MAX_CONNS", "50")
		t.Setenv("DEFINITION_CACHE_SIZE", "16")
		t.Setenv("DEFINITION_CACHE_TTL", "1m")
		t.Setenv("ELIGIBILITY_REFRESH_INTERVAL", "1h")
		t.Setenv("EVENT_MAX_RETRIES", "7")
		t.Setenv("WORKER_COUNT", "8")
		t.Setenv("WORKER_QUEUE_SIZE", "1024")

		cfg, err := Load()

		require.NoError(t, err)
		assert.Equal(t, 50, cfg.DBMaxConns)
		assert.Equal(t, 16, cfg.DefinitionCacheSize)
		assert.Equal(t, time.Minute, cfg.DefinitionCacheTTL)
		assert.Equal(t, time.Hour, cfg.EligibilityRefreshInterval)
		assert.Equal(t, 7, cfg.EventMaxRetries)
		assert.Equal(t, 8, cfg.WorkerCount)
		assert.Equal(t, 1024, cfg.WorkerQueueSize)
	})

	t.Run("uses defaults for invalid values", func(t *testing.T) {
		clearEnvVars(t)
		t.Setenv("API_KEY", "test-key")
		t.Setenv("DB_MAX_CONNS", "not-a-number")
		t.Setenv("DEFINITION_CACHE_TTL", "invalid")
		t.Setenv("WORKER_COUNT", "4.5")

		cfg, err := Load()

		require.NoError(t, err)
		assert.Equal(t, DefaultDBMaxConns, cfg.DBMaxConns, "Should fallback to default for invalid max conns")
		assert.Equal(t, DefaultDefinitionCacheTTL, cfg.DefinitionCacheTTL)
		assert.Equal(t, DefaultWorkerCount, cfg.WorkerCount)
	})
}
