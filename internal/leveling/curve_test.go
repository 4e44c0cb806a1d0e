package leveling

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osse101/LabRewards_Go/internal/domain"
)

func testCurve(t *testing.T) *Curve {
	t.Helper()
	c, err := NewCurve([]int64{0, 100, 300, 700}, nil)
	require.NoError(t, err)
	return c
}

func TestLevelFor(t *testing.T) {
	c := testCurve(t)

	tests := []struct {
		name string
		xp   int64
		want int
	}{
		{"zero xp", 0, 1},
		{"just below level 2", 99, 1},
		{"exactly level 2", 100, 2},
		{"mid level 2", 150, 2},
		{"exactly level 3", 300, 3},
		{"max level", 700, 4},
		{"beyond max", 1_000_000, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.LevelFor(tt.xp)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLevelFor_Negative(t *testing.T) {
	c := testCurve(t)
	_, err := c.LevelFor(-1)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestLevelRoundTrip(t *testing.T) {
	for _, c := range []*Curve{testCurve(t), DefaultCurve()} {
		for n := MinLevel; n <= c.MaxLevel(); n++ {
			xp, err := c.XPForLevel(n)
			require.NoError(t, err)

			lvl, err := c.LevelFor(xp)
			require.NoError(t, err)
			assert.Equal(t, n, lvl, "levelFor(xpForLevel(%d))", n)

			if n > MinLevel {
				lvl, err = c.LevelFor(xp - 1)
				require.NoError(t, err)
				assert.Equal(t, n-1, lvl, "levelFor(xpForLevel(%d)-1)", n)
			}
		}
	}
}

func TestXPForLevel_OutOfRange(t *testing.T) {
	c := testCurve(t)

	_, err := c.XPForLevel(0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = c.XPForLevel(5)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestProgressToNextLevel(t *testing.T) {
	c := testCurve(t)

	p, err := c.ProgressToNextLevel(150, 2)
	require.NoError(t, err)
	assert.InDelta(t, 0.25, p, 1e-9)

	p, err = c.ProgressToNextLevel(0, 1)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, p, 1e-9)

	p, err = c.ProgressToNextLevel(900, 4)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, p, 1e-9)
}

func TestSnapshot(t *testing.T) {
	c := testCurve(t)

	snap, err := c.Snapshot("user-1", 10, 150)
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Level)
	assert.Equal(t, int64(300), snap.NextLevelXP)
	assert.InDelta(t, 0.25, snap.ProgressToNextLevel, 1e-9)
	assert.Equal(t, domain.TierBronze, snap.Tier)

	maxed, err := c.Snapshot("user-1", 10, 5000)
	require.NoError(t, err)
	assert.Equal(t, 4, maxed.Level)
	assert.Equal(t, int64(5000), maxed.NextLevelXP)
	assert.InDelta(t, 1.0, maxed.ProgressToNextLevel, 1e-9)

	_, err = c.Snapshot("user-1", -1, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestTierFor(t *testing.T) {
	c := DefaultCurve()

	tests := []struct {
		name   string
		level  int
		points int64
		want   domain.Tier
	}{
		{"new user", 1, 0, domain.TierBronze},
		{"level without points", 12, 100, domain.TierBronze},
		{"points without level", 3, 50_000, domain.TierBronze},
		{"silver", 5, 500, domain.TierSilver},
		{"gold bounded by points", 25, 2500, domain.TierGold},
		{"diamond", 40, 20_000, domain.TierDiamond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.TierFor(tt.level, tt.points)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTierMonotonic(t *testing.T) {
	c := DefaultCurve()
	prev := domain.TierBronze
	for xp := int64(0); xp < 400_000; xp += 997 {
		lvl, err := c.LevelFor(xp)
		require.NoError(t, err)
		tier, err := c.TierFor(lvl, xp/10)
		require.NoError(t, err)
		assert.True(t, tier.AtLeast(prev), "tier went down at xp=%d", xp)
		prev = tier
	}
}

func TestNewCurve_Invalid(t *testing.T) {
	tests := []struct {
		name       string
		thresholds []int64
	}{
		{"empty", nil},
		{"first not zero", []int64{10, 20}},
		{"not increasing", []int64{0, 100, 100}},
		{"decreasing", []int64{0, 100, 50}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCurve(tt.thresholds, nil)
			assert.ErrorIs(t, err, domain.ErrConfigurationInvariantViolated)
		})
	}

	_, err := NewCurve([]int64{0, 10}, []TierThreshold{
		{Tier: domain.TierGold, MinLevel: 1},
		{Tier: domain.TierSilver, MinLevel: 2},
	})
	assert.ErrorIs(t, err, domain.ErrConfigurationInvariantViolated)
}

func TestDefaultCurve(t *testing.T) {
	c := DefaultCurve()
	assert.Equal(t, DefaultMaxLevel, c.MaxLevel())

	xp, err := c.XPForLevel(2)
	require.NoError(t, err)
	assert.Equal(t, int64(100), xp)
}
