// Package leveling converts accumulated xp and points into levels, tiers and
// progress toward the next level. It is pure and safe for concurrent use.
package leveling

import (
	"fmt"
	"math"
	"sort"

	"github.com/osse101/LabRewards_Go/internal/domain"
)

// TierThreshold is the minimum level and points needed for a tier
type TierThreshold struct {
	Tier      domain.Tier
	MinLevel  int
	MinPoints int64
}

// DefaultTiers is the standard tier table
var DefaultTiers = []TierThreshold{
	{Tier: domain.TierBronze, MinLevel: 1, MinPoints: 0},
	{Tier: domain.TierSilver, MinLevel: 5, MinPoints: 500},
	{Tier: domain.TierGold, MinLevel: 10, MinPoints: 2000},
	{Tier: domain.TierPlatinum, MinLevel: 20, MinPoints: 6000},
	{Tier: domain.TierDiamond, MinLevel: 35, MinPoints: 15000},
}

// Curve maps xp to levels using a cumulative threshold table.
// thresholds[i] is the xp needed to reach level i+1.
type Curve struct {
	thresholds []int64
	tiers      []TierThreshold
}

// NewCurve validates and builds a curve. thresholds must start at 0 and be
// strictly increasing; tiers must be in ascending rank order starting at the
// lowest tier with zero requirements. A nil tiers slice uses DefaultTiers.
func NewCurve(thresholds []int64, tiers []TierThreshold) (*Curve, error) {
	if len(thresholds) == 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrConfigurationInvariantViolated, ErrMsgEmptyThresholds)
	}
	if thresholds[0] != 0 {
		return nil, fmt.Errorf("%w: "+ErrMsgFirstThresholdZero, domain.ErrConfigurationInvariantViolated, thresholds[0])
	}
	for i := 1; i < len(thresholds); i++ {
		if thresholds[i] <= thresholds[i-1] {
			return nil, fmt.Errorf("%w: "+ErrMsgThresholdsNotRising, domain.ErrConfigurationInvariantViolated, i+1)
		}
	}

	if tiers == nil {
		tiers = DefaultTiers
	}
	if err := validateTiers(tiers); err != nil {
		return nil, err
	}

	c := &Curve{
		thresholds: make([]int64, len(thresholds)),
		tiers:      make([]TierThreshold, len(tiers)),
	}
	copy(c.thresholds, thresholds)
	copy(c.tiers, tiers)
	return c, nil
}

func validateTiers(tiers []TierThreshold) error {
	if len(tiers) == 0 || !tiers[0].Tier.IsValid() || tiers[0].MinLevel > MinLevel || tiers[0].MinPoints != 0 {
		return fmt.Errorf("%w: %s", domain.ErrConfigurationInvariantViolated, ErrMsgTiersNotOrdered)
	}
	for i := 1; i < len(tiers); i++ {
		if !tiers[i].Tier.IsValid() || tiers[i].Tier.Rank() <= tiers[i-1].Tier.Rank() {
			return fmt.Errorf("%w: %s", domain.ErrConfigurationInvariantViolated, ErrMsgTiersNotOrdered)
		}
	}
	return nil
}

// DefaultCurve builds DefaultMaxLevel levels where reaching level N+1 costs
// BaseXP * N^LevelExponent more than level N.
func DefaultCurve() *Curve {
	thresholds := make([]int64, DefaultMaxLevel)
	for n := 1; n < DefaultMaxLevel; n++ {
		thresholds[n] = thresholds[n-1] + int64(BaseXP*math.Pow(float64(n), LevelExponent))
	}
	c, err := NewCurve(thresholds, DefaultTiers)
	if err != nil {
		panic(err)
	}
	return c
}

// MaxLevel returns the highest reachable level
func (c *Curve) MaxLevel() int {
	return len(c.thresholds)
}

// Thresholds returns a copy of the level table
func (c *Curve) Thresholds() []int64 {
	out := make([]int64, len(c.thresholds))
	copy(out, c.thresholds)
	return out
}

// LevelFor returns the highest level whose threshold is <= xp
func (c *Curve) LevelFor(xp int64) (int, error) {
	if xp < 0 {
		return 0, fmt.Errorf("%w: "+ErrMsgNegativeXP, domain.ErrInvalidInput, xp)
	}
	// First index whose threshold exceeds xp; thresholds[0] == 0 so idx >= 1.
	idx := sort.Search(len(c.thresholds), func(i int) bool {
		return c.thresholds[i] > xp
	})
	return idx, nil
}

// XPForLevel returns the cumulative xp needed to reach level
func (c *Curve) XPForLevel(level int) (int64, error) {
	if level < MinLevel || level > c.MaxLevel() {
		return 0, fmt.Errorf("%w: "+ErrMsgLevelOutOfRange, domain.ErrInvalidInput, level, MinLevel, c.MaxLevel())
	}
	return c.thresholds[level-1], nil
}

// ProgressToNextLevel returns the fraction of the way from level to level+1.
// At the max level progress is 1.
func (c *Curve) ProgressToNextLevel(xp int64, level int) (float64, error) {
	if xp < 0 {
		return 0, fmt.Errorf("%w: "+ErrMsgNegativeXP, domain.ErrInvalidInput, xp)
	}
	current, err := c.XPForLevel(level)
	if err != nil {
		return 0, err
	}
	if level == c.MaxLevel() {
		return 1, nil
	}
	next := c.thresholds[level]
	p := float64(xp-current) / float64(next-current)
	return math.Max(0, math.Min(1, p)), nil
}

// TierFor returns the highest tier whose level and points minimums are both met
func (c *Curve) TierFor(level int, points int64) (domain.Tier, error) {
	if points < 0 {
		return "", fmt.Errorf("%w: "+ErrMsgNegativePoints, domain.ErrInvalidInput, points)
	}
	if level < MinLevel {
		return "", fmt.Errorf("%w: "+ErrMsgLevelOutOfRange, domain.ErrInvalidInput, level, MinLevel, c.MaxLevel())
	}
	tier := c.tiers[0].Tier
	for _, t := range c.tiers[1:] {
		if level >= t.MinLevel && points >= t.MinPoints {
			tier = t.Tier
		}
	}
	return tier, nil
}

// Snapshot derives the full progression read model from raw points and xp
func (c *Curve) Snapshot(userID string, points, xp int64) (*domain.UserProgression, error) {
	level, err := c.LevelFor(xp)
	if err != nil {
		return nil, err
	}
	tier, err := c.TierFor(level, points)
	if err != nil {
		return nil, err
	}
	progress, err := c.ProgressToNextLevel(xp, level)
	if err != nil {
		return nil, err
	}

	nextXP := xp
	if level < c.MaxLevel() {
		nextXP = c.thresholds[level]
	}

	return &domain.UserProgression{
		UserID:              userID,
		Points:              points,
		XP:                  xp,
		Level:               level,
		Tier:                tier,
		NextLevelXP:         nextXP,
		ProgressToNextLevel: progress,
	}, nil
}
