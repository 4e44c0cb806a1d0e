package domain

import "time"

// Tier is the coarse standing bucket derived from level and points.
type Tier string

const (
	TierBronze   Tier = "BRONZE"
	TierSilver   Tier = "SILVER"
	TierGold     Tier = "GOLD"
	TierPlatinum Tier = "PLATINUM"
	TierDiamond  Tier = "DIAMOND"
)

// tierOrder is the ascending rank of each tier
var tierOrder = map[Tier]int{
	TierBronze:   0,
	TierSilver:   1,
	TierGold:     2,
	TierPlatinum: 3,
	TierDiamond:  4,
}

// Rank returns the ordinal of the tier, or -1 for unknown tiers.
func (t Tier) Rank() int {
	if r, ok := tierOrder[t]; ok {
		return r
	}
	return -1
}

// AtLeast reports whether t is ranked at or above other.
func (t Tier) AtLeast(other Tier) bool {
	return t.Rank() >= other.Rank()
}

// IsValid reports whether t is one of the known tiers.
func (t Tier) IsValid() bool {
	return t.Rank() >= 0
}

// ProgressionState is the persisted part of a user's progression.
type ProgressionState struct {
	UserID    string    `json:"user_id"`
	Points    int64     `json:"points"`
	XP        int64     `json:"xp"`
	Level     int       `json:"level"`
	Tier      Tier      `json:"tier"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserProgression is the full read model returned to callers.
type UserProgression struct {
	UserID              string    `json:"user_id"`
	Points              int64     `json:"points"`
	XP                  int64     `json:"xp"`
	Level               int       `json:"level"`
	Tier                Tier      `json:"tier"`
	NextLevelXP         int64     `json:"next_level_xp"`
	ProgressToNextLevel float64   `json:"progress_to_next_level"`
	UpdatedAt           time.Time `json:"updated_at,omitempty"`
}

// ActivityStats is the stat snapshot badge criteria are evaluated against.
type ActivityStats struct {
	UserID          string  `json:"user_id"`
	Points          int64   `json:"points"`
	CompletedTasks  int64   `json:"completed_tasks"`
	Projects        int64   `json:"projects"`
	WorkSessions    int64   `json:"work_sessions"`
	WeeklyHours     float64 `json:"weekly_hours"`
	ConsecutiveDays int     `json:"consecutive_days"`
}
