package domain

// ProgressionAwardedPayload is the event payload for progression.awarded events
type ProgressionAwardedPayload struct {
	UserID          string     `json:"user_id"`
	SourceType      SourceType `json:"source_type"`
	SourceID        string     `json:"source_id"`
	Points          int64      `json:"points"`
	XP              int64      `json:"xp"`
	DurationSeconds int64      `json:"duration_seconds,omitempty"`
	TaskCount       int        `json:"task_count,omitempty"`
	ProjectID       string     `json:"project_id,omitempty"`
	Level           int        `json:"level"`
	Tier            Tier       `json:"tier"`
	Timestamp       int64      `json:"timestamp"`
}

// LevelUpPayload is the event payload for progression.level_up events
type LevelUpPayload struct {
	UserID   string `json:"user_id"`
	OldLevel int    `json:"old_level"`
	NewLevel int    `json:"new_level"`
	OldTier  Tier   `json:"old_tier"`
	NewTier  Tier   `json:"new_tier"`
}

// BadgeGrantedPayload is the event payload for badge.granted events
type BadgeGrantedPayload struct {
	UserID    string `json:"user_id"`
	BadgeID   int    `json:"badge_id"`
	BadgeCode string `json:"badge_code"`
	AwardedBy string `json:"awarded_by"`
	Timestamp int64  `json:"timestamp"`
}

// QuestCompletedPayload is the event payload for quest.completed events
type QuestCompletedPayload struct {
	UserID    string `json:"user_id"`
	QuestID   int    `json:"quest_id"`
	QuestCode string `json:"quest_code"`
	PeriodKey string `json:"period_key"`
	Timestamp int64  `json:"timestamp"`
}

// QuestClaimedPayload is the event payload for quest.claimed events
type QuestClaimedPayload struct {
	UserID          string `json:"user_id"`
	QuestID         int    `json:"quest_id"`
	PeriodKey       string `json:"period_key"`
	PointsAwarded   int64  `json:"points_awarded"`
	XPAwarded       int64  `json:"xp_awarded"`
	CurrencyAwarded int64  `json:"currency_awarded"`
	ItemCount       int    `json:"item_count"`
	Timestamp       int64  `json:"timestamp"`
}

// ChestOpenedPayload is the event payload for chest.opened events
type ChestOpenedPayload struct {
	UserID     string `json:"user_id"`
	ChestID    int    `json:"chest_id"`
	Opened     int    `json:"opened"`
	CoinsSpent int64  `json:"coins_spent"`
	DropCount  int    `json:"drop_count"`
	Timestamp  int64  `json:"timestamp"`
}
