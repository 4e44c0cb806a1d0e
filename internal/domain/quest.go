package domain

import (
	"fmt"
	"time"
)

// QuestType controls how often a quest can be completed
type QuestType string

const (
	QuestTypeDaily   QuestType = "DAILY"
	QuestTypeWeekly  QuestType = "WEEKLY"
	QuestTypeOneTime QuestType = "ONE_TIME"
)

// QuestScope restricts which activity counts toward a quest
type QuestScope string

const (
	QuestScopeGlobal  QuestScope = "GLOBAL"
	QuestScopeProject QuestScope = "PROJECT"
)

// QuestStatus is the per-user lifecycle state of a quest.
// LOCKED -> ELIGIBLE -> IN_PROGRESS -> COMPLETED -> CLAIMED
type QuestStatus string

const (
	QuestStatusLocked     QuestStatus = "LOCKED"
	QuestStatusEligible   QuestStatus = "ELIGIBLE"
	QuestStatusInProgress QuestStatus = "IN_PROGRESS"
	QuestStatusCompleted  QuestStatus = "COMPLETED"
	QuestStatusClaimed    QuestStatus = "CLAIMED"
)

// QuestCounter names an activity counter tracked per quest state
type QuestCounter string

const (
	CounterTasksCompleted QuestCounter = "tasks_completed"
	CounterWorkSessions   QuestCounter = "work_sessions_completed"
	CounterWorkSeconds    QuestCounter = "work_seconds"
	CounterPointsEarned   QuestCounter = "points_earned"
	CounterXPEarned       QuestCounter = "xp_earned"
)

// RequirementKind tags a quest requirement
type RequirementKind string

const (
	RequirementCompleteTasks        RequirementKind = "complete_tasks"
	RequirementCompleteWorkSessions RequirementKind = "complete_work_sessions"
	RequirementWorkHours            RequirementKind = "work_hours"
	RequirementEarnPoints           RequirementKind = "earn_points"
	RequirementEarnXP               RequirementKind = "earn_xp"
)

// QuestRequirement is one target a quest needs. All requirements must be met.
type QuestRequirement struct {
	Kind   RequirementKind `json:"kind" validate:"required,oneof=complete_tasks complete_work_sessions work_hours earn_points earn_xp"`
	Target int64           `json:"target" validate:"min=1"`
}

// Counter returns the activity counter the requirement reads
func (r QuestRequirement) Counter() QuestCounter {
	switch r.Kind {
	case RequirementCompleteTasks:
		return CounterTasksCompleted
	case RequirementCompleteWorkSessions:
		return CounterWorkSessions
	case RequirementWorkHours:
		return CounterWorkSeconds
	case RequirementEarnPoints:
		return CounterPointsEarned
	case RequirementEarnXP:
		return CounterXPEarned
	}
	return ""
}

// Threshold returns the counter value at which the requirement is met
func (r QuestRequirement) Threshold() int64 {
	if r.Kind == RequirementWorkHours {
		return r.Target * 3600
	}
	return r.Target
}

// RewardKind tags a quest reward
type RewardKind string

const (
	RewardPoints   RewardKind = "points"
	RewardXP       RewardKind = "xp"
	RewardCurrency RewardKind = "currency"
	RewardItem     RewardKind = "item"
)

// QuestReward is one reward granted on claim. Item rewards carry the item fields.
type QuestReward struct {
	Kind     RewardKind `json:"kind" validate:"required,oneof=points xp currency item"`
	Amount   int64      `json:"amount" validate:"min=1"`
	ItemKey  string     `json:"item_key,omitempty" validate:"required_if=Kind item,key,max=100"`
	ItemName string     `json:"item_name,omitempty" validate:"max=200"`
	Rarity   string     `json:"rarity,omitempty" validate:"max=50"`
}

// Quest is a quest definition
type Quest struct {
	ID           int                `json:"id"`
	Code         string             `json:"code" validate:"required,key,max=100"`
	Title        string             `json:"title" validate:"required,max=200"`
	Description  string             `json:"description" validate:"max=1000"`
	QuestType    QuestType          `json:"quest_type" validate:"required,oneof=DAILY WEEKLY ONE_TIME"`
	Scope        QuestScope         `json:"scope" validate:"required,oneof=GLOBAL PROJECT"`
	ProjectID    string             `json:"project_id,omitempty" validate:"required_if=Scope PROJECT,max=200"`
	MinLevel     int                `json:"min_level" validate:"min=0"`
	MinTier      Tier               `json:"min_tier,omitempty" validate:"omitempty,oneof=BRONZE SILVER GOLD PLATINUM DIAMOND"`
	Requirements []QuestRequirement `json:"requirements" validate:"required,min=1,dive"`
	Rewards      []QuestReward      `json:"rewards" validate:"dive"`
	Active       bool               `json:"active"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

// UnlockedFor reports whether the user's level and tier satisfy the quest gates
func (q *Quest) UnlockedFor(level int, tier Tier) bool {
	if level < q.MinLevel {
		return false
	}
	if q.MinTier != "" && !tier.AtLeast(q.MinTier) {
		return false
	}
	return true
}

// Matches reports whether activity in the given project counts toward the quest
func (q *Quest) Matches(projectID string) bool {
	if q.Scope != QuestScopeProject {
		return true
	}
	return projectID != "" && projectID == q.ProjectID
}

// RequirementsMet reports whether every requirement is satisfied by progress
func (q *Quest) RequirementsMet(progress map[QuestCounter]int64) bool {
	for _, req := range q.Requirements {
		if progress[req.Counter()] < req.Threshold() {
			return false
		}
	}
	return true
}

// PeriodKey returns the period a quest state belongs to at time t.
// Daily quests use the UTC date, weekly quests the ISO week and one-time quests "".
func (q *Quest) PeriodKey(t time.Time) string {
	t = t.UTC()
	switch q.QuestType {
	case QuestTypeDaily:
		return t.Format("2006-01-02")
	case QuestTypeWeekly:
		year, week := t.ISOWeek()
		return fmt.Sprintf("%d-W%02d", year, week)
	}
	return ""
}

// UserQuestState is the lazily created per-user, per-period quest row
type UserQuestState struct {
	UserID      string                 `json:"user_id"`
	QuestID     int                    `json:"quest_id"`
	PeriodKey   string                 `json:"period_key"`
	Status      QuestStatus            `json:"status"`
	Progress    map[QuestCounter]int64 `json:"progress"`
	StartedAt   *time.Time             `json:"started_at,omitempty"`
	CompletedAt *time.Time             `json:"completed_at,omitempty"`
	ClaimedAt   *time.Time             `json:"claimed_at,omitempty"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

// UserQuestView is a quest with the caller's current state
type UserQuestView struct {
	Quest       Quest                  `json:"quest"`
	PeriodKey   string                 `json:"period_key"`
	Status      QuestStatus            `json:"status"`
	Progress    map[QuestCounter]int64 `json:"progress"`
	CompletedAt *time.Time             `json:"completed_at,omitempty"`
	ClaimedAt   *time.Time             `json:"claimed_at,omitempty"`
}

// QuestActivity is a batch of counter increments for one user. When SourceID
// is set the batch is applied at most once per (SourceType, SourceID).
type QuestActivity struct {
	UserID     string
	ProjectID  string
	SourceType SourceType
	SourceID   string
	Deltas     map[QuestCounter]int64
	OccurredAt time.Time
}

// ClaimResult reports a quest claim. AlreadyClaimed marks a no-op second claim.
type ClaimResult struct {
	AlreadyClaimed  bool             `json:"already_claimed"`
	QuestID         int              `json:"quest_id"`
	PeriodKey       string           `json:"period_key"`
	PointsAwarded   int64            `json:"points_awarded"`
	XPAwarded       int64            `json:"xp_awarded"`
	CurrencyAwarded int64            `json:"currency_awarded"`
	Items           []InventoryGrant `json:"items,omitempty"`
	Progression     *UserProgression `json:"progression,omitempty"`
}

// QuestRewardSourceID builds the award ledger key for a quest claim
func QuestRewardSourceID(questID int, periodKey string) string {
	if periodKey == "" {
		return fmt.Sprintf("quest:%d", questID)
	}
	return fmt.Sprintf("quest:%d:%s", questID, periodKey)
}
