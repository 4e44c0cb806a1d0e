package domain

import "time"

// SourceType identifies where an award came from. Together with the source id
// it forms the idempotency key of an award record.
type SourceType string

const (
	SourceWorkSessionCompleted SourceType = "WORK_SESSION_COMPLETED"
	SourceTaskCompleted        SourceType = "TASK_COMPLETED"
	SourceManualAdjustment     SourceType = "MANUAL_ADJUSTMENT"
	SourceQuestReward          SourceType = "QUEST_REWARD"
)

// IsValid reports whether s is a known source type
func (s SourceType) IsValid() bool {
	switch s {
	case SourceWorkSessionCompleted, SourceTaskCompleted, SourceManualAdjustment, SourceQuestReward:
		return true
	}
	return false
}

// AwardRecord is the idempotency ledger row written once per (SourceType, SourceID).
type AwardRecord struct {
	SourceType      SourceType `json:"source_type"`
	SourceID        string     `json:"source_id"`
	UserID          string     `json:"user_id"`
	Points          int64      `json:"points"`
	XP              int64      `json:"xp"`
	DurationSeconds int64      `json:"duration_seconds"`
	TaskCount       int        `json:"task_count"`
	ProjectID       string     `json:"project_id,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// AwardRequest is a single credit of points and xp keyed by its source.
type AwardRequest struct {
	UserID          string
	SourceType      SourceType
	SourceID        string
	Points          int64
	XP              int64
	DurationSeconds int64
	TaskCount       int
	ProjectID       string
}

// AwardResult reports the outcome of an award. When AlreadyAwarded is set the
// deltas are zero and Progression reflects the unchanged stored state.
type AwardResult struct {
	AlreadyAwarded bool             `json:"already_awarded"`
	PointsAwarded  int64            `json:"points_awarded"`
	XPAwarded      int64            `json:"xp_awarded"`
	LeveledUp      bool             `json:"leveled_up"`
	TierChanged    bool             `json:"tier_changed"`
	PreviousLevel  int              `json:"previous_level"`
	PreviousTier   Tier             `json:"previous_tier"`
	Progression    *UserProgression `json:"progression"`
}

// WorkSessionAward carries a completed work session. DurationSeconds and
// CompletedTaskIDs are optional.
type WorkSessionAward struct {
	UserID           string   `json:"user_id" validate:"required,max=100"`
	WorkSessionID    string   `json:"work_session_id" validate:"required,max=200"`
	DurationSeconds  *int64   `json:"duration_seconds,omitempty" validate:"omitempty,min=0"`
	CompletedTaskIDs []string `json:"completed_task_ids,omitempty" validate:"omitempty,dive,required"`
	ProjectID        string   `json:"project_id,omitempty" validate:"max=200"`
}

// TaskCompletionAward carries a completed task. TaskPoints is optional.
type TaskCompletionAward struct {
	UserID     string `json:"user_id" validate:"required,max=100"`
	TaskID     string `json:"task_id" validate:"required,max=200"`
	TaskPoints *int64 `json:"task_points,omitempty" validate:"omitempty,min=0"`
	ProjectID  string `json:"project_id,omitempty" validate:"max=200"`
}
