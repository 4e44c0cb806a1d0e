package domain

import "time"

// BadgeCategory groups badges for display
type BadgeCategory string

const (
	BadgeCategoryAchievement BadgeCategory = "achievement"
	BadgeCategoryMilestone   BadgeCategory = "milestone"
	BadgeCategorySpecial     BadgeCategory = "special"
	BadgeCategorySocial      BadgeCategory = "social"
)

// CriterionKind tags a badge criterion. The set is closed; unknown kinds never pass.
type CriterionKind string

const (
	CriterionMinPoints          CriterionKind = "min_points"
	CriterionMinTasks           CriterionKind = "min_tasks"
	CriterionMinProjects        CriterionKind = "min_projects"
	CriterionMinWorkSessions    CriterionKind = "min_work_sessions"
	CriterionMinWeeklyHours     CriterionKind = "min_weekly_hours"
	CriterionMinConsecutiveDays CriterionKind = "min_consecutive_days"
	CriterionSpecial            CriterionKind = "special"
)

// BadgeCriterion is one threshold of a badge. Value is used by the min_* kinds,
// Condition names the predicate for the special kind.
type BadgeCriterion struct {
	Kind      CriterionKind `json:"kind" validate:"required,oneof=min_points min_tasks min_projects min_work_sessions min_weekly_hours min_consecutive_days special"`
	Value     int64         `json:"value,omitempty" validate:"min=0"`
	Condition string        `json:"condition,omitempty" validate:"required_if=Kind special,max=100"`
}

// Badge is a badge definition. A badge with no criteria is only granted manually.
type Badge struct {
	ID          int              `json:"id"`
	Code        string           `json:"code" validate:"required,key,max=100"`
	Name        string           `json:"name" validate:"required,max=200"`
	Description string           `json:"description" validate:"max=1000"`
	Category    BadgeCategory    `json:"category" validate:"required,oneof=achievement milestone special social"`
	Criteria    []BadgeCriterion `json:"criteria" validate:"dive"`
	Active      bool             `json:"active"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// AutoGrantable reports whether the evaluator may grant this badge on its own.
func (b *Badge) AutoGrantable() bool {
	return b.Active && len(b.Criteria) > 0
}

// UserBadge records that a user holds a badge
type UserBadge struct {
	UserID    string    `json:"user_id"`
	BadgeID   int       `json:"badge_id"`
	AwardedAt time.Time `json:"awarded_at"`
	AwardedBy string    `json:"awarded_by,omitempty"`
}

// UserBadgeView joins a held badge with its definition
type UserBadgeView struct {
	Badge     Badge     `json:"badge"`
	AwardedAt time.Time `json:"awarded_at"`
	AwardedBy string    `json:"awarded_by,omitempty"`
}

// AwardedBySystem marks badges granted by the evaluator rather than an operator
const AwardedBySystem = "system"
