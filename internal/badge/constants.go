package badge

// Built-in special conditions
const (
	ConditionMarathonWeek = "marathon_week"
	ConditionPerfectWeek  = "perfect_week"
	ConditionPolymath     = "polymath"

	MarathonWeekHours = 40.0
	PolymathProjects  = 5
	PolymathTasks     = 50
)

// Cache keys
const (
	cacheKeyActive = "badges:active"
)

// AwardedByManual is recorded when a grant names no operator
const AwardedByManual = "manual"

// Error messages
const (
	ErrMsgUserIDRequired = "user id is required"
	ErrMsgBadgeIDInvalid = "badge id must be positive, got %d"
)

// Log messages
const (
	LogMsgBadgeGranted       = "Badge granted"
	LogMsgBadgeRevoked       = "Badge revoked"
	LogMsgBadgesEvaluated    = "Badges evaluated"
	LogMsgEvaluationFailed   = "Badge evaluation failed"
	LogMsgEvaluationDropped  = "Badge evaluation dropped, worker queue full"
	LogMsgUnknownCondition   = "Badge references unknown special condition"
	LogMsgBadgeDefinitionSet = "Badge definition saved"
)
