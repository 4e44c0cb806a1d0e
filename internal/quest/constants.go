package quest

const cacheKeyActive = "quests:active"

// Error messages
const (
	ErrMsgUserIDRequired  = "user id is required"
	ErrMsgQuestIDInvalid  = "quest id must be positive, got %d"
	ErrMsgNegativeDelta   = "activity counter %s must be non-negative, got %d"
	ErrMsgBeginTxFailed   = "failed to begin quest transaction"
	ErrMsgCommitFailed    = "failed to commit quest transaction"
	ErrMsgProgressionRead = "failed to read user progression"
)

// Log messages
const (
	LogMsgQuestCompleted     = "Quest completed"
	LogMsgQuestClaimed       = "Quest reward claimed"
	LogMsgQuestAlreadyClaim  = "Quest reward already claimed"
	LogMsgEligibilityUpdated = "Quest eligibility updated"
	LogMsgActivityFailed     = "Failed to record quest activity"
	LogMsgRefreshFailed      = "Failed to refresh quest eligibility"
	LogMsgQuestDefinitionSet = "Quest definition saved"
	LogMsgActivityDuplicate  = "Quest activity source already applied"
)

// AcquiredViaPrefix tags inventory items granted by quest claims
const AcquiredViaPrefix = "quest:"
