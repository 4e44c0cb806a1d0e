package handler

// Generic HTTP error messages for client responses.
// These messages do not expose internal error details.
// Both handlers and tests should reference these constants to maintain consistency.
const (
	ErrMsgInvalidRequest        = "Invalid request body"
	ErrMsgInvalidRequestSummary = "Invalid request"
	ErrMsgMissingQueryParam     = "Missing %s query parameter"
	ErrMsgInvalidPathParam      = "Invalid %s"
	ErrMsgMissingUserID         = "Missing user id"
	ErrMsgAdminRequired         = "Admin permission required"

	ErrMsgGenericServerError = "Something went wrong"
	ErrMsgUnknownError       = "Unknown error"

	ErrMsgInsufficientBalance = "Not enough coins"
	ErrMsgChestNotFound       = "Chest not found"
	ErrMsgChestInactive       = "Chest is not available"
	ErrMsgChestEmpty          = "Chest has nothing to drop"
	ErrMsgDropEntryNotFound   = "Drop entry not found"
	ErrMsgQuestNotFound       = "Quest not found"
	ErrMsgQuestLocked         = "Quest is locked. Reach the required level or tier first"
	ErrMsgQuestNotCompleted   = "Quest is not completed yet"
	ErrMsgBadgeNotFound       = "Badge not found"
)

// Success messages for API responses
const (
	MsgAwardDuplicate      = "Award already recorded"
	MsgQuestClaimed        = "Quest reward claimed"
	MsgQuestAlreadyClaimed = "Quest reward was already claimed"
	MsgBadgeGranted        = "Badge granted"
	MsgBadgeAlreadyHeld    = "User already holds this badge"
	MsgBadgeRevoked        = "Badge revoked"
	MsgBadgeNotHeld        = "User does not hold this badge"
	MsgDeleted             = "Deleted"
	MsgCoinsCredited       = "Coins credited"
)

// Log messages
const (
	LogMsgEncodeFailed    = "Failed to encode JSON response"
	LogMsgWriteFailed     = "Failed to write response buffer"
	LogMsgDecodeFailed    = "Failed to decode %s request"
	LogMsgRequestDecoded  = "%s request decoded"
	LogMsgReadinessFailed = "Readiness check failed"
)

// Operation names used in logs
const (
	OpWorkSession      = "Work session award"
	OpTaskCompletion   = "Task completion award"
	OpManualAdjust     = "Manual adjustment"
	OpGetProgression   = "Get progression"
	OpGetStats         = "Get activity stats"
	OpGetBadges        = "Get user badges"
	OpEvaluateBadges   = "Evaluate badges"
	OpGrantBadge       = "Grant badge"
	OpRevokeBadge      = "Revoke badge"
	OpGetQuests        = "Get user quests"
	OpClaimQuest       = "Claim quest"
	OpOpenChest        = "Open chest"
	OpGetWallet        = "Get wallet"
	OpCreditWallet     = "Credit wallet"
	OpGetInventory     = "Get inventory"
	OpListDefinitions  = "List definitions"
	OpGetDefinition    = "Get definition"
	OpSaveDefinition   = "Save definition"
	OpDeleteDefinition = "Delete definition"
)
