package loot

// ============================================================================
// Limits
// ============================================================================

// MaxOpenQuantity caps how many chests a single request may open
const MaxOpenQuantity = 100

const cacheKeyChest = "chest:%d"

// AcquiredViaPrefix tags inventory items granted by chest opens
const AcquiredViaPrefix = "chest:"

// ============================================================================
// Error messages
// ============================================================================

const (
	ErrMsgUserIDRequired   = "user id is required"
	ErrMsgQuantityRange    = "quantity must be between 1 and %d, got %d"
	ErrMsgChestIDInvalid   = "chest id must be positive, got %d"
	ErrMsgBeginTxFailed    = "failed to begin chest transaction"
	ErrMsgCommitFailed     = "failed to commit chest transaction"
	ErrMsgPartialOpen      = "opened %d of %d chests"
	ErrContextLoadingChest = "failed to load chest"
)

// ============================================================================
// Log messages
// ============================================================================

const (
	LogMsgChestOpened     = "Chest opened"
	LogMsgPartialOpen     = "Chest batch stopped early"
	LogMsgDropsCoerced    = "Chest max drops below min drops, raised to min"
	LogMsgQuantityCoerced = "Drop entry max quantity below min quantity, raised to min"
	LogMsgChestSaved      = "Chest definition saved"
	LogMsgDropEntrySaved  = "Drop entry saved"
	LogFieldChest         = "chest_id"
	LogFieldDropEntry     = "entry_id"
)
