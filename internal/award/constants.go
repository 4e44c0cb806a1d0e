package award

import "time"

const (
	// WeeklyHoursWindow is the look-back window for the weekly hours stat
	WeeklyHoursWindow = 7 * 24 * time.Hour

	// StreakLookback bounds how far back consecutive activity days are scanned
	StreakLookback = 366 * 24 * time.Hour
)

// Error messages
const (
	ErrMsgUserIDRequired   = "user id is required"
	ErrMsgSourceIDRequired = "source id is required"
	ErrMsgUnknownSource    = "unknown source type %q"
	ErrMsgNegativeDelta    = "points and xp must be non-negative, got points=%d xp=%d"
	ErrMsgBeginTxFailed    = "failed to begin award transaction"
	ErrMsgCommitFailed     = "failed to commit award transaction"
)

// Log messages
const (
	LogMsgAwardApplied   = "Award applied"
	LogMsgAlreadyAwarded = "Award source already processed"
	LogMsgLevelUp        = "User leveled up"
)
