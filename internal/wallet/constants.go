package wallet

// Credit reasons recorded in logs and the coins_credited_total metric
const (
	ReasonAdminCredit = "admin_credit"
	ReasonQuestReward = "quest_reward"
	ReasonUnspecified = "unspecified"
)

// Error messages
const (
	ErrMsgUserIDRequired    = "user id is required"
	ErrMsgAmountNotPositive = "amount must be positive, got %d"
	ErrMsgBalanceTooLow     = "balance %d is below %d"
	ErrMsgBeginTxFailed     = "failed to begin wallet transaction"
	ErrMsgCommitFailed      = "failed to commit wallet transaction"
)

// Log messages
const (
	LogMsgCredited = "Wallet credited"
	LogMsgDebited  = "Wallet debited"
)
