package repository

import (
	"context"
	"time"

	"github.com/osse101/LabRewards_Go/internal/domain"
)

// Tx defines the lifecycle of a storage transaction
type Tx interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// EngineTx is the unit of work shared by every command that touches more than
// one ledger. Row-reading methods suffixed ForUpdate lock the row until the
// transaction ends, which serializes concurrent writers for the same user.
type EngineTx interface {
	Tx

	// InsertAwardRecord inserts the idempotency row. It returns false when a
	// record with the same (SourceType, SourceID) already exists.
	InsertAwardRecord(ctx context.Context, rec *domain.AwardRecord) (bool, error)
	// GetProgressionForUpdate returns the user's progression row, creating a
	// zero row at level 1 when none exists.
	GetProgressionForUpdate(ctx context.Context, userID string) (*domain.ProgressionState, error)
	UpdateProgression(ctx context.Context, state *domain.ProgressionState) error

	// GetBalanceForUpdate returns the wallet balance, creating an empty wallet when none exists.
	GetBalanceForUpdate(ctx context.Context, userID string) (int64, error)
	UpdateBalance(ctx context.Context, userID string, balance int64) error

	// AddInventoryItem increments the stack or creates it
	AddInventoryItem(ctx context.Context, grant domain.InventoryGrant) error

	// GetQuestStateForUpdate returns nil when the user has no state for the quest period
	GetQuestStateForUpdate(ctx context.Context, userID string, questID int, periodKey string) (*domain.UserQuestState, error)
	// InsertActivitySource records that the award source has been applied to
	// the user's quest counters. It returns false when it was applied before.
	InsertActivitySource(ctx context.Context, userID string, sourceType domain.SourceType, sourceID string) (bool, error)
	// LockOrCreateQuestState inserts seed unless a state for the same
	// (user, quest, period) exists, then returns the locked stored state.
	LockOrCreateQuestState(ctx context.Context, seed *domain.UserQuestState) (*domain.UserQuestState, error)
	UpdateQuestState(ctx context.Context, state *domain.UserQuestState) error
	// ClaimQuestState moves a COMPLETED state to CLAIMED. It returns false when
	// the state was not COMPLETED at the time of the update.
	ClaimQuestState(ctx context.Context, userID string, questID int, periodKey string, claimedAt time.Time) (bool, error)
}

// TxBeginner starts engine transactions
type TxBeginner interface {
	BeginTx(ctx context.Context) (EngineTx, error)
}
