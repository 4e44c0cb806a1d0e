package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/osse101/LabRewards_Go/internal/domain"
	"github.com/osse101/LabRewards_Go/internal/logger"
)

// SafeRollback is meant to be deferred right after BeginTx. Rolling back a
// committed transaction is a no-op; any other failure is logged.
func SafeRollback(ctx context.Context, tx Tx) {
	err := tx.Rollback(ctx)
	if err == nil || txClosed(err) {
		return
	}
	logger.FromContext(ctx).Error("Failed to rollback transaction", "error", err)
}

func txClosed(err error) bool {
	return errors.Is(err, pgx.ErrTxClosed) || err.Error() == domain.ErrMsgTxClosed
}
