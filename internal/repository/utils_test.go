package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"

	"github.com/osse101/LabRewards_Go/internal/domain"
)

type fakeTx struct {
	rollbackErr error
	rollbacks   int
}

func (f *fakeTx) Commit(context.Context) error { return nil }

func (f *fakeTx) Rollback(context.Context) error {
	f.rollbacks++
	return f.rollbackErr
}

func TestSafeRollback(t *testing.T) {
	for _, err := range []error{nil, pgx.ErrTxClosed, errors.New("boom")} {
		tx := &fakeTx{rollbackErr: err}
		SafeRollback(context.Background(), tx)
		assert.Equal(t, 1, tx.rollbacks)
	}
}

func TestTxClosed(t *testing.T) {
	assert.True(t, txClosed(pgx.ErrTxClosed))
	assert.True(t, txClosed(fmt.Errorf("wrap: %w", pgx.ErrTxClosed)))
	assert.True(t, txClosed(errors.New(domain.ErrMsgTxClosed)))
	assert.False(t, txClosed(errors.New("connection reset")))
}
