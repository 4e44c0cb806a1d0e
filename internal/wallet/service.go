package wallet

import (
	"context"
	"fmt"

	"github.com/osse101/LabRewards_Go/internal/concurrency"
	"github.com/osse101/LabRewards_Go/internal/domain"
	"github.com/osse101/LabRewards_Go/internal/logger"
	"github.com/osse101/LabRewards_Go/internal/metrics"
	"github.com/osse101/LabRewards_Go/internal/repository"
)

// Service manages coin balances
type Service interface {
	Credit(ctx context.Context, userID string, amount int64, reason string) (int64, error)
	Debit(ctx context.Context, userID string, amount int64, reason string) (int64, error)
	GetBalance(ctx context.Context, userID string) (int64, error)

	// CreditInTx and DebitInTx apply inside a caller-owned transaction and
	// return the new balance. The caller commits.
	CreditInTx(ctx context.Context, tx repository.EngineTx, userID string, amount int64) (int64, error)
	DebitInTx(ctx context.Context, tx repository.EngineTx, userID string, amount int64) (int64, error)
}

type service struct {
	repo  repository.Wallet
	locks *concurrency.LockManager
}

// NewService creates a wallet service. locks may be shared with other
// services that touch wallets.
func NewService(repo repository.Wallet, locks *concurrency.LockManager) Service {
	if locks == nil {
		locks = concurrency.NewLockManager()
	}
	return &service{repo: repo, locks: locks}
}

func validate(userID string, amount int64) error {
	if userID == "" {
		return fmt.Errorf("%w: %s", domain.ErrInvalidInput, ErrMsgUserIDRequired)
	}
	if amount <= 0 {
		return fmt.Errorf("%w: "+ErrMsgAmountNotPositive, domain.ErrInvalidInput, amount)
	}
	return nil
}

// Credit adds amount to the user's balance, creating the wallet if needed
func (s *service) Credit(ctx context.Context, userID string, amount int64, reason string) (int64, error) {
	log := logger.FromContext(ctx)
	if err := validate(userID, amount); err != nil {
		return 0, err
	}

	unlock := s.locks.Lock(concurrency.WalletKey(userID))
	defer unlock()

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", ErrMsgBeginTxFailed, err)
	}
	defer repository.SafeRollback(ctx, tx)

	balance, err := s.CreditInTx(ctx, tx, userID, amount)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("%s: %w", ErrMsgCommitFailed, err)
	}

	metrics.CoinsCredited.WithLabelValues(reasonLabel(reason)).Add(float64(amount))
	log.Info(LogMsgCredited, "user_id", userID, "amount", amount, "reason", reason, "balance", balance)
	return balance, nil
}

// Debit subtracts amount, failing with ErrInsufficientBalance when it would go negative
func (s *service) Debit(ctx context.Context, userID string, amount int64, reason string) (int64, error) {
	log := logger.FromContext(ctx)
	if err := validate(userID, amount); err != nil {
		return 0, err
	}

	unlock := s.locks.Lock(concurrency.WalletKey(userID))
	defer unlock()

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", ErrMsgBeginTxFailed, err)
	}
	defer repository.SafeRollback(ctx, tx)

	balance, err := s.DebitInTx(ctx, tx, userID, amount)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("%s: %w", ErrMsgCommitFailed, err)
	}

	log.Info(LogMsgDebited, "user_id", userID, "amount", amount, "reason", reason, "balance", balance)
	return balance, nil
}

// GetBalance returns the current balance, 0 for unknown users
func (s *service) GetBalance(ctx context.Context, userID string) (int64, error) {
	if userID == "" {
		return 0, fmt.Errorf("%w: %s", domain.ErrInvalidInput, ErrMsgUserIDRequired)
	}
	return s.repo.GetBalance(ctx, userID)
}

func (s *service) CreditInTx(ctx context.Context, tx repository.EngineTx, userID string, amount int64) (int64, error) {
	if err := validate(userID, amount); err != nil {
		return 0, err
	}
	balance, err := tx.GetBalanceForUpdate(ctx, userID)
	if err != nil {
		return 0, err
	}
	balance += amount
	if err := tx.UpdateBalance(ctx, userID, balance); err != nil {
		return 0, err
	}
	return balance, nil
}

func (s *service) DebitInTx(ctx context.Context, tx repository.EngineTx, userID string, amount int64) (int64, error) {
	if err := validate(userID, amount); err != nil {
		return 0, err
	}
	balance, err := tx.GetBalanceForUpdate(ctx, userID)
	if err != nil {
		return 0, err
	}
	if balance < amount {
		return balance, fmt.Errorf("%w: "+ErrMsgBalanceTooLow, domain.ErrInsufficientBalance, balance, amount)
	}
	balance -= amount
	if err := tx.UpdateBalance(ctx, userID, balance); err != nil {
		return 0, err
	}
	return balance, nil
}

func reasonLabel(reason string) string {
	if reason == "" {
		return ReasonUnspecified
	}
	return reason
}
