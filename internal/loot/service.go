package loot

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/osse101/LabRewards_Go/internal/cache"
	"github.com/osse101/LabRewards_Go/internal/concurrency"
	"github.com/osse101/LabRewards_Go/internal/domain"
	"github.com/osse101/LabRewards_Go/internal/event"
	"github.com/osse101/LabRewards_Go/internal/logger"
	"github.com/osse101/LabRewards_Go/internal/repository"
	"github.com/osse101/LabRewards_Go/internal/validation"
)

// WalletDebiter debits coins inside a transaction
type WalletDebiter interface {
	DebitInTx(ctx context.Context, tx repository.EngineTx, userID string, amount int64) (int64, error)
}

// InventoryAdder grants items inside a transaction
type InventoryAdder interface {
	AddInTx(ctx context.Context, tx repository.EngineTx, grant domain.InventoryGrant) error
}

// Service defines the chest opening and drop table management interface
type Service interface {
	OpenChest(ctx context.Context, userID string, chestID, quantity int) (*domain.OpenChestResult, error)

	GetChest(ctx context.Context, id int) (*domain.ChestWithEntries, error)
	ListChests(ctx context.Context, activeOnly bool) ([]domain.ChestDefinition, error)
	CreateChest(ctx context.Context, chest *domain.ChestDefinition) error
	UpdateChest(ctx context.Context, chest *domain.ChestDefinition) error
	DeleteChest(ctx context.Context, id int) error

	CreateDropEntry(ctx context.Context, entry *domain.ChestDropEntry) error
	UpdateDropEntry(ctx context.Context, entry *domain.ChestDropEntry) error
	DeleteDropEntry(ctx context.Context, chestID, id int) error
}

type service struct {
	repo      repository.Loot
	wallet    WalletDebiter
	inventory InventoryAdder
	locks     *concurrency.LockManager
	publisher event.Publisher
	tables    *cache.Cache[*flatChest]
	rnd       roller
}

// NewService creates a loot service. locks must be the manager the wallet
// service uses so chest purchases and wallet commands serialize per user.
func NewService(
	repo repository.Loot,
	wallet WalletDebiter,
	inventory InventoryAdder,
	locks *concurrency.LockManager,
	publisher event.Publisher,
	cacheCfg cache.Config,
) Service {
	if locks == nil {
		locks = concurrency.NewLockManager()
	}
	return &service{
		repo:      repo,
		wallet:    wallet,
		inventory: inventory,
		locks:     locks,
		publisher: publisher,
		tables:    cache.New[*flatChest](cacheCfg),
		rnd:       rand.Float64, //nolint:gosec // Game logic randomness, not security critical
	}
}

func (s *service) flatChest(ctx context.Context, chestID int) (*flatChest, error) {
	return s.tables.GetOrLoad(ctx, fmt.Sprintf(cacheKeyChest, chestID), func(ctx context.Context) (*flatChest, error) {
		chest, err := s.repo.GetChest(ctx, chestID)
		if err != nil {
			return nil, err
		}
		if chest == nil {
			return nil, fmt.Errorf("%w: id %d", domain.ErrChestNotFound, chestID)
		}
		entries, err := s.repo.ListDropEntries(ctx, chestID)
		if err != nil {
			return nil, err
		}
		return buildFlatChest(*chest, entries), nil
	})
}

// OpenChest buys and opens quantity chests. Each chest is its own transaction:
// when coins run out part way the opened chests stand and the error wraps
// domain.ErrInsufficientBalance alongside the partial result.
func (s *service) OpenChest(ctx context.Context, userID string, chestID, quantity int) (*domain.OpenChestResult, error) {
	log := logger.FromContext(ctx)
	if userID == "" {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidInput, ErrMsgUserIDRequired)
	}
	if quantity < 1 || quantity > MaxOpenQuantity {
		return nil, fmt.Errorf("%w: "+ErrMsgQuantityRange, domain.ErrInvalidInput, MaxOpenQuantity, quantity)
	}
	if chestID <= 0 {
		return nil, fmt.Errorf("%w: "+ErrMsgChestIDInvalid, domain.ErrInvalidInput, chestID)
	}

	fc, err := s.flatChest(ctx, chestID)
	if err != nil {
		if errors.Is(err, domain.ErrChestNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%s: %w", ErrContextLoadingChest, err)
	}
	if !fc.Chest.Active {
		return nil, fmt.Errorf("%w: id %d", domain.ErrChestInactive, chestID)
	}
	if len(fc.Entries) == 0 || fc.TotalWeight == 0 {
		return nil, fmt.Errorf("%w: id %d", domain.ErrChestEmpty, chestID)
	}

	unlock := s.locks.Lock(concurrency.WalletKey(userID))
	defer unlock()

	result := &domain.OpenChestResult{
		ChestID:   chestID,
		Requested: quantity,
		Drops:     []domain.Drop{},
		Totals:    []domain.Drop{},
	}

	var openErr error
	for i := 0; i < quantity; i++ {
		drops, balance, err := s.openOne(ctx, userID, fc)
		if err != nil {
			openErr = err
			break
		}
		result.Opened++
		result.CoinsSpent += fc.Chest.PriceCoins
		result.Balance = balance
		result.Drops = append(result.Drops, drops...)
		result.Totals = mergeDrops(result.Totals, drops)
	}

	if result.Opened == 0 {
		return nil, openErr
	}

	log.Info(LogMsgChestOpened,
		"user_id", userID,
		LogFieldChest, chestID,
		"opened", result.Opened,
		"coins_spent", result.CoinsSpent,
		"drops", len(result.Drops),
		"distinct_items", len(result.Totals))
	if s.publisher != nil {
		s.publisher.PublishWithRetry(ctx, event.NewChestOpenedEvent(userID, result))
	}

	if openErr != nil {
		log.Warn(LogMsgPartialOpen, "user_id", userID, LogFieldChest, chestID, "opened", result.Opened, "requested", quantity, "error", openErr)
		return result, fmt.Errorf(ErrMsgPartialOpen+": %w", result.Opened, quantity, openErr)
	}
	return result, nil
}

// openOne debits the price and grants one chest's drops in a single transaction
func (s *service) openOne(ctx context.Context, userID string, fc *flatChest) ([]domain.Drop, int64, error) {
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", ErrMsgBeginTxFailed, err)
	}
	defer repository.SafeRollback(ctx, tx)

	balance, err := s.wallet.DebitInTx(ctx, tx, userID, fc.Chest.PriceCoins)
	if err != nil {
		return nil, 0, err
	}

	drops := fc.roll(s.rnd)
	for _, d := range drops {
		grant := domain.InventoryGrant{
			UserID:      userID,
			ItemKey:     d.ItemKey,
			ItemName:    d.ItemName,
			Rarity:      d.Rarity,
			Quantity:    int64(d.Quantity),
			AcquiredVia: AcquiredViaPrefix + fc.Chest.Name,
		}
		if err := s.inventory.AddInTx(ctx, tx, grant); err != nil {
			return nil, 0, fmt.Errorf("failed to grant %s: %w", d.ItemKey, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", ErrMsgCommitFailed, err)
	}
	return drops, balance, nil
}

func (s *service) GetChest(ctx context.Context, id int) (*domain.ChestWithEntries, error) {
	chest, err := s.repo.GetChest(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrContextLoadingChest, err)
	}
	if chest == nil {
		return nil, fmt.Errorf("%w: id %d", domain.ErrChestNotFound, id)
	}
	entries, err := s.repo.ListDropEntries(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list drop entries: %w", err)
	}
	if entries == nil {
		entries = []domain.ChestDropEntry{}
	}
	return &domain.ChestWithEntries{ChestDefinition: *chest, Entries: entries}, nil
}

func (s *service) ListChests(ctx context.Context, activeOnly bool) ([]domain.ChestDefinition, error) {
	chests, err := s.repo.ListChests(ctx, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list chests: %w", err)
	}
	if chests == nil {
		chests = []domain.ChestDefinition{}
	}
	return chests, nil
}

// prepareChest raises MaxDrops to MinDrops before validating
func prepareChest(ctx context.Context, chest *domain.ChestDefinition) error {
	if chest.MaxDrops < chest.MinDrops {
		logger.FromContext(ctx).Warn(LogMsgDropsCoerced, "name", chest.Name, "min_drops", chest.MinDrops, "max_drops", chest.MaxDrops)
		chest.MaxDrops = chest.MinDrops
	}
	return validation.ValidateStruct(chest)
}

func (s *service) CreateChest(ctx context.Context, chest *domain.ChestDefinition) error {
	if err := prepareChest(ctx, chest); err != nil {
		return err
	}
	if err := s.repo.CreateChest(ctx, chest); err != nil {
		return fmt.Errorf("failed to create chest: %w", err)
	}
	logger.FromContext(ctx).Info(LogMsgChestSaved, LogFieldChest, chest.ID, "name", chest.Name)
	return nil
}

func (s *service) UpdateChest(ctx context.Context, chest *domain.ChestDefinition) error {
	if chest.ID <= 0 {
		return fmt.Errorf("%w: "+ErrMsgChestIDInvalid, domain.ErrInvalidInput, chest.ID)
	}
	if err := prepareChest(ctx, chest); err != nil {
		return err
	}
	if err := s.repo.UpdateChest(ctx, chest); err != nil {
		return err
	}
	s.invalidate(chest.ID)
	logger.FromContext(ctx).Info(LogMsgChestSaved, LogFieldChest, chest.ID, "name", chest.Name)
	return nil
}

func (s *service) DeleteChest(ctx context.Context, id int) error {
	deleted, err := s.repo.DeleteChest(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete chest: %w", err)
	}
	if !deleted {
		return fmt.Errorf("%w: id %d", domain.ErrChestNotFound, id)
	}
	s.invalidate(id)
	return nil
}

// prepareEntry raises QtyMax to QtyMin before validating
func prepareEntry(ctx context.Context, entry *domain.ChestDropEntry) error {
	if entry.QtyMax < entry.QtyMin {
		logger.FromContext(ctx).Warn(LogMsgQuantityCoerced, "item_key", entry.ItemKey, "qty_min", entry.QtyMin, "qty_max", entry.QtyMax)
		entry.QtyMax = entry.QtyMin
	}
	return validation.ValidateStruct(entry)
}

func (s *service) CreateDropEntry(ctx context.Context, entry *domain.ChestDropEntry) error {
	if err := prepareEntry(ctx, entry); err != nil {
		return err
	}
	if err := s.repo.CreateDropEntry(ctx, entry); err != nil {
		return err
	}
	s.invalidate(entry.ChestID)
	logger.FromContext(ctx).Info(LogMsgDropEntrySaved, LogFieldDropEntry, entry.ID, LogFieldChest, entry.ChestID)
	return nil
}

func (s *service) UpdateDropEntry(ctx context.Context, entry *domain.ChestDropEntry) error {
	if err := prepareEntry(ctx, entry); err != nil {
		return err
	}
	if err := s.repo.UpdateDropEntry(ctx, entry); err != nil {
		return err
	}
	s.invalidate(entry.ChestID)
	logger.FromContext(ctx).Info(LogMsgDropEntrySaved, LogFieldDropEntry, entry.ID, LogFieldChest, entry.ChestID)
	return nil
}

func (s *service) DeleteDropEntry(ctx context.Context, chestID, id int) error {
	deleted, err := s.repo.DeleteDropEntry(ctx, chestID, id)
	if err != nil {
		return fmt.Errorf("failed to delete drop entry: %w", err)
	}
	if !deleted {
		return fmt.Errorf("%w: id %d in chest %d", domain.ErrDropEntryNotFound, id, chestID)
	}
	s.invalidate(chestID)
	return nil
}

func (s *service) invalidate(chestID int) {
	s.tables.Invalidate(fmt.Sprintf(cacheKeyChest, chestID))
}
