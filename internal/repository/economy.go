package repository

import (
	"context"

	"github.com/osse101/LabRewards_Go/internal/domain"
)

// Wallet defines the interface for wallet persistence
type Wallet interface {
	TxBeginner
	// GetBalance returns 0 for users without a wallet
	GetBalance(ctx context.Context, userID string) (int64, error)
}

// Inventory defines the interface for inventory reads
type Inventory interface {
	GetInventory(ctx context.Context, userID string) ([]domain.InventoryItem, error)
}

// Loot defines the interface for chest definitions and drop tables
type Loot interface {
	TxBeginner

	ListChests(ctx context.Context, activeOnly bool) ([]domain.ChestDefinition, error)
	// GetChest returns nil when no chest has the id
	GetChest(ctx context.Context, id int) (*domain.ChestDefinition, error)
	CreateChest(ctx context.Context, chest *domain.ChestDefinition) error
	// UpdateChest returns domain.ErrChestNotFound when no row matched
	UpdateChest(ctx context.Context, chest *domain.ChestDefinition) error
	DeleteChest(ctx context.Context, id int) (bool, error)

	ListDropEntries(ctx context.Context, chestID int) ([]domain.ChestDropEntry, error)
	// GetDropEntry returns nil when no entry has the id
	GetDropEntry(ctx context.Context, id int) (*domain.ChestDropEntry, error)
	CreateDropEntry(ctx context.Context, entry *domain.ChestDropEntry) error
	// UpdateDropEntry matches on both entry.ID and entry.ChestID and returns
	// domain.ErrDropEntryNotFound when no row matched
	UpdateDropEntry(ctx context.Context, entry *domain.ChestDropEntry) error
	// DeleteDropEntry removes the entry only when it belongs to chestID
	DeleteDropEntry(ctx context.Context, chestID, id int) (bool, error)
}
