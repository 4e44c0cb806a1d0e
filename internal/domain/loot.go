package domain

import "time"

// ChestDefinition is a purchasable loot chest
type ChestDefinition struct {
	ID         int       `json:"id"`
	Name       string    `json:"name" validate:"required,max=200"`
	Rarity     string    `json:"rarity" validate:"max=50"`
	PriceCoins int64     `json:"price_coins" validate:"min=1"`
	MinDrops   int       `json:"min_drops" validate:"min=1"`
	MaxDrops   int       `json:"max_drops" validate:"min=0"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ChestDropEntry is one weighted outcome of a chest
type ChestDropEntry struct {
	ID        int       `json:"id"`
	ChestID   int       `json:"chest_id"`
	ItemKey   string    `json:"item_key" validate:"required,key,max=100"`
	ItemName  string    `json:"item_name" validate:"max=200"`
	Rarity    string    `json:"rarity" validate:"max=50"`
	Weight    int       `json:"weight" validate:"min=1"`
	QtyMin    int       `json:"qty_min" validate:"min=1"`
	QtyMax    int       `json:"qty_max" validate:"min=0"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ChestWithEntries is a chest definition together with its drop table
type ChestWithEntries struct {
	ChestDefinition
	Entries []ChestDropEntry `json:"entries"`
}

// Drop is one slot produced by opening a chest
type Drop struct {
	ItemKey  string `json:"item_key"`
	ItemName string `json:"item_name"`
	Rarity   string `json:"rarity"`
	Quantity int    `json:"quantity"`
}

// OpenChestResult reports a chest open. Opened may be less than Requested
// when the wallet ran dry part way through a batch. Drops lists every slot
// rolled, in order; Totals folds them by item key.
type OpenChestResult struct {
	ChestID    int    `json:"chest_id"`
	Requested  int    `json:"requested"`
	Opened     int    `json:"opened"`
	CoinsSpent int64  `json:"coins_spent"`
	Balance    int64  `json:"balance"`
	Drops      []Drop `json:"drops"`
	Totals     []Drop `json:"totals"`
}

// InventoryItem is a user's stack of an item
type InventoryItem struct {
	UserID      string    `json:"user_id"`
	ItemKey     string    `json:"item_key"`
	ItemName    string    `json:"item_name"`
	Rarity      string    `json:"rarity"`
	Quantity    int64     `json:"quantity"`
	AcquiredVia string    `json:"acquired_via"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// InventoryGrant adds Quantity of an item to a user's inventory
type InventoryGrant struct {
	UserID      string `json:"user_id"`
	ItemKey     string `json:"item_key"`
	ItemName    string `json:"item_name"`
	Rarity      string `json:"rarity"`
	Quantity    int64  `json:"quantity"`
	AcquiredVia string `json:"acquired_via"`
}

// Wallet is a user's coin balance
type Wallet struct {
	UserID    string    `json:"user_id"`
	Balance   int64     `json:"balance"`
	UpdatedAt time.Time `json:"updated_at"`
}
