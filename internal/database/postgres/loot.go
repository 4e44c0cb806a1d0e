package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/osse101/LabRewards_Go/internal/domain"
	"github.com/osse101/LabRewards_Go/internal/repository"
)

// LootRepository implements repository.Loot for PostgreSQL
type LootRepository struct {
	db *pgxpool.Pool
}

// NewLootRepository creates a new LootRepository
func NewLootRepository(db *pgxpool.Pool) *LootRepository {
	return &LootRepository{db: db}
}

// BeginTx starts an engine transaction
func (r *LootRepository) BeginTx(ctx context.Context) (repository.EngineTx, error) {
	return beginEngineTx(ctx, r.db)
}

const chestColumns = `chest_id, name, rarity, price_coins, min_drops, max_drops, active, created_at, updated_at`

func scanChest(row pgx.Row) (*domain.ChestDefinition, error) {
	var c domain.ChestDefinition
	err := row.Scan(&c.ID, &c.Name, &c.Rarity, &c.PriceCoins, &c.MinDrops, &c.MaxDrops, &c.Active, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListChests returns chest definitions ordered by id
func (r *LootRepository) ListChests(ctx context.Context, activeOnly bool) ([]domain.ChestDefinition, error) {
	query := `SELECT ` + chestColumns + ` FROM chest_definitions WHERE ($1 = FALSE OR active) ORDER BY chest_id`
	rows, err := r.db.Query(ctx, query, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to query chests: %w", err)
	}
	defer rows.Close()

	var chests []domain.ChestDefinition
	for rows.Next() {
		c, err := scanChest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan chest: %w", err)
		}
		chests = append(chests, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return chests, nil
}

// GetChest returns a chest by id or nil
func (r *LootRepository) GetChest(ctx context.Context, id int) (*domain.ChestDefinition, error) {
	c, err := scanChest(r.db.QueryRow(ctx, `SELECT `+chestColumns+` FROM chest_definitions WHERE chest_id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get chest: %w", err)
	}
	return c, nil
}

// CreateChest inserts a chest and sets its id and timestamps
func (r *LootRepository) CreateChest(ctx context.Context, chest *domain.ChestDefinition) error {
	query := `
		INSERT INTO chest_definitions (name, rarity, price_coins, min_drops, max_drops, active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING chest_id, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query, chest.Name, chest.Rarity, chest.PriceCoins, chest.MinDrops, chest.MaxDrops, chest.Active).
		Scan(&chest.ID, &chest.CreatedAt, &chest.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create chest: %w", err)
	}
	return nil
}

// UpdateChest overwrites a chest definition
func (r *LootRepository) UpdateChest(ctx context.Context, chest *domain.ChestDefinition) error {
	query := `
		UPDATE chest_definitions
		SET name = $2, rarity = $3, price_coins = $4, min_drops = $5, max_drops = $6, active = $7, updated_at = NOW()
		WHERE chest_id = $1
		RETURNING updated_at
	`
	err := r.db.QueryRow(ctx, query, chest.ID, chest.Name, chest.Rarity, chest.PriceCoins,
		chest.MinDrops, chest.MaxDrops, chest.Active).Scan(&chest.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: id %d", domain.ErrChestNotFound, chest.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to update chest: %w", err)
	}
	return nil
}

// DeleteChest removes a chest and its drop entries
func (r *LootRepository) DeleteChest(ctx context.Context, id int) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM chest_definitions WHERE chest_id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete chest: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

const dropEntryColumns = `entry_id, chest_id, item_key, item_name, rarity, weight, qty_min, qty_max, active, created_at, updated_at`

func scanDropEntry(row pgx.Row) (*domain.ChestDropEntry, error) {
	var e domain.ChestDropEntry
	err := row.Scan(&e.ID, &e.ChestID, &e.ItemKey, &e.ItemName, &e.Rarity, &e.Weight, &e.QtyMin, &e.QtyMax,
		&e.Active, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// ListDropEntries returns every entry of a chest, active or not, ordered by id
func (r *LootRepository) ListDropEntries(ctx context.Context, chestID int) ([]domain.ChestDropEntry, error) {
	query := `SELECT ` + dropEntryColumns + ` FROM chest_drop_entries WHERE chest_id = $1 ORDER BY entry_id`
	rows, err := r.db.Query(ctx, query, chestID)
	if err != nil {
		return nil, fmt.Errorf("failed to query drop entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.ChestDropEntry
	for rows.Next() {
		e, err := scanDropEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan drop entry: %w", err)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return entries, nil
}

// GetDropEntry returns an entry by id or nil
func (r *LootRepository) GetDropEntry(ctx context.Context, id int) (*domain.ChestDropEntry, error) {
	e, err := scanDropEntry(r.db.QueryRow(ctx, `SELECT `+dropEntryColumns+` FROM chest_drop_entries WHERE entry_id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get drop entry: %w", err)
	}
	return e, nil
}

// CreateDropEntry inserts an entry and sets its id and timestamps
func (r *LootRepository) CreateDropEntry(ctx context.Context, entry *domain.ChestDropEntry) error {
	query := `
		INSERT INTO chest_drop_entries (chest_id, item_key, item_name, rarity, weight, qty_min, qty_max, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING entry_id, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query, entry.ChestID, entry.ItemKey, entry.ItemName, entry.Rarity,
		entry.Weight, entry.QtyMin, entry.QtyMax, entry.Active).Scan(&entry.ID, &entry.CreatedAt, &entry.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create drop entry: %w", err)
	}
	return nil
}

// UpdateDropEntry overwrites an entry of entry.ChestID
func (r *LootRepository) UpdateDropEntry(ctx context.Context, entry *domain.ChestDropEntry) error {
	query := `
		UPDATE chest_drop_entries
		SET item_key = $3, item_name = $4, rarity = $5, weight = $6, qty_min = $7, qty_max = $8, active = $9, updated_at = NOW()
		WHERE entry_id = $1 AND chest_id = $2
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query, entry.ID, entry.ChestID, entry.ItemKey, entry.ItemName, entry.Rarity,
		entry.Weight, entry.QtyMin, entry.QtyMax, entry.Active).Scan(&entry.CreatedAt, &entry.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: id %d in chest %d", domain.ErrDropEntryNotFound, entry.ID, entry.ChestID)
	}
	if err != nil {
		return fmt.Errorf("failed to update drop entry: %w", err)
	}
	return nil
}

// DeleteDropEntry removes an entry of chestID
func (r *LootRepository) DeleteDropEntry(ctx context.Context, chestID, id int) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM chest_drop_entries WHERE entry_id = $1 AND chest_id = $2`, id, chestID)
	if err != nil {
		return false, fmt.Errorf("failed to delete drop entry: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
