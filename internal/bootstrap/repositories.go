package bootstrap

import (
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/osse101/LabRewards_Go/internal/config"
	"github.com/osse101/LabRewards_Go/internal/database/memory"
	"github.com/osse101/LabRewards_Go/internal/database/postgres"
	"github.com/osse101/LabRewards_Go/internal/repository"
)

// Repositories holds the storage each service is built on
type Repositories struct {
	Award     repository.Award
	Badge     repository.Badge
	Quest     repository.Quest
	Wallet    repository.Wallet
	Inventory repository.Inventory
	Loot      repository.Loot
}

// InitializeRepositories picks the storage backend named by STORAGE_BACKEND.
// dbPool is ignored for the memory backend.
func InitializeRepositories(cfg *config.Config, dbPool *pgxpool.Pool) (*Repositories, error) {
	switch cfg.StorageBackend {
	case config.StorageBackendPostgres:
		slog.Info(LogMsgUsingPostgresStorage, "db_host", cfg.DBHost, "db_name", cfg.DBName)
		return PostgresRepositories(dbPool), nil
	case config.StorageBackendMemory:
		slog.Warn(LogMsgUsingMemoryStorage)
		return MemoryRepositories(), nil
	default:
		return nil, fmt.Errorf(ErrMsgUnknownStorage, cfg.StorageBackend)
	}
}

// PostgresRepositories creates the pgx-backed repositories
func PostgresRepositories(dbPool *pgxpool.Pool) *Repositories {
	return &Repositories{
		Award:     postgres.NewAwardRepository(dbPool),
		Badge:     postgres.NewBadgeRepository(dbPool),
		Quest:     postgres.NewQuestRepository(dbPool),
		Wallet:    postgres.NewWalletRepository(dbPool),
		Inventory: postgres.NewInventoryRepository(dbPool),
		Loot:      postgres.NewLootRepository(dbPool),
	}
}

// MemoryRepositories backs every repository with one shared in-memory store
// so transactions span awards, wallets and inventories.
func MemoryRepositories() *Repositories {
	store := memory.New()
	return &Repositories{
		Award:     store,
		Badge:     store,
		Quest:     store,
		Wallet:    store,
		Inventory: store,
		Loot:      store,
	}
}
