package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/osse101/LabRewards_Go/internal/award"
	"github.com/osse101/LabRewards_Go/internal/badge"
	"github.com/osse101/LabRewards_Go/internal/bootstrap"
	"github.com/osse101/LabRewards_Go/internal/cache"
	"github.com/osse101/LabRewards_Go/internal/catalog"
	"github.com/osse101/LabRewards_Go/internal/concurrency"
	"github.com/osse101/LabRewards_Go/internal/config"
	"github.com/osse101/LabRewards_Go/internal/database"
	"github.com/osse101/LabRewards_Go/internal/inventory"
	"github.com/osse101/LabRewards_Go/internal/leveling"
	"github.com/osse101/LabRewards_Go/internal/loot"
	"github.com/osse101/LabRewards_Go/internal/quest"
	"github.com/osse101/LabRewards_Go/internal/server"
	"github.com/osse101/LabRewards_Go/internal/wallet"
	"github.com/osse101/LabRewards_Go/internal/worker"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("Fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logFile, err := bootstrap.SetupLogger(cfg)
	if err != nil {
		return err
	}
	if logFile != nil {
		defer logFile.Close()
	}

	warnings, err := config.ValidateEnvWithWarnings()
	if err != nil {
		return fmt.Errorf("invalid environment: %w", err)
	}
	for _, w := range warnings {
		slog.Warn(w)
	}

	ctx := context.Background()

	var pgPool *pgxpool.Pool
	var readiness database.Pool
	if cfg.StorageBackend == config.StorageBackendPostgres {
		pgPool, err = database.NewPool(ctx, database.PoolConfig{
			ConnString: cfg.GetDBConnString(),
			MaxConns:   cfg.DBMaxConns,
		})
		if err != nil {
			return err
		}
		if _, err := database.Migrate(ctx, pgPool); err != nil {
			pgPool.Close()
			return err
		}
		readiness = pgPool
	}

	repos, err := bootstrap.InitializeRepositories(cfg, pgPool)
	if err != nil {
		return err
	}

	eventBus, publisher, err := bootstrap.InitializeEventSystem(cfg)
	if err != nil {
		return err
	}

	curve := leveling.DefaultCurve()
	if len(cfg.LevelThresholds) > 0 {
		if curve, err = leveling.NewCurve(cfg.LevelThresholds, nil); err != nil {
			return fmt.Errorf("invalid LEVEL_THRESHOLDS: %w", err)
		}
	}

	cacheCfg := cache.Config{Size: cfg.DefinitionCacheSize, TTL: cfg.DefinitionCacheTTL}
	// Wallet commands, chest purchases and quest claims serialize on the same per-user locks
	locks := concurrency.NewLockManager()

	awardService := award.NewService(repos.Award, curve, award.DefaultFormula(), publisher)
	walletService := wallet.NewService(repos.Wallet, locks)
	inventoryService := inventory.NewService(repos.Inventory)
	badgeService := badge.NewService(repos.Badge, awardService, nil, publisher, cacheCfg)
	questService := quest.NewService(repos.Quest, awardService, walletService, inventoryService, locks, publisher, cacheCfg)
	lootService := loot.NewService(repos.Loot, walletService, inventoryService, locks, publisher, cacheCfg)

	pool := worker.NewPool(cfg.WorkerCount, cfg.WorkerQueueSize)
	pool.Start()

	bootstrap.RegisterEventHandlers(bootstrap.EventHandlerDependencies{
		EventBus:     eventBus,
		BadgeService: badgeService,
		QuestService: questService,
		WorkerPool:   pool,
	})

	if _, err := bootstrap.SyncDefinitions(ctx, cfg.DefinitionsPath, catalog.Stores{
		Badges: badgeService,
		Quests: questService,
		Chests: lootService,
	}); err != nil {
		return err
	}

	eligibility, err := worker.NewEligibilityWorker(repos.Award, questService, cfg.EligibilityRefreshInterval)
	if err != nil {
		return err
	}
	if err := eligibility.Start(); err != nil {
		return err
	}

	srv := server.NewServer(server.Options{
		Port:           cfg.Port,
		APIKey:         cfg.APIKey,
		TrustedProxies: cfg.TrustedProxies,
		Version:        cfg.Version,
		IsAdmin:        cfg.IsAdmin,
		DBPool:         readiness,
	}, server.Services{
		Awards:    awardService,
		Badges:    badgeService,
		Quests:    questService,
		Loot:      lootService,
		Wallet:    walletService,
		Inventory: inventoryService,
	})

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-stop:
		slog.Info("Shutdown signal received", "signal", sig.String())
	case runErr = <-serverErr:
		slog.Error("Server failed", "error", runErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	bootstrap.GracefulShutdown(shutdownCtx, bootstrap.ShutdownComponents{
		Server:             srv,
		EligibilityWorker:  eligibility,
		WorkerPool:         pool,
		ResilientPublisher: publisher,
		DBPool:             readiness,
	})

	return runErr
}
