package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/osse101/LabRewards_Go/internal/catalog"
)

// SyncDefinitions loads, validates and syncs the badge, quest and chest
// catalog at path. Definitions are written through the services so caches
// and invariants stay in one place. An empty path skips the sync.
func SyncDefinitions(ctx context.Context, path string, stores catalog.Stores) (*catalog.SyncResult, error) {
	if path == "" {
		slog.Info(LogMsgDefinitionsSkipped)
		return &catalog.SyncResult{}, nil
	}

	loader := catalog.NewLoader()

	cfg, err := loader.Load(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedLoadDefinitions, err)
	}

	if err := loader.Validate(cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgInvalidDefinitions, err)
	}

	result, err := loader.Sync(ctx, cfg, stores)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedSyncDefinitions, err)
	}
	return result, nil
}
