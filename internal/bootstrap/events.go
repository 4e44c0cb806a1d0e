package bootstrap

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/osse101/LabRewards_Go/internal/config"
	"github.com/osse101/LabRewards_Go/internal/event"
)

type eventSettings struct {
	maxRetries     int
	retryDelay     time.Duration
	deadLetterPath string
}

// eventSettingsFrom fills unset event options with the config defaults
func eventSettingsFrom(cfg *config.Config) eventSettings {
	s := eventSettings{
		maxRetries:     cfg.EventMaxRetries,
		retryDelay:     cfg.EventRetryDelay,
		deadLetterPath: cfg.EventDeadLetterPath,
	}
	if s.maxRetries <= 0 {
		s.maxRetries = config.DefaultEventMaxRetries
	}
	if s.retryDelay <= 0 {
		s.retryDelay = config.DefaultEventRetryDelay
	}
	if s.deadLetterPath == "" {
		s.deadLetterPath = config.DefaultEventDeadLetterPath
	}
	return s
}

// InitializeEventSystem returns the in-process bus that handlers subscribe
// to and the retrying publisher that services publish through
func InitializeEventSystem(cfg *config.Config) (event.Bus, *event.ResilientPublisher, error) {
	s := eventSettingsFrom(cfg)

	if err := os.MkdirAll(filepath.Dir(s.deadLetterPath), DirPermission); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", ErrMsgCreateDeadLetterDir, err)
	}
	reportDeadLetters(s.deadLetterPath)

	bus := event.NewMemoryBus()
	publisher, err := event.NewResilientPublisher(bus, s.maxRetries, s.retryDelay, s.deadLetterPath)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", ErrMsgCreatePublisher, err)
	}

	slog.Info(LogMsgEventSystemInitialized,
		"max_retries", s.maxRetries,
		"retry_delay", s.retryDelay,
		"deadletter_path", s.deadLetterPath)
	return bus, publisher, nil
}

// reportDeadLetters warns about events left undelivered by earlier runs
func reportDeadLetters(path string) int {
	entries, err := event.ReadDeadLetters(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return 0
	case err != nil:
		slog.Warn(LogMsgDeadLettersUnreadable, "path", path, "error", err)
	}
	if len(entries) > 0 {
		slog.Warn(LogMsgDeadLettersPending, "path", path, "count", len(entries),
			"oldest", entries[0].Timestamp)
	}
	return len(entries)
}
