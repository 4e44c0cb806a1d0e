package bootstrap

import (
	"context"
	"log/slog"

	"github.com/osse101/LabRewards_Go/internal/database"
	"github.com/osse101/LabRewards_Go/internal/event"
	"github.com/osse101/LabRewards_Go/internal/server"
	"github.com/osse101/LabRewards_Go/internal/worker"
)

// ShutdownComponents holds all components that need graceful shutdown.
// Nil members are skipped.
type ShutdownComponents struct {
	Server             *server.Server
	EligibilityWorker  *worker.EligibilityWorker
	WorkerPool         *worker.Pool
	ResilientPublisher *event.ResilientPublisher
	DBPool             database.Pool
}

// GracefulShutdown stops components in dependency order:
// 1. HTTP server (stop accepting new requests)
// 2. Scheduled jobs, then the worker pool (drain queued badge evaluations)
// 3. Event publisher (flush pending retries)
// 4. Database pool
//
// Errors during shutdown are logged but do not stop the sequence.
func GracefulShutdown(ctx context.Context, components ShutdownComponents) {
	slog.Info(LogMsgShuttingDownServer)

	if components.Server != nil {
		if err := components.Server.Stop(ctx); err != nil {
			slog.Error(LogMsgServerForcedShutdown, "error", err)
		}
	}

	if components.EligibilityWorker != nil {
		if err := components.EligibilityWorker.Shutdown(ctx); err != nil {
			slog.Error(LogMsgEligibilityWorkerFailed, "error", err)
		}
	}

	if components.WorkerPool != nil {
		if err := components.WorkerPool.Shutdown(ctx); err != nil {
			slog.Error(LogMsgWorkerPoolFailed, "error", err)
		}
	}

	if components.ResilientPublisher != nil {
		slog.Info(LogMsgShuttingDownEventPublisher)
		if err := components.ResilientPublisher.Shutdown(ctx); err != nil {
			slog.Error(LogMsgResilientPublisherFailed, "error", err)
		}
	}

	if components.DBPool != nil {
		components.DBPool.Close()
	}

	slog.Info(LogMsgServerStopped)
}
