package bootstrap

import (
	"log/slog"

	"github.com/osse101/LabRewards_Go/internal/badge"
	"github.com/osse101/LabRewards_Go/internal/event"
	"github.com/osse101/LabRewards_Go/internal/metrics"
	"github.com/osse101/LabRewards_Go/internal/quest"
)

// EventHandlerDependencies holds the dependencies needed for event handler registration.
type EventHandlerDependencies struct {
	EventBus     event.Bus
	BadgeService badge.Service
	QuestService quest.Service
	// WorkerPool runs badge evaluations off the publishing goroutine; nil runs them inline
	WorkerPool badge.Enqueuer
}

// RegisterEventHandlers subscribes the engine's reactions to award events:
// quest progress, badge evaluation and the metrics collector.
func RegisterEventHandlers(deps EventHandlerDependencies) {
	quest.NewEventHandler(deps.QuestService).Register(deps.EventBus)
	slog.Info(LogMsgQuestHandlerRegistered)

	badge.NewEventHandler(deps.BadgeService, deps.WorkerPool).Register(deps.EventBus)
	slog.Info(LogMsgBadgeHandlerRegistered, "async", deps.WorkerPool != nil)

	metrics.NewEventMetricsCollector().Register(deps.EventBus)
	slog.Info(LogMsgMetricsCollectorRegistered)
}
