package badge

import (
	"context"
	"fmt"

	"github.com/osse101/LabRewards_Go/internal/domain"
	"github.com/osse101/LabRewards_Go/internal/event"
	"github.com/osse101/LabRewards_Go/internal/logger"
	"github.com/osse101/LabRewards_Go/internal/worker"
)

// Enqueuer accepts background jobs
type Enqueuer interface {
	Enqueue(job worker.Job) bool
}

// EventHandler re-evaluates a user's badges after each award
type EventHandler struct {
	service Service
	pool    Enqueuer
}

// NewEventHandler creates a badge event handler. With a nil pool evaluations
// run inline on the publishing goroutine.
func NewEventHandler(service Service, pool Enqueuer) *EventHandler {
	return &EventHandler{service: service, pool: pool}
}

// Register subscribes the handler to relevant events
func (h *EventHandler) Register(bus event.Bus) {
	bus.Subscribe(event.ProgressionAwarded, h.HandleProgressionAwarded)
}

// HandleProgressionAwarded schedules a badge evaluation for the awarded user
func (h *EventHandler) HandleProgressionAwarded(ctx context.Context, evt event.Event) error {
	payload, err := event.DecodePayload[domain.ProgressionAwardedPayload](evt.Payload)
	if err != nil {
		return fmt.Errorf("failed to decode progression awarded payload: %w", err)
	}
	if payload.UserID == "" {
		return nil
	}

	userID := payload.UserID
	job := worker.JobFunc(func(ctx context.Context) error {
		if _, err := h.service.EvaluateUserBadges(ctx, userID); err != nil {
			return fmt.Errorf("%s for user %s: %w", LogMsgEvaluationFailed, userID, err)
		}
		return nil
	})

	if h.pool == nil {
		if err := job.Process(ctx); err != nil {
			logger.FromContext(ctx).Warn(LogMsgEvaluationFailed, "user_id", userID, "error", err)
		}
		return nil
	}
	if !h.pool.Enqueue(job) {
		logger.FromContext(ctx).Warn(LogMsgEvaluationDropped, "user_id", userID)
	}
	return nil
}
