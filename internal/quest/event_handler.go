package quest

import (
	"context"
	"fmt"

	"github.com/osse101/LabRewards_Go/internal/domain"
	"github.com/osse101/LabRewards_Go/internal/event"
	"github.com/osse101/LabRewards_Go/internal/logger"
)

// EventHandler handles events related to quests
type EventHandler struct {
	service Service
}

// NewEventHandler creates a new quest event handler
func NewEventHandler(service Service) *EventHandler {
	return &EventHandler{
		service: service,
	}
}

// Register subscribes the handler to relevant events
func (h *EventHandler) Register(bus event.Bus) {
	bus.Subscribe(event.ProgressionAwarded, h.HandleProgressionAwarded)
	bus.Subscribe(event.LevelUp, h.HandleLevelUp)
}

// ActivityFromAward converts an award into quest counter deltas. Quest rewards
// never count toward quests.
func ActivityFromAward(p domain.ProgressionAwardedPayload) (domain.QuestActivity, bool) {
	if p.UserID == "" || p.SourceType == domain.SourceQuestReward {
		return domain.QuestActivity{}, false
	}

	deltas := map[domain.QuestCounter]int64{}
	switch p.SourceType {
	case domain.SourceTaskCompleted:
		deltas[domain.CounterTasksCompleted] = 1
	case domain.SourceWorkSessionCompleted:
		deltas[domain.CounterWorkSessions] = 1
		if p.DurationSeconds > 0 {
			deltas[domain.CounterWorkSeconds] = p.DurationSeconds
		}
	}
	if p.Points > 0 {
		deltas[domain.CounterPointsEarned] = p.Points
	}
	if p.XP > 0 {
		deltas[domain.CounterXPEarned] = p.XP
	}
	if len(deltas) == 0 {
		return domain.QuestActivity{}, false
	}

	return domain.QuestActivity{
		UserID:     p.UserID,
		ProjectID:  p.ProjectID,
		SourceType: p.SourceType,
		SourceID:   p.SourceID,
		Deltas:     deltas,
	}, true
}

// HandleProgressionAwarded advances quest counters for the awarded user.
// Errors are returned so the publisher retries; a redelivered award is
// skipped by the activity source guard.
func (h *EventHandler) HandleProgressionAwarded(ctx context.Context, evt event.Event) error {
	payload, err := event.DecodePayload[domain.ProgressionAwardedPayload](evt.Payload)
	if err != nil {
		return fmt.Errorf("failed to decode progression awarded payload: %w", err)
	}

	activity, ok := ActivityFromAward(payload)
	if !ok {
		return nil
	}
	if _, err := h.service.RecordActivity(ctx, activity); err != nil {
		logger.FromContext(ctx).Warn(LogMsgActivityFailed, "error", err, "user_id", payload.UserID)
		return fmt.Errorf("%s: %w", LogMsgActivityFailed, err)
	}
	return nil
}

// HandleLevelUp opens quests gated behind the user's new level or tier
func (h *EventHandler) HandleLevelUp(ctx context.Context, evt event.Event) error {
	payload, err := event.DecodePayload[domain.LevelUpPayload](evt.Payload)
	if err != nil {
		return fmt.Errorf("failed to decode level up payload: %w", err)
	}
	if payload.UserID == "" {
		return nil
	}
	if err := h.service.RefreshEligibility(ctx, payload.UserID); err != nil {
		logger.FromContext(ctx).Warn(LogMsgRefreshFailed, "error", err, "user_id", payload.UserID)
		return fmt.Errorf("%s: %w", LogMsgRefreshFailed, err)
	}
	return nil
}
