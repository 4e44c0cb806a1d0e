package metrics

import (
	"context"
	"strconv"

	"github.com/osse101/LabRewards_Go/internal/domain"
	"github.com/osse101/LabRewards_Go/internal/event"
	"github.com/osse101/LabRewards_Go/internal/logger"
)

// EventMetricsCollector subscribes to events and records metrics
type EventMetricsCollector struct{}

// NewEventMetricsCollector creates a new event metrics collector
func NewEventMetricsCollector() *EventMetricsCollector {
	return &EventMetricsCollector{}
}

// Register subscribes to all engine events
func (e *EventMetricsCollector) Register(bus event.Bus) {
	for _, eventType := range []event.Type{
		event.ProgressionAwarded,
		event.LevelUp,
		event.BadgeGranted,
		event.QuestCompleted,
		event.QuestClaimed,
		event.ChestOpened,
	} {
		bus.Subscribe(eventType, e.HandleEvent)
	}
}

// HandleEvent processes events and updates metrics. Undecodable payloads are
// logged and skipped so metrics never fail a publish.
func (e *EventMetricsCollector) HandleEvent(ctx context.Context, evt event.Event) error {
	log := logger.FromContext(ctx)

	EventsPublished.WithLabelValues(string(evt.Type)).Inc()

	var err error
	switch evt.Type {
	case event.ProgressionAwarded:
		var p domain.ProgressionAwardedPayload
		if p, err = event.DecodePayload[domain.ProgressionAwardedPayload](evt.Payload); err == nil {
			AwardsTotal.WithLabelValues(string(p.SourceType)).Inc()
			PointsAwarded.Add(float64(p.Points))
			XPAwarded.Add(float64(p.XP))
		}

	case event.LevelUp:
		LevelUps.Inc()

	case event.BadgeGranted:
		var p domain.BadgeGrantedPayload
		if p, err = event.DecodePayload[domain.BadgeGrantedPayload](evt.Payload); err == nil {
			BadgesGranted.WithLabelValues(p.BadgeCode).Inc()
		}

	case event.QuestCompleted:
		var p domain.QuestCompletedPayload
		if p, err = event.DecodePayload[domain.QuestCompletedPayload](evt.Payload); err == nil {
			QuestsCompleted.WithLabelValues(p.QuestCode).Inc()
		}

	case event.QuestClaimed:
		QuestsClaimed.Inc()

	case event.ChestOpened:
		var p domain.ChestOpenedPayload
		if p, err = event.DecodePayload[domain.ChestOpenedPayload](evt.Payload); err == nil {
			ChestsOpened.WithLabelValues(strconv.Itoa(p.ChestID)).Add(float64(p.Opened))
			CoinsSpent.Add(float64(p.CoinsSpent))
		}
	}

	if err != nil {
		log.Debug(LogMsgEventPayloadDecodeFailed, "type", evt.Type, "error", err)
		return nil
	}

	log.Debug(LogMsgMetricsRecorded, "type", evt.Type)
	return nil
}
