package event

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/osse101/LabRewards_Go/internal/domain"
)

// Type represents the type of an event
type Type string

// Metadata defines the type for event metadata
type Metadata map[string]interface{}

// Event represents a generic event in the system
type Event struct {
	Version  string      `json:"version"` // Event schema version (e.g., "1.0")
	Type     Type        `json:"type"`
	Payload  interface{} `json:"payload"`
	Metadata Metadata    `json:"metadata,omitempty"`
}

// GetMetadataValue extracts a value from the event metadata safely
func (e Event) GetMetadataValue(key string) interface{} {
	if e.Metadata == nil {
		return nil
	}
	return e.Metadata[key]
}

// Engine event types
const (
	ProgressionAwarded Type = domain.EventTypeProgressionAwarded
	LevelUp            Type = domain.EventTypeLevelUp
	BadgeGranted       Type = domain.EventTypeBadgeGranted
	QuestCompleted     Type = domain.EventTypeQuestCompleted
	QuestClaimed       Type = domain.EventTypeQuestClaimed
	ChestOpened        Type = domain.EventTypeChestOpened
)

// NewProgressionAwardedEvent creates the event published after an award commits
func NewProgressionAwardedEvent(rec domain.AwardRequest, level int, tier domain.Tier) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    ProgressionAwarded,
		Payload: domain.ProgressionAwardedPayload{
			UserID:          rec.UserID,
			SourceType:      rec.SourceType,
			SourceID:        rec.SourceID,
			Points:          rec.Points,
			XP:              rec.XP,
			DurationSeconds: rec.DurationSeconds,
			TaskCount:       rec.TaskCount,
			ProjectID:       rec.ProjectID,
			Level:           level,
			Tier:            tier,
			Timestamp:       time.Now().Unix(),
		},
		Metadata: Metadata{"source": string(rec.SourceType)},
	}
}

// NewLevelUpEvent creates a level or tier change event
func NewLevelUpEvent(userID string, oldLevel, newLevel int, oldTier, newTier domain.Tier) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    LevelUp,
		Payload: domain.LevelUpPayload{
			UserID:   userID,
			OldLevel: oldLevel,
			NewLevel: newLevel,
			OldTier:  oldTier,
			NewTier:  newTier,
		},
	}
}

// NewBadgeGrantedEvent creates a badge granted event
func NewBadgeGrantedEvent(userID string, badge *domain.Badge, awardedBy string) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    BadgeGranted,
		Payload: domain.BadgeGrantedPayload{
			UserID:    userID,
			BadgeID:   badge.ID,
			BadgeCode: badge.Code,
			AwardedBy: awardedBy,
			Timestamp: time.Now().Unix(),
		},
	}
}

// NewQuestCompletedEvent creates a quest completed event
func NewQuestCompletedEvent(userID string, quest *domain.Quest, periodKey string) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    QuestCompleted,
		Payload: domain.QuestCompletedPayload{
			UserID:    userID,
			QuestID:   quest.ID,
			QuestCode: quest.Code,
			PeriodKey: periodKey,
			Timestamp: time.Now().Unix(),
		},
	}
}

// NewQuestClaimedEvent creates a quest claimed event
func NewQuestClaimedEvent(userID string, res *domain.ClaimResult) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    QuestClaimed,
		Payload: domain.QuestClaimedPayload{
			UserID:          userID,
			QuestID:         res.QuestID,
			PeriodKey:       res.PeriodKey,
			PointsAwarded:   res.PointsAwarded,
			XPAwarded:       res.XPAwarded,
			CurrencyAwarded: res.CurrencyAwarded,
			ItemCount:       len(res.Items),
			Timestamp:       time.Now().Unix(),
		},
	}
}

// NewChestOpenedEvent creates a chest opened event
func NewChestOpenedEvent(userID string, res *domain.OpenChestResult) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    ChestOpened,
		Payload: domain.ChestOpenedPayload{
			UserID:     userID,
			ChestID:    res.ChestID,
			Opened:     res.Opened,
			CoinsSpent: res.CoinsSpent,
			DropCount:  len(res.Drops),
			Timestamp:  time.Now().Unix(),
		},
	}
}

// Handler is a function that handles an event
type Handler func(ctx context.Context, event Event) error

// Bus defines the interface for an event bus
type Bus interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType Type, handler Handler)
}

// MemoryBus is an in-memory implementation of the Event Bus
type MemoryBus struct {
	handlers map[Type][]Handler
	mu       sync.RWMutex
}

// NewMemoryBus creates a new MemoryBus
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{
		handlers: make(map[Type][]Handler),
	}
}

// Publish publishes an event to all subscribers synchronously
func (b *MemoryBus) Publish(ctx context.Context, event Event) error {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.handlers[event.Type]...)
	b.mu.RUnlock()

	var errs []error
	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf(LogMsgHandlerErrorFormat, len(errs), event.Type, errs)
	}

	return nil
}

// Subscribe subscribes a handler to an event type
func (b *MemoryBus) Subscribe(eventType Type, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)
}
