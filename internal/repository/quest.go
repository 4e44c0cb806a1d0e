package repository

import (
	"context"

	"github.com/osse101/LabRewards_Go/internal/domain"
)

// Quest defines the interface for quest definitions and per-user quest state
type Quest interface {
	TxBeginner

	ListQuests(ctx context.Context, activeOnly bool) ([]domain.Quest, error)
	// GetQuest returns nil when no quest has the id
	GetQuest(ctx context.Context, id int) (*domain.Quest, error)
	CreateQuest(ctx context.Context, quest *domain.Quest) error
	// UpdateQuest returns domain.ErrQuestNotFound when no row matched
	UpdateQuest(ctx context.Context, quest *domain.Quest) error
	DeleteQuest(ctx context.Context, id int) (bool, error)

	GetUserQuestStates(ctx context.Context, userID string) ([]domain.UserQuestState, error)
	// GetQuestState returns nil when the user has no state for the quest period
	GetQuestState(ctx context.Context, userID string, questID int, periodKey string) (*domain.UserQuestState, error)
}
