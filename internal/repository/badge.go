package repository

import (
	"context"

	"github.com/osse101/LabRewards_Go/internal/domain"
)

// Badge defines the interface for badge definitions and user badges
type Badge interface {
	ListBadges(ctx context.Context, activeOnly bool) ([]domain.Badge, error)
	// GetBadge returns nil when no badge has the id
	GetBadge(ctx context.Context, id int) (*domain.Badge, error)
	CreateBadge(ctx context.Context, badge *domain.Badge) error
	// UpdateBadge returns domain.ErrBadgeNotFound when no row matched
	UpdateBadge(ctx context.Context, badge *domain.Badge) error
	DeleteBadge(ctx context.Context, id int) (bool, error)

	GetUserBadges(ctx context.Context, userID string) ([]domain.UserBadgeView, error)
	// InsertUserBadge returns false when the user already holds the badge
	InsertUserBadge(ctx context.Context, ub *domain.UserBadge) (bool, error)
	DeleteUserBadge(ctx context.Context, userID string, badgeID int) (bool, error)
}
