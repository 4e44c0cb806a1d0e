package badge

import (
	"context"
	"fmt"

	"github.com/osse101/LabRewards_Go/internal/cache"
	"github.com/osse101/LabRewards_Go/internal/domain"
	"github.com/osse101/LabRewards_Go/internal/event"
	"github.com/osse101/LabRewards_Go/internal/logger"
	"github.com/osse101/LabRewards_Go/internal/repository"
	"github.com/osse101/LabRewards_Go/internal/validation"
)

// StatsProvider supplies the stat snapshot badges are evaluated against
type StatsProvider interface {
	GetActivityStats(ctx context.Context, userID string) (*domain.ActivityStats, error)
}

// Service evaluates and manages badges
type Service interface {
	// EvaluateUserBadges grants every active badge the user now qualifies for
	// and returns only the badges newly granted by this call
	EvaluateUserBadges(ctx context.Context, userID string) ([]domain.Badge, error)
	GrantBadge(ctx context.Context, userID string, badgeID int, awardedBy string) (bool, error)
	RevokeBadge(ctx context.Context, userID string, badgeID int) (bool, error)
	GetUserBadges(ctx context.Context, userID string) ([]domain.UserBadgeView, error)

	CreateBadge(ctx context.Context, badge *domain.Badge) error
	UpdateBadge(ctx context.Context, badge *domain.Badge) error
	DeleteBadge(ctx context.Context, id int) error
	GetBadge(ctx context.Context, id int) (*domain.Badge, error)
	ListBadges(ctx context.Context, activeOnly bool) ([]domain.Badge, error)
}

type service struct {
	repo      repository.Badge
	stats     StatsProvider
	registry  *Registry
	publisher event.Publisher
	active    *cache.Cache[[]domain.Badge]
}

// NewService creates a badge service. registry defaults to DefaultRegistry and
// publisher may be nil.
func NewService(repo repository.Badge, stats StatsProvider, registry *Registry, publisher event.Publisher, cacheCfg cache.Config) Service {
	if registry == nil {
		registry = DefaultRegistry()
	}
	return &service{
		repo:      repo,
		stats:     stats,
		registry:  registry,
		publisher: publisher,
		active:    cache.New[[]domain.Badge](cacheCfg),
	}
}

func (s *service) activeBadges(ctx context.Context) ([]domain.Badge, error) {
	return s.active.GetOrLoad(ctx, cacheKeyActive, func(ctx context.Context) ([]domain.Badge, error) {
		return s.repo.ListBadges(ctx, true)
	})
}

func (s *service) EvaluateUserBadges(ctx context.Context, userID string) ([]domain.Badge, error) {
	log := logger.FromContext(ctx)
	if userID == "" {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidInput, ErrMsgUserIDRequired)
	}

	stats, err := s.stats.GetActivityStats(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load activity stats: %w", err)
	}
	badges, err := s.activeBadges(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list badges: %w", err)
	}
	held, err := s.heldBadgeIDs(ctx, userID)
	if err != nil {
		return nil, err
	}

	granted := []domain.Badge{}
	for i := range badges {
		b := &badges[i]
		if !b.AutoGrantable() || held[b.ID] {
			continue
		}
		if !Evaluate(b.Criteria, stats, s.registry) {
			continue
		}
		inserted, err := s.repo.InsertUserBadge(ctx, &domain.UserBadge{
			UserID:    userID,
			BadgeID:   b.ID,
			AwardedBy: domain.AwardedBySystem,
		})
		if err != nil {
			return granted, fmt.Errorf("failed to grant badge %s: %w", b.Code, err)
		}
		// A concurrent evaluation may have won the insert
		if !inserted {
			continue
		}
		granted = append(granted, *b)
		s.onGranted(ctx, userID, b, domain.AwardedBySystem)
	}

	log.Debug(LogMsgBadgesEvaluated, "user_id", userID, "candidates", len(badges), "granted", len(granted))
	return granted, nil
}

func (s *service) heldBadgeIDs(ctx context.Context, userID string) (map[int]bool, error) {
	views, err := s.repo.GetUserBadges(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user badges: %w", err)
	}
	held := make(map[int]bool, len(views))
	for _, v := range views {
		held[v.Badge.ID] = true
	}
	return held, nil
}

func (s *service) onGranted(ctx context.Context, userID string, b *domain.Badge, awardedBy string) {
	logger.FromContext(ctx).Info(LogMsgBadgeGranted, "user_id", userID, "badge", b.Code, "awarded_by", awardedBy)
	if s.publisher != nil {
		s.publisher.PublishWithRetry(ctx, event.NewBadgeGrantedEvent(userID, b, awardedBy))
	}
}

// GrantBadge grants a badge regardless of its criteria. It returns false when
// the user already holds it.
func (s *service) GrantBadge(ctx context.Context, userID string, badgeID int, awardedBy string) (bool, error) {
	if userID == "" {
		return false, fmt.Errorf("%w: %s", domain.ErrInvalidInput, ErrMsgUserIDRequired)
	}
	b, err := s.GetBadge(ctx, badgeID)
	if err != nil {
		return false, err
	}
	if awardedBy == "" {
		awardedBy = AwardedByManual
	}

	inserted, err := s.repo.InsertUserBadge(ctx, &domain.UserBadge{UserID: userID, BadgeID: b.ID, AwardedBy: awardedBy})
	if err != nil {
		return false, fmt.Errorf("failed to grant badge: %w", err)
	}
	if inserted {
		s.onGranted(ctx, userID, b, awardedBy)
	}
	return inserted, nil
}

// RevokeBadge removes a held badge. It returns false when the user did not hold it.
func (s *service) RevokeBadge(ctx context.Context, userID string, badgeID int) (bool, error) {
	if userID == "" {
		return false, fmt.Errorf("%w: %s", domain.ErrInvalidInput, ErrMsgUserIDRequired)
	}
	if badgeID <= 0 {
		return false, fmt.Errorf("%w: "+ErrMsgBadgeIDInvalid, domain.ErrInvalidInput, badgeID)
	}
	removed, err := s.repo.DeleteUserBadge(ctx, userID, badgeID)
	if err != nil {
		return false, fmt.Errorf("failed to revoke badge: %w", err)
	}
	if removed {
		logger.FromContext(ctx).Info(LogMsgBadgeRevoked, "user_id", userID, "badge_id", badgeID)
	}
	return removed, nil
}

func (s *service) GetUserBadges(ctx context.Context, userID string) ([]domain.UserBadgeView, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidInput, ErrMsgUserIDRequired)
	}
	views, err := s.repo.GetUserBadges(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user badges: %w", err)
	}
	if views == nil {
		views = []domain.UserBadgeView{}
	}
	return views, nil
}

func (s *service) prepare(ctx context.Context, b *domain.Badge) error {
	if b.Criteria == nil {
		b.Criteria = []domain.BadgeCriterion{}
	}
	if b.Category == "" {
		b.Category = domain.BadgeCategoryAchievement
	}
	if err := validation.ValidateStruct(b); err != nil {
		return err
	}
	for _, c := range b.Criteria {
		if c.Kind == domain.CriterionSpecial {
			if _, ok := s.registry.Lookup(c.Condition); !ok {
				// Saved anyway; the criterion simply never passes
				logger.FromContext(ctx).Warn(LogMsgUnknownCondition, "badge", b.Code, "condition", c.Condition)
			}
		}
	}
	return nil
}

func (s *service) CreateBadge(ctx context.Context, b *domain.Badge) error {
	if err := s.prepare(ctx, b); err != nil {
		return err
	}
	if err := s.repo.CreateBadge(ctx, b); err != nil {
		return err
	}
	s.active.Clear()
	logger.FromContext(ctx).Info(LogMsgBadgeDefinitionSet, "badge_id", b.ID, "code", b.Code)
	return nil
}

func (s *service) UpdateBadge(ctx context.Context, b *domain.Badge) error {
	if b.ID <= 0 {
		return fmt.Errorf("%w: "+ErrMsgBadgeIDInvalid, domain.ErrInvalidInput, b.ID)
	}
	if err := s.prepare(ctx, b); err != nil {
		return err
	}
	if err := s.repo.UpdateBadge(ctx, b); err != nil {
		return err
	}
	s.active.Clear()
	logger.FromContext(ctx).Info(LogMsgBadgeDefinitionSet, "badge_id", b.ID, "code", b.Code)
	return nil
}

func (s *service) DeleteBadge(ctx context.Context, id int) error {
	deleted, err := s.repo.DeleteBadge(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete badge: %w", err)
	}
	if !deleted {
		return fmt.Errorf("%w: id %d", domain.ErrBadgeNotFound, id)
	}
	s.active.Clear()
	return nil
}

func (s *service) GetBadge(ctx context.Context, id int) (*domain.Badge, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: "+ErrMsgBadgeIDInvalid, domain.ErrInvalidInput, id)
	}
	b, err := s.repo.GetBadge(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get badge: %w", err)
	}
	if b == nil {
		return nil, fmt.Errorf("%w: id %d", domain.ErrBadgeNotFound, id)
	}
	return b, nil
}

func (s *service) ListBadges(ctx context.Context, activeOnly bool) ([]domain.Badge, error) {
	var (
		badges []domain.Badge
		err    error
	)
	if activeOnly {
		badges, err = s.activeBadges(ctx)
	} else {
		badges, err = s.repo.ListBadges(ctx, false)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list badges: %w", err)
	}
	out := make([]domain.Badge, len(badges))
	copy(out, badges)
	return out, nil
}
