package award

import (
	"context"
	"fmt"
	"time"

	"github.com/osse101/LabRewards_Go/internal/domain"
	"github.com/osse101/LabRewards_Go/internal/event"
	"github.com/osse101/LabRewards_Go/internal/leveling"
	"github.com/osse101/LabRewards_Go/internal/logger"
	"github.com/osse101/LabRewards_Go/internal/repository"
)

// Service is the award ledger. Every credit of points and xp goes through it
// and is recorded exactly once per (source type, source id).
type Service interface {
	AwardFromSource(ctx context.Context, req domain.AwardRequest) (*domain.AwardResult, error)
	// AwardInTx applies an award inside a caller-owned transaction. The caller
	// commits, then calls PublishAwardEvents.
	AwardInTx(ctx context.Context, tx repository.EngineTx, req domain.AwardRequest) (*domain.AwardResult, error)
	AwardFromWorkSession(ctx context.Context, ws domain.WorkSessionAward) (*domain.AwardResult, error)
	AwardFromTaskCompletion(ctx context.Context, tc domain.TaskCompletionAward) (*domain.AwardResult, error)
	AdjustManually(ctx context.Context, userID, adjustmentID string, points, xp int64) (*domain.AwardResult, error)

	GetUserProgression(ctx context.Context, userID string) (*domain.UserProgression, error)
	GetActivityStats(ctx context.Context, userID string) (*domain.ActivityStats, error)

	// PublishAwardEvents emits the events for a committed award
	PublishAwardEvents(ctx context.Context, req domain.AwardRequest, res *domain.AwardResult)
	Curve() *leveling.Curve
}

type service struct {
	repo      repository.Award
	curve     *leveling.Curve
	formula   Formula
	publisher event.Publisher
	now       func() time.Time
}

// NewService creates an award service. publisher may be nil.
func NewService(repo repository.Award, curve *leveling.Curve, formula Formula, publisher event.Publisher) Service {
	if curve == nil {
		curve = leveling.DefaultCurve()
	}
	return &service{
		repo:      repo,
		curve:     curve,
		formula:   formula,
		publisher: publisher,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *service) Curve() *leveling.Curve {
	return s.curve
}

func validateRequest(req domain.AwardRequest) error {
	if req.UserID == "" {
		return fmt.Errorf("%w: %s", domain.ErrInvalidInput, ErrMsgUserIDRequired)
	}
	if req.SourceID == "" {
		return fmt.Errorf("%w: %s", domain.ErrInvalidInput, ErrMsgSourceIDRequired)
	}
	if !req.SourceType.IsValid() {
		return fmt.Errorf("%w: "+ErrMsgUnknownSource, domain.ErrInvalidInput, req.SourceType)
	}
	if req.Points < 0 || req.XP < 0 {
		return fmt.Errorf("%w: "+ErrMsgNegativeDelta, domain.ErrInvalidInput, req.Points, req.XP)
	}
	return nil
}

// AwardFromSource records the award and updates progression in one transaction
func (s *service) AwardFromSource(ctx context.Context, req domain.AwardRequest) (*domain.AwardResult, error) {
	log := logger.FromContext(ctx)
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgBeginTxFailed, err)
	}
	defer repository.SafeRollback(ctx, tx)

	res, err := s.AwardInTx(ctx, tx, req)
	if err != nil {
		return nil, err
	}
	if res.AlreadyAwarded {
		// Nothing was written that needs keeping
		log.Debug(LogMsgAlreadyAwarded, "source_type", req.SourceType, "source_id", req.SourceID)
		return res, nil
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgCommitFailed, err)
	}

	log.Info(LogMsgAwardApplied,
		"user_id", req.UserID,
		"source_type", req.SourceType,
		"source_id", req.SourceID,
		"points", res.PointsAwarded,
		"xp", res.XPAwarded,
		"level", res.Progression.Level)
	s.PublishAwardEvents(ctx, req, res)
	return res, nil
}

func (s *service) AwardInTx(ctx context.Context, tx repository.EngineTx, req domain.AwardRequest) (*domain.AwardResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	now := s.now()
	inserted, err := tx.InsertAwardRecord(ctx, &domain.AwardRecord{
		SourceType:      req.SourceType,
		SourceID:        req.SourceID,
		UserID:          req.UserID,
		Points:          req.Points,
		XP:              req.XP,
		DurationSeconds: req.DurationSeconds,
		TaskCount:       req.TaskCount,
		ProjectID:       req.ProjectID,
		CreatedAt:       now,
	})
	if err != nil {
		return nil, err
	}

	state, err := tx.GetProgressionForUpdate(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	prev, err := s.curve.Snapshot(req.UserID, state.Points, state.XP)
	if err != nil {
		return nil, err
	}
	prev.UpdatedAt = state.UpdatedAt

	if !inserted {
		return &domain.AwardResult{
			AlreadyAwarded: true,
			PreviousLevel:  prev.Level,
			PreviousTier:   prev.Tier,
			Progression:    prev,
		}, nil
	}

	next, err := s.curve.Snapshot(req.UserID, state.Points+req.Points, state.XP+req.XP)
	if err != nil {
		return nil, err
	}
	next.UpdatedAt = now

	if err := tx.UpdateProgression(ctx, &domain.ProgressionState{
		UserID:    req.UserID,
		Points:    next.Points,
		XP:        next.XP,
		Level:     next.Level,
		Tier:      next.Tier,
		UpdatedAt: now,
	}); err != nil {
		return nil, err
	}

	return &domain.AwardResult{
		PointsAwarded: req.Points,
		XPAwarded:     req.XP,
		LeveledUp:     next.Level > prev.Level,
		TierChanged:   next.Tier != prev.Tier,
		PreviousLevel: prev.Level,
		PreviousTier:  prev.Tier,
		Progression:   next,
	}, nil
}

func (s *service) PublishAwardEvents(ctx context.Context, req domain.AwardRequest, res *domain.AwardResult) {
	if res == nil || res.AlreadyAwarded {
		return
	}

	if res.LeveledUp || res.TierChanged {
		logger.FromContext(ctx).Info(LogMsgLevelUp,
			"user_id", req.UserID,
			"old_level", res.PreviousLevel,
			"new_level", res.Progression.Level,
			"old_tier", res.PreviousTier,
			"new_tier", res.Progression.Tier)
	}

	if s.publisher == nil {
		return
	}
	s.publisher.PublishWithRetry(ctx, event.NewProgressionAwardedEvent(req, res.Progression.Level, res.Progression.Tier))
	if res.LeveledUp || res.TierChanged {
		s.publisher.PublishWithRetry(ctx, event.NewLevelUpEvent(req.UserID,
			res.PreviousLevel, res.Progression.Level, res.PreviousTier, res.Progression.Tier))
	}
}

// AwardFromWorkSession prices a finished work session and awards it
func (s *service) AwardFromWorkSession(ctx context.Context, ws domain.WorkSessionAward) (*domain.AwardResult, error) {
	if ws.DurationSeconds != nil && *ws.DurationSeconds < 0 {
		return nil, fmt.Errorf("%w: duration must be non-negative", domain.ErrInvalidInput)
	}
	tasks := countDistinct(ws.CompletedTaskIDs)
	points, xp := s.formula.WorkSession(ws.DurationSeconds, tasks)

	var duration int64
	if ws.DurationSeconds != nil {
		duration = *ws.DurationSeconds
	}
	return s.AwardFromSource(ctx, domain.AwardRequest{
		UserID:          ws.UserID,
		SourceType:      domain.SourceWorkSessionCompleted,
		SourceID:        ws.WorkSessionID,
		Points:          points,
		XP:              xp,
		DurationSeconds: duration,
		TaskCount:       tasks,
		ProjectID:       ws.ProjectID,
	})
}

// AwardFromTaskCompletion prices a completed task and awards it
func (s *service) AwardFromTaskCompletion(ctx context.Context, tc domain.TaskCompletionAward) (*domain.AwardResult, error) {
	if tc.TaskPoints != nil && *tc.TaskPoints < 0 {
		return nil, fmt.Errorf("%w: task points must be non-negative", domain.ErrInvalidInput)
	}
	points, xp := s.formula.Task(tc.TaskPoints)
	return s.AwardFromSource(ctx, domain.AwardRequest{
		UserID:     tc.UserID,
		SourceType: domain.SourceTaskCompleted,
		SourceID:   tc.TaskID,
		Points:     points,
		XP:         xp,
		TaskCount:  1,
		ProjectID:  tc.ProjectID,
	})
}

// AdjustManually credits an operator adjustment keyed by adjustmentID
func (s *service) AdjustManually(ctx context.Context, userID, adjustmentID string, points, xp int64) (*domain.AwardResult, error) {
	return s.AwardFromSource(ctx, domain.AwardRequest{
		UserID:     userID,
		SourceType: domain.SourceManualAdjustment,
		SourceID:   adjustmentID,
		Points:     points,
		XP:         xp,
	})
}

// GetUserProgression returns the progression read model. Unknown users are
// reported at level 1 with no points.
func (s *service) GetUserProgression(ctx context.Context, userID string) (*domain.UserProgression, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidInput, ErrMsgUserIDRequired)
	}
	state, err := s.repo.GetProgression(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get progression: %w", err)
	}
	if state == nil {
		return s.curve.Snapshot(userID, 0, 0)
	}
	snap, err := s.curve.Snapshot(userID, state.Points, state.XP)
	if err != nil {
		return nil, err
	}
	snap.UpdatedAt = state.UpdatedAt
	return snap, nil
}

// GetActivityStats materializes the badge stat snapshot from the award ledger
func (s *service) GetActivityStats(ctx context.Context, userID string) (*domain.ActivityStats, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidInput, ErrMsgUserIDRequired)
	}
	now := s.now()

	state, err := s.repo.GetProgression(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get progression: %w", err)
	}
	totals, err := s.repo.GetActivityTotals(ctx, userID, now.Add(-WeeklyHoursWindow))
	if err != nil {
		return nil, fmt.Errorf("failed to get activity totals: %w", err)
	}
	days, err := s.repo.GetActivityDays(ctx, userID, now.Add(-StreakLookback))
	if err != nil {
		return nil, fmt.Errorf("failed to get activity days: %w", err)
	}

	stats := &domain.ActivityStats{
		UserID:          userID,
		CompletedTasks:  totals.CompletedTasks,
		Projects:        totals.Projects,
		WorkSessions:    totals.WorkSessions,
		WeeklyHours:     float64(totals.WorkSecondsSince) / 3600,
		ConsecutiveDays: ConsecutiveDays(days, now),
	}
	if state != nil {
		stats.Points = state.Points
	}
	return stats, nil
}

// ConsecutiveDays counts the streak of consecutive UTC days ending at the most
// recent activity day. days must be distinct and sorted newest first. A streak
// whose last day is before yesterday is broken and counts 0.
func ConsecutiveDays(days []time.Time, now time.Time) int {
	if len(days) == 0 {
		return 0
	}
	today := truncateDay(now)
	latest := truncateDay(days[0])
	if today.Sub(latest) > 24*time.Hour {
		return 0
	}

	streak := 1
	for i := 1; i < len(days); i++ {
		if latest.Sub(truncateDay(days[i])) != 24*time.Hour {
			break
		}
		latest = truncateDay(days[i])
		streak++
	}
	return streak
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func countDistinct(ids []string) int {
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id != "" {
			seen[id] = struct{}{}
		}
	}
	return len(seen)
}
