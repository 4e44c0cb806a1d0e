package quest

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/osse101/LabRewards_Go/internal/cache"
	"github.com/osse101/LabRewards_Go/internal/concurrency"
	"github.com/osse101/LabRewards_Go/internal/domain"
	"github.com/osse101/LabRewards_Go/internal/event"
	"github.com/osse101/LabRewards_Go/internal/logger"
	"github.com/osse101/LabRewards_Go/internal/repository"
	"github.com/osse101/LabRewards_Go/internal/validation"
)

// ProgressionAwarder is the part of the award ledger quests depend on
type ProgressionAwarder interface {
	GetUserProgression(ctx context.Context, userID string) (*domain.UserProgression, error)
	AwardInTx(ctx context.Context, tx repository.EngineTx, req domain.AwardRequest) (*domain.AwardResult, error)
	PublishAwardEvents(ctx context.Context, req domain.AwardRequest, res *domain.AwardResult)
}

// WalletCrediter credits coins inside a transaction
type WalletCrediter interface {
	CreditInTx(ctx context.Context, tx repository.EngineTx, userID string, amount int64) (int64, error)
}

// InventoryAdder grants items inside a transaction
type InventoryAdder interface {
	AddInTx(ctx context.Context, tx repository.EngineTx, grant domain.InventoryGrant) error
}

type Service interface {
	// Progress tracking (called by the event handler)
	RecordActivity(ctx context.Context, activity domain.QuestActivity) ([]domain.Quest, error)
	RefreshEligibility(ctx context.Context, userID string) error

	GetUserQuests(ctx context.Context, userID string) ([]domain.UserQuestView, error)
	ClaimQuestReward(ctx context.Context, userID string, questID int) (*domain.ClaimResult, error)

	// Quest management
	CreateQuest(ctx context.Context, quest *domain.Quest) error
	UpdateQuest(ctx context.Context, quest *domain.Quest) error
	DeleteQuest(ctx context.Context, id int) error
	GetQuest(ctx context.Context, id int) (*domain.Quest, error)
	ListQuests(ctx context.Context, activeOnly bool) ([]domain.Quest, error)
}

type service struct {
	repo      repository.Quest
	awards    ProgressionAwarder
	wallet    WalletCrediter
	inventory InventoryAdder
	locks     *concurrency.LockManager
	publisher event.Publisher
	active    *cache.Cache[[]domain.Quest]
	now       func() time.Time
}

// NewService creates a quest service. locks must be the manager shared with
// the wallet and loot services so claims serialize with other wallet writers.
func NewService(
	repo repository.Quest,
	awards ProgressionAwarder,
	wallet WalletCrediter,
	inventory InventoryAdder,
	locks *concurrency.LockManager,
	publisher event.Publisher,
	cacheCfg cache.Config,
) Service {
	if locks == nil {
		locks = concurrency.NewLockManager()
	}
	return &service{
		repo:      repo,
		awards:    awards,
		wallet:    wallet,
		inventory: inventory,
		locks:     locks,
		publisher: publisher,
		active:    cache.New[[]domain.Quest](cacheCfg),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *service) activeQuests(ctx context.Context) ([]domain.Quest, error) {
	return s.active.GetOrLoad(ctx, cacheKeyActive, func(ctx context.Context) ([]domain.Quest, error) {
		return s.repo.ListQuests(ctx, true)
	})
}

// standing reads the user's level and tier. It must be called before a
// transaction is opened.
func (s *service) standing(ctx context.Context, userID string) (*domain.UserProgression, error) {
	prog, err := s.awards.GetUserProgression(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgProgressionRead, err)
	}
	return prog, nil
}

// RecordActivity adds counter deltas to every unlocked active quest the
// activity counts toward and returns the quests it completed
func (s *service) RecordActivity(ctx context.Context, activity domain.QuestActivity) ([]domain.Quest, error) {
	if activity.UserID == "" {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidInput, ErrMsgUserIDRequired)
	}
	for counter, delta := range activity.Deltas {
		if delta < 0 {
			return nil, fmt.Errorf("%w: "+ErrMsgNegativeDelta, domain.ErrInvalidInput, counter, delta)
		}
	}

	quests, err := s.activeQuests(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list quests: %w", err)
	}
	prog, err := s.standing(ctx, activity.UserID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if !activity.OccurredAt.IsZero() {
		now = activity.OccurredAt.UTC()
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgBeginTxFailed, err)
	}
	defer repository.SafeRollback(ctx, tx)

	if activity.SourceID != "" {
		fresh, err := tx.InsertActivitySource(ctx, activity.UserID, activity.SourceType, activity.SourceID)
		if err != nil {
			return nil, fmt.Errorf("failed to record activity source: %w", err)
		}
		if !fresh {
			logger.FromContext(ctx).Debug(LogMsgActivityDuplicate,
				"user_id", activity.UserID, "source_type", activity.SourceType, "source_id", activity.SourceID)
			return nil, nil
		}
	}

	var completed []domain.Quest
	for i := range quests {
		q := &quests[i]
		if !q.Matches(activity.ProjectID) || !q.UnlockedFor(prog.Level, prog.Tier) || !touches(q, activity.Deltas) {
			continue
		}

		state, err := tx.LockOrCreateQuestState(ctx, newState(activity.UserID, q, now, domain.QuestStatusEligible))
		if err != nil {
			return nil, fmt.Errorf("failed to load quest state: %w", err)
		}
		if !advance(q, state, activity.Deltas, now) {
			continue
		}
		if err := tx.UpdateQuestState(ctx, state); err != nil {
			return nil, fmt.Errorf("failed to update quest state: %w", err)
		}
		if state.Status == domain.QuestStatusCompleted {
			completed = append(completed, *q)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgCommitFailed, err)
	}

	for i := range completed {
		q := &completed[i]
		logger.FromContext(ctx).Info(LogMsgQuestCompleted, "user_id", activity.UserID, "quest", q.Code)
		if s.publisher != nil {
			s.publisher.PublishWithRetry(ctx, event.NewQuestCompletedEvent(activity.UserID, q, q.PeriodKey(now)))
		}
	}
	return completed, nil
}

// touches reports whether any of the quest's requirement counters moves
func touches(q *domain.Quest, deltas map[domain.QuestCounter]int64) bool {
	for _, req := range q.Requirements {
		if deltas[req.Counter()] > 0 {
			return true
		}
	}
	return false
}

func newState(userID string, q *domain.Quest, now time.Time, status domain.QuestStatus) *domain.UserQuestState {
	return &domain.UserQuestState{
		UserID:    userID,
		QuestID:   q.ID,
		PeriodKey: q.PeriodKey(now),
		Status:    status,
		Progress:  map[domain.QuestCounter]int64{},
		UpdatedAt: now,
	}
}

// advance applies deltas to an open state and moves it along
// ELIGIBLE -> IN_PROGRESS -> COMPLETED. It reports whether the state changed.
func advance(q *domain.Quest, state *domain.UserQuestState, deltas map[domain.QuestCounter]int64, now time.Time) bool {
	switch state.Status {
	case domain.QuestStatusCompleted, domain.QuestStatusClaimed:
		return false
	case domain.QuestStatusLocked:
		// The caller already checked the gates
		state.Status = domain.QuestStatusEligible
	}

	if state.Progress == nil {
		state.Progress = map[domain.QuestCounter]int64{}
	}
	for counter, delta := range deltas {
		if delta > 0 {
			state.Progress[counter] += delta
		}
	}

	if state.Status == domain.QuestStatusEligible {
		state.Status = domain.QuestStatusInProgress
		state.StartedAt = &now
	}
	if q.RequirementsMet(state.Progress) {
		state.Status = domain.QuestStatusCompleted
		state.CompletedAt = &now
	}
	state.UpdatedAt = now
	return true
}

// RefreshEligibility materializes the current period state of every active
// quest and opens LOCKED states the user's level and tier now allow
func (s *service) RefreshEligibility(ctx context.Context, userID string) error {
	if userID == "" {
		return fmt.Errorf("%w: %s", domain.ErrInvalidInput, ErrMsgUserIDRequired)
	}
	quests, err := s.activeQuests(ctx)
	if err != nil {
		return fmt.Errorf("failed to list quests: %w", err)
	}
	if len(quests) == 0 {
		return nil
	}
	prog, err := s.standing(ctx, userID)
	if err != nil {
		return err
	}
	now := s.now()

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgBeginTxFailed, err)
	}
	defer repository.SafeRollback(ctx, tx)

	opened := 0
	for i := range quests {
		q := &quests[i]
		unlocked := q.UnlockedFor(prog.Level, prog.Tier)
		status := domain.QuestStatusLocked
		if unlocked {
			status = domain.QuestStatusEligible
		}

		state, err := tx.LockOrCreateQuestState(ctx, newState(userID, q, now, status))
		if err != nil {
			return fmt.Errorf("failed to load quest state: %w", err)
		}
		if state.Status == domain.QuestStatusLocked && unlocked {
			state.Status = domain.QuestStatusEligible
			state.UpdatedAt = now
			if err := tx.UpdateQuestState(ctx, state); err != nil {
				return fmt.Errorf("failed to update quest state: %w", err)
			}
			opened++
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%s: %w", ErrMsgCommitFailed, err)
	}
	if opened > 0 {
		logger.FromContext(ctx).Info(LogMsgEligibilityUpdated, "user_id", userID, "opened", opened, "level", prog.Level)
	}
	return nil
}

// GetUserQuests lists every active quest with the caller's state. Quests
// without a stored state are reported as ELIGIBLE or LOCKED.
func (s *service) GetUserQuests(ctx context.Context, userID string) ([]domain.UserQuestView, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidInput, ErrMsgUserIDRequired)
	}
	quests, err := s.activeQuests(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list quests: %w", err)
	}
	prog, err := s.standing(ctx, userID)
	if err != nil {
		return nil, err
	}
	states, err := s.repo.GetUserQuestStates(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get quest states: %w", err)
	}
	now := s.now()

	views := make([]domain.UserQuestView, 0, len(quests))
	for _, q := range quests {
		view := domain.UserQuestView{
			Quest:     q,
			PeriodKey: q.PeriodKey(now),
			Status:    domain.QuestStatusLocked,
			Progress:  map[domain.QuestCounter]int64{},
		}
		if q.UnlockedFor(prog.Level, prog.Tier) {
			view.Status = domain.QuestStatusEligible
		}
		if st := displayState(states, &q, view.PeriodKey); st != nil {
			view.PeriodKey = st.PeriodKey
			view.Status = st.Status
			view.Progress = st.Progress
			view.CompletedAt = st.CompletedAt
			view.ClaimedAt = st.ClaimedAt
		}
		views = append(views, view)
	}
	return views, nil
}

// displayState picks the state shown for a quest: an unclaimed completion from
// an earlier period first, then the current period
func displayState(states []domain.UserQuestState, q *domain.Quest, period string) *domain.UserQuestState {
	if st := latestUnclaimed(states, q.ID, period); st != nil {
		return st
	}
	for i := range states {
		if states[i].QuestID == q.ID && states[i].PeriodKey == period {
			return &states[i]
		}
	}
	return nil
}

// latestUnclaimed returns the newest COMPLETED state of the quest. Period keys
// sort chronologically.
func latestUnclaimed(states []domain.UserQuestState, questID int, current string) *domain.UserQuestState {
	var candidates []*domain.UserQuestState
	for i := range states {
		st := &states[i]
		if st.QuestID == questID && st.Status == domain.QuestStatusCompleted && st.PeriodKey <= current {
			candidates = append(candidates, st)
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].PeriodKey > candidates[j].PeriodKey })
	return candidates[0]
}

// ClaimQuestReward grants the rewards of a completed quest exactly once
func (s *service) ClaimQuestReward(ctx context.Context, userID string, questID int) (*domain.ClaimResult, error) {
	log := logger.FromContext(ctx)
	if userID == "" {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidInput, ErrMsgUserIDRequired)
	}
	q, err := s.GetQuest(ctx, questID)
	if err != nil {
		return nil, err
	}
	prog, err := s.standing(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.now()

	period, err := s.claimPeriod(ctx, userID, q, now)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(concurrency.WalletKey(userID))
	defer unlock()

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgBeginTxFailed, err)
	}
	defer repository.SafeRollback(ctx, tx)

	state, err := tx.GetQuestStateForUpdate(ctx, userID, q.ID, period)
	if err != nil {
		return nil, fmt.Errorf("failed to load quest state: %w", err)
	}
	result := &domain.ClaimResult{QuestID: q.ID, PeriodKey: period}

	switch {
	case state == nil || state.Status == domain.QuestStatusLocked:
		if state == nil && q.UnlockedFor(prog.Level, prog.Tier) {
			return nil, fmt.Errorf("%w: quest %d", domain.ErrQuestNotCompleted, q.ID)
		}
		return nil, fmt.Errorf("%w: quest %d", domain.ErrQuestLocked, q.ID)
	case state.Status == domain.QuestStatusClaimed:
		result.AlreadyClaimed = true
		result.Progression = prog
		log.Info(LogMsgQuestAlreadyClaim, "user_id", userID, "quest_id", q.ID, "period", period)
		return result, nil
	case state.Status != domain.QuestStatusCompleted:
		return nil, fmt.Errorf("%w: quest %d is %s", domain.ErrQuestNotCompleted, q.ID, state.Status)
	}

	claimed, err := tx.ClaimQuestState(ctx, userID, q.ID, period, now)
	if err != nil {
		return nil, fmt.Errorf("failed to claim quest: %w", err)
	}
	if !claimed {
		result.AlreadyClaimed = true
		result.Progression = prog
		return result, nil
	}

	awardReq, awardRes, err := s.grantRewards(ctx, tx, userID, q, period, result)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgCommitFailed, err)
	}

	if awardRes != nil {
		s.awards.PublishAwardEvents(ctx, awardReq, awardRes)
		result.Progression = awardRes.Progression
	} else {
		result.Progression = prog
	}

	log.Info(LogMsgQuestClaimed,
		"user_id", userID,
		"quest", q.Code,
		"period", period,
		"points", result.PointsAwarded,
		"xp", result.XPAwarded,
		"currency", result.CurrencyAwarded,
		"items", len(result.Items))
	if s.publisher != nil {
		s.publisher.PublishWithRetry(ctx, event.NewQuestClaimedEvent(userID, result))
	}
	return result, nil
}

// claimPeriod picks the period a claim applies to: the current one unless an
// earlier period holds an unclaimed completion
func (s *service) claimPeriod(ctx context.Context, userID string, q *domain.Quest, now time.Time) (string, error) {
	current := q.PeriodKey(now)
	if q.QuestType == domain.QuestTypeOneTime {
		return current, nil
	}
	st, err := s.repo.GetQuestState(ctx, userID, q.ID, current)
	if err != nil {
		return "", fmt.Errorf("failed to load quest state: %w", err)
	}
	if st != nil && st.Status == domain.QuestStatusCompleted {
		return current, nil
	}

	states, err := s.repo.GetUserQuestStates(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("failed to get quest states: %w", err)
	}
	if prev := latestUnclaimed(states, q.ID, current); prev != nil {
		return prev.PeriodKey, nil
	}
	return current, nil
}

// grantRewards applies the quest rewards inside tx and fills in result. Rows
// are locked wallet first, then inventory, matching chest purchases.
func (s *service) grantRewards(ctx context.Context, tx repository.EngineTx, userID string, q *domain.Quest, period string, result *domain.ClaimResult) (domain.AwardRequest, *domain.AwardResult, error) {
	req := domain.AwardRequest{
		UserID:     userID,
		SourceType: domain.SourceQuestReward,
		SourceID:   domain.QuestRewardSourceID(q.ID, period),
	}
	var currency int64
	var items []domain.InventoryGrant
	for _, r := range q.Rewards {
		switch r.Kind {
		case domain.RewardPoints:
			req.Points += r.Amount
		case domain.RewardXP:
			req.XP += r.Amount
		case domain.RewardCurrency:
			currency += r.Amount
		case domain.RewardItem:
			items = append(items, domain.InventoryGrant{
				UserID:      userID,
				ItemKey:     r.ItemKey,
				ItemName:    r.ItemName,
				Rarity:      r.Rarity,
				Quantity:    r.Amount,
				AcquiredVia: AcquiredViaPrefix + q.Code,
			})
		}
	}

	if currency > 0 {
		if _, err := s.wallet.CreditInTx(ctx, tx, userID, currency); err != nil {
			return req, nil, fmt.Errorf("failed to credit quest currency: %w", err)
		}
		result.CurrencyAwarded = currency
	}

	for _, grant := range items {
		if err := s.inventory.AddInTx(ctx, tx, grant); err != nil {
			return req, nil, fmt.Errorf("failed to grant item %s: %w", grant.ItemKey, err)
		}
		result.Items = append(result.Items, grant)
	}

	if req.Points == 0 && req.XP == 0 {
		return req, nil, nil
	}
	res, err := s.awards.AwardInTx(ctx, tx, req)
	if err != nil {
		return req, nil, fmt.Errorf("failed to award quest reward: %w", err)
	}
	if !res.AlreadyAwarded {
		result.PointsAwarded = res.PointsAwarded
		result.XPAwarded = res.XPAwarded
	}
	return req, res, nil
}

func (s *service) prepare(q *domain.Quest) error {
	if q.Scope == "" {
		q.Scope = domain.QuestScopeGlobal
	}
	if q.Rewards == nil {
		q.Rewards = []domain.QuestReward{}
	}
	return validation.ValidateStruct(q)
}

func (s *service) CreateQuest(ctx context.Context, q *domain.Quest) error {
	if err := s.prepare(q); err != nil {
		return err
	}
	if err := s.repo.CreateQuest(ctx, q); err != nil {
		return err
	}
	s.active.Clear()
	logger.FromContext(ctx).Info(LogMsgQuestDefinitionSet, "quest_id", q.ID, "code", q.Code)
	return nil
}

func (s *service) UpdateQuest(ctx context.Context, q *domain.Quest) error {
	if q.ID <= 0 {
		return fmt.Errorf("%w: "+ErrMsgQuestIDInvalid, domain.ErrInvalidInput, q.ID)
	}
	if err := s.prepare(q); err != nil {
		return err
	}
	if err := s.repo.UpdateQuest(ctx, q); err != nil {
		return err
	}
	s.active.Clear()
	logger.FromContext(ctx).Info(LogMsgQuestDefinitionSet, "quest_id", q.ID, "code", q.Code)
	return nil
}

func (s *service) DeleteQuest(ctx context.Context, id int) error {
	deleted, err := s.repo.DeleteQuest(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete quest: %w", err)
	}
	if !deleted {
		return fmt.Errorf("%w: id %d", domain.ErrQuestNotFound, id)
	}
	s.active.Clear()
	return nil
}

func (s *service) GetQuest(ctx context.Context, id int) (*domain.Quest, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: "+ErrMsgQuestIDInvalid, domain.ErrInvalidInput, id)
	}
	q, err := s.repo.GetQuest(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get quest: %w", err)
	}
	if q == nil {
		return nil, fmt.Errorf("%w: id %d", domain.ErrQuestNotFound, id)
	}
	return q, nil
}

func (s *service) ListQuests(ctx context.Context, activeOnly bool) ([]domain.Quest, error) {
	var (
		quests []domain.Quest
		err    error
	)
	if activeOnly {
		quests, err = s.activeQuests(ctx)
	} else {
		quests, err = s.repo.ListQuests(ctx, false)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list quests: %w", err)
	}
	out := make([]domain.Quest, len(quests))
	copy(out, quests)
	return out, nil
}
