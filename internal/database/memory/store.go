// Package memory is a process-local implementation of every repository
// interface. Transactions take the store lock for their whole lifetime and
// restore a snapshot on rollback, so they are fully serialized.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/osse101/LabRewards_Go/internal/domain"
	"github.com/osse101/LabRewards_Go/internal/repository"
)

type awardKey struct {
	sourceType domain.SourceType
	sourceID   string
}

type activityKey struct {
	userID     string
	sourceType domain.SourceType
	sourceID   string
}

type questStateKey struct {
	userID    string
	questID   int
	periodKey string
}

type state struct {
	progression map[string]domain.ProgressionState
	awards      map[awardKey]domain.AwardRecord
	wallets     map[string]domain.Wallet
	inventory   map[string]map[string]domain.InventoryItem
	badges      map[int]domain.Badge
	userBadges  map[string]map[int]domain.UserBadge
	quests      map[int]domain.Quest
	questStates map[questStateKey]domain.UserQuestState
	activities  map[activityKey]struct{}
	chests      map[int]domain.ChestDefinition
	entries     map[int]domain.ChestDropEntry

	nextBadgeID int
	nextQuestID int
	nextChestID int
	nextEntryID int
}

func newState() *state {
	return &state{
		progression: make(map[string]domain.ProgressionState),
		awards:      make(map[awardKey]domain.AwardRecord),
		wallets:     make(map[string]domain.Wallet),
		inventory:   make(map[string]map[string]domain.InventoryItem),
		badges:      make(map[int]domain.Badge),
		userBadges:  make(map[string]map[int]domain.UserBadge),
		quests:      make(map[int]domain.Quest),
		questStates: make(map[questStateKey]domain.UserQuestState),
		activities:  make(map[activityKey]struct{}),
		chests:      make(map[int]domain.ChestDefinition),
		entries:     make(map[int]domain.ChestDropEntry),
		nextBadgeID: 1,
		nextQuestID: 1,
		nextChestID: 1,
		nextEntryID: 1,
	}
}

// clone copies every map. Stored values are replaced wholesale on write, so
// only quest progress maps need a deep copy.
func (s *state) clone() *state {
	c := &state{
		progression: make(map[string]domain.ProgressionState, len(s.progression)),
		awards:      make(map[awardKey]domain.AwardRecord, len(s.awards)),
		wallets:     make(map[string]domain.Wallet, len(s.wallets)),
		inventory:   make(map[string]map[string]domain.InventoryItem, len(s.inventory)),
		badges:      make(map[int]domain.Badge, len(s.badges)),
		userBadges:  make(map[string]map[int]domain.UserBadge, len(s.userBadges)),
		quests:      make(map[int]domain.Quest, len(s.quests)),
		questStates: make(map[questStateKey]domain.UserQuestState, len(s.questStates)),
		activities:  make(map[activityKey]struct{}, len(s.activities)),
		chests:      make(map[int]domain.ChestDefinition, len(s.chests)),
		entries:     make(map[int]domain.ChestDropEntry, len(s.entries)),
		nextBadgeID: s.nextBadgeID,
		nextQuestID: s.nextQuestID,
		nextChestID: s.nextChestID,
		nextEntryID: s.nextEntryID,
	}
	for k, v := range s.progression {
		c.progression[k] = v
	}
	for k, v := range s.awards {
		c.awards[k] = v
	}
	for k, v := range s.wallets {
		c.wallets[k] = v
	}
	for user, items := range s.inventory {
		m := make(map[string]domain.InventoryItem, len(items))
		for k, v := range items {
			m[k] = v
		}
		c.inventory[user] = m
	}
	for k, v := range s.badges {
		c.badges[k] = v
	}
	for user, held := range s.userBadges {
		m := make(map[int]domain.UserBadge, len(held))
		for k, v := range held {
			m[k] = v
		}
		c.userBadges[user] = m
	}
	for k, v := range s.quests {
		c.quests[k] = v
	}
	for k, v := range s.questStates {
		c.questStates[k] = copyQuestState(v)
	}
	for k := range s.activities {
		c.activities[k] = struct{}{}
	}
	for k, v := range s.chests {
		c.chests[k] = v
	}
	for k, v := range s.entries {
		c.entries[k] = v
	}
	return c
}

func copyQuestState(st domain.UserQuestState) domain.UserQuestState {
	progress := make(map[domain.QuestCounter]int64, len(st.Progress))
	for k, v := range st.Progress {
		progress[k] = v
	}
	st.Progress = progress
	return st
}

// Store holds all engine state in memory
type Store struct {
	mu  sync.Mutex
	st  *state
	now func() time.Time
}

// New creates an empty Store
func New() *Store {
	return &Store{st: newState(), now: func() time.Time { return time.Now().UTC() }}
}

// Reset clears all state
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st = newState()
}

// BeginTx locks the store until the transaction commits or rolls back
func (s *Store) BeginTx(ctx context.Context) (repository.EngineTx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	return &memTx{store: s, snapshot: s.st.clone()}, nil
}

// --- award ledger ---

func (s *Store) GetProgression(_ context.Context, userID string) (*domain.ProgressionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.st.progression[userID]
	if !ok {
		return nil, nil
	}
	return &st, nil
}

func (s *Store) GetAwardRecord(_ context.Context, sourceType domain.SourceType, sourceID string) (*domain.AwardRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.st.awards[awardKey{sourceType, sourceID}]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (s *Store) GetActivityTotals(_ context.Context, userID string, since time.Time) (*repository.ActivityTotals, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var totals repository.ActivityTotals
	projects := make(map[string]struct{})
	for _, rec := range s.st.awards {
		if rec.UserID != userID {
			continue
		}
		switch rec.SourceType {
		case domain.SourceTaskCompleted:
			totals.CompletedTasks++
		case domain.SourceWorkSessionCompleted:
			totals.WorkSessions++
			if !rec.CreatedAt.Before(since) {
				totals.WorkSecondsSince += rec.DurationSeconds
			}
		}
		if rec.ProjectID != "" {
			projects[rec.ProjectID] = struct{}{}
		}
	}
	totals.Projects = int64(len(projects))
	return &totals, nil
}

func (s *Store) GetActivityDays(_ context.Context, userID string, since time.Time) ([]time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[time.Time]struct{})
	for _, rec := range s.st.awards {
		if rec.UserID != userID || rec.CreatedAt.Before(since) {
			continue
		}
		t := rec.CreatedAt.UTC()
		seen[time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)] = struct{}{}
	}
	days := make([]time.Time, 0, len(seen))
	for d := range seen {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].After(days[j]) })
	return days, nil
}

func (s *Store) ListRecentlyActiveUsers(_ context.Context, since time.Time) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]struct{})
	for _, rec := range s.st.awards {
		if !rec.CreatedAt.Before(since) {
			seen[rec.UserID] = struct{}{}
		}
	}
	users := make([]string, 0, len(seen))
	for u := range seen {
		users = append(users, u)
	}
	sort.Strings(users)
	return users, nil
}

// --- badges ---

func (s *Store) ListBadges(_ context.Context, activeOnly bool) ([]domain.Badge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.Badge
	for _, b := range s.st.badges {
		if activeOnly && !b.Active {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) GetBadge(_ context.Context, id int) (*domain.Badge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.st.badges[id]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (s *Store) badgeCodeTaken(code string, exceptID int) bool {
	for id, b := range s.st.badges {
		if id != exceptID && b.Code == code {
			return true
		}
	}
	return false
}

func (s *Store) CreateBadge(_ context.Context, badge *domain.Badge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.badgeCodeTaken(badge.Code, 0) {
		return errDuplicateCode("badge", badge.Code)
	}
	now := s.now()
	badge.ID = s.st.nextBadgeID
	s.st.nextBadgeID++
	badge.CreatedAt, badge.UpdatedAt = now, now
	if badge.Criteria == nil {
		badge.Criteria = []domain.BadgeCriterion{}
	}
	s.st.badges[badge.ID] = *badge
	return nil
}

func (s *Store) UpdateBadge(_ context.Context, badge *domain.Badge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.st.badges[badge.ID]
	if !ok {
		return notFound(domain.ErrBadgeNotFound, badge.ID)
	}
	if s.badgeCodeTaken(badge.Code, badge.ID) {
		return errDuplicateCode("badge", badge.Code)
	}
	badge.CreatedAt = existing.CreatedAt
	badge.UpdatedAt = s.now()
	if badge.Criteria == nil {
		badge.Criteria = []domain.BadgeCriterion{}
	}
	s.st.badges[badge.ID] = *badge
	return nil
}

func (s *Store) DeleteBadge(_ context.Context, id int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.st.badges[id]; !ok {
		return false, nil
	}
	delete(s.st.badges, id)
	for _, held := range s.st.userBadges {
		delete(held, id)
	}
	return true, nil
}

func (s *Store) GetUserBadges(_ context.Context, userID string) ([]domain.UserBadgeView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var views []domain.UserBadgeView
	for badgeID, ub := range s.st.userBadges[userID] {
		b, ok := s.st.badges[badgeID]
		if !ok {
			continue
		}
		views = append(views, domain.UserBadgeView{Badge: b, AwardedAt: ub.AwardedAt, AwardedBy: ub.AwardedBy})
	}
	sort.Slice(views, func(i, j int) bool {
		if !views[i].AwardedAt.Equal(views[j].AwardedAt) {
			return views[i].AwardedAt.Before(views[j].AwardedAt)
		}
		return views[i].Badge.ID < views[j].Badge.ID
	})
	return views, nil
}

func (s *Store) InsertUserBadge(_ context.Context, ub *domain.UserBadge) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.st.badges[ub.BadgeID]; !ok {
		return false, notFound(domain.ErrBadgeNotFound, ub.BadgeID)
	}
	held := s.st.userBadges[ub.UserID]
	if held == nil {
		held = make(map[int]domain.UserBadge)
		s.st.userBadges[ub.UserID] = held
	}
	if _, ok := held[ub.BadgeID]; ok {
		return false, nil
	}
	if ub.AwardedAt.IsZero() {
		ub.AwardedAt = s.now()
	}
	held[ub.BadgeID] = *ub
	return true, nil
}

func (s *Store) DeleteUserBadge(_ context.Context, userID string, badgeID int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	held := s.st.userBadges[userID]
	if _, ok := held[badgeID]; !ok {
		return false, nil
	}
	delete(held, badgeID)
	return true, nil
}

// --- quests ---

func (s *Store) ListQuests(_ context.Context, activeOnly bool) ([]domain.Quest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.Quest
	for _, q := range s.st.quests {
		if activeOnly && !q.Active {
			continue
		}
		out = append(out, q)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) GetQuest(_ context.Context, id int) (*domain.Quest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.st.quests[id]
	if !ok {
		return nil, nil
	}
	return &q, nil
}

func (s *Store) questCodeTaken(code string, exceptID int) bool {
	for id, q := range s.st.quests {
		if id != exceptID && q.Code == code {
			return true
		}
	}
	return false
}

func (s *Store) CreateQuest(_ context.Context, quest *domain.Quest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.questCodeTaken(quest.Code, 0) {
		return errDuplicateCode("quest", quest.Code)
	}
	now := s.now()
	quest.ID = s.st.nextQuestID
	s.st.nextQuestID++
	quest.CreatedAt, quest.UpdatedAt = now, now
	s.st.quests[quest.ID] = *quest
	return nil
}

func (s *Store) UpdateQuest(_ context.Context, quest *domain.Quest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.st.quests[quest.ID]
	if !ok {
		return notFound(domain.ErrQuestNotFound, quest.ID)
	}
	if s.questCodeTaken(quest.Code, quest.ID) {
		return errDuplicateCode("quest", quest.Code)
	}
	quest.CreatedAt = existing.CreatedAt
	quest.UpdatedAt = s.now()
	s.st.quests[quest.ID] = *quest
	return nil
}

func (s *Store) DeleteQuest(_ context.Context, id int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.st.quests[id]; !ok {
		return false, nil
	}
	delete(s.st.quests, id)
	for k := range s.st.questStates {
		if k.questID == id {
			delete(s.st.questStates, k)
		}
	}
	return true, nil
}

func (s *Store) GetUserQuestStates(_ context.Context, userID string) ([]domain.UserQuestState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.UserQuestState
	for k, st := range s.st.questStates {
		if k.userID == userID {
			out = append(out, copyQuestState(st))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].QuestID != out[j].QuestID {
			return out[i].QuestID < out[j].QuestID
		}
		return out[i].PeriodKey < out[j].PeriodKey
	})
	return out, nil
}

func (s *Store) GetQuestState(_ context.Context, userID string, questID int, periodKey string) (*domain.UserQuestState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.st.questStates[questStateKey{userID, questID, periodKey}]
	if !ok {
		return nil, nil
	}
	st = copyQuestState(st)
	return &st, nil
}

// --- wallet and inventory ---

func (s *Store) GetBalance(_ context.Context, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.wallets[userID].Balance, nil
}

func (s *Store) GetInventory(_ context.Context, userID string) ([]domain.InventoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var items []domain.InventoryItem
	for _, it := range s.st.inventory[userID] {
		if it.Quantity > 0 {
			items = append(items, it)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ItemKey < items[j].ItemKey })
	return items, nil
}

// --- loot ---

func (s *Store) ListChests(_ context.Context, activeOnly bool) ([]domain.ChestDefinition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.ChestDefinition
	for _, c := range s.st.chests {
		if activeOnly && !c.Active {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) GetChest(_ context.Context, id int) (*domain.ChestDefinition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.st.chests[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (s *Store) CreateChest(_ context.Context, chest *domain.ChestDefinition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	chest.ID = s.st.nextChestID
	s.st.nextChestID++
	chest.CreatedAt, chest.UpdatedAt = now, now
	s.st.chests[chest.ID] = *chest
	return nil
}

func (s *Store) UpdateChest(_ context.Context, chest *domain.ChestDefinition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.st.chests[chest.ID]
	if !ok {
		return notFound(domain.ErrChestNotFound, chest.ID)
	}
	chest.CreatedAt = existing.CreatedAt
	chest.UpdatedAt = s.now()
	s.st.chests[chest.ID] = *chest
	return nil
}

func (s *Store) DeleteChest(_ context.Context, id int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.st.chests[id]; !ok {
		return false, nil
	}
	delete(s.st.chests, id)
	for entryID, e := range s.st.entries {
		if e.ChestID == id {
			delete(s.st.entries, entryID)
		}
	}
	return true, nil
}

func (s *Store) ListDropEntries(_ context.Context, chestID int) ([]domain.ChestDropEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.ChestDropEntry
	for _, e := range s.st.entries {
		if e.ChestID == chestID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) GetDropEntry(_ context.Context, id int) (*domain.ChestDropEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.st.entries[id]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (s *Store) CreateDropEntry(_ context.Context, entry *domain.ChestDropEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.st.chests[entry.ChestID]; !ok {
		return notFound(domain.ErrChestNotFound, entry.ChestID)
	}
	now := s.now()
	entry.ID = s.st.nextEntryID
	s.st.nextEntryID++
	entry.CreatedAt, entry.UpdatedAt = now, now
	s.st.entries[entry.ID] = *entry
	return nil
}

func (s *Store) UpdateDropEntry(_ context.Context, entry *domain.ChestDropEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.st.entries[entry.ID]
	if !ok || existing.ChestID != entry.ChestID {
		return notFound(domain.ErrDropEntryNotFound, entry.ID)
	}
	entry.CreatedAt = existing.CreatedAt
	entry.UpdatedAt = s.now()
	s.st.entries[entry.ID] = *entry
	return nil
}

func (s *Store) DeleteDropEntry(_ context.Context, chestID, id int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.st.entries[id]; !ok || e.ChestID != chestID {
		return false, nil
	}
	delete(s.st.entries, id)
	return true, nil
}

// --- transaction ---

// memTx mutates the live state while holding the store lock
type memTx struct {
	store    *Store
	snapshot *state
	done     bool
}

var errTxClosed = errors.New(domain.ErrMsgTxClosed)

func (t *memTx) Commit(_ context.Context) error {
	if t.done {
		return errTxClosed
	}
	t.done = true
	t.store.mu.Unlock()
	return nil
}

func (t *memTx) Rollback(_ context.Context) error {
	if t.done {
		return errTxClosed
	}
	t.done = true
	t.store.st = t.snapshot
	t.store.mu.Unlock()
	return nil
}

func (t *memTx) live() (*state, error) {
	if t.done {
		return nil, errTxClosed
	}
	return t.store.st, nil
}

func (t *memTx) InsertAwardRecord(_ context.Context, rec *domain.AwardRecord) (bool, error) {
	st, err := t.live()
	if err != nil {
		return false, err
	}
	key := awardKey{rec.SourceType, rec.SourceID}
	if _, ok := st.awards[key]; ok {
		return false, nil
	}
	st.awards[key] = *rec
	return true, nil
}

func (t *memTx) GetProgressionForUpdate(_ context.Context, userID string) (*domain.ProgressionState, error) {
	st, err := t.live()
	if err != nil {
		return nil, err
	}
	p, ok := st.progression[userID]
	if !ok {
		p = domain.ProgressionState{UserID: userID, Level: 1, Tier: domain.TierBronze, UpdatedAt: t.store.now()}
		st.progression[userID] = p
	}
	return &p, nil
}

func (t *memTx) UpdateProgression(_ context.Context, p *domain.ProgressionState) error {
	st, err := t.live()
	if err != nil {
		return err
	}
	if p.Points < 0 || p.XP < 0 {
		return errors.New("progression totals must be non-negative")
	}
	st.progression[p.UserID] = *p
	return nil
}

func (t *memTx) GetBalanceForUpdate(_ context.Context, userID string) (int64, error) {
	st, err := t.live()
	if err != nil {
		return 0, err
	}
	w, ok := st.wallets[userID]
	if !ok {
		w = domain.Wallet{UserID: userID, UpdatedAt: t.store.now()}
		st.wallets[userID] = w
	}
	return w.Balance, nil
}

func (t *memTx) UpdateBalance(_ context.Context, userID string, balance int64) error {
	st, err := t.live()
	if err != nil {
		return err
	}
	if balance < 0 {
		return errors.New("wallet balance must be non-negative")
	}
	st.wallets[userID] = domain.Wallet{UserID: userID, Balance: balance, UpdatedAt: t.store.now()}
	return nil
}

func (t *memTx) AddInventoryItem(_ context.Context, grant domain.InventoryGrant) error {
	st, err := t.live()
	if err != nil {
		return err
	}
	items := st.inventory[grant.UserID]
	if items == nil {
		items = make(map[string]domain.InventoryItem)
		st.inventory[grant.UserID] = items
	}
	it, ok := items[grant.ItemKey]
	if !ok {
		it = domain.InventoryItem{
			UserID:      grant.UserID,
			ItemKey:     grant.ItemKey,
			ItemName:    grant.ItemName,
			Rarity:      grant.Rarity,
			AcquiredVia: grant.AcquiredVia,
		}
	}
	it.Quantity += grant.Quantity
	it.UpdatedAt = t.store.now()
	items[grant.ItemKey] = it
	return nil
}

func (t *memTx) GetQuestStateForUpdate(_ context.Context, userID string, questID int, periodKey string) (*domain.UserQuestState, error) {
	st, err := t.live()
	if err != nil {
		return nil, err
	}
	qs, ok := st.questStates[questStateKey{userID, questID, periodKey}]
	if !ok {
		return nil, nil
	}
	qs = copyQuestState(qs)
	return &qs, nil
}

func (t *memTx) InsertActivitySource(_ context.Context, userID string, sourceType domain.SourceType, sourceID string) (bool, error) {
	st, err := t.live()
	if err != nil {
		return false, err
	}
	key := activityKey{userID, sourceType, sourceID}
	if _, ok := st.activities[key]; ok {
		return false, nil
	}
	st.activities[key] = struct{}{}
	return true, nil
}

func (t *memTx) LockOrCreateQuestState(_ context.Context, seed *domain.UserQuestState) (*domain.UserQuestState, error) {
	st, err := t.live()
	if err != nil {
		return nil, err
	}
	key := questStateKey{seed.UserID, seed.QuestID, seed.PeriodKey}
	if _, ok := st.quests[seed.QuestID]; !ok {
		return nil, notFound(domain.ErrQuestNotFound, seed.QuestID)
	}
	qs, ok := st.questStates[key]
	if !ok {
		qs = copyQuestState(*seed)
		st.questStates[key] = qs
	}
	qs = copyQuestState(qs)
	return &qs, nil
}

func (t *memTx) UpdateQuestState(_ context.Context, qs *domain.UserQuestState) error {
	st, err := t.live()
	if err != nil {
		return err
	}
	key := questStateKey{qs.UserID, qs.QuestID, qs.PeriodKey}
	if _, ok := st.questStates[key]; ok {
		st.questStates[key] = copyQuestState(*qs)
	}
	return nil
}

func (t *memTx) ClaimQuestState(_ context.Context, userID string, questID int, periodKey string, claimedAt time.Time) (bool, error) {
	st, err := t.live()
	if err != nil {
		return false, err
	}
	key := questStateKey{userID, questID, periodKey}
	qs, ok := st.questStates[key]
	if !ok || qs.Status != domain.QuestStatusCompleted {
		return false, nil
	}
	qs.Status = domain.QuestStatusClaimed
	qs.ClaimedAt = &claimedAt
	qs.UpdatedAt = claimedAt
	st.questStates[key] = qs
	return true, nil
}

func notFound(sentinel error, id int) error {
	return fmt.Errorf("%w: id %d", sentinel, id)
}

func errDuplicateCode(kind, code string) error {
	return fmt.Errorf("%w: %s code %q already exists", domain.ErrInvalidInput, kind, code)
}
