package catalog

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/osse101/LabRewards_Go/internal/domain"
	"github.com/osse101/LabRewards_Go/internal/logger"
	"github.com/osse101/LabRewards_Go/internal/validation"
)

// ErrInvalidConfig is returned for catalogs that pass the schema but are inconsistent
var ErrInvalidConfig = errors.New("invalid catalog")

// Config is the JSON catalog of badge, quest and chest definitions
type Config struct {
	Version     string `json:"version"`
	Description string `json:"description"`

	Badges []domain.Badge `json:"badges"`
	Quests []domain.Quest `json:"quests"`
	Chests []ChestDef     `json:"chests"`
}

// ChestDef is a chest with its drop table
type ChestDef struct {
	domain.ChestDefinition
	Entries []domain.ChestDropEntry `json:"entries"`
}

// BadgeStore is the badge administration surface the loader writes through
type BadgeStore interface {
	ListBadges(ctx context.Context, activeOnly bool) ([]domain.Badge, error)
	CreateBadge(ctx context.Context, badge *domain.Badge) error
	UpdateBadge(ctx context.Context, badge *domain.Badge) error
}

// QuestStore is the quest administration surface the loader writes through
type QuestStore interface {
	ListQuests(ctx context.Context, activeOnly bool) ([]domain.Quest, error)
	CreateQuest(ctx context.Context, quest *domain.Quest) error
	UpdateQuest(ctx context.Context, quest *domain.Quest) error
}

// ChestStore is the chest administration surface the loader writes through
type ChestStore interface {
	ListChests(ctx context.Context, activeOnly bool) ([]domain.ChestDefinition, error)
	GetChest(ctx context.Context, id int) (*domain.ChestWithEntries, error)
	CreateChest(ctx context.Context, chest *domain.ChestDefinition) error
	UpdateChest(ctx context.Context, chest *domain.ChestDefinition) error
	CreateDropEntry(ctx context.Context, entry *domain.ChestDropEntry) error
	UpdateDropEntry(ctx context.Context, entry *domain.ChestDropEntry) error
}

// Stores groups the write targets of a sync
type Stores struct {
	Badges BadgeStore
	Quests QuestStore
	Chests ChestStore
}

// SyncResult counts what a sync changed
type SyncResult struct {
	Inserted int
	Updated  int
	Skipped  int
}

// Changed reports whether the sync wrote anything
func (r *SyncResult) Changed() bool {
	return r.Inserted > 0 || r.Updated > 0
}

// Loader handles loading, validating and syncing the definitions catalog
type Loader interface {
	Load(path string) (*Config, error)
	Validate(config *Config) error
	Sync(ctx context.Context, config *Config, stores Stores) (*SyncResult, error)
}

type loader struct {
	schemaValidator validation.SchemaValidator
}

// NewLoader creates a new Loader instance
func NewLoader() Loader {
	return &loader{
		schemaValidator: validation.NewSchemaValidator(),
	}
}

// Load reads a catalog file, checks it against the schema and parses it
func (l *loader) Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf(ErrMsgReadFileFailed, err)
	}

	if err := l.schemaValidator.ValidateBytes(data, validation.DefinitionsSchema); err != nil {
		return nil, fmt.Errorf("schema validation failed for %s: %w", path, err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf(ErrMsgParseFailed, err)
	}
	var flags activeFlags
	if err := json.Unmarshal(data, &flags); err != nil {
		return nil, fmt.Errorf(ErrMsgParseFailed, err)
	}
	applyDefaults(&config, &flags)
	return &config, nil
}

// activeFlags captures which definitions set "active" explicitly
type activeFlags struct {
	Badges []struct {
		Active *bool `json:"active"`
	} `json:"badges"`
	Quests []struct {
		Active *bool `json:"active"`
	} `json:"quests"`
	Chests []struct {
		Active  *bool `json:"active"`
		Entries []struct {
			Active *bool `json:"active"`
		} `json:"entries"`
	} `json:"chests"`
}

func orTrue(b *bool) bool {
	return b == nil || *b
}

// applyDefaults fills the fields the schema leaves optional. Definitions are
// active unless they set "active": false.
func applyDefaults(config *Config, flags *activeFlags) {
	for i := range config.Badges {
		b := &config.Badges[i]
		b.Active = orTrue(flags.Badges[i].Active)
		if b.Category == "" {
			b.Category = domain.BadgeCategoryAchievement
		}
		if b.Criteria == nil {
			b.Criteria = []domain.BadgeCriterion{}
		}
	}
	for i := range config.Quests {
		q := &config.Quests[i]
		q.Active = orTrue(flags.Quests[i].Active)
		if q.Scope == "" {
			q.Scope = domain.QuestScopeGlobal
		}
		if q.Rewards == nil {
			q.Rewards = []domain.QuestReward{}
		}
	}
	for i := range config.Chests {
		c := &config.Chests[i]
		c.Active = orTrue(flags.Chests[i].Active)
		if c.MinDrops == 0 {
			c.MinDrops = 1
		}
		if c.MaxDrops < c.MinDrops {
			c.MaxDrops = c.MinDrops
		}
		for j := range c.Entries {
			e := &c.Entries[j]
			e.Active = orTrue(flags.Chests[i].Entries[j].Active)
			if e.QtyMin == 0 {
				e.QtyMin = 1
			}
			if e.QtyMax < e.QtyMin {
				e.QtyMax = e.QtyMin
			}
		}
	}
}

// Validate checks cross-definition rules the schema cannot express
func (l *loader) Validate(config *Config) error {
	if config == nil {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, ErrMsgConfigNil)
	}

	if err := unique("badge code", len(config.Badges), func(i int) string { return config.Badges[i].Code }); err != nil {
		return err
	}
	if err := unique("quest code", len(config.Quests), func(i int) string { return config.Quests[i].Code }); err != nil {
		return err
	}
	if err := unique("chest name", len(config.Chests), func(i int) string { return config.Chests[i].Name }); err != nil {
		return err
	}
	for _, c := range config.Chests {
		entries := c.Entries
		if err := unique("item key in chest "+c.Name, len(entries), func(i int) string { return entries[i].ItemKey }); err != nil {
			return err
		}
	}

	for i := range config.Badges {
		if err := validation.ValidateStruct(&config.Badges[i]); err != nil {
			return fmt.Errorf("badge %q: %w", config.Badges[i].Code, err)
		}
	}
	for i := range config.Quests {
		if err := validation.ValidateStruct(&config.Quests[i]); err != nil {
			return fmt.Errorf("quest %q: %w", config.Quests[i].Code, err)
		}
	}
	return nil
}

func unique(what string, n int, key func(int) string) error {
	seen := make(map[string]bool, n)
	for i := 0; i < n; i++ {
		k := key(i)
		if seen[k] {
			return fmt.Errorf("%w: "+ErrMsgDuplicate, ErrInvalidConfig, what, k)
		}
		seen[k] = true
	}
	return nil
}

// Sync upserts every definition by its natural key: badges and quests by code,
// chests by name and drop entries by item key. Definitions missing from the
// catalog are left alone.
func (l *loader) Sync(ctx context.Context, config *Config, stores Stores) (*SyncResult, error) {
	result := &SyncResult{}

	if stores.Badges != nil && len(config.Badges) > 0 {
		if err := syncBadges(ctx, config.Badges, stores.Badges, result); err != nil {
			return nil, err
		}
	}
	if stores.Quests != nil && len(config.Quests) > 0 {
		if err := syncQuests(ctx, config.Quests, stores.Quests, result); err != nil {
			return nil, err
		}
	}
	if stores.Chests != nil && len(config.Chests) > 0 {
		if err := syncChests(ctx, config.Chests, stores.Chests, result); err != nil {
			return nil, err
		}
	}

	logger.FromContext(ctx).Debug(LogMsgSyncFinished,
		"inserted", result.Inserted,
		"updated", result.Updated,
		"skipped", result.Skipped)
	return result, nil
}

func syncBadges(ctx context.Context, defs []domain.Badge, store BadgeStore, result *SyncResult) error {
	existing, err := store.ListBadges(ctx, false)
	if err != nil {
		return fmt.Errorf("failed to list badges: %w", err)
	}
	byCode := make(map[string]domain.Badge, len(existing))
	for _, b := range existing {
		byCode[b.Code] = b
	}

	for _, def := range defs {
		b := def
		current, ok := byCode[b.Code]
		if !ok {
			if err := store.CreateBadge(ctx, &b); err != nil {
				return fmt.Errorf("failed to create badge %q: %w", b.Code, err)
			}
			result.Inserted++
			continue
		}
		b.ID = current.ID
		if fingerprint(stripBadge(b)) == fingerprint(stripBadge(current)) {
			result.Skipped++
			continue
		}
		if err := store.UpdateBadge(ctx, &b); err != nil {
			return fmt.Errorf("failed to update badge %q: %w", b.Code, err)
		}
		result.Updated++
	}
	return nil
}

func syncQuests(ctx context.Context, defs []domain.Quest, store QuestStore, result *SyncResult) error {
	existing, err := store.ListQuests(ctx, false)
	if err != nil {
		return fmt.Errorf("failed to list quests: %w", err)
	}
	byCode := make(map[string]domain.Quest, len(existing))
	for _, q := range existing {
		byCode[q.Code] = q
	}

	for _, def := range defs {
		q := def
		current, ok := byCode[q.Code]
		if !ok {
			if err := store.CreateQuest(ctx, &q); err != nil {
				return fmt.Errorf("failed to create quest %q: %w", q.Code, err)
			}
			result.Inserted++
			continue
		}
		q.ID = current.ID
		if fingerprint(stripQuest(q)) == fingerprint(stripQuest(current)) {
			result.Skipped++
			continue
		}
		if err := store.UpdateQuest(ctx, &q); err != nil {
			return fmt.Errorf("failed to update quest %q: %w", q.Code, err)
		}
		result.Updated++
	}
	return nil
}

func syncChests(ctx context.Context, defs []ChestDef, store ChestStore, result *SyncResult) error {
	existing, err := store.ListChests(ctx, false)
	if err != nil {
		return fmt.Errorf("failed to list chests: %w", err)
	}
	byName := make(map[string]domain.ChestDefinition, len(existing))
	for _, c := range existing {
		byName[c.Name] = c
	}

	for _, def := range defs {
		chest := def.ChestDefinition
		current, ok := byName[chest.Name]
		switch {
		case !ok:
			if err := store.CreateChest(ctx, &chest); err != nil {
				return fmt.Errorf("failed to create chest %q: %w", chest.Name, err)
			}
			result.Inserted++
		case fingerprint(stripChest(chest)) == fingerprint(stripChest(current)):
			chest.ID = current.ID
			result.Skipped++
		default:
			chest.ID = current.ID
			if err := store.UpdateChest(ctx, &chest); err != nil {
				return fmt.Errorf("failed to update chest %q: %w", chest.Name, err)
			}
			result.Updated++
		}

		if err := syncEntries(ctx, chest.ID, def.Entries, store, result); err != nil {
			return fmt.Errorf("chest %q: %w", chest.Name, err)
		}
	}
	return nil
}

func syncEntries(ctx context.Context, chestID int, defs []domain.ChestDropEntry, store ChestStore, result *SyncResult) error {
	if len(defs) == 0 {
		return nil
	}
	current, err := store.GetChest(ctx, chestID)
	if err != nil {
		return err
	}
	byKey := make(map[string]domain.ChestDropEntry, len(current.Entries))
	for _, e := range current.Entries {
		byKey[e.ItemKey] = e
	}

	for _, def := range defs {
		e := def
		e.ChestID = chestID
		prev, ok := byKey[e.ItemKey]
		if !ok {
			if err := store.CreateDropEntry(ctx, &e); err != nil {
				return fmt.Errorf("failed to create drop entry %q: %w", e.ItemKey, err)
			}
			result.Inserted++
			continue
		}
		e.ID = prev.ID
		if fingerprint(stripEntry(e)) == fingerprint(stripEntry(prev)) {
			result.Skipped++
			continue
		}
		if err := store.UpdateDropEntry(ctx, &e); err != nil {
			return fmt.Errorf("failed to update drop entry %q: %w", e.ItemKey, err)
		}
		result.Updated++
	}
	return nil
}

// fingerprint hashes the JSON form of a definition
func fingerprint(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func stripBadge(b domain.Badge) domain.Badge {
	b.ID, b.CreatedAt, b.UpdatedAt = 0, time.Time{}, time.Time{}
	return b
}

func stripQuest(q domain.Quest) domain.Quest {
	q.ID, q.CreatedAt, q.UpdatedAt = 0, time.Time{}, time.Time{}
	return q
}

func stripChest(c domain.ChestDefinition) domain.ChestDefinition {
	c.ID, c.CreatedAt, c.UpdatedAt = 0, time.Time{}, time.Time{}
	return c
}

func stripEntry(e domain.ChestDropEntry) domain.ChestDropEntry {
	e.ID, e.ChestID, e.CreatedAt, e.UpdatedAt = 0, 0, time.Time{}, time.Time{}
	return e
}
