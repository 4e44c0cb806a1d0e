package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/osse101/LabRewards_Go/internal/domain"
	"github.com/osse101/LabRewards_Go/internal/repository"
)

// QuestRepository implements repository.Quest for PostgreSQL
type QuestRepository struct {
	db *pgxpool.Pool
}

// NewQuestRepository creates a new QuestRepository
func NewQuestRepository(db *pgxpool.Pool) *QuestRepository {
	return &QuestRepository{db: db}
}

// BeginTx starts an engine transaction
func (r *QuestRepository) BeginTx(ctx context.Context) (repository.EngineTx, error) {
	return beginEngineTx(ctx, r.db)
}

const questColumns = `quest_id, code, title, description, quest_type, scope, project_id, min_level, min_tier,
	requirements, rewards, active, created_at, updated_at`

func scanQuest(row pgx.Row) (*domain.Quest, error) {
	var q domain.Quest
	var questType, scope string
	var projectID, minTier pgtype.Text
	var requirements, rewards []byte
	if err := row.Scan(&q.ID, &q.Code, &q.Title, &q.Description, &questType, &scope, &projectID, &q.MinLevel, &minTier,
		&requirements, &rewards, &q.Active, &q.CreatedAt, &q.UpdatedAt); err != nil {
		return nil, err
	}
	q.QuestType = domain.QuestType(questType)
	q.Scope = domain.QuestScope(scope)
	q.ProjectID = projectID.String
	q.MinTier = domain.Tier(minTier.String)
	if err := json.Unmarshal(requirements, &q.Requirements); err != nil {
		return nil, fmt.Errorf("failed to unmarshal quest requirements: %w", err)
	}
	if err := json.Unmarshal(rewards, &q.Rewards); err != nil {
		return nil, fmt.Errorf("failed to unmarshal quest rewards: %w", err)
	}
	return &q, nil
}

// ListQuests returns quest definitions ordered by id
func (r *QuestRepository) ListQuests(ctx context.Context, activeOnly bool) ([]domain.Quest, error) {
	query := `SELECT ` + questColumns + ` FROM quests WHERE ($1 = FALSE OR active) ORDER BY quest_id`
	rows, err := r.db.Query(ctx, query, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to query quests: %w", err)
	}
	defer rows.Close()

	var quests []domain.Quest
	for rows.Next() {
		q, err := scanQuest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan quest: %w", err)
		}
		quests = append(quests, *q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return quests, nil
}

// GetQuest returns a quest by id or nil
func (r *QuestRepository) GetQuest(ctx context.Context, id int) (*domain.Quest, error) {
	q, err := scanQuest(r.db.QueryRow(ctx, `SELECT `+questColumns+` FROM quests WHERE quest_id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get quest: %w", err)
	}
	return q, nil
}

func questJSON(quest *domain.Quest) ([]byte, []byte, error) {
	requirements, err := marshalJSONB(quest.Requirements, "[]")
	if err != nil {
		return nil, nil, err
	}
	rewards, err := marshalJSONB(quest.Rewards, "[]")
	if err != nil {
		return nil, nil, err
	}
	return requirements, rewards, nil
}

// CreateQuest inserts a quest and sets its id and timestamps
func (r *QuestRepository) CreateQuest(ctx context.Context, quest *domain.Quest) error {
	requirements, rewards, err := questJSON(quest)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO quests (code, title, description, quest_type, scope, project_id, min_level, min_tier, requirements, rewards, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING quest_id, created_at, updated_at
	`
	err = r.db.QueryRow(ctx, query, quest.Code, quest.Title, quest.Description, string(quest.QuestType), string(quest.Scope),
		strToText(quest.ProjectID), quest.MinLevel, strToText(string(quest.MinTier)), requirements, rewards, quest.Active).
		Scan(&quest.ID, &quest.CreatedAt, &quest.UpdatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: quest code %q already exists", domain.ErrInvalidInput, quest.Code)
	}
	if err != nil {
		return fmt.Errorf("failed to create quest: %w", err)
	}
	return nil
}

// UpdateQuest overwrites a quest definition
func (r *QuestRepository) UpdateQuest(ctx context.Context, quest *domain.Quest) error {
	requirements, rewards, err := questJSON(quest)
	if err != nil {
		return err
	}
	query := `
		UPDATE quests
		SET code = $2, title = $3, description = $4, quest_type = $5, scope = $6, project_id = $7,
		    min_level = $8, min_tier = $9, requirements = $10, rewards = $11, active = $12, updated_at = NOW()
		WHERE quest_id = $1
		RETURNING updated_at
	`
	err = r.db.QueryRow(ctx, query, quest.ID, quest.Code, quest.Title, quest.Description, string(quest.QuestType),
		string(quest.Scope), strToText(quest.ProjectID), quest.MinLevel, strToText(string(quest.MinTier)),
		requirements, rewards, quest.Active).Scan(&quest.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: id %d", domain.ErrQuestNotFound, quest.ID)
	}
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: quest code %q already exists", domain.ErrInvalidInput, quest.Code)
	}
	if err != nil {
		return fmt.Errorf("failed to update quest: %w", err)
	}
	return nil
}

// DeleteQuest removes a quest and its user states
func (r *QuestRepository) DeleteQuest(ctx context.Context, id int) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM quests WHERE quest_id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete quest: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// GetUserQuestStates returns every stored state for a user
func (r *QuestRepository) GetUserQuestStates(ctx context.Context, userID string) ([]domain.UserQuestState, error) {
	query := `SELECT ` + questStateColumns + ` FROM user_quest_states WHERE user_id = $1 ORDER BY quest_id, period_key`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query quest states: %w", err)
	}
	defer rows.Close()

	var states []domain.UserQuestState
	for rows.Next() {
		st, err := scanQuestState(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan quest state: %w", err)
		}
		states = append(states, *st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return states, nil
}

// GetQuestState returns a single state or nil
func (r *QuestRepository) GetQuestState(ctx context.Context, userID string, questID int, periodKey string) (*domain.UserQuestState, error) {
	query := `SELECT ` + questStateColumns + ` FROM user_quest_states WHERE user_id = $1 AND quest_id = $2 AND period_key = $3`
	st, err := scanQuestState(r.db.QueryRow(ctx, query, userID, questID, periodKey))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get quest state: %w", err)
	}
	return st, nil
}
