package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/osse101/LabRewards_Go/internal/domain"
)

// engineTx implements repository.EngineTx on a single pgx transaction
type engineTx struct {
	tx pgx.Tx
}

func (t *engineTx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

func (t *engineTx) Rollback(ctx context.Context) error {
	return t.tx.Rollback(ctx)
}

func (t *engineTx) InsertAwardRecord(ctx context.Context, rec *domain.AwardRecord) (bool, error) {
	query := `
		INSERT INTO award_records
			(source_type, source_id, user_id, points, xp, duration_seconds, task_count, project_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (source_type, source_id) DO NOTHING
	`
	tag, err := t.tx.Exec(ctx, query,
		string(rec.SourceType), rec.SourceID, rec.UserID, rec.Points, rec.XP,
		rec.DurationSeconds, rec.TaskCount, strToText(rec.ProjectID), rec.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("failed to insert award record: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (t *engineTx) GetProgressionForUpdate(ctx context.Context, userID string) (*domain.ProgressionState, error) {
	if _, err := t.tx.Exec(ctx,
		`INSERT INTO user_progression (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`, userID); err != nil {
		return nil, fmt.Errorf("failed to ensure progression row: %w", err)
	}

	query := `
		SELECT user_id, points, xp, level, tier, updated_at
		FROM user_progression
		WHERE user_id = $1
		FOR UPDATE
	`
	var st domain.ProgressionState
	var tier string
	err := t.tx.QueryRow(ctx, query, userID).Scan(&st.UserID, &st.Points, &st.XP, &st.Level, &tier, &st.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to lock progression: %w", err)
	}
	st.Tier = domain.Tier(tier)
	return &st, nil
}

func (t *engineTx) UpdateProgression(ctx context.Context, state *domain.ProgressionState) error {
	query := `
		UPDATE user_progression
		SET points = $2, xp = $3, level = $4, tier = $5, updated_at = $6
		WHERE user_id = $1
	`
	_, err := t.tx.Exec(ctx, query, state.UserID, state.Points, state.XP, state.Level, string(state.Tier), state.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update progression: %w", err)
	}
	return nil
}

func (t *engineTx) GetBalanceForUpdate(ctx context.Context, userID string) (int64, error) {
	if _, err := t.tx.Exec(ctx,
		`INSERT INTO wallets (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`, userID); err != nil {
		return 0, fmt.Errorf("failed to ensure wallet: %w", err)
	}

	var balance int64
	err := t.tx.QueryRow(ctx, `SELECT balance FROM wallets WHERE user_id = $1 FOR UPDATE`, userID).Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("failed to lock wallet: %w", err)
	}
	return balance, nil
}

func (t *engineTx) UpdateBalance(ctx context.Context, userID string, balance int64) error {
	_, err := t.tx.Exec(ctx, `UPDATE wallets SET balance = $2, updated_at = NOW() WHERE user_id = $1`, userID, balance)
	if err != nil {
		return fmt.Errorf("failed to update wallet balance: %w", err)
	}
	return nil
}

func (t *engineTx) AddInventoryItem(ctx context.Context, grant domain.InventoryGrant) error {
	query := `
		INSERT INTO inventory_items (user_id, item_key, item_name, rarity, quantity, acquired_via, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (user_id, item_key) DO UPDATE
		SET quantity = inventory_items.quantity + EXCLUDED.quantity,
		    updated_at = NOW()
	`
	_, err := t.tx.Exec(ctx, query, grant.UserID, grant.ItemKey, grant.ItemName, grant.Rarity, grant.Quantity, grant.AcquiredVia)
	if err != nil {
		return fmt.Errorf("failed to add inventory item: %w", err)
	}
	return nil
}

const questStateColumns = `user_id, quest_id, period_key, status, progress, started_at, completed_at, claimed_at, updated_at`

func scanQuestState(row pgx.Row) (*domain.UserQuestState, error) {
	var st domain.UserQuestState
	var status string
	var progress []byte
	if err := row.Scan(&st.UserID, &st.QuestID, &st.PeriodKey, &status, &progress,
		&st.StartedAt, &st.CompletedAt, &st.ClaimedAt, &st.UpdatedAt); err != nil {
		return nil, err
	}
	st.Status = domain.QuestStatus(status)
	st.Progress = map[domain.QuestCounter]int64{}
	if len(progress) > 0 {
		if err := json.Unmarshal(progress, &st.Progress); err != nil {
			return nil, fmt.Errorf("failed to unmarshal quest progress: %w", err)
		}
	}
	return &st, nil
}

func (t *engineTx) GetQuestStateForUpdate(ctx context.Context, userID string, questID int, periodKey string) (*domain.UserQuestState, error) {
	query := `SELECT ` + questStateColumns + `
		FROM user_quest_states
		WHERE user_id = $1 AND quest_id = $2 AND period_key = $3
		FOR UPDATE`
	st, err := scanQuestState(t.tx.QueryRow(ctx, query, userID, questID, periodKey))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock quest state: %w", err)
	}
	return st, nil
}

func (t *engineTx) InsertActivitySource(ctx context.Context, userID string, sourceType domain.SourceType, sourceID string) (bool, error) {
	query := `
		INSERT INTO quest_activity_sources (user_id, source_type, source_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, source_type, source_id) DO NOTHING
	`
	tag, err := t.tx.Exec(ctx, query, userID, string(sourceType), sourceID)
	if err != nil {
		return false, fmt.Errorf("failed to insert quest activity source: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (t *engineTx) LockOrCreateQuestState(ctx context.Context, seed *domain.UserQuestState) (*domain.UserQuestState, error) {
	progress, err := marshalJSONB(seed.Progress, "{}")
	if err != nil {
		return nil, err
	}
	insert := `
		INSERT INTO user_quest_states (user_id, quest_id, period_key, status, progress, started_at, completed_at, claimed_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id, quest_id, period_key) DO NOTHING
	`
	if _, err := t.tx.Exec(ctx, insert, seed.UserID, seed.QuestID, seed.PeriodKey, string(seed.Status), progress,
		seed.StartedAt, seed.CompletedAt, seed.ClaimedAt, seed.UpdatedAt); err != nil {
		return nil, fmt.Errorf("failed to create quest state: %w", err)
	}

	st, err := t.GetQuestStateForUpdate(ctx, seed.UserID, seed.QuestID, seed.PeriodKey)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, fmt.Errorf("quest state for quest %d vanished after insert", seed.QuestID)
	}
	return st, nil
}

func (t *engineTx) UpdateQuestState(ctx context.Context, state *domain.UserQuestState) error {
	progress, err := marshalJSONB(state.Progress, "{}")
	if err != nil {
		return err
	}
	query := `
		UPDATE user_quest_states
		SET status = $4, progress = $5, started_at = $6, completed_at = $7, claimed_at = $8, updated_at = $9
		WHERE user_id = $1 AND quest_id = $2 AND period_key = $3
	`
	_, err = t.tx.Exec(ctx, query, state.UserID, state.QuestID, state.PeriodKey, string(state.Status), progress,
		state.StartedAt, state.CompletedAt, state.ClaimedAt, state.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update quest state: %w", err)
	}
	return nil
}

func (t *engineTx) ClaimQuestState(ctx context.Context, userID string, questID int, periodKey string, claimedAt time.Time) (bool, error) {
	query := `
		UPDATE user_quest_states
		SET status = $4, claimed_at = $5, updated_at = $5
		WHERE user_id = $1 AND quest_id = $2 AND period_key = $3 AND status = $6
	`
	tag, err := t.tx.Exec(ctx, query, userID, questID, periodKey,
		string(domain.QuestStatusClaimed), claimedAt, string(domain.QuestStatusCompleted))
	if err != nil {
		return false, fmt.Errorf("failed to claim quest state: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
