package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/osse101/LabRewards_Go/internal/domain"
	"github.com/osse101/LabRewards_Go/internal/repository"
)

// AwardRepository implements repository.Award for PostgreSQL
type AwardRepository struct {
	db *pgxpool.Pool
}

// NewAwardRepository creates a new AwardRepository
func NewAwardRepository(db *pgxpool.Pool) *AwardRepository {
	return &AwardRepository{db: db}
}

// BeginTx starts an engine transaction
func (r *AwardRepository) BeginTx(ctx context.Context) (repository.EngineTx, error) {
	return beginEngineTx(ctx, r.db)
}

// GetProgression returns the stored progression or nil for unknown users
func (r *AwardRepository) GetProgression(ctx context.Context, userID string) (*domain.ProgressionState, error) {
	query := `
		SELECT user_id, points, xp, level, tier, updated_at
		FROM user_progression
		WHERE user_id = $1
	`
	var st domain.ProgressionState
	var tier string
	err := r.db.QueryRow(ctx, query, userID).Scan(&st.UserID, &st.Points, &st.XP, &st.Level, &tier, &st.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get progression: %w", err)
	}
	st.Tier = domain.Tier(tier)
	return &st, nil
}

// GetAwardRecord returns the ledger row for a source or nil
func (r *AwardRepository) GetAwardRecord(ctx context.Context, sourceType domain.SourceType, sourceID string) (*domain.AwardRecord, error) {
	query := `
		SELECT source_type, source_id, user_id, points, xp, duration_seconds, task_count, project_id, created_at
		FROM award_records
		WHERE source_type = $1 AND source_id = $2
	`
	var rec domain.AwardRecord
	var st string
	var projectID pgtype.Text
	err := r.db.QueryRow(ctx, query, string(sourceType), sourceID).Scan(
		&st, &rec.SourceID, &rec.UserID, &rec.Points, &rec.XP,
		&rec.DurationSeconds, &rec.TaskCount, &projectID, &rec.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get award record: %w", err)
	}
	rec.SourceType = domain.SourceType(st)
	rec.ProjectID = projectID.String
	return &rec, nil
}

// GetActivityTotals aggregates the user's award records
func (r *AwardRepository) GetActivityTotals(ctx context.Context, userID string, since time.Time) (*repository.ActivityTotals, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE source_type = $2),
			COUNT(*) FILTER (WHERE source_type = $3),
			COUNT(DISTINCT project_id),
			COALESCE(SUM(duration_seconds) FILTER (WHERE source_type = $3 AND created_at >= $4), 0)
		FROM award_records
		WHERE user_id = $1
	`
	var totals repository.ActivityTotals
	err := r.db.QueryRow(ctx, query, userID,
		string(domain.SourceTaskCompleted), string(domain.SourceWorkSessionCompleted), since,
	).Scan(&totals.CompletedTasks, &totals.WorkSessions, &totals.Projects, &totals.WorkSecondsSince)
	if err != nil {
		return nil, fmt.Errorf("failed to get activity totals: %w", err)
	}
	return &totals, nil
}

// GetActivityDays returns distinct UTC activity dates, newest first
func (r *AwardRepository) GetActivityDays(ctx context.Context, userID string, since time.Time) ([]time.Time, error) {
	query := `
		SELECT DISTINCT (created_at AT TIME ZONE 'UTC')::date AS day
		FROM award_records
		WHERE user_id = $1 AND created_at >= $2
		ORDER BY day DESC
	`
	rows, err := r.db.Query(ctx, query, userID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query activity days: %w", err)
	}
	defer rows.Close()

	var days []time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("failed to scan activity day: %w", err)
		}
		days = append(days, time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return days, nil
}

// ListRecentlyActiveUsers returns users with award records at or after since
func (r *AwardRepository) ListRecentlyActiveUsers(ctx context.Context, since time.Time) ([]string, error) {
	rows, err := r.db.Query(ctx,
		`SELECT DISTINCT user_id FROM award_records WHERE created_at >= $1 ORDER BY user_id`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query active users: %w", err)
	}
	defer rows.Close()

	users, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to collect active users: %w", err)
	}
	return users, nil
}
