package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/osse101/LabRewards_Go/internal/domain"
)

// BadgeRepository implements repository.Badge for PostgreSQL
type BadgeRepository struct {
	db *pgxpool.Pool
}

// NewBadgeRepository creates a new BadgeRepository
func NewBadgeRepository(db *pgxpool.Pool) *BadgeRepository {
	return &BadgeRepository{db: db}
}

const badgeColumns = `badge_id, code, name, description, category, criteria, active, created_at, updated_at`

func scanBadge(row pgx.Row) (*domain.Badge, error) {
	var b domain.Badge
	var category string
	var criteria []byte
	if err := row.Scan(&b.ID, &b.Code, &b.Name, &b.Description, &category, &criteria, &b.Active, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	b.Category = domain.BadgeCategory(category)
	if err := json.Unmarshal(criteria, &b.Criteria); err != nil {
		return nil, fmt.Errorf("failed to unmarshal badge criteria: %w", err)
	}
	return &b, nil
}

// ListBadges returns badge definitions ordered by id
func (r *BadgeRepository) ListBadges(ctx context.Context, activeOnly bool) ([]domain.Badge, error) {
	query := `SELECT ` + badgeColumns + ` FROM badges WHERE ($1 = FALSE OR active) ORDER BY badge_id`
	rows, err := r.db.Query(ctx, query, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to query badges: %w", err)
	}
	defer rows.Close()

	var badges []domain.Badge
	for rows.Next() {
		b, err := scanBadge(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan badge: %w", err)
		}
		badges = append(badges, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return badges, nil
}

// GetBadge returns a badge by id or nil
func (r *BadgeRepository) GetBadge(ctx context.Context, id int) (*domain.Badge, error) {
	query := `SELECT ` + badgeColumns + ` FROM badges WHERE badge_id = $1`
	b, err := scanBadge(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get badge: %w", err)
	}
	return b, nil
}

// CreateBadge inserts a badge and sets its id and timestamps
func (r *BadgeRepository) CreateBadge(ctx context.Context, badge *domain.Badge) error {
	criteria, err := marshalJSONB(badge.Criteria, "[]")
	if err != nil {
		return err
	}
	query := `
		INSERT INTO badges (code, name, description, category, criteria, active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING badge_id, created_at, updated_at
	`
	err = r.db.QueryRow(ctx, query, badge.Code, badge.Name, badge.Description, string(badge.Category), criteria, badge.Active).
		Scan(&badge.ID, &badge.CreatedAt, &badge.UpdatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: badge code %q already exists", domain.ErrInvalidInput, badge.Code)
	}
	if err != nil {
		return fmt.Errorf("failed to create badge: %w", err)
	}
	return nil
}

// UpdateBadge overwrites a badge definition
func (r *BadgeRepository) UpdateBadge(ctx context.Context, badge *domain.Badge) error {
	criteria, err := marshalJSONB(badge.Criteria, "[]")
	if err != nil {
		return err
	}
	query := `
		UPDATE badges
		SET code = $2, name = $3, description = $4, category = $5, criteria = $6, active = $7, updated_at = NOW()
		WHERE badge_id = $1
		RETURNING updated_at
	`
	err = r.db.QueryRow(ctx, query, badge.ID, badge.Code, badge.Name, badge.Description,
		string(badge.Category), criteria, badge.Active).Scan(&badge.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: id %d", domain.ErrBadgeNotFound, badge.ID)
	}
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: badge code %q already exists", domain.ErrInvalidInput, badge.Code)
	}
	if err != nil {
		return fmt.Errorf("failed to update badge: %w", err)
	}
	return nil
}

// DeleteBadge removes a badge and, by cascade, every grant of it
func (r *BadgeRepository) DeleteBadge(ctx context.Context, id int) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM badges WHERE badge_id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete badge: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// GetUserBadges returns the badges a user holds, oldest first
func (r *BadgeRepository) GetUserBadges(ctx context.Context, userID string) ([]domain.UserBadgeView, error) {
	query := `
		SELECT b.badge_id, b.code, b.name, b.description, b.category, b.criteria, b.active, b.created_at, b.updated_at,
		       ub.awarded_at, ub.awarded_by
		FROM user_badges ub
		JOIN badges b ON b.badge_id = ub.badge_id
		WHERE ub.user_id = $1
		ORDER BY ub.awarded_at, b.badge_id
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query user badges: %w", err)
	}
	defer rows.Close()

	var views []domain.UserBadgeView
	for rows.Next() {
		var v domain.UserBadgeView
		var category string
		var criteria []byte
		if err := rows.Scan(&v.Badge.ID, &v.Badge.Code, &v.Badge.Name, &v.Badge.Description, &category, &criteria,
			&v.Badge.Active, &v.Badge.CreatedAt, &v.Badge.UpdatedAt, &v.AwardedAt, &v.AwardedBy); err != nil {
			return nil, fmt.Errorf("failed to scan user badge: %w", err)
		}
		v.Badge.Category = domain.BadgeCategory(category)
		if err := json.Unmarshal(criteria, &v.Badge.Criteria); err != nil {
			return nil, fmt.Errorf("failed to unmarshal badge criteria: %w", err)
		}
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return views, nil
}

// InsertUserBadge grants a badge unless the user already holds it
func (r *BadgeRepository) InsertUserBadge(ctx context.Context, ub *domain.UserBadge) (bool, error) {
	query := `
		INSERT INTO user_badges (user_id, badge_id, awarded_at, awarded_by)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, badge_id) DO NOTHING
	`
	if ub.AwardedAt.IsZero() {
		ub.AwardedAt = time.Now().UTC()
	}
	tag, err := r.db.Exec(ctx, query, ub.UserID, ub.BadgeID, ub.AwardedAt, ub.AwardedBy)
	if err != nil {
		return false, fmt.Errorf("failed to insert user badge: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// DeleteUserBadge revokes a badge
func (r *BadgeRepository) DeleteUserBadge(ctx context.Context, userID string, badgeID int) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM user_badges WHERE user_id = $1 AND badge_id = $2`, userID, badgeID)
	if err != nil {
		return false, fmt.Errorf("failed to delete user badge: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
