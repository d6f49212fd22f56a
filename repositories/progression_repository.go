package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/steamcup/tournament-engine/models"
)

var (
	ErrProgressionNotFound  = errors.New("phase progression not found")
	ErrProgressionDuplicate = errors.New("team already has a progression into this phase")
)

type ProgressionRepository interface {
	BatchCreate(ctx context.Context, exec SQLExecutor, progressions []*models.PhaseProgression) error
	// CountByPhaseAndCategory counts live progression rows into a
	// phase for a category; the capacity check compares against it.
	CountByPhaseAndCategory(ctx context.Context, exec SQLExecutor, toPhaseID, categoryID int) (int, error)
	ExistsForTeam(ctx context.Context, exec SQLExecutor, teamID, toPhaseID int) (bool, error)
	ListByPhase(ctx context.Context, exec SQLExecutor, toPhaseID int, categoryID *int) ([]*models.PhaseProgression, error)
	SoftDelete(ctx context.Context, exec SQLExecutor, id int) error
}

type postgresProgressionRepository struct {
	db *sql.DB
}

func NewPostgresProgressionRepository(db *sql.DB) ProgressionRepository {
	return &postgresProgressionRepository{db: db}
}

func (r *postgresProgressionRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresProgressionRepository) BatchCreate(ctx context.Context, exec SQLExecutor, progressions []*models.PhaseProgression) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO phase_progressions
			(team_id, from_phase_id, to_phase_id, category_id, score, rank_in_category, qualified, advancement_reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`

	for _, p := range progressions {
		err := executor.QueryRowContext(ctx, query,
			p.TeamID, p.FromPhaseID, p.ToPhaseID, p.CategoryID,
			p.Score, p.RankInCategory, p.Qualified, p.AdvancementReason,
		).Scan(&p.ID, &p.CreatedAt)
		if err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Constraint == "phase_progressions_team_phase_key" {
				return fmt.Errorf("%w: team %d", ErrProgressionDuplicate, p.TeamID)
			}
			return fmt.Errorf("failed to create progression for team %d: %w", p.TeamID, err)
		}
	}
	return nil
}

func (r *postgresProgressionRepository) CountByPhaseAndCategory(ctx context.Context, exec SQLExecutor, toPhaseID, categoryID int) (int, error) {
	query := `
		SELECT COUNT(*) FROM phase_progressions
		WHERE to_phase_id = $1 AND category_id = $2 AND deleted_at IS NULL`
	var count int
	if err := r.getExecutor(exec).QueryRowContext(ctx, query, toPhaseID, categoryID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count progressions into phase %d category %d: %w", toPhaseID, categoryID, err)
	}
	return count, nil
}

func (r *postgresProgressionRepository) ExistsForTeam(ctx context.Context, exec SQLExecutor, teamID, toPhaseID int) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM phase_progressions
			WHERE team_id = $1 AND to_phase_id = $2 AND deleted_at IS NULL
		)`
	var exists bool
	if err := r.getExecutor(exec).QueryRowContext(ctx, query, teamID, toPhaseID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check progression for team %d: %w", teamID, err)
	}
	return exists, nil
}

func (r *postgresProgressionRepository) ListByPhase(ctx context.Context, exec SQLExecutor, toPhaseID int, categoryID *int) ([]*models.PhaseProgression, error) {
	query := `
		SELECT id, team_id, from_phase_id, to_phase_id, category_id, score,
		       rank_in_category, qualified, advancement_reason, created_at, deleted_at
		FROM phase_progressions
		WHERE to_phase_id = $1 AND deleted_at IS NULL`
	args := []interface{}{toPhaseID}
	if categoryID != nil {
		query += ` AND category_id = $2`
		args = append(args, *categoryID)
	}
	query += ` ORDER BY category_id, rank_in_category`

	rows, err := r.getExecutor(exec).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query progressions into phase %d: %w", toPhaseID, err)
	}
	defer rows.Close()

	progressions := make([]*models.PhaseProgression, 0)
	for rows.Next() {
		var p models.PhaseProgression
		if scanErr := rows.Scan(
			&p.ID, &p.TeamID, &p.FromPhaseID, &p.ToPhaseID, &p.CategoryID, &p.Score,
			&p.RankInCategory, &p.Qualified, &p.AdvancementReason, &p.CreatedAt, &p.DeletedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan progression row: %w", scanErr)
		}
		progressions = append(progressions, &p)
	}
	return progressions, rows.Err()
}

func (r *postgresProgressionRepository) SoftDelete(ctx context.Context, exec SQLExecutor, id int) error {
	query := `UPDATE phase_progressions SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to soft-delete progression %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrProgressionNotFound)
}
