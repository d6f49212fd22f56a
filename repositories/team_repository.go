package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/steamcup/tournament-engine/models"
)

var ErrTeamNotFound = errors.New("team not found")

// TeamRepository is the engine's read-only window onto the team and
// score registries owned by the administrative side of the system.
type TeamRepository interface {
	GetByID(ctx context.Context, id int) (*models.Team, error)
	// ListByTournament returns teams registered for a tournament in
	// registration order, each with its aggregate (mean) score.
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.Team, error)
	// ListByCategoryAndPhase returns teams competing in a category
	// within a phase, with aggregate scores.
	ListByCategoryAndPhase(ctx context.Context, categoryID, phaseID int) ([]*models.Team, error)
	// ListByCategory returns every active team of a category in
	// registration order, with aggregate scores.
	ListByCategory(ctx context.Context, categoryID int) ([]*models.Team, error)
}

type postgresTeamRepository struct {
	db *sql.DB
}

func NewPostgresTeamRepository(db *sql.DB) TeamRepository {
	return &postgresTeamRepository{db: db}
}

// Aggregate score is the mean of recorded scores; teams without any
// score rank with 0.
const teamWithScoreColumns = `t.id, t.name, t.category_id, t.school_id, t.registered_at, t.deleted_at,
	COALESCE(AVG(s.score), 0) AS average_score`

func scanTeamWithScore(rows *sql.Rows) (*models.Team, error) {
	var team models.Team
	if err := rows.Scan(
		&team.ID, &team.Name, &team.CategoryID, &team.SchoolID,
		&team.RegisteredAt, &team.DeletedAt, &team.AverageScore,
	); err != nil {
		return nil, fmt.Errorf("failed to scan team row: %w", err)
	}
	return &team, nil
}

func (r *postgresTeamRepository) GetByID(ctx context.Context, id int) (*models.Team, error) {
	query := `
		SELECT ` + teamWithScoreColumns + `
		FROM teams t
		LEFT JOIN team_scores s ON s.team_id = t.id
		WHERE t.id = $1 AND t.deleted_at IS NULL
		GROUP BY t.id`
	rows, err := r.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query team %d: %w", id, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, ErrTeamNotFound
	}
	return scanTeamWithScore(rows)
}

func (r *postgresTeamRepository) listWithScores(ctx context.Context, query string, args ...interface{}) ([]*models.Team, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query teams: %w", err)
	}
	defer rows.Close()

	teams := make([]*models.Team, 0)
	for rows.Next() {
		team, scanErr := scanTeamWithScore(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		teams = append(teams, team)
	}
	return teams, rows.Err()
}

func (r *postgresTeamRepository) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Team, error) {
	query := `
		SELECT ` + teamWithScoreColumns + `
		FROM teams t
		JOIN tournament_teams tt ON tt.team_id = t.id
		LEFT JOIN team_scores s ON s.team_id = t.id
		WHERE tt.tournament_id = $1 AND t.deleted_at IS NULL AND tt.deleted_at IS NULL
		GROUP BY t.id, tt.created_at
		ORDER BY tt.created_at, t.id`
	return r.listWithScores(ctx, query, tournamentID)
}

func (r *postgresTeamRepository) ListByCategory(ctx context.Context, categoryID int) ([]*models.Team, error) {
	query := `
		SELECT ` + teamWithScoreColumns + `
		FROM teams t
		LEFT JOIN team_scores s ON s.team_id = t.id
		WHERE t.category_id = $1 AND t.deleted_at IS NULL
		GROUP BY t.id
		ORDER BY t.registered_at, t.id`
	return r.listWithScores(ctx, query, categoryID)
}

func (r *postgresTeamRepository) ListByCategoryAndPhase(ctx context.Context, categoryID, phaseID int) ([]*models.Team, error) {
	query := `
		SELECT ` + teamWithScoreColumns + `
		FROM teams t
		JOIN phase_entries pe ON pe.team_id = t.id
		LEFT JOIN team_scores s ON s.team_id = t.id
		WHERE t.category_id = $1 AND pe.phase_id = $2
		  AND t.deleted_at IS NULL AND pe.deleted_at IS NULL
		GROUP BY t.id
		ORDER BY t.registered_at, t.id`
	return r.listWithScores(ctx, query, categoryID, phaseID)
}
