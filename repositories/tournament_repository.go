package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/steamcup/tournament-engine/models"
)

var ErrTournamentNotFound = errors.New("tournament not found")

type TournamentRepository interface {
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Tournament, error)
	// GetByIDForUpdate reads the tournament row with a row-level lock,
	// serializing seeding, bracket generation and result recording for
	// one tournament. Must be called inside a transaction.
	GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Tournament, error)
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.TournamentStatus) error
	SetWinner(ctx context.Context, exec SQLExecutor, id int, winnerTeamID int) error
	ListByPhaseAndCategory(ctx context.Context, exec SQLExecutor, phaseID, categoryID int) ([]*models.Tournament, error)
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

func (r *postgresTournamentRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const tournamentColumns = `id, name, phase_id, category_id, type, max_teams, advance_count,
	seeding_method, allow_draws, status, winner_team_id, created_at, deleted_at`

func scanTournament(row interface{ Scan(...interface{}) error }) (*models.Tournament, error) {
	var t models.Tournament
	err := row.Scan(
		&t.ID, &t.Name, &t.PhaseID, &t.CategoryID, &t.Type, &t.MaxTeams, &t.AdvanceCount,
		&t.SeedingMethod, &t.AllowDraws, &t.Status, &t.WinnerTeamID, &t.CreatedAt, &t.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments WHERE id = $1 AND deleted_at IS NULL`
	return scanTournament(r.getExecutor(exec).QueryRowContext(ctx, query, id))
}

func (r *postgresTournamentRepository) GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`
	return scanTournament(r.getExecutor(exec).QueryRowContext(ctx, query, id))
}

func (r *postgresTournamentRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.TournamentStatus) error {
	query := `UPDATE tournaments SET status = $1 WHERE id = $2 AND deleted_at IS NULL`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update status for tournament %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) SetWinner(ctx context.Context, exec SQLExecutor, id int, winnerTeamID int) error {
	query := `UPDATE tournaments SET winner_team_id = $1 WHERE id = $2 AND deleted_at IS NULL`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, winnerTeamID, id)
	if err != nil {
		return fmt.Errorf("failed to set winner for tournament %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) ListByPhaseAndCategory(ctx context.Context, exec SQLExecutor, phaseID, categoryID int) ([]*models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + `
		FROM tournaments
		WHERE phase_id = $1 AND category_id = $2 AND deleted_at IS NULL
		ORDER BY id`
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, phaseID, categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tournaments for phase %d category %d: %w", phaseID, categoryID, err)
	}
	defer rows.Close()

	tournaments := make([]*models.Tournament, 0)
	for rows.Next() {
		t, scanErr := scanTournament(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		tournaments = append(tournaments, t)
	}
	return tournaments, rows.Err()
}
