package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/steamcup/tournament-engine/models"
)

var ErrRoundNotFound = errors.New("round not found")

type RoundRepository interface {
	Create(ctx context.Context, exec SQLExecutor, round *models.Round) error
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]models.Round, error)
}

type postgresRoundRepository struct {
	db *sql.DB
}

func NewPostgresRoundRepository(db *sql.DB) RoundRepository {
	return &postgresRoundRepository{db: db}
}

func (r *postgresRoundRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresRoundRepository) Create(ctx context.Context, exec SQLExecutor, round *models.Round) error {
	query := `
		INSERT INTO tournament_brackets (tournament_id, number, name)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`
	err := r.getExecutor(exec).QueryRowContext(ctx, query, round.TournamentID, round.Number, round.Name).
		Scan(&round.ID, &round.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create round %d for tournament %d: %w", round.Number, round.TournamentID, err)
	}
	return nil
}

func (r *postgresRoundRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]models.Round, error) {
	query := `
		SELECT id, tournament_id, number, name, created_at, deleted_at
		FROM tournament_brackets
		WHERE tournament_id = $1 AND deleted_at IS NULL
		ORDER BY number`
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query rounds for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	rounds := make([]models.Round, 0)
	for rows.Next() {
		var round models.Round
		if scanErr := rows.Scan(&round.ID, &round.TournamentID, &round.Number, &round.Name, &round.CreatedAt, &round.DeletedAt); scanErr != nil {
			return nil, fmt.Errorf("failed to scan round row: %w", scanErr)
		}
		rounds = append(rounds, round)
	}
	return rounds, rows.Err()
}
