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
	ErrSeedingNotFound     = errors.New("seeding not found")
	ErrSeedingDuplicate    = errors.New("team or seed number already seeded in this tournament")
	ErrSeedingTeamInvalid  = errors.New("seeding references an unknown team")
	ErrSeedingTournInvalid = errors.New("seeding references an unknown tournament")
)

type SeedingRepository interface {
	BatchCreate(ctx context.Context, exec SQLExecutor, seedings []*models.Seeding) error
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]models.Seeding, error)
	// SoftDeleteByTournament retires the current seeding so a recompute
	// or manual override can replace it while the audit row survives.
	SoftDeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) error
}

type postgresSeedingRepository struct {
	db *sql.DB
}

func NewPostgresSeedingRepository(db *sql.DB) SeedingRepository {
	return &postgresSeedingRepository{db: db}
}

func (r *postgresSeedingRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresSeedingRepository) BatchCreate(ctx context.Context, exec SQLExecutor, seedings []*models.Seeding) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO tournament_seedings (tournament_id, team_id, seed_number, score)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	for _, s := range seedings {
		err := executor.QueryRowContext(ctx, query,
			s.TournamentID, s.TeamID, s.SeedNumber, s.Score,
		).Scan(&s.ID, &s.CreatedAt)
		if err != nil {
			return r.handleSeedingError(err)
		}
	}
	return nil
}

func (r *postgresSeedingRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]models.Seeding, error) {
	query := `
		SELECT id, tournament_id, team_id, seed_number, score, created_at, deleted_at
		FROM tournament_seedings
		WHERE tournament_id = $1 AND deleted_at IS NULL
		ORDER BY seed_number`
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query seedings for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	seedings := make([]models.Seeding, 0)
	for rows.Next() {
		var s models.Seeding
		if scanErr := rows.Scan(&s.ID, &s.TournamentID, &s.TeamID, &s.SeedNumber, &s.Score, &s.CreatedAt, &s.DeletedAt); scanErr != nil {
			return nil, fmt.Errorf("failed to scan seeding row: %w", scanErr)
		}
		seedings = append(seedings, s)
	}
	return seedings, rows.Err()
}

func (r *postgresSeedingRepository) SoftDeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) error {
	query := `UPDATE tournament_seedings SET deleted_at = NOW() WHERE tournament_id = $1 AND deleted_at IS NULL`
	_, err := r.getExecutor(exec).ExecContext(ctx, query, tournamentID)
	if err != nil {
		return fmt.Errorf("failed to retire seedings for tournament %d: %w", tournamentID, err)
	}
	return nil
}

func (r *postgresSeedingRepository) handleSeedingError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Constraint {
		case "tournament_seedings_tournament_team_key", "tournament_seedings_tournament_seed_key":
			return ErrSeedingDuplicate
		case "tournament_seedings_team_id_fkey":
			return ErrSeedingTeamInvalid
		case "tournament_seedings_tournament_id_fkey":
			return ErrSeedingTournInvalid
		}
	}
	return err
}
