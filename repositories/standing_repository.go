package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/steamcup/tournament-engine/models"
)

var ErrStandingNotFound = errors.New("tournament standing not found")

type StandingRepository interface {
	BatchCreate(ctx context.Context, exec SQLExecutor, standings []*models.TournamentStanding) error
	GetByTournamentAndTeam(ctx context.Context, exec SQLExecutor, tournamentID, teamID int) (*models.TournamentStanding, error)
	Update(ctx context.Context, exec SQLExecutor, standing *models.TournamentStanding) error
	// ListByTournament returns standings, optionally in placement order:
	// points desc, score difference desc, score for desc, team id asc.
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int, sortByPlacement bool) ([]*models.TournamentStanding, error)
}

type postgresStandingRepository struct {
	db *sql.DB
}

func NewPostgresStandingRepository(db *sql.DB) StandingRepository {
	return &postgresStandingRepository{db: db}
}

func (r *postgresStandingRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresStandingRepository) BatchCreate(ctx context.Context, exec SQLExecutor, standings []*models.TournamentStanding) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO tournament_standings
			(tournament_id, team_id, points, games_played, wins, draws, losses,
			 score_for, score_against, score_difference, rank, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id`

	for _, s := range standings {
		if s.UpdatedAt.IsZero() {
			s.UpdatedAt = time.Now()
		}
		err := executor.QueryRowContext(ctx, query,
			s.TournamentID, s.TeamID, s.Points, s.GamesPlayed, s.Wins, s.Draws, s.Losses,
			s.ScoreFor, s.ScoreAgainst, s.ScoreDifference, s.Rank, s.UpdatedAt,
		).Scan(&s.ID)
		if err != nil {
			return fmt.Errorf("failed to create standing for team %d: %w", s.TeamID, err)
		}
	}
	return nil
}

func (r *postgresStandingRepository) scanStanding(row interface{ Scan(...interface{}) error }) (*models.TournamentStanding, error) {
	var s models.TournamentStanding
	err := row.Scan(
		&s.ID, &s.TournamentID, &s.TeamID, &s.Points, &s.GamesPlayed,
		&s.Wins, &s.Draws, &s.Losses, &s.ScoreFor, &s.ScoreAgainst,
		&s.ScoreDifference, &s.Rank, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStandingNotFound
		}
		return nil, err
	}
	return &s, nil
}

const standingColumns = `id, tournament_id, team_id, points, games_played, wins, draws, losses,
	score_for, score_against, score_difference, rank, updated_at`

func (r *postgresStandingRepository) GetByTournamentAndTeam(ctx context.Context, exec SQLExecutor, tournamentID, teamID int) (*models.TournamentStanding, error) {
	query := `SELECT ` + standingColumns + `
		FROM tournament_standings
		WHERE tournament_id = $1 AND team_id = $2 AND deleted_at IS NULL`
	return r.scanStanding(r.getExecutor(exec).QueryRowContext(ctx, query, tournamentID, teamID))
}

func (r *postgresStandingRepository) Update(ctx context.Context, exec SQLExecutor, standing *models.TournamentStanding) error {
	query := `
		UPDATE tournament_standings SET
			points = $1, games_played = $2, wins = $3, draws = $4, losses = $5,
			score_for = $6, score_against = $7, score_difference = $8, rank = $9, updated_at = NOW()
		WHERE id = $10 AND deleted_at IS NULL`
	result, err := r.getExecutor(exec).ExecContext(ctx, query,
		standing.Points, standing.GamesPlayed, standing.Wins, standing.Draws, standing.Losses,
		standing.ScoreFor, standing.ScoreAgainst, standing.ScoreDifference, standing.Rank,
		standing.ID,
	)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrStandingNotFound)
}

func (r *postgresStandingRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int, sortByPlacement bool) ([]*models.TournamentStanding, error) {
	query := `SELECT ` + standingColumns + `
		FROM tournament_standings
		WHERE tournament_id = $1 AND deleted_at IS NULL`
	if sortByPlacement {
		query += ` ORDER BY points DESC, score_difference DESC, score_for DESC, team_id ASC`
	} else {
		query += ` ORDER BY team_id ASC`
	}

	rows, err := r.getExecutor(exec).QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query standings for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	standings := make([]*models.TournamentStanding, 0)
	for rows.Next() {
		s, scanErr := r.scanStanding(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		standings = append(standings, s)
	}
	return standings, rows.Err()
}
