package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"
	"github.com/steamcup/tournament-engine/models"
)

var (
	ErrMatchNotFound          = errors.New("match not found")
	ErrMatchTournamentInvalid = errors.New("match references an unknown tournament")
	ErrMatchTeamInvalid       = errors.New("match references an unknown team")
)

type MatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, match *models.Match) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error)
	// GetByIDForUpdate locks the match row; advancement writes the
	// winner into the next match, so both rows are locked in order.
	GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error)
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int, round *int, status *models.MatchStatus) ([]*models.Match, error)
	UpdateNextMatchID(ctx context.Context, exec SQLExecutor, matchID int, nextMatchID *int) error
	UpdateTeams(ctx context.Context, exec SQLExecutor, matchID int, team1ID, team2ID *int, status models.MatchStatus) error
	UpdateResult(ctx context.Context, exec SQLExecutor, match *models.Match) error
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

func (r *postgresMatchRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const matchColumns = `id, tournament_id, round_id, round_number, number, team1_id, team2_id,
	team1_score, team2_score, winner_team_id, loser_team_id, status, is_bye,
	next_match_id, bracket_uid, created_at, deleted_at`

func scanMatch(row interface{ Scan(...interface{}) error }) (*models.Match, error) {
	var m models.Match
	err := row.Scan(
		&m.ID, &m.TournamentID, &m.RoundID, &m.RoundNumber, &m.Number, &m.Team1ID, &m.Team2ID,
		&m.Team1Score, &m.Team2Score, &m.WinnerTeamID, &m.LoserTeamID, &m.Status, &m.IsBye,
		&m.NextMatchID, &m.BracketUID, &m.CreatedAt, &m.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *postgresMatchRepository) Create(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	query := `
		INSERT INTO tournament_matches
			(tournament_id, round_id, round_number, number, team1_id, team2_id,
			 team1_score, team2_score, winner_team_id, loser_team_id, status, is_bye,
			 next_match_id, bracket_uid)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, created_at`

	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		match.TournamentID, match.RoundID, match.RoundNumber, match.Number,
		match.Team1ID, match.Team2ID, match.Team1Score, match.Team2Score,
		match.WinnerTeamID, match.LoserTeamID, match.Status, match.IsBye,
		match.NextMatchID, match.BracketUID,
	).Scan(&match.ID, &match.CreatedAt)

	return r.handleMatchError(err)
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM tournament_matches WHERE id = $1 AND deleted_at IS NULL`
	return scanMatch(r.getExecutor(exec).QueryRowContext(ctx, query, id))
}

func (r *postgresMatchRepository) GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM tournament_matches WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`
	return scanMatch(r.getExecutor(exec).QueryRowContext(ctx, query, id))
}

func (r *postgresMatchRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int, round *int, status *models.MatchStatus) ([]*models.Match, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + matchColumns + ` FROM tournament_matches WHERE tournament_id = $1 AND deleted_at IS NULL`)

	args := []interface{}{tournamentID}
	placeholder := 2

	if round != nil {
		queryBuilder.WriteString(" AND round_number = $" + strconv.Itoa(placeholder))
		args = append(args, *round)
		placeholder++
	}
	if status != nil {
		queryBuilder.WriteString(" AND status = $" + strconv.Itoa(placeholder))
		args = append(args, *status)
	}
	queryBuilder.WriteString(" ORDER BY round_number, number")

	rows, err := r.getExecutor(exec).QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		m, scanErr := scanMatch(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

func (r *postgresMatchRepository) UpdateNextMatchID(ctx context.Context, exec SQLExecutor, matchID int, nextMatchID *int) error {
	query := `UPDATE tournament_matches SET next_match_id = $1 WHERE id = $2 AND deleted_at IS NULL`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, nextMatchID, matchID)
	if err != nil {
		return fmt.Errorf("failed to link match %d: %w", matchID, err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) UpdateTeams(ctx context.Context, exec SQLExecutor, matchID int, team1ID, team2ID *int, status models.MatchStatus) error {
	query := `UPDATE tournament_matches SET team1_id = $1, team2_id = $2, status = $3 WHERE id = $4 AND deleted_at IS NULL`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, team1ID, team2ID, status, matchID)
	if err != nil {
		return r.handleMatchError(err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) UpdateResult(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	query := `
		UPDATE tournament_matches
		SET team1_score = $1, team2_score = $2, winner_team_id = $3, loser_team_id = $4, status = $5
		WHERE id = $6 AND deleted_at IS NULL`
	result, err := r.getExecutor(exec).ExecContext(ctx, query,
		match.Team1Score, match.Team2Score, match.WinnerTeamID, match.LoserTeamID, match.Status, match.ID)
	if err != nil {
		return r.handleMatchError(err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) handleMatchError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Constraint {
		case "tournament_matches_tournament_id_fkey":
			return ErrMatchTournamentInvalid
		case "tournament_matches_team1_id_fkey", "tournament_matches_team2_id_fkey",
			"tournament_matches_winner_team_id_fkey", "tournament_matches_loser_team_id_fkey":
			return ErrMatchTeamInvalid
		}
	}
	return err
}
