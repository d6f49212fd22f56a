package services

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/steamcup/tournament-engine/brackets"
	"github.com/steamcup/tournament-engine/models"
	"github.com/steamcup/tournament-engine/repositories"
)

// MatchResultInput carries a reported result. ForfeitTeamID names the
// team that forfeited; when set, scores are recorded as given but the
// other team wins regardless of them.
type MatchResultInput struct {
	Team1Score    int  `json:"team1_score"`
	Team2Score    int  `json:"team2_score"`
	ForfeitTeamID *int `json:"forfeit_team_id,omitempty"`
}

type MatchService interface {
	// RecordResult settles a match and runs every consequence in one
	// transaction: winner advancement into the next bracket slot,
	// round-robin standings, and tournament completion when this was
	// the last undecided match.
	RecordResult(ctx context.Context, matchID int, input MatchResultInput) (*models.Match, error)
	GetMatch(ctx context.Context, matchID int) (*models.Match, error)
	ListMatches(ctx context.Context, tournamentID int, round *int, status *models.MatchStatus) ([]*models.Match, error)
}

type matchService struct {
	db             *sql.DB
	tournamentRepo repositories.TournamentRepository
	matchRepo      repositories.MatchRepository
	standingRepo   repositories.StandingRepository
	snapshots      SnapshotService
	hub            *brackets.Hub
	logger         *slog.Logger
}

func NewMatchService(
	db *sql.DB,
	tournamentRepo repositories.TournamentRepository,
	matchRepo repositories.MatchRepository,
	standingRepo repositories.StandingRepository,
	snapshots SnapshotService,
	hub *brackets.Hub,
	logger *slog.Logger,
) MatchService {
	return &matchService{
		db:             db,
		tournamentRepo: tournamentRepo,
		matchRepo:      matchRepo,
		standingRepo:   standingRepo,
		snapshots:      snapshots,
		hub:            hub,
		logger:         logger,
	}
}

func (s *matchService) GetMatch(ctx context.Context, matchID int) (*models.Match, error) {
	return s.matchRepo.GetByID(ctx, nil, matchID)
}

func (s *matchService) ListMatches(ctx context.Context, tournamentID int, round *int, status *models.MatchStatus) ([]*models.Match, error) {
	return s.matchRepo.ListByTournament(ctx, nil, tournamentID, round, status)
}

func (s *matchService) RecordResult(ctx context.Context, matchID int, input MatchResultInput) (*models.Match, error) {
	var (
		match          *models.Match
		winnerDeclared *int
		completedNow   bool
	)

	err := runInTx(ctx, s.db, func(tx *sql.Tx) error {
		var err error
		match, err = s.matchRepo.GetByIDForUpdate(ctx, tx, matchID)
		if err != nil {
			return err
		}
		if match.Status != models.MatchReady {
			return fmt.Errorf("%w: match %d is %q, results are accepted only when ready",
				ErrInvalidState, matchID, match.Status)
		}

		tournament, err := s.tournamentRepo.GetByIDForUpdate(ctx, tx, match.TournamentID)
		if err != nil {
			return err
		}

		outcome, err := decideOutcome(match, input, tournament)
		if err != nil {
			return err
		}

		match.Team1Score = intPtr(input.Team1Score)
		match.Team2Score = intPtr(input.Team2Score)
		match.WinnerTeamID = outcome.WinnerTeamID
		match.LoserTeamID = outcome.LoserTeamID
		match.Status = outcome.Status
		if err := s.matchRepo.UpdateResult(ctx, tx, match); err != nil {
			return err
		}

		if tournament.Status == models.StatusBracketed {
			if err := s.tournamentRepo.UpdateStatus(ctx, tx, tournament.ID, models.StatusInProgress); err != nil {
				return err
			}
			tournament.Status = models.StatusInProgress
		}

		switch tournament.Type {
		case models.TournamentElimination:
			err = s.settleElimination(ctx, tx, tournament, match, &winnerDeclared, &completedNow)
		case models.TournamentRoundRobin:
			err = s.settleRoundRobin(ctx, tx, tournament, match, outcome, &winnerDeclared, &completedNow)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("match result recorded",
		slog.Int("match_id", matchID),
		slog.Int("tournament_id", match.TournamentID),
		slog.Int("winner_team_id", derefInt(match.WinnerTeamID)))

	room := roomForTournament(match.TournamentID)
	s.hub.BroadcastToRoom(room, brackets.Message{Type: brackets.EventMatchUpdated, Payload: match})
	if completedNow {
		s.hub.BroadcastToRoom(room, brackets.Message{
			Type: brackets.EventTournamentWinner,
			Payload: map[string]interface{}{
				"tournament_id":  match.TournamentID,
				"winner_team_id": derefInt(winnerDeclared),
			},
		})
		s.archiveAsync(match.TournamentID)
	}
	return match, nil
}

// settleElimination pushes the winner into the first empty slot of the
// next match, or declares the tournament winner when this was the
// final.
func (s *matchService) settleElimination(ctx context.Context, tx *sql.Tx, tournament *models.Tournament, match *models.Match, winnerDeclared **int, completedNow *bool) error {
	if match.WinnerTeamID == nil {
		return nil
	}

	if match.NextMatchID == nil {
		*winnerDeclared = match.WinnerTeamID
		*completedNow = true
		if err := s.tournamentRepo.SetWinner(ctx, tx, tournament.ID, *match.WinnerTeamID); err != nil {
			return err
		}
		return s.tournamentRepo.UpdateStatus(ctx, tx, tournament.ID, models.StatusCompleted)
	}

	next, err := s.matchRepo.GetByIDForUpdate(ctx, tx, *match.NextMatchID)
	if err != nil {
		return err
	}
	if next.Contains(*match.WinnerTeamID) {
		return nil
	}

	switch {
	case next.Team1ID == nil:
		next.Team1ID = match.WinnerTeamID
	case next.Team2ID == nil:
		next.Team2ID = match.WinnerTeamID
	default:
		return fmt.Errorf("%w: next match %d already has both teams", ErrInvalidState, next.ID)
	}

	status := models.MatchPending
	if next.HasBothTeams() {
		status = models.MatchReady
	}
	return s.matchRepo.UpdateTeams(ctx, tx, next.ID, next.Team1ID, next.Team2ID, status)
}

func (s *matchService) settleRoundRobin(ctx context.Context, tx *sql.Tx, tournament *models.Tournament, match *models.Match, outcome matchOutcome, winnerDeclared **int, completedNow *bool) error {
	for _, teamID := range []int{*match.Team1ID, *match.Team2ID} {
		standing, err := s.standingRepo.GetByTournamentAndTeam(ctx, tx, tournament.ID, teamID)
		if err != nil {
			return err
		}
		applyMatchToStandings(standing, match, outcome)
		if err := s.standingRepo.Update(ctx, tx, standing); err != nil {
			return err
		}
	}

	pending, err := s.countUnfinished(ctx, tx, tournament.ID)
	if err != nil {
		return err
	}
	if pending > 0 {
		return nil
	}

	standings, err := s.standingRepo.ListByTournament(ctx, tx, tournament.ID, true)
	if err != nil {
		return err
	}
	for i, st := range standings {
		st.Rank = intPtr(i + 1)
		if err := s.standingRepo.Update(ctx, tx, st); err != nil {
			return err
		}
	}
	if len(standings) == 0 {
		return fmt.Errorf("tournament %d finished with no standings", tournament.ID)
	}

	top := standings[0].TeamID
	*winnerDeclared = intPtr(top)
	*completedNow = true
	if err := s.tournamentRepo.SetWinner(ctx, tx, tournament.ID, top); err != nil {
		return err
	}
	return s.tournamentRepo.UpdateStatus(ctx, tx, tournament.ID, models.StatusCompleted)
}

func (s *matchService) countUnfinished(ctx context.Context, tx *sql.Tx, tournamentID int) (int, error) {
	matches, err := s.matchRepo.ListByTournament(ctx, tx, tournamentID, nil, nil)
	if err != nil {
		return 0, err
	}
	unfinished := 0
	for _, m := range matches {
		if m.Status != models.MatchCompleted && m.Status != models.MatchForfeit {
			unfinished++
		}
	}
	return unfinished, nil
}

// archiveAsync uploads the final tournament snapshot outside the
// request. Failures are logged, never surfaced: the result is already
// committed.
func (s *matchService) archiveAsync(tournamentID int) {
	if s.snapshots == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		key, err := s.snapshots.ArchiveTournament(ctx, tournamentID)
		if err != nil {
			s.logger.Error("failed to archive tournament snapshot",
				slog.Int("tournament_id", tournamentID),
				slog.String("error", err.Error()))
			return
		}
		s.logger.Info("tournament snapshot archived",
			slog.Int("tournament_id", tournamentID),
			slog.String("key", key))
	}()
}

type matchOutcome struct {
	WinnerTeamID *int
	LoserTeamID  *int
	Status       models.MatchStatus
	IsDraw       bool
}

// decideOutcome turns raw scores plus an optional forfeit into a
// settled outcome. Draws exist only in round-robin tournaments that
// allow them; everywhere else a tie without a forfeit is ambiguous and
// rejected.
func decideOutcome(match *models.Match, input MatchResultInput, tournament *models.Tournament) (matchOutcome, error) {
	if input.Team1Score < 0 || input.Team2Score < 0 {
		return matchOutcome{}, fmt.Errorf("%w: scores must be non-negative", ErrValidation)
	}

	if input.ForfeitTeamID != nil {
		if !match.Contains(*input.ForfeitTeamID) {
			return matchOutcome{}, fmt.Errorf("%w: team %d is not in match %d", ErrValidation, *input.ForfeitTeamID, match.ID)
		}
		winner := *match.Team1ID
		loser := *match.Team2ID
		if *input.ForfeitTeamID == winner {
			winner, loser = loser, winner
		}
		return matchOutcome{
			WinnerTeamID: intPtr(winner),
			LoserTeamID:  intPtr(loser),
			Status:       models.MatchForfeit,
		}, nil
	}

	switch {
	case input.Team1Score > input.Team2Score:
		return matchOutcome{WinnerTeamID: match.Team1ID, LoserTeamID: match.Team2ID, Status: models.MatchCompleted}, nil
	case input.Team2Score > input.Team1Score:
		return matchOutcome{WinnerTeamID: match.Team2ID, LoserTeamID: match.Team1ID, Status: models.MatchCompleted}, nil
	default:
		if tournament.Type == models.TournamentRoundRobin && tournament.AllowDraws {
			return matchOutcome{Status: models.MatchCompleted, IsDraw: true}, nil
		}
		return matchOutcome{}, fmt.Errorf("%w: match %d ended %d:%d", ErrAmbiguousResult, match.ID, input.Team1Score, input.Team2Score)
	}
}

// applyMatchToStandings folds one settled match into a team's standing
// row. Points: win 3, draw 1, loss 0. Forfeits score as recorded.
func applyMatchToStandings(standing *models.TournamentStanding, match *models.Match, outcome matchOutcome) {
	var scoreFor, scoreAgainst int
	if *match.Team1ID == standing.TeamID {
		scoreFor, scoreAgainst = derefInt(match.Team1Score), derefInt(match.Team2Score)
	} else {
		scoreFor, scoreAgainst = derefInt(match.Team2Score), derefInt(match.Team1Score)
	}

	standing.GamesPlayed++
	standing.ScoreFor += scoreFor
	standing.ScoreAgainst += scoreAgainst
	standing.ScoreDifference = standing.ScoreFor - standing.ScoreAgainst

	switch {
	case outcome.IsDraw:
		standing.Draws++
		standing.Points++
	case outcome.WinnerTeamID != nil && *outcome.WinnerTeamID == standing.TeamID:
		standing.Wins++
		standing.Points += 3
	default:
		standing.Losses++
	}
}
