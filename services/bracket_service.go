package services

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/steamcup/tournament-engine/brackets"
	"github.com/steamcup/tournament-engine/models"
	"github.com/steamcup/tournament-engine/repositories"
)

type BracketService interface {
	// GenerateEliminationBracket builds all rounds and matches for a
	// seeded elimination tournament, byes already advanced. Moves the
	// tournament to bracketed.
	GenerateEliminationBracket(ctx context.Context, tournamentID int) (*models.Tournament, error)
	// GenerateRoundRobin builds the complete round-robin schedule plus
	// zeroed standings for a seeded round-robin tournament.
	GenerateRoundRobin(ctx context.Context, tournamentID int) (*models.Tournament, error)
	// GetFullTournamentData returns the tournament with seedings,
	// rounds, matches and standings attached.
	GetFullTournamentData(ctx context.Context, tournamentID int) (*models.Tournament, error)
}

type bracketService struct {
	db             *sql.DB
	tournamentRepo repositories.TournamentRepository
	seedingRepo    repositories.SeedingRepository
	roundRepo      repositories.RoundRepository
	matchRepo      repositories.MatchRepository
	standingRepo   repositories.StandingRepository
	hub            *brackets.Hub
	logger         *slog.Logger
}

func NewBracketService(
	db *sql.DB,
	tournamentRepo repositories.TournamentRepository,
	seedingRepo repositories.SeedingRepository,
	roundRepo repositories.RoundRepository,
	matchRepo repositories.MatchRepository,
	standingRepo repositories.StandingRepository,
	hub *brackets.Hub,
	logger *slog.Logger,
) BracketService {
	return &bracketService{
		db:             db,
		tournamentRepo: tournamentRepo,
		seedingRepo:    seedingRepo,
		roundRepo:      roundRepo,
		matchRepo:      matchRepo,
		standingRepo:   standingRepo,
		hub:            hub,
		logger:         logger,
	}
}

func (s *bracketService) GenerateEliminationBracket(ctx context.Context, tournamentID int) (*models.Tournament, error) {
	return s.generate(ctx, tournamentID, models.TournamentElimination)
}

func (s *bracketService) GenerateRoundRobin(ctx context.Context, tournamentID int) (*models.Tournament, error) {
	return s.generate(ctx, tournamentID, models.TournamentRoundRobin)
}

func (s *bracketService) generate(ctx context.Context, tournamentID int, want models.TournamentType) (*models.Tournament, error) {
	var tournament *models.Tournament

	err := runInTx(ctx, s.db, func(tx *sql.Tx) error {
		var err error
		tournament, err = s.tournamentRepo.GetByIDForUpdate(ctx, tx, tournamentID)
		if err != nil {
			return err
		}
		if tournament.Type != want {
			return fmt.Errorf("%w: tournament %d is %q, not %q", ErrValidation, tournamentID, tournament.Type, want)
		}
		if !isValidStatusTransition(tournament.Status, models.StatusBracketed) {
			return fmt.Errorf("%w: cannot generate bracket for tournament %d in status %q",
				ErrInvalidState, tournamentID, tournament.Status)
		}

		seedings, err := s.seedingRepo.ListByTournament(ctx, tx, tournamentID)
		if err != nil {
			return err
		}
		if len(seedings) == 0 {
			return fmt.Errorf("%w: tournament %d", ErrSeedingMissing, tournamentID)
		}

		generator, err := brackets.ForType(tournament.Type)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrValidation, err)
		}
		generated, err := generator.Generate(ctx, brackets.GenerateParams{
			Tournament: tournament,
			Seedings:   seedings,
		})
		if err != nil {
			return err
		}

		if err := s.persistBracket(ctx, tx, tournament, generated); err != nil {
			return err
		}

		if tournament.Type == models.TournamentRoundRobin {
			if err := s.initStandings(ctx, tx, tournamentID, seedings); err != nil {
				return err
			}
		}

		tournament.Status = models.StatusBracketed
		return s.tournamentRepo.UpdateStatus(ctx, tx, tournamentID, models.StatusBracketed)
	})
	if err != nil {
		return nil, err
	}

	full, err := s.GetFullTournamentData(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("bracket generated",
		slog.Int("tournament_id", tournamentID),
		slog.String("type", string(full.Type)),
		slog.Int("matches", len(full.Matches)))

	s.hub.BroadcastToRoom(roomForTournament(tournamentID), brackets.Message{
		Type:    brackets.EventBracketGenerated,
		Payload: full,
	})
	return full, nil
}

// persistBracket writes rounds and matches in two passes: insert every
// match first so database ids exist, then link next_match_id using the
// generator's UID graph. Both passes run in the caller's transaction.
func (s *bracketService) persistBracket(ctx context.Context, tx *sql.Tx, tournament *models.Tournament, generated []*brackets.BracketMatch) error {
	totalRounds := 0
	for _, bm := range generated {
		if bm.Round > totalRounds {
			totalRounds = bm.Round
		}
	}

	roundIDs := make(map[int]int, totalRounds)
	for number := 1; number <= totalRounds; number++ {
		round := &models.Round{
			TournamentID: tournament.ID,
			Number:       number,
			Name:         brackets.RoundName(number, totalRounds, tournament.Type),
		}
		if err := s.roundRepo.Create(ctx, tx, round); err != nil {
			return err
		}
		roundIDs[number] = round.ID
	}

	idByUID := make(map[string]int, len(generated))
	for _, bm := range generated {
		match := &models.Match{
			TournamentID: tournament.ID,
			RoundID:      roundIDs[bm.Round],
			RoundNumber:  bm.Round,
			Number:       bm.OrderInRound,
			Team1ID:      bm.Team1ID,
			Team2ID:      bm.Team2ID,
			IsBye:        bm.IsBye,
			BracketUID:   &bm.UID,
			Status:       models.MatchPending,
		}
		switch {
		case bm.IsBye:
			// Byes are materialized as completed matches so the
			// advancement graph never has holes.
			match.Status = models.MatchCompleted
			match.WinnerTeamID = bm.ByeTeamID
		case match.HasBothTeams():
			match.Status = models.MatchReady
		}
		if err := s.matchRepo.Create(ctx, tx, match); err != nil {
			return err
		}
		idByUID[bm.UID] = match.ID
	}

	for _, bm := range generated {
		if bm.NextMatchUID == nil {
			continue
		}
		nextID, ok := idByUID[*bm.NextMatchUID]
		if !ok {
			return fmt.Errorf("generated bracket references unknown match %q", *bm.NextMatchUID)
		}
		if err := s.matchRepo.UpdateNextMatchID(ctx, tx, idByUID[bm.UID], &nextID); err != nil {
			return err
		}
	}
	return nil
}

func (s *bracketService) initStandings(ctx context.Context, tx *sql.Tx, tournamentID int, seedings []models.Seeding) error {
	standings := make([]*models.TournamentStanding, len(seedings))
	for i, seeding := range seedings {
		standings[i] = &models.TournamentStanding{
			TournamentID: tournamentID,
			TeamID:       seeding.TeamID,
		}
	}
	return s.standingRepo.BatchCreate(ctx, tx, standings)
}

func (s *bracketService) GetFullTournamentData(ctx context.Context, tournamentID int) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, nil, tournamentID)
	if err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		seedings, err := s.seedingRepo.ListByTournament(gctx, nil, tournamentID)
		if err != nil {
			return err
		}
		tournament.Seedings = seedings
		return nil
	})
	g.Go(func() error {
		rounds, err := s.roundRepo.ListByTournament(gctx, nil, tournamentID)
		if err != nil {
			return err
		}
		tournament.Rounds = rounds
		return nil
	})
	g.Go(func() error {
		matches, err := s.matchRepo.ListByTournament(gctx, nil, tournamentID, nil, nil)
		if err != nil {
			return err
		}
		tournament.Matches = make([]models.Match, len(matches))
		for i, m := range matches {
			tournament.Matches[i] = *m
		}
		return nil
	})
	if tournament.Type == models.TournamentRoundRobin {
		g.Go(func() error {
			standings, err := s.standingRepo.ListByTournament(gctx, nil, tournamentID, true)
			if err != nil {
				return err
			}
			tournament.Standings = make([]models.TournamentStanding, len(standings))
			for i, st := range standings {
				tournament.Standings[i] = *st
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return tournament, nil
}
