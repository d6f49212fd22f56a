package services

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/steamcup/tournament-engine/models"
	"github.com/steamcup/tournament-engine/ranking"
	"github.com/steamcup/tournament-engine/repositories"
)

// SeedAssignment is one entry of a manual seeding override.
type SeedAssignment struct {
	TeamID     int `json:"team_id"`
	SeedNumber int `json:"seed_number"`
}

type SeedingService interface {
	// CalculateSeeding ranks registered teams by aggregate score and
	// assigns seed numbers 1..N. Allowed while the tournament is in
	// setup or seeding (recomputing replaces the previous seeding).
	CalculateSeeding(ctx context.Context, tournamentID int) ([]models.Seeding, error)
	// ApplyManualSeeding replaces the seeding with an explicit mapping,
	// which must still be a permutation of 1..N over the registered
	// teams.
	ApplyManualSeeding(ctx context.Context, tournamentID int, assignments []SeedAssignment) ([]models.Seeding, error)
}

type seedingService struct {
	db             *sql.DB
	tournamentRepo repositories.TournamentRepository
	teamRepo       repositories.TeamRepository
	seedingRepo    repositories.SeedingRepository
	logger         *slog.Logger
}

func NewSeedingService(
	db *sql.DB,
	tournamentRepo repositories.TournamentRepository,
	teamRepo repositories.TeamRepository,
	seedingRepo repositories.SeedingRepository,
	logger *slog.Logger,
) SeedingService {
	return &seedingService{
		db:             db,
		tournamentRepo: tournamentRepo,
		teamRepo:       teamRepo,
		seedingRepo:    seedingRepo,
		logger:         logger,
	}
}

func (s *seedingService) CalculateSeeding(ctx context.Context, tournamentID int) ([]models.Seeding, error) {
	teams, err := s.teamRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams for tournament %d: %w", tournamentID, err)
	}
	if len(teams) < 2 {
		return nil, fmt.Errorf("%w: tournament %d has %d", ErrNotEnoughTeams, tournamentID, len(teams))
	}

	entries := make([]ranking.Entry, len(teams))
	for i, team := range teams {
		entries[i] = ranking.Entry{TeamID: team.ID, Score: team.AverageScore, RegisteredAt: team.RegisteredAt}
	}
	ranked := ranking.Rank(entries)

	seedings := make([]*models.Seeding, len(ranked))
	for i, r := range ranked {
		seedings[i] = &models.Seeding{
			TournamentID: tournamentID,
			TeamID:       r.TeamID,
			SeedNumber:   r.Rank,
			Score:        r.Score,
		}
	}

	err = runInTx(ctx, s.db, func(tx *sql.Tx) error {
		tournament, err := s.tournamentRepo.GetByIDForUpdate(ctx, tx, tournamentID)
		if err != nil {
			return err
		}
		if tournament.Status != models.StatusSetup && tournament.Status != models.StatusSeeding {
			return fmt.Errorf("%w: cannot seed tournament %d in status %q", ErrInvalidState, tournamentID, tournament.Status)
		}

		if err := s.seedingRepo.SoftDeleteByTournament(ctx, tx, tournamentID); err != nil {
			return err
		}
		if err := s.seedingRepo.BatchCreate(ctx, tx, seedings); err != nil {
			return err
		}
		return s.tournamentRepo.UpdateStatus(ctx, tx, tournamentID, models.StatusSeeding)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("seeding calculated",
		slog.Int("tournament_id", tournamentID),
		slog.Int("teams", len(seedings)))

	result := make([]models.Seeding, len(seedings))
	for i, seeding := range seedings {
		result[i] = *seeding
	}
	return result, nil
}

func (s *seedingService) ApplyManualSeeding(ctx context.Context, tournamentID int, assignments []SeedAssignment) ([]models.Seeding, error) {
	teams, err := s.teamRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams for tournament %d: %w", tournamentID, err)
	}

	if err := validateSeedPermutation(teams, assignments); err != nil {
		return nil, err
	}

	scoreByTeam := make(map[int]float64, len(teams))
	for _, team := range teams {
		scoreByTeam[team.ID] = team.AverageScore
	}

	seedings := make([]*models.Seeding, len(assignments))
	for i, a := range assignments {
		seedings[i] = &models.Seeding{
			TournamentID: tournamentID,
			TeamID:       a.TeamID,
			SeedNumber:   a.SeedNumber,
			Score:        scoreByTeam[a.TeamID],
		}
	}

	err = runInTx(ctx, s.db, func(tx *sql.Tx) error {
		tournament, err := s.tournamentRepo.GetByIDForUpdate(ctx, tx, tournamentID)
		if err != nil {
			return err
		}
		if tournament.Status != models.StatusSeeding {
			return fmt.Errorf("%w: manual seeding requires status %q, tournament %d is %q",
				ErrInvalidState, models.StatusSeeding, tournamentID, tournament.Status)
		}

		if err := s.seedingRepo.SoftDeleteByTournament(ctx, tx, tournamentID); err != nil {
			return err
		}
		return s.seedingRepo.BatchCreate(ctx, tx, seedings)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("manual seeding applied", slog.Int("tournament_id", tournamentID))

	result := make([]models.Seeding, len(seedings))
	for i, seeding := range seedings {
		result[i] = *seeding
	}
	return result, nil
}

// validateSeedPermutation checks that assignments cover every
// registered team exactly once and that the seed numbers are exactly
// {1..N}.
func validateSeedPermutation(teams []*models.Team, assignments []SeedAssignment) error {
	if len(assignments) != len(teams) {
		return fmt.Errorf("%w: %d assignments for %d registered teams", ErrValidation, len(assignments), len(teams))
	}

	registered := make(map[int]bool, len(teams))
	for _, team := range teams {
		registered[team.ID] = true
	}

	seenTeams := make(map[int]bool, len(assignments))
	seenSeeds := make(map[int]bool, len(assignments))
	for _, a := range assignments {
		if !registered[a.TeamID] {
			return fmt.Errorf("%w: team %d is not registered for this tournament", ErrValidation, a.TeamID)
		}
		if seenTeams[a.TeamID] {
			return fmt.Errorf("%w: team %d assigned more than once", ErrValidation, a.TeamID)
		}
		seenTeams[a.TeamID] = true

		if a.SeedNumber < 1 || a.SeedNumber > len(teams) {
			return fmt.Errorf("%w: seed number %d outside 1..%d", ErrValidation, a.SeedNumber, len(teams))
		}
		if seenSeeds[a.SeedNumber] {
			return fmt.Errorf("%w: seed number %d assigned more than once", ErrValidation, a.SeedNumber)
		}
		seenSeeds[a.SeedNumber] = true
	}
	return nil
}
