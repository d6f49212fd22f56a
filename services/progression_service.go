package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/steamcup/tournament-engine/brackets"
	"github.com/steamcup/tournament-engine/models"
	"github.com/steamcup/tournament-engine/ranking"
	"github.com/steamcup/tournament-engine/repositories"
)

// AdvanceInput describes one progression run. TeamIDs narrows the run
// to an explicit set; when empty, the top-ranked teams of the category
// fill the destination's remaining capacity.
type AdvanceInput struct {
	FromPhaseID int                    `json:"from_phase_id"`
	CategoryID  int                    `json:"category_id"`
	TeamIDs     []int                  `json:"team_ids,omitempty"`
	Mode        models.CompetitionMode `json:"mode"`
}

type ProgressionService interface {
	// AdvanceTeams qualifies teams out of a phase into the next one
	// (or, in pilot mode, the phase's skip target). The destination's
	// capacity is checked and filled under a phase-row lock; the whole
	// run commits or nothing does.
	AdvanceTeams(ctx context.Context, input AdvanceInput) ([]*models.PhaseProgression, error)
	ListProgressions(ctx context.Context, toPhaseID int, categoryID *int) ([]*models.PhaseProgression, error)
	RevokeProgression(ctx context.Context, progressionID int) error
}

type progressionService struct {
	db              *sql.DB
	phaseRepo       repositories.PhaseRepository
	progressionRepo repositories.ProgressionRepository
	teamRepo        repositories.TeamRepository
	defaultMode     models.CompetitionMode
	hub             *brackets.Hub
	logger          *slog.Logger
}

// NewProgressionService wires the progression path. defaultMode is the
// deployment-wide competition mode; requests that leave mode unset
// inherit it.
func NewProgressionService(
	db *sql.DB,
	phaseRepo repositories.PhaseRepository,
	progressionRepo repositories.ProgressionRepository,
	teamRepo repositories.TeamRepository,
	defaultMode models.CompetitionMode,
	hub *brackets.Hub,
	logger *slog.Logger,
) ProgressionService {
	return &progressionService{
		db:              db,
		phaseRepo:       phaseRepo,
		progressionRepo: progressionRepo,
		teamRepo:        teamRepo,
		defaultMode:     defaultMode,
		hub:             hub,
		logger:          logger,
	}
}

// resolveMode falls back to the service-wide default when the request
// leaves the mode unset.
func resolveMode(requested, fallback models.CompetitionMode) (models.CompetitionMode, error) {
	mode := requested
	if mode == "" {
		mode = fallback
	}
	if mode == "" {
		mode = models.ModeFull
	}
	if mode != models.ModeFull && mode != models.ModePilot {
		return "", fmt.Errorf("%w: unknown competition mode %q", ErrValidation, mode)
	}
	return mode, nil
}

func (s *progressionService) AdvanceTeams(ctx context.Context, input AdvanceInput) ([]*models.PhaseProgression, error) {
	mode, err := resolveMode(input.Mode, s.defaultMode)
	if err != nil {
		return nil, err
	}
	input.Mode = mode

	fromPhase, err := s.phaseRepo.GetByID(ctx, nil, input.FromPhaseID)
	if err != nil {
		return nil, err
	}

	teams, err := s.teamRepo.ListByCategoryAndPhase(ctx, input.CategoryID, input.FromPhaseID)
	if err != nil {
		return nil, err
	}
	if len(teams) == 0 {
		return nil, fmt.Errorf("%w: no teams in category %d for phase %d", ErrValidation, input.CategoryID, input.FromPhaseID)
	}

	entries := make([]ranking.Entry, len(teams))
	for i, team := range teams {
		entries[i] = ranking.Entry{TeamID: team.ID, Score: team.AverageScore, RegisteredAt: team.RegisteredAt}
	}
	ranked := ranking.Rank(entries)

	if len(input.TeamIDs) > 0 {
		ranked, err = filterRanked(ranked, input.TeamIDs)
		if err != nil {
			return nil, err
		}
	}

	var created []*models.PhaseProgression
	err = runInTx(ctx, s.db, func(tx *sql.Tx) error {
		toPhase, skipped, err := s.resolveDestination(ctx, tx, fromPhase, input.Mode)
		if err != nil {
			return err
		}

		capacity, err := s.phaseRepo.GetCapacity(ctx, tx, toPhase.ID, input.CategoryID)
		if err != nil {
			return err
		}
		occupied, err := s.progressionRepo.CountByPhaseAndCategory(ctx, tx, toPhase.ID, input.CategoryID)
		if err != nil {
			return err
		}
		remaining := capacity - occupied
		if remaining <= 0 {
			return fmt.Errorf("%w: phase %d category %d is full (%d/%d)",
				ErrCapacityExceeded, toPhase.ID, input.CategoryID, occupied, capacity)
		}

		qualifiers := ranked
		if len(input.TeamIDs) > 0 {
			// Explicit lists are all-or-nothing.
			if len(qualifiers) > remaining {
				return fmt.Errorf("%w: %d teams requested, %d seats left in phase %d category %d",
					ErrCapacityExceeded, len(qualifiers), remaining, toPhase.ID, input.CategoryID)
			}
		} else {
			qualifiers = ranking.Top(ranked, remaining)
		}

		created = buildProgressionRecords(qualifiers, fromPhase, toPhase, skipped, input.CategoryID)
		if err := s.progressionRepo.BatchCreate(ctx, tx, created); err != nil {
			if errors.Is(err, repositories.ErrProgressionDuplicate) {
				return fmt.Errorf("%w: %v", ErrDuplicateProgression, err)
			}
			return err
		}

		skippedName := ""
		if skipped != nil {
			skippedName = skipped.Name
		}
		s.logger.Info("teams advanced",
			slog.Int("from_phase_id", fromPhase.ID),
			slog.Int("to_phase_id", toPhase.ID),
			slog.Int("category_id", input.CategoryID),
			slog.Int("teams", len(created)),
			slog.String("skipped_phase", skippedName))
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.hub.BroadcastToRoom(roomForPhase(input.FromPhaseID), brackets.Message{
		Type:    brackets.EventTeamsAdvanced,
		Payload: created,
	})
	return created, nil
}

// resolveDestination picks and locks the phase the teams move into. In
// pilot mode a configured skip target overrides the sequence order;
// the phase it bypasses is returned so the audit record can name it.
func (s *progressionService) resolveDestination(ctx context.Context, tx *sql.Tx, fromPhase *models.Phase, mode models.CompetitionMode) (*models.Phase, *models.Phase, error) {
	if mode == models.ModePilot && fromPhase.SkipToPhaseID != nil {
		toPhase, err := s.phaseRepo.GetByIDForUpdate(ctx, tx, *fromPhase.SkipToPhaseID)
		if err != nil {
			return nil, nil, err
		}
		bypassed, err := s.phaseRepo.GetByOrderSequence(ctx, tx, fromPhase.OrderSequence+1)
		if err != nil && !errors.Is(err, repositories.ErrPhaseNotFound) {
			return nil, nil, err
		}
		if bypassed != nil && bypassed.ID != toPhase.ID {
			return toPhase, bypassed, nil
		}
		// Skip target turned out to be the next phase anyway.
		return toPhase, nil, nil
	}

	next, err := s.phaseRepo.GetByOrderSequence(ctx, tx, fromPhase.OrderSequence+1)
	if err != nil {
		if errors.Is(err, repositories.ErrPhaseNotFound) {
			return nil, nil, fmt.Errorf("%w: phase %q is the final phase", ErrInvalidState, fromPhase.Name)
		}
		return nil, nil, err
	}
	toPhase, err := s.phaseRepo.GetByIDForUpdate(ctx, tx, next.ID)
	if err != nil {
		return nil, nil, err
	}
	return toPhase, nil, nil
}

func (s *progressionService) ListProgressions(ctx context.Context, toPhaseID int, categoryID *int) ([]*models.PhaseProgression, error) {
	return s.progressionRepo.ListByPhase(ctx, nil, toPhaseID, categoryID)
}

func (s *progressionService) RevokeProgression(ctx context.Context, progressionID int) error {
	return s.progressionRepo.SoftDelete(ctx, nil, progressionID)
}

// filterRanked keeps only the requested teams, preserving rank order.
// Every requested team must be present in the ranking.
func filterRanked(ranked []ranking.Ranked, teamIDs []int) ([]ranking.Ranked, error) {
	wanted := make(map[int]bool, len(teamIDs))
	for _, id := range teamIDs {
		wanted[id] = true
	}

	filtered := make([]ranking.Ranked, 0, len(teamIDs))
	for _, r := range ranked {
		if wanted[r.TeamID] {
			filtered = append(filtered, r)
			delete(wanted, r.TeamID)
		}
	}
	if len(wanted) > 0 {
		for id := range wanted {
			return nil, fmt.Errorf("%w: team %d is not in this category and phase", ErrValidation, id)
		}
	}
	return filtered, nil
}

func buildProgressionRecords(qualifiers []ranking.Ranked, fromPhase, toPhase, skipped *models.Phase, categoryID int) []*models.PhaseProgression {
	reason := fmt.Sprintf("qualified from %s", fromPhase.Name)
	if skipped != nil {
		reason = fmt.Sprintf("advanced from %s directly to %s, %s skipped (pilot mode)",
			fromPhase.Name, toPhase.Name, skipped.Name)
	}

	records := make([]*models.PhaseProgression, len(qualifiers))
	for i, q := range qualifiers {
		records[i] = &models.PhaseProgression{
			TeamID:            q.TeamID,
			FromPhaseID:       intPtr(fromPhase.ID),
			ToPhaseID:         toPhase.ID,
			CategoryID:        categoryID,
			Score:             q.Score,
			RankInCategory:    q.Rank,
			Qualified:         true,
			AdvancementReason: reason,
		}
	}
	return records
}
