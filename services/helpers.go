package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/steamcup/tournament-engine/models"
)

// runInTx wraps fn in a transaction. Rollback on error or panic is
// handled by the deferred call; Commit errors surface to the caller.
func runInTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

var allowedTournamentTransitions = map[models.TournamentStatus][]models.TournamentStatus{
	models.StatusSetup:      {models.StatusSeeding},
	models.StatusSeeding:    {models.StatusSeeding, models.StatusBracketed},
	models.StatusBracketed:  {models.StatusInProgress, models.StatusCompleted},
	models.StatusInProgress: {models.StatusCompleted},
	models.StatusCompleted:  {},
}

func isValidStatusTransition(current, next models.TournamentStatus) bool {
	for _, allowed := range allowedTournamentTransitions[current] {
		if next == allowed {
			return true
		}
	}
	return false
}

func derefInt(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func intPtr(v int) *int {
	return &v
}

func roomForTournament(tournamentID int) string {
	return fmt.Sprintf("tournament:%d", tournamentID)
}

func roomForEvent(eventID int) string {
	return fmt.Sprintf("event:%d", eventID)
}

func roomForPhase(phaseID int) string {
	return fmt.Sprintf("phase:%d", phaseID)
}
