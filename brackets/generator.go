package brackets

import (
	"context"
	"fmt"

	"github.com/steamcup/tournament-engine/models"
)

// BracketMatch is one generated match in tournament-local coordinates.
// UIDs ("R2M1") tie the structure together before database ids exist;
// the bracket service maps them to rows in a second pass.
type BracketMatch struct {
	UID          string
	Round        int
	OrderInRound int

	Seed1 *int
	Seed2 *int

	Team1ID *int
	Team2ID *int

	SourceMatch1UID *string
	SourceMatch2UID *string
	NextMatchUID    *string

	IsBye     bool
	ByeTeamID *int
}

type GenerateParams struct {
	Tournament *models.Tournament
	Seedings   []models.Seeding
}

type Generator interface {
	Generate(ctx context.Context, params GenerateParams) ([]*BracketMatch, error)

	Name() string
}

// ForType returns the generator for a tournament type.
func ForType(t models.TournamentType) (Generator, error) {
	switch t {
	case models.TournamentElimination:
		return NewSingleEliminationGenerator(), nil
	case models.TournamentRoundRobin:
		return NewRoundRobinGenerator(), nil
	default:
		return nil, fmt.Errorf("unsupported tournament type %q", t)
	}
}

// RoundName labels a round for display: Final, Semifinal, Quarterfinal,
// then "Round of N" for everything earlier. Round-robin rounds are
// plain game days.
func RoundName(round, totalRounds int, tournamentType models.TournamentType) string {
	if tournamentType == models.TournamentRoundRobin {
		return fmt.Sprintf("Round %d", round)
	}
	remaining := totalRounds - round
	switch remaining {
	case 0:
		return "Final"
	case 1:
		return "Semifinal"
	case 2:
		return "Quarterfinal"
	default:
		return fmt.Sprintf("Round of %d", 1<<uint(remaining+1))
	}
}
