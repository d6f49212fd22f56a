package brackets

import (
	"context"
	"fmt"
	"testing"

	"github.com/steamcup/tournament-engine/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedTeams(n int) []models.Seeding {
	// Seed k is team 100+k so results are easy to read in failures.
	seedings := make([]models.Seeding, n)
	for i := 0; i < n; i++ {
		seedings[i] = models.Seeding{TeamID: 100 + i + 1, SeedNumber: i + 1}
	}
	return seedings
}

func matchByUID(t *testing.T, matches []*BracketMatch, uid string) *BracketMatch {
	t.Helper()
	for _, m := range matches {
		if m.UID == uid {
			return m
		}
	}
	t.Fatalf("match %s not found", uid)
	return nil
}

func TestBracketOrder(t *testing.T) {
	assert.Equal(t, []int{1, 2}, bracketOrder(2))
	assert.Equal(t, []int{1, 4, 2, 3}, bracketOrder(4))
	assert.Equal(t, []int{1, 8, 4, 5, 2, 7, 3, 6}, bracketOrder(8))
}

func TestGenerateRound1Pairing(t *testing.T) {
	gen := NewSingleEliminationGenerator()
	matches, err := gen.Generate(context.Background(), GenerateParams{Seedings: seedTeams(8)})
	require.NoError(t, err)

	// Seed i must play seed 9-i in round 1.
	for _, m := range matches {
		if m.Round != 1 {
			continue
		}
		require.NotNil(t, m.Seed1)
		require.NotNil(t, m.Seed2)
		assert.Equal(t, 9, *m.Seed1+*m.Seed2, "round 1 pair %s", m.UID)
	}
}

func TestGenerateSixTeams(t *testing.T) {
	gen := NewSingleEliminationGenerator()
	matches, err := gen.Generate(context.Background(), GenerateParams{Seedings: seedTeams(6)})
	require.NoError(t, err)

	// bracket size 8: 4 round-1 matches, 2 semifinals, 1 final.
	assert.Len(t, matches, 7)

	byes := 0
	for _, m := range matches {
		if m.IsBye {
			byes++
			require.NotNil(t, m.ByeTeamID)
			byeSeed := m.Seed1
			if byeSeed == nil {
				byeSeed = m.Seed2
			}
			require.NotNil(t, byeSeed)
			assert.Contains(t, []int{1, 2}, *byeSeed, "byes go to the top seeds")
		}
	}
	assert.Equal(t, 2, byes)

	// Played round-1 matches are 3v6 and 4v5.
	playedPairs := map[int]bool{}
	for _, m := range matches {
		if m.Round == 1 && !m.IsBye {
			require.NotNil(t, m.Seed1)
			require.NotNil(t, m.Seed2)
			playedPairs[*m.Seed1] = true
			assert.Equal(t, 9, *m.Seed1+*m.Seed2)
		}
	}
	assert.Equal(t, map[int]bool{3: true, 4: true}, playedPairs)

	// Bye winners are pre-advanced into the semifinals: seed 1 (team
	// 101) and seed 2 (team 102) each occupy one semifinal slot.
	semiTeams := map[int]bool{}
	for _, m := range matches {
		if m.Round != 2 {
			continue
		}
		if m.Team1ID != nil {
			semiTeams[*m.Team1ID] = true
		}
		if m.Team2ID != nil {
			semiTeams[*m.Team2ID] = true
		}
	}
	assert.Equal(t, map[int]bool{101: true, 102: true}, semiTeams)
}

func TestGenerateTreeIsAcyclic(t *testing.T) {
	gen := NewSingleEliminationGenerator()

	for _, n := range []int{2, 3, 4, 5, 6, 7, 8, 13, 16} {
		t.Run(fmt.Sprintf("%d teams", n), func(t *testing.T) {
			matches, err := gen.Generate(context.Background(), GenerateParams{Seedings: seedTeams(n)})
			require.NoError(t, err)

			finals := 0
			for _, m := range matches {
				if m.NextMatchUID == nil {
					finals++
					continue
				}
				next := matchByUID(t, matches, *m.NextMatchUID)
				assert.Equal(t, m.Round+1, next.Round, "advancement must enter the next round")
			}
			assert.Equal(t, 1, finals, "exactly one match has no successor")
		})
	}
}

func TestGenerateRejectsTooFewTeams(t *testing.T) {
	gen := NewSingleEliminationGenerator()

	_, err := gen.Generate(context.Background(), GenerateParams{Seedings: seedTeams(1)})
	assert.ErrorIs(t, err, ErrNotEnoughSeedings)

	_, err = gen.Generate(context.Background(), GenerateParams{Seedings: nil})
	assert.ErrorIs(t, err, ErrNotEnoughSeedings)
}

func TestGenerateRejectsBrokenSeeding(t *testing.T) {
	gen := NewSingleEliminationGenerator()

	// Duplicate seed number.
	_, err := gen.Generate(context.Background(), GenerateParams{Seedings: []models.Seeding{
		{TeamID: 1, SeedNumber: 1},
		{TeamID: 2, SeedNumber: 1},
	}})
	assert.Error(t, err)

	// Gap in the sequence.
	_, err = gen.Generate(context.Background(), GenerateParams{Seedings: []models.Seeding{
		{TeamID: 1, SeedNumber: 1},
		{TeamID: 2, SeedNumber: 3},
	}})
	assert.Error(t, err)
}

func TestRoundName(t *testing.T) {
	assert.Equal(t, "Final", RoundName(3, 3, models.TournamentElimination))
	assert.Equal(t, "Semifinal", RoundName(2, 3, models.TournamentElimination))
	assert.Equal(t, "Quarterfinal", RoundName(1, 3, models.TournamentElimination))
	assert.Equal(t, "Round of 16", RoundName(1, 4, models.TournamentElimination))
	assert.Equal(t, "Round 2", RoundName(2, 5, models.TournamentRoundRobin))
}
