package brackets

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundRobinCompleteness(t *testing.T) {
	gen := NewRoundRobinGenerator()

	for _, n := range []int{2, 3, 4, 5, 6, 7, 10} {
		t.Run(fmt.Sprintf("%d teams", n), func(t *testing.T) {
			matches, err := gen.Generate(context.Background(), GenerateParams{Seedings: seedTeams(n)})
			require.NoError(t, err)

			// Exactly C(N,2) matches.
			assert.Len(t, matches, n*(n-1)/2)

			appearances := map[int]int{}
			perRound := map[int]map[int]bool{}
			pairs := map[[2]int]bool{}

			for _, m := range matches {
				require.NotNil(t, m.Team1ID)
				require.NotNil(t, m.Team2ID)
				require.NotEqual(t, *m.Team1ID, *m.Team2ID)

				appearances[*m.Team1ID]++
				appearances[*m.Team2ID]++

				if perRound[m.Round] == nil {
					perRound[m.Round] = map[int]bool{}
				}
				for _, id := range []int{*m.Team1ID, *m.Team2ID} {
					assert.False(t, perRound[m.Round][id], "team %d plays twice in round %d", id, m.Round)
					perRound[m.Round][id] = true
				}

				a, b := *m.Team1ID, *m.Team2ID
				if a > b {
					a, b = b, a
				}
				key := [2]int{a, b}
				assert.False(t, pairs[key], "pair %v scheduled twice", key)
				pairs[key] = true
			}

			// Each team appears in exactly N-1 matches.
			require.Len(t, appearances, n)
			for id, count := range appearances {
				assert.Equal(t, n-1, count, "team %d", id)
			}
		})
	}
}

func TestRoundRobinRoundCount(t *testing.T) {
	gen := NewRoundRobinGenerator()

	// Even N plays N-1 rounds; odd N pads to N+1 slots and plays N
	// rounds, each team resting once.
	matches, err := gen.Generate(context.Background(), GenerateParams{Seedings: seedTeams(4)})
	require.NoError(t, err)
	maxRound := 0
	for _, m := range matches {
		if m.Round > maxRound {
			maxRound = m.Round
		}
	}
	assert.Equal(t, 3, maxRound)

	matches, err = gen.Generate(context.Background(), GenerateParams{Seedings: seedTeams(5)})
	require.NoError(t, err)
	maxRound = 0
	for _, m := range matches {
		if m.Round > maxRound {
			maxRound = m.Round
		}
	}
	assert.Equal(t, 5, maxRound)
}

func TestRoundRobinRejectsTooFewTeams(t *testing.T) {
	gen := NewRoundRobinGenerator()
	_, err := gen.Generate(context.Background(), GenerateParams{Seedings: seedTeams(1)})
	assert.ErrorIs(t, err, ErrNotEnoughSeedings)
}
