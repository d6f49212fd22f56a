package brackets

import (
	"context"
	"fmt"
)

type RoundRobinGenerator struct{}

func NewRoundRobinGenerator() Generator {
	return &RoundRobinGenerator{}
}

func (g *RoundRobinGenerator) Name() string {
	return "RoundRobin"
}

// Generate schedules all C(N,2) pairings with the circle method: pin
// the first team, rotate the rest one position per round. Each team
// plays at most once per round; with an odd team count a phantom slot
// gives one team a rest day per round. Seed order only sets the initial
// arrangement, it carries no competitive weight here.
func (g *RoundRobinGenerator) Generate(_ context.Context, params GenerateParams) ([]*BracketMatch, error) {
	seedings := params.Seedings
	if len(seedings) < 2 {
		return nil, ErrNotEnoughSeedings
	}

	teams := make([]*int, 0, len(seedings)+1)
	for i := range seedings {
		teams = append(teams, &seedings[i].TeamID)
	}
	if len(teams)%2 != 0 {
		teams = append(teams, nil) // rest slot
	}

	n := len(teams)
	rounds := n - 1
	half := n / 2

	matches := make([]*BracketMatch, 0, rounds*half)
	for r := 1; r <= rounds; r++ {
		orderInRound := 0
		for i := 0; i < half; i++ {
			t1, t2 := teams[i], teams[n-1-i]
			if t1 == nil || t2 == nil {
				continue
			}
			orderInRound++
			matches = append(matches, &BracketMatch{
				UID:          fmt.Sprintf("R%dM%d", r, orderInRound),
				Round:        r,
				OrderInRound: orderInRound,
				Team1ID:      t1,
				Team2ID:      t2,
			})
		}

		// Rotate everything except the first element.
		rotated := make([]*int, n)
		rotated[0] = teams[0]
		rotated[1] = teams[n-1]
		copy(rotated[2:], teams[1:n-1])
		teams = rotated
	}

	return matches, nil
}
