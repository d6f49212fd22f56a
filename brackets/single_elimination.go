package brackets

import (
	"context"
	"errors"
	"fmt"
	"math"
)

var ErrNotEnoughSeedings = errors.New("at least 2 seeded teams are required for an elimination bracket")

type SingleEliminationGenerator struct{}

func NewSingleEliminationGenerator() Generator {
	return &SingleEliminationGenerator{}
}

func (g *SingleEliminationGenerator) Name() string {
	return "SingleElimination"
}

// bracketOrder returns the seed numbers 1..size laid out in standard
// bracket position order, so that adjacent pairs are (i, size+1-i) and
// top seeds land in opposite halves. Built by repeated halving: start
// with {1} and expand each seed s at width w into (s, w+1-s).
func bracketOrder(size int) []int {
	order := []int{1}
	for len(order) < size {
		width := len(order) * 2
		next := make([]int, 0, width)
		for _, s := range order {
			next = append(next, s)
			next = append(next, width+1-s)
		}
		order = next
	}
	return order
}

// Generate builds a full single-elimination tree from the seeding.
// bracket size = next power of two >= N; seeds beyond N are byes, which
// by construction fall against the highest seeds first. Every match
// carries its NextMatchUID at generation time; the link never changes
// afterwards.
func (g *SingleEliminationGenerator) Generate(_ context.Context, params GenerateParams) ([]*BracketMatch, error) {
	seedings := params.Seedings
	n := len(seedings)
	if n < 2 {
		return nil, ErrNotEnoughSeedings
	}

	totalRounds := int(math.Ceil(math.Log2(float64(n))))
	size := 1 << uint(totalRounds)

	teamBySeed := make(map[int]int, n)
	for _, s := range seedings {
		teamBySeed[s.SeedNumber] = s.TeamID
	}
	if len(teamBySeed) != n {
		return nil, fmt.Errorf("seeding is not a permutation: %d teams share %d seed numbers", n, len(teamBySeed))
	}
	for seed := 1; seed <= n; seed++ {
		if _, ok := teamBySeed[seed]; !ok {
			return nil, fmt.Errorf("seeding is missing seed number %d", seed)
		}
	}

	matches := make([]*BracketMatch, 0, size-1)
	byUID := make(map[string]*BracketMatch, size-1)

	// Round 1 from the positional layout. A seed above N has no team:
	// its opponent gets a bye.
	order := bracketOrder(size)
	for i := 0; i < size; i += 2 {
		s1, s2 := order[i], order[i+1]
		bm := &BracketMatch{
			UID:          fmt.Sprintf("R1M%d", i/2+1),
			Round:        1,
			OrderInRound: i/2 + 1,
		}
		if s1 <= n {
			seed := s1
			team := teamBySeed[s1]
			bm.Seed1, bm.Team1ID = &seed, &team
		}
		if s2 <= n {
			seed := s2
			team := teamBySeed[s2]
			bm.Seed2, bm.Team2ID = &seed, &team
		}
		switch {
		case bm.Team1ID != nil && bm.Team2ID == nil:
			bm.IsBye = true
			bm.ByeTeamID = bm.Team1ID
		case bm.Team1ID == nil && bm.Team2ID != nil:
			bm.IsBye = true
			bm.ByeTeamID = bm.Team2ID
		case bm.Team1ID == nil && bm.Team2ID == nil:
			// size/2 < n <= size guarantees byes never pair up.
			return nil, fmt.Errorf("two byes paired in match %s", bm.UID)
		}
		matches = append(matches, bm)
		byUID[bm.UID] = bm
	}

	// Upper rounds: empty shells linked into a binary tree.
	for r := 2; r <= totalRounds; r++ {
		count := size >> uint(r)
		for k := 1; k <= count; k++ {
			bm := &BracketMatch{
				UID:          fmt.Sprintf("R%dM%d", r, k),
				Round:        r,
				OrderInRound: k,
			}
			child1 := byUID[fmt.Sprintf("R%dM%d", r-1, 2*k-1)]
			child2 := byUID[fmt.Sprintf("R%dM%d", r-1, 2*k)]
			bm.SourceMatch1UID = &child1.UID
			bm.SourceMatch2UID = &child2.UID
			child1.NextMatchUID = &bm.UID
			child2.NextMatchUID = &bm.UID
			matches = append(matches, bm)
			byUID[bm.UID] = bm
		}
	}

	// Pre-advance bye winners into their round-2 slots. Odd child order
	// feeds slot 1, even feeds slot 2.
	for _, bm := range matches {
		if !bm.IsBye || bm.NextMatchUID == nil {
			continue
		}
		parent := byUID[*bm.NextMatchUID]
		if bm.OrderInRound%2 != 0 {
			parent.Team1ID = bm.ByeTeamID
		} else {
			parent.Team2ID = bm.ByeTeamID
		}
	}

	return matches, nil
}
