// Package ranking implements the ordering used by both seeding and
// phase progression as an explicit, testable sort+rank function.
// Tie-break policy: higher score first, then earlier registration,
// then lower team id.
package ranking

import (
	"sort"
	"time"
)

// Entry is one team in the ranking input.
type Entry struct {
	TeamID       int
	Score        float64
	RegisteredAt time.Time
}

// Ranked is an Entry with its assigned 1-based rank.
type Ranked struct {
	Entry
	Rank int
}

// Rank orders entries by score descending and assigns ranks 1..N.
// Equal scores never share a rank: the tie-break makes the order total,
// so the result is a strict permutation suitable for seed numbers.
func Rank(entries []Entry) []Ranked {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)

	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Score != sorted[j].Score {
			return sorted[i].Score > sorted[j].Score
		}
		if !sorted[i].RegisteredAt.Equal(sorted[j].RegisteredAt) {
			return sorted[i].RegisteredAt.Before(sorted[j].RegisteredAt)
		}
		return sorted[i].TeamID < sorted[j].TeamID
	})

	ranked := make([]Ranked, len(sorted))
	for i, e := range sorted {
		ranked[i] = Ranked{Entry: e, Rank: i + 1}
	}
	return ranked
}

// Top returns the first k ranked entries (all of them when k exceeds
// the input length). k <= 0 yields an empty slice.
func Top(ranked []Ranked, k int) []Ranked {
	if k <= 0 {
		return []Ranked{}
	}
	if k > len(ranked) {
		k = len(ranked)
	}
	return ranked[:k]
}
