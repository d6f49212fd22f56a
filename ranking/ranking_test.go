package ranking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ts(minute int) time.Time {
	return time.Date(2026, 3, 14, 9, minute, 0, 0, time.UTC)
}

func TestRankOrdering(t *testing.T) {
	testCases := []struct {
		name     string
		entries  []Entry
		expected []int // team ids in rank order
	}{
		{
			name: "score descending",
			entries: []Entry{
				{TeamID: 1, Score: 50, RegisteredAt: ts(0)},
				{TeamID: 2, Score: 90, RegisteredAt: ts(1)},
				{TeamID: 3, Score: 70, RegisteredAt: ts(2)},
			},
			expected: []int{2, 3, 1},
		},
		{
			name: "tie broken by earlier registration",
			entries: []Entry{
				{TeamID: 1, Score: 80, RegisteredAt: ts(30)},
				{TeamID: 2, Score: 80, RegisteredAt: ts(10)},
				{TeamID: 3, Score: 80, RegisteredAt: ts(20)},
			},
			expected: []int{2, 3, 1},
		},
		{
			name: "same score and time falls back to team id",
			entries: []Entry{
				{TeamID: 9, Score: 60, RegisteredAt: ts(5)},
				{TeamID: 4, Score: 60, RegisteredAt: ts(5)},
			},
			expected: []int{4, 9},
		},
		{
			name:     "empty input",
			entries:  []Entry{},
			expected: []int{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ranked := Rank(tc.entries)
			require.Len(t, ranked, len(tc.expected))
			for i, teamID := range tc.expected {
				assert.Equal(t, teamID, ranked[i].TeamID)
				assert.Equal(t, i+1, ranked[i].Rank)
			}
		})
	}
}

func TestRankDoesNotMutateInput(t *testing.T) {
	entries := []Entry{
		{TeamID: 1, Score: 10, RegisteredAt: ts(0)},
		{TeamID: 2, Score: 20, RegisteredAt: ts(1)},
	}
	Rank(entries)
	assert.Equal(t, 1, entries[0].TeamID)
	assert.Equal(t, 2, entries[1].TeamID)
}

func TestTop(t *testing.T) {
	ranked := Rank([]Entry{
		{TeamID: 1, Score: 30, RegisteredAt: ts(0)},
		{TeamID: 2, Score: 20, RegisteredAt: ts(1)},
		{TeamID: 3, Score: 10, RegisteredAt: ts(2)},
	})

	assert.Len(t, Top(ranked, 2), 2)
	assert.Len(t, Top(ranked, 10), 3)
	assert.Empty(t, Top(ranked, 0))
	assert.Empty(t, Top(ranked, -1))
	assert.Equal(t, 1, Top(ranked, 1)[0].TeamID)
}
