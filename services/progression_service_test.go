package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steamcup/tournament-engine/models"
	"github.com/steamcup/tournament-engine/ranking"
)

func rankedTeams(t *testing.T, n int) []ranking.Ranked {
	t.Helper()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	entries := make([]ranking.Entry, n)
	for i := 0; i < n; i++ {
		// Team 101 scores highest, team 100+n lowest.
		entries[i] = ranking.Entry{
			TeamID:       101 + i,
			Score:        float64(200 - i),
			RegisteredAt: base.Add(time.Duration(i) * time.Minute),
		}
	}
	return ranking.Rank(entries)
}

func TestBuildProgressionRecords(t *testing.T) {
	from := &models.Phase{ID: 1, Name: "Regional", OrderSequence: 1}
	to := &models.Phase{ID: 2, Name: "National", OrderSequence: 2}

	records := buildProgressionRecords(rankedTeams(t, 3), from, to, nil, 7)
	require.Len(t, records, 3)

	for i, record := range records {
		assert.Equal(t, 101+i, record.TeamID)
		assert.Equal(t, i+1, record.RankInCategory)
		assert.Equal(t, 2, record.ToPhaseID)
		assert.Equal(t, 1, *record.FromPhaseID)
		assert.Equal(t, 7, record.CategoryID)
		assert.True(t, record.Qualified)
		assert.Equal(t, "qualified from Regional", record.AdvancementReason)
	}
}

func TestBuildProgressionRecordsSkip(t *testing.T) {
	from := &models.Phase{ID: 1, Name: "Regional", OrderSequence: 1, SkipToPhaseID: intPtr(3)}
	skipped := &models.Phase{ID: 2, Name: "Provincial", OrderSequence: 2}
	to := &models.Phase{ID: 3, Name: "Final", OrderSequence: 3}

	records := buildProgressionRecords(rankedTeams(t, 1), from, to, skipped, 7)
	require.Len(t, records, 1)
	assert.Contains(t, records[0].AdvancementReason, "pilot mode")
	assert.Contains(t, records[0].AdvancementReason, "Final")
	// The bypassed phase is named so the audit trail records the skip.
	assert.Contains(t, records[0].AdvancementReason, "Provincial skipped")
}

func TestResolveMode(t *testing.T) {
	tests := []struct {
		name      string
		requested models.CompetitionMode
		fallback  models.CompetitionMode
		want      models.CompetitionMode
		wantErr   bool
	}{
		{"explicit pilot", models.ModePilot, models.ModeFull, models.ModePilot, false},
		{"explicit full overrides pilot default", models.ModeFull, models.ModePilot, models.ModeFull, false},
		{"unset inherits configured default", "", models.ModePilot, models.ModePilot, false},
		{"unset with unset default", "", "", models.ModeFull, false},
		{"unknown mode", "rehearsal", models.ModeFull, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveMode(tt.requested, tt.fallback)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFilterRanked(t *testing.T) {
	ranked := rankedTeams(t, 30)

	// Capacity 6: only the top six of a 30-team category qualify.
	top := ranking.Top(ranked, 6)
	require.Len(t, top, 6)
	assert.Equal(t, 101, top[0].TeamID)
	assert.Equal(t, 106, top[5].TeamID)

	filtered, err := filterRanked(ranked, []int{110, 103, 125})
	require.NoError(t, err)
	require.Len(t, filtered, 3)
	// Rank order is preserved regardless of request order.
	assert.Equal(t, 103, filtered[0].TeamID)
	assert.Equal(t, 110, filtered[1].TeamID)
	assert.Equal(t, 125, filtered[2].TeamID)

	_, err = filterRanked(ranked, []int{103, 999})
	require.ErrorIs(t, err, ErrValidation)
}
