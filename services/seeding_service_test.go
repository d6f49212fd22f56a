package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steamcup/tournament-engine/models"
)

func registeredTeams(ids ...int) []*models.Team {
	teams := make([]*models.Team, len(ids))
	for i, id := range ids {
		teams[i] = &models.Team{ID: id}
	}
	return teams
}

func TestValidateSeedPermutation(t *testing.T) {
	teams := registeredTeams(10, 20, 30, 40)

	tests := []struct {
		name        string
		assignments []SeedAssignment
		wantErr     bool
	}{
		{
			name: "valid permutation",
			assignments: []SeedAssignment{
				{TeamID: 30, SeedNumber: 1},
				{TeamID: 10, SeedNumber: 2},
				{TeamID: 40, SeedNumber: 3},
				{TeamID: 20, SeedNumber: 4},
			},
		},
		{
			name: "missing team",
			assignments: []SeedAssignment{
				{TeamID: 10, SeedNumber: 1},
				{TeamID: 20, SeedNumber: 2},
				{TeamID: 30, SeedNumber: 3},
			},
			wantErr: true,
		},
		{
			name: "unregistered team",
			assignments: []SeedAssignment{
				{TeamID: 10, SeedNumber: 1},
				{TeamID: 20, SeedNumber: 2},
				{TeamID: 30, SeedNumber: 3},
				{TeamID: 99, SeedNumber: 4},
			},
			wantErr: true,
		},
		{
			name: "duplicate seed number",
			assignments: []SeedAssignment{
				{TeamID: 10, SeedNumber: 1},
				{TeamID: 20, SeedNumber: 1},
				{TeamID: 30, SeedNumber: 3},
				{TeamID: 40, SeedNumber: 4},
			},
			wantErr: true,
		},
		{
			name: "duplicate team",
			assignments: []SeedAssignment{
				{TeamID: 10, SeedNumber: 1},
				{TeamID: 10, SeedNumber: 2},
				{TeamID: 30, SeedNumber: 3},
				{TeamID: 40, SeedNumber: 4},
			},
			wantErr: true,
		},
		{
			name: "seed number out of range",
			assignments: []SeedAssignment{
				{TeamID: 10, SeedNumber: 1},
				{TeamID: 20, SeedNumber: 2},
				{TeamID: 30, SeedNumber: 3},
				{TeamID: 40, SeedNumber: 5},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateSeedPermutation(teams, tt.assignments)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrValidation)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
