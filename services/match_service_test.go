package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steamcup/tournament-engine/models"
)

func readyMatch(team1, team2 int) *models.Match {
	return &models.Match{
		ID:      1,
		Team1ID: intPtr(team1),
		Team2ID: intPtr(team2),
		Status:  models.MatchReady,
	}
}

func TestDecideOutcome(t *testing.T) {
	elimination := &models.Tournament{Type: models.TournamentElimination}
	roundRobinDraws := &models.Tournament{Type: models.TournamentRoundRobin, AllowDraws: true}
	roundRobinStrict := &models.Tournament{Type: models.TournamentRoundRobin, AllowDraws: false}

	tests := []struct {
		name       string
		input      MatchResultInput
		tournament *models.Tournament
		wantWinner *int
		wantStatus models.MatchStatus
		wantDraw   bool
		wantErr    error
	}{
		{
			name:       "team1 wins on score",
			input:      MatchResultInput{Team1Score: 120, Team2Score: 85},
			tournament: elimination,
			wantWinner: intPtr(10),
			wantStatus: models.MatchCompleted,
		},
		{
			name:       "team2 wins on score",
			input:      MatchResultInput{Team1Score: 40, Team2Score: 95},
			tournament: elimination,
			wantWinner: intPtr(20),
			wantStatus: models.MatchCompleted,
		},
		{
			name:       "tie in elimination is ambiguous",
			input:      MatchResultInput{Team1Score: 77, Team2Score: 77},
			tournament: elimination,
			wantErr:    ErrAmbiguousResult,
		},
		{
			name:       "tie in round-robin without draws is ambiguous",
			input:      MatchResultInput{Team1Score: 50, Team2Score: 50},
			tournament: roundRobinStrict,
			wantErr:    ErrAmbiguousResult,
		},
		{
			name:       "tie in round-robin with draws allowed",
			input:      MatchResultInput{Team1Score: 50, Team2Score: 50},
			tournament: roundRobinDraws,
			wantStatus: models.MatchCompleted,
			wantDraw:   true,
		},
		{
			name:       "forfeit overrides scores",
			input:      MatchResultInput{Team1Score: 100, Team2Score: 0, ForfeitTeamID: intPtr(10)},
			tournament: elimination,
			wantWinner: intPtr(20),
			wantStatus: models.MatchForfeit,
		},
		{
			name:       "forfeit settles a tie",
			input:      MatchResultInput{Team1Score: 60, Team2Score: 60, ForfeitTeamID: intPtr(20)},
			tournament: roundRobinStrict,
			wantWinner: intPtr(10),
			wantStatus: models.MatchForfeit,
		},
		{
			name:       "forfeit by a team not in the match",
			input:      MatchResultInput{Team1Score: 1, Team2Score: 0, ForfeitTeamID: intPtr(99)},
			tournament: elimination,
			wantErr:    ErrValidation,
		},
		{
			name:       "negative score rejected",
			input:      MatchResultInput{Team1Score: -1, Team2Score: 3},
			tournament: elimination,
			wantErr:    ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome, err := decideOutcome(readyMatch(10, 20), tt.input, tt.tournament)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, outcome.Status)
			assert.Equal(t, tt.wantDraw, outcome.IsDraw)
			if tt.wantWinner != nil {
				require.NotNil(t, outcome.WinnerTeamID)
				assert.Equal(t, *tt.wantWinner, *outcome.WinnerTeamID)
			} else {
				assert.Nil(t, outcome.WinnerTeamID)
			}
		})
	}
}

func TestApplyMatchToStandings(t *testing.T) {
	match := readyMatch(10, 20)
	match.Team1Score = intPtr(90)
	match.Team2Score = intPtr(70)
	win := matchOutcome{WinnerTeamID: intPtr(10), LoserTeamID: intPtr(20), Status: models.MatchCompleted}

	winner := &models.TournamentStanding{TeamID: 10}
	applyMatchToStandings(winner, match, win)
	assert.Equal(t, 3, winner.Points)
	assert.Equal(t, 1, winner.Wins)
	assert.Equal(t, 1, winner.GamesPlayed)
	assert.Equal(t, 90, winner.ScoreFor)
	assert.Equal(t, 70, winner.ScoreAgainst)
	assert.Equal(t, 20, winner.ScoreDifference)

	loser := &models.TournamentStanding{TeamID: 20}
	applyMatchToStandings(loser, match, win)
	assert.Equal(t, 0, loser.Points)
	assert.Equal(t, 1, loser.Losses)
	assert.Equal(t, -20, loser.ScoreDifference)
}

func TestApplyMatchToStandingsDraw(t *testing.T) {
	match := readyMatch(10, 20)
	match.Team1Score = intPtr(55)
	match.Team2Score = intPtr(55)
	draw := matchOutcome{Status: models.MatchCompleted, IsDraw: true}

	for _, teamID := range []int{10, 20} {
		standing := &models.TournamentStanding{TeamID: teamID}
		applyMatchToStandings(standing, match, draw)
		assert.Equal(t, 1, standing.Points)
		assert.Equal(t, 1, standing.Draws)
		assert.Equal(t, 0, standing.ScoreDifference)
	}
}

func TestApplyMatchToStandingsAccumulates(t *testing.T) {
	standing := &models.TournamentStanding{TeamID: 10, Points: 3, Wins: 1, GamesPlayed: 1, ScoreFor: 80, ScoreAgainst: 60, ScoreDifference: 20}

	match := readyMatch(10, 30)
	match.Team1Score = intPtr(40)
	match.Team2Score = intPtr(65)
	loss := matchOutcome{WinnerTeamID: intPtr(30), LoserTeamID: intPtr(10), Status: models.MatchCompleted}

	applyMatchToStandings(standing, match, loss)
	assert.Equal(t, 3, standing.Points)
	assert.Equal(t, 2, standing.GamesPlayed)
	assert.Equal(t, 1, standing.Losses)
	assert.Equal(t, 120, standing.ScoreFor)
	assert.Equal(t, 125, standing.ScoreAgainst)
	assert.Equal(t, -5, standing.ScoreDifference)
}

func TestTournamentStatusTransitions(t *testing.T) {
	assert.True(t, isValidStatusTransition(models.StatusSetup, models.StatusSeeding))
	assert.True(t, isValidStatusTransition(models.StatusSeeding, models.StatusBracketed))
	assert.True(t, isValidStatusTransition(models.StatusBracketed, models.StatusInProgress))
	assert.True(t, isValidStatusTransition(models.StatusInProgress, models.StatusCompleted))

	assert.False(t, isValidStatusTransition(models.StatusSetup, models.StatusBracketed))
	assert.False(t, isValidStatusTransition(models.StatusCompleted, models.StatusInProgress))
	assert.False(t, isValidStatusTransition(models.StatusBracketed, models.StatusSeeding))
}
