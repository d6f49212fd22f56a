package models

import "time"

type MatchStatus string

const (
	MatchPending   MatchStatus = "pending"
	MatchReady     MatchStatus = "ready"
	MatchCompleted MatchStatus = "completed"
	MatchForfeit   MatchStatus = "forfeit"
)

// Match is a node in the advancement graph. NextMatchID is the only
// ownership edge: it always points into a strictly later round, so the
// graph is a forest and the invariant is checkable structurally.
type Match struct {
	ID           int  `json:"id" db:"id"`
	TournamentID int  `json:"tournament_id" db:"tournament_id"`
	RoundID      int  `json:"round_id" db:"round_id"`
	RoundNumber  int  `json:"round_number" db:"round_number"`
	Number       int  `json:"number" db:"number"`
	Team1ID      *int `json:"team1_id,omitempty" db:"team1_id"`
	Team2ID      *int `json:"team2_id,omitempty" db:"team2_id"`
	Team1Score   *int `json:"team1_score,omitempty" db:"team1_score"`
	Team2Score   *int `json:"team2_score,omitempty" db:"team2_score"`
	WinnerTeamID *int `json:"winner_team_id,omitempty" db:"winner_team_id"`
	LoserTeamID  *int `json:"loser_team_id,omitempty" db:"loser_team_id"`

	Status      MatchStatus `json:"status" db:"status"`
	IsBye       bool        `json:"is_bye" db:"is_bye"`
	NextMatchID *int        `json:"next_match_id,omitempty" db:"next_match_id"`

	BracketUID *string    `json:"bracket_uid,omitempty" db:"bracket_uid"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	DeletedAt  *time.Time `json:"-" db:"deleted_at"`
}

// HasBothTeams reports whether both slots of the match are filled.
func (m *Match) HasBothTeams() bool {
	return m.Team1ID != nil && m.Team2ID != nil
}

// Contains reports whether teamID occupies one of the match slots.
func (m *Match) Contains(teamID int) bool {
	return (m.Team1ID != nil && *m.Team1ID == teamID) ||
		(m.Team2ID != nil && *m.Team2ID == teamID)
}
