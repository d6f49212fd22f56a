package models

import "time"

// TournamentStanding accumulates round-robin results for one team.
// Used only for final placement, never to block scheduling.
type TournamentStanding struct {
	ID              int        `json:"id" db:"id"`
	TournamentID    int        `json:"tournament_id" db:"tournament_id"`
	TeamID          int        `json:"team_id" db:"team_id"`
	Points          int        `json:"points" db:"points"`
	GamesPlayed     int        `json:"games_played" db:"games_played"`
	Wins            int        `json:"wins" db:"wins"`
	Draws           int        `json:"draws" db:"draws"`
	Losses          int        `json:"losses" db:"losses"`
	ScoreFor        int        `json:"score_for" db:"score_for"`
	ScoreAgainst    int        `json:"score_against" db:"score_against"`
	ScoreDifference int        `json:"score_difference" db:"score_difference"`
	Rank            *int       `json:"rank,omitempty" db:"rank"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt       *time.Time `json:"-" db:"deleted_at"`
}
