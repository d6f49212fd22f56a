package models

import "time"

// Seeding maps a team to its seed number within a tournament.
// Seed order is the single source of truth for initial pairing.
type Seeding struct {
	ID           int        `json:"id" db:"id"`
	TournamentID int        `json:"tournament_id" db:"tournament_id"`
	TeamID       int        `json:"team_id" db:"team_id"`
	SeedNumber   int        `json:"seed_number" db:"seed_number"`
	Score        float64    `json:"score" db:"score"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	DeletedAt    *time.Time `json:"-" db:"deleted_at"`

	Team *Team `json:"team,omitempty" db:"-"`
}
