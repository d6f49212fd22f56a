package models

import "time"

// TournamentType selects the schedule structure of a tournament.
type TournamentType string

const (
	TournamentElimination TournamentType = "elimination"
	TournamentRoundRobin  TournamentType = "round_robin"
)

// TournamentStatus mirrors the ENUM in the database.
type TournamentStatus string

const (
	StatusSetup      TournamentStatus = "setup"
	StatusSeeding    TournamentStatus = "seeding"
	StatusBracketed  TournamentStatus = "bracketed"
	StatusInProgress TournamentStatus = "in_progress"
	StatusCompleted  TournamentStatus = "completed"
)

type SeedingMethod string

const (
	SeedingByScore SeedingMethod = "score"
	SeedingManual  SeedingMethod = "manual"
)

// Tournament is one bracket/schedule instance for a (phase, category) pair.
type Tournament struct {
	ID           int              `json:"id" db:"id"`
	Name         string           `json:"name" db:"name"`
	PhaseID      int              `json:"phase_id" db:"phase_id"`
	CategoryID   int              `json:"category_id" db:"category_id"`
	Type         TournamentType   `json:"type" db:"type"`
	MaxTeams     int              `json:"max_teams" db:"max_teams"`
	AdvanceCount int              `json:"advance_count" db:"advance_count"`
	SeedingMethod SeedingMethod   `json:"seeding_method" db:"seeding_method"`
	AllowDraws   bool             `json:"allow_draws" db:"allow_draws"`
	Status       TournamentStatus `json:"status" db:"status"`
	WinnerTeamID *int             `json:"winner_team_id,omitempty" db:"winner_team_id"`
	CreatedAt    time.Time        `json:"created_at" db:"created_at"`
	DeletedAt    *time.Time       `json:"-" db:"deleted_at"`

	// Related entities, populated by services when requested.
	Seedings  []Seeding            `json:"seedings,omitempty" db:"-"`
	Rounds    []Round              `json:"rounds,omitempty" db:"-"`
	Matches   []Match              `json:"matches,omitempty" db:"-"`
	Standings []TournamentStanding `json:"standings,omitempty" db:"-"`
}
