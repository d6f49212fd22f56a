package models

import "time"

// CompetitionMode controls phase routing: in pilot mode a phase with a
// skip target sends qualifiers past its immediate successor.
type CompetitionMode string

const (
	ModeFull  CompetitionMode = "full"
	ModePilot CompetitionMode = "pilot"
)

// Phase is an ordered competition stage. Categories run independently
// inside each phase; capacity is configured per (phase, category).
type Phase struct {
	ID            int        `json:"id" db:"id"`
	Name          string     `json:"name" db:"name"`
	OrderSequence int        `json:"order_sequence" db:"order_sequence"`
	SkipToPhaseID *int       `json:"skip_to_phase_id,omitempty" db:"skip_to_phase_id"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	DeletedAt     *time.Time `json:"-" db:"deleted_at"`
}

// PhaseProgression is the append-only audit record of a team moving
// between phases. Rows are never mutated, only soft-deleted.
type PhaseProgression struct {
	ID                int        `json:"id" db:"id"`
	TeamID            int        `json:"team_id" db:"team_id"`
	FromPhaseID       *int       `json:"from_phase_id,omitempty" db:"from_phase_id"`
	ToPhaseID         int        `json:"to_phase_id" db:"to_phase_id"`
	CategoryID        int        `json:"category_id" db:"category_id"`
	Score             float64    `json:"score" db:"score"`
	RankInCategory    int        `json:"rank_in_category" db:"rank_in_category"`
	Qualified         bool       `json:"qualified" db:"qualified"`
	AdvancementReason string     `json:"advancement_reason" db:"advancement_reason"`
	CreatedAt         time.Time  `json:"created_at" db:"created_at"`
	DeletedAt         *time.Time `json:"-" db:"deleted_at"`
}
