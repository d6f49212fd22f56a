package models

import "time"

// Round is a purely structural grouping of matches (bracket round or
// round-robin game day); matches reference it for display and ordering.
type Round struct {
	ID           int        `json:"id" db:"id"`
	TournamentID int        `json:"tournament_id" db:"tournament_id"`
	Number       int        `json:"number" db:"number"`
	Name         string     `json:"name" db:"name"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	DeletedAt    *time.Time `json:"-" db:"deleted_at"`
}
