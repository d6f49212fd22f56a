package models

import "time"

// Team is read-only for the engine: registration, scoring and school
// linkage live in the administrative part of the system.
type Team struct {
	ID         int    `json:"id" db:"id"`
	Name       string `json:"name" db:"name"`
	CategoryID int    `json:"category_id" db:"category_id"`
	SchoolID   int    `json:"school_id" db:"school_id"`

	// AverageScore is the mean of all recorded scores, 0 when the team
	// has none. Populated by the team repository, not a column.
	AverageScore float64 `json:"average_score" db:"-"`

	RegisteredAt time.Time  `json:"registered_at" db:"registered_at"`
	DeletedAt    *time.Time `json:"-" db:"deleted_at"`
}
