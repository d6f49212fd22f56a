package models

import "time"

// Event holds the slot-generation configuration for one competition
// day: window, table count and slot/buffer durations.
type Event struct {
	ID            int        `json:"id" db:"id"`
	Name          string     `json:"name" db:"name"`
	VenueID       int        `json:"venue_id" db:"venue_id"`
	StartsAt      time.Time  `json:"starts_at" db:"starts_at"`
	EndsAt        time.Time  `json:"ends_at" db:"ends_at"`
	TableCount    int        `json:"table_count" db:"table_count"`
	SlotMinutes   int        `json:"slot_minutes" db:"slot_minutes"`
	BufferMinutes int        `json:"buffer_minutes" db:"buffer_minutes"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	DeletedAt     *time.Time `json:"-" db:"deleted_at"`
}

type SlotStatus string

const (
	SlotAvailable SlotStatus = "available"
	SlotReserved  SlotStatus = "reserved"
	SlotBlocked   SlotStatus = "blocked"
)

// TimeSlot is one bookable (table, window) cell of an event.
// A reservation binds a (team, category) pair and carries a token so
// callers can reference it without racing on the slot id.
type TimeSlot struct {
	ID               int        `json:"id" db:"id"`
	EventID          int        `json:"event_id" db:"event_id"`
	VenueID          int        `json:"venue_id" db:"venue_id"`
	TableNumber      int        `json:"table_number" db:"table_number"`
	StartTime        time.Time  `json:"start_time" db:"start_time"`
	EndTime          time.Time  `json:"end_time" db:"end_time"`
	Status           SlotStatus `json:"status" db:"status"`
	TeamID           *int       `json:"team_id,omitempty" db:"team_id"`
	CategoryID       *int       `json:"category_id,omitempty" db:"category_id"`
	ReservationToken *string    `json:"reservation_token,omitempty" db:"reservation_token"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
	DeletedAt        *time.Time `json:"-" db:"deleted_at"`
}

type ConflictType string

const (
	ConflictDateOverlap ConflictType = "date_overlap"
	ConflictCapacity    ConflictType = "capacity"
)

type ConflictStatus string

const (
	ConflictOpen     ConflictStatus = "open"
	ConflictResolved ConflictStatus = "resolved"
)

// SchedulingConflict flags a detected contention between two slots.
// Detection is soft: it never blocks the write that triggered it.
type SchedulingConflict struct {
	ID               int            `json:"id" db:"id"`
	EventID          int            `json:"event_id" db:"event_id"`
	EntityType       string         `json:"entity_type" db:"entity_type"`
	FirstSlotID      int            `json:"first_slot_id" db:"first_slot_id"`
	SecondSlotID     int            `json:"second_slot_id" db:"second_slot_id"`
	Type             ConflictType   `json:"type" db:"type"`
	Status           ConflictStatus `json:"status" db:"status"`
	ResolutionMethod *string        `json:"resolution_method,omitempty" db:"resolution_method"`
	ResolvedBy       *int           `json:"resolved_by,omitempty" db:"resolved_by"`
	ResolvedAt       *time.Time     `json:"resolved_at,omitempty" db:"resolved_at"`
	CreatedAt        time.Time      `json:"created_at" db:"created_at"`
	DeletedAt        *time.Time     `json:"-" db:"deleted_at"`
}
