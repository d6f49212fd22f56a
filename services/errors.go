package services

import "errors"

// Engine error taxonomy. Handlers map these onto HTTP statuses; callers
// inspect them with errors.Is.
var (
	// Malformed or incomplete input, recoverable by the caller.
	ErrValidation = errors.New("validation failed")

	// Operation attempted against an entity in the wrong lifecycle
	// state. Never retried silently.
	ErrInvalidState = errors.New("operation not allowed in the current state")

	// Equal scores without a forfeit designation: the engine defines no
	// tie-break of its own, so the caller must disambiguate.
	ErrAmbiguousResult = errors.New("tied result requires a forfeit designation")

	// Progression or allocation would exceed a configured limit. The
	// whole operation aborts, nothing is written.
	ErrCapacityExceeded = errors.New("configured capacity would be exceeded")

	// Lost a reservation race. Retryable against a different slot.
	ErrSlotUnavailable = errors.New("time slot is no longer available")

	// A team already has a live progression into the destination phase.
	// Soft-delete the prior record to re-run.
	ErrDuplicateProgression = errors.New("team already progressed into this phase")

	// Auto-resolution exhausted its retry budget; the conflict stays
	// flagged for manual handling.
	ErrConflictUnresolved = errors.New("conflict could not be resolved automatically")

	ErrNotEnoughTeams = errors.New("at least 2 registered teams are required")
	ErrSeedingMissing = errors.New("tournament has no seeding")
)
