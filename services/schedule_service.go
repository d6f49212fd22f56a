package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/steamcup/tournament-engine/brackets"
	"github.com/steamcup/tournament-engine/models"
	"github.com/steamcup/tournament-engine/repositories"
)

// autoResolveRetryBudget bounds how many alternative slots auto
// resolution tries before giving up and leaving the conflict flagged.
const autoResolveRetryBudget = 5

// ReserveSlotInput binds a slot to a team. The returned token
// identifies the reservation.
type ReserveSlotInput struct {
	TeamID     int `json:"team_id"`
	CategoryID int `json:"category_id"`
}

type ScheduleService interface {
	// AllocateSlots fills an event's window with a slot grid: one slot
	// per table per interval, interval length = slot + buffer minutes.
	AllocateSlots(ctx context.Context, eventID int) ([]*models.TimeSlot, error)
	// AssignSlots books a category's teams onto the event's available
	// slots round-robin, in slot order. Slots lost to concurrent
	// reservations are skipped.
	AssignSlots(ctx context.Context, eventID, categoryID int) ([]*models.TimeSlot, error)
	// ReserveSlot atomically claims an available slot for a team.
	// Losing the race returns ErrSlotUnavailable.
	ReserveSlot(ctx context.Context, slotID int, input ReserveSlotInput) (*models.TimeSlot, error)
	ReleaseSlot(ctx context.Context, slotID int) error
	ListSlots(ctx context.Context, eventID int, status *models.SlotStatus) ([]*models.TimeSlot, error)
	// DetectConflicts scans an event's reserved slots and flags
	// overlapping pairs. Detection never mutates the slots themselves.
	DetectConflicts(ctx context.Context, eventID int) ([]*models.SchedulingConflict, error)
	ListConflicts(ctx context.Context, eventID int) ([]*models.SchedulingConflict, error)
	// ResolveConflict settles a flagged conflict, manually or by
	// moving the second slot's reservation to a free alternative.
	ResolveConflict(ctx context.Context, conflictID int, method string, resolverID int) error
	// SweepConflicts runs detection across all upcoming events; wired
	// to the periodic scheduler.
	SweepConflicts(ctx context.Context) error
}

type scheduleService struct {
	db           *sql.DB
	eventRepo    repositories.EventRepository
	slotRepo     repositories.TimeSlotRepository
	conflictRepo repositories.ConflictRepository
	teamRepo     repositories.TeamRepository
	hub          *brackets.Hub
	logger       *slog.Logger
}

func NewScheduleService(
	db *sql.DB,
	eventRepo repositories.EventRepository,
	slotRepo repositories.TimeSlotRepository,
	conflictRepo repositories.ConflictRepository,
	teamRepo repositories.TeamRepository,
	hub *brackets.Hub,
	logger *slog.Logger,
) ScheduleService {
	return &scheduleService{
		db:           db,
		eventRepo:    eventRepo,
		slotRepo:     slotRepo,
		conflictRepo: conflictRepo,
		teamRepo:     teamRepo,
		hub:          hub,
		logger:       logger,
	}
}

func (s *scheduleService) AllocateSlots(ctx context.Context, eventID int) ([]*models.TimeSlot, error) {
	event, err := s.eventRepo.GetByID(ctx, nil, eventID)
	if err != nil {
		return nil, err
	}

	slots, err := generateSlotGrid(event)
	if err != nil {
		return nil, err
	}

	err = runInTx(ctx, s.db, func(tx *sql.Tx) error {
		existing, err := s.slotRepo.ListByEvent(ctx, tx, eventID, nil)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return fmt.Errorf("%w: event %d already has %d slots", ErrInvalidState, eventID, len(existing))
		}
		return s.slotRepo.BatchCreate(ctx, tx, slots)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("slots allocated",
		slog.Int("event_id", eventID),
		slog.Int("tables", event.TableCount),
		slog.Int("slots", len(slots)))
	return slots, nil
}

// generateSlotGrid lays out the event window as (table, interval)
// cells. A slot is emitted only if it fits entirely before ends_at.
func generateSlotGrid(event *models.Event) ([]*models.TimeSlot, error) {
	if event.TableCount < 1 {
		return nil, fmt.Errorf("%w: event %d has no tables", ErrValidation, event.ID)
	}
	if event.SlotMinutes < 1 {
		return nil, fmt.Errorf("%w: slot duration must be positive", ErrValidation)
	}
	if !event.EndsAt.After(event.StartsAt) {
		return nil, fmt.Errorf("%w: event window is empty", ErrValidation)
	}

	slotLen := time.Duration(event.SlotMinutes) * time.Minute
	step := slotLen + time.Duration(event.BufferMinutes)*time.Minute

	slots := make([]*models.TimeSlot, 0)
	for start := event.StartsAt; !start.Add(slotLen).After(event.EndsAt); start = start.Add(step) {
		for table := 1; table <= event.TableCount; table++ {
			slots = append(slots, &models.TimeSlot{
				EventID:     event.ID,
				VenueID:     event.VenueID,
				TableNumber: table,
				StartTime:   start,
				EndTime:     start.Add(slotLen),
				Status:      models.SlotAvailable,
			})
		}
	}
	if len(slots) == 0 {
		return nil, fmt.Errorf("%w: event window %s is shorter than one slot", ErrValidation, event.EndsAt.Sub(event.StartsAt))
	}
	return slots, nil
}

func (s *scheduleService) AssignSlots(ctx context.Context, eventID, categoryID int) ([]*models.TimeSlot, error) {
	if _, err := s.eventRepo.GetByID(ctx, nil, eventID); err != nil {
		return nil, err
	}

	teams, err := s.teamRepo.ListByCategory(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	if len(teams) == 0 {
		return nil, fmt.Errorf("%w: category %d has no teams", ErrValidation, categoryID)
	}
	teamIDs := make([]int, len(teams))
	for i, team := range teams {
		teamIDs[i] = team.ID
	}

	available := models.SlotAvailable
	slots, err := s.slotRepo.ListByEvent(ctx, nil, eventID, &available)
	if err != nil {
		return nil, err
	}
	if len(slots) == 0 {
		return nil, fmt.Errorf("%w: event %d has no available slots", ErrInvalidState, eventID)
	}

	assigned := make([]*models.TimeSlot, 0, len(slots))
	for _, plan := range planAssignments(slots, teamIDs) {
		token := uuid.NewString()
		// Each booking is the same compare-and-swap as a manual
		// reservation, so a slot grabbed concurrently is just skipped.
		if err := s.slotRepo.Reserve(ctx, nil, plan.slot.ID, plan.teamID, categoryID, token); err != nil {
			if errors.Is(err, repositories.ErrSlotTaken) {
				continue
			}
			return nil, err
		}
		booked, err := s.slotRepo.GetByID(ctx, nil, plan.slot.ID)
		if err != nil {
			return nil, err
		}
		assigned = append(assigned, booked)
	}

	s.logger.Info("slots auto-assigned",
		slog.Int("event_id", eventID),
		slog.Int("category_id", categoryID),
		slog.Int("teams", len(teamIDs)),
		slog.Int("assigned", len(assigned)))
	return assigned, nil
}

type slotAssignment struct {
	slot   *models.TimeSlot
	teamID int
}

// planAssignments deals slots to teams round-robin, in slot order. A
// team whose existing assignment overlaps the slot's window is passed
// over for that slot, so one team never holds two concurrent tables.
func planAssignments(slots []*models.TimeSlot, teamIDs []int) []slotAssignment {
	if len(teamIDs) == 0 {
		return nil
	}

	held := make(map[int][]*models.TimeSlot, len(teamIDs))
	plan := make([]slotAssignment, 0, len(slots))
	cursor := 0
	for _, slot := range slots {
		for tries := 0; tries < len(teamIDs); tries++ {
			teamID := teamIDs[(cursor+tries)%len(teamIDs)]
			if overlapsAnySlot(slot, held[teamID]) {
				continue
			}
			held[teamID] = append(held[teamID], slot)
			plan = append(plan, slotAssignment{slot: slot, teamID: teamID})
			cursor = (cursor + tries + 1) % len(teamIDs)
			break
		}
	}
	return plan
}

func overlapsAnySlot(slot *models.TimeSlot, others []*models.TimeSlot) bool {
	for _, other := range others {
		if overlaps(slot.StartTime, slot.EndTime, other.StartTime, other.EndTime) {
			return true
		}
	}
	return false
}

func (s *scheduleService) ReserveSlot(ctx context.Context, slotID int, input ReserveSlotInput) (*models.TimeSlot, error) {
	if input.TeamID == 0 {
		return nil, fmt.Errorf("%w: team_id is required", ErrValidation)
	}

	token := uuid.NewString()
	err := s.slotRepo.Reserve(ctx, nil, slotID, input.TeamID, input.CategoryID, token)
	if err != nil {
		if errors.Is(err, repositories.ErrSlotTaken) {
			return nil, fmt.Errorf("%w: slot %d", ErrSlotUnavailable, slotID)
		}
		return nil, err
	}

	slot, err := s.slotRepo.GetByID(ctx, nil, slotID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("slot reserved",
		slog.Int("slot_id", slotID),
		slog.Int("team_id", input.TeamID),
		slog.String("token", token))
	return slot, nil
}

func (s *scheduleService) ReleaseSlot(ctx context.Context, slotID int) error {
	return s.slotRepo.Release(ctx, nil, slotID)
}

func (s *scheduleService) ListSlots(ctx context.Context, eventID int, status *models.SlotStatus) ([]*models.TimeSlot, error) {
	return s.slotRepo.ListByEvent(ctx, nil, eventID, status)
}

func (s *scheduleService) DetectConflicts(ctx context.Context, eventID int) ([]*models.SchedulingConflict, error) {
	if _, err := s.eventRepo.GetByID(ctx, nil, eventID); err != nil {
		return nil, err
	}

	reserved := models.SlotReserved
	slots, err := s.slotRepo.ListByEvent(ctx, nil, eventID, &reserved)
	if err != nil {
		return nil, err
	}

	found := findConflicts(slots)
	created := make([]*models.SchedulingConflict, 0, len(found))

	err = runInTx(ctx, s.db, func(tx *sql.Tx) error {
		for _, c := range found {
			exists, err := s.conflictRepo.ExistsOpenForPair(ctx, tx, c.FirstSlotID, c.SecondSlotID)
			if err != nil {
				return err
			}
			if exists {
				continue
			}
			c.EventID = eventID
			c.Status = models.ConflictOpen
			if err := s.conflictRepo.Create(ctx, tx, c); err != nil {
				return err
			}
			created = append(created, c)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(created) > 0 {
		s.logger.Warn("scheduling conflicts detected",
			slog.Int("event_id", eventID),
			slog.Int("conflicts", len(created)))
		s.hub.BroadcastToRoom(roomForEvent(eventID), brackets.Message{
			Type:    brackets.EventConflictsDetected,
			Payload: created,
		})
	}
	return created, nil
}

// findConflicts pairs up overlapping reserved slots. The same table
// double-booked in one window is a capacity conflict; the same team in
// two overlapping windows is a date overlap.
func findConflicts(slots []*models.TimeSlot) []*models.SchedulingConflict {
	conflicts := make([]*models.SchedulingConflict, 0)
	for i := 0; i < len(slots); i++ {
		for j := i + 1; j < len(slots); j++ {
			a, b := slots[i], slots[j]
			if !overlaps(a.StartTime, a.EndTime, b.StartTime, b.EndTime) {
				continue
			}
			switch {
			case a.TableNumber == b.TableNumber:
				conflicts = append(conflicts, &models.SchedulingConflict{
					EntityType:   "table",
					FirstSlotID:  a.ID,
					SecondSlotID: b.ID,
					Type:         models.ConflictCapacity,
				})
			case a.TeamID != nil && b.TeamID != nil && *a.TeamID == *b.TeamID:
				conflicts = append(conflicts, &models.SchedulingConflict{
					EntityType:   "team",
					FirstSlotID:  a.ID,
					SecondSlotID: b.ID,
					Type:         models.ConflictDateOverlap,
				})
			}
		}
	}
	return conflicts
}

// overlaps treats intervals as closed: touching boundaries conflict
// only when they actually share time, so end == start is no overlap.
func overlaps(start1, end1, start2, end2 time.Time) bool {
	return start1.Before(end2) && start2.Before(end1)
}

// candidateClears simulates moving the reservation from movable onto
// candidate and reports whether the moved booking would stay
// conflict-free against every reservation left behind. The movable
// slot itself is skipped since its reservation is being released.
func candidateClears(candidate, movable *models.TimeSlot, booked []*models.TimeSlot) bool {
	for _, other := range booked {
		if other.ID == movable.ID || other.ID == candidate.ID {
			continue
		}
		if !overlaps(candidate.StartTime, candidate.EndTime, other.StartTime, other.EndTime) {
			continue
		}
		if other.TableNumber == candidate.TableNumber {
			return false
		}
		if other.TeamID != nil && movable.TeamID != nil && *other.TeamID == *movable.TeamID {
			return false
		}
	}
	return true
}

func (s *scheduleService) ListConflicts(ctx context.Context, eventID int) ([]*models.SchedulingConflict, error) {
	return s.conflictRepo.ListOpenByEvent(ctx, nil, eventID)
}

func (s *scheduleService) ResolveConflict(ctx context.Context, conflictID int, method string, resolverID int) error {
	switch method {
	case "manual":
		return s.conflictRepo.MarkResolved(ctx, nil, conflictID, method, resolverID)
	case "auto":
		return s.autoResolve(ctx, conflictID, resolverID)
	default:
		return fmt.Errorf("%w: unknown resolution method %q", ErrValidation, method)
	}
}

// errCandidateBooked rejects a candidate slot that would recreate the
// very conflict it is supposed to clear.
var errCandidateBooked = errors.New("candidate slot conflicts with an existing reservation")

// autoResolve moves the second slot's reservation onto a free slot of
// the same event. Each candidate is claimed with the same
// compare-and-swap as a regular reservation, so losing a candidate to
// a concurrent booking just burns one retry. Before the claim commits,
// the candidate is re-checked against every reservation that stays
// behind: a free slot is no use if the moved team ends up
// double-booked against the first slot (or any other booking) again.
func (s *scheduleService) autoResolve(ctx context.Context, conflictID, resolverID int) error {
	conflict, err := s.conflictRepo.GetByID(ctx, nil, conflictID)
	if err != nil {
		return err
	}
	if conflict.Status != models.ConflictOpen {
		return fmt.Errorf("%w: conflict %d is already %s", ErrInvalidState, conflictID, conflict.Status)
	}

	movable, err := s.slotRepo.GetByID(ctx, nil, conflict.SecondSlotID)
	if err != nil {
		return err
	}
	if movable.Status != models.SlotReserved || movable.TeamID == nil {
		return fmt.Errorf("%w: slot %d holds no reservation to move", ErrInvalidState, movable.ID)
	}

	available := models.SlotAvailable
	candidates, err := s.slotRepo.ListByEvent(ctx, nil, conflict.EventID, &available)
	if err != nil {
		return err
	}

	tried := 0
	for _, candidate := range candidates {
		if tried >= autoResolveRetryBudget {
			break
		}
		if overlaps(candidate.StartTime, candidate.EndTime, movable.StartTime, movable.EndTime) {
			continue
		}
		tried++

		token := uuid.NewString()
		err = runInTx(ctx, s.db, func(tx *sql.Tx) error {
			reserved := models.SlotReserved
			booked, err := s.slotRepo.ListByEvent(ctx, tx, conflict.EventID, &reserved)
			if err != nil {
				return err
			}
			if !candidateClears(candidate, movable, booked) {
				return errCandidateBooked
			}
			if err := s.slotRepo.Reserve(ctx, tx, candidate.ID, *movable.TeamID, derefInt(movable.CategoryID), token); err != nil {
				return err
			}
			if err := s.slotRepo.Release(ctx, tx, movable.ID); err != nil {
				return err
			}
			return s.conflictRepo.MarkResolved(ctx, tx, conflictID, "auto", resolverID)
		})
		if err == nil {
			s.logger.Info("conflict auto-resolved",
				slog.Int("conflict_id", conflictID),
				slog.Int("from_slot_id", movable.ID),
				slog.Int("to_slot_id", candidate.ID))
			return nil
		}
		if errors.Is(err, repositories.ErrSlotTaken) || errors.Is(err, errCandidateBooked) {
			continue
		}
		return err
	}

	return fmt.Errorf("%w: conflict %d, tried %d slots", ErrConflictUnresolved, conflictID, tried)
}

func (s *scheduleService) SweepConflicts(ctx context.Context) error {
	events, err := s.eventRepo.ListUpcoming(ctx, nil)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, event := range events {
		eventID := event.ID
		g.Go(func() error {
			_, err := s.DetectConflicts(gctx, eventID)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("conflict sweep failed: %w", err)
	}
	s.logger.Info("conflict sweep finished", slog.Int("events", len(events)))
	return nil
}
