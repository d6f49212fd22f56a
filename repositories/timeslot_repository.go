package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/steamcup/tournament-engine/models"
)

var (
	ErrEventNotFound = errors.New("event not found")
	ErrSlotNotFound  = errors.New("time slot not found")
	// ErrSlotTaken is the compare-and-swap failure: the slot left the
	// available state between read and reserve.
	ErrSlotTaken = errors.New("time slot is no longer available")
)

type EventRepository interface {
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Event, error)
	ListUpcoming(ctx context.Context, exec SQLExecutor) ([]*models.Event, error)
}

type TimeSlotRepository interface {
	BatchCreate(ctx context.Context, exec SQLExecutor, slots []*models.TimeSlot) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.TimeSlot, error)
	ListByEvent(ctx context.Context, exec SQLExecutor, eventID int, status *models.SlotStatus) ([]*models.TimeSlot, error)
	// Reserve flips an available slot to reserved for a (team, category)
	// pair. The status predicate makes it a compare-and-swap: a
	// concurrent reservation loses with ErrSlotTaken.
	Reserve(ctx context.Context, exec SQLExecutor, slotID, teamID, categoryID int, token string) error
	Release(ctx context.Context, exec SQLExecutor, slotID int) error
}

type postgresEventRepository struct {
	db *sql.DB
}

func NewPostgresEventRepository(db *sql.DB) EventRepository {
	return &postgresEventRepository{db: db}
}

func (r *postgresEventRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const eventColumns = `id, name, venue_id, starts_at, ends_at, table_count, slot_minutes, buffer_minutes, created_at, deleted_at`

func scanEvent(row interface{ Scan(...interface{}) error }) (*models.Event, error) {
	var e models.Event
	err := row.Scan(&e.ID, &e.Name, &e.VenueID, &e.StartsAt, &e.EndsAt,
		&e.TableCount, &e.SlotMinutes, &e.BufferMinutes, &e.CreatedAt, &e.DeletedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return &e, nil
}

func (r *postgresEventRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1 AND deleted_at IS NULL`
	return scanEvent(r.getExecutor(exec).QueryRowContext(ctx, query, id))
}

func (r *postgresEventRepository) ListUpcoming(ctx context.Context, exec SQLExecutor) ([]*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE ends_at > NOW() AND deleted_at IS NULL ORDER BY starts_at`
	rows, err := r.getExecutor(exec).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query upcoming events: %w", err)
	}
	defer rows.Close()

	events := make([]*models.Event, 0)
	for rows.Next() {
		e, scanErr := scanEvent(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

type postgresTimeSlotRepository struct {
	db *sql.DB
}

func NewPostgresTimeSlotRepository(db *sql.DB) TimeSlotRepository {
	return &postgresTimeSlotRepository{db: db}
}

func (r *postgresTimeSlotRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const slotColumns = `id, event_id, venue_id, table_number, start_time, end_time, status,
	team_id, category_id, reservation_token, created_at, deleted_at`

func scanSlot(row interface{ Scan(...interface{}) error }) (*models.TimeSlot, error) {
	var s models.TimeSlot
	err := row.Scan(&s.ID, &s.EventID, &s.VenueID, &s.TableNumber, &s.StartTime, &s.EndTime,
		&s.Status, &s.TeamID, &s.CategoryID, &s.ReservationToken, &s.CreatedAt, &s.DeletedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSlotNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *postgresTimeSlotRepository) BatchCreate(ctx context.Context, exec SQLExecutor, slots []*models.TimeSlot) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO time_slots (event_id, venue_id, table_number, start_time, end_time, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`
	for _, s := range slots {
		err := executor.QueryRowContext(ctx, query,
			s.EventID, s.VenueID, s.TableNumber, s.StartTime, s.EndTime, s.Status,
		).Scan(&s.ID, &s.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to create time slot: %w", err)
		}
	}
	return nil
}

func (r *postgresTimeSlotRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.TimeSlot, error) {
	query := `SELECT ` + slotColumns + ` FROM time_slots WHERE id = $1 AND deleted_at IS NULL`
	return scanSlot(r.getExecutor(exec).QueryRowContext(ctx, query, id))
}

func (r *postgresTimeSlotRepository) ListByEvent(ctx context.Context, exec SQLExecutor, eventID int, status *models.SlotStatus) ([]*models.TimeSlot, error) {
	query := `SELECT ` + slotColumns + ` FROM time_slots WHERE event_id = $1 AND deleted_at IS NULL`
	args := []interface{}{eventID}
	if status != nil {
		query += ` AND status = $2`
		args = append(args, *status)
	}
	query += ` ORDER BY start_time, table_number`

	rows, err := r.getExecutor(exec).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query slots for event %d: %w", eventID, err)
	}
	defer rows.Close()

	slots := make([]*models.TimeSlot, 0)
	for rows.Next() {
		s, scanErr := scanSlot(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		slots = append(slots, s)
	}
	return slots, rows.Err()
}

func (r *postgresTimeSlotRepository) Reserve(ctx context.Context, exec SQLExecutor, slotID, teamID, categoryID int, token string) error {
	query := `
		UPDATE time_slots
		SET status = $1, team_id = $2, category_id = $3, reservation_token = $4
		WHERE id = $5 AND status = $6 AND deleted_at IS NULL`
	result, err := r.getExecutor(exec).ExecContext(ctx, query,
		models.SlotReserved, teamID, categoryID, token, slotID, models.SlotAvailable)
	if err != nil {
		return fmt.Errorf("failed to reserve slot %d: %w", slotID, err)
	}
	return checkAffectedRows(result, ErrSlotTaken)
}

func (r *postgresTimeSlotRepository) Release(ctx context.Context, exec SQLExecutor, slotID int) error {
	query := `
		UPDATE time_slots
		SET status = $1, team_id = NULL, category_id = NULL, reservation_token = NULL
		WHERE id = $2 AND status = $3 AND deleted_at IS NULL`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, models.SlotAvailable, slotID, models.SlotReserved)
	if err != nil {
		return fmt.Errorf("failed to release slot %d: %w", slotID, err)
	}
	return checkAffectedRows(result, ErrSlotNotFound)
}
