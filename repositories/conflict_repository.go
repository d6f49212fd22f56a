package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/steamcup/tournament-engine/models"
)

var ErrConflictNotFound = errors.New("scheduling conflict not found")

type ConflictRepository interface {
	Create(ctx context.Context, exec SQLExecutor, conflict *models.SchedulingConflict) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.SchedulingConflict, error)
	ListOpenByEvent(ctx context.Context, exec SQLExecutor, eventID int) ([]*models.SchedulingConflict, error)
	// ExistsOpenForPair keeps the sweep idempotent: a pair already
	// flagged is not flagged again.
	ExistsOpenForPair(ctx context.Context, exec SQLExecutor, firstSlotID, secondSlotID int) (bool, error)
	MarkResolved(ctx context.Context, exec SQLExecutor, id int, method string, resolverID int) error
}

type postgresConflictRepository struct {
	db *sql.DB
}

func NewPostgresConflictRepository(db *sql.DB) ConflictRepository {
	return &postgresConflictRepository{db: db}
}

func (r *postgresConflictRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const conflictColumns = `id, event_id, entity_type, first_slot_id, second_slot_id, type, status,
	resolution_method, resolved_by, resolved_at, created_at, deleted_at`

func scanConflict(row interface{ Scan(...interface{}) error }) (*models.SchedulingConflict, error) {
	var c models.SchedulingConflict
	err := row.Scan(&c.ID, &c.EventID, &c.EntityType, &c.FirstSlotID, &c.SecondSlotID, &c.Type,
		&c.Status, &c.ResolutionMethod, &c.ResolvedBy, &c.ResolvedAt, &c.CreatedAt, &c.DeletedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrConflictNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *postgresConflictRepository) Create(ctx context.Context, exec SQLExecutor, conflict *models.SchedulingConflict) error {
	query := `
		INSERT INTO scheduling_conflicts (event_id, entity_type, first_slot_id, second_slot_id, type, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`
	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		conflict.EventID, conflict.EntityType, conflict.FirstSlotID, conflict.SecondSlotID,
		conflict.Type, conflict.Status,
	).Scan(&conflict.ID, &conflict.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create scheduling conflict: %w", err)
	}
	return nil
}

func (r *postgresConflictRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.SchedulingConflict, error) {
	query := `SELECT ` + conflictColumns + ` FROM scheduling_conflicts WHERE id = $1 AND deleted_at IS NULL`
	return scanConflict(r.getExecutor(exec).QueryRowContext(ctx, query, id))
}

func (r *postgresConflictRepository) ListOpenByEvent(ctx context.Context, exec SQLExecutor, eventID int) ([]*models.SchedulingConflict, error) {
	query := `SELECT ` + conflictColumns + `
		FROM scheduling_conflicts
		WHERE event_id = $1 AND status = $2 AND deleted_at IS NULL
		ORDER BY id`
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, eventID, models.ConflictOpen)
	if err != nil {
		return nil, fmt.Errorf("failed to query conflicts for event %d: %w", eventID, err)
	}
	defer rows.Close()

	conflicts := make([]*models.SchedulingConflict, 0)
	for rows.Next() {
		c, scanErr := scanConflict(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		conflicts = append(conflicts, c)
	}
	return conflicts, rows.Err()
}

func (r *postgresConflictRepository) ExistsOpenForPair(ctx context.Context, exec SQLExecutor, firstSlotID, secondSlotID int) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM scheduling_conflicts
			WHERE status = $1 AND deleted_at IS NULL
			  AND ((first_slot_id = $2 AND second_slot_id = $3) OR (first_slot_id = $3 AND second_slot_id = $2))
		)`
	var exists bool
	if err := r.getExecutor(exec).QueryRowContext(ctx, query, models.ConflictOpen, firstSlotID, secondSlotID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check conflict for slots %d/%d: %w", firstSlotID, secondSlotID, err)
	}
	return exists, nil
}

func (r *postgresConflictRepository) MarkResolved(ctx context.Context, exec SQLExecutor, id int, method string, resolverID int) error {
	query := `
		UPDATE scheduling_conflicts
		SET status = $1, resolution_method = $2, resolved_by = $3, resolved_at = NOW()
		WHERE id = $4 AND status = $5 AND deleted_at IS NULL`
	result, err := r.getExecutor(exec).ExecContext(ctx, query,
		models.ConflictResolved, method, resolverID, id, models.ConflictOpen)
	if err != nil {
		return fmt.Errorf("failed to resolve conflict %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrConflictNotFound)
}
