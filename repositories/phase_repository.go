package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/steamcup/tournament-engine/models"
)

var (
	ErrPhaseNotFound         = errors.New("phase not found")
	ErrPhaseCapacityNotFound = errors.New("phase capacity not configured for category")
)

type PhaseRepository interface {
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Phase, error)
	// GetByIDForUpdate locks the phase row. Progression holds this lock
	// while checking and filling destination capacity so two concurrent
	// runs cannot jointly overshoot it.
	GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Phase, error)
	GetByOrderSequence(ctx context.Context, exec SQLExecutor, orderSequence int) (*models.Phase, error)
	GetCapacity(ctx context.Context, exec SQLExecutor, phaseID, categoryID int) (int, error)
}

type postgresPhaseRepository struct {
	db *sql.DB
}

func NewPostgresPhaseRepository(db *sql.DB) PhaseRepository {
	return &postgresPhaseRepository{db: db}
}

func (r *postgresPhaseRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const phaseColumns = `id, name, order_sequence, skip_to_phase_id, created_at, deleted_at`

func scanPhase(row interface{ Scan(...interface{}) error }) (*models.Phase, error) {
	var p models.Phase
	err := row.Scan(&p.ID, &p.Name, &p.OrderSequence, &p.SkipToPhaseID, &p.CreatedAt, &p.DeletedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPhaseNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *postgresPhaseRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Phase, error) {
	query := `SELECT ` + phaseColumns + ` FROM competition_phases WHERE id = $1 AND deleted_at IS NULL`
	return scanPhase(r.getExecutor(exec).QueryRowContext(ctx, query, id))
}

func (r *postgresPhaseRepository) GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Phase, error) {
	query := `SELECT ` + phaseColumns + ` FROM competition_phases WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`
	return scanPhase(r.getExecutor(exec).QueryRowContext(ctx, query, id))
}

func (r *postgresPhaseRepository) GetByOrderSequence(ctx context.Context, exec SQLExecutor, orderSequence int) (*models.Phase, error) {
	query := `SELECT ` + phaseColumns + ` FROM competition_phases WHERE order_sequence = $1 AND deleted_at IS NULL`
	return scanPhase(r.getExecutor(exec).QueryRowContext(ctx, query, orderSequence))
}

func (r *postgresPhaseRepository) GetCapacity(ctx context.Context, exec SQLExecutor, phaseID, categoryID int) (int, error) {
	query := `
		SELECT capacity FROM phase_capacities
		WHERE phase_id = $1 AND category_id = $2 AND deleted_at IS NULL`
	var capacity int
	err := r.getExecutor(exec).QueryRowContext(ctx, query, phaseID, categoryID).Scan(&capacity)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrPhaseCapacityNotFound
		}
		return 0, fmt.Errorf("failed to read capacity for phase %d category %d: %w", phaseID, categoryID, err)
	}
	return capacity, nil
}
