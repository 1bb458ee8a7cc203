package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"ghostlounge_backend/internal/models"
)

// PCRepository persists bookable stations.
type PCRepository interface {
	CreatePC(ctx context.Context, executor SQLExecutor, pc *models.PC) (int64, error)
	GetPCByID(ctx context.Context, executor SQLExecutor, id int64) (*models.PC, error)
	GetPCs(ctx context.Context, activeOnly bool) ([]models.PC, error)
	UpdatePC(ctx context.Context, executor SQLExecutor, pc *models.PC) error
	DeletePC(ctx context.Context, executor SQLExecutor, id int64) error
	HasReservations(ctx context.Context, executor SQLExecutor, id int64) (bool, error)
}

type pcRepository struct {
	db *sql.DB
}

// NewPCRepository creates a new instance of PCRepository.
func NewPCRepository(db *sql.DB) PCRepository {
	return &pcRepository{db: db}
}

func scanPC(row scanner) (*models.PC, error) {
	var pc models.PC
	var description sql.NullString
	if err := row.Scan(&pc.ID, &pc.Name, &description, &pc.IsActive, &pc.CreatedAt, &pc.UpdatedAt); err != nil {
		return nil, err
	}
	pc.Description = nullString(description)
	return &pc, nil
}

func (r *pcRepository) CreatePC(ctx context.Context, executor SQLExecutor, pc *models.PC) (int64, error) {
	err := executor.QueryRowContext(ctx,
		`INSERT INTO pcs (name, description, is_active, created_at, updated_at) VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		pc.Name, pc.Description, pc.IsActive, pc.CreatedAt, pc.UpdatedAt,
	).Scan(&pc.ID)
	if err != nil {
		return 0, classifyError(err, "creating pc")
	}
	return pc.ID, nil
}

func (r *pcRepository) GetPCByID(ctx context.Context, executor SQLExecutor, id int64) (*models.PC, error) {
	pc, err := scanPC(executor.QueryRowContext(ctx,
		`SELECT id, name, description, is_active, created_at, updated_at FROM pcs WHERE id = $1`, id))
	if err != nil {
		return nil, classifyError(err, fmt.Sprintf("getting pc ID %d", id))
	}
	return pc, nil
}

func (r *pcRepository) GetPCs(ctx context.Context, activeOnly bool) ([]models.PC, error) {
	query := `SELECT id, name, description, is_active, created_at, updated_at FROM pcs`
	var args []interface{}
	if activeOnly {
		query += ` WHERE is_active = $1`
		args = append(args, true)
	}
	query += ` ORDER BY name ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying pcs: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	pcs := []models.PC{}
	for rows.Next() {
		pc, err := scanPC(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning pc: %v", ErrDatabaseError, err)
		}
		pcs = append(pcs, *pc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating pc rows: %v", ErrDatabaseError, err)
	}
	return pcs, nil
}

func (r *pcRepository) UpdatePC(ctx context.Context, executor SQLExecutor, pc *models.PC) error {
	op := fmt.Sprintf("updating pc ID %d", pc.ID)
	result, err := executor.ExecContext(ctx,
		`UPDATE pcs SET name = $1, description = $2, is_active = $3, updated_at = $4 WHERE id = $5`,
		pc.Name, pc.Description, pc.IsActive, pc.UpdatedAt, pc.ID)
	if err != nil {
		return classifyError(err, op)
	}
	return affectedOne(result, op)
}

func (r *pcRepository) DeletePC(ctx context.Context, executor SQLExecutor, id int64) error {
	op := fmt.Sprintf("deleting pc ID %d", id)
	result, err := executor.ExecContext(ctx, `DELETE FROM pcs WHERE id = $1`, id)
	if err != nil {
		return classifyError(err, op)
	}
	return affectedOne(result, op)
}

func (r *pcRepository) HasReservations(ctx context.Context, executor SQLExecutor, id int64) (bool, error) {
	return exists(ctx, executor, `SELECT COUNT(*) FROM reservations WHERE pc_id = $1`, id)
}
