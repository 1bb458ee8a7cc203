package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"ghostlounge_backend/internal/models"
)

// ReservationRepository defines the interface for PC booking persistence.
// Intervals are half-open: [start_time, end_time).
type ReservationRepository interface {
	CreateReservation(ctx context.Context, executor SQLExecutor, res *models.Reservation) (int64, error)
	GetReservationByID(ctx context.Context, executor SQLExecutor, id int64) (*models.Reservation, error)
	UpdateReservation(ctx context.Context, executor SQLExecutor, res *models.Reservation) error
	DeleteReservation(ctx context.Context, executor SQLExecutor, id int64) error
	SetExternalEventRef(ctx context.Context, executor SQLExecutor, id int64, ref *string) error
	// HasConflict reports whether another reservation on pcID overlaps [start, end).
	HasConflict(ctx context.Context, executor SQLExecutor, pcID int64, start, end time.Time, excludeID *int64) (bool, error)
	GetReservations(ctx context.Context) ([]models.Reservation, error)
	GetReservationsByClient(ctx context.Context, clientID int64) ([]models.Reservation, error)
	GetReservationsInRange(ctx context.Context, from, to time.Time) ([]models.Reservation, error)
	GetUpcomingReservations(ctx context.Context, now time.Time, limit int) ([]models.Reservation, error)
}

type reservationRepository struct {
	db *sql.DB
}

// NewReservationRepository creates a new instance of ReservationRepository.
func NewReservationRepository(db *sql.DB) ReservationRepository {
	return &reservationRepository{db: db}
}

const selectReservationFields = `r.id, r.client_id, r.pc_id, r.start_time, r.end_time, r.notes, r.external_event_ref, r.created_by, r.created_at, r.updated_at,
	c.name, pc.name
	FROM reservations r
	JOIN clients c ON c.id = r.client_id
	JOIN pcs pc ON pc.id = r.pc_id`

func scanReservation(row scanner) (*models.Reservation, error) {
	var res models.Reservation
	var notes, ref sql.NullString
	var createdBy sql.NullInt64
	err := row.Scan(&res.ID, &res.ClientID, &res.PCID, &res.StartTime, &res.EndTime, &notes, &ref, &createdBy, &res.CreatedAt, &res.UpdatedAt,
		&res.ClientName, &res.PCName)
	if err != nil {
		return nil, err
	}
	res.StartTime = res.StartTime.UTC()
	res.EndTime = res.EndTime.UTC()
	res.Notes = nullString(notes)
	res.ExternalEventRef = nullString(ref)
	res.CreatedBy = nullInt64(createdBy)
	return &res, nil
}

func (r *reservationRepository) CreateReservation(ctx context.Context, executor SQLExecutor, res *models.Reservation) (int64, error) {
	query := `INSERT INTO reservations
	            (client_id, pc_id, start_time, end_time, notes, external_event_ref, created_by, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	          RETURNING id`
	err := executor.QueryRowContext(ctx, query,
		res.ClientID, res.PCID, res.StartTime, res.EndTime, res.Notes, res.ExternalEventRef, res.CreatedBy,
		res.CreatedAt, res.UpdatedAt,
	).Scan(&res.ID)
	if err != nil {
		return 0, classifyError(err, "creating reservation")
	}
	return res.ID, nil
}

func (r *reservationRepository) GetReservationByID(ctx context.Context, executor SQLExecutor, id int64) (*models.Reservation, error) {
	res, err := scanReservation(executor.QueryRowContext(ctx, `SELECT `+selectReservationFields+` WHERE r.id = $1`, id))
	if err != nil {
		return nil, classifyError(err, fmt.Sprintf("getting reservation ID %d", id))
	}
	return res, nil
}

func (r *reservationRepository) UpdateReservation(ctx context.Context, executor SQLExecutor, res *models.Reservation) error {
	op := fmt.Sprintf("updating reservation ID %d", res.ID)
	query := `UPDATE reservations SET
	            client_id = $1, pc_id = $2, start_time = $3, end_time = $4, notes = $5,
	            external_event_ref = $6, updated_at = $7
	          WHERE id = $8`
	result, err := executor.ExecContext(ctx, query,
		res.ClientID, res.PCID, res.StartTime, res.EndTime, res.Notes, res.ExternalEventRef, res.UpdatedAt, res.ID)
	if err != nil {
		return classifyError(err, op)
	}
	return affectedOne(result, op)
}

func (r *reservationRepository) DeleteReservation(ctx context.Context, executor SQLExecutor, id int64) error {
	op := fmt.Sprintf("deleting reservation ID %d", id)
	result, err := executor.ExecContext(ctx, `DELETE FROM reservations WHERE id = $1`, id)
	if err != nil {
		return classifyError(err, op)
	}
	return affectedOne(result, op)
}

func (r *reservationRepository) SetExternalEventRef(ctx context.Context, executor SQLExecutor, id int64, ref *string) error {
	op := fmt.Sprintf("setting external event ref on reservation ID %d", id)
	result, err := executor.ExecContext(ctx, `UPDATE reservations SET external_event_ref = $1 WHERE id = $2`, ref, id)
	if err != nil {
		return classifyError(err, op)
	}
	return affectedOne(result, op)
}

func (r *reservationRepository) HasConflict(ctx context.Context, executor SQLExecutor, pcID int64, start, end time.Time, excludeID *int64) (bool, error) {
	query := `SELECT COUNT(*) FROM reservations
	          WHERE pc_id = $1
	          AND start_time < $3 AND end_time > $2` // Overlapping condition
	args := []interface{}{pcID, start, end}
	if excludeID != nil {
		query += " AND id != $4"
		args = append(args, *excludeID)
	}

	var count int
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return false, fmt.Errorf("%w: checking pc availability: %v", ErrDatabaseError, err)
	}
	return count > 0, nil
}

func (r *reservationRepository) GetReservations(ctx context.Context) ([]models.Reservation, error) {
	return r.queryReservations(ctx, `SELECT `+selectReservationFields+` ORDER BY r.start_time ASC, r.id ASC`)
}

func (r *reservationRepository) GetReservationsByClient(ctx context.Context, clientID int64) ([]models.Reservation, error) {
	return r.queryReservations(ctx, `SELECT `+selectReservationFields+` WHERE r.client_id = $1 ORDER BY r.start_time ASC, r.id ASC`, clientID)
}

// GetReservationsInRange uses the same half-open overlap test as HasConflict.
func (r *reservationRepository) GetReservationsInRange(ctx context.Context, from, to time.Time) ([]models.Reservation, error) {
	return r.queryReservations(ctx,
		`SELECT `+selectReservationFields+` WHERE r.start_time < $2 AND r.end_time > $1 ORDER BY r.start_time ASC, r.id ASC`,
		from, to)
}

func (r *reservationRepository) GetUpcomingReservations(ctx context.Context, now time.Time, limit int) ([]models.Reservation, error) {
	return r.queryReservations(ctx,
		`SELECT `+selectReservationFields+` WHERE r.start_time >= $1 ORDER BY r.start_time ASC, r.id ASC LIMIT $2`,
		now, limit)
}

func (r *reservationRepository) queryReservations(ctx context.Context, query string, args ...interface{}) ([]models.Reservation, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying reservations: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	reservations := []models.Reservation{}
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning reservation: %v", ErrDatabaseError, err)
		}
		reservations = append(reservations, *res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating reservation rows: %v", ErrDatabaseError, err)
	}
	return reservations, nil
}
