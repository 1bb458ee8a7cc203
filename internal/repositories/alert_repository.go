package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"ghostlounge_backend/internal/models"
)

// AlertRepository persists payment reminders.
type AlertRepository interface {
	CreateAlert(ctx context.Context, executor SQLExecutor, alert *models.PaymentAlert) (int64, error)
	GetAlertByID(ctx context.Context, executor SQLExecutor, id int64) (*models.PaymentAlert, error)
	GetAlerts(ctx context.Context) ([]models.PaymentAlert, error)
	GetDueAlerts(ctx context.Context, now time.Time) ([]models.PaymentAlert, error)
	MarkNotified(ctx context.Context, executor SQLExecutor, id int64) error
	DeleteAlert(ctx context.Context, executor SQLExecutor, id int64) error
}

type alertRepository struct {
	db *sql.DB
}

// NewAlertRepository creates a new instance of AlertRepository.
func NewAlertRepository(db *sql.DB) AlertRepository {
	return &alertRepository{db: db}
}

const selectAlertFields = `a.id, a.client_id, a.due_at, a.amount, a.notes, a.is_notified, a.created_by, a.created_at, c.name
	FROM payment_alerts a
	JOIN clients c ON c.id = a.client_id`

func scanAlert(row scanner) (*models.PaymentAlert, error) {
	var a models.PaymentAlert
	var notes sql.NullString
	var createdBy sql.NullInt64
	if err := row.Scan(&a.ID, &a.ClientID, &a.DueAt, &a.Amount, &notes, &a.IsNotified, &createdBy, &a.CreatedAt, &a.ClientName); err != nil {
		return nil, err
	}
	a.Notes = nullString(notes)
	a.CreatedBy = nullInt64(createdBy)
	return &a, nil
}

func (r *alertRepository) CreateAlert(ctx context.Context, executor SQLExecutor, alert *models.PaymentAlert) (int64, error) {
	query := `INSERT INTO payment_alerts (client_id, due_at, amount, notes, is_notified, created_by, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING id`
	err := executor.QueryRowContext(ctx, query,
		alert.ClientID, alert.DueAt, int64(alert.Amount), alert.Notes, alert.IsNotified, alert.CreatedBy, alert.CreatedAt,
	).Scan(&alert.ID)
	if err != nil {
		return 0, classifyError(err, "creating payment alert")
	}
	return alert.ID, nil
}

func (r *alertRepository) GetAlertByID(ctx context.Context, executor SQLExecutor, id int64) (*models.PaymentAlert, error) {
	a, err := scanAlert(executor.QueryRowContext(ctx, `SELECT `+selectAlertFields+` WHERE a.id = $1`, id))
	if err != nil {
		return nil, classifyError(err, fmt.Sprintf("getting payment alert ID %d", id))
	}
	return a, nil
}

func (r *alertRepository) GetAlerts(ctx context.Context) ([]models.PaymentAlert, error) {
	return r.queryAlerts(ctx, `SELECT `+selectAlertFields+` ORDER BY a.due_at ASC, a.id ASC`)
}

// GetDueAlerts lists alerts due at or before now that have not been surfaced yet.
func (r *alertRepository) GetDueAlerts(ctx context.Context, now time.Time) ([]models.PaymentAlert, error) {
	return r.queryAlerts(ctx, `SELECT `+selectAlertFields+` WHERE a.due_at <= $1 AND a.is_notified = $2 ORDER BY a.due_at ASC, a.id ASC`, now, false)
}

func (r *alertRepository) queryAlerts(ctx context.Context, query string, args ...interface{}) ([]models.PaymentAlert, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying payment alerts: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	alerts := []models.PaymentAlert{}
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning payment alert: %v", ErrDatabaseError, err)
		}
		alerts = append(alerts, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating payment alert rows: %v", ErrDatabaseError, err)
	}
	return alerts, nil
}

// MarkNotified sets is_notified. Marking an already notified alert is a no-op.
func (r *alertRepository) MarkNotified(ctx context.Context, executor SQLExecutor, id int64) error {
	op := fmt.Sprintf("marking payment alert ID %d notified", id)
	result, err := executor.ExecContext(ctx, `UPDATE payment_alerts SET is_notified = $1 WHERE id = $2`, true, id)
	if err != nil {
		return classifyError(err, op)
	}
	return affectedOne(result, op)
}

func (r *alertRepository) DeleteAlert(ctx context.Context, executor SQLExecutor, id int64) error {
	op := fmt.Sprintf("deleting payment alert ID %d", id)
	result, err := executor.ExecContext(ctx, `DELETE FROM payment_alerts WHERE id = $1`, id)
	if err != nil {
		return classifyError(err, op)
	}
	return affectedOne(result, op)
}
