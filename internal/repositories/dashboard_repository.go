package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"ghostlounge_backend/internal/models"
)

// DashboardRepository computes the front desk summary.
type DashboardRepository interface {
	GetStats(ctx context.Context, now, monthStart, monthEnd time.Time) (*models.DashboardStats, error)
}

type dashboardRepository struct {
	db *sql.DB
}

// NewDashboardRepository creates a new instance of DashboardRepository.
func NewDashboardRepository(db *sql.DB) DashboardRepository {
	return &dashboardRepository{db: db}
}

// GetStats runs one query; month bounds are [monthStart, monthEnd).
func (r *dashboardRepository) GetStats(ctx context.Context, now, monthStart, monthEnd time.Time) (*models.DashboardStats, error) {
	query := `SELECT
	    (SELECT COUNT(*) FROM clients),
	    CAST(COALESCE((SELECT SUM(total) FROM transactions), 0) - COALESCE((SELECT SUM(amount) FROM payments), 0) AS BIGINT),
	    (SELECT COUNT(*) FROM payment_alerts WHERE due_at <= $1 AND is_notified = $2),
	    CAST(COALESCE((SELECT SUM(amount) FROM payments WHERE created_at >= $3 AND created_at < $4), 0) AS BIGINT),
	    (SELECT COUNT(*) FROM reservations WHERE start_time >= $1)`

	var stats models.DashboardStats
	err := r.db.QueryRowContext(ctx, query, now, false, monthStart, monthEnd).Scan(
		&stats.TotalClients, &stats.TotalOutstanding, &stats.OverdueAlerts, &stats.MonthPayments, &stats.UpcomingReservations,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: computing dashboard stats: %v", ErrDatabaseError, err)
	}
	return &stats, nil
}
