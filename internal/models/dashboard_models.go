package models

import "ghostlounge_backend/pkg/money"

// DashboardStats is the front desk summary.
type DashboardStats struct {
	TotalClients         int64       `json:"total_clients"`
	TotalOutstanding     money.Cents `json:"total_outstanding"`
	OverdueAlerts        int64       `json:"overdue_alerts"`
	MonthPayments        money.Cents `json:"month_payments"`
	UpcomingReservations int64       `json:"upcoming_reservations"`
}
