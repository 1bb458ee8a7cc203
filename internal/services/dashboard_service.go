package services

import (
	"context"
	"time"

	"ghostlounge_backend/internal/database"
	"ghostlounge_backend/internal/models"
	"ghostlounge_backend/internal/repositories"
)

type DashboardService interface {
	GetStats(ctx context.Context) (*models.DashboardStats, error)
}

type dashboardService struct {
	repo repositories.DashboardRepository
	now  func() time.Time
}

func NewDashboardService(repo repositories.DashboardRepository) DashboardService {
	return &dashboardService{repo: repo, now: database.Now}
}

// GetStats summarises the desk. "This month" is the current UTC calendar month.
func (s *dashboardService) GetStats(ctx context.Context) (*models.DashboardStats, error) {
	now := s.now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	stats, err := s.repo.GetStats(ctx, now, monthStart, monthStart.AddDate(0, 1, 0))
	if err != nil {
		return nil, storeErr(err, nil, "loading dashboard stats")
	}
	return stats, nil
}
