package services

import (
	"context"
	"database/sql"
	"time"

	"ghostlounge_backend/internal/database"
	"ghostlounge_backend/internal/models"
	"ghostlounge_backend/internal/repositories"
	"ghostlounge_backend/pkg/money"
)

type CreateAlertRequest struct {
	ClientID int64       `json:"client_id" binding:"required"`
	DueAt    time.Time   `json:"due_at" binding:"required"`
	Amount   money.Cents `json:"amount" binding:"required"`
	Notes    *string     `json:"notes"`
}

// AlertService manages payment reminders. An alert's is_notified flag only moves forward.
type AlertService interface {
	CreateAlert(ctx context.Context, req CreateAlertRequest, createdBy int64) (*models.PaymentAlert, error)
	GetAlert(ctx context.Context, id int64) (*models.PaymentAlert, error)
	GetAlerts(ctx context.Context) ([]models.PaymentAlert, error)
	GetOverdueAlerts(ctx context.Context) ([]models.PaymentAlert, error)
	MarkNotified(ctx context.Context, id int64) (*models.PaymentAlert, error)
	DeleteAlert(ctx context.Context, id int64) error
}

type alertService struct {
	alertRepo  repositories.AlertRepository
	clientRepo repositories.ClientRepository
	db         *sql.DB
	now        func() time.Time
}

func NewAlertService(alertRepo repositories.AlertRepository, clientRepo repositories.ClientRepository, db *sql.DB) AlertService {
	return &alertService{alertRepo: alertRepo, clientRepo: clientRepo, db: db, now: database.Now}
}

func (s *alertService) CreateAlert(ctx context.Context, req CreateAlertRequest, createdBy int64) (*models.PaymentAlert, error) {
	if !req.Amount.IsPositive() {
		return nil, validationf("amount must be greater than zero")
	}
	if req.DueAt.IsZero() {
		return nil, validationf("due_at is required")
	}
	if _, err := s.clientRepo.GetClientByID(ctx, s.db, req.ClientID); err != nil {
		return nil, storeErr(err, ErrClientNotFound, "loading client")
	}

	alert := &models.PaymentAlert{
		ClientID:  req.ClientID,
		DueAt:     database.Normalize(req.DueAt),
		Amount:    req.Amount,
		Notes:     optional(req.Notes),
		CreatedAt: s.now(),
	}
	if createdBy > 0 {
		alert.CreatedBy = &createdBy
	}
	if _, err := s.alertRepo.CreateAlert(ctx, s.db, alert); err != nil {
		return nil, storeErr(err, nil, "creating payment alert")
	}
	return s.GetAlert(ctx, alert.ID)
}

func (s *alertService) GetAlert(ctx context.Context, id int64) (*models.PaymentAlert, error) {
	alert, err := s.alertRepo.GetAlertByID(ctx, s.db, id)
	if err != nil {
		return nil, storeErr(err, ErrAlertNotFound, "getting payment alert")
	}
	return alert, nil
}

func (s *alertService) GetAlerts(ctx context.Context) ([]models.PaymentAlert, error) {
	alerts, err := s.alertRepo.GetAlerts(ctx)
	return alerts, storeErr(err, nil, "listing payment alerts")
}

// GetOverdueAlerts lists alerts that are due and not yet surfaced.
func (s *alertService) GetOverdueAlerts(ctx context.Context) ([]models.PaymentAlert, error) {
	alerts, err := s.alertRepo.GetDueAlerts(ctx, s.now())
	return alerts, storeErr(err, nil, "listing overdue payment alerts")
}

// MarkNotified is idempotent.
func (s *alertService) MarkNotified(ctx context.Context, id int64) (*models.PaymentAlert, error) {
	if err := s.alertRepo.MarkNotified(ctx, s.db, id); err != nil {
		return nil, storeErr(err, ErrAlertNotFound, "marking payment alert notified")
	}
	return s.GetAlert(ctx, id)
}

func (s *alertService) DeleteAlert(ctx context.Context, id int64) error {
	return storeErr(s.alertRepo.DeleteAlert(ctx, s.db, id), ErrAlertNotFound, "deleting payment alert")
}
