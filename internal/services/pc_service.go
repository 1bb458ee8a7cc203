package services

import (
	"context"
	"database/sql"
	"strings"

	"ghostlounge_backend/internal/database"
	"ghostlounge_backend/internal/models"
	"ghostlounge_backend/internal/repositories"
)

type CreatePCRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"is_active"`
}

type UpdatePCRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"is_active"`
}

type PCService interface {
	CreatePC(ctx context.Context, req CreatePCRequest) (*models.PC, error)
	GetPC(ctx context.Context, id int64) (*models.PC, error)
	GetPCs(ctx context.Context, activeOnly bool) ([]models.PC, error)
	UpdatePC(ctx context.Context, id int64, req UpdatePCRequest) (*models.PC, error)
	DeletePC(ctx context.Context, id int64) error
}

type pcService struct {
	pcRepo repositories.PCRepository
	db     *sql.DB
}

func NewPCService(repo repositories.PCRepository, db *sql.DB) PCService {
	return &pcService{pcRepo: repo, db: db}
}

func (s *pcService) CreatePC(ctx context.Context, req CreatePCRequest) (*models.PC, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, validationf("pc name cannot be empty")
	}
	now := database.Now()
	pc := &models.PC{Name: name, Description: optional(req.Description), IsActive: true, CreatedAt: now, UpdatedAt: now}
	if req.IsActive != nil {
		pc.IsActive = *req.IsActive
	}
	if _, err := s.pcRepo.CreatePC(ctx, s.db, pc); err != nil {
		return nil, duplicateAsName(err, nil, "creating pc")
	}
	return s.GetPC(ctx, pc.ID)
}

func (s *pcService) GetPC(ctx context.Context, id int64) (*models.PC, error) {
	pc, err := s.pcRepo.GetPCByID(ctx, s.db, id)
	if err != nil {
		return nil, storeErr(err, ErrPCNotFound, "getting pc")
	}
	return pc, nil
}

func (s *pcService) GetPCs(ctx context.Context, activeOnly bool) ([]models.PC, error) {
	pcs, err := s.pcRepo.GetPCs(ctx, activeOnly)
	return pcs, storeErr(err, nil, "listing pcs")
}

// UpdatePC edits a pc. Deactivating keeps its bookings but blocks new ones.
func (s *pcService) UpdatePC(ctx context.Context, id int64, req UpdatePCRequest) (*models.PC, error) {
	pc, err := s.GetPC(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		pc.Name = strings.TrimSpace(*req.Name)
		if pc.Name == "" {
			return nil, validationf("pc name cannot be empty")
		}
	}
	if req.Description != nil {
		pc.Description = optional(req.Description)
	}
	if req.IsActive != nil {
		pc.IsActive = *req.IsActive
	}
	pc.UpdatedAt = database.Now()
	if err := s.pcRepo.UpdatePC(ctx, s.db, pc); err != nil {
		return nil, duplicateAsName(err, ErrPCNotFound, "updating pc")
	}
	return s.GetPC(ctx, id)
}

func (s *pcService) DeletePC(ctx context.Context, id int64) error {
	return database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := s.pcRepo.GetPCByID(ctx, tx, id); err != nil {
			return storeErr(err, ErrPCNotFound, "loading pc")
		}
		booked, err := s.pcRepo.HasReservations(ctx, tx, id)
		if err != nil {
			return storeErr(err, nil, "checking pc reservations")
		}
		if booked {
			return ErrPCHasReservations
		}
		return storeErr(s.pcRepo.DeletePC(ctx, tx, id), ErrPCNotFound, "deleting pc")
	})
}
