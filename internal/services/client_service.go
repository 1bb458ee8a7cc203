package services

import (
	"context"
	"database/sql"
	"strings"

	"ghostlounge_backend/internal/cache"
	"ghostlounge_backend/internal/database"
	"ghostlounge_backend/internal/models"
	"ghostlounge_backend/internal/repositories"
	"ghostlounge_backend/pkg/utils"
)

// --- Client DTOs ---
type CreateClientRequest struct {
	Name  string  `json:"name" binding:"required"`
	Phone *string `json:"phone"`
	Email *string `json:"email"`
	Notes *string `json:"notes"`
}

type UpdateClientRequest struct {
	Name  *string `json:"name"`
	Phone *string `json:"phone"`
	Email *string `json:"email"`
	Notes *string `json:"notes"`
}

// --- ClientService Interface ---
type ClientService interface {
	CreateClient(ctx context.Context, req CreateClientRequest) (*models.Client, error)
	GetClientByID(ctx context.Context, clientID int64) (*models.Client, error)
	GetClients(ctx context.Context, filters models.ClientFilters) ([]models.Client, int, error)
	UpdateClient(ctx context.Context, clientID int64, req UpdateClientRequest) (*models.Client, error)
	DeleteClient(ctx context.Context, clientID int64) error
}

// --- clientService Implementation ---
type clientService struct {
	clientRepo repositories.ClientRepository
	db         *sql.DB
	balances   cache.BalanceCache
}

// NewClientService creates a new instance of ClientService.
func NewClientService(repo repositories.ClientRepository, db *sql.DB, balances cache.BalanceCache) ClientService {
	if balances == nil {
		balances = cache.Nop{}
	}
	return &clientService{
		clientRepo: repo,
		db:         db,
		balances:   balances,
	}
}

func validateClientData(name string, email *string) error {
	if utils.IsEmpty(name) {
		return validationf("name cannot be empty")
	}
	if email != nil && !utils.IsEmpty(*email) && !utils.IsValidEmail(strings.ToLower(strings.TrimSpace(*email))) {
		return validationf("email format is invalid")
	}
	return nil
}

func optional(s *string) *string {
	if s == nil {
		return nil
	}
	return utils.NewNullString(*s)
}

func (s *clientService) CreateClient(ctx context.Context, req CreateClientRequest) (*models.Client, error) {
	if err := validateClientData(req.Name, req.Email); err != nil {
		return nil, err
	}

	now := database.Now()
	client := &models.Client{
		Name:      strings.TrimSpace(req.Name),
		Phone:     optional(req.Phone),
		Email:     optional(req.Email),
		Notes:     optional(req.Notes),
		CreatedAt: now,
		UpdatedAt: now,
	}
	id, err := s.clientRepo.CreateClient(ctx, s.db, client)
	if err != nil {
		return nil, storeErr(err, nil, "creating client")
	}
	return s.GetClientByID(ctx, id)
}

func (s *clientService) GetClientByID(ctx context.Context, clientID int64) (*models.Client, error) {
	client, err := s.clientRepo.GetClientByID(ctx, s.db, clientID)
	if err != nil {
		return nil, storeErr(err, ErrClientNotFound, "getting client")
	}
	return client, nil
}

func (s *clientService) GetClients(ctx context.Context, filters models.ClientFilters) ([]models.Client, int, error) {
	if filters.Page <= 0 {
		filters.Page = 1
	}
	if filters.PageSize <= 0 {
		filters.PageSize = defaultListLimit
	}
	if filters.PageSize > maxListLimit {
		filters.PageSize = maxListLimit
	}

	clients, totalCount, err := s.clientRepo.GetClients(ctx, filters)
	if err != nil {
		return nil, 0, storeErr(err, nil, "listing clients")
	}
	return clients, totalCount, nil
}

// UpdateClient changes contact details. Points and balance are ledger-owned.
func (s *clientService) UpdateClient(ctx context.Context, clientID int64, req UpdateClientRequest) (*models.Client, error) {
	client, err := s.GetClientByID(ctx, clientID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		client.Name = strings.TrimSpace(*req.Name)
	}
	if req.Phone != nil {
		client.Phone = optional(req.Phone)
	}
	if req.Email != nil {
		client.Email = optional(req.Email)
	}
	if req.Notes != nil {
		client.Notes = optional(req.Notes)
	}
	if err := validateClientData(client.Name, client.Email); err != nil {
		return nil, err
	}

	client.UpdatedAt = database.Now()
	if err := s.clientRepo.UpdateClient(ctx, s.db, client); err != nil {
		return nil, storeErr(err, ErrClientNotFound, "updating client")
	}
	return s.GetClientByID(ctx, clientID)
}

// DeleteClient removes a client without ledger history. Its reservations
// and payment alerts go with it.
func (s *clientService) DeleteClient(ctx context.Context, clientID int64) error {
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := s.clientRepo.GetClientByID(ctx, tx, clientID); err != nil {
			return storeErr(err, ErrClientNotFound, "loading client")
		}
		hasHistory, err := s.clientRepo.HasLedgerHistory(ctx, tx, clientID)
		if err != nil {
			return storeErr(err, nil, "checking client history")
		}
		if hasHistory {
			return ErrClientHasHistory
		}
		return storeErr(s.clientRepo.DeleteClient(ctx, tx, clientID), ErrClientNotFound, "deleting client")
	})
	if err != nil {
		return storeErr(err, nil, "deleting client")
	}
	s.balances.Invalidate(ctx, clientID)
	return nil
}
