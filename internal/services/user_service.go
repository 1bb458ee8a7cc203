package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"ghostlounge_backend/internal/database"
	"ghostlounge_backend/internal/models"
	"ghostlounge_backend/internal/repositories"
	"ghostlounge_backend/pkg/utils"
)

const minPasswordLength = 6

type CreateUserRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	FullName string `json:"full_name" binding:"required"`
	Role     string `json:"role"`
}

// UpdateUserRequest changes profile fields. Password is only changed when non-empty.
type UpdateUserRequest struct {
	Username *string `json:"username"`
	FullName *string `json:"full_name"`
	Role     *string `json:"role"`
	Password *string `json:"password"`
}

type UserService interface {
	CreateUser(ctx context.Context, req CreateUserRequest) (*models.User, error)
	GetUsers(ctx context.Context) ([]models.User, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)
	UpdateUser(ctx context.Context, id int64, req UpdateUserRequest) (*models.User, error)
	DeleteUser(ctx context.Context, id int64) error
}

type userService struct {
	authRepo repositories.AuthRepository
	db       *sql.DB
}

func NewUserService(repo repositories.AuthRepository, db *sql.DB) UserService {
	return &userService{authRepo: repo, db: db}
}

func hashPassword(password string) (string, error) {
	if !utils.IsValidPasswordLength(password, minPasswordLength) {
		return "", validationf("password must be at least %d characters", minPasswordLength)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func usernameConflict(err error, notFound error, op string) error {
	if errors.Is(err, repositories.ErrDuplicateKey) {
		return ErrUsernameExists
	}
	return storeErr(err, notFound, op)
}

func (s *userService) CreateUser(ctx context.Context, req CreateUserRequest) (*models.User, error) {
	username := strings.TrimSpace(req.Username)
	fullName := strings.TrimSpace(req.FullName)
	role := strings.ToLower(strings.TrimSpace(req.Role))
	if role == "" {
		role = models.RoleStaff
	}
	switch {
	case username == "":
		return nil, validationf("username cannot be empty")
	case fullName == "":
		return nil, validationf("full_name cannot be empty")
	case !models.IsValidRole(role):
		return nil, validationf("unknown role %q", req.Role)
	}
	hash, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	now := database.Now()
	user := &models.User{Username: username, PasswordHash: hash, FullName: fullName, Role: role, CreatedAt: now, UpdatedAt: now}
	if _, err := s.authRepo.CreateUser(ctx, s.db, user); err != nil {
		return nil, usernameConflict(err, nil, "creating user")
	}
	return s.GetUser(ctx, user.ID)
}

func (s *userService) GetUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.authRepo.GetUsers(ctx)
	return users, storeErr(err, nil, "listing users")
}

func (s *userService) GetUser(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.authRepo.FindUserByID(ctx, s.db, id)
	if err != nil {
		return nil, storeErr(err, ErrUserNotFound, "getting user")
	}
	return user, nil
}

func (s *userService) UpdateUser(ctx context.Context, id int64, req UpdateUserRequest) (*models.User, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Username != nil {
		user.Username = strings.TrimSpace(*req.Username)
		if user.Username == "" {
			return nil, validationf("username cannot be empty")
		}
	}
	if req.FullName != nil {
		user.FullName = strings.TrimSpace(*req.FullName)
		if user.FullName == "" {
			return nil, validationf("full_name cannot be empty")
		}
	}
	if req.Role != nil {
		role := strings.ToLower(strings.TrimSpace(*req.Role))
		if !models.IsValidRole(role) {
			return nil, validationf("unknown role %q", *req.Role)
		}
		user.Role = role
	}
	if req.Password != nil && *req.Password != "" {
		if user.PasswordHash, err = hashPassword(*req.Password); err != nil {
			return nil, err
		}
	}

	user.UpdatedAt = database.Now()
	if err := s.authRepo.UpdateUser(ctx, s.db, user); err != nil {
		return nil, usernameConflict(err, ErrUserNotFound, "updating user")
	}
	return s.GetUser(ctx, id)
}

// DeleteUser refuses to remove anyone who recorded ledger entries.
func (s *userService) DeleteUser(ctx context.Context, id int64) error {
	return database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := s.authRepo.FindUserByID(ctx, tx, id); err != nil {
			return storeErr(err, ErrUserNotFound, "loading user")
		}
		used, err := s.authRepo.HasLedgerEntries(ctx, tx, id)
		if err != nil {
			return storeErr(err, nil, "checking user history")
		}
		if used {
			return ErrUserHasHistory
		}
		return storeErr(s.authRepo.DeleteUser(ctx, tx, id), ErrUserNotFound, "deleting user")
	})
}
