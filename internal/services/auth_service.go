package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"ghostlounge_backend/internal/models"
	"ghostlounge_backend/internal/repositories"
	"ghostlounge_backend/pkg/utils"
)

// ErrTokenGeneration wraps signing failures.
var ErrTokenGeneration = errors.New("failed to generate token")

// --- Data Transfer Objects (DTOs) ---

// LoginRequest DTO
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest DTO
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// AuthResponse DTO
type AuthResponse struct {
	User         *models.User `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token,omitempty"`
	ExpiresIn    int64        `json:"expires_in"`
}

// --- AuthService Interface ---
type AuthService interface {
	LoginUser(ctx context.Context, req LoginRequest) (*AuthResponse, error)
	RefreshToken(ctx context.Context, req RefreshRequest) (*AuthResponse, error)
	GetUserProfile(ctx context.Context, userID int64) (*models.User, error)
}

// --- authService Implementation ---
type authService struct {
	authRepo repositories.AuthRepository
	db       *sql.DB
	tokens   *utils.TokenManager
}

// NewAuthService creates a new instance of AuthService.
func NewAuthService(authRepo repositories.AuthRepository, db *sql.DB, tokens *utils.TokenManager) AuthService {
	return &authService{
		authRepo: authRepo,
		db:       db,
		tokens:   tokens,
	}
}

func (s *authService) issue(user *models.User) (*AuthResponse, error) {
	accessToken, err := s.tokens.GenerateAccessToken(user.ID, user.Username, user.Role)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenGeneration, err)
	}
	refreshToken, err := s.tokens.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenGeneration, err)
	}
	return &AuthResponse{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.tokens.AccessTTL().Seconds()),
	}, nil
}

// LoginUser handles user login and token generation.
func (s *authService) LoginUser(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	user, err := s.authRepo.FindUserByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, storeErr(err, nil, "login attempt failed")
	}

	// bcrypt.ErrMismatchedHashAndPassword for wrong password
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	utils.LogInfo("User logged in", map[string]interface{}{"user_id": user.ID, "username": user.Username})
	return s.issue(user)
}

// RefreshToken exchanges a valid refresh token for a new token pair.
// The user is reloaded so role changes take effect.
func (s *authService) RefreshToken(ctx context.Context, req RefreshRequest) (*AuthResponse, error) {
	claims, err := s.tokens.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		return nil, utils.ErrInvalidToken
	}
	user, err := s.authRepo.FindUserByID(ctx, s.db, claims.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, utils.ErrInvalidToken
		}
		return nil, storeErr(err, nil, "refreshing token")
	}
	return s.issue(user)
}

// GetUserProfile retrieves a user's profile by their ID.
func (s *authService) GetUserProfile(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.authRepo.FindUserByID(ctx, s.db, userID)
	if err != nil {
		return nil, storeErr(err, ErrUserNotFound, "retrieving user profile")
	}
	return user, nil
}
