package handlers

import (
	"net/http"

	"ghostlounge_backend/internal/services"
	"ghostlounge_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// AuthHandler holds the authentication service.
type AuthHandler struct {
	authService services.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(as services.AuthService) *AuthHandler {
	return &AuthHandler{authService: as}
}

// LoginUser handles user login.
func (h *AuthHandler) LoginUser(c *gin.Context) {
	var req services.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	authResp, err := h.authService.LoginUser(c.Request.Context(), req)
	if err != nil {
		utils.LogDebug("login rejected", map[string]interface{}{"username": req.Username})
		respondServiceError(c, err, "Login")
		return
	}
	utils.RespondWithSuccess(c, http.StatusOK, authResp)
}

// RefreshToken trades a refresh token for a fresh token pair.
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req services.RefreshRequest
	if !bindJSON(c, &req) {
		return
	}

	authResp, err := h.authService.RefreshToken(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "Token refresh")
		return
	}
	utils.RespondWithSuccess(c, http.StatusOK, authResp)
}

// GetCurrentUser retrieves the profile of the currently authenticated user.
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	user, err := h.authService.GetUserProfile(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err, "Loading profile")
		return
	}
	utils.RespondWithSuccess(c, http.StatusOK, user)
}

// LogoutUser is a no-op for stateless tokens; the client drops them.
func (h *AuthHandler) LogoutUser(c *gin.Context) {
	utils.RespondWithSuccess(c, http.StatusOK, gin.H{"message": "Logged out"})
}
