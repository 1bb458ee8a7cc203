package handlers

import (
	"net/http"

	"ghostlounge_backend/internal/models"
	"ghostlounge_backend/internal/services"
	"ghostlounge_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// UserHandler manages staff accounts. Routes are admin-only.
type UserHandler struct {
	userService services.UserService
}

func NewUserHandler(us services.UserService) *UserHandler {
	return &UserHandler{userService: us}
}

func (h *UserHandler) CreateUser(c *gin.Context) {
	var req services.CreateUserRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.userService.CreateUser(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "Creating user")
		return
	}
	utils.RespondWithSuccess(c, http.StatusCreated, user)
}

func (h *UserHandler) GetUsers(c *gin.Context) {
	users, err := h.userService.GetUsers(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "Listing users")
		return
	}
	if users == nil {
		users = []models.User{}
	}
	utils.RespondWithSuccess(c, http.StatusOK, users)
}

func (h *UserHandler) GetUserByID(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	user, err := h.userService.GetUser(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "Loading user")
		return
	}
	utils.RespondWithSuccess(c, http.StatusOK, user)
}

func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req services.UpdateUserRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.userService.UpdateUser(c.Request.Context(), id, req)
	if err != nil {
		respondServiceError(c, err, "Updating user")
		return
	}
	utils.RespondWithSuccess(c, http.StatusOK, user)
}

// DeleteUser refuses to delete yourself.
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if c.GetInt64(utils.ContextUserIDKey) == id {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "You cannot delete your own account.", ""))
		return
	}
	if err := h.userService.DeleteUser(c.Request.Context(), id); err != nil {
		respondServiceError(c, err, "Deleting user")
		return
	}
	utils.RespondWithSuccess(c, http.StatusOK, gin.H{"message": "User deleted successfully"})
}
