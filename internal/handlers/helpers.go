package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"ghostlounge_backend/internal/services"
	"ghostlounge_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// respondServiceError maps a service error onto the response envelope.
func respondServiceError(c *gin.Context, err error, op string) {
	switch {
	case errors.Is(err, services.ErrInvalidCredentials):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Invalid username or password.", ""))
		return
	case errors.Is(err, utils.ErrInvalidToken):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Invalid or expired token.", ""))
		return
	}

	switch services.ErrorKind(err) {
	case services.KindValidation:
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Validation failed.", err.Error()))
	case services.KindNotFound:
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, err.Error(), ""))
	case services.KindConflict:
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, err.Error(), ""))
	default:
		utils.LogError(err, op)
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, op+" failed.", "Internal error"))
	}
}

func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload.", err.Error()))
		return false
	}
	return true
}

func parseID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid "+name+" format.", c.Param(name)))
		return 0, false
	}
	return id, true
}

// queryInt reads an optional integer query parameter.
func queryInt(c *gin.Context, name string) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		utils.RespondValidationFailed(c, name+" must be an integer")
		return 0, false
	}
	return n, true
}

func queryTime(c *gin.Context, name string) (time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		utils.RespondValidationFailed(c, name+" is required")
		return time.Time{}, false
	}
	t, err := utils.ParseTimestamp(raw)
	if err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return time.Time{}, false
	}
	return t, true
}

// currentUserID returns the authenticated staff id set by the auth middleware.
func currentUserID(c *gin.Context) (int64, bool) {
	id := c.GetInt64(utils.ContextUserIDKey)
	if id <= 0 {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "User not authenticated.", "Missing user ID in context"))
		return 0, false
	}
	return id, true
}
