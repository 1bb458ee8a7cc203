package handlers

import (
	"net/http"

	"ghostlounge_backend/internal/models"
	"ghostlounge_backend/internal/services"
	"ghostlounge_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

type AlertHandler struct {
	alertService services.AlertService
}

func NewAlertHandler(as services.AlertService) *AlertHandler {
	return &AlertHandler{alertService: as}
}

func (h *AlertHandler) CreateAlert(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req services.CreateAlertRequest
	if !bindJSON(c, &req) {
		return
	}
	alert, err := h.alertService.CreateAlert(c.Request.Context(), req, userID)
	if err != nil {
		respondServiceError(c, err, "Creating payment alert")
		return
	}
	utils.RespondWithSuccess(c, http.StatusCreated, alert)
}

// GetAlerts lists all alerts, or only unnotified overdue ones with ?overdue=true.
func (h *AlertHandler) GetAlerts(c *gin.Context) {
	var (
		alerts []models.PaymentAlert
		err    error
	)
	if c.Query("overdue") == "true" {
		alerts, err = h.alertService.GetOverdueAlerts(c.Request.Context())
	} else {
		alerts, err = h.alertService.GetAlerts(c.Request.Context())
	}
	if err != nil {
		respondServiceError(c, err, "Listing payment alerts")
		return
	}
	if alerts == nil {
		alerts = []models.PaymentAlert{}
	}
	utils.RespondWithSuccess(c, http.StatusOK, alerts)
}

func (h *AlertHandler) GetAlertByID(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	alert, err := h.alertService.GetAlert(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "Loading payment alert")
		return
	}
	utils.RespondWithSuccess(c, http.StatusOK, alert)
}

func (h *AlertHandler) MarkNotified(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	alert, err := h.alertService.MarkNotified(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "Marking payment alert")
		return
	}
	utils.RespondWithSuccess(c, http.StatusOK, alert)
}

func (h *AlertHandler) DeleteAlert(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.alertService.DeleteAlert(c.Request.Context(), id); err != nil {
		respondServiceError(c, err, "Deleting payment alert")
		return
	}
	utils.RespondWithSuccess(c, http.StatusOK, gin.H{"message": "Payment alert deleted successfully"})
}
