package handlers

import (
	"net/http"

	"ghostlounge_backend/internal/services"
	"ghostlounge_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

type DashboardHandler struct {
	dashboardService services.DashboardService
}

func NewDashboardHandler(ds services.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: ds}
}

// GetStats returns the desk overview counters.
func (h *DashboardHandler) GetStats(c *gin.Context) {
	stats, err := h.dashboardService.GetStats(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "Loading dashboard")
		return
	}
	utils.RespondWithSuccess(c, http.StatusOK, stats)
}
