package handlers

import (
	"net/http"

	"ghostlounge_backend/internal/models"
	"ghostlounge_backend/internal/services"
	"ghostlounge_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// PCHandler manages the bookable stations.
type PCHandler struct {
	pcService services.PCService
}

func NewPCHandler(ps services.PCService) *PCHandler {
	return &PCHandler{pcService: ps}
}

func (h *PCHandler) CreatePC(c *gin.Context) {
	var req services.CreatePCRequest
	if !bindJSON(c, &req) {
		return
	}
	pc, err := h.pcService.CreatePC(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "Creating PC")
		return
	}
	utils.RespondWithSuccess(c, http.StatusCreated, pc)
}

func (h *PCHandler) GetPCs(c *gin.Context) {
	activeOnly := c.Query("active_only") == "true"
	pcs, err := h.pcService.GetPCs(c.Request.Context(), activeOnly)
	if err != nil {
		respondServiceError(c, err, "Listing PCs")
		return
	}
	if pcs == nil {
		pcs = []models.PC{}
	}
	utils.RespondWithSuccess(c, http.StatusOK, pcs)
}

func (h *PCHandler) GetPCByID(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	pc, err := h.pcService.GetPC(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "Loading PC")
		return
	}
	utils.RespondWithSuccess(c, http.StatusOK, pc)
}

func (h *PCHandler) UpdatePC(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req services.UpdatePCRequest
	if !bindJSON(c, &req) {
		return
	}
	pc, err := h.pcService.UpdatePC(c.Request.Context(), id, req)
	if err != nil {
		respondServiceError(c, err, "Updating PC")
		return
	}
	utils.RespondWithSuccess(c, http.StatusOK, pc)
}

// DeletePC only succeeds for stations without reservations; deactivate the rest.
func (h *PCHandler) DeletePC(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.pcService.DeletePC(c.Request.Context(), id); err != nil {
		respondServiceError(c, err, "Deleting PC")
		return
	}
	utils.RespondWithSuccess(c, http.StatusOK, gin.H{"message": "PC deleted successfully"})
}
