package handlers

import (
	"net/http"

	"ghostlounge_backend/internal/models"
	"ghostlounge_backend/internal/services"
	"ghostlounge_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

type RankHandler struct {
	rankService services.RankService
}

func NewRankHandler(rs services.RankService) *RankHandler {
	return &RankHandler{rankService: rs}
}

func (h *RankHandler) CreateRank(c *gin.Context) {
	var req services.RankRequest
	if !bindJSON(c, &req) {
		return
	}
	rank, err := h.rankService.CreateRank(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "Creating rank")
		return
	}
	utils.RespondWithSuccess(c, http.StatusCreated, rank)
}

// GetRanks lists ranks by threshold, lowest first.
func (h *RankHandler) GetRanks(c *gin.Context) {
	ranks, err := h.rankService.GetRanks(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "Listing ranks")
		return
	}
	if ranks == nil {
		ranks = []models.Rank{}
	}
	utils.RespondWithSuccess(c, http.StatusOK, ranks)
}

func (h *RankHandler) GetRankByID(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	rank, err := h.rankService.GetRank(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "Loading rank")
		return
	}
	utils.RespondWithSuccess(c, http.StatusOK, rank)
}

func (h *RankHandler) UpdateRank(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req services.RankRequest
	if !bindJSON(c, &req) {
		return
	}
	rank, err := h.rankService.UpdateRank(c.Request.Context(), id, req)
	if err != nil {
		respondServiceError(c, err, "Updating rank")
		return
	}
	utils.RespondWithSuccess(c, http.StatusOK, rank)
}

func (h *RankHandler) DeleteRank(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.rankService.DeleteRank(c.Request.Context(), id); err != nil {
		respondServiceError(c, err, "Deleting rank")
		return
	}
	utils.RespondWithSuccess(c, http.StatusOK, gin.H{"message": "Rank deleted successfully"})
}
