package handlers

import (
	"net/http"

	"ghostlounge_backend/internal/models"
	"ghostlounge_backend/internal/services"
	"ghostlounge_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// ClientHandler holds the client service.
type ClientHandler struct {
	clientService services.ClientService
}

// NewClientHandler creates a new ClientHandler.
func NewClientHandler(cs services.ClientService) *ClientHandler {
	return &ClientHandler{clientService: cs}
}

// CreateClient handles the creation of a new client.
func (h *ClientHandler) CreateClient(c *gin.Context) {
	var req services.CreateClientRequest
	if !bindJSON(c, &req) {
		return
	}

	client, err := h.clientService.CreateClient(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "Creating client")
		return
	}
	utils.RespondWithSuccess(c, http.StatusCreated, client)
}

// GetClients handles fetching all clients with pagination and search.
func (h *ClientHandler) GetClients(c *gin.Context) {
	var filters models.ClientFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}
	if filters.Page <= 0 {
		filters.Page = 1
	}
	if filters.PageSize <= 0 || filters.PageSize > 500 {
		filters.PageSize = 50
	}

	clients, totalCount, err := h.clientService.GetClients(c.Request.Context(), filters)
	if err != nil {
		respondServiceError(c, err, "Listing clients")
		return
	}
	if clients == nil {
		clients = []models.Client{}
	}

	utils.RespondWithSuccess(c, http.StatusOK, gin.H{
		"items":     clients,
		"total":     totalCount,
		"page":      filters.Page,
		"page_size": filters.PageSize,
	})
}

// GetClientByID handles fetching a single client by ID.
func (h *ClientHandler) GetClientByID(c *gin.Context) {
	clientID, ok := parseID(c, "id")
	if !ok {
		return
	}

	client, err := h.clientService.GetClientByID(c.Request.Context(), clientID)
	if err != nil {
		respondServiceError(c, err, "Loading client")
		return
	}
	utils.RespondWithSuccess(c, http.StatusOK, client)
}

// UpdateClient handles updating a client.
func (h *ClientHandler) UpdateClient(c *gin.Context) {
	clientID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req services.UpdateClientRequest
	if !bindJSON(c, &req) {
		return
	}

	client, err := h.clientService.UpdateClient(c.Request.Context(), clientID, req)
	if err != nil {
		respondServiceError(c, err, "Updating client")
		return
	}
	utils.RespondWithSuccess(c, http.StatusOK, client)
}

// DeleteClient removes a client with no ledger history. Reservations go with it.
func (h *ClientHandler) DeleteClient(c *gin.Context) {
	clientID, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.clientService.DeleteClient(c.Request.Context(), clientID); err != nil {
		respondServiceError(c, err, "Deleting client")
		return
	}
	utils.RespondWithSuccess(c, http.StatusOK, gin.H{"message": "Client deleted successfully"})
}
