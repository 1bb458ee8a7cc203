package handlers

import (
	"net/http"

	"ghostlounge_backend/internal/models"
	"ghostlounge_backend/internal/services"
	"ghostlounge_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// ReservationHandler holds the reservation service.
type ReservationHandler struct {
	reservationService services.ReservationService
}

// NewReservationHandler creates a new ReservationHandler.
func NewReservationHandler(rs services.ReservationService) *ReservationHandler {
	return &ReservationHandler{reservationService: rs}
}

func emptyIfNil(list []models.Reservation) []models.Reservation {
	if list == nil {
		return []models.Reservation{}
	}
	return list
}

// CreateReservation books a PC for the authenticated staff member.
func (h *ReservationHandler) CreateReservation(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req services.ReservationRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.reservationService.Create(c.Request.Context(), req, userID)
	if err != nil {
		respondServiceError(c, err, "Creating reservation")
		return
	}
	utils.RespondWithSuccess(c, http.StatusCreated, res)
}

// GetReservations lists every reservation, or only those in [from, to) when both are given.
func (h *ReservationHandler) GetReservations(c *gin.Context) {
	if c.Query("from") == "" && c.Query("to") == "" {
		list, err := h.reservationService.ListAll(c.Request.Context())
		if err != nil {
			respondServiceError(c, err, "Listing reservations")
			return
		}
		utils.RespondWithSuccess(c, http.StatusOK, emptyIfNil(list))
		return
	}

	from, ok := queryTime(c, "from")
	if !ok {
		return
	}
	to, ok := queryTime(c, "to")
	if !ok {
		return
	}
	list, err := h.reservationService.ListByRange(c.Request.Context(), from, to)
	if err != nil {
		respondServiceError(c, err, "Listing reservations")
		return
	}
	utils.RespondWithSuccess(c, http.StatusOK, emptyIfNil(list))
}

func (h *ReservationHandler) GetUpcomingReservations(c *gin.Context) {
	limit, ok := queryInt(c, "limit")
	if !ok {
		return
	}
	list, err := h.reservationService.ListUpcoming(c.Request.Context(), limit)
	if err != nil {
		respondServiceError(c, err, "Listing upcoming reservations")
		return
	}
	utils.RespondWithSuccess(c, http.StatusOK, emptyIfNil(list))
}

func (h *ReservationHandler) GetClientReservations(c *gin.Context) {
	clientID, ok := parseID(c, "id")
	if !ok {
		return
	}
	list, err := h.reservationService.ListByClient(c.Request.Context(), clientID)
	if err != nil {
		respondServiceError(c, err, "Listing client reservations")
		return
	}
	utils.RespondWithSuccess(c, http.StatusOK, emptyIfNil(list))
}

// CheckConflict answers whether pc_id is taken in [start, end), optionally ignoring exclude_id.
func (h *ReservationHandler) CheckConflict(c *gin.Context) {
	pcID, err := utils.StrToInt64(c.Query("pc_id"))
	if err != nil || pcID <= 0 {
		utils.RespondValidationFailed(c, "pc_id must be a positive integer")
		return
	}
	start, ok := queryTime(c, "start")
	if !ok {
		return
	}
	end, ok := queryTime(c, "end")
	if !ok {
		return
	}
	var excludeID *int64
	if raw := c.Query("exclude_id"); raw != "" {
		id, err := utils.StrToInt64(raw)
		if err != nil {
			utils.RespondValidationFailed(c, "exclude_id must be an integer")
			return
		}
		excludeID = &id
	}

	conflict, err := h.reservationService.CheckConflict(c.Request.Context(), pcID, start, end, excludeID)
	if err != nil {
		respondServiceError(c, err, "Checking conflict")
		return
	}
	utils.RespondWithSuccess(c, http.StatusOK, gin.H{"conflict": conflict})
}

func (h *ReservationHandler) GetReservationByID(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	res, err := h.reservationService.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "Loading reservation")
		return
	}
	utils.RespondWithSuccess(c, http.StatusOK, res)
}

func (h *ReservationHandler) UpdateReservation(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req services.ReservationRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.reservationService.Update(c.Request.Context(), id, req)
	if err != nil {
		respondServiceError(c, err, "Updating reservation")
		return
	}
	utils.RespondWithSuccess(c, http.StatusOK, res)
}

func (h *ReservationHandler) DeleteReservation(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.reservationService.Delete(c.Request.Context(), id); err != nil {
		respondServiceError(c, err, "Deleting reservation")
		return
	}
	utils.RespondWithSuccess(c, http.StatusOK, gin.H{"message": "Reservation deleted successfully"})
}

type externalRefRequest struct {
	ExternalEventRef *string `json:"external_event_ref"`
}

// SetExternalEventRef links a reservation to the mirrored calendar event; null or blank clears it.
func (h *ReservationHandler) SetExternalEventRef(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req externalRefRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.reservationService.SetExternalEventRef(c.Request.Context(), id, req.ExternalEventRef); err != nil {
		respondServiceError(c, err, "Setting external event ref")
		return
	}
	utils.RespondWithSuccess(c, http.StatusOK, gin.H{"message": "External event ref updated"})
}
