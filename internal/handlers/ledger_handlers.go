package handlers

import (
	"net/http"
	"strconv"

	"ghostlounge_backend/internal/models"
	"ghostlounge_backend/internal/services"
	"ghostlounge_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// LedgerHandler exposes charges, payments, checkout and balances.
type LedgerHandler struct {
	ledgerService services.LedgerService
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(ls services.LedgerService) *LedgerHandler {
	return &LedgerHandler{ledgerService: ls}
}

// PostCharge records a single product sale on a client's tab.
func (h *LedgerHandler) PostCharge(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req services.PostChargeRequest
	if !bindJSON(c, &req) {
		return
	}

	tx, err := h.ledgerService.PostCharge(c.Request.Context(), req, userID)
	if err != nil {
		respondServiceError(c, err, "Posting charge")
		return
	}
	utils.RespondWithSuccess(c, http.StatusCreated, tx)
}

// PostPayment records money received from a client.
func (h *LedgerHandler) PostPayment(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req services.PostPaymentRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.ledgerService.PostPayment(c.Request.Context(), req, userID)
	if err != nil {
		respondServiceError(c, err, "Posting payment")
		return
	}
	utils.RespondWithSuccess(c, http.StatusCreated, result)
}

// Checkout sells a cart in one atomic step.
func (h *LedgerHandler) Checkout(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req services.CheckoutRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.ledgerService.Checkout(c.Request.Context(), req, userID)
	if err != nil {
		respondServiceError(c, err, "Checkout")
		return
	}
	utils.RespondWithSuccess(c, http.StatusCreated, result)
}

type awardPointsRequest struct {
	Points int64 `json:"points" binding:"required"`
}

// AwardPoints grants ghost points outside of a sale.
func (h *LedgerHandler) AwardPoints(c *gin.Context) {
	clientID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req awardPointsRequest
	if !bindJSON(c, &req) {
		return
	}

	total, err := h.ledgerService.AwardPoints(c.Request.Context(), clientID, req.Points)
	if err != nil {
		respondServiceError(c, err, "Awarding points")
		return
	}
	utils.RespondWithSuccess(c, http.StatusOK, gin.H{"client_id": clientID, "total_points": total})
}

// GetBalance returns payments minus charges; negative means the client owes money.
func (h *LedgerHandler) GetBalance(c *gin.Context) {
	clientID, ok := parseID(c, "id")
	if !ok {
		return
	}
	balance, err := h.ledgerService.GetBalance(c.Request.Context(), clientID)
	if err != nil {
		respondServiceError(c, err, "Loading balance")
		return
	}
	utils.RespondWithSuccess(c, http.StatusOK, gin.H{"client_id": clientID, "balance": balance})
}

func (h *LedgerHandler) GetClientRank(c *gin.Context) {
	clientID, ok := parseID(c, "id")
	if !ok {
		return
	}
	info, err := h.ledgerService.GetClientRankInfo(c.Request.Context(), clientID)
	if err != nil {
		respondServiceError(c, err, "Loading client rank")
		return
	}
	utils.RespondWithSuccess(c, http.StatusOK, info)
}

// GetRankForPoints resolves ?points= to the current and next rank.
func (h *LedgerHandler) GetRankForPoints(c *gin.Context) {
	points, err := strconv.ParseInt(c.Query("points"), 10, 64)
	if err != nil {
		utils.RespondValidationFailed(c, "points must be an integer")
		return
	}
	info, err := h.ledgerService.GetRankInfo(c.Request.Context(), points)
	if err != nil {
		respondServiceError(c, err, "Resolving rank")
		return
	}
	utils.RespondWithSuccess(c, http.StatusOK, info)
}

func (h *LedgerHandler) GetClientTransactions(c *gin.Context) {
	clientID, ok := parseID(c, "id")
	if !ok {
		return
	}
	txs, err := h.ledgerService.ListClientTransactions(c.Request.Context(), clientID)
	if err != nil {
		respondServiceError(c, err, "Listing transactions")
		return
	}
	if txs == nil {
		txs = []models.Transaction{}
	}
	utils.RespondWithSuccess(c, http.StatusOK, txs)
}

func (h *LedgerHandler) GetClientPayments(c *gin.Context) {
	clientID, ok := parseID(c, "id")
	if !ok {
		return
	}
	payments, err := h.ledgerService.ListClientPayments(c.Request.Context(), clientID)
	if err != nil {
		respondServiceError(c, err, "Listing payments")
		return
	}
	if payments == nil {
		payments = []models.Payment{}
	}
	utils.RespondWithSuccess(c, http.StatusOK, payments)
}

// GetTransactions lists the most recent charges, newest first.
func (h *LedgerHandler) GetTransactions(c *gin.Context) {
	limit, ok := queryInt(c, "limit")
	if !ok {
		return
	}
	txs, err := h.ledgerService.ListRecentTransactions(c.Request.Context(), limit)
	if err != nil {
		respondServiceError(c, err, "Listing transactions")
		return
	}
	if txs == nil {
		txs = []models.Transaction{}
	}
	utils.RespondWithSuccess(c, http.StatusOK, txs)
}

func (h *LedgerHandler) GetTransactionByID(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	tx, err := h.ledgerService.GetTransaction(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "Loading transaction")
		return
	}
	utils.RespondWithSuccess(c, http.StatusOK, tx)
}

// DeleteTransaction voids a charge. Points already awarded stay.
func (h *LedgerHandler) DeleteTransaction(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.ledgerService.DeleteTransaction(c.Request.Context(), id); err != nil {
		respondServiceError(c, err, "Deleting transaction")
		return
	}
	utils.RespondWithSuccess(c, http.StatusOK, gin.H{"message": "Transaction deleted successfully"})
}

func (h *LedgerHandler) GetPayments(c *gin.Context) {
	limit, ok := queryInt(c, "limit")
	if !ok {
		return
	}
	payments, err := h.ledgerService.ListRecentPayments(c.Request.Context(), limit)
	if err != nil {
		respondServiceError(c, err, "Listing payments")
		return
	}
	if payments == nil {
		payments = []models.Payment{}
	}
	utils.RespondWithSuccess(c, http.StatusOK, payments)
}

func (h *LedgerHandler) GetPaymentByID(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	payment, err := h.ledgerService.GetPayment(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "Loading payment")
		return
	}
	utils.RespondWithSuccess(c, http.StatusOK, payment)
}

func (h *LedgerHandler) DeletePayment(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.ledgerService.DeletePayment(c.Request.Context(), id); err != nil {
		respondServiceError(c, err, "Deleting payment")
		return
	}
	utils.RespondWithSuccess(c, http.StatusOK, gin.H{"message": "Payment deleted successfully"})
}
