package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"ghostlounge_backend/internal/cache"
	"ghostlounge_backend/internal/database"
	"ghostlounge_backend/internal/metrics"
	"ghostlounge_backend/internal/models"
	"ghostlounge_backend/internal/repositories"
	"ghostlounge_backend/pkg/money"
	"ghostlounge_backend/pkg/utils"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// --- Ledger DTOs ---

// PostChargeRequest charges a client for Quantity units of a product.
// UnitPriceOverride replaces the product's current price, e.g. for a
// rank-discounted sale priced by the caller.
type PostChargeRequest struct {
	ClientID          int64        `json:"client_id" binding:"required"`
	ProductID         int64        `json:"product_id" binding:"required"`
	Quantity          int          `json:"quantity" binding:"required"`
	UnitPriceOverride *money.Cents `json:"unit_price_override"`
	Notes             *string      `json:"notes"`
}

// PostPaymentRequest records money received. When DueAt is set and the
// client still owes money afterwards, a payment alert is raised for the rest.
type PostPaymentRequest struct {
	ClientID int64       `json:"client_id" binding:"required"`
	Amount   money.Cents `json:"amount" binding:"required"`
	Method   string      `json:"method"`
	Notes    *string     `json:"notes"`
	DueAt    *time.Time  `json:"due_at"`
}

// PaymentResult is the outcome of PostPayment.
type PaymentResult struct {
	Payment *models.Payment      `json:"payment"`
	Balance money.Cents          `json:"balance"`
	Alert   *models.PaymentAlert `json:"alert,omitempty"`
}

// CheckoutLine is one cart line of a sale.
type CheckoutLine struct {
	ProductID int64 `json:"product_id" binding:"required"`
	Quantity  int   `json:"quantity" binding:"required"`
}

// CheckoutRequest sells a whole cart to a client.
type CheckoutRequest struct {
	ClientID          int64          `json:"client_id" binding:"required"`
	Lines             []CheckoutLine `json:"lines" binding:"required"`
	ApplyRankDiscount bool           `json:"apply_rank_discount"`
	Notes             *string        `json:"notes"`
}

// CheckoutResult summarises a committed sale.
type CheckoutResult struct {
	TransactionIDs  []int64         `json:"transaction_ids"`
	Total           money.Cents     `json:"total"`
	DiscountPercent int             `json:"discount_percent"`
	PointsAwarded   int64           `json:"points_awarded"`
	TotalPoints     int64           `json:"total_points"`
	Balance         money.Cents     `json:"balance"`
	Rank            models.RankInfo `json:"rank"`
}

// --- LedgerService Interface ---
type LedgerService interface {
	PostCharge(ctx context.Context, req PostChargeRequest, createdBy int64) (*models.Transaction, error)
	PostPayment(ctx context.Context, req PostPaymentRequest, createdBy int64) (*PaymentResult, error)
	AwardPoints(ctx context.Context, clientID int64, points int64) (int64, error)
	Checkout(ctx context.Context, req CheckoutRequest, createdBy int64) (*CheckoutResult, error)

	GetBalance(ctx context.Context, clientID int64) (money.Cents, error)
	GetRankInfo(ctx context.Context, totalPoints int64) (*models.RankInfo, error)
	GetClientRankInfo(ctx context.Context, clientID int64) (*models.ClientRankInfo, error)

	GetTransaction(ctx context.Context, id int64) (*models.Transaction, error)
	DeleteTransaction(ctx context.Context, id int64) error
	GetPayment(ctx context.Context, id int64) (*models.Payment, error)
	DeletePayment(ctx context.Context, id int64) error

	ListClientTransactions(ctx context.Context, clientID int64) ([]models.Transaction, error)
	ListClientPayments(ctx context.Context, clientID int64) ([]models.Payment, error)
	ListRecentTransactions(ctx context.Context, limit int) ([]models.Transaction, error)
	ListRecentPayments(ctx context.Context, limit int) ([]models.Payment, error)
}

// --- ledgerService Implementation ---
type ledgerService struct {
	db          *sql.DB
	clientRepo  repositories.ClientRepository
	catalogRepo repositories.CatalogRepository
	ledgerRepo  repositories.LedgerRepository
	rankRepo    repositories.RankRepository
	alertRepo   repositories.AlertRepository
	authRepo    repositories.AuthRepository
	balances    cache.BalanceCache
	metrics     *metrics.Metrics
	now         func() time.Time
}

// NewLedgerService creates a new instance of LedgerService. A nil cache
// disables balance caching; nil metrics record nothing.
func NewLedgerService(
	db *sql.DB,
	clientRepo repositories.ClientRepository,
	catalogRepo repositories.CatalogRepository,
	ledgerRepo repositories.LedgerRepository,
	rankRepo repositories.RankRepository,
	alertRepo repositories.AlertRepository,
	authRepo repositories.AuthRepository,
	balances cache.BalanceCache,
	m *metrics.Metrics,
) LedgerService {
	if balances == nil {
		balances = cache.Nop{}
	}
	return &ledgerService{
		db:          db,
		clientRepo:  clientRepo,
		catalogRepo: catalogRepo,
		ledgerRepo:  ledgerRepo,
		rankRepo:    rankRepo,
		alertRepo:   alertRepo,
		authRepo:    authRepo,
		balances:    balances,
		metrics:     m,
		now:         database.Now,
	}
}

func (s *ledgerService) requireClient(ctx context.Context, exec repositories.SQLExecutor, clientID int64) (*models.Client, error) {
	if clientID <= 0 {
		return nil, validationf("client_id is required")
	}
	client, err := s.clientRepo.GetClientByID(ctx, exec, clientID)
	if err != nil {
		return nil, storeErr(err, ErrClientNotFound, "loading client")
	}
	return client, nil
}

func (s *ledgerService) requireUser(ctx context.Context, exec repositories.SQLExecutor, userID int64) error {
	if userID <= 0 {
		return validationf("created_by is required")
	}
	if _, err := s.authRepo.FindUserByID(ctx, exec, userID); err != nil {
		return storeErr(err, ErrUserNotFound, "loading creator")
	}
	return nil
}

// postCharge validates and inserts one charge inside exec. It returns the
// product so callers can total up points.
func (s *ledgerService) postCharge(ctx context.Context, exec repositories.SQLExecutor, req PostChargeRequest, createdBy int64) (*models.Transaction, *models.Product, error) {
	if req.Quantity <= 0 {
		return nil, nil, validationf("quantity must be greater than zero")
	}
	if req.ProductID <= 0 {
		return nil, nil, validationf("product_id is required")
	}
	if req.UnitPriceOverride != nil && req.UnitPriceOverride.IsNegative() {
		return nil, nil, validationf("unit_price_override cannot be negative")
	}

	product, err := s.catalogRepo.GetProductByID(ctx, exec, req.ProductID)
	if err != nil {
		return nil, nil, storeErr(err, ErrProductNotFound, "loading product")
	}
	if !product.IsActive {
		return nil, nil, validationf("product %q is not active", product.Name)
	}

	unitPrice := product.Price
	if req.UnitPriceOverride != nil {
		unitPrice = *req.UnitPriceOverride
	}
	total, err := unitPrice.Mul(req.Quantity)
	if err != nil {
		return nil, nil, validationf("quantity %d at %s is too large", req.Quantity, unitPrice)
	}

	txn := &models.Transaction{
		ClientID:  req.ClientID,
		ProductID: product.ID,
		Quantity:  req.Quantity,
		UnitPrice: unitPrice,
		Total:     total,
		Notes:     req.Notes,
		CreatedBy: createdBy,
		CreatedAt: s.now(),
	}
	if _, err := s.ledgerRepo.CreateTransaction(ctx, exec, txn); err != nil {
		return nil, nil, storeErr(err, nil, "creating transaction")
	}
	return txn, product, nil
}

func (s *ledgerService) PostCharge(ctx context.Context, req PostChargeRequest, createdBy int64) (*models.Transaction, error) {
	var txn *models.Transaction
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := s.requireClient(ctx, tx, req.ClientID); err != nil {
			return err
		}
		if err := s.requireUser(ctx, tx, createdBy); err != nil {
			return err
		}
		created, _, err := s.postCharge(ctx, tx, req, createdBy)
		if err != nil {
			return err
		}
		txn, err = s.ledgerRepo.GetTransactionByID(ctx, tx, created.ID)
		return storeErr(err, nil, "reloading transaction")
	})
	if err != nil {
		return nil, storeErr(err, nil, "posting charge")
	}
	s.balances.Invalidate(ctx, req.ClientID)
	s.metrics.RecordLedgerEntry(metrics.EntryCharge, int64(txn.Total))
	return txn, nil
}

func (s *ledgerService) PostPayment(ctx context.Context, req PostPaymentRequest, createdBy int64) (*PaymentResult, error) {
	if !req.Amount.IsPositive() {
		return nil, validationf("amount must be greater than zero")
	}
	method := strings.TrimSpace(req.Method)
	if method == "" {
		method = models.PaymentMethodCash
	}

	result := &PaymentResult{}
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := s.requireClient(ctx, tx, req.ClientID); err != nil {
			return err
		}
		if err := s.requireUser(ctx, tx, createdBy); err != nil {
			return err
		}

		now := s.now()
		payment := &models.Payment{
			ClientID:  req.ClientID,
			Amount:    req.Amount,
			Method:    method,
			Notes:     req.Notes,
			CreatedBy: createdBy,
			CreatedAt: now,
		}
		if _, err := s.ledgerRepo.CreatePayment(ctx, tx, payment); err != nil {
			return storeErr(err, nil, "creating payment")
		}

		balance, err := s.ledgerRepo.GetBalance(ctx, tx, req.ClientID)
		if err != nil {
			return storeErr(err, nil, "computing balance")
		}
		result.Balance = balance

		if req.DueAt != nil && balance.IsPositive() {
			alert := &models.PaymentAlert{
				ClientID:  req.ClientID,
				DueAt:     database.Normalize(*req.DueAt),
				Amount:    balance,
				Notes:     req.Notes,
				CreatedBy: &createdBy,
				CreatedAt: now,
			}
			if _, err := s.alertRepo.CreateAlert(ctx, tx, alert); err != nil {
				return storeErr(err, nil, "creating payment alert")
			}
			if result.Alert, err = s.alertRepo.GetAlertByID(ctx, tx, alert.ID); err != nil {
				return storeErr(err, nil, "reloading payment alert")
			}
		}

		result.Payment, err = s.ledgerRepo.GetPaymentByID(ctx, tx, payment.ID)
		return storeErr(err, nil, "reloading payment")
	})
	if err != nil {
		return nil, storeErr(err, nil, "posting payment")
	}
	s.balances.Invalidate(ctx, req.ClientID)
	s.metrics.RecordLedgerEntry(metrics.EntryPayment, int64(req.Amount))
	if result.Balance.IsNegative() {
		utils.LogDebug("Client overpaid", map[string]interface{}{"client_id": req.ClientID, "balance": result.Balance.String()})
	}
	return result, nil
}

func (s *ledgerService) awardPoints(ctx context.Context, exec repositories.SQLExecutor, clientID, points int64) (int64, error) {
	if points < 0 {
		return 0, validationf("points cannot be negative")
	}
	total, err := s.clientRepo.AddPoints(ctx, exec, clientID, points)
	if err != nil {
		return 0, storeErr(err, ErrClientNotFound, "awarding points")
	}
	return total, nil
}

// AwardPoints adds points to the client and returns the new total.
func (s *ledgerService) AwardPoints(ctx context.Context, clientID int64, points int64) (int64, error) {
	total, err := s.awardPoints(ctx, s.db, clientID, points)
	if err != nil {
		return 0, err
	}
	s.metrics.RecordPointsAwarded(points)
	return total, nil
}

// Checkout posts every cart line and the summed points in one transaction.
func (s *ledgerService) Checkout(ctx context.Context, req CheckoutRequest, createdBy int64) (*CheckoutResult, error) {
	if len(req.Lines) == 0 {
		return nil, validationf("cart is empty")
	}

	result := &CheckoutResult{TransactionIDs: make([]int64, 0, len(req.Lines))}
	lineTotals := make([]money.Cents, 0, len(req.Lines))
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		client, err := s.requireClient(ctx, tx, req.ClientID)
		if err != nil {
			return err
		}
		if err := s.requireUser(ctx, tx, createdBy); err != nil {
			return err
		}

		if req.ApplyRankDiscount {
			info, err := s.rankInfo(ctx, tx, client.TotalPoints)
			if err != nil {
				return err
			}
			result.DiscountPercent = info.DiscountPercent()
		}

		var points int64
		for i, line := range req.Lines {
			charge := PostChargeRequest{
				ClientID:  client.ID,
				ProductID: line.ProductID,
				Quantity:  line.Quantity,
				Notes:     req.Notes,
			}
			if result.DiscountPercent > 0 {
				product, err := s.catalogRepo.GetProductByID(ctx, tx, line.ProductID)
				if err != nil {
					return fmt.Errorf("line %d: %w", i+1, storeErr(err, ErrProductNotFound, "loading product"))
				}
				discounted := product.Price.ApplyDiscount(result.DiscountPercent)
				charge.UnitPriceOverride = &discounted
			}
			txn, product, err := s.postCharge(ctx, tx, charge, createdBy)
			if err != nil {
				return fmt.Errorf("line %d: %w", i+1, err)
			}
			result.TransactionIDs = append(result.TransactionIDs, txn.ID)
			lineTotals = append(lineTotals, txn.Total)
			if result.Total, err = result.Total.Add(txn.Total); err != nil {
				return validationf("cart total is too large")
			}
			linePoints := product.GhostPoints * int64(line.Quantity)
			if product.GhostPoints != 0 && linePoints/product.GhostPoints != int64(line.Quantity) {
				return validationf("line %d: points overflow", i+1)
			}
			points += linePoints
		}

		result.TotalPoints, err = s.awardPoints(ctx, tx, client.ID, points)
		if err != nil {
			return err
		}
		result.PointsAwarded = points

		info, err := s.rankInfo(ctx, tx, result.TotalPoints)
		if err != nil {
			return err
		}
		result.Rank = *info

		result.Balance, err = s.ledgerRepo.GetBalance(ctx, tx, client.ID)
		return storeErr(err, nil, "computing balance")
	})
	if err != nil {
		return nil, storeErr(err, nil, "checkout")
	}

	s.balances.Invalidate(ctx, req.ClientID)
	for _, total := range lineTotals {
		s.metrics.RecordLedgerEntry(metrics.EntryCharge, int64(total))
	}
	s.metrics.RecordPointsAwarded(result.PointsAwarded)
	utils.LogInfo("Checkout completed", map[string]interface{}{
		"client_id":      req.ClientID,
		"lines":          len(result.TransactionIDs),
		"total":          result.Total.String(),
		"points_awarded": result.PointsAwarded,
		"created_by":     createdBy,
	})
	return result, nil
}

// GetBalance is read-through: a cache miss recomputes the balance from history.
// The fill is dropped if a write invalidated the client while we were reading.
func (s *ledgerService) GetBalance(ctx context.Context, clientID int64) (money.Cents, error) {
	if balance, ok := s.balances.Get(ctx, clientID); ok {
		return balance, nil
	}
	version := s.balances.Version(ctx, clientID)
	client, err := s.requireClient(ctx, s.db, clientID)
	if err != nil {
		return 0, err
	}
	s.balances.Fill(ctx, clientID, version, client.Balance)
	return client.Balance, nil
}

func (s *ledgerService) rankInfo(ctx context.Context, exec repositories.SQLExecutor, points int64) (*models.RankInfo, error) {
	current, err := s.rankRepo.FindCurrent(ctx, exec, points)
	if err != nil {
		return nil, storeErr(err, nil, "finding current rank")
	}
	next, err := s.rankRepo.FindNext(ctx, exec, points)
	if err != nil {
		return nil, storeErr(err, nil, "finding next rank")
	}
	return &models.RankInfo{CurrentRank: current, NextRank: next}, nil
}

func (s *ledgerService) GetRankInfo(ctx context.Context, totalPoints int64) (*models.RankInfo, error) {
	if totalPoints < 0 {
		return nil, validationf("points cannot be negative")
	}
	return s.rankInfo(ctx, s.db, totalPoints)
}

func (s *ledgerService) GetClientRankInfo(ctx context.Context, clientID int64) (*models.ClientRankInfo, error) {
	client, err := s.requireClient(ctx, s.db, clientID)
	if err != nil {
		return nil, err
	}
	info, err := s.rankInfo(ctx, s.db, client.TotalPoints)
	if err != nil {
		return nil, err
	}
	return clientRankInfo(client.ID, client.TotalPoints, info), nil
}

func clientRankInfo(clientID, points int64, info *models.RankInfo) *models.ClientRankInfo {
	out := &models.ClientRankInfo{
		ClientID:        clientID,
		TotalPoints:     points,
		CurrentRank:     info.CurrentRank,
		NextRank:        info.NextRank,
		ProgressPercent: 100,
	}
	if info.NextRank == nil {
		return out
	}

	toNext := info.NextRank.MinPoints - points
	out.PointsToNext = &toNext

	var base int64
	if info.CurrentRank != nil {
		base = info.CurrentRank.MinPoints
	}
	span := info.NextRank.MinPoints - base
	progress := int64(0)
	if span > 0 {
		progress = (points - base) * 100 / span
	}
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	out.ProgressPercent = int(progress)
	return out
}

func (s *ledgerService) GetTransaction(ctx context.Context, id int64) (*models.Transaction, error) {
	txn, err := s.ledgerRepo.GetTransactionByID(ctx, s.db, id)
	if err != nil {
		return nil, storeErr(err, ErrTransactionNotFound, "getting transaction")
	}
	return txn, nil
}

// DeleteTransaction removes a charge. Points it earned stay with the client.
func (s *ledgerService) DeleteTransaction(ctx context.Context, id int64) error {
	txn, err := s.GetTransaction(ctx, id)
	if err != nil {
		return err
	}
	if err := s.ledgerRepo.DeleteTransaction(ctx, s.db, id); err != nil {
		return storeErr(err, ErrTransactionNotFound, "deleting transaction")
	}
	s.balances.Invalidate(ctx, txn.ClientID)
	return nil
}

func (s *ledgerService) GetPayment(ctx context.Context, id int64) (*models.Payment, error) {
	payment, err := s.ledgerRepo.GetPaymentByID(ctx, s.db, id)
	if err != nil {
		return nil, storeErr(err, ErrPaymentNotFound, "getting payment")
	}
	return payment, nil
}

func (s *ledgerService) DeletePayment(ctx context.Context, id int64) error {
	payment, err := s.GetPayment(ctx, id)
	if err != nil {
		return err
	}
	if err := s.ledgerRepo.DeletePayment(ctx, s.db, id); err != nil {
		return storeErr(err, ErrPaymentNotFound, "deleting payment")
	}
	s.balances.Invalidate(ctx, payment.ClientID)
	return nil
}

func (s *ledgerService) ListClientTransactions(ctx context.Context, clientID int64) ([]models.Transaction, error) {
	if _, err := s.requireClient(ctx, s.db, clientID); err != nil {
		return nil, err
	}
	txns, err := s.ledgerRepo.GetTransactionsByClient(ctx, clientID)
	return txns, storeErr(err, nil, "listing client transactions")
}

func (s *ledgerService) ListClientPayments(ctx context.Context, clientID int64) ([]models.Payment, error) {
	if _, err := s.requireClient(ctx, s.db, clientID); err != nil {
		return nil, err
	}
	payments, err := s.ledgerRepo.GetPaymentsByClient(ctx, clientID)
	return payments, storeErr(err, nil, "listing client payments")
}

func (s *ledgerService) ListRecentTransactions(ctx context.Context, limit int) ([]models.Transaction, error) {
	txns, err := s.ledgerRepo.GetRecentTransactions(ctx, clampLimit(limit))
	return txns, storeErr(err, nil, "listing recent transactions")
}

func (s *ledgerService) ListRecentPayments(ctx context.Context, limit int) ([]models.Payment, error) {
	payments, err := s.ledgerRepo.GetRecentPayments(ctx, clampLimit(limit))
	return payments, storeErr(err, nil, "listing recent payments")
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}
