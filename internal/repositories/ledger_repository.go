package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"ghostlounge_backend/internal/models"
	"ghostlounge_backend/pkg/money"
)

// LedgerRepository persists charges and payments and computes balances from them.
type LedgerRepository interface {
	CreateTransaction(ctx context.Context, executor SQLExecutor, txn *models.Transaction) (int64, error)
	GetTransactionByID(ctx context.Context, executor SQLExecutor, id int64) (*models.Transaction, error)
	DeleteTransaction(ctx context.Context, executor SQLExecutor, id int64) error
	GetTransactionsByClient(ctx context.Context, clientID int64) ([]models.Transaction, error)
	GetRecentTransactions(ctx context.Context, limit int) ([]models.Transaction, error)

	CreatePayment(ctx context.Context, executor SQLExecutor, payment *models.Payment) (int64, error)
	GetPaymentByID(ctx context.Context, executor SQLExecutor, id int64) (*models.Payment, error)
	DeletePayment(ctx context.Context, executor SQLExecutor, id int64) error
	GetPaymentsByClient(ctx context.Context, clientID int64) ([]models.Payment, error)
	GetRecentPayments(ctx context.Context, limit int) ([]models.Payment, error)

	GetBalance(ctx context.Context, executor SQLExecutor, clientID int64) (money.Cents, error)
}

type ledgerRepository struct {
	db *sql.DB
}

// NewLedgerRepository creates a new instance of LedgerRepository.
func NewLedgerRepository(db *sql.DB) LedgerRepository {
	return &ledgerRepository{db: db}
}

const selectTransactionFields = `t.id, t.client_id, t.product_id, t.quantity, t.unit_price, t.total, t.notes, t.created_by, t.created_at,
	c.name, p.name, COALESCE(u.full_name, '')
	FROM transactions t
	JOIN clients c ON c.id = t.client_id
	JOIN products p ON p.id = t.product_id
	LEFT JOIN users u ON u.id = t.created_by`

func scanTransaction(row scanner) (*models.Transaction, error) {
	var t models.Transaction
	var notes sql.NullString
	err := row.Scan(&t.ID, &t.ClientID, &t.ProductID, &t.Quantity, &t.UnitPrice, &t.Total, &notes, &t.CreatedBy, &t.CreatedAt,
		&t.ClientName, &t.ProductName, &t.CreatedByName)
	if err != nil {
		return nil, err
	}
	t.Notes = nullString(notes)
	return &t, nil
}

func (r *ledgerRepository) CreateTransaction(ctx context.Context, executor SQLExecutor, txn *models.Transaction) (int64, error) {
	query := `INSERT INTO transactions (client_id, product_id, quantity, unit_price, total, notes, created_by, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          RETURNING id`
	err := executor.QueryRowContext(ctx, query,
		txn.ClientID, txn.ProductID, txn.Quantity, int64(txn.UnitPrice), int64(txn.Total), txn.Notes, txn.CreatedBy, txn.CreatedAt,
	).Scan(&txn.ID)
	if err != nil {
		return 0, classifyError(err, "creating transaction")
	}
	return txn.ID, nil
}

func (r *ledgerRepository) GetTransactionByID(ctx context.Context, executor SQLExecutor, id int64) (*models.Transaction, error) {
	t, err := scanTransaction(executor.QueryRowContext(ctx, `SELECT `+selectTransactionFields+` WHERE t.id = $1`, id))
	if err != nil {
		return nil, classifyError(err, fmt.Sprintf("getting transaction ID %d", id))
	}
	return t, nil
}

func (r *ledgerRepository) DeleteTransaction(ctx context.Context, executor SQLExecutor, id int64) error {
	op := fmt.Sprintf("deleting transaction ID %d", id)
	result, err := executor.ExecContext(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return classifyError(err, op)
	}
	return affectedOne(result, op)
}

func (r *ledgerRepository) GetTransactionsByClient(ctx context.Context, clientID int64) ([]models.Transaction, error) {
	return r.queryTransactions(ctx, `SELECT `+selectTransactionFields+` WHERE t.client_id = $1 ORDER BY t.created_at DESC, t.id DESC`, clientID)
}

func (r *ledgerRepository) GetRecentTransactions(ctx context.Context, limit int) ([]models.Transaction, error) {
	return r.queryTransactions(ctx, `SELECT `+selectTransactionFields+` ORDER BY t.created_at DESC, t.id DESC LIMIT $1`, limit)
}

func (r *ledgerRepository) queryTransactions(ctx context.Context, query string, args ...interface{}) ([]models.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying transactions: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	txns := []models.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning transaction: %v", ErrDatabaseError, err)
		}
		txns = append(txns, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating transaction rows: %v", ErrDatabaseError, err)
	}
	return txns, nil
}

const selectPaymentFields = `py.id, py.client_id, py.amount, py.method, py.notes, py.created_by, py.created_at,
	c.name, COALESCE(u.full_name, '')
	FROM payments py
	JOIN clients c ON c.id = py.client_id
	LEFT JOIN users u ON u.id = py.created_by`

func scanPayment(row scanner) (*models.Payment, error) {
	var p models.Payment
	var notes sql.NullString
	if err := row.Scan(&p.ID, &p.ClientID, &p.Amount, &p.Method, &notes, &p.CreatedBy, &p.CreatedAt, &p.ClientName, &p.CreatedByName); err != nil {
		return nil, err
	}
	p.Notes = nullString(notes)
	return &p, nil
}

func (r *ledgerRepository) CreatePayment(ctx context.Context, executor SQLExecutor, payment *models.Payment) (int64, error) {
	query := `INSERT INTO payments (client_id, amount, method, notes, created_by, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id`
	err := executor.QueryRowContext(ctx, query,
		payment.ClientID, int64(payment.Amount), payment.Method, payment.Notes, payment.CreatedBy, payment.CreatedAt,
	).Scan(&payment.ID)
	if err != nil {
		return 0, classifyError(err, "creating payment")
	}
	return payment.ID, nil
}

func (r *ledgerRepository) GetPaymentByID(ctx context.Context, executor SQLExecutor, id int64) (*models.Payment, error) {
	p, err := scanPayment(executor.QueryRowContext(ctx, `SELECT `+selectPaymentFields+` WHERE py.id = $1`, id))
	if err != nil {
		return nil, classifyError(err, fmt.Sprintf("getting payment ID %d", id))
	}
	return p, nil
}

func (r *ledgerRepository) DeletePayment(ctx context.Context, executor SQLExecutor, id int64) error {
	op := fmt.Sprintf("deleting payment ID %d", id)
	result, err := executor.ExecContext(ctx, `DELETE FROM payments WHERE id = $1`, id)
	if err != nil {
		return classifyError(err, op)
	}
	return affectedOne(result, op)
}

func (r *ledgerRepository) GetPaymentsByClient(ctx context.Context, clientID int64) ([]models.Payment, error) {
	return r.queryPayments(ctx, `SELECT `+selectPaymentFields+` WHERE py.client_id = $1 ORDER BY py.created_at DESC, py.id DESC`, clientID)
}

func (r *ledgerRepository) GetRecentPayments(ctx context.Context, limit int) ([]models.Payment, error) {
	return r.queryPayments(ctx, `SELECT `+selectPaymentFields+` ORDER BY py.created_at DESC, py.id DESC LIMIT $1`, limit)
}

func (r *ledgerRepository) queryPayments(ctx context.Context, query string, args ...interface{}) ([]models.Payment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying payments: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	payments := []models.Payment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning payment: %v", ErrDatabaseError, err)
		}
		payments = append(payments, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating payment rows: %v", ErrDatabaseError, err)
	}
	return payments, nil
}

// GetBalance returns Σ transaction totals − Σ payment amounts for the client.
// It does not check that the client exists.
func (r *ledgerRepository) GetBalance(ctx context.Context, executor SQLExecutor, clientID int64) (money.Cents, error) {
	var balance int64
	err := executor.QueryRowContext(ctx, `SELECT CAST(
		COALESCE((SELECT SUM(total) FROM transactions WHERE client_id = $1), 0) -
		COALESCE((SELECT SUM(amount) FROM payments WHERE client_id = $1), 0) AS BIGINT)`, clientID).Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("%w: computing balance for client ID %d: %v", ErrDatabaseError, clientID, err)
	}
	return money.Cents(balance), nil
}
