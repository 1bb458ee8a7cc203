package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"ghostlounge_backend/internal/models"
)

// ClientRepository defines the interface for client-related database operations.
type ClientRepository interface {
	CreateClient(ctx context.Context, executor SQLExecutor, client *models.Client) (int64, error)
	GetClientByID(ctx context.Context, executor SQLExecutor, id int64) (*models.Client, error)
	GetClients(ctx context.Context, filters models.ClientFilters) ([]models.Client, int, error) // Clients, total count, error
	UpdateClient(ctx context.Context, executor SQLExecutor, client *models.Client) error
	DeleteClient(ctx context.Context, executor SQLExecutor, id int64) error
	AddPoints(ctx context.Context, executor SQLExecutor, id int64, points int64) (int64, error)
	HasLedgerHistory(ctx context.Context, executor SQLExecutor, id int64) (bool, error)
}

type clientRepository struct {
	db *sql.DB
}

// NewClientRepository creates a new instance of ClientRepository.
func NewClientRepository(db *sql.DB) ClientRepository {
	return &clientRepository{db: db}
}

// clientBalanceExpr sums each side with its own sub-select; joining both
// ledgers in one query would multiply rows.
const clientBalanceExpr = `CAST(
	COALESCE((SELECT SUM(t.total) FROM transactions t WHERE t.client_id = c.id), 0) -
	COALESCE((SELECT SUM(p.amount) FROM payments p WHERE p.client_id = c.id), 0) AS BIGINT)`

const selectClientFields = `c.id, c.name, c.phone, c.email, c.notes, c.total_points, ` + clientBalanceExpr + `, c.created_at, c.updated_at`

func scanClient(row scanner, extra ...interface{}) (*models.Client, error) {
	var client models.Client
	var phone, email, notes sql.NullString
	dest := []interface{}{&client.ID, &client.Name, &phone, &email, &notes, &client.TotalPoints, &client.Balance, &client.CreatedAt, &client.UpdatedAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	client.Phone = nullString(phone)
	client.Email = nullString(email)
	client.Notes = nullString(notes)
	return &client, nil
}

// CreateClient inserts a new client into the database.
func (r *clientRepository) CreateClient(ctx context.Context, executor SQLExecutor, client *models.Client) (int64, error) {
	query := `INSERT INTO clients (name, phone, email, notes, total_points, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING id`

	err := executor.QueryRowContext(ctx, query,
		client.Name, client.Phone, client.Email, client.Notes,
		client.TotalPoints, client.CreatedAt, client.UpdatedAt,
	).Scan(&client.ID)
	if err != nil {
		return 0, classifyError(err, "creating client")
	}
	return client.ID, nil
}

// GetClientByID retrieves a client with its computed balance.
func (r *clientRepository) GetClientByID(ctx context.Context, executor SQLExecutor, id int64) (*models.Client, error) {
	query := `SELECT ` + selectClientFields + ` FROM clients c WHERE c.id = $1`
	client, err := scanClient(executor.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, classifyError(err, fmt.Sprintf("getting client ID %d", id))
	}
	return client, nil
}

// GetClients lists clients ordered by name, optionally filtered by a search term.
func (r *clientRepository) GetClients(ctx context.Context, filters models.ClientFilters) ([]models.Client, int, error) {
	clients := []models.Client{}
	var totalCount int

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + selectClientFields + `, COUNT(*) OVER() AS total_count FROM clients c`)

	var args []interface{}
	argCount := 1
	if term := strings.TrimSpace(filters.Search); term != "" {
		queryBuilder.WriteString(fmt.Sprintf(` WHERE LOWER(c.name) LIKE $%d OR LOWER(COALESCE(c.phone, '')) LIKE $%d OR LOWER(COALESCE(c.email, '')) LIKE $%d`, argCount, argCount, argCount))
		args = append(args, "%"+strings.ToLower(term)+"%")
		argCount++
	}
	queryBuilder.WriteString(" ORDER BY c.name ASC, c.id ASC")
	args = pageClause(&queryBuilder, args, argCount, filters.Page, filters.PageSize)

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying clients: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		client, scanErr := scanClient(rows, &totalCount)
		if scanErr != nil {
			return nil, 0, fmt.Errorf("%w: scanning client: %v", ErrDatabaseError, scanErr)
		}
		clients = append(clients, *client)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating client rows: %v", ErrDatabaseError, err)
	}
	return clients, totalCount, nil
}

// UpdateClient updates contact details. Points are only changed through AddPoints.
func (r *clientRepository) UpdateClient(ctx context.Context, executor SQLExecutor, client *models.Client) error {
	query := `UPDATE clients SET name = $1, phone = $2, email = $3, notes = $4, updated_at = $5 WHERE id = $6`
	result, err := executor.ExecContext(ctx, query, client.Name, client.Phone, client.Email, client.Notes, client.UpdatedAt, client.ID)
	if err != nil {
		return classifyError(err, fmt.Sprintf("updating client ID %d", client.ID))
	}
	return affectedOne(result, fmt.Sprintf("updating client ID %d", client.ID))
}

func (r *clientRepository) DeleteClient(ctx context.Context, executor SQLExecutor, id int64) error {
	result, err := executor.ExecContext(ctx, `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		return classifyError(err, fmt.Sprintf("deleting client ID %d", id))
	}
	return affectedOne(result, fmt.Sprintf("deleting client ID %d", id))
}

// AddPoints increments total_points and returns the new total.
func (r *clientRepository) AddPoints(ctx context.Context, executor SQLExecutor, id int64, points int64) (int64, error) {
	var total int64
	err := executor.QueryRowContext(ctx,
		`UPDATE clients SET total_points = total_points + $1 WHERE id = $2 RETURNING total_points`,
		points, id,
	).Scan(&total)
	if err != nil {
		return 0, classifyError(err, fmt.Sprintf("adding points to client ID %d", id))
	}
	return total, nil
}

// HasLedgerHistory reports whether any transaction or payment references the client.
func (r *clientRepository) HasLedgerHistory(ctx context.Context, executor SQLExecutor, id int64) (bool, error) {
	var n int64
	err := executor.QueryRowContext(ctx,
		`SELECT (SELECT COUNT(*) FROM transactions WHERE client_id = $1) + (SELECT COUNT(*) FROM payments WHERE client_id = $1)`,
		id,
	).Scan(&n)
	if err != nil {
		return false, classifyError(err, fmt.Sprintf("checking ledger history for client ID %d", id))
	}
	return n > 0, nil
}
