package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"ghostlounge_backend/internal/models"
)

// AuthRepository defines the interface for staff account database operations.
type AuthRepository interface {
	CreateUser(ctx context.Context, executor SQLExecutor, user *models.User) (int64, error)
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
	FindUserByID(ctx context.Context, executor SQLExecutor, userID int64) (*models.User, error)
	GetUsers(ctx context.Context) ([]models.User, error)
	UpdateUser(ctx context.Context, executor SQLExecutor, user *models.User) error
	DeleteUser(ctx context.Context, executor SQLExecutor, userID int64) error
	// HasLedgerEntries reports whether the user created any transaction or payment.
	HasLedgerEntries(ctx context.Context, executor SQLExecutor, userID int64) (bool, error)
}

// authRepository implements the AuthRepository interface.
type authRepository struct {
	db *sql.DB // The direct database connection pool
}

// NewAuthRepository creates a new instance of AuthRepository.
func NewAuthRepository(db *sql.DB) AuthRepository {
	return &authRepository{db: db}
}

const selectUserFields = `id, username, password_hash, full_name, role, created_at, updated_at FROM users`

func scanUser(row scanner) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.FullName, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser inserts a new user. PasswordHash must already be a bcrypt hash.
func (r *authRepository) CreateUser(ctx context.Context, executor SQLExecutor, user *models.User) (int64, error) {
	query := `INSERT INTO users (username, password_hash, full_name, role, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id`
	err := executor.QueryRowContext(ctx, query,
		user.Username, user.PasswordHash, user.FullName, user.Role, user.CreatedAt, user.UpdatedAt,
	).Scan(&user.ID)
	if err != nil {
		return 0, classifyError(err, "creating user")
	}
	return user.ID, nil
}

func (r *authRepository) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+selectUserFields+` WHERE username = $1`, username))
	if err != nil {
		return nil, classifyError(err, "finding user by username")
	}
	return u, nil
}

func (r *authRepository) FindUserByID(ctx context.Context, executor SQLExecutor, userID int64) (*models.User, error) {
	u, err := scanUser(executor.QueryRowContext(ctx, `SELECT `+selectUserFields+` WHERE id = $1`, userID))
	if err != nil {
		return nil, classifyError(err, fmt.Sprintf("finding user ID %d", userID))
	}
	return u, nil
}

func (r *authRepository) GetUsers(ctx context.Context) ([]models.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+selectUserFields+` ORDER BY username ASC`)
	if err != nil {
		return nil, fmt.Errorf("%w: querying users: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning user: %v", ErrDatabaseError, err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating user rows: %v", ErrDatabaseError, err)
	}
	return users, nil
}

func (r *authRepository) UpdateUser(ctx context.Context, executor SQLExecutor, user *models.User) error {
	op := fmt.Sprintf("updating user ID %d", user.ID)
	result, err := executor.ExecContext(ctx,
		`UPDATE users SET username = $1, password_hash = $2, full_name = $3, role = $4, updated_at = $5 WHERE id = $6`,
		user.Username, user.PasswordHash, user.FullName, user.Role, user.UpdatedAt, user.ID)
	if err != nil {
		return classifyError(err, op)
	}
	return affectedOne(result, op)
}

func (r *authRepository) DeleteUser(ctx context.Context, executor SQLExecutor, userID int64) error {
	op := fmt.Sprintf("deleting user ID %d", userID)
	result, err := executor.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return classifyError(err, op)
	}
	return affectedOne(result, op)
}

func (r *authRepository) HasLedgerEntries(ctx context.Context, executor SQLExecutor, userID int64) (bool, error) {
	return exists(ctx, executor,
		`SELECT (SELECT COUNT(*) FROM transactions WHERE created_by = $1) + (SELECT COUNT(*) FROM payments WHERE created_by = $1)`,
		userID)
}
