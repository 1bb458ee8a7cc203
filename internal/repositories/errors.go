package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	// ErrNotFound is returned when a specific record is not found.
	ErrNotFound = errors.New("requested record not found")

	// ErrDatabaseError is returned for unexpected database errors.
	// It can be used to wrap more specific driver errors.
	ErrDatabaseError = errors.New("database error")

	// ErrDuplicateKey is returned when an insert/update violates a unique constraint.
	ErrDuplicateKey = errors.New("duplicate key value violates unique constraint")

	// ErrForeignKey is returned when a referenced row is missing or a delete is restricted.
	ErrForeignKey = errors.New("foreign key constraint violated")

	// ErrCheckViolation is returned when a row fails a CHECK constraint.
	ErrCheckViolation = errors.New("check constraint violated")
)

// SQLExecutor defines an interface that can be satisfied by *sql.DB or *sql.Tx
// This allows repository methods to be used within transactions or with a direct DB connection.
type SQLExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

// scanner is an interface satisfied by *sql.Row and *sql.Rows.
// This allows for generic scanning helpers.
type scanner interface {
	Scan(dest ...interface{}) error
}

// classifyError maps driver errors from Postgres (lib/pq) and SQLite
// (modernc) onto the repository sentinels. op describes the failed action.
func classifyError(err error, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Name() {
		case "unique_violation":
			return fmt.Errorf("%w: %s: %s (constraint: %s)", ErrDuplicateKey, op, pqErr.Message, pqErr.Constraint)
		case "foreign_key_violation":
			return fmt.Errorf("%w: %s: %s (constraint: %s)", ErrForeignKey, op, pqErr.Message, pqErr.Constraint)
		case "check_violation":
			return fmt.Errorf("%w: %s: %s (constraint: %s)", ErrCheckViolation, op, pqErr.Message, pqErr.Constraint)
		}
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return fmt.Errorf("%w: %s: %v", ErrDuplicateKey, op, err)
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return fmt.Errorf("%w: %s: %v", ErrForeignKey, op, err)
		case sqlite3.SQLITE_CONSTRAINT_CHECK:
			return fmt.Errorf("%w: %s: %v", ErrCheckViolation, op, err)
		}
		if liteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT {
			msg := strings.ToUpper(err.Error())
			switch {
			case strings.Contains(msg, "UNIQUE"):
				return fmt.Errorf("%w: %s: %v", ErrDuplicateKey, op, err)
			case strings.Contains(msg, "FOREIGN KEY"):
				return fmt.Errorf("%w: %s: %v", ErrForeignKey, op, err)
			case strings.Contains(msg, "CHECK"):
				return fmt.Errorf("%w: %s: %v", ErrCheckViolation, op, err)
			}
		}
	}

	return fmt.Errorf("%w: %s: %v", ErrDatabaseError, op, err)
}

// affectedOne turns a zero-row UPDATE/DELETE into ErrNotFound.
func affectedOne(result sql.Result, op string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrDatabaseError, op, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// nullString maps a scanned sql.NullString onto an optional field.
func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func nullInt64(ni sql.NullInt64) *int64 {
	if !ni.Valid {
		return nil
	}
	v := ni.Int64
	return &v
}

// pageClause appends LIMIT/OFFSET placeholders starting at argCount.
func pageClause(b *strings.Builder, args []interface{}, argCount, page, pageSize int) []interface{} {
	if pageSize <= 0 {
		return args
	}
	b.WriteString(fmt.Sprintf(" LIMIT $%d", argCount))
	args = append(args, pageSize)
	argCount++
	if page > 1 {
		b.WriteString(fmt.Sprintf(" OFFSET $%d", argCount))
		args = append(args, (page-1)*pageSize)
	}
	return args
}
