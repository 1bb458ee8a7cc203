package services

import (
	"errors"
	"fmt"

	"ghostlounge_backend/internal/repositories"
)

// Error kinds. Every error returned by a service wraps exactly one of these,
// so callers can branch with errors.Is on either the kind or the specific error.
var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrStore      = errors.New("store error")
)

// Kind values reported by ErrorKind.
const (
	KindValidation = "validation"
	KindNotFound   = "not_found"
	KindConflict   = "conflict"
	KindStore      = "store"
	KindUnknown    = "unknown"
)

// ErrorKind classifies err into one of the error kinds.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrStore):
		return KindStore
	default:
		return KindUnknown
	}
}

func kindError(kind error, msg string) error {
	return fmt.Errorf("%w: %s", kind, msg)
}

var (
	ErrClientNotFound      = kindError(ErrNotFound, "client not found")
	ErrProductNotFound     = kindError(ErrNotFound, "product not found")
	ErrCategoryNotFound    = kindError(ErrNotFound, "category not found")
	ErrTransactionNotFound = kindError(ErrNotFound, "transaction not found")
	ErrPaymentNotFound     = kindError(ErrNotFound, "payment not found")
	ErrAlertNotFound       = kindError(ErrNotFound, "payment alert not found")
	ErrRankNotFound        = kindError(ErrNotFound, "rank not found")
	ErrPCNotFound          = kindError(ErrNotFound, "pc not found")
	ErrReservationNotFound = kindError(ErrNotFound, "reservation not found")
	ErrUserNotFound        = kindError(ErrNotFound, "user not found")

	ErrReservationConflict = kindError(ErrConflict, "pc is already booked for an overlapping interval")
	ErrPCBusy              = kindError(ErrConflict, "pc is being booked concurrently; retry")
	ErrClientHasHistory    = kindError(ErrConflict, "client has transactions or payments")
	ErrProductHasHistory   = kindError(ErrConflict, "product has transactions")
	ErrCategoryInUse       = kindError(ErrConflict, "category is referenced by products")
	ErrPCHasReservations   = kindError(ErrConflict, "pc has reservations; deactivate it instead")
	ErrUserHasHistory      = kindError(ErrConflict, "user has recorded transactions or payments")
	ErrRankThresholdTaken  = kindError(ErrConflict, "a rank with this min_points already exists")
	ErrDuplicateName       = kindError(ErrConflict, "name already exists")
	ErrUsernameExists      = kindError(ErrConflict, "username already exists")

	ErrInvalidCredentials = errors.New("invalid username or password")
)

// validationf builds a ValidationError with a formatted message.
func validationf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// storeErr maps a repository failure onto a kind. notFound is returned for
// repositories.ErrNotFound; constraint violations become Conflict or Validation.
func storeErr(err error, notFound error, op string) error {
	switch {
	case err == nil:
		return nil
	case isKind(err):
		return err
	case errors.Is(err, repositories.ErrNotFound) && notFound != nil:
		return notFound
	case errors.Is(err, repositories.ErrNotFound):
		return fmt.Errorf("%w: %s: %v", ErrNotFound, op, err)
	case errors.Is(err, repositories.ErrDuplicateKey):
		return fmt.Errorf("%w: %s: %v", ErrConflict, op, err)
	case errors.Is(err, repositories.ErrForeignKey):
		return fmt.Errorf("%w: %s: %v", ErrConflict, op, err)
	case errors.Is(err, repositories.ErrCheckViolation):
		return fmt.Errorf("%w: %s: %v", ErrValidation, op, err)
	default:
		return fmt.Errorf("%w: %s: %v", ErrStore, op, err)
	}
}

// isKind reports whether err already carries a service error kind.
func isKind(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrNotFound) || errors.Is(err, ErrConflict) || errors.Is(err, ErrStore)
}
