package database

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrStoreUnavailable marks failures where the store could not answer in time
// or could not be reached. Callers may retry; this package never does.
var ErrStoreUnavailable = errors.New("store unavailable")

// Unique and exclusion violation codes returned by PostgreSQL.
const (
	CodeUniqueViolation    = "23505"
	CodeExclusionViolation = "23P01"
)

// Classify wraps timeout and connectivity failures with ErrStoreUnavailable.
// Any other error is returned unchanged.
func Classify(err error) error {
	if err == nil || errors.Is(err, ErrStoreUnavailable) {
		return err
	}
	if isUnavailable(err) {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return err
}

func isUnavailable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	if pgconn.Timeout(err) {
		return true
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

// IsConstraintViolation reports whether err is a PostgreSQL error with the
// given SQLSTATE code, optionally restricted to a named constraint.
func IsConstraintViolation(err error, code string, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	if pgErr.Code != code {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}
