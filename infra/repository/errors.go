package repository

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/selimk/teller/pkg/domain/account"
)

// translateError maps driver-level failures to domain errors. Lock waits
// that hit the per-transaction lock_timeout, deadlock victims and canceled
// statements all become the retryable account.ErrBusy; everything else
// passes through for the unit of work to roll back.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.LockNotAvailable,
			pgerrcode.DeadlockDetected,
			pgerrcode.QueryCanceled:
			return account.ErrBusy
		}
	}
	return err
}

// isUniqueViolation reports whether err is a unique-index violation on the
// named constraint.
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == pgerrcode.UniqueViolation && pgErr.ConstraintName == constraint
}
