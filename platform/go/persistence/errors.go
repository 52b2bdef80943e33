package persistence

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/zenGate-Global/palmyra-gym/platform/go/apperr"
)

// SQLSTATE codes surfaced as typed errors.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
	pgNotNullViolation    = "23502"
	pgRaiseException      = "P0001"
	pgNumericOutOfRange   = "22003"
)

// mapError converts driver errors into apperr kinds. entity names the row
// type for not-found and trigger failures. Errors that are already typed, and
// errors the driver did not produce, pass through wrapped with op.
func mapError(op, entity string, err error) error {
	if err == nil {
		return nil
	}

	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound(entity)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation, pgForeignKeyViolation, pgCheckViolation, pgNotNullViolation:
			return apperr.Constraint(pgErr.ConstraintName, err)
		case pgNumericOutOfRange:
			e := apperr.Invalid("amount out of range", nil)
			e.Err = err
			return e
		case pgRaiseException:
			// raised by the append-only and tenant-scope triggers
			e := apperr.Invariant(entity, pgErr.Message)
			e.Err = err
			return e
		}
	}

	return fmt.Errorf("%s: %w", op, err)
}

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgUniqueViolation {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}
