package postgres

import (
	"errors"
	"fmt"

	"sso-service/internal/account"

	"github.com/jackc/pgerrcode"
	"github.com/lib/pq"
)

const externalIDConstraint = "users_external_id_key"

// wrap turns a driver error into an account.PersistenceError, tagging a
// unique violation on the external id so callers can re-resolve instead of
// failing the login.
func wrap(op string, err error) error {
	return &account.PersistenceError{Op: op, Err: mapPostgresError(err)}
}

func mapPostgresError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}

	switch pqErr.Code {
	case pgerrcode.UniqueViolation:
		if pqErr.Constraint == externalIDConstraint {
			return fmt.Errorf("%w: %v", account.ErrDuplicateExternalID, err)
		}
		return fmt.Errorf("unique constraint violation: %s: %w", pqErr.Constraint, err)

	case pgerrcode.ForeignKeyViolation:
		return fmt.Errorf("%w: %s", account.ErrNotFound, pqErr.Detail)

	case pgerrcode.ConnectionException,
		pgerrcode.ConnectionDoesNotExist,
		pgerrcode.ConnectionFailure,
		pgerrcode.CannotConnectNow:
		return fmt.Errorf("database connection error: %w", err)

	case pgerrcode.QueryCanceled:
		return fmt.Errorf("query canceled: %w", err)

	default:
		return fmt.Errorf("postgres error [%s]: %s: %w", pqErr.Code, pqErr.Message, err)
	}
}
