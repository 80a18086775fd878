package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/vedran77/autotask/internal/repository"
)

const pgErrUniqueViolation = "23505"

var constraintFields = map[string]string{
	"accounts_email_key":        repository.FieldEmail,
	"accounts_username_key":     repository.FieldUsername,
	"accounts_federated_id_key": repository.FieldFederatedID,
}

// mapError translates driver errors into the repository vocabulary.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgErrUniqueViolation {
		return &repository.ConflictError{Field: constraintFields[pgErr.ConstraintName]}
	}

	var connErr *pgconn.ConnectError
	if pgconn.Timeout(err) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) ||
		errors.As(err, &connErr) {
		return fmt.Errorf("%w: %v", repository.ErrUnavailable, err)
	}
	return err
}

// updateResult maps the outcome of a single-row UPDATE. Zero affected rows
// means the target is gone.
func updateResult(tag pgconn.CommandTag, err error) error {
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}
