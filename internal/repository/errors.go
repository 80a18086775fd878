package repository

import (
	"errors"
	"fmt"
)

var (
	// ErrConflict matches any uniqueness violation reported by a store.
	ErrConflict = errors.New("unique constraint violation")
	// ErrUnavailable marks infrastructure failures (timeouts, lost connections)
	// that a caller may retry. It never means "bad credentials".
	ErrUnavailable = errors.New("store unavailable")
	// ErrNotFound is returned by writes whose target row no longer exists.
	ErrNotFound = errors.New("record not found")
)

const (
	FieldEmail       = "email"
	FieldUsername    = "username"
	FieldFederatedID = "federated_id"
)

// ConflictError names the unique field that rejected a write.
type ConflictError struct {
	Field string
}

func (e *ConflictError) Error() string {
	if e.Field == "" {
		return ErrConflict.Error()
	}
	return fmt.Sprintf("%s: %s already in use", ErrConflict, e.Field)
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// IsConflictOn reports whether err is a uniqueness violation on field.
func IsConflictOn(err error, field string) bool {
	var ce *ConflictError
	return errors.As(err, &ce) && ce.Field == field
}
