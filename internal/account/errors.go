package account

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound            = errors.New("account: not found")
	ErrDuplicateExternalID = errors.New("account: duplicate external id")
)

// PersistenceError wraps any failure of a store operation.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("account: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// IsPersistence reports whether err came from a failing store call.
func IsPersistence(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}
