package core

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("expense not found")
	ErrNoFieldsToUpdate = errors.New("no fields to update")
)

// NotFoundError reports a missing expense id. It matches ErrNotFound.
type NotFoundError struct {
	ID int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no expense found with id %d", e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// IsExpected reports whether err is a normal outcome of an operation
// (missing id, empty update) rather than a failure.
func IsExpected(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrNoFieldsToUpdate)
}
