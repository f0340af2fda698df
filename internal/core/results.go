package core

import (
	"errors"
	"fmt"
)

const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Result payloads returned by every transport.
type (
	AddResult struct {
		Status string `json:"status"`
		ID     int64  `json:"id"`
	}

	DeleteResult struct {
		Status  string `json:"status"`
		Deleted int64  `json:"deleted"`
	}

	UpdateResult struct {
		Status  string `json:"status"`
		Updated int64  `json:"updated"`
	}

	ErrorResult struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}
)

// NewErrorResult renders err as the caller-facing error payload.
func NewErrorResult(err error) ErrorResult {
	return ErrorResult{Status: StatusError, Message: ErrorMessage(err)}
}

// ErrorMessage returns the caller-facing message for err.
func ErrorMessage(err error) string {
	var nf *NotFoundError
	switch {
	case errors.As(err, &nf):
		return fmt.Sprintf("No expense found with id %d", nf.ID)
	case errors.Is(err, ErrNoFieldsToUpdate):
		return "No fields to update."
	default:
		return err.Error()
	}
}
