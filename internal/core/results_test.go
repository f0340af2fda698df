package core

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "not found", err: &NotFoundError{ID: 999}, want: "No expense found with id 999"},
		{name: "wrapped not found", err: fmt.Errorf("get: %w", &NotFoundError{ID: 3}), want: "No expense found with id 3"},
		{name: "no fields", err: ErrNoFieldsToUpdate, want: "No fields to update."},
		{name: "other", err: errors.New("disk full"), want: "disk full"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ErrorMessage(tt.err); got != tt.want {
				t.Errorf("ErrorMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNotFoundErrorMatchesSentinel(t *testing.T) {
	err := fmt.Errorf("delete: %w", &NotFoundError{ID: 1})
	if !errors.Is(err, ErrNotFound) {
		t.Fatal("expected errors.Is(err, ErrNotFound)")
	}
	if !IsExpected(err) || !IsExpected(ErrNoFieldsToUpdate) {
		t.Fatal("expected not-found and no-fields to be expected outcomes")
	}
	if IsExpected(errors.New("boom")) {
		t.Fatal("arbitrary errors are not expected outcomes")
	}
}

func TestNewErrorResult(t *testing.T) {
	r := NewErrorResult(&NotFoundError{ID: 999})
	if r.Status != StatusError || !strings.Contains(r.Message, "999") {
		t.Errorf("unexpected result %+v", r)
	}
}
