package log

import (
	"errors"

	"expensetracker/internal/core"
)

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldOperation   = "operation"
	FieldRequestID   = "request_id"
	FieldClientIP    = "client_ip"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldError       = "error"
	FieldOutcome     = "outcome"
	FieldExpenseID   = "expense_id"
	FieldDate        = "date"
	FieldAmount      = "amount"
	FieldCategory    = "category"
	FieldSubcategory = "subcategory"
	FieldStartDate   = "start_date"
	FieldEndDate     = "end_date"
	FieldCount       = "count"
	FieldEventType   = "event_type"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentMCP     = "mcp"
	ComponentExpense = "expense"
	ComponentStorage = "storage"
	ComponentCatalog = "catalog"
	ComponentAMQP    = "amqp"
	ComponentWorker  = "worker"
	ComponentSheets  = "sheets"
	ComponentBackend = "backend"
)

// Operations are the names of the service operations. Transports and
// metrics share them.
const (
	OpAdd        = "add_expense"
	OpList       = "list_expenses"
	OpDelete     = "delete_expense"
	OpUpdate     = "update_expense"
	OpGet        = "get_expense"
	OpFilter     = "filter_expenses"
	OpSummarize  = "summarize"
	OpCategories = "categories"
	OpSync       = "sync"
	OpStartup    = "startup"
	OpShutdown   = "shutdown"
)

// Outcomes of an operation.
const (
	OutcomeOK       = "ok"
	OutcomeNotFound = "not_found"
	OutcomeNoFields = "no_fields"
	OutcomeError    = "error"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithExpenseID adds the expense id field
func (f LogFields) WithExpenseID(id int64) LogFields {
	f[FieldExpenseID] = id
	return f
}

// WithExpense adds the fields of an expense record
func (f LogFields) WithExpense(e core.Expense) LogFields {
	if e.ID != 0 {
		f[FieldExpenseID] = e.ID
	}
	f[FieldDate] = e.Date
	f[FieldAmount] = e.Amount
	f[FieldCategory] = e.Category
	if e.Subcategory != "" {
		f[FieldSubcategory] = e.Subcategory
	}
	return f
}

// WithRange adds a date range
func (f LogFields) WithRange(start, end string) LogFields {
	f[FieldStartDate] = start
	f[FieldEndDate] = end
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}

// Outcome classifies an operation error for logs and metrics.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, core.ErrNotFound):
		return OutcomeNotFound
	case errors.Is(err, core.ErrNoFieldsToUpdate):
		return OutcomeNoFields
	default:
		return OutcomeError
	}
}
