package http

import (
	"net/http"

	"expensetracker/internal/core"
	"expensetracker/internal/log"
)

// respondError writes the response for an operation error. Expected
// outcomes are rendered with their message; anything else is logged and
// hidden behind a generic 500.
func respondError(w http.ResponseWriter, r *http.Request, op string, err error) {
	if !core.IsExpected(err) {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Operation failed",
			log.FieldOperation, op,
			log.FieldError, err)
	}
	ServiceErrorResponse(err).Write(w)
}

// respondBadRequest writes a 400 for malformed input.
func respondBadRequest(w http.ResponseWriter, r *http.Request, op string, err error) {
	log.FromContext(r.Context()).DebugContext(r.Context(), "Rejected request",
		log.FieldOperation, op,
		log.FieldError, err)
	BadRequestError(err.Error()).Write(w)
}
