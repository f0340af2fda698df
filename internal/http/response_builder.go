// Package http serves the expense operations as a JSON API.
//
// This file holds the builder used for every JSON response.
package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"expensetracker/internal/core"
)

const contentTypeJSON = "application/json"

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	headers    map[string]string
	body       []byte
	value      any
	hasValue   bool
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

// Header adds a custom header to the response.
func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// JSON sets a value to be encoded as the body.
func (b *JSONResponseBuilder) JSON(v any) *JSONResponseBuilder {
	b.value = v
	b.hasValue = true
	return b
}

// Raw sets an already encoded JSON document as the body.
func (b *JSONResponseBuilder) Raw(doc []byte) *JSONResponseBuilder {
	b.body = doc
	b.hasValue = false
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	body := b.body
	status := b.statusCode
	if b.hasValue {
		encoded, err := json.Marshal(b.value)
		if err != nil {
			encoded, _ = json.Marshal(core.ErrorResult{Status: core.StatusError, Message: "Internal server error"})
			status = http.StatusInternalServerError
		}
		body = append(encoded, '\n')
	}

	w.Header().Set("Content-Type", contentTypeJSON)
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	w.WriteHeader(status)
	if len(body) > 0 {
		_, _ = w.Write(body)
	}
}

// ErrorResponse creates a {status:"error", message} response.
func ErrorResponse(statusCode int, message string) *JSONResponseBuilder {
	return NewJSONResponse().
		Status(statusCode).
		JSON(core.ErrorResult{Status: core.StatusError, Message: message})
}

// BadRequestError creates a 400 Bad Request error response.
func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

// InternalServerError creates a 500 Internal Server Error response.
func InternalServerError() *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, "Internal server error")
}

// ServiceErrorResponse maps an operation error to its response: missing ids
// are 404, empty updates 400, anything else 500.
func ServiceErrorResponse(err error) *JSONResponseBuilder {
	switch {
	case errors.Is(err, core.ErrNotFound):
		return NewJSONResponse().Status(http.StatusNotFound).JSON(core.NewErrorResult(err))
	case errors.Is(err, core.ErrNoFieldsToUpdate):
		return NewJSONResponse().Status(http.StatusBadRequest).JSON(core.NewErrorResult(err))
	default:
		return InternalServerError()
	}
}
