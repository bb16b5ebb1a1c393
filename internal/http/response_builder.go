// Package http serves the report aggregates as JSON.
//
// This file holds the response builder and the mapping from service errors
// to status codes.
package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"financy/internal/core"
	"financy/internal/financeapi"
	"financy/internal/services"
)

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	body       any
	headers    map[string]string
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Body sets the value encoded as the response body.
func (b *JSONResponseBuilder) Body(v any) *JSONResponseBuilder {
	b.body = v
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.body == nil {
		w.WriteHeader(b.statusCode)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	_ = json.NewEncoder(w).Encode(b.body)
}

// errorBody is the shape of every error response.
type errorBody struct {
	Error string `json:"error"`
}

// ErrorResponse creates a {"error": message} response.
func ErrorResponse(statusCode int, message string) *JSONResponseBuilder {
	return NewJSONResponse().Status(statusCode).Body(errorBody{Error: message})
}

func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

func InternalServerError() *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, "internal error")
}

var validationErrors = []error{
	core.ErrInvalidAmount,
	core.ErrInvalidCurrency,
	core.ErrMissingName,
	core.ErrInvalidCategoryType,
	core.ErrInvalidDate,
	core.ErrInvalidRate,
	core.ErrInvalidAccount,
	core.ErrInvalidMonth,
	core.ErrInvalidFrequency,
	core.ErrInvalidStartDay,
	services.ErrBudgetRequired,
	errInvalidParam,
}

// StatusFor maps an error to its response status: validation errors are 400,
// backend API errors keep their status, missing records are 404 and the rest 500.
func StatusFor(err error) int {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return http.StatusBadRequest
		}
	}
	if status := financeapi.StatusCode(err); status >= 400 && status < 600 {
		return status
	}
	if errors.Is(err, core.ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, services.ErrEditorClosed) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// ErrorFrom builds the response for err. Internal errors hide their text.
func ErrorFrom(err error) *JSONResponseBuilder {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		return InternalServerError()
	}
	return ErrorResponse(status, err.Error())
}
