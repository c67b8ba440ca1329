// Package http exposes the JSON API.
//
// This file implements a small builder for JSON responses and the mapping
// from domain errors to HTTP status codes.

package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"kakeibo/internal/auth"
	"kakeibo/internal/core"
	"kakeibo/internal/log"
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
	if b.body == nil || b.statusCode == http.StatusNoContent {
		w.WriteHeader(b.statusCode)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(b.statusCode)
	if err := json.NewEncoder(w).Encode(b.body); err != nil {
		slog.Error("Failed to encode response", log.FieldError, err)
	}
}

// errorBody is the shape of every error response.
type errorBody struct {
	Error string `json:"error"`
}

// ErrorResponse creates a standard JSON error response.
func ErrorResponse(statusCode int, message string) *JSONResponseBuilder {
	return NewJSONResponse().Status(statusCode).Body(errorBody{Error: message})
}

// statusFor maps a service error to a status code and an error type for logs.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest, log.ErrorTypeValidation
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound, log.ErrorTypeNotFound
	case errors.Is(err, core.ErrNotInCouple), errors.Is(err, core.ErrConflict), errors.Is(err, auth.ErrEmailExists):
		return http.StatusConflict, log.ErrorTypeConflict
	case errors.Is(err, core.ErrInvalidOperation), errors.Is(err, core.ErrInvalidCategory), core.IsValidation(err),
		errors.Is(err, auth.ErrWeakPassword), errors.Is(err, auth.ErrInvalidEmail):
		return http.StatusUnprocessableEntity, log.ErrorTypeValidation
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrMissingToken):
		return http.StatusUnauthorized, log.ErrorTypeAuth
	}
	return http.StatusInternalServerError, log.ErrorTypeInternal
}

// ServiceError writes err with the status it maps to. Internal errors are
// logged and hidden from the client.
func ServiceError(w http.ResponseWriter, r *http.Request, operation string, err error) {
	status, errType := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "Request failed",
			log.FieldOperation, operation,
			log.FieldError, err,
			log.FieldErrorType, errType,
			log.FieldPath, r.URL.Path)
		ErrorResponse(status, "internal error").Write(w)
		return
	}
	slog.DebugContext(r.Context(), "Request rejected",
		log.FieldOperation, operation,
		log.FieldError, err,
		log.FieldErrorType, errType)
	ErrorResponse(status, err.Error()).Write(w)
}
