package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"kakeibo/internal/auth"
	"kakeibo/internal/core"
)

func TestJSONResponseBuilder(t *testing.T) {
	rec := httptest.NewRecorder()
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/v1/assets/a1").
		Body(map[string]string{"id": "a1"}).
		Write(rec)

	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q", got)
	}
	if got := rec.Header().Get("Location"); got != "/api/v1/assets/a1" {
		t.Errorf("Location = %q", got)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"id":"a1"}` {
		t.Errorf("body = %s", got)
	}
}

func TestJSONResponseBuilder_NoContent(t *testing.T) {
	rec := httptest.NewRecorder()
	NewJSONResponse().Status(http.StatusNoContent).Write(rec)
	if rec.Code != http.StatusNoContent || rec.Body.Len() != 0 {
		t.Errorf("status = %d, body = %q", rec.Code, rec.Body.String())
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("get: %w", core.ErrNotFound), http.StatusNotFound},
		{core.ErrNotInCouple, http.StatusConflict},
		{core.ErrConflict, http.StatusConflict},
		{auth.ErrEmailExists, http.StatusConflict},
		{core.ErrInvalidOperation, http.StatusUnprocessableEntity},
		{core.ErrInvalidCategory, http.StatusUnprocessableEntity},
		{fmt.Errorf("amount: %w", core.ErrInvalidAmount), http.StatusUnprocessableEntity},
		{auth.ErrWeakPassword, http.StatusUnprocessableEntity},
		{auth.ErrInvalidCredentials, http.StatusUnauthorized},
		{fmt.Errorf("body: %w", errBadRequest), http.StatusBadRequest},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			if got, _ := statusFor(tt.err); got != tt.want {
				t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestServiceError_HidesInternalErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	ServiceError(rec, httptest.NewRequest("GET", "/", nil), "test", errors.New("sql: connection refused"))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "sql") {
		t.Errorf("internal error leaked: %s", rec.Body.String())
	}
}
