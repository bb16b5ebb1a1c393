package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"financy/internal/core"
	"financy/internal/financeapi"
	"financy/internal/services"
)

func TestJSONResponseBuilder(t *testing.T) {
	w := httptest.NewRecorder()

	NewJSONResponse().
		Status(http.StatusCreated).
		Header("X-Test", "1").
		Body(map[string]int{"n": 1}).
		Write(w)

	if w.Code != http.StatusCreated {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusCreated)
	}
	if w.Header().Get("Content-Type") != "application/json; charset=utf-8" || w.Header().Get("X-Test") != "1" {
		t.Errorf("headers = %v", w.Header())
	}
	if w.Body.String() != "{\"n\":1}\n" {
		t.Errorf("Body = %q", w.Body.String())
	}
}

func TestJSONResponseBuilder_NoBody(t *testing.T) {
	w := httptest.NewRecorder()
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
	if w.Code != http.StatusNoContent || w.Body.Len() != 0 || w.Header().Get("Content-Type") != "" {
		t.Errorf("got %d %q %v", w.Code, w.Body.String(), w.Header())
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"currency", fmt.Errorf("%w: %q", core.ErrInvalidCurrency, "EURO"), http.StatusBadRequest},
		{"start day", core.ErrInvalidStartDay, http.StatusBadRequest},
		{"budget required", services.ErrBudgetRequired, http.StatusBadRequest},
		{"param", fmt.Errorf("%w: budget id", errInvalidParam), http.StatusBadRequest},
		{"api error passthrough", fmt.Errorf("load budget 7: %w", &financeapi.APIError{Status: 401, Message: "Not authenticated"}), http.StatusUnauthorized},
		{"api 502", &financeapi.APIError{Status: 502, Message: "bad gateway"}, http.StatusBadGateway},
		{"not found", fmt.Errorf("budget 9: %w", core.ErrNotFound), http.StatusNotFound},
		{"editor closed", services.ErrEditorClosed, http.StatusServiceUnavailable},
		{"other", errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StatusFor(tt.err); got != tt.want {
				t.Errorf("StatusFor() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestErrorFrom(t *testing.T) {
	w := httptest.NewRecorder()
	ErrorFrom(&financeapi.APIError{Status: 404, Message: "Budget not found"}).Write(w)
	if w.Code != http.StatusNotFound || w.Body.String() != "{\"error\":\"Budget not found\"}\n" {
		t.Errorf("got %d %q", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	ErrorFrom(errors.New("database is locked")).Write(w)
	if w.Code != http.StatusInternalServerError || w.Body.String() != "{\"error\":\"internal error\"}\n" {
		t.Errorf("internal errors must not leak: %d %q", w.Code, w.Body.String())
	}
}
