package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hyperengineering/voices/internal/artifact"
	"github.com/hyperengineering/voices/internal/catalog"
	"github.com/hyperengineering/voices/internal/pipeline"
	"github.com/hyperengineering/voices/internal/store"
	"github.com/hyperengineering/voices/internal/validation"
)

func TestWriteProblem_BodyFormat(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/topics/sleep/posts", nil)
	w := httptest.NewRecorder()

	WriteProblem(w, req, http.StatusNotFound, "Resource not found")

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Errorf("Content-Type = %v, want application/problem+json", ct)
	}

	var decoded map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	want := map[string]any{
		"type":     problemBase + "not-found",
		"title":    "Not Found",
		"status":   float64(404),
		"detail":   "Resource not found",
		"instance": "/api/v1/topics/sleep/posts",
	}
	for k, v := range want {
		if decoded[k] != v {
			t.Errorf("%s = %v, want %v", k, decoded[k], v)
		}
	}
}

func TestWriteProblem_Types(t *testing.T) {
	tests := []struct {
		status int
		slug   string
	}{
		{http.StatusBadRequest, "bad-request"},
		{http.StatusUnauthorized, "unauthorized"},
		{http.StatusUnprocessableEntity, "validation-error"},
		{http.StatusTooManyRequests, "rate-limit"},
		{http.StatusBadGateway, "generation-exhausted"},
		{http.StatusServiceUnavailable, "service-unavailable"},
		{http.StatusTeapot, "unknown"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.status), func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteProblem(w, httptest.NewRequest(http.MethodGet, "/", nil), tt.status, "x")

			var p Problem
			if err := json.Unmarshal(w.Body.Bytes(), &p); err != nil {
				t.Fatal(err)
			}
			if p.Type != problemBase+tt.slug {
				t.Errorf("type = %v, want %v", p.Type, problemBase+tt.slug)
			}
		})
	}
}

func TestWriteProblemWithErrors_422(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/topics/sleep/batches", nil)
	w := httptest.NewRecorder()
	errs := []validation.ValidationError{
		{Field: "title", Message: "is required"},
		{Field: "count", Message: "must be between 1 and 100"},
	}

	WriteProblemWithErrors(w, req, "Request contains invalid fields", errs)

	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", w.Code)
	}
	var p ProblemWithErrors
	if err := json.Unmarshal(w.Body.Bytes(), &p); err != nil {
		t.Fatal(err)
	}
	if p.Type != problemBase+"validation-error" || len(p.Errors) != 2 {
		t.Errorf("problem = %+v", p)
	}
	if p.Errors[1].Field != "count" {
		t.Errorf("errors[1].field = %q, want count", p.Errors[1].Field)
	}
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"not found", fmt.Errorf("get: %w", store.ErrNotFound), http.StatusNotFound},
		{"unknown category", fmt.Errorf("quota: %w", catalog.ErrUnknownCategory), http.StatusUnprocessableEntity},
		{"exhausted", fmt.Errorf("slot 3: %w", pipeline.ErrGenerationExhausted), http.StatusBadGateway},
		{"artifacts off", artifact.ErrNotConfigured, http.StatusServiceUnavailable},
		{"other", errors.New("disk I/O error at /var/lib/voices.db"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			MapError(w, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if strings.Contains(w.Body.String(), "/var/lib") {
				t.Error("internal error detail leaked to the client")
			}
		})
	}
}
