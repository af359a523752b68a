package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hyperengineering/voices/internal/artifact"
	"github.com/hyperengineering/voices/internal/catalog"
	"github.com/hyperengineering/voices/internal/pipeline"
	"github.com/hyperengineering/voices/internal/store"
	"github.com/hyperengineering/voices/internal/validation"
)

const problemBase = "https://voices.hyperengineering.dev/errors/"

// Problem represents an RFC 7807 Problem Details response.
type Problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail"`
	Instance string `json:"instance,omitempty"`
}

type problemType struct {
	typeURI string
	title   string
}

var problemTypes = map[int]problemType{
	http.StatusBadRequest:          {problemBase + "bad-request", "Bad Request"},
	http.StatusUnauthorized:        {problemBase + "unauthorized", "Unauthorized"},
	http.StatusNotFound:            {problemBase + "not-found", "Not Found"},
	http.StatusUnprocessableEntity: {problemBase + "validation-error", "Validation Error"},
	http.StatusTooManyRequests:     {problemBase + "rate-limit", "Too Many Requests"},
	http.StatusInternalServerError: {problemBase + "internal-error", "Internal Server Error"},
	http.StatusBadGateway:          {problemBase + "generation-exhausted", "Generation Exhausted"},
	http.StatusServiceUnavailable:  {problemBase + "service-unavailable", "Service Unavailable"},
	http.StatusGatewayTimeout:      {problemBase + "batch-timeout", "Batch Timeout"},
}

func lookupProblemType(status int) problemType {
	if pt, ok := problemTypes[status]; ok {
		return pt
	}
	return problemType{typeURI: problemBase + "unknown", title: http.StatusText(status)}
}

func newProblem(r *http.Request, status int, detail string) Problem {
	pt := lookupProblemType(status)
	return Problem{
		Type:     pt.typeURI,
		Title:    pt.title,
		Status:   status,
		Detail:   detail,
		Instance: r.URL.Path,
	}
}

// WriteProblem writes an RFC 7807 Problem Details response.
func WriteProblem(w http.ResponseWriter, r *http.Request, status int, detail string) {
	writeProblemJSON(w, status, newProblem(r, status, detail))
}

// ProblemWithErrors extends Problem with validation error details.
type ProblemWithErrors struct {
	Problem
	Errors []validation.ValidationError `json:"errors,omitempty"`
}

// WriteProblemWithErrors writes a 422 Problem Details response with field errors.
func WriteProblemWithErrors(w http.ResponseWriter, r *http.Request, detail string, errs []validation.ValidationError) {
	writeProblemJSON(w, http.StatusUnprocessableEntity, ProblemWithErrors{
		Problem: newProblem(r, http.StatusUnprocessableEntity, detail),
		Errors:  errs,
	})
}

func writeProblemJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode problem response", "component", "api", "error", err)
	}
}

// MapError converts domain errors to Problem Details responses.
// Internal error details are never exposed to the client.
func MapError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		WriteProblem(w, r, http.StatusNotFound, "Resource not found")
	case errors.Is(err, catalog.ErrUnknownCategory):
		WriteProblem(w, r, http.StatusUnprocessableEntity, "Unknown topic category")
	case errors.Is(err, pipeline.ErrGenerationExhausted):
		WriteProblem(w, r, http.StatusBadGateway, "Generation service failed on every attempt")
	case errors.Is(err, context.DeadlineExceeded):
		WriteProblem(w, r, http.StatusGatewayTimeout,
			"Batch did not finish in time and nothing was saved; run large batches with the generate command")
	case errors.Is(err, artifact.ErrNotConfigured):
		WriteProblem(w, r, http.StatusServiceUnavailable, "Artifact storage is not configured")
	default:
		WriteProblem(w, r, http.StatusInternalServerError, "Internal Server Error")
	}
}
