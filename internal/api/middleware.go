package api

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/hyperengineering/voices/internal/validation"
)

// extractBearerToken returns the token of an "Authorization: Bearer" header,
// or "" when the header is missing or uses another scheme. The scheme name is
// case sensitive (RFC 6750).
func extractBearerToken(r *http.Request) string {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}

// keyMatches compares digests so the comparison time depends on neither the
// position of the first mismatch nor the key length.
func keyMatches(got, want string) bool {
	g := sha256.Sum256([]byte(got))
	w := sha256.Sum256([]byte(want))
	return subtle.ConstantTimeCompare(g[:], w[:]) == 1
}

// AuthMiddleware rejects requests whose bearer token is not apiKey with a 401
// problem. The key is never logged.
func AuthMiddleware(apiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractBearerToken(r)
			if !keyMatches(token, apiKey) {
				slog.Warn("auth failure",
					"component", "api",
					"action", "auth",
					"request_id", GetRequestID(r.Context()),
					"method", r.Method,
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr,
				)
				WriteProblem(w, r, http.StatusUnauthorized, "Missing or invalid API key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetRequestID returns the chi request ID, or "" when none is set.
func GetRequestID(ctx context.Context) string {
	return middleware.GetReqID(ctx)
}

func logLevelForStatus(status int) slog.Level {
	if status >= 500 {
		return slog.LevelError
	}
	if status >= 400 {
		return slog.LevelWarn
	}
	return slog.LevelInfo
}

// LoggingMiddleware logs one line per request, at error for 5xx, warn for
// 4xx and info otherwise.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		slog.Log(r.Context(), logLevelForStatus(status), "request completed",
			"component", "api",
			"request_id", GetRequestID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration_ms", time.Since(start).Milliseconds(),
			"remote_addr", r.RemoteAddr,
		)
	})
}

// RecoveryMiddleware catches panics and returns 500 Problem Details.
// Panic details are logged but never exposed to the client.
func RecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if recovered := recover(); recovered != nil {
				slog.Error("panic recovered",
					"component", "api",
					"request_id", GetRequestID(r.Context()),
					"error", recovered,
					"stack", string(debug.Stack()),
					"path", r.URL.Path,
					"method", r.Method,
				)
				WriteProblem(w, r, http.StatusInternalServerError, "Internal Server Error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// TopicMiddleware validates the {topicID} URL parameter and stores it in the
// request context. Invalid IDs get a 422 problem response.
func TopicMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		topicID := chi.URLParam(r, "topicID")
		if verr := validation.ValidateTopicID("topicId", topicID); verr != nil {
			WriteProblemWithErrors(w, r, "Invalid topic ID", []validation.ValidationError{*verr})
			return
		}
		next.ServeHTTP(w, r.WithContext(WithTopicID(r.Context(), topicID)))
	})
}

// RateLimiter rejects requests beyond a token-bucket rate with 429.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter allows perMinute requests per minute with a burst of the
// same size. perMinute <= 0 disables limiting.
func NewRateLimiter(perMinute int) *RateLimiter {
	if perMinute <= 0 {
		return &RateLimiter{limiter: rate.NewLimiter(rate.Inf, 0)}
	}
	return &RateLimiter{limiter: rate.NewLimiter(rate.Limit(float64(perMinute)/60), perMinute)}
}

// Middleware applies the limiter.
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.limiter.Allow() {
			slog.Warn("rate limit exceeded",
				"component", "api",
				"path", r.URL.Path,
				"method", r.Method,
				"remote_addr", r.RemoteAddr,
			)
			w.Header().Set("Retry-After", "60")
			WriteProblem(w, r, http.StatusTooManyRequests, "Too many delete requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}
