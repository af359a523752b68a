package validation

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/oklog/ulid/v2"
)

// Field limits.
const (
	MaxTopicIDLength = 128
	MaxTitleLength   = 200
	MaxFocusLength   = 1000
	MaxContentLength = 20000
	MinBatchCount    = 1
	MaxBatchCount    = 100
	MinTargetLength  = 50
	MaxTargetLength  = 1000
	MaxVarietyPosts  = 500
)

var topicIDPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// ValidationError is one rejected field, reported back in 422 responses.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func fieldError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Collector gathers every failing field of a request.
type Collector struct {
	errors []ValidationError
}

// Add records err. Nil is ignored so checks can be chained.
func (c *Collector) Add(err *ValidationError) {
	if err == nil {
		return
	}
	c.errors = append(c.errors, *err)
}

func (c *Collector) HasErrors() bool {
	return len(c.errors) != 0
}

// Errors returns the recorded failures in the order they were added.
func (c *Collector) Errors() []ValidationError {
	return c.errors
}

func ValidateUTF8(field, value string) *ValidationError {
	if utf8.ValidString(value) {
		return nil
	}
	return fieldError(field, "must be valid UTF-8")
}

func ValidateNoNullBytes(field, value string) *ValidationError {
	if strings.IndexByte(value, 0) < 0 {
		return nil
	}
	return fieldError(field, "must not contain null bytes")
}

// ValidateMaxLength counts runes, not bytes.
func ValidateMaxLength(field, value string, max int) *ValidationError {
	if utf8.RuneCountInString(value) <= max {
		return nil
	}
	return fieldError(field, "exceeds maximum length of %d characters", max)
}

// ValidateULID accepts post and batch IDs in either case.
func ValidateULID(field, value string) *ValidationError {
	if _, err := ulid.ParseStrict(value); err != nil {
		return fieldError(field, "must be a valid ULID")
	}
	return nil
}

// ValidateRequired rejects empty and whitespace-only values.
func ValidateRequired(field, value string) *ValidationError {
	if strings.TrimSpace(value) != "" {
		return nil
	}
	return fieldError(field, "is required")
}

// ValidateEnum is case sensitive.
func ValidateEnum(field, value string, allowed []string) *ValidationError {
	if slices.Contains(allowed, value) {
		return nil
	}
	return fieldError(field, "must be one of: %s", strings.Join(allowed, ", "))
}

// ValidateRange checks min <= value <= max.
func ValidateRange(field string, value, min, max int) *ValidationError {
	if value >= min && value <= max {
		return nil
	}
	return fieldError(field, "must be between %d and %d", min, max)
}

// ValidateTopicID requires lowercase alphanumeric words joined by single
// hyphens, at most MaxTopicIDLength long.
func ValidateTopicID(field, value string) *ValidationError {
	switch {
	case len(value) > MaxTopicIDLength:
		return fieldError(field, "exceeds maximum length of %d characters", MaxTopicIDLength)
	case !topicIDPattern.MatchString(value):
		return fieldError(field, "must be lowercase letters, digits and single hyphens")
	}
	return nil
}

// ValidateText applies the checks every free-text field shares.
func ValidateText(c *Collector, field, value string, max int) {
	c.Add(ValidateUTF8(field, value))
	c.Add(ValidateNoNullBytes(field, value))
	c.Add(ValidateMaxLength(field, value, max))
}
