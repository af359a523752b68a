// Package generation is the boundary to the external text generation
// service. Implementations make a single call per Generate and never retry;
// retries belong to the pipeline.
package generation

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// ErrEmptyCompletion indicates the service answered without any text.
var ErrEmptyCompletion = errors.New("empty completion")

// Generator turns instruction text into candidate post text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	// Name identifies the provider and model, e.g. "openai/gpt-4o-mini".
	Name() string
}

// Pacer blocks until the next call may proceed. *rate.Limiter satisfies it.
type Pacer interface {
	Wait(ctx context.Context) error
}

// NewCourtesyLimiter returns a limiter that allows one call per delay. A
// non-positive delay means no pacing.
func NewCourtesyLimiter(delay time.Duration) *rate.Limiter {
	if delay <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(delay), 1)
}

// Paced waits on a Pacer before every call to the wrapped Generator.
type Paced struct {
	Generator Generator
	Pacer     Pacer
}

// Compile-time interface check
var _ Generator = (*Paced)(nil)

// NewPaced wraps g so that consecutive calls are at least delay apart.
func NewPaced(g Generator, delay time.Duration) *Paced {
	return &Paced{Generator: g, Pacer: NewCourtesyLimiter(delay)}
}

// Generate waits for the pacer, then calls the wrapped Generator.
func (p *Paced) Generate(ctx context.Context, prompt string) (string, error) {
	if err := p.Pacer.Wait(ctx); err != nil {
		return "", err
	}
	return p.Generator.Generate(ctx, prompt)
}

// Name returns the wrapped generator's name.
func (p *Paced) Name() string {
	return p.Generator.Name()
}

// cleanCompletion trims the completion and strips a wrapping pair of quotes.
func cleanCompletion(s string) (string, error) {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' && strings.Count(s, `"`) == 2 {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	if s == "" {
		return "", ErrEmptyCompletion
	}
	return s, nil
}
