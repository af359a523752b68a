// Package pipeline drives generation for a batch: a bounded retry loop per
// slot that keeps the best-scoring attempt, and a coordinator that lays out
// single-pattern and blended slots and runs them in order.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hyperengineering/voices/internal/authenticity"
	"github.com/hyperengineering/voices/internal/generation"
	"github.com/hyperengineering/voices/internal/types"
)

// DefaultMaxRetries is the attempt budget per slot.
const DefaultMaxRetries = 3

// ErrGenerationExhausted indicates a slot where every generation call failed.
var ErrGenerationExhausted = errors.New("generation exhausted")

// PromptBuilder renders the instruction text for a slot.
// Implemented by *prompt.Builder.
type PromptBuilder interface {
	Build(patterns []types.PatternType, in types.GenerationIngredients) (string, error)
}

// Orchestrator runs the retry-and-select loop for one slot at a time.
type Orchestrator struct {
	generator  generation.Generator
	prompts    PromptBuilder
	maxRetries int
	assess     func(string) authenticity.Assessment
}

// NewOrchestrator creates an orchestrator. maxRetries below 1 means one attempt.
func NewOrchestrator(g generation.Generator, prompts PromptBuilder, maxRetries int) *Orchestrator {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &Orchestrator{
		generator:  g,
		prompts:    prompts,
		maxRetries: maxRetries,
		assess:     authenticity.Assess,
	}
}

// MaxRetries returns the attempt budget per slot.
func (o *Orchestrator) MaxRetries() int {
	return o.maxRetries
}

// RunSlot generates a post for slot. The prompt is built once and reused for
// every attempt. It returns an Accepted or Fallback outcome with a nil error,
// or an Exhausted outcome whose error wraps ErrGenerationExhausted and the
// last generation failure. A cancelled context returns ctx.Err().
func (o *Orchestrator) RunSlot(ctx context.Context, slot Slot, in types.GenerationIngredients) (Outcome, error) {
	prompt, err := o.prompts.Build(slot.Patterns, in)
	if err != nil {
		return Outcome{Kind: KindExhausted, Err: err}, fmt.Errorf("build prompt for slot %d: %w", slot.Index, err)
	}

	acc := Outcome{Kind: KindExhausted}
	for n := 1; n <= o.maxRetries; n++ {
		text, genErr := o.generator.Generate(ctx, prompt)
		if genErr != nil && ctx.Err() != nil {
			return Outcome{Kind: KindExhausted, Attempts: n, Err: ctx.Err()}, ctx.Err()
		}

		a := attempt{number: n, text: text, err: genErr}
		if genErr == nil {
			a.assessment = o.assess(text)
		}
		o.logAttempt(slot, a)

		var done bool
		if acc, done = fold(acc, a, slot.Patterns); done {
			return acc, nil
		}
	}

	if acc.Kind == KindFallback {
		acc.Err = nil
		slog.Warn("slot fell back to best attempt",
			"component", "pipeline",
			"action", "fallback",
			"slot", slot.Index,
			"patterns", slot.PatternNames(),
			"score", acc.Check.Score,
			"attempts", acc.Attempts,
		)
		return acc, nil
	}

	acc.Err = fmt.Errorf("%w: slot %d after %d attempts: %w", ErrGenerationExhausted, slot.Index, acc.Attempts, acc.Err)
	slog.Error("slot exhausted",
		"component", "pipeline",
		"action", "exhausted",
		"slot", slot.Index,
		"patterns", slot.PatternNames(),
		"error", acc.Err,
	)
	return acc, acc.Err
}

func (o *Orchestrator) logAttempt(slot Slot, a attempt) {
	if a.err != nil {
		slog.Warn("generation attempt failed",
			"component", "pipeline",
			"action", "attempt",
			"slot", slot.Index,
			"attempt", a.number,
			"error", a.err,
		)
		return
	}
	slog.Debug("generation attempt scored",
		"component", "pipeline",
		"action", "attempt",
		"slot", slot.Index,
		"attempt", a.number,
		"score", a.assessment.Check.Score,
		"core", a.assessment.Check.CoreIngredients.Count,
		"destroyers", a.assessment.Destroyers.Severity.String(),
	)
}
