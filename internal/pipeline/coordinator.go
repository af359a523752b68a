package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hyperengineering/voices/internal/catalog"
	"github.com/hyperengineering/voices/internal/types"
)

// SingleShare is the fraction of a batch generated from a single pattern;
// the rest are blended.
const SingleShare = 0.4

// Slot is one post to generate: one pattern, or two for a blended post.
type Slot struct {
	Index    int
	Patterns []types.PatternType
}

// Blended reports whether the slot mixes two patterns.
func (s Slot) Blended() bool {
	return len(s.Patterns) == 2
}

// PatternNames returns the slot's patterns as strings.
func (s Slot) PatternNames() []string {
	names := make([]string, len(s.Patterns))
	for i, p := range s.Patterns {
		names[i] = string(p)
	}
	return names
}

// SlotSummary is the per-slot report of a batch run.
type SlotSummary struct {
	Slot     int                 `json:"slot"`
	Patterns []types.PatternType `json:"patterns"`
	Kind     Kind                `json:"kind"`
	Attempts int                 `json:"attempts"`
	Score    int                 `json:"score"`
}

// BatchResult holds the posts of a batch in slot order.
type BatchResult struct {
	Posts     []types.GeneratedPost `json:"posts"`
	Slots     []SlotSummary         `json:"slots"`
	Accepted  int                   `json:"accepted"`
	Fallbacks int                   `json:"fallbacks"`
	Duration  time.Duration         `json:"-"`
}

// SlotRunner runs one slot. Implemented by *Orchestrator.
type SlotRunner interface {
	RunSlot(ctx context.Context, slot Slot, in types.GenerationIngredients) (Outcome, error)
}

// Coordinator lays out a batch and runs its slots strictly in order.
type Coordinator struct {
	catalog *catalog.Catalog
	runner  SlotRunner
}

// NewCoordinator creates a coordinator.
func NewCoordinator(c *catalog.Catalog, runner SlotRunner) *Coordinator {
	return &Coordinator{catalog: c, runner: runner}
}

// Plan returns the slots for a batch: floor(total*SingleShare) single-pattern
// slots cycling through the category's primary patterns, then blended slots
// pairing each primary pattern with the first secondary pattern, or with the
// next primary pattern when the category has no secondary list.
func (c *Coordinator) Plan(category types.TopicCategory, total int) ([]Slot, error) {
	plan, err := c.catalog.Plan(category)
	if err != nil {
		return nil, err
	}
	if total <= 0 {
		return []Slot{}, nil
	}

	primary := plan.Primary
	n := len(primary)
	singleCount := int(float64(total) * SingleShare)

	slots := make([]Slot, 0, total)
	for i := 0; i < singleCount; i++ {
		slots = append(slots, Slot{
			Index:    len(slots),
			Patterns: []types.PatternType{primary[i%n]},
		})
	}
	for i := 0; i < total-singleCount; i++ {
		first := primary[i%n]
		var second types.PatternType
		if len(plan.Secondary) > 0 {
			second = plan.Secondary[0]
		} else {
			second = primary[(i+1)%n]
		}
		patterns := []types.PatternType{first, second}
		if first == second {
			// A one-pattern category with no secondary list cannot blend.
			patterns = patterns[:1]
		}
		slots = append(slots, Slot{Index: len(slots), Patterns: patterns})
	}
	return slots, nil
}

// Run generates total posts for the ingredients' category. The category is
// checked before any generation call. When a slot is exhausted Run stops and
// returns the posts assembled so far together with the error.
func (c *Coordinator) Run(ctx context.Context, in types.GenerationIngredients, total int) (*BatchResult, error) {
	slots, err := c.Plan(in.TopicCategory, total)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	result := &BatchResult{
		Posts: make([]types.GeneratedPost, 0, len(slots)),
		Slots: make([]SlotSummary, 0, len(slots)),
	}
	for _, slot := range slots {
		if err := ctx.Err(); err != nil {
			result.Duration = time.Since(start)
			return result, err
		}

		outcome, err := c.runner.RunSlot(ctx, slot, in)
		result.Slots = append(result.Slots, SlotSummary{
			Slot:     slot.Index,
			Patterns: slot.Patterns,
			Kind:     outcome.Kind,
			Attempts: outcome.Attempts,
			Score:    outcome.Check.Score,
		})
		if err != nil {
			result.Duration = time.Since(start)
			return result, fmt.Errorf("batch %q stopped at slot %d of %d: %w", in.TopicTitle, slot.Index+1, len(slots), err)
		}

		switch outcome.Kind {
		case KindAccepted:
			result.Accepted++
		case KindFallback:
			result.Fallbacks++
		}
		result.Posts = append(result.Posts, outcome.Post)
	}
	result.Duration = time.Since(start)

	slog.Info("batch completed",
		"component", "pipeline",
		"action", "batch",
		"category", string(in.TopicCategory),
		"posts", len(result.Posts),
		"accepted", result.Accepted,
		"fallbacks", result.Fallbacks,
		"duration_ms", result.Duration.Milliseconds(),
	)
	return result, nil
}
