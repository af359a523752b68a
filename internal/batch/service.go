// Package batch runs one topic through the pipeline, checks the batch for
// repeated details and persists the result.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hyperengineering/voices/internal/pipeline"
	"github.com/hyperengineering/voices/internal/store"
	"github.com/hyperengineering/voices/internal/types"
	"github.com/hyperengineering/voices/internal/variety"
)

// Runner produces the posts of one batch. Implemented by *pipeline.Coordinator.
type Runner interface {
	Run(ctx context.Context, in types.GenerationIngredients, total int) (*pipeline.BatchResult, error)
}

// Request describes one topic run.
type Request struct {
	Topic types.Topic
	// Replace swaps the topic's existing synthetic posts for the new batch
	// in one transaction.
	Replace bool
	// DryRun generates and checks the batch without touching the store.
	DryRun bool
}

// Report is the result of a topic run. Posts are in slot order.
type Report struct {
	TopicID   string                      `json:"topicId"`
	BatchID   string                      `json:"batchId"`
	Requested int                         `json:"requested"`
	Saved     int                         `json:"saved"`
	Replaced  int64                       `json:"replaced"`
	Accepted  int                         `json:"accepted"`
	Fallbacks int                         `json:"fallbacks"`
	Posts     []types.GeneratedPost       `json:"posts"`
	Outcomes  []pipeline.SlotSummary      `json:"outcomes"`
	Variety   variety.DetailVarietyResult `json:"variety"`
	Duration  time.Duration               `json:"-"`
}

// Complete reports whether every requested post was produced.
func (r *Report) Complete() bool {
	return len(r.Posts) == r.Requested
}

// Service wires the coordinator, the variety check and the store.
type Service struct {
	runner  Runner
	store   store.PostStore
	variety *variety.Validator
	author  string
}

// NewService creates a Service. author is written with every stored post.
func NewService(r Runner, s store.PostStore, v *variety.Validator, author string) *Service {
	return &Service{runner: r, store: s, variety: v, author: author}
}

// Generate runs a batch for req.Topic.
//
// When generation stops early because a slot was exhausted, the posts
// produced before it are still checked and saved, and the returned report
// is non-nil alongside an error wrapping pipeline.ErrGenerationExhausted.
// Any other pipeline error returns a nil report.
func (s *Service) Generate(ctx context.Context, req Request) (*Report, error) {
	topic := req.Topic
	result, runErr := s.runner.Run(ctx, topic.Ingredients(), topic.Count)
	if result == nil {
		return nil, runErr
	}
	if runErr != nil && !errors.Is(runErr, pipeline.ErrGenerationExhausted) {
		return nil, runErr
	}

	report := &Report{
		TopicID:   topic.ID,
		BatchID:   ulid.Make().String(),
		Requested: topic.Count,
		Accepted:  result.Accepted,
		Fallbacks: result.Fallbacks,
		Posts:     result.Posts,
		Outcomes:  result.Slots,
		Duration:  result.Duration,
	}

	contents := make([]string, len(result.Posts))
	for i, p := range result.Posts {
		contents[i] = p.Content
	}
	report.Variety = s.variety.Validate(contents)
	if !report.Variety.Passed {
		slog.Warn("batch failed detail variety",
			"component", "batch",
			"action", "variety",
			"topic_id", topic.ID,
			"violations", len(report.Variety.Violations),
			"flagged_posts", report.Variety.FlaggedPosts(),
		)
	}

	if req.DryRun || len(result.Posts) == 0 {
		return report, runErr
	}

	meta := store.RecordMeta{
		BatchID:   report.BatchID,
		Author:    s.author,
		Synthetic: true,
	}
	save := s.store.SavePosts
	if req.Replace {
		save = s.store.ReplaceSynthetic
	}
	saved, err := save(ctx, topic.ID, result.Posts, meta)
	if err != nil {
		return report, fmt.Errorf("save posts for %q: %w", topic.ID, err)
	}
	report.Replaced = saved.Replaced
	report.Saved = saved.Saved

	slog.Info("batch saved",
		"component", "batch",
		"action", "save",
		"topic_id", topic.ID,
		"batch_id", report.BatchID,
		"saved", report.Saved,
		"replaced", report.Replaced,
	)
	return report, runErr
}
