package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/hyperengineering/voices/internal/batch"
	"github.com/hyperengineering/voices/internal/config"
	"github.com/hyperengineering/voices/internal/pipeline"
	"github.com/hyperengineering/voices/internal/types"
	"github.com/hyperengineering/voices/internal/validation"
)

var (
	generateTopicsFile string
	generateOnly       []string
	generateCount      int
	generateReplace    bool
	generateExportDir  string
	generateDryRun     bool
	generateJSON       bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate post batches for a topic list",
	Long: `Generate a batch of posts for every topic in a YAML topic list, check the
batch for repeated details and save it. Topics whose generation is exhausted
keep the posts produced so far; the run continues with the next topic.`,
	Args: cobra.NoArgs,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVar(&generateTopicsFile, "topics", "", "Topic list YAML file (required)")
	generateCmd.Flags().StringSliceVar(&generateOnly, "only", nil, "Only run these topic IDs")
	generateCmd.Flags().IntVar(&generateCount, "count", 0, "Override the post count of every topic")
	generateCmd.Flags().BoolVar(&generateReplace, "replace", false, "Replace existing synthetic posts")
	generateCmd.Flags().StringVar(&generateExportDir, "export", "", "Write each batch as interchange JSON into this directory")
	generateCmd.Flags().BoolVar(&generateDryRun, "dry-run", false, "Generate and check without saving")
	generateCmd.Flags().BoolVar(&generateJSON, "json", false, "Output reports in JSON format")
	generateCmd.MarkFlagRequired("topics")
}

// topicList is the layout of a topic list file.
type topicList struct {
	Topics []types.Topic `yaml:"topics"`
}

func loadTopics(path string) ([]types.Topic, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read topics: %w", err)
	}
	var list topicList
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&list); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse topics %s: %w", path, err)
	}
	return list.Topics, nil
}

// selectTopics applies --only and --count.
func selectTopics(topics []types.Topic, only []string, count int) ([]types.Topic, error) {
	if len(only) > 0 {
		known := make(map[string]bool, len(topics))
		for _, t := range topics {
			known[t.ID] = true
		}
		want := make(map[string]bool, len(only))
		for _, id := range only {
			if !known[id] {
				return nil, fmt.Errorf("unknown topic %q", id)
			}
			want[id] = true
		}
		var kept []types.Topic
		for _, t := range topics {
			if want[t.ID] {
				kept = append(kept, t)
			}
		}
		topics = kept
	}
	if count > 0 {
		for i := range topics {
			topics[i].Count = count
		}
	}
	return topics, nil
}

func runGenerate(cmd *cobra.Command, args []string) error {
	// An interrupt stops after the current slot; saved topics stay saved.
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	setupLogger(cfg.Log, cmd.ErrOrStderr())

	topics, err := loadTopics(generateTopicsFile)
	if err != nil {
		return err
	}
	topics, err = selectTopics(topics, generateOnly, generateCount)
	if err != nil {
		return err
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if errs := validation.ValidateTopics(topics, a.catalog.CategoryNames()); len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, e := range errs {
			msgs[i] = e.Field + ": " + e.Message
		}
		return fmt.Errorf("invalid topic list:\n  %s", strings.Join(msgs, "\n  "))
	}

	if generateExportDir != "" {
		if err := os.MkdirAll(generateExportDir, 0755); err != nil {
			return fmt.Errorf("create export directory: %w", err)
		}
	}

	out := cmd.OutOrStdout()
	var failed []string
	for _, topic := range topics {
		report, err := a.batches.Generate(ctx, batch.Request{
			Topic:   topic,
			Replace: generateReplace,
			DryRun:  generateDryRun,
		})
		if err != nil {
			slog.Error("topic failed",
				"component", "cli",
				"action", "generate",
				"topic_id", topic.ID,
				"error", err,
			)
			failed = append(failed, topic.ID)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if report == nil || !errors.Is(err, pipeline.ErrGenerationExhausted) {
				continue
			}
		}

		if generateExportDir != "" && len(report.Posts) > 0 {
			if err := a.export(ctx, cmd.ErrOrStderr(), report); err != nil {
				return err
			}
		}
		if err := printReport(out, report); err != nil {
			return err
		}
	}

	if len(failed) > 0 {
		return fmt.Errorf("%d of %d topics failed: %s", len(failed), len(topics), strings.Join(failed, ", "))
	}
	return nil
}

// export writes the batch as interchange JSON and uploads it when artifact
// storage is configured.
func (a *app) export(ctx context.Context, errOut io.Writer, report *batch.Report) error {
	path := filepath.Join(generateExportDir, fmt.Sprintf("%s-%s.json", report.TopicID, report.BatchID))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	if err := types.EncodePosts(f, report.Posts); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close export file: %w", err)
	}

	key, err := a.uploader.Upload(ctx, report.TopicID, report.BatchID, path)
	if err != nil {
		return err
	}
	if key != "" {
		fmt.Fprintf(errOut, "Uploaded %s\n", key)
	}
	return nil
}

func printReport(w io.Writer, r *batch.Report) error {
	if generateJSON {
		return printJSON(w, r)
	}

	fmt.Fprintf(w, "Topic %s (batch %s)\n", r.TopicID, r.BatchID)
	fmt.Fprintf(w, "  Posts:     %d of %d (%d accepted, %d fallback)\n",
		len(r.Posts), r.Requested, r.Accepted, r.Fallbacks)
	fmt.Fprintf(w, "  Saved:     %d (replaced %d)\n", r.Saved, r.Replaced)
	fmt.Fprintf(w, "  Variety:   %s, %d violations, %d warnings\n",
		r.Variety.Tier(), len(r.Variety.Violations), len(r.Variety.Warnings))
	if flagged := r.Variety.FlaggedPosts(); len(flagged) > 0 {
		fmt.Fprintf(w, "  Flagged:   %v\n", flagged)
	}
	if !r.Complete() {
		fmt.Fprintln(w, "  Status:    incomplete")
	}
	return nil
}
