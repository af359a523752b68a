package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/voices/internal/config"
	"github.com/hyperengineering/voices/internal/store"
	"github.com/hyperengineering/voices/internal/types"
	"github.com/hyperengineering/voices/internal/validation"
)

var (
	postsDBOverride  string
	postsJSONOutput  bool
	postsSynthetic   bool
	postsForce       bool
	postsOutput      string
	postsAuthor      string
	postsMarkGenuine bool
)

var postsCmd = &cobra.Command{
	Use:   "posts",
	Short: "Manage stored posts",
	Long:  "Count, delete, export and import stored posts without running the server.",
}

var postsCountCmd = &cobra.Command{
	Use:   "count [topic]",
	Short: "Count posts for a topic, or for every topic",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runPostsCount,
}

var postsDeleteCmd = &cobra.Command{
	Use:   "delete <topic>",
	Short: "Delete a topic's posts",
	Long:  "Permanently delete a topic's posts. With --synthetic only generated posts are removed. Requires --force or interactive confirmation.",
	Args:  cobra.ExactArgs(1),
	RunE:  runPostsDelete,
}

var postsExportCmd = &cobra.Command{
	Use:   "export <topic>",
	Short: "Export a topic's posts as interchange JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runPostsExport,
}

var postsImportCmd = &cobra.Command{
	Use:   "import <topic> <file|->",
	Short: "Import interchange JSON into a topic",
	Args:  cobra.ExactArgs(2),
	RunE:  runPostsImport,
}

func init() {
	postsCmd.PersistentFlags().StringVar(&postsDBOverride, "db", "",
		"Database path (overrides config and VOICES_DB_PATH)")
	postsCmd.PersistentFlags().BoolVar(&postsJSONOutput, "json", false,
		"Output in JSON format")

	postsDeleteCmd.Flags().BoolVar(&postsSynthetic, "synthetic", false, "Only delete generated posts")
	postsDeleteCmd.Flags().BoolVar(&postsForce, "force", false, "Skip confirmation prompt")

	postsExportCmd.Flags().StringVarP(&postsOutput, "output", "o", "-", "Output file, - for stdout")

	postsImportCmd.Flags().StringVar(&postsAuthor, "author", "", "Author written with the records (defaults to the configured persona)")
	postsImportCmd.Flags().BoolVar(&postsMarkGenuine, "genuine", false, "Mark imported posts as not synthetic")

	postsCmd.AddCommand(postsCountCmd)
	postsCmd.AddCommand(postsDeleteCmd)
	postsCmd.AddCommand(postsExportCmd)
	postsCmd.AddCommand(postsImportCmd)
}

// openPostStore opens the configured database, honouring --db.
func openPostStore() (*store.SQLiteStore, *config.Config, error) {
	cfg, err := config.LoadLocal()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	path := postsDBOverride
	if path == "" {
		path = cfg.Database.Path
	}
	s, err := store.NewSQLiteStore(path)
	if err != nil {
		return nil, nil, err
	}
	return s, cfg, nil
}

func checkTopicArg(topicID string) error {
	if verr := validation.ValidateTopicID("topic", topicID); verr != nil {
		return fmt.Errorf("invalid topic %q: %s", topicID, verr.Message)
	}
	return nil
}

func runPostsCount(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	s, _, err := openPostStore()
	if err != nil {
		return err
	}
	defer s.Close()

	var counts []types.TopicCounts
	if len(args) == 1 {
		if err := checkTopicArg(args[0]); err != nil {
			return err
		}
		total, err := s.CountPosts(ctx, args[0])
		if err != nil {
			return err
		}
		synthetic, err := s.CountSynthetic(ctx, args[0])
		if err != nil {
			return err
		}
		counts = []types.TopicCounts{{TopicID: args[0], Total: total, Synthetic: synthetic}}
	} else {
		counts, err = s.ListTopics(ctx)
		if err != nil {
			return fmt.Errorf("list topics: %w", err)
		}
	}

	out := cmd.OutOrStdout()
	if postsJSONOutput {
		return printJSON(out, map[string]any{"topics": counts, "total": len(counts)})
	}
	if len(counts) == 0 {
		fmt.Fprintln(out, "No posts found.")
		return nil
	}

	w := newTabWriter(out)
	fmt.Fprintln(w, "TOPIC\tTOTAL\tSYNTHETIC")
	for _, c := range counts {
		fmt.Fprintf(w, "%s\t%d\t%d\n", c.TopicID, c.Total, c.Synthetic)
	}
	return w.Flush()
}

func runPostsDelete(cmd *cobra.Command, args []string) error {
	topicID := args[0]
	ctx := context.Background()

	if err := checkTopicArg(topicID); err != nil {
		return err
	}

	s, _, err := openPostStore()
	if err != nil {
		return err
	}
	defer s.Close()

	kind := "posts"
	if postsSynthetic {
		kind = "synthetic posts"
	}

	if !postsForce {
		errOut := cmd.ErrOrStderr()
		fmt.Fprintf(errOut, "WARNING: This will permanently delete the %s of topic %q.\n", kind, topicID)
		fmt.Fprint(errOut, "Type the topic ID to confirm: ")

		input, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && input == "" {
			return fmt.Errorf("failed to read confirmation: %w", err)
		}
		if strings.TrimSpace(input) != topicID {
			fmt.Fprintln(errOut, "Aborted. Topic ID did not match.")
			return nil
		}
	}

	var deleted int64
	if postsSynthetic {
		deleted, err = s.DeleteSynthetic(ctx, topicID)
	} else {
		deleted, err = s.DeletePosts(ctx, topicID)
	}
	if err != nil {
		return err
	}

	if postsJSONOutput {
		return printJSON(cmd.OutOrStdout(), map[string]any{"topicId": topicID, "deleted": deleted})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d %s from %q\n", deleted, kind, topicID)
	return nil
}

func runPostsExport(cmd *cobra.Command, args []string) error {
	topicID := args[0]
	if err := checkTopicArg(topicID); err != nil {
		return err
	}

	s, _, err := openPostStore()
	if err != nil {
		return err
	}
	defer s.Close()

	stored, err := s.ListPosts(context.Background(), topicID)
	if err != nil {
		return err
	}
	posts := make([]types.GeneratedPost, len(stored))
	for i, p := range stored {
		posts[i] = p.Post()
	}

	if postsOutput == "-" {
		return types.EncodePosts(cmd.OutOrStdout(), posts)
	}
	f, err := os.Create(postsOutput)
	if err != nil {
		return fmt.Errorf("create %s: %w", postsOutput, err)
	}
	if err := types.EncodePosts(f, posts); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d posts to %s\n", len(posts), postsOutput)
	return nil
}

func runPostsImport(cmd *cobra.Command, args []string) error {
	topicID := args[0]
	if err := checkTopicArg(topicID); err != nil {
		return err
	}

	var r io.Reader = cmd.InOrStdin()
	if args[1] != "-" {
		f, err := os.Open(args[1])
		if err != nil {
			return fmt.Errorf("open %s: %w", args[1], err)
		}
		defer f.Close()
		r = f
	}
	posts, err := types.DecodePosts(r)
	if err != nil {
		return err
	}
	for i, p := range posts {
		if errs := validation.ValidateContent(fmt.Sprintf("posts[%d].content", i), p.Content); len(errs) > 0 {
			return fmt.Errorf("%s: %s", errs[0].Field, errs[0].Message)
		}
	}

	s, cfg, err := openPostStore()
	if err != nil {
		return err
	}
	defer s.Close()

	author := postsAuthor
	if author == "" {
		author = cfg.Persona.Author
	}
	result, err := s.SavePosts(context.Background(), topicID, posts, store.RecordMeta{
		Author:    author,
		Synthetic: !postsMarkGenuine,
	})
	if err != nil {
		return err
	}

	if postsJSONOutput {
		return printJSON(cmd.OutOrStdout(), result)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d posts into %q (batch %s)\n", result.Saved, topicID, result.BatchID)
	return nil
}
