package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/voices/internal/authenticity"
	"github.com/hyperengineering/voices/internal/config"
	"github.com/hyperengineering/voices/internal/quota"
	"github.com/hyperengineering/voices/internal/types"
	"github.com/hyperengineering/voices/internal/variety"
)

var (
	checkJSONOutput bool

	varietyViolationAbove int
	varietyWarnAt         int

	quotaCategory    string
	quotaTotal       int
	quotaCatalogPath string
)

var validateCmd = &cobra.Command{
	Use:   "validate [file|-]",
	Short: "Score one post for authenticity",
	Long:  "Score a post against the authenticity checklist and scan it for destroyer phrasing. Reads stdin when the file is - or omitted.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runValidate,
}

var varietyCmd = &cobra.Command{
	Use:   "variety <interchange.json>",
	Short: "Check an exported batch for repeated details",
	Args:  cobra.ExactArgs(1),
	RunE:  runVariety,
}

var quotaCmd = &cobra.Command{
	Use:   "quota",
	Short: "Print the pattern quota plan for a category",
	Args:  cobra.NoArgs,
	RunE:  runQuota,
}

func init() {
	validateCmd.Flags().BoolVar(&checkJSONOutput, "json", false, "Output in JSON format")

	varietyCmd.Flags().BoolVar(&checkJSONOutput, "json", false, "Output in JSON format")
	varietyCmd.Flags().IntVar(&varietyViolationAbove, "violation-above", 0,
		"Post count above which a repeated detail is a violation (0 uses the configured value)")
	varietyCmd.Flags().IntVar(&varietyWarnAt, "warn-at", 0,
		"Post count from which a repeated detail is a warning (0 uses the configured value)")

	quotaCmd.Flags().StringVar(&quotaCategory, "category", "", "Topic category (required)")
	quotaCmd.Flags().IntVar(&quotaTotal, "total", 0, "Batch size (required)")
	quotaCmd.Flags().StringVar(&quotaCatalogPath, "catalog", "", "Catalog override file (defaults to catalog.path from config)")
	quotaCmd.Flags().BoolVar(&checkJSONOutput, "json", false, "Output in JSON format")
	quotaCmd.MarkFlagRequired("category")
	quotaCmd.MarkFlagRequired("total")
}

func readInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(args[0])
}

func runValidate(cmd *cobra.Command, args []string) error {
	data, err := readInput(cmd, args)
	if err != nil {
		return fmt.Errorf("read post: %w", err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return fmt.Errorf("post is empty")
	}

	a := authenticity.Assess(text)
	out := cmd.OutOrStdout()
	if checkJSONOutput {
		return printJSON(out, a)
	}

	verdict := "FAIL"
	if a.Check.Passed {
		verdict = "PASS"
	}
	fmt.Fprintf(out, "%s  score %d/%d  %s\n", verdict, a.Check.Score, len(a.Check.Details), a.Check.Recommendation)
	fmt.Fprintf(out, "Core ingredients: %d/3\n", a.Check.CoreIngredients.Count)

	w := newTabWriter(out)
	for _, item := range a.Check.Details {
		mark := "-"
		if item.Passed {
			mark = "+"
		}
		note := item.Evidence
		if !item.Passed {
			note = item.Suggestion
		}
		fmt.Fprintf(w, "  %s\t%s\t%s\n", mark, item.Criterion, note)
	}
	w.Flush()

	for _, d := range a.Destroyers.Details {
		fmt.Fprintf(out, "Destroyer: %s (%s) %q\n", d.Name, d.Severity, d.Match)
	}
	return nil
}

func runVariety(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open batch: %w", err)
	}
	defer f.Close()

	posts, err := types.DecodePosts(f)
	if err != nil {
		return err
	}

	thresholds, err := varietyThresholds()
	if err != nil {
		return err
	}

	contents := make([]string, len(posts))
	for i, p := range posts {
		contents[i] = p.Content
	}
	result := variety.New(thresholds).Validate(contents)

	out := cmd.OutOrStdout()
	if checkJSONOutput {
		return printJSON(out, result)
	}

	verdict := "FAIL"
	if result.Passed {
		verdict = "PASS"
	}
	fmt.Fprintf(out, "%s  %d posts, %d details (%d unique), repetition %.0f%%\n",
		verdict, len(posts), result.TotalDetails, result.UniqueDetails, result.RepetitionRate*100)
	fmt.Fprintln(out, result.Recommendation)

	w := newTabWriter(out)
	for _, v := range result.Violations {
		fmt.Fprintf(w, "  violation\t%s\t%s\t%v\n", v.Category, v.Detail, v.Posts)
	}
	for _, v := range result.Warnings {
		fmt.Fprintf(w, "  warning\t%s\t%s\t%v\n", v.Category, v.Detail, v.Posts)
	}
	return w.Flush()
}

// varietyThresholds starts from the configured thresholds and applies any
// non-zero flag values.
func varietyThresholds() (variety.Thresholds, error) {
	cfg, err := config.LoadLocal()
	if err != nil {
		return variety.Thresholds{}, fmt.Errorf("load config: %w", err)
	}
	t := variety.Thresholds{ViolationAbove: cfg.Variety.ViolationAbove, WarnAt: cfg.Variety.WarnAt}
	if varietyViolationAbove != 0 {
		t.ViolationAbove = varietyViolationAbove
	}
	if varietyWarnAt != 0 {
		t.WarnAt = varietyWarnAt
	}
	return t, t.Validate()
}

func runQuota(cmd *cobra.Command, args []string) error {
	if quotaTotal < 1 {
		return fmt.Errorf("--total must be at least 1, got %d", quotaTotal)
	}
	path := quotaCatalogPath
	if path == "" {
		cfg, err := config.LoadLocal()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		path = cfg.Catalog.Path
	}
	cat, err := loadCatalog(path)
	if err != nil {
		return err
	}
	quotas, err := quota.ForCategory(cat, types.TopicCategory(quotaCategory), quotaTotal)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if checkJSONOutput {
		if quotas == nil {
			quotas = []types.PatternQuota{}
		}
		return printJSON(out, quotas)
	}

	w := newTabWriter(out)
	fmt.Fprintln(w, "PATTERN\tCOUNT")
	for _, q := range quotas {
		fmt.Fprintf(w, "%s\t%d\n", q.Pattern, q.Count)
	}
	fmt.Fprintf(w, "total\t%d\n", quota.Total(quotas))
	return w.Flush()
}

// printJSON marshals v to indented JSON on w.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// newTabWriter returns a configured tabwriter for aligned columns.
func newTabWriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}
