// Package variety detects concrete details (names, costs, timestamps,
// products, medications, therapy types) that recur across the posts of one
// batch.
package variety

import (
	"fmt"
	"sort"
	"strings"
)

// Default thresholds: a detail in more than two posts is a violation, in
// exactly two a warning.
const (
	DefaultViolationAbove = 2
	DefaultWarnAt         = 2
)

// Recommendation tiers for a batch.
const (
	TierExcellent       = "excellent"
	TierAcceptable      = "acceptable"
	TierNeedsFix        = "needs-fix"
	TierRegenerateBatch = "regenerate-batch"
)

// MaxFixableViolations is the violation count up to which individual posts
// can be regenerated instead of the whole batch.
const MaxFixableViolations = 2

// Thresholds classify a detail by the number of distinct posts it appears in.
// A count above ViolationAbove is a violation; a count from WarnAt up to
// ViolationAbove is a warning.
type Thresholds struct {
	ViolationAbove int `yaml:"violation_above" json:"violationAbove"`
	WarnAt         int `yaml:"warn_at" json:"warnAt"`
}

// DefaultThresholds returns the standard thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{ViolationAbove: DefaultViolationAbove, WarnAt: DefaultWarnAt}
}

// Validate checks that the thresholds can classify anything at all.
func (t Thresholds) Validate() error {
	if t.ViolationAbove < 1 {
		return fmt.Errorf("violation_above must be at least 1, got %d", t.ViolationAbove)
	}
	if t.WarnAt < 2 {
		return fmt.Errorf("warn_at must be at least 2, got %d", t.WarnAt)
	}
	return nil
}

// DetailOccurrence is a detail key and the 1-based indices of the posts it
// appears in, sorted and distinct.
type DetailOccurrence struct {
	Detail   string   `json:"detail"`
	Category Category `json:"category"`
	Posts    []int    `json:"posts"`
}

// DetailIssue is a detail repeated often enough to be reported.
type DetailIssue struct {
	Detail   string   `json:"detail"`
	Count    int      `json:"count"`
	Posts    []int    `json:"posts"`
	Category Category `json:"category"`
}

// DetailVarietyResult is the batch-level result.
type DetailVarietyResult struct {
	Passed         bool               `json:"passed"`
	Violations     []DetailIssue      `json:"violations"`
	Warnings       []DetailIssue      `json:"warnings"`
	TotalDetails   int                `json:"totalDetails"`
	UniqueDetails  int                `json:"uniqueDetails"`
	RepetitionRate float64            `json:"repetitionRate"`
	Recommendation string             `json:"recommendation"`
	Occurrences    []DetailOccurrence `json:"occurrences"`
}

// Tier returns the recommendation tier without its sentence.
func (r DetailVarietyResult) Tier() string {
	tier, _, _ := strings.Cut(r.Recommendation, ":")
	return tier
}

// FlaggedPosts returns the sorted, distinct 1-based indices of every post
// involved in a violation.
func (r DetailVarietyResult) FlaggedPosts() []int {
	seen := map[int]bool{}
	var posts []int
	for _, v := range r.Violations {
		for _, p := range v.Posts {
			if !seen[p] {
				seen[p] = true
				posts = append(posts, p)
			}
		}
	}
	sort.Ints(posts)
	return posts
}

// Validator runs the extractors over a batch.
type Validator struct {
	Thresholds Thresholds
	Extractors []Extractor
}

// New returns a Validator with the given thresholds and the standard extractors.
func New(t Thresholds) *Validator {
	return &Validator{Thresholds: t, Extractors: Extractors}
}

// Validate scans posts in order. Post indices in the result are 1-based
// positions in posts.
func (v *Validator) Validate(posts []string) DetailVarietyResult {
	occurrences := v.collect(posts)

	result := DetailVarietyResult{
		Violations:  []DetailIssue{},
		Warnings:    []DetailIssue{},
		Occurrences: occurrences,
	}
	for _, occ := range occurrences {
		count := len(occ.Posts)
		issue := DetailIssue{Detail: occ.Detail, Count: count, Posts: occ.Posts, Category: occ.Category}
		switch {
		case count > v.Thresholds.ViolationAbove:
			result.Violations = append(result.Violations, issue)
		case count >= v.Thresholds.WarnAt:
			result.Warnings = append(result.Warnings, issue)
		case count == 1:
			result.UniqueDetails++
		}
	}
	sortIssues(result.Violations)
	sortIssues(result.Warnings)

	result.TotalDetails = len(occurrences)
	if result.TotalDetails > 0 {
		result.RepetitionRate = float64(result.TotalDetails-result.UniqueDetails) / float64(result.TotalDetails)
	}
	result.Passed = len(result.Violations) == 0
	result.Recommendation = recommend(len(result.Violations), len(result.Warnings))
	return result
}

// collect builds the detail map, deduplicating each detail per post. The
// result is ordered by detail key.
func (v *Validator) collect(posts []string) []DetailOccurrence {
	byKey := map[string]*DetailOccurrence{}
	for i, text := range posts {
		index := i + 1
		for _, ex := range v.Extractors {
			for _, raw := range ex.Extract(text) {
				key := Normalize(raw)
				occ, ok := byKey[key]
				if !ok {
					occ = &DetailOccurrence{Detail: key, Category: ex.Category}
					byKey[key] = occ
				}
				if n := len(occ.Posts); n == 0 || occ.Posts[n-1] != index {
					occ.Posts = append(occ.Posts, index)
				}
			}
		}
	}

	out := make([]DetailOccurrence, 0, len(byKey))
	for _, occ := range byKey {
		out = append(out, *occ)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Detail < out[j].Detail })
	return out
}

// Normalize turns an extracted string into a detail key.
func Normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func sortIssues(issues []DetailIssue) {
	sort.SliceStable(issues, func(i, j int) bool {
		if issues[i].Count != issues[j].Count {
			return issues[i].Count > issues[j].Count
		}
		return issues[i].Detail < issues[j].Detail
	})
}

func recommend(violations, warnings int) string {
	switch {
	case violations == 0 && warnings == 0:
		return TierExcellent + ": every concrete detail is unique to one post."
	case violations == 0:
		return fmt.Sprintf("%s: %d detail(s) appear in two posts; consider varying them.", TierAcceptable, warnings)
	case violations <= MaxFixableViolations:
		return fmt.Sprintf("%s: %d detail(s) repeat across too many posts; regenerate the flagged posts.", TierNeedsFix, violations)
	default:
		return fmt.Sprintf("%s: %d details repeat across too many posts; regenerate the batch.", TierRegenerateBatch, violations)
	}
}
