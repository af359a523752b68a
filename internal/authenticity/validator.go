// Package authenticity scores a single candidate post against a fixed
// checklist of peer-testimonial traits and flags phrasing that marks text as
// generic or promotional.
package authenticity

import "strings"

// Scoring thresholds.
const (
	PassingScore   = 7
	NeedsWorkScore = 5
	MinCoreCount   = 2
)

// Recommendation tiers for a single post.
const (
	RecommendReady            = "ready"
	RecommendNeedsImprovement = "needs-improvement"
	RecommendNeedsWork        = "needs-work"
	RecommendReject           = "reject"
)

// ChecklistItem is the result of one criterion.
type ChecklistItem struct {
	Criterion  string `json:"criterion"`
	Passed     bool   `json:"passed"`
	Evidence   string `json:"evidence,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

// CoreIngredientsCheck aggregates the checklist into the three traits a post
// needs at least two of.
type CoreIngredientsCheck struct {
	EmotionalHonesty    bool `json:"emotionalHonesty"`
	SpecificDetails     bool `json:"specificDetails"`
	TemporalProgression bool `json:"temporalProgression"`
	Count               int  `json:"count"`
	Passed              bool `json:"passed"`
}

// AuthenticityCheck is the full result for one post.
type AuthenticityCheck struct {
	Passed          bool                 `json:"passed"`
	Score           int                  `json:"score"`
	Details         []ChecklistItem      `json:"details"`
	CoreIngredients CoreIngredientsCheck `json:"coreIngredients"`
	Recommendation  string               `json:"recommendation"`
}

// Markers returns the names of the passed criteria in checklist order.
func (c AuthenticityCheck) Markers() []string {
	markers := []string{}
	for _, item := range c.Details {
		if item.Passed {
			markers = append(markers, item.Criterion)
		}
	}
	return markers
}

// Failed returns the checklist items that did not pass.
func (c AuthenticityCheck) Failed() []ChecklistItem {
	var failed []ChecklistItem
	for _, item := range c.Details {
		if !item.Passed {
			failed = append(failed, item)
		}
	}
	return failed
}

// Validate runs every criterion against text and derives the aggregate result.
func Validate(text string) AuthenticityCheck {
	text = normalize(text)

	details := make([]ChecklistItem, len(Criteria))
	score := 0
	for i, c := range Criteria {
		v := c.Check(text)
		item := ChecklistItem{Criterion: c.Name, Passed: v.Passed, Evidence: v.Evidence}
		if v.Passed {
			score++
		} else {
			item.Suggestion = c.Suggestion
		}
		details[i] = item
	}

	core := coreIngredients(details)
	return AuthenticityCheck{
		Passed:          score >= PassingScore && core.Passed,
		Score:           score,
		Details:         details,
		CoreIngredients: core,
		Recommendation:  recommend(score, core.Passed),
	}
}

func coreIngredients(details []ChecklistItem) CoreIngredientsCheck {
	passed := func(idx int) bool { return details[idx].Passed }

	core := CoreIngredientsCheck{
		EmotionalHonesty:    passed(idxAdmitsStruggle) || passed(idxUnglamorousDetails),
		SpecificDetails:     passed(idxSpecificNumbers) && passed(idxNamedEntities),
		TemporalProgression: passed(idxNonLinearProgress) || passed(idxTimeInvestment),
	}
	for _, ok := range []bool{core.EmotionalHonesty, core.SpecificDetails, core.TemporalProgression} {
		if ok {
			core.Count++
		}
	}
	core.Passed = core.Count >= MinCoreCount
	return core
}

func recommend(score int, corePassed bool) string {
	switch {
	case score >= PassingScore && corePassed:
		return RecommendReady
	case score >= PassingScore:
		return RecommendNeedsImprovement
	case score >= NeedsWorkScore:
		return RecommendNeedsWork
	default:
		return RecommendReject
	}
}

var apostrophes = strings.NewReplacer("’", "'", "‘", "'")

// normalize folds typographic apostrophes so contractions match the lexicons.
func normalize(text string) string {
	return apostrophes.Replace(text)
}
