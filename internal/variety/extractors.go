package variety

import (
	"regexp"
	"strings"
)

// Category is the type of a concrete detail.
type Category string

const (
	CategoryName       Category = "name"
	CategoryTimestamp  Category = "timestamp"
	CategoryMedication Category = "medication"
	CategoryCost       Category = "cost"
	CategoryProduct    Category = "product"
	CategoryOther      Category = "other"
)

// Extractor pulls one type of concrete detail out of a post.
type Extractor struct {
	Name     string
	Category Category
	Pattern  *regexp.Regexp
}

// Extract returns every match in text, trimmed, in order of appearance.
func (e Extractor) Extract(text string) []string {
	var out []string
	for _, m := range e.Pattern.FindAllString(text, -1) {
		if m = strings.TrimSpace(m); m != "" {
			out = append(out, m)
		}
	}
	return out
}

var medications = []string{
	"sertraline", "zoloft", "lexapro", "escitalopram", "prozac", "fluoxetine",
	"wellbutrin", "bupropion", "effexor", "venlafaxine", "lamictal", "lamotrigine",
	"abilify", "seroquel", "quetiapine", "adderall", "vyvanse", "xanax", "klonopin",
	"gabapentin", "naltrexone", "suboxone", "buprenorphine", "methadone", "metformin",
	"ozempic", "semaglutide", "wegovy", "lithium", "propranolol", "trazodone", "melatonin",
}

var products = []string{
	"Headspace", "Calm", "BetterHelp", "Talkspace", "Noom", "MyFitnessPal", "Fitbit",
	"Apple Watch", "Peloton", "Whoop", "Oura", "Sober Grid", "I Am Sober", "Daylio",
	"Bearable", "Finch", "Woebot", "Insight Timer", "WeightWatchers",
}

// Abbreviations match case-sensitively so "act" and "ifs" in prose are ignored.
var therapyAbbreviations = []string{"CBT", "DBT", "EMDR", "ACT", "IFS"}

var therapyNames = []string{
	"exposure therapy", "cognitive behavioral therapy", "dialectical behavior therapy",
	"talk therapy", "group therapy", "somatic therapy", "ketamine therapy",
}

func alternation(words []string) string {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	return strings.Join(quoted, "|")
}

// Extractors is the fixed, ordered extractor list. When two extractors find
// the same detail key, the earlier one determines its category.
var Extractors = []Extractor{
	{
		Name:     "person names",
		Category: CategoryName,
		Pattern:  regexp.MustCompile(`\b(?:Dr|Mr|Mrs|Ms|Miss|Prof|Coach|Nurse)\.?\s+[A-Z][a-z]+(?:\s+[A-Z][a-z]+)?`),
	},
	{
		Name:     "clock timestamps",
		Category: CategoryTimestamp,
		Pattern:  regexp.MustCompile(`\b\d{1,2}:\d{2}(?:\s*[AaPp](?:\.[Mm]\.|[Mm]\b))?|\b\d{1,2}\s*[AaPp](?:\.[Mm]\.|[Mm]\b)`),
	},
	{
		Name:     "medication dosages",
		Category: CategoryMedication,
		Pattern:  regexp.MustCompile(`(?i)\b(?:` + alternation(medications) + `)\s+\d+(?:\.\d+)?\s*(?:mg|mcg|g|ml|units?)\b`),
	},
	{
		Name:     "currency amounts",
		Category: CategoryCost,
		Pattern:  regexp.MustCompile(`(?i)\$\s?\d+(?:,\d{3})*(?:\.\d{1,2})?(?:\s*(?:/|per|a|an)\s*(?:session|month|week|year|day|visit|hour|appointment))?`),
	},
	{
		Name:     "product names",
		Category: CategoryProduct,
		Pattern:  regexp.MustCompile(`\b(?:` + alternation(products) + `)\b`),
	},
	{
		Name:     "therapy modalities",
		Category: CategoryOther,
		Pattern:  regexp.MustCompile(`\b(?:` + alternation(therapyAbbreviations) + `)\b|\b(?i:` + alternation(therapyNames) + `)\b`),
	},
}
