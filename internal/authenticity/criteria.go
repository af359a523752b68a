package authenticity

import (
	"regexp"
	"strconv"
	"strings"
)

// Verdict is the outcome of one criterion against one text.
type Verdict struct {
	Passed   bool
	Evidence string
}

// Criterion is a named, independently testable authenticity predicate.
// Suggestion is reported when the criterion fails.
type Criterion struct {
	Name       string
	Suggestion string
	Check      func(text string) Verdict
}

// Criterion names, in checklist order.
const (
	SpecificNumbers    = "Specific numbers"
	NamedEntities      = "Named entities"
	AdmitsStruggle     = "Admission of struggle"
	NonLinearProgress  = "Non-linear progress"
	UnglamorousDetails = "Unglamorous details"
	PeerVoice          = "Peer voice"
	PeerDisclaimer     = "Peer disclaimer"
	TimeInvestment     = "Realistic time investment"
	OngoingImperfect   = "Ongoing imperfection"
	CostsAndTradeOffs  = "Specific costs or trade-offs"
)

// Indexes into Criteria used for the core ingredients aggregate.
const (
	idxSpecificNumbers = iota
	idxNamedEntities
	idxAdmitsStruggle
	idxNonLinearProgress
	idxUnglamorousDetails
	idxPeerVoice
	idxPeerDisclaimer
	idxTimeInvestment
	idxOngoingImperfect
	idxCostsAndTradeOffs
)

// MinFirstPersonReferences is the first-person pronoun count a peer voice needs.
const MinFirstPersonReferences = 5

// MinNamedEntities is the number of distinct capitalized multi-word tokens required.
const MinNamedEntities = 2

var (
	specificNumberPatterns = compileAll(
		`\$\s?\d+(?:,\d{3})*(?:\.\d+)?`,
		`(?i)\b\d+(?:\.\d+)?\s*(?:days?|weeks?|months?|years?)\b`,
		`\b\d+(?:\.\d+)?\s?%`,
		`(?i)\b\d+(?:\.\d+)?\s*(?:lbs?|pounds?|kg|kilos?)\b`,
		`(?i)\b(?:week|month|day|year)\s+\d+\b`,
		`(?i)\b\d{1,2}:\d{2}\s*(?:am|pm)?\b`,
		`(?i)\b\d{1,2}\s*(?:am|pm)\b`,
	)

	namedEntityPattern = regexp.MustCompile(`\b(?:(?:Dr|Mr|Mrs|Ms)\.\s+)?[A-Z][a-zA-Z]+(?:\s+[A-Z][a-zA-Z]+)+`)

	strugglePatterns = compileAll(
		`(?i)\b(?:scared|terrified|afraid|ashamed|embarrass(?:ed|ing)|shame|mistakes?|messed up|screwed up|regret(?:ted)?|failed|cried|crying|hated|panick?(?:ed)?|hardest|lonely|hopeless)\b`,
		`(?i)\b(?:relaps(?:e|ed|es|ing)|struggl(?:e|ed|es|ing))\b`,
	)

	nonLinearPatterns = compileAll(
		`(?i)\b(?:plateau(?:ed|s)?|setbacks?|relaps(?:e|ed|es|ing)|slipped|backslid|fell off|two steps back|ups and downs|back to square one)\b`,
		`(?i)\bworse before (?:(?:it|they|things) got )?better\b`,
		`(?i)\b(?:week|month|day|year)\s+\d+\b[^.!?]*\b(?:but|until|then|again)\b`,
	)

	unglamorousPatterns = compileAll(
		`(?i)\b(?:sweat(?:y|ing)?|nause(?:a|ous)|threw up|vomit(?:ed|ing)?|diarrh(?:ea|oea)|bloat(?:ed|ing)|acne|pimples?|smell(?:ed|y)?|snot(?:ty)?|greasy|unshowered|gross)\b`,
		`(?i)\b(?:ugly cr(?:y|ied|ying)|pajamas|couch|cheap|dollar store|generic brand|laundry|dishes|in bed|bathroom|toilet|over the sink|cereal for dinner|awkward|embarrassing)\b`,
	)

	firstPersonPattern  = regexp.MustCompile(`(?i)\b(?:i|me|my|mine|myself)\b`)
	prescriptivePattern = regexp.MustCompile(`(?i)\byou\s+(?:should|must|need to|have to|ought to)\b`)

	disclaimerPatterns = compileAll(
		`(?i)\b(?:worked for me|works for me|what helped me|ymmv|your mileage may vary|just my experience|in my experience|not a doctor|not medical advice)\b`,
		`(?i)\b(?:everyone'?s different|everyone is different|every(?:one|body)'?s (?:body|brain|situation) is different)`,
		`(?i)\b(?:might|may) not work for (?:you|everyone)\b`,
	)

	timeInvestmentPatterns = compileAll(
		`(?i)\b(?:\d+|a few|a couple(?: of)?|several|many)\s+(?:minutes?|hours?|days?|weeks?|months?|years?)\b`,
		`(?i)\b(?:took|takes|taking)\s+(?:me\s+)?(?:a while|time|forever|ages|months|years)\b`,
		`(?i)\b(?:every (?:day|morning|night|evening|week)|daily|consistently)\b`,
	)
	instantOutcomePattern = regexp.MustCompile(`(?i)\b(?:overnight|instantly|instant results|immediately|right away|in no time|like magic|magically)\b`)

	imperfectionPatterns = compileAll(
		`(?i)\bstill (?:working on|struggl\w*|have (?:bad|rough|hard) days|slip\w*|figuring|learning|catch\w*|mess\w* up)`,
		`(?i)\b(?:occasionally|not perfect|far from perfect|some days|bad days|rough days|work in progress|sometimes i)\b`,
	)

	costPatterns = compileAll(
		`\$\s?\d+(?:,\d{3})*(?:\.\d+)?(?:\s*/\s*[a-z]+)?`,
		`(?i)\b\d+\s*(?:dollars|bucks)\b`,
		`(?i)\b(?:free|paid|cost|costs|expensive|afford(?:able)?|insurance|copay|out of pocket)\b`,
		`(?i)\b(?:gave up|give up|giving up|sacrificed?|traded|trade-?off)\b`,
		`(?i)\b(?:wasted|lost)\b[^.!?]*?(?:\$\s?\d+|\b\d+\s*(?:hours?|days?|weeks?|months?|years?|dollars|bucks|lbs?|pounds))`,
	)
)

// Criteria is the fixed, ordered authenticity checklist.
var Criteria = []Criterion{
	{
		Name:       SpecificNumbers,
		Suggestion: "Add a concrete number: a cost, a day or week count, a percentage, a weight or a clock time.",
		Check:      anyMatch(specificNumberPatterns),
	},
	{
		Name:       NamedEntities,
		Suggestion: "Name at least two specific people, places, apps or products.",
		Check:      checkNamedEntities,
	},
	{
		Name:       AdmitsStruggle,
		Suggestion: "Admit something hard: a fear, a mistake, a relapse or a regret.",
		Check:      anyMatch(strugglePatterns),
	},
	{
		Name:       NonLinearProgress,
		Suggestion: "Show that progress was not a straight line: a plateau, a setback or a bad stretch.",
		Check:      anyMatch(nonLinearPatterns),
	},
	{
		Name:       UnglamorousDetails,
		Suggestion: "Include an unglamorous detail: something bodily, cheap, mundane or embarrassing.",
		Check:      anyMatch(unglamorousPatterns),
	},
	{
		Name:       PeerVoice,
		Suggestion: "Write in the first person and describe what you did instead of telling the reader what to do.",
		Check:      checkPeerVoice,
	},
	{
		Name:       PeerDisclaimer,
		Suggestion: "Add a peer disclaimer such as \"this is just what worked for me\".",
		Check:      anyMatch(disclaimerPatterns),
	},
	{
		Name:       TimeInvestment,
		Suggestion: "Say how long it actually took, and avoid overnight or instant results.",
		Check:      checkTimeInvestment,
	},
	{
		Name:       OngoingImperfect,
		Suggestion: "Mention what you are still working on or what still goes wrong occasionally.",
		Check:      anyMatch(imperfectionPatterns),
	},
	{
		Name:       CostsAndTradeOffs,
		Suggestion: "Mention a specific cost or trade-off: money spent, something given up, time wasted.",
		Check:      anyMatch(costPatterns),
	},
}

func compileAll(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = regexp.MustCompile(e)
	}
	return out
}

// firstMatch returns the first match of any pattern, in pattern order.
func firstMatch(patterns []*regexp.Regexp, text string) (string, bool) {
	for _, re := range patterns {
		if m := re.FindString(text); m != "" {
			return strings.TrimSpace(m), true
		}
	}
	return "", false
}

func anyMatch(patterns []*regexp.Regexp) func(string) Verdict {
	return func(text string) Verdict {
		if m, ok := firstMatch(patterns, text); ok {
			return Verdict{Passed: true, Evidence: quote(m)}
		}
		return Verdict{}
	}
}

func checkNamedEntities(text string) Verdict {
	seen := map[string]bool{}
	var found []string
	for _, m := range namedEntityPattern.FindAllString(text, -1) {
		if seen[m] {
			continue
		}
		seen[m] = true
		found = append(found, m)
	}
	if len(found) < MinNamedEntities {
		return Verdict{}
	}
	return Verdict{Passed: true, Evidence: quote(found[0]) + ", " + quote(found[1])}
}

func checkPeerVoice(text string) Verdict {
	count := len(firstPersonPattern.FindAllString(text, -1))
	if m := prescriptivePattern.FindString(text); m != "" {
		return Verdict{Evidence: "prescriptive phrasing " + quote(m)}
	}
	if count < MinFirstPersonReferences {
		return Verdict{}
	}
	return Verdict{Passed: true, Evidence: plural(count, "first-person reference")}
}

func checkTimeInvestment(text string) Verdict {
	if m := instantOutcomePattern.FindString(text); m != "" {
		return Verdict{Evidence: "instant outcome claim " + quote(m)}
	}
	if m, ok := firstMatch(timeInvestmentPatterns, text); ok {
		return Verdict{Passed: true, Evidence: quote(m)}
	}
	return Verdict{}
}

func quote(s string) string {
	return `"` + s + `"`
}

func plural(n int, noun string) string {
	s := strconv.Itoa(n) + " " + noun
	if n != 1 {
		s += "s"
	}
	return s
}
