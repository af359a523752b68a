package authenticity

import (
	"encoding/json"
	"fmt"
	"regexp"
)

// Severity ranks how strongly a destroyer marks text as inauthentic.
type Severity int

const (
	SeverityNone Severity = iota
	SeverityMinor
	SeverityMajor
)

var severityNames = map[Severity]string{
	SeverityNone:  "none",
	SeverityMinor: "minor",
	SeverityMajor: "major",
}

func (s Severity) String() string {
	if name, ok := severityNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Severity(%d)", int(s))
}

// MarshalJSON encodes the severity by name.
func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a severity name.
func (s *Severity) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for sev, n := range severityNames {
		if n == name {
			*s = sev
			return nil
		}
	}
	return fmt.Errorf("unknown severity %q", name)
}

// Destroyer family names.
const (
	VagueTime       = "Vague time references"
	PerfectOutcomes = "Perfect outcomes"
	Cliches         = "Motivational clichés"
	ExpertVoice     = "Expert voice"
	AbsoluteWording = "Absolute statements"
)

// Destroyer is a fixed anti-pattern phrase family.
type Destroyer struct {
	Name     string
	Severity Severity
	Pattern  *regexp.Regexp
}

// DestroyerMatch records one family found in a text and the first phrase that matched it.
type DestroyerMatch struct {
	Name     string   `json:"name"`
	Severity Severity `json:"severity"`
	Match    string   `json:"match"`
}

// DestroyerResult lists the families found and the highest severity among them.
type DestroyerResult struct {
	Found    []string         `json:"found"`
	Severity Severity         `json:"severity"`
	Details  []DestroyerMatch `json:"details,omitempty"`
}

// Destroyers is the fixed, ordered list of anti-pattern families.
var Destroyers = []Destroyer{
	{
		Name:     VagueTime,
		Severity: SeverityMajor,
		Pattern:  regexp.MustCompile(`(?i)\b(?:recently|lately|a while (?:ago|back)|some time ago|at some point|eventually|one day|before long|these days)\b`),
	},
	{
		Name:     PerfectOutcomes,
		Severity: SeverityMajor,
		Pattern:  regexp.MustCompile(`(?i)\b(?:completely (?:cured|healed|fixed|gone|better)|never looked back|100\s?% (?:better|cured|healed)|perfect(?:ly)? (?:now|ever since)|life-changing|changed my life|all my problems|no more (?:anxiety|pain|cravings)|totally transformed)`),
	},
	{
		Name:     Cliches,
		Severity: SeverityMajor,
		Pattern:  regexp.MustCompile(`(?i)\b(?:believe in yourself|stay positive|you(?:'ve| have) got this|everything happens for a reason|never give up|don't give up|keep pushing|it gets better|trust the process|one day at a time|you are (?:stronger|enough|worth it)|be kind to yourself|self-care is key)\b`),
	},
	{
		Name:     ExpertVoice,
		Severity: SeverityMinor,
		Pattern:  regexp.MustCompile(`(?i)\b(?:you (?:should|must|need to|have to|ought to)|the key is|the secret is|experts (?:say|agree|recommend)|studies show|it(?:'s| is) important to)\b`),
	},
	{
		Name:     AbsoluteWording,
		Severity: SeverityMinor,
		Pattern:  regexp.MustCompile(`(?i)\b(?:always|never|everyone|everybody|nobody|guaranteed|definitely)\b|\b100\s?%`),
	},
}

// CheckDestroyers scans text for every destroyer family.
func CheckDestroyers(text string) DestroyerResult {
	text = normalize(text)

	result := DestroyerResult{Found: []string{}}
	for _, d := range Destroyers {
		m := d.Pattern.FindString(text)
		if m == "" {
			continue
		}
		result.Found = append(result.Found, d.Name)
		result.Details = append(result.Details, DestroyerMatch{Name: d.Name, Severity: d.Severity, Match: m})
		if d.Severity > result.Severity {
			result.Severity = d.Severity
		}
	}
	return result
}

// Assessment pairs the checklist result with the destroyer scan for one text.
type Assessment struct {
	Check      AuthenticityCheck `json:"check"`
	Destroyers DestroyerResult   `json:"destroyers"`
}

// Assess runs both the checklist and the destroyer scan.
func Assess(text string) Assessment {
	return Assessment{Check: Validate(text), Destroyers: CheckDestroyers(text)}
}

// Accepts reports whether the text passes the checklist without a major destroyer.
func (a Assessment) Accepts() bool {
	return a.Check.Passed && a.Destroyers.Severity != SeverityMajor
}
