package types

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// PatternType is one of the five narrative structures a post can follow.
type PatternType string

const (
	PatternTimelineReality  PatternType = "timeline-reality"
	PatternMindsetShift     PatternType = "mindset-shift"
	PatternLessonsLearned   PatternType = "lessons-learned"
	PatternJourneyNarrative PatternType = "journey-narrative"
	PatternPracticalTips    PatternType = "practical-tips"
)

// AllPatterns lists every pattern in catalog order.
var AllPatterns = []PatternType{
	PatternTimelineReality,
	PatternMindsetShift,
	PatternLessonsLearned,
	PatternJourneyNarrative,
	PatternPracticalTips,
}

// Valid reports whether p is a known pattern.
func (p PatternType) Valid() bool {
	for _, known := range AllPatterns {
		if p == known {
			return true
		}
	}
	return false
}

// ParsePattern converts a string into a PatternType.
func ParsePattern(s string) (PatternType, error) {
	p := PatternType(strings.TrimSpace(s))
	if !p.Valid() {
		return "", fmt.Errorf("unknown pattern %q", s)
	}
	return p, nil
}

// UnmarshalJSON rejects unknown pattern names.
func (p *PatternType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParsePattern(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// TopicCategory selects the pattern weights and ordering for a topic.
type TopicCategory string

const (
	CategoryMentalHealth      TopicCategory = "mental-health"
	CategoryAddictionRecovery TopicCategory = "addiction-recovery"
	CategoryChronicIllness    TopicCategory = "chronic-illness"
	CategoryFitness           TopicCategory = "fitness"
	CategoryLifeTransition    TopicCategory = "life-transition"
)

// AllCategories lists the built-in topic categories.
var AllCategories = []TopicCategory{
	CategoryMentalHealth,
	CategoryAddictionRecovery,
	CategoryChronicIllness,
	CategoryFitness,
	CategoryLifeTransition,
}

// GenerationIngredients carries the topic inputs for a single generation call.
type GenerationIngredients struct {
	TopicTitle    string        `json:"topicTitle"`
	TopicCategory TopicCategory `json:"topicCategory"`
	FocusContext  string        `json:"focusContext,omitempty"`
	TargetLength  int           `json:"targetLength,omitempty"`
}

// Topic is one entry of a topic list file, or the body of a batch request
// with the ID taken from the URL.
type Topic struct {
	ID           string        `json:"id,omitempty" yaml:"id"`
	Title        string        `json:"title" yaml:"title"`
	Category     TopicCategory `json:"category" yaml:"category"`
	Focus        string        `json:"focus,omitempty" yaml:"focus"`
	TargetLength int           `json:"targetLength,omitempty" yaml:"target_length"`
	Count        int           `json:"count" yaml:"count"`
}

// Ingredients returns the generation inputs for the topic.
func (t Topic) Ingredients() GenerationIngredients {
	return GenerationIngredients{
		TopicTitle:    t.Title,
		TopicCategory: t.Category,
		FocusContext:  t.Focus,
		TargetLength:  t.TargetLength,
	}
}

// PostMetadata describes how a post was produced and what it passed.
type PostMetadata struct {
	PatternsUsed        []string `json:"patternsUsed"`
	WordCount           int      `json:"wordCount"`
	AuthenticityMarkers []string `json:"authenticityMarkers"`
}

// GeneratedPost is an accepted or best-fallback candidate.
// It is the record shape of the interchange format.
type GeneratedPost struct {
	Content  string        `json:"content"`
	Patterns []PatternType `json:"patterns"`
	Metadata PostMetadata  `json:"metadata"`
}

// NewGeneratedPost builds a post, deriving PatternsUsed and WordCount.
func NewGeneratedPost(content string, patterns []PatternType, markers []string) GeneratedPost {
	used := make([]string, len(patterns))
	for i, p := range patterns {
		used[i] = string(p)
	}
	if markers == nil {
		markers = []string{}
	}
	return GeneratedPost{
		Content:  content,
		Patterns: append([]PatternType(nil), patterns...),
		Metadata: PostMetadata{
			PatternsUsed:        used,
			WordCount:           WordCount(content),
			AuthenticityMarkers: markers,
		},
	}
}

// WordCount returns the number of whitespace-separated words in s.
func WordCount(s string) int {
	return len(strings.Fields(s))
}

// MarshalJSON ensures nil slices in PostMetadata marshal as [] not null.
func (m PostMetadata) MarshalJSON() ([]byte, error) {
	if m.PatternsUsed == nil {
		m.PatternsUsed = []string{}
	}
	if m.AuthenticityMarkers == nil {
		m.AuthenticityMarkers = []string{}
	}
	type Alias PostMetadata
	return json.Marshal(Alias(m))
}

// PatternQuota is the number of posts a batch must produce for one pattern.
type PatternQuota struct {
	Pattern PatternType `json:"pattern"`
	Count   int         `json:"count"`
}

// StoredPost is a persisted post record.
type StoredPost struct {
	ID                  string    `json:"id"`
	TopicID             string    `json:"topicId"`
	BatchID             string    `json:"batchId"`
	Position            int       `json:"position"`
	Content             string    `json:"content"`
	PatternsUsed        []string  `json:"patternsUsed"`
	WordCount           int       `json:"wordCount"`
	AuthenticityMarkers []string  `json:"authenticityMarkers"`
	Author              string    `json:"author"`
	Synthetic           bool      `json:"synthetic"`
	Likes               int       `json:"likes"`
	Replies             int       `json:"replies"`
	Views               int       `json:"views"`
	GeneratedAt         time.Time `json:"generatedAt"`
}

// Post converts a stored record back into the interchange shape.
func (s StoredPost) Post() GeneratedPost {
	patterns := make([]PatternType, 0, len(s.PatternsUsed))
	for _, name := range s.PatternsUsed {
		patterns = append(patterns, PatternType(name))
	}
	return GeneratedPost{
		Content:  s.Content,
		Patterns: patterns,
		Metadata: PostMetadata{
			PatternsUsed:        s.PatternsUsed,
			WordCount:           s.WordCount,
			AuthenticityMarkers: s.AuthenticityMarkers,
		},
	}
}

// MarshalJSON ensures nil slices in StoredPost marshal as [] not null.
func (s StoredPost) MarshalJSON() ([]byte, error) {
	if s.PatternsUsed == nil {
		s.PatternsUsed = []string{}
	}
	if s.AuthenticityMarkers == nil {
		s.AuthenticityMarkers = []string{}
	}
	type Alias StoredPost
	return json.Marshal(Alias(s))
}

// TopicCounts holds per-topic record counts.
type TopicCounts struct {
	TopicID   string `json:"topicId"`
	Total     int64  `json:"total"`
	Synthetic int64  `json:"synthetic"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Generator string `json:"generator"`
}
