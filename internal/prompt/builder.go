// Package prompt renders generation instructions for a single pattern or a
// blended pair of patterns.
package prompt

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/hyperengineering/voices/internal/catalog"
	"github.com/hyperengineering/voices/internal/types"
)

//go:embed post_prompt.md
var postPrompt string

var postTemplate = template.Must(template.New("post").Funcs(template.FuncMap{
	"inc":  func(i int) int { return i + 1 },
	"join": strings.Join,
}).Parse(postPrompt))

type promptData struct {
	Topic    string
	Category types.TopicCategory
	Focus    string
	Patterns []catalog.PatternSpec
	Blended  bool
	Strategy string
	MinWords int
	MaxWords int
}

// Builder renders prompts from catalog templates.
type Builder struct {
	Catalog *catalog.Catalog
}

// NewBuilder returns a Builder over c.
func NewBuilder(c *catalog.Catalog) *Builder {
	return &Builder{Catalog: c}
}

// Single renders the prompt for one pattern.
func (b *Builder) Single(p types.PatternType, in types.GenerationIngredients) (string, error) {
	spec, err := b.Catalog.Pattern(p)
	if err != nil {
		return "", err
	}
	return render(promptData{
		Topic:    in.TopicTitle,
		Category: in.TopicCategory,
		Focus:    in.FocusContext,
		Patterns: []catalog.PatternSpec{spec},
		MinWords: spec.MinWords,
		MaxWords: spec.MaxWords,
	}, in.TargetLength)
}

// Blended renders the prompt for a post that satisfies both patterns. The
// length range spans both templates.
func (b *Builder) Blended(x, y types.PatternType, in types.GenerationIngredients) (string, error) {
	if x == y {
		return "", fmt.Errorf("blend needs two different patterns, got %q twice", x)
	}
	first, err := b.Catalog.Pattern(x)
	if err != nil {
		return "", err
	}
	second, err := b.Catalog.Pattern(y)
	if err != nil {
		return "", err
	}
	return render(promptData{
		Topic:    in.TopicTitle,
		Category: in.TopicCategory,
		Focus:    in.FocusContext,
		Patterns: []catalog.PatternSpec{first, second},
		Blended:  true,
		Strategy: b.Catalog.Blend(x, y),
		MinWords: min(first.MinWords, second.MinWords),
		MaxWords: max(first.MaxWords, second.MaxWords),
	}, in.TargetLength)
}

// Build renders the prompt for one or two patterns.
func (b *Builder) Build(patterns []types.PatternType, in types.GenerationIngredients) (string, error) {
	switch len(patterns) {
	case 1:
		return b.Single(patterns[0], in)
	case 2:
		return b.Blended(patterns[0], patterns[1], in)
	default:
		return "", fmt.Errorf("a post takes one or two patterns, got %d", len(patterns))
	}
}

// render applies a target length override, if any, as a ±20% band.
func render(data promptData, targetLength int) (string, error) {
	if targetLength > 0 {
		data.MinWords = targetLength * 4 / 5
		data.MaxWords = targetLength * 6 / 5
	}

	var buf bytes.Buffer
	if err := postTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return buf.String(), nil
}
