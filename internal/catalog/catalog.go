// Package catalog holds the pattern catalog: the five narrative pattern
// templates, the per-category weight tables used for quota allocation and the
// blending strategies used for two-pattern posts.
//
// A Catalog is validated once when it is built or loaded; consumers can rely on
// every category plan having non-negative weights that sum to 1.0 (within
// WeightTolerance) and non-empty primary pattern lists.
package catalog

import (
	"errors"
	"fmt"
	"math"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/hyperengineering/voices/internal/types"
)

// WeightTolerance is the allowed deviation of a weight table sum from 1.0.
const WeightTolerance = 0.01

// DefaultBlendStrategy is used when a pattern pair has no configured strategy.
const DefaultBlendStrategy = "natural blending with smooth transitions"

var (
	// ErrUnknownCategory indicates a topic category with no plan in the catalog.
	ErrUnknownCategory = errors.New("unknown topic category")
	// ErrUnknownPattern indicates a pattern with no template in the catalog.
	ErrUnknownPattern = errors.New("unknown pattern")
	// ErrInvalidCatalog indicates a catalog that failed validation.
	ErrInvalidCatalog = errors.New("invalid catalog")
)

// PatternSpec is the structural template for one pattern.
type PatternSpec struct {
	Type             types.PatternType `yaml:"type"`
	Name             string            `yaml:"name"`
	Description      string            `yaml:"description"`
	MinWords         int               `yaml:"min_words"`
	MaxWords         int               `yaml:"max_words"`
	Sections         []string          `yaml:"sections"`
	RequiredElements []string          `yaml:"required_elements"`
	ExamplePhrases   []string          `yaml:"example_phrases"`
}

// CategoryPlan is the allocation table and pattern ordering for one category.
type CategoryPlan struct {
	Weights   map[types.PatternType]float64 `yaml:"weights"`
	Primary   []types.PatternType           `yaml:"primary"`
	Secondary []types.PatternType           `yaml:"secondary,omitempty"`
}

// BlendStrategy describes how two patterns are merged into one post.
type BlendStrategy struct {
	Patterns [2]types.PatternType `yaml:"patterns"`
	Strategy string               `yaml:"strategy"`
}

// Catalog is the validated pattern catalog.
type Catalog struct {
	Patterns   []PatternSpec                        `yaml:"patterns"`
	Categories map[types.TopicCategory]CategoryPlan `yaml:"categories"`
	Blends     []BlendStrategy                      `yaml:"blends"`
}

// New validates c and returns it.
func New(c Catalog) (*Catalog, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// LoadFile reads a YAML catalog from path and validates it.
// Sections missing from the file fall back to the built-in catalog.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog file: %w", err)
	}

	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing catalog file: %w", err)
	}

	def := Default()
	if len(c.Patterns) == 0 {
		c.Patterns = def.Patterns
	}
	if len(c.Categories) == 0 {
		c.Categories = def.Categories
	}
	if c.Blends == nil {
		c.Blends = def.Blends
	}
	return New(c)
}

// Validate checks the catalog invariants.
func (c *Catalog) Validate() error {
	if len(c.Patterns) != len(types.AllPatterns) {
		return fmt.Errorf("%w: expected %d pattern templates, got %d",
			ErrInvalidCatalog, len(types.AllPatterns), len(c.Patterns))
	}
	seen := make(map[types.PatternType]bool, len(c.Patterns))
	for i, p := range c.Patterns {
		if p.Type != types.AllPatterns[i] {
			return fmt.Errorf("%w: pattern %d is %q, want %q",
				ErrInvalidCatalog, i, p.Type, types.AllPatterns[i])
		}
		if seen[p.Type] {
			return fmt.Errorf("%w: duplicate pattern %q", ErrInvalidCatalog, p.Type)
		}
		seen[p.Type] = true
		if p.MinWords <= 0 || p.MaxWords < p.MinWords {
			return fmt.Errorf("%w: pattern %q has invalid length range %d-%d",
				ErrInvalidCatalog, p.Type, p.MinWords, p.MaxWords)
		}
		if len(p.Sections) == 0 {
			return fmt.Errorf("%w: pattern %q has no sections", ErrInvalidCatalog, p.Type)
		}
	}

	if len(c.Categories) == 0 {
		return fmt.Errorf("%w: no category plans", ErrInvalidCatalog)
	}
	for category, plan := range c.Categories {
		if err := plan.validate(); err != nil {
			return fmt.Errorf("%w: category %q: %v", ErrInvalidCatalog, category, err)
		}
	}

	for _, b := range c.Blends {
		if !b.Patterns[0].Valid() || !b.Patterns[1].Valid() {
			return fmt.Errorf("%w: blend %v references unknown pattern", ErrInvalidCatalog, b.Patterns)
		}
		if b.Patterns[0] == b.Patterns[1] {
			return fmt.Errorf("%w: blend %v pairs a pattern with itself", ErrInvalidCatalog, b.Patterns)
		}
		if b.Strategy == "" {
			return fmt.Errorf("%w: blend %v has no strategy", ErrInvalidCatalog, b.Patterns)
		}
	}
	return nil
}

func (p CategoryPlan) validate() error {
	var sum float64
	for _, pattern := range types.AllPatterns {
		w, ok := p.Weights[pattern]
		if !ok {
			return fmt.Errorf("missing weight for %q", pattern)
		}
		if w < 0 || math.IsNaN(w) {
			return fmt.Errorf("negative weight %v for %q", w, pattern)
		}
		sum += w
	}
	for pattern := range p.Weights {
		if !pattern.Valid() {
			return fmt.Errorf("weight for unknown pattern %q", pattern)
		}
	}
	if math.Abs(sum-1.0) > WeightTolerance {
		return fmt.Errorf("weights sum to %.3f, want 1.0", sum)
	}
	if len(p.Primary) == 0 {
		return errors.New("empty primary pattern list")
	}
	for _, pattern := range append(append([]types.PatternType{}, p.Primary...), p.Secondary...) {
		if !pattern.Valid() {
			return fmt.Errorf("unknown pattern %q in pattern list", pattern)
		}
	}
	return nil
}

// Pattern returns the template for a pattern.
func (c *Catalog) Pattern(p types.PatternType) (PatternSpec, error) {
	for _, spec := range c.Patterns {
		if spec.Type == p {
			return spec, nil
		}
	}
	return PatternSpec{}, fmt.Errorf("%w: %q", ErrUnknownPattern, p)
}

// Plan returns the plan for a topic category.
func (c *Catalog) Plan(category types.TopicCategory) (CategoryPlan, error) {
	plan, ok := c.Categories[category]
	if !ok {
		return CategoryPlan{}, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	return plan, nil
}

// CategoryNames returns the configured category names in sorted order.
func (c *Catalog) CategoryNames() []types.TopicCategory {
	names := make([]types.TopicCategory, 0, len(c.Categories))
	for name := range c.Categories {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// Blend returns the strategy for a pattern pair, independent of order.
func (c *Catalog) Blend(a, b types.PatternType) string {
	key := pairKey(a, b)
	for _, blend := range c.Blends {
		if pairKey(blend.Patterns[0], blend.Patterns[1]) == key {
			return blend.Strategy
		}
	}
	return DefaultBlendStrategy
}

func pairKey(a, b types.PatternType) string {
	if b < a {
		a, b = b, a
	}
	return string(a) + "+" + string(b)
}
