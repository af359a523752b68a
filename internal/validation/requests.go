package validation

import (
	"fmt"

	"github.com/hyperengineering/voices/internal/types"
)

// ValidateTopic checks a topic entry against the known categories.
// When requireID is false the ID is not checked.
func ValidateTopic(t types.Topic, categories []types.TopicCategory, requireID bool) []ValidationError {
	var c Collector
	validateTopic(&c, "", t, categories, requireID)
	return c.Errors()
}

// ValidateTopics checks every entry of a topic list. Field names carry the
// entry index and duplicate IDs are reported.
func ValidateTopics(topics []types.Topic, categories []types.TopicCategory) []ValidationError {
	var c Collector
	if len(topics) == 0 {
		c.Add(&ValidationError{Field: "topics", Message: "must contain at least one topic"})
	}
	seen := make(map[string]int, len(topics))
	for i, t := range topics {
		prefix := fmt.Sprintf("topics[%d].", i)
		validateTopic(&c, prefix, t, categories, true)
		if first, dup := seen[t.ID]; dup && t.ID != "" {
			c.Add(&ValidationError{
				Field:   prefix + "id",
				Message: fmt.Sprintf("duplicates topics[%d]", first),
			})
		} else {
			seen[t.ID] = i
		}
	}
	return c.Errors()
}

func validateTopic(c *Collector, prefix string, t types.Topic, categories []types.TopicCategory, requireID bool) {
	if requireID {
		c.Add(ValidateTopicID(prefix+"id", t.ID))
	}

	if err := ValidateRequired(prefix+"title", t.Title); err != nil {
		c.Add(err)
	} else {
		ValidateText(c, prefix+"title", t.Title, MaxTitleLength)
	}

	allowed := make([]string, len(categories))
	for i, cat := range categories {
		allowed[i] = string(cat)
	}
	c.Add(ValidateEnum(prefix+"category", string(t.Category), allowed))

	if t.Focus != "" {
		ValidateText(c, prefix+"focus", t.Focus, MaxFocusLength)
	}
	if t.TargetLength != 0 {
		c.Add(ValidateRange(prefix+"targetLength", t.TargetLength, MinTargetLength, MaxTargetLength))
	}
	c.Add(ValidateRange(prefix+"count", t.Count, MinBatchCount, MaxBatchCount))
}

// ValidateContent checks a single post body.
func ValidateContent(field, content string) []ValidationError {
	var c Collector
	if err := ValidateRequired(field, content); err != nil {
		c.Add(err)
		return c.Errors()
	}
	ValidateText(&c, field, content, MaxContentLength)
	return c.Errors()
}

// ValidatePostBatch checks the post bodies submitted for a variety check.
func ValidatePostBatch(field string, posts []string) []ValidationError {
	var c Collector
	if len(posts) > MaxVarietyPosts {
		c.Add(&ValidationError{
			Field:   field,
			Message: fmt.Sprintf("exceeds maximum of %d posts", MaxVarietyPosts),
		})
		return c.Errors()
	}
	for i, p := range posts {
		ValidateText(&c, fmt.Sprintf("%s[%d]", field, i), p, MaxContentLength)
	}
	return c.Errors()
}
