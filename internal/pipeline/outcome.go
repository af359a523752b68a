package pipeline

import (
	"encoding/json"
	"fmt"

	"github.com/hyperengineering/voices/internal/authenticity"
	"github.com/hyperengineering/voices/internal/types"
)

// Kind tags how a slot finished.
type Kind int

const (
	// KindExhausted means no attempt produced scoreable text.
	KindExhausted Kind = iota
	// KindFallback means no attempt was accepted and the best-scoring one is returned.
	KindFallback
	// KindAccepted means an attempt passed the checklist without a major destroyer.
	KindAccepted
)

func (k Kind) String() string {
	switch k {
	case KindAccepted:
		return "accepted"
	case KindFallback:
		return "fallback"
	case KindExhausted:
		return "exhausted"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// MarshalJSON encodes the kind by name.
func (k Kind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// Outcome is the result of one slot. Post, Check and Destroyers are set for
// KindAccepted and KindFallback; Err is set only for KindExhausted.
type Outcome struct {
	Kind       Kind
	Post       types.GeneratedPost
	Check      authenticity.AuthenticityCheck
	Destroyers authenticity.DestroyerResult
	Attempts   int
	Err        error
}

// HasPost reports whether the outcome carries a post.
func (o Outcome) HasPost() bool {
	return o.Kind == KindAccepted || o.Kind == KindFallback
}

// attempt is one generation call and, when it succeeded, its assessment.
type attempt struct {
	number     int
	text       string
	assessment authenticity.Assessment
	err        error
}

// fold folds one attempt into the running outcome. Before the loop ends the
// outcome is either Exhausted (nothing scored yet) or Fallback (holding the
// best attempt so far); an accepted attempt ends the fold.
func fold(acc Outcome, a attempt, patterns []types.PatternType) (Outcome, bool) {
	acc.Attempts = a.number
	if a.err != nil {
		acc.Err = a.err
		return acc, false
	}

	scored := Outcome{
		Post:       types.NewGeneratedPost(a.text, patterns, a.assessment.Check.Markers()),
		Check:      a.assessment.Check,
		Destroyers: a.assessment.Destroyers,
		Attempts:   a.number,
	}
	if a.assessment.Accepts() {
		scored.Kind = KindAccepted
		return scored, true
	}
	if acc.Kind == KindExhausted || a.assessment.Check.Score > acc.Check.Score {
		scored.Kind = KindFallback
		return scored, false
	}
	return acc, false
}
