package authenticity

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

const highAuthenticity = "I started seeing Dr. Maria Chen in March at $150/session, which my insurance didn't cover. " +
	"For the first few weeks I was honestly scared I'd wasted my money. " +
	"I used the Insight Timer app most nights in bed. " +
	"It's been 73 days since my last panic attack, but I still struggle sometimes. " +
	"This is just what worked for me."

const lowAuthenticity = "You should just believe in yourself and stay positive. Things got better recently."

func TestValidate_HighAuthenticity(t *testing.T) {
	check := Validate(highAuthenticity)

	if check.Score < 8 {
		t.Errorf("Score = %d, want >= 8; failed: %+v", check.Score, check.Failed())
	}
	core := check.CoreIngredients
	if !core.EmotionalHonesty || !core.SpecificDetails || !core.TemporalProgression {
		t.Errorf("CoreIngredients = %+v, want all three flags", core)
	}
	if !check.Passed {
		t.Error("expected Passed = true")
	}
	if check.Recommendation != RecommendReady {
		t.Errorf("Recommendation = %q, want %q", check.Recommendation, RecommendReady)
	}
}

func TestValidate_LowAuthenticity(t *testing.T) {
	check := Validate(lowAuthenticity)

	if check.Score > 3 {
		t.Errorf("Score = %d, want <= 3", check.Score)
	}
	if check.Passed {
		t.Error("expected Passed = false")
	}
	if check.Recommendation != RecommendReject {
		t.Errorf("Recommendation = %q, want %q", check.Recommendation, RecommendReject)
	}
}

func TestValidate_ChecklistShape(t *testing.T) {
	check := Validate("anything at all")

	if len(check.Details) != len(Criteria) {
		t.Fatalf("expected %d checklist items, got %d", len(Criteria), len(check.Details))
	}
	want := []string{
		SpecificNumbers, NamedEntities, AdmitsStruggle, NonLinearProgress, UnglamorousDetails,
		PeerVoice, PeerDisclaimer, TimeInvestment, OngoingImperfect, CostsAndTradeOffs,
	}
	var got []string
	for _, item := range check.Details {
		got = append(got, item.Criterion)
		if !item.Passed && item.Suggestion == "" {
			t.Errorf("failed item %q has no suggestion", item.Criterion)
		}
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("criteria order mismatch (-want +got):\n%s", diff)
	}
}

func TestValidate_Invariants(t *testing.T) {
	texts := []string{
		"",
		lowAuthenticity,
		highAuthenticity,
		"Week 3 I relapsed. It was awful, I cried in the bathroom at work.",
		"I lost 12 lbs in 4 months. I still have bad days. YMMV.",
		"My therapist Dr. Ann Lee and my friend Sam Ortiz both helped me. I paid $40 a week, it took months.",
	}

	for _, text := range texts {
		check := Validate(text)
		if check.Score < 0 || check.Score > 10 {
			t.Errorf("%q: score %d out of range", text, check.Score)
		}
		passed := 0
		for _, item := range check.Details {
			if item.Passed {
				passed++
			}
		}
		if passed != check.Score {
			t.Errorf("%q: score %d but %d items passed", text, check.Score, passed)
		}
		core := check.CoreIngredients
		n := 0
		for _, ok := range []bool{core.EmotionalHonesty, core.SpecificDetails, core.TemporalProgression} {
			if ok {
				n++
			}
		}
		if core.Count != n {
			t.Errorf("%q: core count %d, flags %d", text, core.Count, n)
		}
		if core.Passed != (core.Count >= 2) {
			t.Errorf("%q: core passed %v with count %d", text, core.Passed, core.Count)
		}
		if check.Passed != (check.Score >= 7 && core.Passed) {
			t.Errorf("%q: passed %v with score %d core %v", text, check.Passed, check.Score, core.Passed)
		}
	}
}

func TestValidate_Idempotent(t *testing.T) {
	first := Validate(highAuthenticity)
	second := Validate(highAuthenticity)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("Validate is not deterministic (-first +second):\n%s", diff)
	}
}

func TestValidate_CurlyApostrophes(t *testing.T) {
	straight := Validate("This might not work for everyone, but it's what worked for me.")
	curly := Validate("This might not work for everyone, but it’s what worked for me.")

	if straight.Score != curly.Score {
		t.Errorf("curly apostrophes changed score: %d vs %d", straight.Score, curly.Score)
	}
}

func TestRecommend_Tiers(t *testing.T) {
	tests := []struct {
		score int
		core  bool
		want  string
	}{
		{10, true, RecommendReady},
		{7, true, RecommendReady},
		{7, false, RecommendNeedsImprovement},
		{6, true, RecommendNeedsWork},
		{5, false, RecommendNeedsWork},
		{4, true, RecommendReject},
		{0, false, RecommendReject},
	}

	for _, tt := range tests {
		if got := recommend(tt.score, tt.core); got != tt.want {
			t.Errorf("recommend(%d, %v) = %q, want %q", tt.score, tt.core, got, tt.want)
		}
	}
}

func TestMarkers(t *testing.T) {
	check := Validate(highAuthenticity)
	markers := check.Markers()

	if len(markers) != check.Score {
		t.Fatalf("len(Markers) = %d, want %d", len(markers), check.Score)
	}
	if markers[0] != SpecificNumbers {
		t.Errorf("Markers()[0] = %q, want %q", markers[0], SpecificNumbers)
	}
	if got := Validate("").Markers(); got == nil || len(got) != 0 {
		t.Errorf("Markers() for empty text = %#v, want empty non-nil", got)
	}
}
