package authenticity

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCheckDestroyers_VagueTimeOnly(t *testing.T) {
	got := CheckDestroyers("We moved apartments recently.")

	if diff := cmp.Diff([]string{VagueTime}, got.Found); diff != "" {
		t.Errorf("Found mismatch (-want +got):\n%s", diff)
	}
	if got.Severity != SeverityMajor {
		t.Errorf("Severity = %v, want major", got.Severity)
	}
}

func TestCheckDestroyers_LowAuthenticity(t *testing.T) {
	got := CheckDestroyers(lowAuthenticity)

	want := []string{VagueTime, Cliches, ExpertVoice}
	if diff := cmp.Diff(want, got.Found); diff != "" {
		t.Errorf("Found mismatch (-want +got):\n%s", diff)
	}
	if got.Severity != SeverityMajor {
		t.Errorf("Severity = %v, want major", got.Severity)
	}
}

func TestCheckDestroyers_SeverityIsMaximum(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Severity
	}{
		{"clean", highAuthenticity, SeverityNone},
		{"minor only", "Everybody told me it would work.", SeverityMinor},
		{"expert voice", "The key is consistency.", SeverityMinor},
		{"minor and major", "It was life-changing and I always feel great.", SeverityMajor},
		{"perfect outcome", "I'm completely cured.", SeverityMajor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CheckDestroyers(tt.text)
			if got.Severity != tt.want {
				t.Errorf("Severity = %v, want %v (found %v)", got.Severity, tt.want, got.Found)
			}
			if tt.want == SeverityNone && len(got.Found) != 0 {
				t.Errorf("Found = %v, want none", got.Found)
			}
		})
	}
}

func TestCheckDestroyers_EmptyFoundIsNotNil(t *testing.T) {
	got := CheckDestroyers("")
	if got.Found == nil {
		t.Error("Found is nil, want empty slice")
	}
	data, err := json.Marshal(got)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"found":[],"severity":"none"}` {
		t.Errorf("json = %s", data)
	}
}

func TestSeverity_JSON(t *testing.T) {
	for _, s := range []Severity{SeverityNone, SeverityMinor, SeverityMajor} {
		data, err := json.Marshal(s)
		if err != nil {
			t.Fatal(err)
		}
		var back Severity
		if err := json.Unmarshal(data, &back); err != nil {
			t.Fatal(err)
		}
		if back != s {
			t.Errorf("round trip %v -> %s -> %v", s, data, back)
		}
	}

	var s Severity
	if err := json.Unmarshal([]byte(`"catastrophic"`), &s); err == nil {
		t.Error("expected error for unknown severity")
	}
}

func TestAssess_Accepts(t *testing.T) {
	if !Assess(highAuthenticity).Accepts() {
		t.Error("high authenticity text should be accepted")
	}
	if Assess(lowAuthenticity).Accepts() {
		t.Error("low authenticity text should not be accepted")
	}

	// A passing checklist is still rejected by a major destroyer.
	a := Assess(highAuthenticity + " Lately I feel better.")
	if !a.Check.Passed {
		t.Fatalf("fixture should still pass the checklist, score %d", a.Check.Score)
	}
	if a.Accepts() {
		t.Error("major destroyer should block acceptance")
	}
}
