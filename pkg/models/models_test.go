package models

import (
	"math"
	"testing"
)

func TestContext_Clone(t *testing.T) {
	orig := Context{"topic": "career_change", "skills": []string{"go"}}

	clone := orig.Clone()
	clone["topic"] = "work_life_balance"
	clone["extra"] = 1

	if orig["topic"] != "career_change" {
		t.Errorf("clone mutated the original: topic = %v", orig["topic"])
	}
	if _, ok := orig["extra"]; ok {
		t.Error("clone mutated the original: extra key present")
	}
}

func TestContext_CloneNil(t *testing.T) {
	var c Context

	clone := c.Clone()
	if clone == nil {
		t.Fatal("expected non-nil clone of nil context")
	}

	// Must be writable.
	clone["k"] = "v"
	if clone["k"] != "v" {
		t.Error("clone of nil context is not writable")
	}
}

func TestContext_String(t *testing.T) {
	c := Context{"topic": "career_change", "count": 3}

	if got := c.String("topic"); got != "career_change" {
		t.Errorf("String(topic) = %q, want career_change", got)
	}
	if got := c.String("count"); got != "" {
		t.Errorf("String(count) = %q, want empty for non-string value", got)
	}
	if got := c.String("missing"); got != "" {
		t.Errorf("String(missing) = %q, want empty", got)
	}

	var nilCtx Context
	if got := nilCtx.String("topic"); got != "" {
		t.Errorf("nil Context String = %q, want empty", got)
	}
}

func TestRecommendation_Valid(t *testing.T) {
	tests := []struct {
		name string
		rec  Recommendation
		want bool
	}{
		{"well-formed", Recommendation{Type: "career_path", Priority: 5}, true},
		{"zero priority", Recommendation{Type: "career_path", Priority: 0}, true},
		{"negative priority", Recommendation{Type: "career_path", Priority: -1}, true},
		{"empty type", Recommendation{Priority: 5}, false},
		{"NaN priority", Recommendation{Type: "x", Priority: math.NaN()}, false},
		{"positive infinity", Recommendation{Type: "x", Priority: math.Inf(1)}, false},
		{"negative infinity", Recommendation{Type: "x", Priority: math.Inf(-1)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rec.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOutcome_Valid(t *testing.T) {
	tests := []struct {
		outcome Outcome
		want    bool
	}{
		{OutcomePending, true},
		{OutcomeSuccess, true},
		{OutcomeFailure, true},
		{Outcome(""), false},
		{Outcome("SUCCESS"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.outcome), func(t *testing.T) {
			if got := tt.outcome.Valid(); got != tt.want {
				t.Errorf("Outcome(%q).Valid() = %v, want %v", tt.outcome, got, tt.want)
			}
		})
	}
}

func TestPattern_Matches(t *testing.T) {
	pat := Pattern{
		Key:                   "topic=career_change",
		RepresentativeContext: Context{"topic": "career_change"},
	}

	tests := []struct {
		name string
		ctx  Context
		want bool
	}{
		{"exact key match", Context{"topic": "career_change"}, true},
		{"extra keys allowed", Context{"topic": "career_change", "industry": "tech"}, true},
		{"different value", Context{"topic": "work_life_balance"}, false},
		{"missing key", Context{"industry": "tech"}, false},
		{"empty context", Context{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := pat.Matches(tt.ctx); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPattern_MatchesUncomparableValues(t *testing.T) {
	pat := Pattern{
		Key: "industry=...",
		RepresentativeContext: Context{
			"industry": map[string]any{"sector": "finance"},
			"skills":   []string{"go"},
		},
	}

	match := Context{
		"industry": map[string]any{"sector": "finance"},
		"skills":   []string{"go"},
	}
	if !pat.Matches(match) {
		t.Error("expected deep-equal map and slice values to match")
	}

	mismatch := Context{
		"industry": map[string]any{"sector": "health"},
		"skills":   []string{"go"},
	}
	if pat.Matches(mismatch) {
		t.Error("expected differing map values not to match")
	}
}

func TestPattern_EmptyRepresentativeNeverMatches(t *testing.T) {
	pat := Pattern{Key: "empty"}

	if pat.Matches(Context{"topic": "career_change"}) {
		t.Error("pattern with empty representative context must not match")
	}
}
