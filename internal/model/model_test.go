package model

import "testing"

func TestIsValidCategory(t *testing.T) {
	tests := []struct {
		category string
		valid    bool
	}{
		{"bug_fix", true},
		{"gotcha", true},
		{"implementation", true},
		{"feature", false},
		{"BUG_FIX", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.category, func(t *testing.T) {
			if got := IsValidCategory(tt.category); got != tt.valid {
				t.Errorf("IsValidCategory(%q) = %v, want %v", tt.category, got, tt.valid)
			}
		})
	}
}

func TestParseConfidence(t *testing.T) {
	if got := ParseConfidence("high"); got != ConfidenceHigh {
		t.Errorf("ParseConfidence(high) = %s", got)
	}
	if got := ParseConfidence("certain"); got != ConfidenceMedium {
		t.Errorf("ParseConfidence should default to medium, got %s", got)
	}
	if got := ParseConfidence(""); got != ConfidenceMedium {
		t.Errorf("ParseConfidence(\"\") should default to medium, got %s", got)
	}
}

func TestParseEntityType(t *testing.T) {
	if got := ParseEntityType("pattern"); got != EntityPattern {
		t.Errorf("ParseEntityType(pattern) = %s", got)
	}
	if got := ParseEntityType("framework"); got != EntityTechnology {
		t.Errorf("ParseEntityType should default to technology, got %s", got)
	}
}

func TestIsValidSourceKind(t *testing.T) {
	for _, kind := range []string{"pr", "adr", "doc", "session", "learning"} {
		if !IsValidSourceKind(kind) {
			t.Errorf("expected %q to be a valid source kind", kind)
		}
	}
	if IsValidSourceKind("wiki") {
		t.Error("wiki should not be a valid source kind")
	}
}

func TestNewID(t *testing.T) {
	a, b := NewID(), NewID()
	if a == "" || a == b {
		t.Errorf("NewID should return unique non-empty ids, got %q and %q", a, b)
	}
}
