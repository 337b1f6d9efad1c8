package domain

import "testing"

func TestDeriveRegionCode(t *testing.T) {
	cases := map[string]string{
		"NA-US-West":      "West",
		"NA-US-Northeast": "Northeast",
		"EU":              "EU",
		"":                "",
	}
	for input, want := range cases {
		if got := DeriveRegionCode(input); got != want {
			t.Fatalf("DeriveRegionCode(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestToggleAndonIsIdempotentWhenAppliedTwice(t *testing.T) {
	for _, state := range []string{AndonEnabled, AndonDisabled} {
		if got := ToggleAndon(ToggleAndon(state)); got != state {
			t.Fatalf("toggle twice changed %q into %q", state, got)
		}
	}
	if ToggleAndon(AndonEnabled) != AndonDisabled {
		t.Fatal("expected Enabled to toggle to Disabled")
	}
}
