package textnorm

import "testing"

func TestNormalizeDomain(t *testing.T) {
	cases := map[string]string{
		"Personal-Development": "personal_development",
		"  Health  ":            "health",
		"foo--bar!!baz":         "foo_bar_baz",
	}
	for in, want := range cases {
		if got := NormalizeDomain(in); got != want {
			t.Errorf("NormalizeDomain(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizeSummary(t *testing.T) {
	got := NormalizeSummary("Interested in Tennis-Elbow   rehabilitation!!")
	want := "interested in tenniselbow rehabilitation"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestNormalizeSummaryDeterministic(t *testing.T) {
	a := NormalizeSummary("Tennis elbow rehab")
	b := NormalizeSummary("  tennis   elbow REHAB ")
	if a != b {
		t.Fatalf("expected case and whitespace variants to normalize identically: %q vs %q", a, b)
	}
	c := NormalizeSummary("Tennis elbow rehab")
	if a != c {
		t.Fatalf("expected identical input to normalize identically")
	}
}
