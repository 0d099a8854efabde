package jsonextract

import "testing"

func TestExtractFencedBlock(t *testing.T) {
	text := "Here you go:\n```json\n{\"domain\":\"health\"}\n```\nthanks"
	got := Extract(text)
	if got != `{"domain":"health"}` {
		t.Fatalf("got %q", got)
	}
}

func TestExtractBareBraces(t *testing.T) {
	text := "sure, the answer is {\"domain\":\"general\"} okay?"
	got := Extract(text)
	if got != `{"domain":"general"}` {
		t.Fatalf("got %q", got)
	}
}

func TestExtractNoJSON(t *testing.T) {
	if got := Extract("not json at all"); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
}

func TestExtractEmpty(t *testing.T) {
	if got := Extract("   "); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
}
