package provider

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type fakeClient struct {
	name       string
	failModels map[string]bool
	lastWire   string
}

func (f *fakeClient) ChatCompletion(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	f.lastWire = req.Model
	if f.failModels[req.Model] {
		return ChatResponse{}, errors.New("boom: " + f.name)
	}
	return ChatResponse{Content: "ok from " + f.name}, nil
}

func (f *fakeClient) Embed(ctx context.Context, req EmbedRequest) (EmbedResponse, error) {
	f.lastWire = req.Model
	if f.failModels[req.Model] {
		return EmbedResponse{}, errors.New("boom: " + f.name)
	}
	return EmbedResponse{Vector: []float32{0.1, 0.2}, Model: req.Model}, nil
}

func TestGeminiRewriteScenario(t *testing.T) {
	// Gemini base URL ends in /openai/, fallbacks empty: the call must use
	// wire model "openai/gemini-2.5-flash" but report used_model
	// "gemini-2.5-flash".
	gemini := &fakeClient{name: "gemini"}
	r := NewRouter(nil, gemini, "https://generativelanguage.googleapis.com/v1beta/openai/")

	usedModel, _, err := r.ChatCompletion(context.Background(), "gemini-2.5-flash", nil, true, ChatRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if usedModel != "gemini-2.5-flash" {
		t.Fatalf("used_model = %q, want original name", usedModel)
	}
	if gemini.lastWire != "openai/gemini-2.5-flash" {
		t.Fatalf("wire model = %q, want rewritten", gemini.lastWire)
	}
}

func TestRewriteIsIdempotent(t *testing.T) {
	gemini := &fakeClient{name: "gemini"}
	r := NewRouter(nil, gemini, "https://x/openai")

	_, _, err := r.ChatCompletion(context.Background(), "openai/gemini-2.5-flash", nil, true, ChatRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gemini.lastWire != "openai/gemini-2.5-flash" {
		t.Fatalf("wire model = %q, expected no double prefix", gemini.lastWire)
	}
}

func TestNonGeminiModelUsesOpenAICredentials(t *testing.T) {
	openai := &fakeClient{name: "openai"}
	r := NewRouter(openai, nil, "https://generativelanguage.googleapis.com/v1beta")

	usedModel, _, err := r.ChatCompletion(context.Background(), "gpt-4o-mini", nil, true, ChatRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if usedModel != "gpt-4o-mini" || openai.lastWire != "gpt-4o-mini" {
		t.Fatalf("got used=%q wire=%q", usedModel, openai.lastWire)
	}
}

func TestFallbackPathScenario(t *testing.T) {
	// First candidate fails, second succeeds.
	openai := &fakeClient{name: "openai", failModels: map[string]bool{"primary-model": true}}
	r := NewRouter(openai, nil, "")

	usedModel, resp, err := r.ChatCompletion(context.Background(), "primary-model", []string{"secondary-model"}, true, ChatRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if usedModel != "secondary-model" {
		t.Fatalf("used_model = %q, want secondary-model", usedModel)
	}
	if !strings.Contains(resp.Content, "ok from openai") {
		t.Fatalf("unexpected content: %q", resp.Content)
	}
}

func TestFallbackDedupPreservesOrder(t *testing.T) {
	got := dedupCandidates("a", []string{"b", "a", "c", "b"}, true)
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestFallbackExcludedWhenDisabled(t *testing.T) {
	got := dedupCandidates("a", []string{"b", "c"}, false)
	if len(got) != 1 || got[0] != "a" {
		t.Fatalf("got %v", got)
	}
}

func TestProviderExhaustedWhenAllCandidatesFail(t *testing.T) {
	openai := &fakeClient{name: "openai", failModels: map[string]bool{"a": true, "b": true}}
	r := NewRouter(openai, nil, "")

	_, _, err := r.ChatCompletion(context.Background(), "a", []string{"b"}, true, ChatRequest{})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "exhausted") {
		t.Fatalf("expected exhaustion error, got %v", err)
	}
}

func TestNoCandidatesWhenPrimaryEmpty(t *testing.T) {
	r := NewRouter(nil, nil, "")
	_, _, err := r.ChatCompletion(context.Background(), "", nil, true, ChatRequest{})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestEmbedRejectsEmptyInput(t *testing.T) {
	openai := &fakeClient{name: "openai"}
	r := NewRouter(openai, nil, "")
	_, _, err := r.Embed(context.Background(), "text-embedding-3-small", nil, true, "")
	if err == nil {
		t.Fatal("expected InvalidInput error for empty embedding text")
	}
}
