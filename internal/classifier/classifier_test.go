package classifier

import (
	"context"
	"errors"

	"github.com/specialist-gateway/gateway/internal/config"
	"github.com/specialist-gateway/gateway/internal/models"
	"github.com/specialist-gateway/gateway/internal/provider"
	"github.com/specialist-gateway/gateway/internal/specialist"
	"testing"
)

type fakeRouter struct {
	content string
	err     error
}

func (f *fakeRouter) ChatCompletion(ctx context.Context, primary string, fallbacks []string, includeFallbacks bool, req provider.ChatRequest) (string, provider.ChatResponse, error) {
	if f.err != nil {
		return "", provider.ChatResponse{}, f.err
	}
	return primary, provider.ChatResponse{Content: f.content}, nil
}

func testCatalog() *specialist.Catalog {
	return specialist.NewCatalog(map[string]config.SpecialistEntry{
		"general": {Label: "General", Model: "gpt-4o-mini", PromptKey: "specialist_general"},
		"health":  {Label: "Health", Model: "gpt-4o", PromptKey: "specialist_health"},
	})
}

func TestClassifyEmptyUserMessage(t *testing.T) {
	c := New(&fakeRouter{}, testCatalog(), "gpt-4o-mini", 0.0, 120)
	got := c.Classify(context.Background(), "   ")
	if got.Domain != models.DomainGeneral || got.Reason != "empty-user-message" {
		t.Fatalf("got %+v", got)
	}
}

func TestClassifyInvalidSpecialistScenario(t *testing.T) {
	// A confident answer naming a specialist outside the configured catalog
	// must still collapse to general rather than routing to an unknown domain.
	router := &fakeRouter{content: `{"specialist":"finance","confidence":0.9}`}
	c := New(router, testCatalog(), "gpt-4o-mini", 0.0, 120)

	got := c.Classify(context.Background(), "how do I save for retirement?")
	if got.Domain != models.DomainGeneral {
		t.Fatalf("domain = %q, want general", got.Domain)
	}
	if got.Reason != "invalid-specialist" {
		t.Fatalf("reason = %q, want invalid-specialist", got.Reason)
	}
}

func TestClassifyValidDomain(t *testing.T) {
	router := &fakeRouter{content: "```json\n{\"specialist\":\"health\",\"confidence\":0.8,\"reason\":\"symptoms\"}\n```"}
	c := New(router, testCatalog(), "gpt-4o-mini", 0.0, 120)

	got := c.Classify(context.Background(), "my knee hurts")
	if got.Domain != models.DomainHealth {
		t.Fatalf("got %+v", got)
	}
}

func TestClassifyUpstreamErrorFallsBack(t *testing.T) {
	router := &fakeRouter{err: errors.New("connection refused")}
	c := New(router, testCatalog(), "gpt-4o-mini", 0.0, 120)

	got := c.Classify(context.Background(), "hello")
	if got.Domain != models.DomainGeneral {
		t.Fatalf("got %+v", got)
	}
	if got.Reason != "classifier-error:upstream" {
		t.Fatalf("reason = %q", got.Reason)
	}
}

func TestClassifyConfidenceClamped(t *testing.T) {
	router := &fakeRouter{content: `{"specialist":"general","confidence":5.0}`}
	c := New(router, testCatalog(), "gpt-4o-mini", 0.0, 120)

	got := c.Classify(context.Background(), "hi")
	if got.Confidence != 1.0 {
		t.Fatalf("confidence = %v, want clamped to 1.0", got.Confidence)
	}
}
