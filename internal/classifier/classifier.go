// Package classifier implements the specialist classifier: it asks a
// model to pick one domain for the latest user message, tolerating bad JSON
// and collapsing every failure mode to a "general" fallback so the chat path
// never breaks on a routing decision.
package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/specialist-gateway/gateway/internal/jsonextract"
	"github.com/specialist-gateway/gateway/internal/models"
	"github.com/specialist-gateway/gateway/internal/provider"
	"github.com/specialist-gateway/gateway/internal/specialist"
)

// Result is the classifier's routing decision, always a member of the
// catalog — an unrecognized or malformed upstream answer collapses to the
// general domain rather than ever returning something the catalog doesn't
// know.
type Result struct {
	Domain           models.Domain
	Confidence       float64
	Reason           string
	ClassifierModel  string
}

// Router is the subset of the Provider Router the classifier needs — a
// no-fallback, non-streaming chat call.
type Router interface {
	ChatCompletion(ctx context.Context, primary string, fallbacks []string, includeFallbacks bool, req provider.ChatRequest) (string, provider.ChatResponse, error)
}

// Classifier picks a specialist domain for one user message.
type Classifier struct {
	router      Router
	catalog     *specialist.Catalog
	model       string
	temperature float64
	maxTokens   int
}

// New constructs a Classifier bound to the given catalog and model
// configuration. Callers typically pin temperature=0.0, a small max_tokens
// (~120), stream=false, and no fallbacks — routing decisions should be cheap
// and deterministic.
func New(router Router, catalog *specialist.Catalog, model string, temperature float64, maxTokens int) *Classifier {
	return &Classifier{router: router, catalog: catalog, model: model, temperature: temperature, maxTokens: maxTokens}
}

type classifierPayload struct {
	Specialist string  `json:"specialist"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

// Classify returns the routed domain for userText. It never returns an
// error: any failure collapses to models.DomainGeneral with a diagnostic
// reason string, since a routing hiccup must never fail the chat turn.
func (c *Classifier) Classify(ctx context.Context, userText string) Result {
	if strings.TrimSpace(userText) == "" {
		return Result{Domain: models.DomainGeneral, Reason: "empty-user-message"}
	}

	systemPrompt := c.buildSystemPrompt()
	temp := c.temperature
	maxTok := c.maxTokens

	_, resp, err := c.router.ChatCompletion(ctx, c.model, nil, false, provider.ChatRequest{
		Messages: []provider.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userText},
		},
		Temperature: &temp,
		MaxTokens:   &maxTok,
		Stream:      false,
	})
	if err != nil {
		return Result{Domain: models.DomainGeneral, Reason: fmt.Sprintf("classifier-error:%s", classifyErrorKind(err))}
	}

	candidate := jsonextract.Extract(resp.Content)
	if candidate == "" {
		return Result{Domain: models.DomainGeneral, Reason: "classifier-error:no-json"}
	}

	var payload classifierPayload
	if err := json.Unmarshal([]byte(candidate), &payload); err != nil {
		return Result{Domain: models.DomainGeneral, Reason: fmt.Sprintf("classifier-error:%s", classifyErrorKind(err))}
	}

	domain := c.catalog.Normalize(payload.Specialist)
	reason := payload.Reason
	requestedGeneral := strings.ToLower(strings.TrimSpace(payload.Specialist)) == "general"
	if payload.Specialist != "" && domain == models.DomainGeneral && !requestedGeneral {
		reason = "invalid-specialist"
	}

	return Result{
		Domain:          domain,
		Confidence:      clamp01(payload.Confidence),
		Reason:          reason,
		ClassifierModel: c.model,
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// classifyErrorKind reduces an error to a short, stable tag for the
// "classifier-error:<kind>" reason string.
func classifyErrorKind(err error) string {
	switch err.(type) {
	case *json.SyntaxError, *json.UnmarshalTypeError:
		return "bad-json"
	default:
		return "upstream"
	}
}

func (c *Classifier) buildSystemPrompt() string {
	var b strings.Builder
	b.WriteString("You are a routing classifier. Given the user's latest message, pick exactly one ")
	b.WriteString("specialist domain from this list and respond with a single JSON object ")
	b.WriteString(`{"specialist": "<domain>", "confidence": <0..1>, "reason": "<short reason>"}` + " and nothing else.\n\n")
	for _, entry := range c.catalog.All() {
		fmt.Fprintf(&b, "- %s: %s\n", entry.Domain, entry.RoutingHint)
	}
	return b.String()
}
