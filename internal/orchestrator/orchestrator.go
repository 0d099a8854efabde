// Package orchestrator assembles the per-turn system prompt, calls the
// Provider Router with the chosen specialist's model, updates the Sticky
// Session Store, and records a Turn.
package orchestrator

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/specialist-gateway/gateway/internal/classifier"
	"github.com/specialist-gateway/gateway/internal/gwerrors"
	"github.com/specialist-gateway/gateway/internal/models"
	"github.com/specialist-gateway/gateway/internal/promptregistry"
	"github.com/specialist-gateway/gateway/internal/provider"
	"github.com/specialist-gateway/gateway/internal/specialist"
	"github.com/specialist-gateway/gateway/internal/stickysession"
)

// Router is the subset of the Provider Router the orchestrator needs — a
// fallback-aware chat call.
type Router interface {
	ChatCompletion(ctx context.Context, primary string, fallbacks []string, includeFallbacks bool, req provider.ChatRequest) (string, provider.ChatResponse, error)
}

// TurnRecorder persists a completed Turn. Implemented by the state
// subsystem; when the state subsystem is disabled, a no-op recorder is used.
type TurnRecorder interface {
	RecordTurn(ctx context.Context, turn models.Turn) error
}

// Orchestrator is the per-request coordination point between the
// classifier, the prompt registry, the provider router, and sticky sessions.
type Orchestrator struct {
	classifier *classifier.Classifier
	catalog    *specialist.Catalog
	prompts    *promptregistry.Registry
	sessions   *stickysession.Store
	router     Router
	turns      TurnRecorder
}

// New constructs an Orchestrator. turns may be a no-op recorder if the state
// subsystem is disabled.
func New(c *classifier.Classifier, catalog *specialist.Catalog, prompts *promptregistry.Registry, sessions *stickysession.Store, router Router, turns TurnRecorder) *Orchestrator {
	return &Orchestrator{classifier: c, catalog: catalog, prompts: prompts, sessions: sessions, router: router, turns: turns}
}

// Request is one inbound chat-completions call, already stripped of
// transport concerns by the HTTP surface.
type Request struct {
	UserID             string
	SessionKey         string
	Messages           []provider.Message
	RequestFingerprint string
	Stream             bool
	Temperature        *float64
	MaxTokens          *int
	// Extra carries every top-level chat-completions field the orchestrator
	// itself has no opinion on (tools, tool_choice, response_format, top_p,
	// ...) straight through to the Provider Router.
	Extra map[string]json.RawMessage
}

// Reply is the orchestrator's result: the upstream response plus the domain
// it was routed to, for the caller to log or use in diagnostics.
type Reply struct {
	Domain    models.Domain
	UsedModel string
	Response  provider.ChatResponse
	TurnID    string
	Turn      models.Turn
}

// Handle runs one non-streaming turn: classify, compose, call, record,
// remember. For streaming turns use Route followed by FinalizeTurn once the
// caller has accumulated the full assistant text off the response's Stream
// channel — the upstream client leaves ChatResponse.Content empty for a
// streaming call, so there is nothing to record until the stream drains.
func (o *Orchestrator) Handle(ctx context.Context, req Request) (Reply, error) {
	reply, userText, err := o.Route(ctx, req)
	if err != nil {
		return Reply{}, err
	}
	turn := o.FinalizeTurn(ctx, req, reply, userText, reply.Response.Content)
	reply.TurnID = turn.TurnID
	reply.Turn = turn
	return reply, nil
}

// Route performs classification, prompt composition, and the provider call,
// remembering the routed domain in the Sticky Session Store. It returns the
// raw response (Content empty and Stream non-nil for a streaming call) along
// with the user text the caller will need to pass to FinalizeTurn.
func (o *Orchestrator) Route(ctx context.Context, req Request) (reply Reply, userText string, err error) {
	userText = lastUserMessage(req.Messages)

	result := o.classifier.Classify(ctx, userText)
	entry, ok := o.catalog.Get(result.Domain)
	if !ok {
		// Closure invariant failure would mean a misconfigured catalog; fall
		// back to whatever "general" resolves to rather than erroring the turn.
		entry, _ = o.catalog.Get(models.DomainGeneral)
	}

	systemPrompt := o.prompts.Get("orchestrator") + "\n\n" + o.prompts.Get(entry.PromptKey)
	messages := append([]provider.Message{{Role: "system", Content: systemPrompt}}, req.Messages...)

	usedModel, resp, callErr := o.router.ChatCompletion(ctx, entry.Model, entry.Fallbacks, true, provider.ChatRequest{
		Messages:    messages,
		Stream:      req.Stream,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Extra:       req.Extra,
	})
	if callErr != nil {
		return Reply{}, userText, gwerrors.Wrap(gwerrors.ErrProviderExhausted, "orchestrator call for domain %q: %v", entry.Domain, callErr)
	}

	o.sessions.Remember(req.SessionKey, entry.Domain)

	return Reply{Domain: entry.Domain, UsedModel: usedModel, Response: resp}, userText, nil
}

// FinalizeTurn records the completed Turn once the full assistant text is
// known (immediately for non-streaming calls, after stream accumulation for
// streaming ones) and returns it for the State Pipeline Coordinator.
func (o *Orchestrator) FinalizeTurn(ctx context.Context, req Request, reply Reply, userText, assistantText string) models.Turn {
	turn := models.Turn{
		TurnID:             uuid.NewString(),
		UserID:             req.UserID,
		SessionKey:         req.SessionKey,
		RoutedDomain:       reply.Domain,
		UserText:           userText,
		AssistantText:      assistantText,
		UsedModel:          reply.UsedModel,
		RequestFingerprint: req.RequestFingerprint,
		CreatedAt:          time.Now(),
	}
	if err := o.turns.RecordTurn(ctx, turn); err != nil {
		// Recording the turn feeds the state pipeline's idempotency keys,
		// but a persistence hiccup must never fail the chat response itself.
		slog.Warn("failed to record turn", "turn_id", turn.TurnID, "error", err)
	}
	return turn
}

func lastUserMessage(messages []provider.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" {
			return messages[i].Content
		}
	}
	return ""
}
