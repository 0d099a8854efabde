package provider

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/specialist-gateway/gateway/internal/gwerrors"
)

// Router applies the model-name routing policy and fallback chain. It holds
// exactly two credential-bound clients — never more — selecting between them
// per call by inspecting the candidate model name.
type Router struct {
	openAI          Client
	gemini          Client
	geminiBaseURL   string // used only to decide whether the /openai rewrite applies
}

// NewRouter constructs a Router. Either client may be nil if that credential
// family is not configured; a call that resolves to a nil client fails with
// ProviderExhausted for that candidate, same as any other upstream error.
func NewRouter(openAI, gemini Client, geminiBaseURL string) *Router {
	return &Router{openAI: openAI, gemini: gemini, geminiBaseURL: geminiBaseURL}
}

// isGeminiModel reports whether name addresses the Gemini credential family,
// case-insensitively: names starting with "gemini" or "openai/gemini".
func isGeminiModel(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasPrefix(lower, "gemini") || strings.HasPrefix(lower, "openai/gemini")
}

// resolveCandidate returns the client to call and the model name to send on
// the wire for one candidate, implementing the rewrite rule: a Gemini model
// is sent as "openai/<model>" when the configured Gemini base URL contains
// "/openai" and the name isn't already prefixed (the rewrite is idempotent).
func (r *Router) resolveCandidate(name string) (client Client, wireModel string) {
	if !isGeminiModel(name) {
		return r.openAI, name
	}
	client = r.gemini
	wireModel = name
	if strings.Contains(r.geminiBaseURL, "/openai") && !strings.HasPrefix(strings.ToLower(name), "openai/") {
		wireModel = "openai/" + name
	}
	return client, wireModel
}

// dedupCandidates returns the order-preserving, duplicate-free candidate
// list the fallback loop iterates over.
func dedupCandidates(primary string, fallbacks []string, includeFallbacks bool) []string {
	all := []string{primary}
	if includeFallbacks {
		all = append(all, fallbacks...)
	}
	seen := make(map[string]struct{}, len(all))
	out := make([]string, 0, len(all))
	for _, c := range all {
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

// ChatCompletion tries each deduplicated candidate in order. On success it
// returns immediately reporting usedModel as the original (non-rewritten)
// candidate name. On exhaustion it returns ProviderExhausted carrying the
// last error; on an empty candidate list it returns NoCandidates.
func (r *Router) ChatCompletion(ctx context.Context, primary string, fallbacks []string, includeFallbacks bool, req ChatRequest) (usedModel string, resp ChatResponse, err error) {
	candidates := dedupCandidates(primary, fallbacks, includeFallbacks)
	if len(candidates) == 0 {
		return "", ChatResponse{}, gwerrors.ErrNoCandidates
	}

	var lastErr error
	for _, candidate := range candidates {
		client, wireModel := r.resolveCandidate(candidate)
		if client == nil {
			lastErr = gwerrors.Wrap(gwerrors.ErrProviderExhausted, "no client configured for model %q", candidate)
			slog.Warn("provider candidate has no configured client", "model", candidate)
			continue
		}

		callReq := req
		callReq.Model = wireModel
		out, callErr := client.ChatCompletion(ctx, callReq)
		if callErr != nil {
			lastErr = callErr
			slog.Warn("provider candidate failed, trying next", "model", candidate, "wire_model", wireModel, "error", callErr)
			continue
		}
		return candidate, out, nil
	}

	if lastErr == nil {
		lastErr = errors.New("all candidates failed with no recorded error")
	}
	return "", ChatResponse{}, gwerrors.Wrap(gwerrors.ErrProviderExhausted, "all %d candidate(s) failed: %v", len(candidates), lastErr)
}

// Embed is the embedding variant of the same candidate/fallback shape,
// input_text instead of messages.
func (r *Router) Embed(ctx context.Context, primary string, fallbacks []string, includeFallbacks bool, inputText string) (usedModel string, resp EmbedResponse, err error) {
	if strings.TrimSpace(inputText) == "" {
		return "", EmbedResponse{}, gwerrors.Wrap(gwerrors.ErrInvalidRequest, "embedding input_text must not be empty")
	}

	candidates := dedupCandidates(primary, fallbacks, includeFallbacks)
	if len(candidates) == 0 {
		return "", EmbedResponse{}, gwerrors.ErrNoCandidates
	}

	var lastErr error
	for _, candidate := range candidates {
		client, wireModel := r.resolveCandidate(candidate)
		if client == nil {
			lastErr = gwerrors.Wrap(gwerrors.ErrProviderExhausted, "no client configured for model %q", candidate)
			continue
		}
		out, callErr := client.Embed(ctx, EmbedRequest{Model: wireModel, InputText: inputText})
		if callErr != nil {
			lastErr = callErr
			slog.Warn("embedding candidate failed, trying next", "model", candidate, "error", callErr)
			continue
		}
		if len(out.Vector) == 0 {
			lastErr = gwerrors.Wrap(gwerrors.ErrMalformedUpstreamResponse, "embedding response for model %q had an empty vector", candidate)
			continue
		}
		return candidate, out, nil
	}

	if lastErr == nil {
		lastErr = errors.New("all candidates failed with no recorded error")
	}
	return "", EmbedResponse{}, gwerrors.Wrap(gwerrors.ErrProviderExhausted, "all %d embedding candidate(s) failed: %v", len(candidates), lastErr)
}
