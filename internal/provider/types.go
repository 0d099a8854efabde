// Package provider implements credential selection, model-name rewriting,
// the deduplicated fallback chain, and the embedding variant for chat
// completions. Concrete transport is split across two Client
// implementations — an OpenAI-compatible HTTP client (openai_client.go) and
// a native Gemini REST client (gemini_client.go).
package provider

import (
	"context"
	"encoding/json"
)

// Message is one entry of the chat-completions message array. Extra carries
// any field beyond role/content a client attached to the message — tool_call_id
// on a tool reply, name, prior tool_calls in history — so a concrete Client can
// forward it onto the wire instead of silently narrowing the conversation.
type Message struct {
	Role    string
	Content string
	Extra   map[string]json.RawMessage
}

// ChatRequest is what the router asks a concrete Client to execute for one
// candidate model. Extra holds every top-level request field this gateway
// doesn't itself interpret — tools, tool_choice, response_format, top_p, and
// the rest of the OpenAI chat-completions surface — merged directly onto the
// outgoing wire body by a Client that supports it.
type ChatRequest struct {
	Model       string
	Messages    []Message
	Stream      bool
	Temperature *float64
	MaxTokens   *int
	Extra       map[string]json.RawMessage
}

// ChatResponse is the normalized result of a chat completion call. Duck-typed
// upstream responses collapse to this single record at the router boundary —
// downstream code never inspects provider-shaped objects.
type ChatResponse struct {
	Content          string
	FinishReason     string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	// MessageExtra carries every field of the upstream assistant message
	// besides role/content — most notably tool_calls — so a client that sent
	// tools gets a usable response back instead of a stripped-down one.
	MessageExtra map[string]json.RawMessage
	// Stream, when non-nil, is the lazy sequence of content deltas for a
	// streaming call. Per-chunk errors surface at iteration time and never
	// trigger fallback (fallback is request-admission only).
	Stream <-chan StreamChunk
}

// StreamChunk is one delta of a streaming chat completion.
type StreamChunk struct {
	ContentDelta string
	Done         bool
	Err          error
}

// EmbedRequest asks a concrete Client to embed input text.
type EmbedRequest struct {
	Model     string
	InputText string
}

// EmbedResponse is the normalized embedding result.
type EmbedResponse struct {
	Vector []float32
	Model  string
}

// Client is the capability a concrete upstream transport provides. Both the
// OpenAI-compatible client and the native Gemini client implement it
// identically so the router's fallback and rewrite logic is transport-agnostic.
type Client interface {
	ChatCompletion(ctx context.Context, req ChatRequest) (ChatResponse, error)
	Embed(ctx context.Context, req EmbedRequest) (EmbedResponse, error)
}
