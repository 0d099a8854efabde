package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/specialist-gateway/gateway/internal/gwerrors"
)

// OpenAIClient calls the OpenAI chat-completions and embeddings APIs, and
// any OpenAI-compatible endpoint (including a Gemini "/openai" compatibility
// shim, once the router has rewritten the model name).
type OpenAIClient struct {
	client openai.Client
}

// NewOpenAIClient builds a client bound to one set of credentials. baseURL
// may be empty to use the default OpenAI endpoint, or may point at a
// Gemini-compatible shim per the router's rewrite rule.
func NewOpenAIClient(apiKey, baseURL string) *OpenAIClient {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAIClient{client: openai.NewClient(opts...)}
}

func (c *OpenAIClient) ChatCompletion(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages))
	for _, m := range req.Messages {
		switch m.Role {
		case "system":
			messages = append(messages, openai.SystemMessage(m.Content))
		case "assistant":
			messages = append(messages, openai.AssistantMessage(m.Content))
		case "tool":
			messages = append(messages, openai.ToolMessage(m.Content, toolCallID(m.Extra)))
		default:
			messages = append(messages, openai.UserMessage(m.Content))
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:    req.Model,
		Messages: messages,
	}
	if req.Temperature != nil {
		params.Temperature = openai.Float(*req.Temperature)
	}
	if req.MaxTokens != nil {
		params.MaxCompletionTokens = openai.Int(int64(*req.MaxTokens))
	}

	opts := passthroughOptions(req)

	if req.Stream {
		return c.streamChatCompletion(ctx, params, opts...)
	}

	resp, err := c.client.Chat.Completions.New(ctx, params, opts...)
	if err != nil {
		return ChatResponse{}, gwerrors.Wrap(gwerrors.ErrMalformedUpstreamResponse, "openai chat completion: %v", err)
	}
	if len(resp.Choices) == 0 {
		return ChatResponse{}, gwerrors.Wrap(gwerrors.ErrMalformedUpstreamResponse, "openai chat completion returned no choices")
	}

	choice := resp.Choices[0]
	return ChatResponse{
		Content:          choice.Message.Content,
		FinishReason:     string(choice.FinishReason),
		PromptTokens:     int(resp.Usage.PromptTokens),
		CompletionTokens: int(resp.Usage.CompletionTokens),
		TotalTokens:      int(resp.Usage.TotalTokens),
		MessageExtra:     messageExtra(choice.Message),
	}, nil
}

// toolCallID pulls tool_call_id back out of a tool message's Extra so a
// reply to a prior tool_calls entry lines up with the call it answers.
func toolCallID(extra map[string]json.RawMessage) string {
	raw, ok := extra["tool_call_id"]
	if !ok {
		return ""
	}
	var id string
	_ = json.Unmarshal(raw, &id)
	return id
}

// messageExtra captures every field of the upstream assistant message beyond
// role/content — tool_calls above all — without hardcoding its shape, so a
// caller that sent tools gets tool_calls back instead of a narrowed reply.
func messageExtra(msg openai.ChatCompletionMessage) map[string]json.RawMessage {
	b, err := json.Marshal(msg)
	if err != nil {
		return nil
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil
	}
	delete(raw, "role")
	delete(raw, "content")
	if len(raw) == 0 {
		return nil
	}
	return raw
}

// passthroughOptions merges req.Extra's top-level keys (tools, tool_choice,
// response_format, top_p, ...) into the outgoing request body. The
// openai-go params type only exposes the fields this gateway already knows
// about, so anything else has to be merged onto the wire body directly
// rather than set through a typed field.
func passthroughOptions(req ChatRequest) []option.RequestOption {
	if len(req.Extra) == 0 {
		return nil
	}
	extra := req.Extra
	middleware := func(httpReq *http.Request, next option.MiddlewareNext) (*http.Response, error) {
		if httpReq.Body == nil {
			return next(httpReq)
		}
		body, err := io.ReadAll(httpReq.Body)
		httpReq.Body.Close()
		if err != nil {
			return nil, err
		}
		var merged map[string]json.RawMessage
		if err := json.Unmarshal(body, &merged); err != nil {
			httpReq.Body = io.NopCloser(bytes.NewReader(body))
			return next(httpReq)
		}
		for k, v := range extra {
			merged[k] = v
		}
		out, err := json.Marshal(merged)
		if err != nil {
			httpReq.Body = io.NopCloser(bytes.NewReader(body))
			return next(httpReq)
		}
		httpReq.Body = io.NopCloser(bytes.NewReader(out))
		httpReq.ContentLength = int64(len(out))
		return next(httpReq)
	}
	return []option.RequestOption{option.WithMiddleware(middleware)}
}

// streamChatCompletion returns as soon as the upstream accepts the request;
// per-chunk errors surface on the channel at iteration time and never
// trigger fallback — fallback only ever applies at request admission.
func (c *OpenAIClient) streamChatCompletion(ctx context.Context, params openai.ChatCompletionNewParams, opts ...option.RequestOption) (ChatResponse, error) {
	stream := c.client.Chat.Completions.NewStreaming(ctx, params, opts...)

	ch := make(chan StreamChunk)
	go func() {
		defer close(ch)
		for stream.Next() {
			chunk := stream.Current()
			if len(chunk.Choices) == 0 {
				continue
			}
			delta := chunk.Choices[0].Delta.Content
			if delta != "" {
				ch <- StreamChunk{ContentDelta: delta}
			}
		}
		if err := stream.Err(); err != nil {
			ch <- StreamChunk{Err: err}
			return
		}
		ch <- StreamChunk{Done: true}
	}()

	return ChatResponse{Stream: ch}, nil
}

func (c *OpenAIClient) Embed(ctx context.Context, req EmbedRequest) (EmbedResponse, error) {
	resp, err := c.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: req.Model,
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: []string{req.InputText}},
	})
	if err != nil {
		return EmbedResponse{}, gwerrors.Wrap(gwerrors.ErrMalformedUpstreamResponse, "openai embedding: %v", err)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return EmbedResponse{}, gwerrors.Wrap(gwerrors.ErrMalformedUpstreamResponse, "openai embedding response had an empty vector")
	}

	vec := make([]float32, len(resp.Data[0].Embedding))
	for i, v := range resp.Data[0].Embedding {
		vec[i] = float32(v)
	}
	return EmbedResponse{Vector: vec, Model: req.Model}, nil
}
