package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/specialist-gateway/gateway/internal/gwerrors"
)

// GeminiClient calls the native generativelanguage.googleapis.com REST API
// directly over net/http, deliberately avoiding the heavyweight
// google.golang.org/genai SDK in favor of a small hand-rolled REST client for
// this one credential family. It does not implement tool-calling passthrough:
// Gemini's function-calling schema is shaped differently from OpenAI's
// tools/tool_choice, so ChatRequest.Extra is ignored here rather than merged
// onto a request shape it doesn't match.
type GeminiClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewGeminiClient builds a client bound to one API key and base URL. Used
// only when the configured Gemini base URL does NOT contain "/openai" — the
// OpenAI-compatible shim path is served by OpenAIClient instead; that choice
// is made in buildProviderRouter (cmd/gatewayd/serve_cmd.go).
func NewGeminiClient(apiKey, baseURL string, timeout time.Duration) *GeminiClient {
	return &GeminiClient{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenerateRequest struct {
	Contents         []geminiContent        `json:"contents"`
	SystemInstruction *geminiContent        `json:"systemInstruction,omitempty"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiGenerationConfig struct {
	Temperature     *float64 `json:"temperature,omitempty"`
	MaxOutputTokens *int     `json:"maxOutputTokens,omitempty"`
}

type geminiGenerateResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
}

func (c *GeminiClient) ChatCompletion(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	stripModel := NormalizeGeminiModel(req.Model)

	var contents []geminiContent
	var system *geminiContent
	for _, m := range req.Messages {
		if m.Role == "system" {
			s := geminiContent{Parts: []geminiPart{{Text: m.Content}}}
			system = &s
			continue
		}
		role := "user"
		if m.Role == "assistant" {
			role = "model"
		}
		contents = append(contents, geminiContent{Role: role, Parts: []geminiPart{{Text: m.Content}}})
	}

	genReq := geminiGenerateRequest{Contents: contents, SystemInstruction: system}
	if req.Temperature != nil || req.MaxTokens != nil {
		genReq.GenerationConfig = &geminiGenerationConfig{Temperature: req.Temperature, MaxOutputTokens: req.MaxTokens}
	}

	verb := "generateContent"
	if req.Stream {
		verb = "streamGenerateContent"
	}
	url := fmt.Sprintf("%s/models/%s:%s?key=%s", c.baseURL, stripModel, verb, c.apiKey)

	body, err := json.Marshal(genReq)
	if err != nil {
		return ChatResponse{}, gwerrors.Wrap(gwerrors.ErrMalformedUpstreamResponse, "encoding gemini request: %v", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return ChatResponse{}, gwerrors.Wrap(gwerrors.ErrMalformedUpstreamResponse, "building gemini request: %v", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return ChatResponse{}, gwerrors.Wrap(gwerrors.ErrMalformedUpstreamResponse, "gemini request failed: %v", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return ChatResponse{}, gwerrors.Wrap(gwerrors.ErrMalformedUpstreamResponse, "reading gemini response: %v", err)
	}
	if httpResp.StatusCode >= 400 {
		return ChatResponse{}, gwerrors.Wrap(gwerrors.ErrMalformedUpstreamResponse, "gemini returned HTTP %d: %s", httpResp.StatusCode, string(respBody))
	}

	if req.Stream {
		return c.parseStreamingBody(respBody)
	}

	var parsed geminiGenerateResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return ChatResponse{}, gwerrors.Wrap(gwerrors.ErrMalformedUpstreamResponse, "decoding gemini response: %v", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return ChatResponse{}, gwerrors.Wrap(gwerrors.ErrMalformedUpstreamResponse, "gemini response had no candidates")
	}

	return ChatResponse{
		Content:          parsed.Candidates[0].Content.Parts[0].Text,
		FinishReason:     parsed.Candidates[0].FinishReason,
		PromptTokens:     parsed.UsageMetadata.PromptTokenCount,
		CompletionTokens: parsed.UsageMetadata.CandidatesTokenCount,
		TotalTokens:      parsed.UsageMetadata.TotalTokenCount,
	}, nil
}

// parseStreamingBody handles the non-SSE, JSON-array streaming shape Gemini
// returns from streamGenerateContent?alt=sse is not used here; the plain
// array endpoint is simpler to parse tolerantly and sufficient for the
// channel-based contract the router expects.
func (c *GeminiClient) parseStreamingBody(body []byte) (ChatResponse, error) {
	var chunks []geminiGenerateResponse
	if err := json.Unmarshal(body, &chunks); err != nil {
		return ChatResponse{}, gwerrors.Wrap(gwerrors.ErrMalformedUpstreamResponse, "decoding gemini stream: %v", err)
	}

	ch := make(chan StreamChunk, len(chunks)+1)
	for _, chunk := range chunks {
		if len(chunk.Candidates) == 0 || len(chunk.Candidates[0].Content.Parts) == 0 {
			continue
		}
		ch <- StreamChunk{ContentDelta: chunk.Candidates[0].Content.Parts[0].Text}
	}
	ch <- StreamChunk{Done: true}
	close(ch)

	return ChatResponse{Stream: ch}, nil
}

func (c *GeminiClient) Embed(ctx context.Context, req EmbedRequest) (EmbedResponse, error) {
	stripModel := NormalizeGeminiModel(req.Model)
	url := fmt.Sprintf("%s/models/%s:embedContent?key=%s", c.baseURL, stripModel, c.apiKey)

	payload := map[string]any{
		"content": geminiContent{Parts: []geminiPart{{Text: req.InputText}}},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return EmbedResponse{}, gwerrors.Wrap(gwerrors.ErrMalformedUpstreamResponse, "encoding gemini embed request: %v", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return EmbedResponse{}, gwerrors.Wrap(gwerrors.ErrMalformedUpstreamResponse, "building gemini embed request: %v", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return EmbedResponse{}, gwerrors.Wrap(gwerrors.ErrMalformedUpstreamResponse, "gemini embed request failed: %v", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return EmbedResponse{}, gwerrors.Wrap(gwerrors.ErrMalformedUpstreamResponse, "reading gemini embed response: %v", err)
	}
	if httpResp.StatusCode >= 400 {
		return EmbedResponse{}, gwerrors.Wrap(gwerrors.ErrMalformedUpstreamResponse, "gemini embed returned HTTP %d: %s", httpResp.StatusCode, string(respBody))
	}

	var parsed struct {
		Embedding struct {
			Values []float32 `json:"values"`
		} `json:"embedding"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return EmbedResponse{}, gwerrors.Wrap(gwerrors.ErrMalformedUpstreamResponse, "decoding gemini embed response: %v", err)
	}
	if len(parsed.Embedding.Values) == 0 {
		return EmbedResponse{}, gwerrors.Wrap(gwerrors.ErrMalformedUpstreamResponse, "gemini embed response had an empty vector")
	}

	return EmbedResponse{Vector: parsed.Embedding.Values, Model: req.Model}, nil
}

// NormalizeGeminiModel strips "models/", "gemini/", "openai/" and "google/" prefixes
// so the wire call always addresses the bare upstream model id, regardless
// of how the router-level name was rewritten.
func NormalizeGeminiModel(name string) string {
	for _, prefix := range []string{"models/", "gemini/", "openai/", "google/"} {
		if strings.HasPrefix(strings.ToLower(name), prefix) {
			name = name[len(prefix):]
		}
	}
	return name
}
