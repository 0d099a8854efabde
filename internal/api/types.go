package api

import "encoding/json"

// chatMessage is one OpenAI chat message. Role and Content are interpreted
// by the gateway; every other field a client or upstream model attaches to a
// message — tool_call_id, name, tool_calls, refusal, and the like — round
// trips verbatim through Extra instead of being dropped.
type chatMessage struct {
	Role    string
	Content string
	Extra   map[string]json.RawMessage
}

func (m chatMessage) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(m.Extra)+2)
	for k, v := range m.Extra {
		out[k] = v
	}
	role, err := json.Marshal(m.Role)
	if err != nil {
		return nil, err
	}
	out["role"] = role
	content, err := json.Marshal(m.Content)
	if err != nil {
		return nil, err
	}
	out["content"] = content
	return json.Marshal(out)
}

func (m *chatMessage) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if v, ok := raw["role"]; ok {
		if err := json.Unmarshal(v, &m.Role); err != nil {
			return err
		}
		delete(raw, "role")
	}
	if v, ok := raw["content"]; ok {
		if err := json.Unmarshal(v, &m.Content); err != nil {
			return err
		}
		delete(raw, "content")
	}
	m.Extra = raw
	return nil
}

// chatCompletionRequestKnownFields names every top-level field this gateway
// itself interprets; everything else lands in chatCompletionRequest.Extra.
var chatCompletionRequestKnownFields = map[string]bool{
	"model": true, "messages": true, "stream": true, "user": true,
	"temperature": true, "max_tokens": true,
}

// chatCompletionRequest is the OpenAI chat-completions request body. Fields
// the gateway doesn't itself interpret — tools, tool_choice, response_format,
// top_p, and anything else a client sends — are preserved in Extra and
// forwarded to the upstream call untouched, per the standard OpenAI schema
// contract: this gateway routes and observes a request, it doesn't narrow it.
type chatCompletionRequest struct {
	Model       string                     `json:"model"`
	Messages    []chatMessage              `json:"messages" binding:"required"`
	Stream      bool                       `json:"stream"`
	User        string                     `json:"user"`
	Temperature *float64                   `json:"temperature"`
	MaxTokens   *int                       `json:"max_tokens"`
	Extra       map[string]json.RawMessage `json:"-"`
}

func (r *chatCompletionRequest) UnmarshalJSON(data []byte) error {
	type alias chatCompletionRequest
	aux := (*alias)(r)
	if err := json.Unmarshal(data, aux); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	extra := make(map[string]json.RawMessage, len(raw))
	for k, v := range raw {
		if !chatCompletionRequestKnownFields[k] {
			extra[k] = v
		}
	}
	r.Extra = extra
	return nil
}

type chatCompletionChoice struct {
	Index        int         `json:"index"`
	Message      chatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// chatCompletionResponse is the non-streaming OpenAI chat-completions
// response envelope.
type chatCompletionResponse struct {
	ID      string                 `json:"id"`
	Object  string                 `json:"object"`
	Created int64                  `json:"created"`
	Model   string                 `json:"model"`
	Choices []chatCompletionChoice `json:"choices"`
	Usage   usage                  `json:"usage"`
}

type chatCompletionChunkDelta struct {
	Role    string `json:"role,omitempty"`
	Content string `json:"content,omitempty"`
}

type chatCompletionChunkChoice struct {
	Index        int                      `json:"index"`
	Delta        chatCompletionChunkDelta `json:"delta"`
	FinishReason *string                  `json:"finish_reason"`
}

// chatCompletionChunk is one OpenAI-compatible SSE `data:` payload.
type chatCompletionChunk struct {
	ID      string                      `json:"id"`
	Object  string                      `json:"object"`
	Created int64                       `json:"created"`
	Model   string                      `json:"model"`
	Choices []chatCompletionChunkChoice `json:"choices"`
}

type modelEntry struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	OwnedBy string `json:"owned_by"`
}

type modelsResponse struct {
	Object string       `json:"object"`
	Data   []modelEntry `json:"data"`
}

type apiErrorBody struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

type apiErrorEnvelope struct {
	Error apiErrorBody `json:"error"`
}
