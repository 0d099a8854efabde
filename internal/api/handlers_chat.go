package api

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/specialist-gateway/gateway/internal/gwerrors"
	"github.com/specialist-gateway/gateway/internal/models"
	"github.com/specialist-gateway/gateway/internal/orchestrator"
	"github.com/specialist-gateway/gateway/internal/provider"
)

const completionObject = "chat.completion"
const chunkObject = "chat.completion.chunk"

// handleChatCompletions implements POST /v1/chat/completions. It enforces
// the public-model-id contract, routes the turn through the Orchestrator,
// and either buffers or streams the reply, appending the optional
// state-pipeline footer once the turn has been recorded.
func (s *Server) handleChatCompletions(c *gin.Context) {
	var body chatCompletionRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, http.StatusBadRequest, gwerrors.ErrInvalidRequest, "invalid chat completion request: "+err.Error())
		return
	}

	if !s.modelAllowed(body.Model) {
		writeError(c, http.StatusBadRequest, gwerrors.ErrInvalidRequest,
			fmt.Sprintf("model %q is not served by this gateway", body.Model))
		return
	}

	messages := make([]provider.Message, len(body.Messages))
	for i, m := range body.Messages {
		messages[i] = provider.Message{Role: m.Role, Content: m.Content, Extra: m.Extra}
	}

	req := orchestrator.Request{
		UserID:             userID(body.User),
		SessionKey:         sessionKey(c, body.User),
		Messages:           messages,
		RequestFingerprint: requestFingerprint(body),
		Stream:             body.Stream,
		Temperature:        body.Temperature,
		MaxTokens:          body.MaxTokens,
		Extra:              body.Extra,
	}

	id := "chatcmpl-" + uuid.NewString()
	created := time.Now().Unix()

	if body.Stream {
		s.streamChatCompletion(c, req, id, created)
		return
	}

	reply, err := s.orchestrator.Handle(c.Request.Context(), req)
	if err != nil {
		writeError(c, gwerrors.HTTPStatus(err), err, err.Error())
		return
	}

	footer := s.runStatePipeline(c, reply.Turn)
	content := reply.Response.Content + footer

	c.JSON(http.StatusOK, chatCompletionResponse{
		ID:      id,
		Object:  completionObject,
		Created: created,
		Model:   s.publicModelID(),
		Choices: []chatCompletionChoice{{
			Index:        0,
			Message:      chatMessage{Role: "assistant", Content: content, Extra: reply.Response.MessageExtra},
			FinishReason: reply.Response.FinishReason,
		}},
		Usage: usage{
			PromptTokens:     reply.Response.PromptTokens,
			CompletionTokens: reply.Response.CompletionTokens,
			TotalTokens:      reply.Response.TotalTokens,
		},
	})
}

func (s *Server) streamChatCompletion(c *gin.Context, req orchestrator.Request, id string, created int64) {
	reply, userText, err := s.orchestrator.Route(c.Request.Context(), req)
	if err != nil {
		writeError(c, gwerrors.HTTPStatus(err), err, err.Error())
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		writeError(c, http.StatusInternalServerError, gwerrors.ErrPersistence, "streaming not supported by this transport")
		return
	}

	var accumulated strings.Builder
	writeChunk := func(delta string, finishReason *string) {
		chunk := chatCompletionChunk{
			ID:      id,
			Object:  chunkObject,
			Created: created,
			Model:   s.publicModelID(),
			Choices: []chatCompletionChunkChoice{{
				Index:        0,
				Delta:        chatCompletionChunkDelta{Content: delta},
				FinishReason: finishReason,
			}},
		}
		writeSSE(c.Writer, chunk)
		flusher.Flush()
	}

	finish := stringPtr("stop")
	if reply.Response.Stream != nil {
		for part := range reply.Response.Stream {
			if part.Err != nil {
				finish = stringPtr("error")
				break
			}
			if part.ContentDelta != "" {
				accumulated.WriteString(part.ContentDelta)
				writeChunk(part.ContentDelta, nil)
			}
			if part.Done {
				break
			}
		}
	} else {
		accumulated.WriteString(reply.Response.Content)
		writeChunk(reply.Response.Content, nil)
	}

	turn := s.orchestrator.FinalizeTurn(c.Request.Context(), req, reply, userText, accumulated.String())
	footer := s.runStatePipeline(c, turn)
	if footer != "" {
		writeChunk(footer, nil)
	}

	writeChunk("", finish)
	fmt.Fprint(c.Writer, "data: [DONE]\n\n")
	flusher.Flush()
}

func (s *Server) handleListModels(c *gin.Context) {
	c.JSON(http.StatusOK, modelsResponse{
		Object: "list",
		Data: []modelEntry{{
			ID:      s.publicModelID(),
			Object:  "model",
			OwnedBy: "specialist-gateway",
		}},
	})
}

func (s *Server) publicModelID() string {
	return s.cfg.Server.PublicModelID
}

func (s *Server) modelAllowed(requested string) bool {
	if requested == "" || requested == s.publicModelID() {
		return true
	}
	return s.cfg.Server.AllowProviderModelPassthrough
}

func userID(user string) string {
	if user == "" {
		return "anonymous"
	}
	return user
}

func sessionKey(c *gin.Context, user string) string {
	if key := c.GetHeader("X-Session-Key"); key != "" {
		return key
	}
	return userID(user)
}

func requestFingerprint(body chatCompletionRequest) string {
	h := sha256.New()
	for _, m := range body.Messages {
		h.Write([]byte(m.Role))
		h.Write([]byte{0})
		h.Write([]byte(m.Content))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func stringPtr(s string) *string { return &s }

// writeSSE writes one OpenAI-compatible `data: <json>\n\n` frame.
func writeSSE(w http.ResponseWriter, payload any) {
	b, err := json.Marshal(payload)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", b)
}

// runStatePipeline runs the State Pipeline Coordinator for a completed turn
// and returns its optional footer. A nil coordinator (state subsystem
// disabled) is a silent no-op.
func (s *Server) runStatePipeline(c *gin.Context, turn models.Turn) string {
	if s.coordinator == nil || turn.TurnID == "" {
		return ""
	}
	return s.coordinator.Run(c.Request.Context(), turn)
}
