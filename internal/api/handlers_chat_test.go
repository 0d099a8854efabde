package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/specialist-gateway/gateway/internal/classifier"
	"github.com/specialist-gateway/gateway/internal/config"
	"github.com/specialist-gateway/gateway/internal/orchestrator"
	"github.com/specialist-gateway/gateway/internal/promptregistry"
	"github.com/specialist-gateway/gateway/internal/provider"
	"github.com/specialist-gateway/gateway/internal/specialist"
	"github.com/specialist-gateway/gateway/internal/stickysession"
)

// fakeRouter satisfies both classifier.Router and orchestrator.Router with a
// single scripted reply, so a full Server can be built without a live
// upstream credential.
type fakeRouter struct {
	reply provider.ChatResponse
}

func (f *fakeRouter) ChatCompletion(ctx context.Context, primary string, fallbacks []string, includeFallbacks bool, req provider.ChatRequest) (string, provider.ChatResponse, error) {
	return primary, f.reply, nil
}

func testServer(t *testing.T, reply provider.ChatResponse) *Server {
	t.Helper()

	catalog := specialist.NewCatalog(map[string]config.SpecialistEntry{
		"general": {Label: "General", Model: "gpt-4o-mini", PromptKey: "specialist_general"},
	})
	prompts := promptregistry.New(t.TempDir(), []string{"orchestrator", "classifier", "specialist_general"},
		promptregistry.Builtins([]string{"general"}), false, false)
	router := &fakeRouter{reply: reply}
	cls := classifier.New(router, catalog, "gpt-4o-mini", 0.0, 120)
	sessions := stickysession.New(8, 64)
	orch := orchestrator.New(cls, catalog, prompts, sessions, router, orchestrator.NoopTurnRecorder{})

	cfg := &config.Config{GatewayYAMLConfig: config.GatewayYAMLConfig{
		Server: &config.ServerConfig{PublicModelID: "specialist-gateway"},
		Auth:   &config.AuthConfig{},
	}}

	return New(cfg, orch, nil, nil, catalog, prompts)
}

func doRequest(s *Server, method, path string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)
	return rec
}

func TestHandleChatCompletionsNonStreaming(t *testing.T) {
	s := testServer(t, provider.ChatResponse{Content: "hello there", FinishReason: "stop"})

	body, _ := json.Marshal(map[string]any{
		"model":    "specialist-gateway",
		"messages": []map[string]string{{"role": "user", "content": "hi"}},
	})
	rec := doRequest(s, http.MethodPost, "/v1/chat/completions", body)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp chatCompletionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(resp.Choices) != 1 || resp.Choices[0].Message.Content != "hello there" {
		t.Fatalf("unexpected choices: %+v", resp.Choices)
	}
}

func TestHandleChatCompletionsRejectsUnknownModel(t *testing.T) {
	s := testServer(t, provider.ChatResponse{Content: "unused"})

	body, _ := json.Marshal(map[string]any{
		"model":    "gpt-4-turbo",
		"messages": []map[string]string{{"role": "user", "content": "hi"}},
	})
	rec := doRequest(s, http.MethodPost, "/v1/chat/completions", body)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandleListModels(t *testing.T) {
	s := testServer(t, provider.ChatResponse{})
	rec := doRequest(s, http.MethodGet, "/v1/models", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp modelsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Data) != 1 || resp.Data[0].ID != "specialist-gateway" {
		t.Fatalf("unexpected models response: %+v", resp)
	}
}

func TestAuthRejectsMissingBearerTokenWhenKeysConfigured(t *testing.T) {
	s := testServer(t, provider.ChatResponse{Content: "hi"})
	s.cfg.Auth.Keys = []string{"secret-key"}
	s = New(s.cfg, s.orchestrator, nil, nil, s.catalog, s.prompts)

	body, _ := json.Marshal(map[string]any{
		"messages": []map[string]string{{"role": "user", "content": "hi"}},
	})
	rec := doRequest(s, http.MethodPost, "/v1/chat/completions", body)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestHealthzAlwaysOK(t *testing.T) {
	s := testServer(t, provider.ChatResponse{})
	rec := doRequest(s, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestReadyzOKWhenStateSubsystemDisabled(t *testing.T) {
	s := testServer(t, provider.ChatResponse{})
	rec := doRequest(s, http.MethodGet, "/readyz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestModelAllowed(t *testing.T) {
	s := testServer(t, provider.ChatResponse{})

	if !s.modelAllowed("") {
		t.Error("empty model should be allowed")
	}
	if !s.modelAllowed("specialist-gateway") {
		t.Error("public model id should be allowed")
	}
	if s.modelAllowed("gpt-4o") {
		t.Error("provider model id should be rejected without passthrough")
	}
	s.cfg.Server.AllowProviderModelPassthrough = true
	if !s.modelAllowed("gpt-4o") {
		t.Error("provider model id should be allowed with passthrough enabled")
	}
}

func TestRequestFingerprintIsStableAndOrderSensitive(t *testing.T) {
	a := chatCompletionRequest{Messages: []chatMessage{{Role: "user", Content: "hi"}}}
	b := chatCompletionRequest{Messages: []chatMessage{{Role: "user", Content: "hi"}}}
	c := chatCompletionRequest{Messages: []chatMessage{{Role: "user", Content: "bye"}}}

	if requestFingerprint(a) != requestFingerprint(b) {
		t.Error("identical requests should fingerprint identically")
	}
	if requestFingerprint(a) == requestFingerprint(c) {
		t.Error("different requests should fingerprint differently")
	}
}

func TestUserIDDefaultsToAnonymous(t *testing.T) {
	if userID("") != "anonymous" {
		t.Error("empty user should default to anonymous")
	}
	if userID("alice") != "alice" {
		t.Error("non-empty user should pass through")
	}
}
