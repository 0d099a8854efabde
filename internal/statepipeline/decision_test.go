package statepipeline_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/specialist-gateway/gateway/internal/models"
	"github.com/specialist-gateway/gateway/internal/provider"
	"github.com/specialist-gateway/gateway/internal/statepipeline"
)

type scriptedRouter struct {
	responses []string
	errs      []error
	calls     int
}

func (r *scriptedRouter) ChatCompletion(_ context.Context, _ string, _ []string, _ bool, _ provider.ChatRequest) (string, provider.ChatResponse, error) {
	i := r.calls
	r.calls++
	var err error
	if i < len(r.errs) {
		err = r.errs[i]
	}
	content := ""
	if i < len(r.responses) {
		content = r.responses[i]
	}
	return "decision-model", provider.ChatResponse{Content: content}, err
}

func TestDecisionEngineRetriesOnMalformedJSON(t *testing.T) {
	router := &scriptedRouter{
		responses: []string{"not json", `{"checkin":{"write":true,"title":"pushups","summary":"did 10","track_type":"habit","outcome":"success","confidence":0.8},"reason":"tracked a habit"}`},
	}
	engine := statepipeline.NewDecisionEngine(router, "decision-model", 1)

	decision := engine.Decide(context.Background(), statepipeline.ContextSnapshot{}, models.Turn{
		UserID: "u1", UserText: "did 10 pushups", AssistantText: "nice work",
	})

	require.Equal(t, 2, router.calls)
	require.False(t, decision.IsFailure)
	require.NotNil(t, decision.Checkin)
	require.Equal(t, "pushups", decision.Checkin.Title)
	require.Nil(t, decision.Journal)
	require.Nil(t, decision.Memory)
}

func TestDecisionEngineExhaustsRetries(t *testing.T) {
	router := &scriptedRouter{
		responses: []string{"not json", "still not json"},
	}
	engine := statepipeline.NewDecisionEngine(router, "decision-model", 1)

	decision := engine.Decide(context.Background(), statepipeline.ContextSnapshot{}, models.Turn{UserID: "u1"})

	require.Equal(t, 2, router.calls)
	require.True(t, decision.IsFailure)
	require.Equal(t, "state-model-unavailable", decision.Reason)
	require.Nil(t, decision.Checkin)
	require.Nil(t, decision.Journal)
	require.Nil(t, decision.Memory)
}

func TestDecisionEngineDropsFalseWriteSlots(t *testing.T) {
	router := &scriptedRouter{
		responses: []string{`{"checkin":{"write":false},"journal":{"write":true,"title":"t","body_markdown":"b"},"reason":"only journal"}`},
	}
	engine := statepipeline.NewDecisionEngine(router, "decision-model", 1)

	decision := engine.Decide(context.Background(), statepipeline.ContextSnapshot{}, models.Turn{UserID: "u1"})

	require.False(t, decision.IsFailure)
	require.Nil(t, decision.Checkin)
	require.NotNil(t, decision.Journal)
	require.Equal(t, "t", decision.Journal.Title)
}

func TestDecisionEngineClampsConfidence(t *testing.T) {
	router := &scriptedRouter{
		responses: []string{`{"memory":{"write":true,"title":"x","summary":"y","confidence":5},"reason":"r"}`},
	}
	engine := statepipeline.NewDecisionEngine(router, "decision-model", 0)

	decision := engine.Decide(context.Background(), statepipeline.ContextSnapshot{}, models.Turn{UserID: "u1"})

	require.NotNil(t, decision.Memory)
	require.Equal(t, 1.0, decision.Memory.Confidence)
}
