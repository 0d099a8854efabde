package statepipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/specialist-gateway/gateway/internal/jsonextract"
	"github.com/specialist-gateway/gateway/internal/models"
	"github.com/specialist-gateway/gateway/internal/provider"
)

// CheckinSlot is the check-in payload the decision model may request.
type CheckinSlot struct {
	Write       bool             `json:"write"`
	TrackType   models.TrackType `json:"track_type"`
	Title       string           `json:"title"`
	Summary     string           `json:"summary"`
	Outcome     models.Outcome   `json:"outcome"`
	Confidence  float64          `json:"confidence"`
	Wins        []string         `json:"wins"`
	Barriers    []string         `json:"barriers"`
	NextActions []string         `json:"next_actions"`
	Tags        []string         `json:"tags"`
}

// JournalSlot is the journal payload the decision model may request.
type JournalSlot struct {
	Write        bool     `json:"write"`
	Title        string   `json:"title"`
	BodyMarkdown string   `json:"body_markdown"`
	DomainHints  []string `json:"domain_hints"`
}

// MemorySlot is the memory payload the decision model may request.
type MemorySlot struct {
	Write      bool    `json:"write"`
	Title      string  `json:"title"`
	Summary    string  `json:"summary"`
	Narrative  string  `json:"narrative"`
	Confidence float64 `json:"confidence"`
	Tags       []string `json:"tags"`
}

// Decision is the Decision Engine's output: zero-or-more write slots plus a
// reason. A slot whose Write is false is nil after finalizeDecision, so the
// coordinator can range over non-nil slots directly.
type Decision struct {
	Checkin   *CheckinSlot `json:"checkin"`
	Journal   *JournalSlot `json:"journal"`
	Memory    *MemorySlot  `json:"memory"`
	Reason    string       `json:"reason"`
	IsFailure bool         `json:"-"`
}

// rawDecision mirrors the wire JSON shape before slot-dropping and clamping.
type rawDecision struct {
	Checkin *CheckinSlot `json:"checkin"`
	Journal *JournalSlot `json:"journal"`
	Memory  *MemorySlot  `json:"memory"`
	Reason  string       `json:"reason"`
}

// DecisionRouter is the subset of the Provider Router the engine needs.
type DecisionRouter interface {
	ChatCompletion(ctx context.Context, primary string, fallbacks []string, includeFallbacks bool, req provider.ChatRequest) (string, provider.ChatResponse, error)
}

// DecisionEngine implements C9.
type DecisionEngine struct {
	router         DecisionRouter
	model          string
	maxJSONRetries int
}

func NewDecisionEngine(router DecisionRouter, model string, maxJSONRetries int) *DecisionEngine {
	if maxJSONRetries < 0 {
		maxJSONRetries = 1
	}
	return &DecisionEngine{router: router, model: model, maxJSONRetries: maxJSONRetries}
}

// Decide prompts the state model with context and the turn, retrying up to
// maxJSONRetries times on malformed JSON. If every attempt fails to parse,
// returns a failure Decision with reason "state-model-unavailable" and every
// slot nil — absorbed by the caller, never surfaced as an HTTP error.
func (e *DecisionEngine) Decide(ctx context.Context, snapshot ContextSnapshot, turn models.Turn) Decision {
	systemPrompt := e.buildSystemPrompt(snapshot)
	userPrompt := fmt.Sprintf("User said: %s\nAssistant replied: %s", turn.UserText, turn.AssistantText)

	attempts := e.maxJSONRetries + 1
	var lastErr error
	for i := 0; i < attempts; i++ {
		_, resp, err := e.router.ChatCompletion(ctx, e.model, nil, false, provider.ChatRequest{
			Messages: []provider.Message{
				{Role: "system", Content: systemPrompt},
				{Role: "user", Content: userPrompt},
			},
		})
		if err != nil {
			lastErr = err
			continue
		}

		candidate := jsonextract.Extract(resp.Content)
		if candidate == "" {
			lastErr = fmt.Errorf("no JSON object found in decision response")
			continue
		}

		var raw rawDecision
		if err := json.Unmarshal([]byte(candidate), &raw); err != nil {
			lastErr = err
			continue
		}

		return finalizeDecision(raw)
	}

	_ = lastErr
	return Decision{Reason: "state-model-unavailable", IsFailure: true}
}

// finalizeDecision drops slots whose write flag is false and clamps numeric
// fields to their documented domains.
func finalizeDecision(raw rawDecision) Decision {
	d := Decision{Reason: raw.Reason}

	if raw.Checkin != nil && raw.Checkin.Write {
		c := *raw.Checkin
		c.Confidence = clamp01(c.Confidence)
		if !validTrackType(c.TrackType) {
			c.TrackType = models.TrackGoal
		}
		if !validOutcome(c.Outcome) {
			c.Outcome = models.OutcomeNeutral
		}
		d.Checkin = &c
	}
	if raw.Journal != nil && raw.Journal.Write {
		j := *raw.Journal
		d.Journal = &j
	}
	if raw.Memory != nil && raw.Memory.Write {
		m := *raw.Memory
		m.Confidence = clamp01(m.Confidence)
		d.Memory = &m
	}

	return d
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

func validTrackType(t models.TrackType) bool {
	return t == models.TrackGoal || t == models.TrackHabit || t == models.TrackEvent
}

func validOutcome(o models.Outcome) bool {
	return o == models.OutcomeSuccess || o == models.OutcomePartial || o == models.OutcomeMissed || o == models.OutcomeNeutral
}

func (e *DecisionEngine) buildSystemPrompt(snapshot ContextSnapshot) string {
	var b strings.Builder
	b.WriteString("You are the state-tracking policy for a personal assistant. Given the turn below ")
	b.WriteString("and the user's recent history, decide whether to record a check-in, a journal entry, ")
	b.WriteString("and/or a memory. Respond with exactly one JSON object with optional \"checkin\", ")
	b.WriteString("\"journal\", and \"memory\" keys (each with a boolean \"write\" field and its payload), ")
	b.WriteString("plus a top-level \"reason\" string, and nothing else.\n\n")

	if len(snapshot.RecentCheckins) > 0 {
		fmt.Fprintf(&b, "Recent check-ins: %s\n", strings.Join(snapshot.RecentCheckins, "; "))
	}
	if len(snapshot.RecentJournalTitles) > 0 {
		fmt.Fprintf(&b, "Recent journal titles: %s\n", strings.Join(snapshot.RecentJournalTitles, "; "))
	}
	if len(snapshot.ActiveMemorySummaries) > 0 {
		fmt.Fprintf(&b, "Known facts: %s\n", strings.Join(snapshot.ActiveMemorySummaries, "; "))
	}
	return b.String()
}
