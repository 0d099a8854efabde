// Package models defines the data model shared across the gateway: the
// specialist domain enumeration and the durable records the state pipeline
// produces.
package models

import "time"

// Domain is one of the six closed specialist categories.
type Domain string

const (
	DomainGeneral              Domain = "general"
	DomainHealth               Domain = "health"
	DomainParenting            Domain = "parenting"
	DomainRelationships        Domain = "relationships"
	DomainHomelab              Domain = "homelab"
	DomainPersonalDevelopment  Domain = "personal_development"
)

// KnownDomains lists every valid Domain value, in catalog order.
var KnownDomains = []Domain{
	DomainGeneral,
	DomainHealth,
	DomainParenting,
	DomainRelationships,
	DomainHomelab,
	DomainPersonalDevelopment,
}

// IsKnown reports whether d is a member of the closed specialist enumeration.
func (d Domain) IsKnown() bool {
	for _, known := range KnownDomains {
		if d == known {
			return true
		}
	}
	return false
}

// TrackType is the kind of check-in being recorded.
type TrackType string

const (
	TrackGoal  TrackType = "goal"
	TrackHabit TrackType = "habit"
	TrackEvent TrackType = "event"
)

// Outcome is the self-reported result of a check-in.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomePartial Outcome = "partial"
	OutcomeMissed  Outcome = "missed"
	OutcomeNeutral Outcome = "neutral"
)

// Turn is the immutable record of one request/response exchange. It is
// created once the HTTP handler has a reply and is never mutated afterward.
type Turn struct {
	TurnID            string
	UserID            string
	SessionKey         string
	RoutedDomain       Domain
	UserText           string
	AssistantText      string
	UsedModel          string
	RequestFingerprint string
	LatencyMS          int64  // [EXPANSION] observational only, no invariant depends on it.
	ProviderName       string // [EXPANSION] observational only.
	CreatedAt          time.Time
}

// CheckinRecord tracks progress on a goal, habit, or event.
type CheckinRecord struct {
	ID             string
	UserID         string
	TurnID         string
	Domain         Domain
	TrackType      TrackType
	Title          string
	Summary        string
	Outcome        Outcome
	Confidence     float64
	Wins           []string
	Barriers       []string
	NextActions    []string
	Tags           []string
	CreatedAt      time.Time
	UpdatedAt      time.Time // [EXPANSION] most recent idempotent-touch time.
	SourceModel    string
	IdempotencyKey string
}

// JournalEntry is a free-form markdown note attached to a turn.
type JournalEntry struct {
	ID             string
	UserID         string
	TurnID         string
	Title          string
	BodyMarkdown   string
	DomainHints    []Domain
	CreatedAt      time.Time
	IdempotencyKey string
}

// MemoryRecord is a long-term, per-(user,domain) durable fact. Lifecycle:
// create, edit (appends a note in place), tombstone (soft delete).
type MemoryRecord struct {
	ID                  string
	UserID              string
	Domain              Domain
	Title               string
	Summary             string
	Narrative           string
	Confidence          float64
	Tags                []string
	Archived            bool
	Tombstoned          bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
	CreatedByAgent      string
	LastUpdatedByAgent  string
	NormalizedSummary   string
	Embedding           []float32 // [EXPANSION] nullable; populated opportunistically.
	EmbeddingModel      string    // [EXPANSION] nullable.
}

// StickySessionEntry is the in-memory, process-lifetime record of a
// session's recently routed domains.
type StickySessionEntry struct {
	SessionKey string
	Recent     []Domain
}
