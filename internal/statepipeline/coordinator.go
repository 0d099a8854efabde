package statepipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/specialist-gateway/gateway/internal/models"
	"github.com/specialist-gateway/gateway/internal/statewriters"
)

// Projector mirrors a completed write to disk. Implemented by
// internal/projector; kept as a narrow interface here so the coordinator
// never depends on the projector's on-disk layout.
type Projector interface {
	ProjectCheckin(ctx context.Context, rec models.CheckinRecord) error
	ProjectJournal(ctx context.Context, entry models.JournalEntry) error
	ProjectMemory(ctx context.Context, rec models.MemoryRecord, tombstoned bool) error
}

// Coordinator implements C13: it serializes context fetch, decision, writes,
// and optional disk projection into one call per turn.
type Coordinator struct {
	fetcher   *ContextFetcher
	decider   *DecisionEngine
	checkins  *statewriters.CheckinWriter
	journals  *statewriters.JournalWriter
	memories  *statewriters.MemoryWriter
	projector Projector // nil when projection is disabled
	onFailure string    // "silent" | "footer_warning"
	logger    *slog.Logger
}

func NewCoordinator(
	fetcher *ContextFetcher,
	decider *DecisionEngine,
	checkins *statewriters.CheckinWriter,
	journals *statewriters.JournalWriter,
	memories *statewriters.MemoryWriter,
	projector Projector,
	onFailure string,
	logger *slog.Logger,
) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		fetcher:   fetcher,
		decider:   decider,
		checkins:  checkins,
		journals:  journals,
		memories:  memories,
		projector: projector,
		onFailure: onFailure,
		logger:    logger,
	}
}

// Run executes the full state-pipeline sequence for one completed turn —
// fetch context, decide, write, project — and returns an optional footer to
// append to the assistant message. It never returns an error: every failure
// mode here is absorbed, surfaced at most as a footer line, logged at
// slog.Warn otherwise, so a state-subsystem hiccup never fails the chat turn.
func (c *Coordinator) Run(ctx context.Context, turn models.Turn) string {
	snapshot, err := c.fetcher.Fetch(ctx, turn.UserID, turn.RoutedDomain)
	if err != nil {
		c.logger.Warn("state context fetch failed", "error", err, "user_id", turn.UserID)
		return c.failureFooter(turn.UserID)
	}

	decision := c.decider.Decide(ctx, snapshot, turn)
	if decision.IsFailure {
		c.logger.Warn("state decision engine exhausted retries", "reason", decision.Reason, "user_id", turn.UserID)
		return c.failureFooter(turn.UserID)
	}

	if decision.Checkin != nil {
		c.writeCheckin(ctx, turn, *decision.Checkin)
	}
	if decision.Journal != nil {
		c.writeJournal(ctx, turn, *decision.Journal)
	}
	if decision.Memory != nil {
		c.writeMemory(ctx, turn, *decision.Memory)
	}

	return ""
}

func (c *Coordinator) failureFooter(userID string) string {
	if c.onFailure != "footer_warning" {
		return ""
	}
	return fmt.Sprintf(
		"\n\n---\nState warning: state-model-unavailable. Recent activity may be missing from state/users/%s/.",
		userID,
	)
}

func (c *Coordinator) writeCheckin(ctx context.Context, turn models.Turn, slot CheckinSlot) {
	rec := models.CheckinRecord{
		UserID:         turn.UserID,
		TurnID:         turn.TurnID,
		Domain:         turn.RoutedDomain,
		TrackType:      slot.TrackType,
		Title:          slot.Title,
		Summary:        slot.Summary,
		Outcome:        slot.Outcome,
		Confidence:     slot.Confidence,
		Wins:           slot.Wins,
		Barriers:       slot.Barriers,
		NextActions:    slot.NextActions,
		Tags:           slot.Tags,
		SourceModel:    c.decider.model,
		IdempotencyKey: statewriters.IdempotencyKey(turn.UserID, turn.TurnID, "checkin"),
	}
	result, err := c.checkins.Write(ctx, rec)
	if err != nil {
		c.logger.Warn("checkin write failed", "error", err, "user_id", turn.UserID)
		return
	}
	if result.Status != statewriters.StatusWritten || c.projector == nil {
		return
	}
	if err := c.projector.ProjectCheckin(ctx, rec); err != nil {
		c.logger.Warn("checkin projection failed", "error", err, "user_id", turn.UserID)
	}
}

func (c *Coordinator) writeJournal(ctx context.Context, turn models.Turn, slot JournalSlot) {
	domainHints := make([]models.Domain, 0, len(slot.DomainHints))
	for _, d := range slot.DomainHints {
		domainHints = append(domainHints, models.Domain(d))
	}
	entry := models.JournalEntry{
		UserID:         turn.UserID,
		TurnID:         turn.TurnID,
		Title:          slot.Title,
		BodyMarkdown:   slot.BodyMarkdown,
		DomainHints:    domainHints,
		IdempotencyKey: statewriters.IdempotencyKey(turn.UserID, turn.TurnID, "journal"),
	}
	result, err := c.journals.Write(ctx, entry)
	if err != nil {
		c.logger.Warn("journal write failed", "error", err, "user_id", turn.UserID)
		return
	}
	if result.Status != statewriters.StatusWritten || c.projector == nil {
		return
	}
	if err := c.projector.ProjectJournal(ctx, entry); err != nil {
		c.logger.Warn("journal projection failed", "error", err, "user_id", turn.UserID)
	}
}

func (c *Coordinator) writeMemory(ctx context.Context, turn models.Turn, slot MemorySlot) {
	rec := models.MemoryRecord{
		UserID:         turn.UserID,
		Domain:         turn.RoutedDomain,
		Title:          slot.Title,
		Summary:        slot.Summary,
		Narrative:      slot.Narrative,
		Confidence:     slot.Confidence,
		Tags:           slot.Tags,
		CreatedByAgent: c.decider.model,
	}
	result, err := c.memories.Write(ctx, rec)
	if err != nil {
		c.logger.Warn("memory write failed", "error", err, "user_id", turn.UserID)
		return
	}
	if c.projector == nil {
		return
	}
	rec.ID = result.Target
	if err := c.projector.ProjectMemory(ctx, rec, false); err != nil {
		c.logger.Warn("memory projection failed", "error", err, "user_id", turn.UserID)
	}
}
