package statewriters

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/specialist-gateway/gateway/internal/models"
)

// JournalWriter persists journal entries idempotently. Body markdown is
// stored verbatim, with no transformation applied.
type JournalWriter struct {
	pool *pgxpool.Pool
}

func NewJournalWriter(pool *pgxpool.Pool) *JournalWriter {
	return &JournalWriter{pool: pool}
}

func (w *JournalWriter) Write(ctx context.Context, entry models.JournalEntry) (WriteResult, error) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}

	_, err := w.pool.Exec(ctx, `
		INSERT INTO journal_entries (id, user_id, turn_id, title, body_markdown, domain_hints, idempotency_key)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, entry.ID, entry.UserID, entry.TurnID, entry.Title, entry.BodyMarkdown, domainsToStrings(entry.DomainHints), entry.IdempotencyKey)

	if err != nil {
		if isUniqueViolation(err) {
			return WriteResult{Status: StatusDuplicate, Target: entry.ID}, nil
		}
		return WriteResult{}, fmt.Errorf("writing journal entry: %w", err)
	}

	return WriteResult{Status: StatusWritten, Target: entry.ID}, nil
}

func domainsToStrings(domains []models.Domain) []string {
	out := make([]string, len(domains))
	for i, d := range domains {
		out[i] = string(d)
	}
	return out
}
