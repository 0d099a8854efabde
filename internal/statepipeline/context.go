// Package statepipeline implements the State Context Fetcher (C8), State
// Decision Engine (C9), and State Pipeline Coordinator (C13): the
// LLM-driven policy that turns a completed Turn into zero-or-more durable
// writes.
package statepipeline

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/specialist-gateway/gateway/internal/models"
)

// ContextSnapshot is what the Decision Engine gets to reason about: recent
// check-ins, recent journal titles, and active memory summaries in the
// routed domain. Read-only; never blocks writers.
type ContextSnapshot struct {
	RecentCheckins      []string
	RecentJournalTitles []string
	ActiveMemorySummaries []string
}

// ContextFetcher produces a ContextSnapshot for one (user, domain) pair.
type ContextFetcher struct {
	pool          *pgxpool.Pool
	checkinLimit  int
	journalLimit  int
}

func NewContextFetcher(pool *pgxpool.Pool, checkinLimit, journalLimit int) *ContextFetcher {
	if checkinLimit <= 0 {
		checkinLimit = 5
	}
	if journalLimit <= 0 {
		journalLimit = 5
	}
	return &ContextFetcher{pool: pool, checkinLimit: checkinLimit, journalLimit: journalLimit}
}

// Fetch builds the snapshot. Every query is read-only and independent of
// any in-flight write — the fetcher never takes a lock writers would wait on.
func (f *ContextFetcher) Fetch(ctx context.Context, userID string, domain models.Domain) (ContextSnapshot, error) {
	var snapshot ContextSnapshot

	checkinRows, err := f.pool.Query(ctx, `
		SELECT summary FROM checkins
		WHERE user_id = $1 AND domain = $2
		ORDER BY created_at DESC LIMIT $3
	`, userID, domain, f.checkinLimit)
	if err != nil {
		return snapshot, err
	}
	snapshot.RecentCheckins, err = scanStrings(checkinRows)
	if err != nil {
		return snapshot, err
	}

	journalRows, err := f.pool.Query(ctx, `
		SELECT title FROM journal_entries
		WHERE user_id = $1
		ORDER BY created_at DESC LIMIT $2
	`, userID, f.journalLimit)
	if err != nil {
		return snapshot, err
	}
	snapshot.RecentJournalTitles, err = scanStrings(journalRows)
	if err != nil {
		return snapshot, err
	}

	memoryRows, err := f.pool.Query(ctx, `
		SELECT summary FROM memories
		WHERE user_id = $1 AND domain = $2 AND tombstoned = false
		ORDER BY created_at DESC
	`, userID, domain)
	if err != nil {
		return snapshot, err
	}
	snapshot.ActiveMemorySummaries, err = scanStrings(memoryRows)
	if err != nil {
		return snapshot, err
	}

	return snapshot, nil
}

func scanStrings(rows pgx.Rows) ([]string, error) {
	defer rows.Close()
	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
