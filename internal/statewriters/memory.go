package statewriters

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/specialist-gateway/gateway/internal/models"
	"github.com/specialist-gateway/gateway/internal/textnorm"
)

// MemoryWriter writes and deduplicates memories: for every (user_id, domain),
// the multiset of normalized_summary over non-tombstoned records has no
// duplicates.
type MemoryWriter struct {
	pool *pgxpool.Pool
}

func NewMemoryWriter(pool *pgxpool.Pool) *MemoryWriter {
	return &MemoryWriter{pool: pool}
}

// MemoryWriteResult extends WriteResult with the "created" flag: true for a
// brand-new memory, false when the write touched an existing duplicate.
type MemoryWriteResult struct {
	WriteResult
	Created bool
}

// Write computes normalized_summary and either touches an existing
// non-tombstoned match's updated_at (created=false) or inserts a new record
// with a fresh mem_<YYYY-MM-DD>_<8 hex> id (created=true).
func (w *MemoryWriter) Write(ctx context.Context, rec models.MemoryRecord) (MemoryWriteResult, error) {
	rec.NormalizedSummary = textnorm.NormalizeSummary(rec.Summary)
	rec.Confidence = clamp01(rec.Confidence)

	var existingID string
	err := w.pool.QueryRow(ctx, `
		SELECT id FROM memories
		WHERE user_id = $1 AND domain = $2 AND normalized_summary = $3 AND tombstoned = false
	`, rec.UserID, rec.Domain, rec.NormalizedSummary).Scan(&existingID)

	switch {
	case err == nil:
		_, updateErr := w.pool.Exec(ctx, `UPDATE memories SET updated_at = now() WHERE id = $1`, existingID)
		if updateErr != nil {
			return MemoryWriteResult{}, fmt.Errorf("touching duplicate memory: %w", updateErr)
		}
		return MemoryWriteResult{WriteResult: WriteResult{Status: StatusDuplicate, Target: existingID}, Created: false}, nil

	case err == pgx.ErrNoRows:
		id, idErr := newMemoryID()
		if idErr != nil {
			return MemoryWriteResult{}, fmt.Errorf("generating memory id: %w", idErr)
		}
		_, insertErr := w.pool.Exec(ctx, `
			INSERT INTO memories
				(id, user_id, domain, title, summary, narrative, confidence, tags,
				 archived, tombstoned, created_by_agent, last_updated_by_agent, normalized_summary)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,false,false,$9,$9,$10)
		`, id, rec.UserID, rec.Domain, rec.Title, rec.Summary, rec.Narrative, rec.Confidence,
			rec.Tags, rec.CreatedByAgent, rec.NormalizedSummary)
		if insertErr != nil {
			if isUniqueViolation(insertErr) {
				// A concurrent writer won the race for this exact
				// normalized_summary between our SELECT and our INSERT;
				// re-query for the row it created so the caller gets back
				// the real id instead of an empty one — projection matches
				// on this id to decide whether an entry already exists.
				winnerID, lookupErr := w.lookupExisting(ctx, rec.UserID, rec.Domain, rec.NormalizedSummary)
				if lookupErr != nil {
					return MemoryWriteResult{}, fmt.Errorf("resolving concurrent memory insert: %w", lookupErr)
				}
				return MemoryWriteResult{WriteResult: WriteResult{Status: StatusDuplicate, Target: winnerID}, Created: false}, nil
			}
			return MemoryWriteResult{}, fmt.Errorf("inserting memory: %w", insertErr)
		}
		return MemoryWriteResult{WriteResult: WriteResult{Status: StatusWritten, Target: id}, Created: true}, nil

	default:
		return MemoryWriteResult{}, fmt.Errorf("looking up memory dedup: %w", err)
	}
}

// lookupExisting finds the id of the non-tombstoned memory matching the
// given (user_id, domain, normalized_summary), used to resolve the winner
// of a concurrent-insert race after losing a unique-constraint violation.
func (w *MemoryWriter) lookupExisting(ctx context.Context, userID string, domain models.Domain, normalizedSummary string) (string, error) {
	var id string
	err := w.pool.QueryRow(ctx, `
		SELECT id FROM memories
		WHERE user_id = $1 AND domain = $2 AND normalized_summary = $3 AND tombstoned = false
	`, userID, domain, normalizedSummary).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

// Tombstone soft-deletes a memory: sets tombstoned=true. The "[REMOVED]"
// line-prefix rewrite applies to the file-projected representation (see
// internal/projector); the relational row itself is marked via the
// tombstoned column.
func (w *MemoryWriter) Tombstone(ctx context.Context, id string) error {
	_, err := w.pool.Exec(ctx, `UPDATE memories SET tombstoned = true, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("tombstoning memory %s: %w", id, err)
	}
	return nil
}

// Edit appends a parenthetical user note to the memory's narrative,
// preserving tombstone state. Applying Edit twice with different notes
// yields two annotations.
func (w *MemoryWriter) Edit(ctx context.Context, id, note string) error {
	_, err := w.pool.Exec(ctx, `
		UPDATE memories
		SET narrative = narrative || ' (' || $2 || ')', updated_at = now()
		WHERE id = $1
	`, id, note)
	if err != nil {
		return fmt.Errorf("editing memory %s: %w", id, err)
	}
	return nil
}

func newMemoryID() (string, error) {
	suffix := make([]byte, 4)
	if _, err := rand.Read(suffix); err != nil {
		return "", err
	}
	return fmt.Sprintf("mem_%s_%s", time.Now().UTC().Format("2006-01-02"), hex.EncodeToString(suffix)), nil
}
