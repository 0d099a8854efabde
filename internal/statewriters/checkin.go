package statewriters

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/specialist-gateway/gateway/internal/models"
)

var validOutcomes = map[models.Outcome]bool{
	models.OutcomeSuccess: true,
	models.OutcomePartial: true,
	models.OutcomeMissed:  true,
	models.OutcomeNeutral: true,
}

var validTrackTypes = map[models.TrackType]bool{
	models.TrackGoal:  true,
	models.TrackHabit: true,
	models.TrackEvent: true,
}

// CheckinWriter persists check-in records idempotently under
// (user_id, idempotency_key).
type CheckinWriter struct {
	pool *pgxpool.Pool
}

func NewCheckinWriter(pool *pgxpool.Pool) *CheckinWriter {
	return &CheckinWriter{pool: pool}
}

// Write validates enum fields and inserts the row. A duplicate idempotency
// key is a no-op that reports status=duplicate.
func (w *CheckinWriter) Write(ctx context.Context, rec models.CheckinRecord) (WriteResult, error) {
	if !validTrackTypes[rec.TrackType] {
		return WriteResult{Status: StatusRejected, Details: fmt.Sprintf("invalid track_type %q", rec.TrackType)}, nil
	}
	if !validOutcomes[rec.Outcome] {
		return WriteResult{Status: StatusRejected, Details: fmt.Sprintf("invalid outcome %q", rec.Outcome)}, nil
	}
	rec.Confidence = clamp01(rec.Confidence)

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}

	_, err := w.pool.Exec(ctx, `
		INSERT INTO checkins
			(id, user_id, turn_id, domain, track_type, title, summary, outcome,
			 confidence, wins, barriers, next_actions, tags, source_model, idempotency_key)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
	`, rec.ID, rec.UserID, rec.TurnID, rec.Domain, rec.TrackType, rec.Title, rec.Summary,
		rec.Outcome, rec.Confidence, rec.Wins, rec.Barriers, rec.NextActions, rec.Tags,
		rec.SourceModel, rec.IdempotencyKey)

	if err != nil {
		if isUniqueViolation(err) {
			return WriteResult{Status: StatusDuplicate, Target: rec.ID}, nil
		}
		return WriteResult{}, fmt.Errorf("writing checkin: %w", err)
	}

	return WriteResult{Status: StatusWritten, Target: rec.ID}, nil
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
