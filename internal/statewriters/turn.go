package statewriters

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/specialist-gateway/gateway/internal/models"
)

// TurnWriter persists completed Turns, satisfying the orchestrator's
// TurnRecorder interface. A turn_id collision (not expected, since the
// orchestrator always mints a fresh uuid) is a silent no-op rather than an
// error.
type TurnWriter struct {
	pool *pgxpool.Pool
}

func NewTurnWriter(pool *pgxpool.Pool) *TurnWriter {
	return &TurnWriter{pool: pool}
}

// RecordTurn inserts one turn row.
func (w *TurnWriter) RecordTurn(ctx context.Context, turn models.Turn) error {
	_, err := w.pool.Exec(ctx, `
		INSERT INTO turns
			(turn_id, user_id, session_key, routed_domain, user_text, assistant_text,
			 used_model, request_fingerprint, latency_ms, provider_name, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (turn_id) DO NOTHING
	`, turn.TurnID, turn.UserID, turn.SessionKey, turn.RoutedDomain, turn.UserText, turn.AssistantText,
		turn.UsedModel, turn.RequestFingerprint, turn.LatencyMS, turn.ProviderName, turn.CreatedAt)
	if err != nil {
		return fmt.Errorf("recording turn: %w", err)
	}
	return nil
}
