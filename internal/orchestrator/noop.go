package orchestrator

import (
	"context"

	"github.com/specialist-gateway/gateway/internal/models"
)

// NoopTurnRecorder discards every turn. Used when the state subsystem is
// disabled by configuration.
type NoopTurnRecorder struct{}

func (NoopTurnRecorder) RecordTurn(context.Context, models.Turn) error { return nil }
