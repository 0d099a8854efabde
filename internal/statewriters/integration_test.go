//go:build integration

package statewriters_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/specialist-gateway/gateway/internal/models"
	"github.com/specialist-gateway/gateway/internal/statewriters"
	testutil "github.com/specialist-gateway/gateway/test/util"
)

func TestMemoryWriterDedupScenario(t *testing.T) {
	// Two successive writes of the same normalized summary in the same
	// (user, domain) must yield created=true then created=false.
	client := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	userID := uuid.NewString()
	turnID := uuid.NewString()
	_, err := client.Pool.Exec(ctx, `
		INSERT INTO turns (turn_id, user_id, session_key, routed_domain, user_text, assistant_text, used_model, request_fingerprint)
		VALUES ($1,$2,'sess-1','health','tennis elbow','advice','gpt-4o-mini','fp-1')
	`, turnID, userID)
	require.NoError(t, err)

	writer := statewriters.NewMemoryWriter(client.Pool)

	rec := models.MemoryRecord{
		UserID:         userID,
		Domain:         models.DomainHealth,
		Title:          "tennis elbow",
		Summary:        "interested in tennis elbow rehabilitation",
		CreatedByAgent: "gpt-4o-mini",
	}

	first, err := writer.Write(ctx, rec)
	require.NoError(t, err)
	require.True(t, first.Created)

	second, err := writer.Write(ctx, rec)
	require.NoError(t, err)
	require.False(t, second.Created)

	var count int
	err = client.Pool.QueryRow(ctx, `
		SELECT count(*) FROM memories WHERE user_id = $1 AND domain = $2 AND tombstoned = false
	`, userID, models.DomainHealth).Scan(&count)
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestCheckinWriterIdempotency(t *testing.T) {
	client := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	userID := uuid.NewString()
	turnID := uuid.NewString()
	_, err := client.Pool.Exec(ctx, `
		INSERT INTO turns (turn_id, user_id, session_key, routed_domain, user_text, assistant_text, used_model, request_fingerprint)
		VALUES ($1,$2,'sess-1','health','did 10 pushups','nice','gpt-4o-mini','fp-2')
	`, turnID, userID)
	require.NoError(t, err)

	writer := statewriters.NewCheckinWriter(client.Pool)
	key := statewriters.IdempotencyKey(userID, turnID, "checkin")

	rec := models.CheckinRecord{
		UserID:         userID,
		TurnID:         turnID,
		Domain:         models.DomainHealth,
		TrackType:      models.TrackHabit,
		Title:          "pushups",
		Summary:        "did 10 pushups",
		Outcome:        models.OutcomeSuccess,
		Confidence:     0.9,
		SourceModel:    "gpt-4o-mini",
		IdempotencyKey: key,
	}

	first, err := writer.Write(ctx, rec)
	require.NoError(t, err)
	require.Equal(t, statewriters.StatusWritten, first.Status)

	second, err := writer.Write(ctx, rec)
	require.NoError(t, err)
	require.Equal(t, statewriters.StatusDuplicate, second.Status)
}
