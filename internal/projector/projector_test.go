package projector_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/specialist-gateway/gateway/internal/models"
	"github.com/specialist-gateway/gateway/internal/projector"
)

func TestProjectMemoryAppendsThenTombstones(t *testing.T) {
	root := t.TempDir()
	p := projector.New(root, projector.ModeFull)
	ctx := context.Background()

	rec := models.MemoryRecord{
		ID:             "mem_2026-07-30_aaaaaaaa",
		UserID:         "user-1",
		Domain:         models.DomainHealth,
		Summary:        "interested in tennis elbow rehabilitation",
		CreatedByAgent: "gpt-4o-mini",
	}
	require.NoError(t, p.ProjectMemory(ctx, rec, false))

	path := filepath.Join(root, "users", "user-1", "memories", "health.md")
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(raw), "- [mem_2026-07-30_aaaaaaaa] interested in tennis elbow rehabilitation")
	require.Contains(t, string(raw), "entry_count: 1")

	require.NoError(t, p.ProjectMemory(ctx, rec, true))
	raw, err = os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(raw), "[REMOVED] interested in tennis elbow rehabilitation")
	require.Contains(t, string(raw), "entry_count: 0")
	require.Contains(t, string(raw), "tombstone: true")
}

func TestProjectorDisabledWhenModeOff(t *testing.T) {
	root := t.TempDir()
	p := projector.New(root, projector.ModeOff)

	err := p.ProjectMemory(context.Background(), models.MemoryRecord{
		ID: "mem_x", UserID: "user-1", Domain: models.DomainGeneral, Summary: "x",
	}, false)
	require.NoError(t, err)

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestProjectCheckinWritesAtomically(t *testing.T) {
	root := t.TempDir()
	p := projector.New(root, projector.ModeMirror)

	rec := models.CheckinRecord{
		ID: "chk-1", UserID: "user-1", Domain: models.DomainHealth,
		TrackType: models.TrackHabit, Title: "pushups", Summary: "did 10 pushups",
		Outcome: models.OutcomeSuccess, Confidence: 0.9,
	}
	require.NoError(t, p.ProjectCheckin(context.Background(), rec))

	matches, err := filepath.Glob(filepath.Join(root, "users", "user-1", "checkins", "*", "chk-1.md"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	raw, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	require.Contains(t, string(raw), "did 10 pushups")

	tmpMatches, _ := filepath.Glob(filepath.Join(root, "users", "user-1", "checkins", "*", "*.tmp"))
	require.Empty(t, tmpMatches)
}
