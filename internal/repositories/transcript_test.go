package repositories_test

import (
	"context"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/myrjola/deduce/internal/repositories"
	"github.com/myrjola/deduce/internal/testhelpers"
	"github.com/myrjola/deduce/internal/transcript"
	"github.com/stretchr/testify/require"
	"io"
	"testing"
	"time"
)

func line(t *testing.T, transcriptID string, index int, text string) transcript.Line {
	t.Helper()
	l, err := transcript.NewLine("case01", transcriptID, index, "witness", text)
	require.NoError(t, err)
	return l
}

func TestPlayerTranscripts(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := repositories.NewTranscriptRepository(db, testhelpers.NewLogger(io.Discard))
	player := newPlayer(t, db)
	store := repo.ForPlayer(player)

	offset := 1500 * time.Millisecond
	first := line(t, "t1", 0, "I was home.")
	first.TimeOffset = &offset
	first.Tags = []string{"claim"}
	first.Metadata = map[string]string{transcript.MetaTranscriptLineID: "w-home", transcript.MetaNodeID: "n1"}
	lines := []transcript.Line{
		first,
		line(t, "t1", 1, "Around nine."),
		line(t, "t0", 0, "Good evening."),
	}
	for _, l := range lines {
		require.NoError(t, store.AppendLine(ctx, l))
	}

	got, err := store.Lines(ctx, "case01", "t1")
	require.NoError(t, err)
	if diff := cmp.Diff(lines[:2], got); diff != "" {
		t.Errorf("Lines() mismatch (-want +got):\n%s", diff)
	}

	got, err = store.CaseLines(ctx, "case01")
	require.NoError(t, err)
	if diff := cmp.Diff([]transcript.Line{lines[2], lines[0], lines[1]}, got); diff != "" {
		t.Errorf("CaseLines() mismatch (-want +got):\n%s", diff)
	}

	other := repo.ForPlayer(newPlayer(t, db))
	got, err = other.CaseLines(ctx, "case01")
	require.NoError(t, err)
	require.Empty(t, got, "players do not see each other's transcripts")

	require.NoError(t, store.ClearTranscript(ctx, "case01", "t1"))
	got, err = store.CaseLines(ctx, "case01")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "t0", got[0].TranscriptID)
}

func TestPlayerTranscriptsRejectDuplicateIndex(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	store := repositories.NewTranscriptRepository(db, testhelpers.NewLogger(io.Discard)).ForPlayer(newPlayer(t, db))

	require.NoError(t, store.AppendLine(ctx, line(t, "t1", 0, "first")))
	require.Error(t, store.AppendLine(ctx, line(t, "t1", 0, "again")))
}

func TestPlayerTranscriptsRequirePlayer(t *testing.T) {
	db := newTestDB(t)
	store := repositories.NewTranscriptRepository(db, testhelpers.NewLogger(io.Discard)).ForPlayer(uuid.New())
	require.Error(t, store.AppendLine(context.Background(), line(t, "t1", 0, "hello")))
}
