package interrogation_test

import (
	"context"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/myrjola/deduce/internal/dialogue"
	"github.com/myrjola/deduce/internal/errors"
	"github.com/myrjola/deduce/internal/gameerr"
	"github.com/myrjola/deduce/internal/interrogation"
	"github.com/myrjola/deduce/internal/testhelpers"
	"github.com/myrjola/deduce/internal/transcript"
	"github.com/stretchr/testify/require"
	"io"
	"testing"
)

type spoken struct {
	Index   int
	LineID  string
	Speaker string
	Text    string
	NodeID  string
}

func spokenLines(t *testing.T, store transcript.Store, transcriptID string) []spoken {
	t.Helper()
	lines, err := store.Lines(context.Background(), "case01", transcriptID)
	require.NoError(t, err)
	var got []spoken
	for _, l := range lines {
		got = append(got, spoken{
			Index:   l.Index,
			LineID:  l.LineID,
			Speaker: l.SpeakerID,
			Text:    l.Text,
			NodeID:  l.Metadata[transcript.MetaNodeID],
		})
	}
	return got
}

func TestRecorder(t *testing.T) {
	ctx := context.Background()
	repo := dialogueRepo{
		"case01/d1": newDialogue(t, "d1", "n1",
			line(t, "n1", "witness", "I was home", "n2"),
			line(t, "n2", "", "(silence)", "n3"),
			choice(t, "n3",
				dialogue.Choice{ID: "press", Text: "Really?", NextNodeID: "n4", ConditionID: "", EffectID: ""}),
			line(t, "n4", "witness", "Yes, really.", ""),
		),
	}
	logger := testhelpers.NewLogger(io.Discard)
	session := interrogation.NewSession(repo, logger)
	store := transcript.NewMemoryStore()
	recorder := interrogation.NewRecorder(session, store, logger)
	defer recorder.Close()

	var recorded []int
	unsubscribe := recorder.OnLineRecorded(func(e interrogation.LineRecorded) {
		recorded = append(recorded, e.Line.Index)
	})
	defer unsubscribe()

	// Lines from an earlier run are cleared when recording starts.
	stale, err := transcript.NewLine("case01", "t1", 0, "witness", "stale")
	require.NoError(t, err)
	require.NoError(t, store.AppendLine(ctx, stale))

	require.NoError(t, recorder.StartRecording(ctx, "case01", "t1"))
	require.True(t, recorder.IsRecording())
	require.NoError(t, session.Start(ctx, "case01", "d1"))

	want := []spoken{{Index: 0, LineID: "0", Speaker: "witness", Text: "I was home", NodeID: "n1"}}
	if diff := cmp.Diff(want, spokenLines(t, store, "t1")); diff != "" {
		t.Fatalf("entry node not recorded (-want +got):\n%s", diff)
	}

	for range 2 {
		_, err = session.Continue()
		require.NoError(t, err)
	}
	_, err = session.SelectChoice("press")
	require.NoError(t, err)
	ok, err := session.Continue()
	require.NoError(t, err)
	require.False(t, ok)

	want = append(want, spoken{Index: 1, LineID: "1", Speaker: "witness", Text: "Yes, really.", NodeID: "n4"})
	if diff := cmp.Diff(want, spokenLines(t, store, "t1")); diff != "" {
		t.Errorf("transcript mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, []int{0, 1}, recorded)
	require.False(t, recorder.IsRecording(), "session end stops recording")

	// Not armed, nothing is recorded.
	require.NoError(t, session.Start(ctx, "case01", "d1"))
	require.Len(t, spokenLines(t, store, "t1"), 2)
	session.End()

	// A new run starts from zero again.
	require.NoError(t, recorder.StartRecording(ctx, "case01", "t1"))
	require.NoError(t, session.Start(ctx, "case01", "d1"))
	if diff := cmp.Diff(want[:1], spokenLines(t, store, "t1"), cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("restarted transcript mismatch (-want +got):\n%s", diff)
	}
}

func TestRecorderStartRecordingValidates(t *testing.T) {
	logger := testhelpers.NewLogger(io.Discard)
	session := interrogation.NewSession(dialogueRepo{}, logger)
	recorder := interrogation.NewRecorder(session, transcript.NewMemoryStore(), logger)
	defer recorder.Close()

	err := recorder.StartRecording(context.Background(), "", "t1")
	require.ErrorIs(t, err, gameerr.ErrInvalidArgument)
	err = recorder.StartRecording(context.Background(), "case01", "")
	require.ErrorIs(t, err, gameerr.ErrInvalidArgument)
	require.False(t, recorder.IsRecording())
}

type failingStore struct {
	transcript.Store
}

func (failingStore) AppendLine(context.Context, transcript.Line) error {
	return errors.New("disk full")
}

func TestRecorderSkipsIndexOnStoreFailure(t *testing.T) {
	ctx := context.Background()
	repo := dialogueRepo{
		"case01/d1": newDialogue(t, "d1", "n1", line(t, "n1", "witness", "I was home", "")),
	}
	logger := testhelpers.NewLogger(io.Discard)
	session := interrogation.NewSession(repo, logger)
	store := failingStore{Store: transcript.NewMemoryStore()}
	recorder := interrogation.NewRecorder(session, store, logger)
	defer recorder.Close()

	var recorded int
	unsubscribe := recorder.OnLineRecorded(func(interrogation.LineRecorded) { recorded++ })
	defer unsubscribe()

	require.NoError(t, recorder.StartRecording(ctx, "case01", "t1"))
	require.NoError(t, session.Start(ctx, "case01", "d1"))
	require.Zero(t, recorded)
	require.True(t, recorder.IsRecording())
}

func TestRecorderClose(t *testing.T) {
	ctx := context.Background()
	repo := dialogueRepo{
		"case01/d1": newDialogue(t, "d1", "n1", line(t, "n1", "witness", "I was home", "")),
	}
	logger := testhelpers.NewLogger(io.Discard)
	session := interrogation.NewSession(repo, logger)
	store := transcript.NewMemoryStore()
	recorder := interrogation.NewRecorder(session, store, logger)

	require.NoError(t, recorder.StartRecording(ctx, "case01", "t1"))
	recorder.Close()
	recorder.Close()
	require.NoError(t, session.Start(ctx, "case01", "d1"))
	require.Empty(t, spokenLines(t, store, "t1"))
}
