package cases_test

import (
	"context"
	"github.com/google/go-cmp/cmp"
	"github.com/myrjola/deduce/internal/cases"
	"github.com/myrjola/deduce/internal/dialogue"
	"github.com/myrjola/deduce/internal/errors"
	"github.com/myrjola/deduce/internal/gameerr"
	"github.com/myrjola/deduce/internal/interrogation"
	"github.com/myrjola/deduce/internal/testhelpers"
	"github.com/myrjola/deduce/internal/transcript"
	"github.com/stretchr/testify/require"
	"io"
	"strings"
	"testing"
)

type caseRepo map[string]*cases.Definition

func (r caseRepo) Get(_ context.Context, caseID string) (*cases.Definition, error) {
	d, ok := r[caseID]
	if !ok {
		return nil, errors.Wrap(gameerr.ErrNotFound, "case not found")
	}
	return d, nil
}

type dialogueRepo map[string]*dialogue.Dialogue

func (r dialogueRepo) Get(_ context.Context, caseID, dialogueID string) (*dialogue.Dialogue, error) {
	d, ok := r[strings.ToLower(caseID+"/"+dialogueID)]
	if !ok {
		return nil, errors.Wrap(gameerr.ErrNotFound, "dialogue not found")
	}
	return d, nil
}

type fixture struct {
	controller *cases.Controller
	session    *interrogation.Session
	recorder   *interrogation.Recorder
	store      *transcript.MemoryStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := testhelpers.NewLogger(io.Discard)

	entry, err := dialogue.NewLineNode("n1", dialogue.LineContent{
		SpeakerID:        "witness",
		Text:             "I was home",
		TranscriptLineID: "",
		NextNodeID:       "n2",
	})
	require.NoError(t, err)
	accuse, err := dialogue.NewChoiceNode("n2", []dialogue.Choice{
		{ID: "accuse", Text: "You were not.", NextNodeID: "n3", ConditionID: "", EffectID: ""},
	})
	require.NoError(t, err)
	denial, err := dialogue.NewLineNode("n3", dialogue.LineContent{
		SpeakerID:        "witness",
		Text:             "Prove it.",
		TranscriptLineID: "",
		NextNodeID:       "",
	})
	require.NoError(t, err)
	d1, err := dialogue.New("case01", "d1", "n1", []dialogue.Node{entry, accuse, denial})
	require.NoError(t, err)

	case01, err := cases.NewDefinition("case01", "d1", []cases.DialogueRef{
		{DialogueID: "d1", TranscriptID: "t1", SubjectID: "witness"},
		{DialogueID: "d2", TranscriptID: "", SubjectID: ""},
		{DialogueID: "broken", TranscriptID: "t3", SubjectID: ""},
	})
	require.NoError(t, err)

	store := transcript.NewMemoryStore()
	session := interrogation.NewSession(dialogueRepo{"case01/d1": d1}, logger)
	recorder := interrogation.NewRecorder(session, store, logger)
	t.Cleanup(recorder.Close)
	controller := cases.NewController(caseRepo{"case01": case01}, session, recorder, logger)
	return &fixture{controller: controller, session: session, recorder: recorder, store: store}
}

func TestControllerEndToEnd(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	var choices []string
	unsubscribe := f.session.OnChoiceSelected(func(e interrogation.ChoiceSelected) {
		choices = append(choices, e.ChoiceID)
	})
	defer unsubscribe()

	require.NoError(t, f.controller.StartCase(ctx, "case01"))
	require.NoError(t, f.controller.StartInterrogation(ctx, "d1"))

	lines, err := f.store.Lines(ctx, "case01", "t1")
	require.NoError(t, err)
	require.Len(t, lines, 1, "entry node is recorded before continuing")
	want := transcript.Line{
		CaseID:       "case01",
		TranscriptID: "t1",
		LineID:       "0",
		Index:        0,
		SpeakerID:    "witness",
		Text:         "I was home",
		TimeOffset:   nil,
		Tags:         nil,
		Metadata:     map[string]string{transcript.MetaNodeID: "n1"},
	}
	if diff := cmp.Diff(want, lines[0]); diff != "" {
		t.Errorf("recorded line mismatch (-want +got):\n%s", diff)
	}

	ok, err := f.controller.ContinueInterrogation()
	require.NoError(t, err)
	require.True(t, ok, "moves to the choice node")
	ok, err = f.controller.ContinueInterrogation()
	require.NoError(t, err)
	require.False(t, ok, "continue fails on a choice node")

	ok, err = f.controller.SelectChoice("accuse")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "n3", f.session.CurrentNode().ID())
	require.Equal(t, []string{"accuse"}, choices)

	lines, err = f.store.Lines(ctx, "case01", "t1")
	require.NoError(t, err)
	require.Len(t, lines, 2)
	require.Equal(t, 1, lines[1].Index)
}

func TestControllerStartCase(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	var started []string
	unsubscribe := f.controller.OnCaseStarted(func(e cases.CaseStarted) {
		started = append(started, e.CaseID)
	})
	defer unsubscribe()

	require.ErrorIs(t, f.controller.StartCase(ctx, " "), gameerr.ErrInvalidArgument)
	require.ErrorIs(t, f.controller.StartCase(ctx, "case99"), gameerr.ErrNotFound)
	require.False(t, f.controller.HasActiveCase())

	require.NoError(t, f.controller.StartCase(ctx, "case01"))
	require.Equal(t, "case01", f.controller.CurrentCaseID())
	require.NoError(t, f.controller.StartInterrogation(ctx, "d1"))
	require.ErrorIs(t, f.controller.StartCase(ctx, "case01"), gameerr.ErrInvalidState,
		"cannot switch case mid-interrogation")

	f.controller.EndInterrogation()
	require.NoError(t, f.controller.StartCase(ctx, "case01"))
	require.Equal(t, []string{"case01", "case01"}, started)
}

func TestControllerStartInterrogation(t *testing.T) {
	ctx := context.Background()

	t.Run("no active case", func(t *testing.T) {
		f := newFixture(t)
		require.ErrorIs(t, f.controller.StartInterrogation(ctx, "d1"), gameerr.ErrInvalidState)
	})

	t.Run("dialogue without transcript", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.controller.StartCase(ctx, "case01"))
		require.ErrorIs(t, f.controller.StartInterrogation(ctx, "d2"), gameerr.ErrInvalidState)
		require.ErrorIs(t, f.controller.StartInterrogation(ctx, ""), gameerr.ErrInvalidArgument)
		require.False(t, f.recorder.IsRecording())
	})

	t.Run("already active", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.controller.StartCase(ctx, "case01"))
		require.NoError(t, f.controller.StartInterrogation(ctx, "d1"))
		require.ErrorIs(t, f.controller.StartInterrogation(ctx, "d1"), gameerr.ErrInvalidState)
	})

	t.Run("completed case", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.controller.StartCase(ctx, "case01"))
		f.controller.CompleteCase()
		require.ErrorIs(t, f.controller.StartInterrogation(ctx, "d1"), gameerr.ErrInvalidState)
	})

	t.Run("dialogue fails to load", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.controller.StartCase(ctx, "case01"))
		require.ErrorIs(t, f.controller.StartInterrogation(ctx, "broken"), gameerr.ErrNotFound)
		require.False(t, f.recorder.IsRecording(), "recording is disarmed when the session fails to start")
		require.False(t, f.controller.IsInterrogationActive())
	})
}

func TestControllerCompleteCase(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	var completed int
	unsubscribe := f.controller.OnCaseCompleted(func(cases.CaseCompleted) { completed++ })
	defer unsubscribe()

	f.controller.CompleteCase()
	require.Zero(t, completed, "no active case")

	require.NoError(t, f.controller.StartCase(ctx, "case01"))
	f.controller.CompleteCase()
	f.controller.CompleteCase()
	require.Equal(t, 1, completed)
	require.True(t, f.controller.IsCompleted())

	require.NoError(t, f.controller.StartCase(ctx, "case01"))
	require.False(t, f.controller.IsCompleted(), "starting a case resets the completed flag")
}

func TestControllerDelegationWithoutSession(t *testing.T) {
	f := newFixture(t)
	f.controller.EndInterrogation()

	ok, err := f.controller.ContinueInterrogation()
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = f.controller.SelectChoice("accuse")
	require.NoError(t, err)
	require.False(t, ok)
}
