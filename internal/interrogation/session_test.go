package interrogation_test

import (
	"context"
	"fmt"
	"github.com/myrjola/deduce/internal/dialogue"
	"github.com/myrjola/deduce/internal/errors"
	"github.com/myrjola/deduce/internal/gameerr"
	"github.com/myrjola/deduce/internal/interrogation"
	"github.com/myrjola/deduce/internal/testhelpers"
	"github.com/stretchr/testify/require"
	"io"
	"strings"
	"testing"
)

type dialogueRepo map[string]*dialogue.Dialogue

func (r dialogueRepo) Get(_ context.Context, caseID, dialogueID string) (*dialogue.Dialogue, error) {
	d, ok := r[strings.ToLower(caseID+"/"+dialogueID)]
	if !ok {
		return nil, errors.Wrap(gameerr.ErrNotFound, "dialogue not found")
	}
	return d, nil
}

func line(t *testing.T, id, speaker, text, next string) *dialogue.LineNode {
	t.Helper()
	n, err := dialogue.NewLineNode(id, dialogue.LineContent{
		SpeakerID:        speaker,
		Text:             text,
		TranscriptLineID: "",
		NextNodeID:       next,
	})
	require.NoError(t, err)
	return n
}

func choice(t *testing.T, id string, choices ...dialogue.Choice) *dialogue.ChoiceNode {
	t.Helper()
	n, err := dialogue.NewChoiceNode(id, choices)
	require.NoError(t, err)
	return n
}

func newDialogue(t *testing.T, dialogueID, entry string, nodes ...dialogue.Node) *dialogue.Dialogue {
	t.Helper()
	d, err := dialogue.New("case01", dialogueID, entry, nodes)
	require.NoError(t, err)
	return d
}

// recordEvents subscribes to every session topic and records the events as short strings.
func recordEvents(t *testing.T, s *interrogation.Session) *[]string {
	t.Helper()
	var events []string
	unsubscribers := []func(){
		s.OnSessionStarted(func(e interrogation.SessionStarted) {
			events = append(events, "started:"+e.DialogueID)
		}),
		s.OnNodeChanged(func(e interrogation.NodeChanged) {
			events = append(events, "node:"+e.NodeID)
		}),
		s.OnChoiceSelected(func(e interrogation.ChoiceSelected) {
			events = append(events, "choice:"+e.ChoiceID)
		}),
		s.OnSessionEnded(func(e interrogation.SessionEnded) {
			events = append(events, fmt.Sprintf("ended:%t", e.EndedByFlow))
		}),
	}
	t.Cleanup(func() {
		for _, unsubscribe := range unsubscribers {
			unsubscribe()
		}
	})
	return &events
}

func newTestSession(t *testing.T) *interrogation.Session {
	t.Helper()
	repo := dialogueRepo{
		"case01/chain": newDialogue(t, "chain", "n1",
			line(t, "n1", "witness", "one", "n2"),
			line(t, "n2", "witness", "two", "N3"),
			line(t, "n3", "witness", "three", ""),
		),
		"case01/d1": newDialogue(t, "d1", "n1",
			line(t, "n1", "witness", "I was home", "n2"),
			choice(t, "n2",
				dialogue.Choice{ID: "accuse", Text: "You did it!", NextNodeID: "n3", ConditionID: "", EffectID: ""},
				dialogue.Choice{ID: "lost", Text: "Where?", NextNodeID: "n9", ConditionID: "", EffectID: ""},
			),
			line(t, "n3", "witness", "No!", ""),
		),
		"case01/dangling": newDialogue(t, "dangling", "n1",
			line(t, "n1", "witness", "I was home", "missing"),
		),
	}
	return interrogation.NewSession(repo, testhelpers.NewLogger(io.Discard))
}

func TestSessionContinueWalksChain(t *testing.T) {
	ctx := context.Background()
	s := newTestSession(t)
	events := recordEvents(t, s)

	require.NoError(t, s.Start(ctx, "case01", "chain"))
	require.True(t, s.IsActive())

	ok, err := s.Continue()
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = s.Continue()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "n3", s.CurrentNode().ID())

	ok, err = s.Continue()
	require.NoError(t, err)
	require.False(t, ok, "no further node")
	require.False(t, s.IsActive())
	require.Nil(t, s.CurrentNode())

	require.Equal(t, []string{"started:chain", "node:n1", "node:n2", "node:n3", "ended:true"}, *events)
}

func TestSessionStart(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		caseID     string
		dialogueID string
		wantErr    error
	}{
		{name: "empty case", caseID: "", dialogueID: "d1", wantErr: gameerr.ErrInvalidArgument},
		{name: "empty dialogue", caseID: "case01", dialogueID: " ", wantErr: gameerr.ErrInvalidArgument},
		{name: "unknown dialogue", caseID: "case01", dialogueID: "nope", wantErr: gameerr.ErrNotFound},
		{name: "dialogue id ignores case", caseID: "case01", dialogueID: "D1", wantErr: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSession(t)
			events := recordEvents(t, s)
			err := s.Start(ctx, tt.caseID, tt.dialogueID)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				require.False(t, s.IsActive())
				require.Empty(t, *events)
				return
			}
			require.NoError(t, err)
			require.Equal(t, "case01", s.CaseID())
			require.Equal(t, tt.dialogueID, s.DialogueID())
			require.NotNil(t, s.Dialogue())
		})
	}

	t.Run("already active", func(t *testing.T) {
		s := newTestSession(t)
		require.NoError(t, s.Start(ctx, "case01", "d1"))
		err := s.Start(ctx, "case01", "chain")
		require.ErrorIs(t, err, gameerr.ErrInvalidState)
		require.Equal(t, "d1", s.DialogueID())
	})
}

func TestSessionChoices(t *testing.T) {
	ctx := context.Background()
	s := newTestSession(t)
	events := recordEvents(t, s)
	require.NoError(t, s.Start(ctx, "case01", "d1"))

	ok, err := s.SelectChoice("accuse")
	require.NoError(t, err)
	require.False(t, ok, "current node is a line")

	ok, err = s.Continue()
	require.NoError(t, err)
	require.True(t, ok)
	current := s.CurrentNode()
	require.Equal(t, "n2", current.ID())

	ok, err = s.Continue()
	require.NoError(t, err)
	require.False(t, ok, "continue on a choice node")
	require.Same(t, current, s.CurrentNode())

	ok, err = s.SelectChoice("bribe")
	require.NoError(t, err)
	require.False(t, ok)
	require.Same(t, current, s.CurrentNode())

	ok, err = s.SelectChoice("ACCUSE")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "n3", s.CurrentNode().ID())

	require.Equal(t, []string{"started:d1", "node:n1", "node:n2", "choice:accuse", "node:n3"}, *events)
}

func TestSessionDanglingReferences(t *testing.T) {
	ctx := context.Background()

	t.Run("next node", func(t *testing.T) {
		s := newTestSession(t)
		require.NoError(t, s.Start(ctx, "case01", "dangling"))
		ok, err := s.Continue()
		require.ErrorIs(t, err, gameerr.ErrContentIntegrity)
		require.False(t, ok)
		require.Equal(t, "n1", s.CurrentNode().ID())
	})

	t.Run("choice target", func(t *testing.T) {
		s := newTestSession(t)
		events := recordEvents(t, s)
		require.NoError(t, s.Start(ctx, "case01", "d1"))
		_, err := s.Continue()
		require.NoError(t, err)
		ok, err := s.SelectChoice("lost")
		require.ErrorIs(t, err, gameerr.ErrContentIntegrity)
		require.False(t, ok)
		require.Equal(t, "n2", s.CurrentNode().ID())
		require.Equal(t, []string{"started:d1", "node:n1", "node:n2", "choice:lost"}, *events)
	})
}

func TestSessionEnd(t *testing.T) {
	ctx := context.Background()
	s := newTestSession(t)
	events := recordEvents(t, s)

	s.End()
	require.Empty(t, *events, "ending an inactive session is a no-op")

	require.NoError(t, s.Start(ctx, "case01", "d1"))
	s.End()
	s.End()
	require.False(t, s.IsActive())
	require.Equal(t, []string{"started:d1", "node:n1", "ended:false"}, *events)

	ok, err := s.Continue()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestSessionSubscriberMayCallBack(t *testing.T) {
	ctx := context.Background()
	s := newTestSession(t)
	events := recordEvents(t, s)
	unsubscribe := s.OnChoiceSelected(func(interrogation.ChoiceSelected) {
		s.End()
	})
	defer unsubscribe()

	require.NoError(t, s.Start(ctx, "case01", "d1"))
	_, err := s.Continue()
	require.NoError(t, err)

	ok, err := s.SelectChoice("accuse")
	require.NoError(t, err)
	require.False(t, ok, "session ended by a subscriber before moving")
	require.False(t, s.IsActive())
	require.Equal(t, []string{"started:d1", "node:n1", "node:n2", "choice:accuse", "ended:false"}, *events)
}
