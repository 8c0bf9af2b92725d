package dialogue_test

import (
	"github.com/myrjola/deduce/internal/dialogue"
	"github.com/myrjola/deduce/internal/errors"
	"github.com/myrjola/deduce/internal/gameerr"
	"github.com/stretchr/testify/require"
	"testing"
)

func mustLine(t *testing.T, id string, content dialogue.LineContent, opts ...dialogue.NodeOption) *dialogue.LineNode {
	t.Helper()
	n, err := dialogue.NewLineNode(id, content, opts...)
	require.NoError(t, err)
	return n
}

func mustChoice(t *testing.T, id string, choices ...dialogue.Choice) *dialogue.ChoiceNode {
	t.Helper()
	n, err := dialogue.NewChoiceNode(id, choices)
	require.NoError(t, err)
	return n
}

func TestNewLineNode(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		content dialogue.LineContent
		wantErr error
	}{
		{
			name:    "text only",
			id:      "n1",
			content: dialogue.LineContent{SpeakerID: "", Text: "Hello", TranscriptLineID: "", NextNodeID: ""},
			wantErr: nil,
		},
		{
			name:    "transcript line only",
			id:      "n1",
			content: dialogue.LineContent{SpeakerID: "", Text: "", TranscriptLineID: "t1-1", NextNodeID: ""},
			wantErr: nil,
		},
		{
			name:    "neither text nor transcript line",
			id:      "n1",
			content: dialogue.LineContent{SpeakerID: "witness", Text: "  ", TranscriptLineID: "", NextNodeID: "n2"},
			wantErr: gameerr.ErrInvalidArgument,
		},
		{
			name:    "blank id",
			id:      " ",
			content: dialogue.LineContent{SpeakerID: "", Text: "Hello", TranscriptLineID: "", NextNodeID: ""},
			wantErr: gameerr.ErrInvalidArgument,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := dialogue.NewLineNode(tt.id, tt.content)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, dialogue.NodeKindLine, n.Kind())
		})
	}
}

func TestLineNodeNormalizesOptionalFields(t *testing.T) {
	n := mustLine(t, "n1",
		dialogue.LineContent{SpeakerID: " ", Text: "Hello", TranscriptLineID: "", NextNodeID: "\t"},
		dialogue.WithTags("intro", " "),
		dialogue.WithMetadata(map[string]string{"mood": "calm", "": "dropped"}),
	)
	require.Empty(t, n.SpeakerID())
	require.False(t, n.HasNext())
	require.Equal(t, []string{"intro"}, n.Tags())
	require.Equal(t, map[string]string{"mood": "calm"}, n.Metadata())

	// Returned collections are copies.
	n.Metadata()["mood"] = "angry"
	v, ok := n.MetadataValue("mood")
	require.True(t, ok)
	require.Equal(t, "calm", v)
}

func TestNewChoiceNode(t *testing.T) {
	valid := dialogue.Choice{ID: "accuse", Text: "You did it!", NextNodeID: "n3", ConditionID: "", EffectID: ""}
	tests := []struct {
		name    string
		choices []dialogue.Choice
		wantErr error
	}{
		{name: "valid", choices: []dialogue.Choice{valid}, wantErr: nil},
		{name: "no choices", choices: nil, wantErr: gameerr.ErrInvalidArgument},
		{
			name: "missing target",
			choices: []dialogue.Choice{
				{ID: "accuse", Text: "You did it!", NextNodeID: "", ConditionID: "", EffectID: ""},
			},
			wantErr: gameerr.ErrInvalidArgument,
		},
		{
			name: "missing id",
			choices: []dialogue.Choice{
				{ID: "", Text: "You did it!", NextNodeID: "n3", ConditionID: "", EffectID: ""},
			},
			wantErr: gameerr.ErrInvalidArgument,
		},
		{
			name: "missing text",
			choices: []dialogue.Choice{
				{ID: "accuse", Text: "", NextNodeID: "n3", ConditionID: "", EffectID: ""},
			},
			wantErr: gameerr.ErrInvalidArgument,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := dialogue.NewChoiceNode("n2", tt.choices)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, dialogue.NodeKindChoice, n.Kind())
			require.Equal(t, tt.choices, n.Choices())
		})
	}
}

func TestFindChoiceIgnoresCase(t *testing.T) {
	n := mustChoice(t, "n2",
		dialogue.Choice{ID: "Accuse", Text: "You did it!", NextNodeID: "n3", ConditionID: "", EffectID: ""},
		dialogue.Choice{ID: "leave", Text: "Goodbye.", NextNodeID: "n4", ConditionID: "", EffectID: ""},
	)
	c, ok := n.FindChoice("ACCUSE")
	require.True(t, ok)
	require.Equal(t, "n3", c.NextNodeID)

	_, ok = n.FindChoice("bribe")
	require.False(t, ok)
}

func TestNew(t *testing.T) {
	entry := mustLine(t, "N1", dialogue.LineContent{SpeakerID: "witness", Text: "I was home", TranscriptLineID: "",
		NextNodeID: "n2"})
	choice := mustChoice(t, "n2",
		dialogue.Choice{ID: "accuse", Text: "You did it!", NextNodeID: "n1", ConditionID: "", EffectID: ""})

	t.Run("entry resolves ignoring case", func(t *testing.T) {
		d, err := dialogue.New("case01", "d1", "n1", []dialogue.Node{entry, choice})
		require.NoError(t, err)
		require.Same(t, entry, d.EntryNode())
		n, err := d.GetNode("N2")
		require.NoError(t, err)
		require.Same(t, choice, n)
		require.Equal(t, []dialogue.Node{entry, choice}, d.Nodes())
		require.Equal(t, 2, d.Len())
		require.NoError(t, d.CheckReferences())
	})

	t.Run("unresolvable entry", func(t *testing.T) {
		_, err := dialogue.New("case01", "d1", "missing", []dialogue.Node{entry, choice})
		require.ErrorIs(t, err, gameerr.ErrContentIntegrity)
	})

	t.Run("duplicate node id", func(t *testing.T) {
		dup := mustLine(t, "n1", dialogue.LineContent{SpeakerID: "", Text: "again", TranscriptLineID: "",
			NextNodeID: ""})
		_, err := dialogue.New("case01", "d1", "n1", []dialogue.Node{entry, dup})
		require.ErrorIs(t, err, gameerr.ErrContentIntegrity)
	})

	t.Run("empty ids", func(t *testing.T) {
		_, err := dialogue.New("", "d1", "n1", []dialogue.Node{entry})
		require.ErrorIs(t, err, gameerr.ErrInvalidArgument)
		_, err = dialogue.New("case01", "", "n1", []dialogue.Node{entry})
		require.ErrorIs(t, err, gameerr.ErrInvalidArgument)
		_, err = dialogue.New("case01", "d1", "", []dialogue.Node{entry})
		require.ErrorIs(t, err, gameerr.ErrInvalidArgument)
	})

	t.Run("missing node", func(t *testing.T) {
		d, err := dialogue.New("case01", "d1", "n1", []dialogue.Node{entry, choice})
		require.NoError(t, err)
		_, ok := d.Node("n9")
		require.False(t, ok)
		_, err = d.GetNode("n9")
		require.ErrorIs(t, err, gameerr.ErrContentIntegrity)
	})
}

func TestCheckReferences(t *testing.T) {
	entry := mustLine(t, "n1", dialogue.LineContent{SpeakerID: "witness", Text: "I was home", TranscriptLineID: "",
		NextNodeID: "gone"})
	choice := mustChoice(t, "n2",
		dialogue.Choice{ID: "accuse", Text: "You did it!", NextNodeID: "nowhere", ConditionID: "", EffectID: ""})
	d, err := dialogue.New("case01", "d1", "n1", []dialogue.Node{entry, choice})
	require.NoError(t, err)

	err = d.CheckReferences()
	require.ErrorIs(t, err, gameerr.ErrContentIntegrity)
	require.Contains(t, err.Error(), "dangling next node id")
	require.Contains(t, err.Error(), "dangling choice target")

	var annotated *errors.AnnotatedError
	require.True(t, errors.As(err, &annotated))
}
