package cases_test

import (
	"github.com/myrjola/deduce/internal/cases"
	"github.com/myrjola/deduce/internal/gameerr"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestNewDefinition(t *testing.T) {
	tests := []struct {
		name      string
		caseID    string
		entry     string
		dialogues []cases.DialogueRef
		wantErr   error
	}{
		{
			name:   "valid",
			caseID: "case01",
			entry:  "D1",
			dialogues: []cases.DialogueRef{
				{DialogueID: "d1", TranscriptID: "t1", SubjectID: "witness"},
				{DialogueID: " ", TranscriptID: "ignored", SubjectID: ""},
			},
			wantErr: nil,
		},
		{name: "empty case id", caseID: "", entry: "d1", dialogues: nil, wantErr: gameerr.ErrInvalidArgument},
		{name: "empty entry", caseID: "case01", entry: "", dialogues: nil, wantErr: gameerr.ErrInvalidArgument},
		{name: "no dialogues", caseID: "case01", entry: "d1", dialogues: nil, wantErr: gameerr.ErrInvalidArgument},
		{
			name:      "entry without transcript",
			caseID:    "case01",
			entry:     "d1",
			dialogues: []cases.DialogueRef{{DialogueID: "d1", TranscriptID: "", SubjectID: ""}},
			wantErr:   gameerr.ErrInvalidArgument,
		},
		{
			name:   "duplicate dialogue",
			caseID: "case01",
			entry:  "d1",
			dialogues: []cases.DialogueRef{
				{DialogueID: "d1", TranscriptID: "t1", SubjectID: ""},
				{DialogueID: "D1", TranscriptID: "t2", SubjectID: ""},
			},
			wantErr: gameerr.ErrContentIntegrity,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := cases.NewDefinition(tt.caseID, tt.entry, tt.dialogues, cases.WithTitle(" The Locked Room "))
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, []string{"d1"}, d.DialogueIDs())
			require.Equal(t, "The Locked Room", d.Title())
			require.True(t, d.HasDialogue("D1"))

			transcriptID, ok := d.TranscriptID("D1")
			require.True(t, ok)
			require.Equal(t, "t1", transcriptID)
			subjectID, ok := d.SubjectID("d1")
			require.True(t, ok)
			require.Equal(t, "witness", subjectID)
		})
	}
}
