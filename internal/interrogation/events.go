package interrogation

import (
	"github.com/myrjola/deduce/internal/dialogue"
	"github.com/myrjola/deduce/internal/transcript"
)

type SessionStarted struct {
	CaseID     string
	DialogueID string
	Dialogue   *dialogue.Dialogue
	EntryNode  dialogue.Node
}

// SessionEnded is published when a session becomes inactive. EndedByFlow is true when the dialogue ran out of
// nodes and false when the session was ended explicitly.
type SessionEnded struct {
	CaseID      string
	DialogueID  string
	EndedByFlow bool
}

type NodeChanged struct {
	CaseID     string
	DialogueID string
	NodeID     string
	Node       dialogue.Node
}

type ChoiceSelected struct {
	CaseID     string
	DialogueID string
	NodeID     string
	ChoiceID   string
	Choice     dialogue.Choice
}

// LineRecorded is published by the Recorder after a line was stored.
type LineRecorded struct {
	Line transcript.Line
}
