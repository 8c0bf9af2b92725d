// Package interrogation walks dialogues one node at a time and records the spoken lines into transcripts.
package interrogation

import (
	"context"
	"github.com/myrjola/deduce/internal/broker"
	"github.com/myrjola/deduce/internal/dialogue"
	"github.com/myrjola/deduce/internal/errors"
	"github.com/myrjola/deduce/internal/gameerr"
	"log/slog"
	"strings"
	"sync"
)

// DialogueRepository loads immutable dialogues.
type DialogueRepository interface {
	Get(ctx context.Context, caseID, dialogueID string) (*dialogue.Dialogue, error)
}

// Session is the interrogation state machine. It is either inactive or walking exactly one dialogue.
//
// Events are published after the state change and without holding the lock, so subscribers may call back into
// the session.
type Session struct {
	dialogues DialogueRepository
	logger    *slog.Logger

	mu         sync.Mutex
	active     bool
	caseID     string
	dialogueID string
	dialogue   *dialogue.Dialogue
	current    dialogue.Node

	started        broker.Topic[SessionStarted]
	ended          broker.Topic[SessionEnded]
	nodeChanged    broker.Topic[NodeChanged]
	choiceSelected broker.Topic[ChoiceSelected]
}

func NewSession(dialogues DialogueRepository, logger *slog.Logger) *Session {
	return &Session{ //nolint:exhaustruct // zero values are the inactive state
		dialogues: dialogues,
		logger:    logger.With("source", "interrogation.Session"),
	}
}

func (s *Session) OnSessionStarted(handler func(SessionStarted)) func() {
	return s.started.Subscribe(handler)
}

func (s *Session) OnSessionEnded(handler func(SessionEnded)) func() {
	return s.ended.Subscribe(handler)
}

func (s *Session) OnNodeChanged(handler func(NodeChanged)) func() {
	return s.nodeChanged.Subscribe(handler)
}

func (s *Session) OnChoiceSelected(handler func(ChoiceSelected)) func() {
	return s.choiceSelected.Subscribe(handler)
}

// Start loads the dialogue and moves to its entry node.
//
// Repository errors are returned as they are. Publishes SessionStarted and then NodeChanged for the entry node.
func (s *Session) Start(ctx context.Context, caseID, dialogueID string) error {
	if strings.TrimSpace(caseID) == "" {
		return errors.Wrap(gameerr.ErrInvalidArgument, "case id is empty")
	}
	if strings.TrimSpace(dialogueID) == "" {
		return errors.Wrap(gameerr.ErrInvalidArgument, "dialogue id is empty", slog.String("case_id", caseID))
	}

	s.mu.Lock()
	if s.active {
		s.mu.Unlock()
		return errors.Wrap(gameerr.ErrInvalidState, "interrogation session already active",
			slog.String("case_id", s.caseID), slog.String("dialogue_id", s.dialogueID))
	}

	d, err := s.dialogues.Get(ctx, caseID, dialogueID)
	if err != nil {
		s.mu.Unlock()
		return err //nolint:wrapcheck // repository errors propagate unchanged
	}
	entry, err := d.GetNode(d.EntryNodeID())
	if err != nil {
		s.mu.Unlock()
		return err
	}

	s.active = true
	s.caseID = caseID
	s.dialogueID = dialogueID
	s.dialogue = d
	s.current = entry
	s.mu.Unlock()

	s.logger.LogAttrs(ctx, slog.LevelDebug, "interrogation started",
		slog.String("case_id", caseID), slog.String("dialogue_id", dialogueID))
	s.started.Publish(SessionStarted{CaseID: caseID, DialogueID: dialogueID, Dialogue: d, EntryNode: entry})
	s.nodeChanged.Publish(NodeChanged{CaseID: caseID, DialogueID: dialogueID, NodeID: entry.ID(), Node: entry})
	return nil
}

// Continue advances from the current line node.
//
// It returns false without changing anything when the session is inactive or waiting for a choice. A line without
// a next node ends the session by flow and also returns false. A next node missing from the dialogue is reported as
// a content integrity error.
func (s *Session) Continue() (bool, error) {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return false, nil
	}
	line, ok := s.current.(*dialogue.LineNode)
	if !ok {
		s.mu.Unlock()
		return false, nil
	}
	caseID, dialogueID := s.caseID, s.dialogueID

	if !line.HasNext() {
		s.deactivate()
		s.mu.Unlock()
		s.logger.Debug("interrogation ended by flow",
			slog.String("case_id", caseID), slog.String("dialogue_id", dialogueID))
		s.ended.Publish(SessionEnded{CaseID: caseID, DialogueID: dialogueID, EndedByFlow: true})
		return false, nil
	}

	next, err := s.dialogue.GetNode(line.NextNodeID())
	if err != nil {
		s.mu.Unlock()
		return false, errors.Wrap(err, "continue interrogation", slog.String("from_node_id", line.ID()))
	}
	s.current = next
	s.mu.Unlock()

	s.nodeChanged.Publish(NodeChanged{CaseID: caseID, DialogueID: dialogueID, NodeID: next.ID(), Node: next})
	return true, nil
}

// SelectChoice picks a choice of the current choice node, ignoring case in the id.
//
// It returns false without changing anything when the session is inactive, the current node is not a choice node
// or no choice matches. ChoiceSelected is published before moving to the choice target.
func (s *Session) SelectChoice(choiceID string) (bool, error) {
	if strings.TrimSpace(choiceID) == "" {
		return false, nil
	}

	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return false, nil
	}
	node, ok := s.current.(*dialogue.ChoiceNode)
	if !ok {
		s.mu.Unlock()
		return false, nil
	}
	choice, ok := node.FindChoice(choiceID)
	if !ok {
		s.mu.Unlock()
		return false, nil
	}
	caseID, dialogueID, d := s.caseID, s.dialogueID, s.dialogue
	s.mu.Unlock()

	s.choiceSelected.Publish(ChoiceSelected{
		CaseID:     caseID,
		DialogueID: dialogueID,
		NodeID:     node.ID(),
		ChoiceID:   choice.ID,
		Choice:     choice,
	})

	target, err := d.GetNode(choice.NextNodeID)
	if err != nil {
		return false, errors.Wrap(err, "select choice",
			slog.String("from_node_id", node.ID()), slog.String("choice_id", choice.ID))
	}

	s.mu.Lock()
	// A ChoiceSelected subscriber may have ended or moved the session.
	if !s.active || s.dialogue != d || s.current != dialogue.Node(node) {
		s.mu.Unlock()
		return false, nil
	}
	s.current = target
	s.mu.Unlock()

	s.nodeChanged.Publish(NodeChanged{CaseID: caseID, DialogueID: dialogueID, NodeID: target.ID(), Node: target})
	return true, nil
}

// End stops an active session. Ending an inactive session does nothing.
func (s *Session) End() {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	caseID, dialogueID := s.caseID, s.dialogueID
	s.deactivate()
	s.mu.Unlock()

	s.logger.Debug("interrogation ended", slog.String("case_id", caseID), slog.String("dialogue_id", dialogueID))
	s.ended.Publish(SessionEnded{CaseID: caseID, DialogueID: dialogueID, EndedByFlow: false})
}

// deactivate must be called with the lock held.
func (s *Session) deactivate() {
	s.active = false
	s.caseID = ""
	s.dialogueID = ""
	s.dialogue = nil
	s.current = nil
}

func (s *Session) IsActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// CurrentNode returns nil when the session is inactive.
func (s *Session) CurrentNode() dialogue.Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *Session) CaseID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.caseID
}

func (s *Session) DialogueID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dialogueID
}

// Dialogue returns nil when the session is inactive.
func (s *Session) Dialogue() *dialogue.Dialogue {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dialogue
}
