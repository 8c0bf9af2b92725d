// Package game assembles the interrogation, transcript, evidence and deduction components for one player working
// on one case.
package game

import (
	"context"
	"fmt"
	"github.com/myrjola/deduce/internal/cases"
	"github.com/myrjola/deduce/internal/content"
	"github.com/myrjola/deduce/internal/errors"
	"github.com/myrjola/deduce/internal/evidence"
	"github.com/myrjola/deduce/internal/gameerr"
	"github.com/myrjola/deduce/internal/interrogation"
	"github.com/myrjola/deduce/internal/relations"
	"github.com/myrjola/deduce/internal/transcript"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// MetaUnlockEvidence is the node metadata key listing evidence ids, separated by commas, that unlock when the node
// is reached.
const MetaUnlockEvidence = "unlock_evidence"

type EvidenceSource interface {
	All(ctx context.Context, caseID string) ([]*evidence.Evidence, error)
}

type RelationSource interface {
	Graph(ctx context.Context, caseID string) (*relations.Graph, error)
}

type ProgressSource interface {
	Get(ctx context.Context, caseID string) (*cases.ProgressDefinition, error)
}

// Deps are the content sources and the transcript store shared by games.
type Deps struct {
	Cases       cases.Repository
	Dialogues   interrogation.DialogueRepository
	Evidence    EvidenceSource
	Relations   RelationSource
	Progress    ProgressSource
	Transcripts transcript.Store
	Logger      *slog.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// LibraryDeps reads all content from lib.
func LibraryDeps(lib *content.Library, transcripts transcript.Store, logger *slog.Logger) Deps {
	return Deps{
		Cases:       lib.Cases,
		Dialogues:   lib.Dialogues,
		Evidence:    lib.Evidence,
		Relations:   lib.Relations,
		Progress:    lib.Progress,
		Transcripts: transcripts,
		Logger:      logger,
		Now:         time.Now,
	}
}

// Game is one player's run through one case.
type Game struct {
	caseID      string
	definition  *cases.Definition
	evidence    []*evidence.Evidence
	graph       *relations.Graph
	transcripts transcript.Store
	logger      *slog.Logger

	session    *interrogation.Session
	recorder   *interrogation.Recorder
	controller *cases.Controller
	progress   *cases.ProgressTracker
	found      *relations.FoundTracker
	selection  *relations.LinkSelection
	unlocks    *evidence.UnlockService
	journal    *Journal

	// mu serializes commands.
	mu sync.Mutex
	// selectMu is held for a whole Select or ClearSelection so lastSelection belongs to the running call.
	selectMu      sync.Mutex
	lastSelection relations.SelectionState
	unsubscribe   []func()
	closed        bool
}

// New loads the case and starts it. Evidence marked to unlock on start is unlocked before New returns.
func New(ctx context.Context, deps Deps, caseID string) (*Game, error) {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	definition, err := deps.Cases.Get(ctx, caseID)
	if err != nil {
		return nil, errors.Wrap(err, "load case", slog.String("case_id", caseID))
	}
	caseID = definition.CaseID()

	items, err := deps.Evidence.All(ctx, caseID)
	if err != nil && !errors.Is(err, gameerr.ErrNotFound) {
		return nil, errors.Wrap(err, "load evidence", slog.String("case_id", caseID))
	}
	graph, err := deps.Relations.Graph(ctx, caseID)
	if errors.Is(err, gameerr.ErrNotFound) {
		graph, err = relations.NewGraph(nil)
	}
	if err != nil {
		return nil, errors.Wrap(err, "load relations", slog.String("case_id", caseID))
	}
	progressDefinition, err := deps.Progress.Get(ctx, caseID)
	if errors.Is(err, gameerr.ErrNotFound) {
		progressDefinition, err = cases.NewProgressDefinition(caseID, nil, 0)
	}
	if err != nil {
		return nil, errors.Wrap(err, "load progress", slog.String("case_id", caseID))
	}

	logger := deps.Logger.With("source", "game.Game", slog.String("case_id", caseID))
	session := interrogation.NewSession(deps.Dialogues, deps.Logger)
	recorder := interrogation.NewRecorder(session, deps.Transcripts, deps.Logger)
	progress := cases.NewProgressTracker(progressDefinition)
	found := relations.NewFoundTracker(progress)
	g := &Game{ //nolint:exhaustruct // filled below
		caseID:      caseID,
		definition:  definition,
		evidence:    items,
		graph:       graph,
		transcripts: deps.Transcripts,
		logger:      logger,
		session:     session,
		recorder:    recorder,
		controller:  cases.NewController(deps.Cases, session, recorder, deps.Logger),
		progress:    progress,
		found:       found,
		selection:   relations.NewLinkSelection(relations.NewPairMatcher(graph), found),
		unlocks:     evidence.NewUnlockService(),
		journal:     newJournal(now),
	}
	g.subscribe()

	if err = g.controller.StartCase(ctx, caseID); err != nil {
		g.Close()
		return nil, errors.Wrap(err, "start case", slog.String("case_id", caseID))
	}
	for _, e := range items {
		if !e.UnlockOnStart() {
			continue
		}
		if _, err = g.unlocks.Unlock(caseID, e.ID()); err != nil {
			g.Close()
			return nil, errors.Wrap(err, "unlock evidence on start", slog.String("evidence_id", e.ID()))
		}
	}
	return g, nil
}

func (g *Game) subscribe() {
	g.unsubscribe = append(g.unsubscribe,
		g.controller.OnCaseStarted(func(e cases.CaseStarted) {
			g.journal.add(EntryCase, "Case opened: "+e.Definition.Title())
		}),
		g.controller.OnCaseCompleted(func(cases.CaseCompleted) {
			g.journal.add(EntryCase, "Case closed.")
		}),
		g.session.OnSessionStarted(func(e interrogation.SessionStarted) {
			g.journal.add(EntryInterrogation, "Interrogation started: "+g.subjectName(e.DialogueID))
		}),
		g.session.OnSessionEnded(func(e interrogation.SessionEnded) {
			g.journal.add(EntryInterrogation, "Interrogation ended: "+g.subjectName(e.DialogueID))
		}),
		g.session.OnChoiceSelected(func(e interrogation.ChoiceSelected) {
			g.journal.add(EntryInterrogation, "You: "+e.Choice.Text)
		}),
		g.session.OnNodeChanged(g.unlockFromNode),
		g.recorder.OnLineRecorded(func(e interrogation.LineRecorded) {
			g.journal.add(EntryLine, e.Line.SpeakerID+": "+e.Line.Text)
		}),
		g.unlocks.OnEvidenceUnlocked(func(e evidence.Unlocked) {
			g.journal.add(EntryEvidence, "Evidence unlocked: "+g.evidenceTitle(e.EvidenceID))
		}),
		g.selection.OnSelectionChanged(g.handleSelectionChanged),
		g.found.OnRelationDiscovered(func(e relations.RelationDiscovered) {
			g.journal.add(EntryDiscovery, fmt.Sprintf("Discovered %s: %s", e.Relation.Type(), e.Relation.Title()))
		}),
		g.progress.OnStatusChanged(func(e cases.StatusChanged) {
			g.journal.add(EntryStatus, fmt.Sprintf("Status changed from %s to %s", e.Old, e.New))
		}),
	)
}

func (g *Game) unlockFromNode(e interrogation.NodeChanged) {
	if e.Node == nil {
		return
	}
	ids, ok := e.Node.Metadata()[MetaUnlockEvidence]
	if !ok {
		return
	}
	for _, id := range strings.Split(ids, ",") {
		item := g.findEvidence(strings.TrimSpace(id))
		if item == nil {
			g.logger.Warn("node unlocks unknown evidence",
				slog.String("node_id", e.NodeID), slog.String("evidence_id", id))
			continue
		}
		if _, err := g.unlocks.Unlock(g.caseID, item.ID()); err != nil {
			g.logger.Error("unlock evidence", errors.SlogError(err))
		}
	}
}

func (g *Game) handleSelectionChanged(e relations.SelectionChanged) {
	g.mu.Lock()
	g.lastSelection = e.State
	g.mu.Unlock()

	result := e.State.LastResult
	switch {
	case e.State.First != nil && e.State.Second == nil:
		g.journal.add(EntrySelection, "Selected "+e.State.First.DisplayName)
	case result != nil && !result.HasMatch():
		g.journal.add(EntrySelection, "These facts do not connect.")
	case result != nil && !e.State.NewDiscovery:
		g.journal.add(EntrySelection, "You already connected these facts.")
	}
}

// CaseID returns the case id as authored.
func (g *Game) CaseID() string {
	return g.caseID
}

func (g *Game) Definition() *cases.Definition {
	return g.definition
}

// Journal returns what happened so far, oldest first.
func (g *Game) Journal() []Entry {
	return g.journal.Entries()
}

// JournalSince returns the entries added after the entry numbered seq.
func (g *Game) JournalSince(seq int) []Entry {
	return g.journal.Since(seq)
}

// Talk starts interrogating the subject of dialogueID.
func (g *Game) Talk(ctx context.Context, dialogueID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.checkOpen(); err != nil {
		return err
	}
	if !g.definition.HasDialogue(dialogueID) {
		return errors.Wrap(gameerr.ErrInvalidArgument, "unknown dialogue",
			slog.String("case_id", g.caseID), slog.String("dialogue_id", dialogueID))
	}
	return g.controller.StartInterrogation(ctx, dialogueID) //nolint:wrapcheck // already annotated
}

// Continue advances past the current line. It returns false when nothing happened.
func (g *Game) Continue() (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.checkOpen(); err != nil {
		return false, err
	}
	return g.controller.ContinueInterrogation() //nolint:wrapcheck // already annotated
}

// Choose picks a choice of the current choice node. It returns false when no such choice is offered.
func (g *Game) Choose(choiceID string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.checkOpen(); err != nil {
		return false, err
	}
	return g.controller.SelectChoice(choiceID) //nolint:wrapcheck // already annotated
}

// Leave ends the running interrogation, if any.
func (g *Game) Leave() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.controller.EndInterrogation()
}

// Select picks the anchor written as "<source>:<object>[#sub]".
//
// Evidence must be unlocked and transcript lines must be recorded before they can be selected. The returned state
// carries the match result when the anchor completed a pair.
func (g *Game) Select(ctx context.Context, anchorText string) (relations.SelectionState, error) {
	g.selectMu.Lock()
	defer g.selectMu.Unlock()

	g.mu.Lock()
	if err := g.checkOpen(); err != nil {
		g.mu.Unlock()
		return relations.SelectionState{}, err //nolint:exhaustruct // error
	}
	g.mu.Unlock()

	parsed, err := relations.ParseAnchor(g.caseID, anchorText)
	if err != nil {
		return relations.SelectionState{}, err //nolint:exhaustruct // error
	}
	selected, err := g.resolveAnchor(ctx, parsed)
	if err != nil {
		return relations.SelectionState{}, err //nolint:exhaustruct // error
	}
	if err = g.selection.HandleAnchorSelected(selected); err != nil {
		return relations.SelectionState{}, errors.Wrap(err, "select anchor", //nolint:exhaustruct // error
			slog.Any("anchor", selected.Anchor))
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastSelection, nil
}

// resolveAnchor checks that the player can see the fact an anchor points at and names it for display.
func (g *Game) resolveAnchor(ctx context.Context, anchor relations.AnchorID) (relations.AnchorSelected, error) {
	switch anchor.SourceType {
	case relations.SourceEvidence:
		item := g.findEvidence(anchor.ObjectID)
		if item == nil {
			return relations.AnchorSelected{}, errors.Wrap(gameerr.ErrInvalidArgument, //nolint:exhaustruct // error
				"unknown evidence", slog.Any("anchor", anchor))
		}
		unlocked, err := g.unlocks.IsDiscovered(g.caseID, item.ID())
		if err != nil {
			return relations.AnchorSelected{}, err //nolint:exhaustruct // error
		}
		if !unlocked {
			return relations.AnchorSelected{}, errors.Wrap(gameerr.ErrInvalidState, //nolint:exhaustruct // error
				"evidence is not unlocked", slog.Any("anchor", anchor))
		}
		return relations.AnchorSelected{Anchor: anchor, DisplayName: item.Title()}, nil
	case relations.SourceTranscript:
		lines, err := g.transcripts.CaseLines(ctx, g.caseID)
		if err != nil {
			return relations.AnchorSelected{}, errors.Wrap(err, "read transcript") //nolint:exhaustruct // error
		}
		for _, line := range lines {
			lineID := line.Metadata[transcript.MetaTranscriptLineID]
			if lineID != "" && strings.EqualFold(lineID, anchor.ObjectID) {
				return relations.AnchorSelected{Anchor: anchor, DisplayName: quote(line)}, nil
			}
		}
		return relations.AnchorSelected{}, errors.Wrap(gameerr.ErrInvalidState, //nolint:exhaustruct // error
			"transcript line is not recorded", slog.Any("anchor", anchor))
	}
	return relations.AnchorSelected{}, errors.Wrap(gameerr.ErrInvalidArgument, //nolint:exhaustruct // error
		"unknown anchor source", slog.Any("anchor", anchor))
}

// ClearSelection empties the selection slots.
func (g *Game) ClearSelection() {
	g.selectMu.Lock()
	defer g.selectMu.Unlock()
	g.selection.ClearSelection()
}

// MarkEvidenceRead clears the new flag of unlocked evidence.
func (g *Game) MarkEvidenceRead(evidenceID string) error {
	item := g.findEvidence(evidenceID)
	if item == nil {
		return errors.Wrap(gameerr.ErrInvalidArgument, "unknown evidence", slog.String("evidence_id", evidenceID))
	}
	return g.unlocks.MarkAsRead(g.caseID, item.ID()) //nolint:wrapcheck // ids are valid
}

// Submit hands in a case that is ready for submission and completes it.
func (g *Game) Submit() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.checkOpen(); err != nil {
		return err
	}
	if err := g.progress.Submit(); err != nil {
		return err //nolint:wrapcheck // already annotated
	}
	g.controller.EndInterrogation()
	g.controller.CompleteCase()
	return nil
}

func (g *Game) Status() cases.Status {
	return g.progress.Status()
}

// Close ends any interrogation and detaches all subscriptions. Calling it again does nothing.
func (g *Game) Close() {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return
	}
	g.closed = true
	unsubscribe := g.unsubscribe
	g.unsubscribe = nil
	g.mu.Unlock()

	for _, u := range unsubscribe {
		u()
	}
	g.controller.EndInterrogation()
	g.recorder.Close()
}

func (g *Game) checkOpen() error {
	if g.closed {
		return errors.Wrap(gameerr.ErrInvalidState, "game is closed", slog.String("case_id", g.caseID))
	}
	return nil
}

func (g *Game) findEvidence(evidenceID string) *evidence.Evidence {
	for _, e := range g.evidence {
		if strings.EqualFold(e.ID(), evidenceID) {
			return e
		}
	}
	return nil
}

func (g *Game) evidenceTitle(evidenceID string) string {
	if e := g.findEvidence(evidenceID); e != nil {
		return e.Title()
	}
	return evidenceID
}

func (g *Game) subjectName(dialogueID string) string {
	if subject, ok := g.definition.SubjectID(dialogueID); ok && subject != "" {
		return subject
	}
	return dialogueID
}

func quote(line transcript.Line) string {
	return fmt.Sprintf("%s: %q", line.SpeakerID, line.Text)
}
