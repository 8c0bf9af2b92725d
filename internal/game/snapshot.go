package game

import (
	"context"
	"github.com/myrjola/deduce/internal/cases"
	"github.com/myrjola/deduce/internal/dialogue"
	"github.com/myrjola/deduce/internal/errors"
	"github.com/myrjola/deduce/internal/relations"
	"github.com/myrjola/deduce/internal/transcript"
	"log/slog"
)

type DialogueView struct {
	ID        string
	SubjectID string
}

type ChoiceView struct {
	ID   string
	Text string
}

// InterrogationView is the node the running interrogation stands on. Choices is empty on a line node.
type InterrogationView struct {
	DialogueID string
	NodeID     string
	SpeakerID  string
	Text       string
	Choices    []ChoiceView
}

type EvidenceView struct {
	ID          string
	Title       string
	Type        string
	Description string
	New         bool
	// Anchor is the text accepted by Select.
	Anchor string
}

type LineView struct {
	TranscriptID string
	Index        int
	SpeakerID    string
	Text         string
	// Anchor is empty when the line cannot take part in a relation.
	Anchor string
}

type RelationView struct {
	ID          string
	Type        relations.Type
	Title       string
	Description string
}

type ProgressView struct {
	Status                cases.Status
	Contradictions        int
	MinimumContradictions int
	RequiredFound         int
	RequiredTotal         int
}

// Snapshot is everything a player interface shows.
type Snapshot struct {
	CaseID        string
	Title         string
	Summary       string
	Completed     bool
	Dialogues     []DialogueView
	Interrogation *InterrogationView
	Evidence      []EvidenceView
	Transcript    []LineView
	// Selected is the display name of the first selected anchor, if any.
	Selected   string
	Discovered []RelationView
	Progress   ProgressView
	Journal    []Entry
}

func (g *Game) Snapshot(ctx context.Context) (Snapshot, error) {
	lines, err := g.transcripts.CaseLines(ctx, g.caseID)
	if err != nil {
		return Snapshot{}, errors.Wrap(err, "read transcript", slog.String("case_id", g.caseID)) //nolint:exhaustruct,lll // error
	}

	s := Snapshot{
		CaseID:        g.caseID,
		Title:         g.definition.Title(),
		Summary:       g.definition.Summary(),
		Completed:     g.controller.IsCompleted(),
		Dialogues:     g.dialogueViews(),
		Interrogation: g.interrogationView(),
		Evidence:      g.evidenceViews(),
		Transcript:    lineViews(g.caseID, lines),
		Selected:      "",
		Discovered:    g.discoveredViews(),
		Progress: ProgressView{
			Status:                g.progress.Status(),
			Contradictions:        g.progress.ContradictionCount(),
			MinimumContradictions: g.progress.Definition().MinimumContradictions(),
			RequiredFound:         len(g.progress.RequiredDiscovered()),
			RequiredTotal:         len(g.progress.Definition().RequiredRelationIDs()),
		},
		Journal: g.journal.Entries(),
	}
	if first := g.selection.State().First; first != nil {
		s.Selected = first.DisplayName
	}
	return s, nil
}

func (g *Game) dialogueViews() []DialogueView {
	ids := g.definition.DialogueIDs()
	views := make([]DialogueView, 0, len(ids))
	for _, id := range ids {
		subject, _ := g.definition.SubjectID(id)
		views = append(views, DialogueView{ID: id, SubjectID: subject})
	}
	return views
}

func (g *Game) interrogationView() *InterrogationView {
	if !g.session.IsActive() {
		return nil
	}
	view := &InterrogationView{ //nolint:exhaustruct // filled per node kind
		DialogueID: g.session.DialogueID(),
	}
	switch n := g.session.CurrentNode().(type) {
	case *dialogue.LineNode:
		view.NodeID = n.ID()
		view.SpeakerID = n.SpeakerID()
		view.Text = n.Text()
	case *dialogue.ChoiceNode:
		view.NodeID = n.ID()
		for _, c := range n.Choices() {
			view.Choices = append(view.Choices, ChoiceView{ID: c.ID, Text: c.Text})
		}
	default:
		// The session ended between the two calls.
		return nil
	}
	return view
}

func (g *Game) evidenceViews() []EvidenceView {
	var views []EvidenceView
	for _, id := range g.unlocks.Unlocked(g.caseID) {
		item := g.findEvidence(id)
		if item == nil {
			continue
		}
		isNew, _ := g.unlocks.IsNew(g.caseID, id)
		anchor, _ := relations.EvidenceAnchor(g.caseID, item.ID(), "")
		views = append(views, EvidenceView{
			ID:          item.ID(),
			Title:       item.Title(),
			Type:        string(item.Type()),
			Description: item.Description(),
			New:         isNew,
			Anchor:      anchor.Text(),
		})
	}
	return views
}

func lineViews(caseID string, lines []transcript.Line) []LineView {
	views := make([]LineView, 0, len(lines))
	for _, l := range lines {
		view := LineView{
			TranscriptID: l.TranscriptID,
			Index:        l.Index,
			SpeakerID:    l.SpeakerID,
			Text:         l.Text,
			Anchor:       "",
		}
		if lineID := l.Metadata[transcript.MetaTranscriptLineID]; lineID != "" {
			if anchor, err := relations.TranscriptAnchor(caseID, lineID, ""); err == nil {
				view.Anchor = anchor.Text()
			}
		}
		views = append(views, view)
	}
	return views
}

func (g *Game) discoveredViews() []RelationView {
	var views []RelationView
	for _, id := range g.found.Discovered() {
		relation, ok := g.graph.Relation(id)
		if !ok {
			continue
		}
		view := RelationView{ID: relation.ID(), Type: relation.Type(), Title: relation.Title(), Description: ""}
		if m := relation.Metadata(); m != nil {
			view.Description = m.Description
		}
		views = append(views, view)
	}
	return views
}

// Saved is the part of a game that outlives the process. Transcripts are kept by the transcript store.
type Saved struct {
	Status             cases.Status
	DiscoveredRelation []string
	UnlockedEvidence   []string
	UnreadEvidence     []string
}

func (g *Game) Save() Saved {
	unlocked := g.unlocks.Unlocked(g.caseID)
	var unread []string
	for _, id := range unlocked {
		if isNew, _ := g.unlocks.IsNew(g.caseID, id); isNew {
			unread = append(unread, id)
		}
	}
	return Saved{
		Status:             g.progress.Status(),
		DiscoveredRelation: g.found.Discovered(),
		UnlockedEvidence:   unlocked,
		UnreadEvidence:     unread,
	}
}

// Restore replays saved progress onto a freshly created game. Ids no longer present in the content are skipped.
func (g *Game) Restore(saved Saved) error {
	unread := make(map[string]struct{}, len(saved.UnreadEvidence))
	for _, id := range saved.UnreadEvidence {
		unread[id] = struct{}{}
	}
	for _, id := range saved.UnlockedEvidence {
		item := g.findEvidence(id)
		if item == nil {
			g.logger.Warn("skip restoring unknown evidence", slog.String("evidence_id", id))
			continue
		}
		if _, err := g.unlocks.Unlock(g.caseID, item.ID()); err != nil {
			return errors.Wrap(err, "restore evidence")
		}
		if _, ok := unread[id]; !ok {
			if err := g.unlocks.MarkAsRead(g.caseID, item.ID()); err != nil {
				return errors.Wrap(err, "restore evidence")
			}
		}
	}
	for _, id := range saved.DiscoveredRelation {
		relation, ok := g.graph.Relation(id)
		if !ok {
			g.logger.Warn("skip restoring unknown relation", slog.String("relation_id", id))
			continue
		}
		result := relations.PairMatchResult{Status: relations.MatchFound, Relations: []*relations.Definition{relation}}
		if _, err := g.found.TryRegisterMatch(result); err != nil {
			return errors.Wrap(err, "restore relation")
		}
	}
	if saved.Status == cases.StatusSubmitted && g.progress.Status() == cases.StatusReadyForSubmission {
		return g.Submit()
	}
	return nil
}
