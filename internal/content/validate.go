package content

import (
	"context"
	"github.com/myrjola/deduce/internal/dialogue"
	"github.com/myrjola/deduce/internal/errors"
	"github.com/myrjola/deduce/internal/gameerr"
	"github.com/myrjola/deduce/internal/relations"
	"log/slog"
	"strings"
)

// Validate loads everything of a case and checks the references between files.
//
// Dialogue references must resolve, relation anchors must point at existing evidence or authored transcript lines
// and required relations must exist. All problems are reported together.
func (l *Library) Validate(ctx context.Context, caseID string) error {
	definition, err := l.Cases.Get(ctx, caseID)
	if err != nil {
		return err
	}

	var errs []error
	transcriptLines := make(map[string]struct{})
	for _, dialogueID := range definition.DialogueIDs() {
		d, err := l.Dialogues.Get(ctx, caseID, dialogueID)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err = d.CheckReferences(); err != nil {
			errs = append(errs, err)
		}
		for _, n := range d.Nodes() {
			if line, ok := n.(*dialogue.LineNode); ok && line.TranscriptLineID() != "" {
				transcriptLines[strings.ToLower(line.TranscriptLineID())] = struct{}{}
			}
		}
	}

	evidenceItems, err := l.Evidence.All(ctx, caseID)
	if err != nil && !errors.Is(err, gameerr.ErrNotFound) {
		errs = append(errs, err)
	}
	knownEvidence := make(map[string]struct{}, len(evidenceItems))
	for _, e := range evidenceItems {
		knownEvidence[strings.ToLower(e.ID())] = struct{}{}
	}

	graph, err := l.Relations.Graph(ctx, caseID)
	if err != nil {
		return errors.Join(append(errs, err)...)
	}
	for _, relation := range graph.All() {
		for _, anchor := range relation.Anchors() {
			switch anchor.SourceType {
			case relations.SourceEvidence:
				if _, ok := knownEvidence[strings.ToLower(anchor.ObjectID)]; !ok {
					errs = append(errs, errors.Wrap(gameerr.ErrContentIntegrity, "relation refers to unknown evidence",
						slog.String("relation_id", relation.ID()), slog.Any("anchor", anchor)))
				}
			case relations.SourceTranscript:
				if _, ok := transcriptLines[anchor.ObjectID]; !ok { // anchors are lower case
					errs = append(errs, errors.Wrap(gameerr.ErrContentIntegrity,
						"relation refers to unknown transcript line",
						slog.String("relation_id", relation.ID()), slog.Any("anchor", anchor)))
				}
			}
		}
	}

	progress, err := l.Progress.Get(ctx, caseID)
	if err != nil {
		return errors.Join(append(errs, err)...)
	}
	for _, id := range progress.RequiredRelationIDs() {
		if _, ok := graph.Relation(id); !ok {
			errs = append(errs, errors.Wrap(gameerr.ErrContentIntegrity, "required relation does not exist",
				slog.String("case_id", caseID), slog.String("relation_id", id)))
		}
	}
	return errors.Join(errs...)
}
