// Package cases runs the lifecycle of an investigation case and decides when it is ready to be submitted.
package cases

import (
	"github.com/myrjola/deduce/internal/errors"
	"github.com/myrjola/deduce/internal/gameerr"
	"log/slog"
	"slices"
	"strings"
)

// DialogueRef is one interrogation of a case. TranscriptID and SubjectID are optional.
type DialogueRef struct {
	DialogueID   string
	TranscriptID string
	SubjectID    string
}

// Definition is the immutable description of a case.
type Definition struct {
	caseID          string
	title           string
	summary         string
	entryDialogueID string
	dialogueIDs     []string
	// transcripts and subjects are keyed by lower-cased dialogue id.
	transcripts map[string]string
	subjects    map[string]string
}

// DefinitionOption sets descriptive fields of a Definition.
type DefinitionOption func(*Definition)

func WithTitle(title string) DefinitionOption {
	return func(d *Definition) {
		d.title = strings.TrimSpace(title)
	}
}

func WithSummary(summary string) DefinitionOption {
	return func(d *Definition) {
		d.summary = strings.TrimSpace(summary)
	}
}

// NewDefinition validates and creates a case. Refs with a blank dialogue id are skipped. At least one dialogue is
// needed and the entry dialogue must map to a transcript.
func NewDefinition(caseID, entryDialogueID string, dialogues []DialogueRef, opts ...DefinitionOption) (*Definition,
	error) {
	if strings.TrimSpace(caseID) == "" {
		return nil, errors.Wrap(gameerr.ErrInvalidArgument, "case id is empty")
	}
	if strings.TrimSpace(entryDialogueID) == "" {
		return nil, errors.Wrap(gameerr.ErrInvalidArgument, "entry dialogue id is empty", slog.String("case_id", caseID))
	}

	d := &Definition{
		caseID:          caseID,
		title:           "",
		summary:         "",
		entryDialogueID: entryDialogueID,
		dialogueIDs:     make([]string, 0, len(dialogues)),
		transcripts:     make(map[string]string, len(dialogues)),
		subjects:        make(map[string]string, len(dialogues)),
	}
	seen := make(map[string]struct{}, len(dialogues))
	for _, ref := range dialogues {
		if strings.TrimSpace(ref.DialogueID) == "" {
			continue
		}
		k := strings.ToLower(ref.DialogueID)
		if _, ok := seen[k]; ok {
			return nil, errors.Wrap(gameerr.ErrContentIntegrity, "duplicate dialogue id",
				slog.String("case_id", caseID), slog.String("dialogue_id", ref.DialogueID))
		}
		seen[k] = struct{}{}
		d.dialogueIDs = append(d.dialogueIDs, ref.DialogueID)
		if strings.TrimSpace(ref.TranscriptID) != "" {
			d.transcripts[k] = ref.TranscriptID
		}
		if strings.TrimSpace(ref.SubjectID) != "" {
			d.subjects[k] = ref.SubjectID
		}
	}

	if len(d.dialogueIDs) == 0 {
		return nil, errors.Wrap(gameerr.ErrInvalidArgument, "case has no dialogues", slog.String("case_id", caseID))
	}
	if _, ok := d.transcripts[strings.ToLower(entryDialogueID)]; !ok {
		return nil, errors.Wrap(gameerr.ErrInvalidArgument, "entry dialogue has no transcript",
			slog.String("case_id", caseID), slog.String("entry_dialogue_id", entryDialogueID))
	}

	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

func (d *Definition) CaseID() string {
	return d.caseID
}

// Title falls back to the case id.
func (d *Definition) Title() string {
	if d.title == "" {
		return d.caseID
	}
	return d.title
}

func (d *Definition) Summary() string {
	return d.summary
}

func (d *Definition) EntryDialogueID() string {
	return d.entryDialogueID
}

// DialogueIDs returns the dialogue ids in authoring order.
func (d *Definition) DialogueIDs() []string {
	return slices.Clone(d.dialogueIDs)
}

// HasDialogue reports whether the dialogue belongs to the case, ignoring case.
func (d *Definition) HasDialogue(dialogueID string) bool {
	return slices.ContainsFunc(d.dialogueIDs, func(id string) bool {
		return strings.EqualFold(id, dialogueID)
	})
}

// TranscriptID looks up the transcript a dialogue is recorded into, ignoring case.
func (d *Definition) TranscriptID(dialogueID string) (string, bool) {
	id, ok := d.transcripts[strings.ToLower(dialogueID)]
	return id, ok
}

// SubjectID looks up who is interrogated in a dialogue, ignoring case.
func (d *Definition) SubjectID(dialogueID string) (string, bool) {
	id, ok := d.subjects[strings.ToLower(dialogueID)]
	return id, ok
}
