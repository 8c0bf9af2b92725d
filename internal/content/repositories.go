package content

import (
	"context"
	"github.com/myrjola/deduce/internal/cases"
	"github.com/myrjola/deduce/internal/dialogue"
	"github.com/myrjola/deduce/internal/errors"
	"github.com/myrjola/deduce/internal/evidence"
	"github.com/myrjola/deduce/internal/gameerr"
	"github.com/myrjola/deduce/internal/relations"
	"log/slog"
	"path"
	"slices"
	"strings"
)

// CaseRepository loads case definitions from <case>/case.
type CaseRepository struct {
	source
	cache cache[*cases.Definition]
}

func (r *CaseRepository) Get(ctx context.Context, caseID string) (*cases.Definition, error) {
	if d, ok := r.cache.get(caseID); ok {
		return d, nil
	}

	var data caseData
	if err := r.load(ctx, caseID, "case", &data); err != nil {
		return nil, err
	}
	if !strings.EqualFold(data.CaseID, caseID) {
		return nil, errors.Wrap(gameerr.ErrInvalidData, "case id does not match its directory",
			slog.String("case_id", caseID), slog.String("data_case_id", data.CaseID))
	}
	refs := make([]cases.DialogueRef, 0, len(data.Dialogues))
	for _, d := range data.Dialogues {
		refs = append(refs, cases.DialogueRef{DialogueID: d.DialogueID, TranscriptID: d.TranscriptID, SubjectID: d.SubjectID})
	}
	d, err := cases.NewDefinition(data.CaseID, data.EntryDialogueID, refs,
		cases.WithTitle(data.Title), cases.WithSummary(data.Summary))
	if err != nil {
		return nil, errors.Wrap(errors.Join(gameerr.ErrInvalidData, err), "map case", slog.String("case_id", caseID))
	}
	return r.cache.put(caseID, d), nil
}

// DialogueRepository loads dialogues from <case>/dialogues/<dialogue>.
type DialogueRepository struct {
	source
	cache cache[*dialogue.Dialogue]
}

func (r *DialogueRepository) Get(ctx context.Context, caseID, dialogueID string) (*dialogue.Dialogue, error) {
	if err := checkID("dialogue id", dialogueID); err != nil {
		return nil, err
	}
	key := caseID + "/" + dialogueID
	if d, ok := r.cache.get(key); ok {
		return d, nil
	}

	var data dialogueData
	if err := r.load(ctx, caseID, path.Join("dialogues", dialogueID), &data); err != nil {
		return nil, err
	}
	attrs := []slog.Attr{slog.String("case_id", caseID), slog.String("dialogue_id", dialogueID)}
	switch {
	case !strings.EqualFold(data.CaseID, caseID):
		return nil, errors.Wrap(gameerr.ErrInvalidData, "dialogue case id does not match",
			append(attrs, slog.String("data_case_id", data.CaseID))...)
	case !strings.EqualFold(data.DialogueID, dialogueID):
		return nil, errors.Wrap(gameerr.ErrInvalidData, "dialogue id does not match its file",
			append(attrs, slog.String("data_dialogue_id", data.DialogueID))...)
	case strings.TrimSpace(data.EntryNodeID) == "":
		return nil, errors.Wrap(gameerr.ErrInvalidData, "dialogue entry node id is empty", attrs...)
	case len(data.Nodes) == 0:
		return nil, errors.Wrap(gameerr.ErrInvalidData, "dialogue has no nodes", attrs...)
	}

	nodes := make([]dialogue.Node, 0, len(data.Nodes))
	for _, n := range data.Nodes {
		node, err := mapNode(n)
		if err != nil {
			return nil, errors.Wrap(errors.Join(gameerr.ErrInvalidData, err), "map dialogue node", attrs...)
		}
		nodes = append(nodes, node)
	}
	d, err := dialogue.New(caseID, dialogueID, data.EntryNodeID, nodes)
	if err != nil {
		return nil, errors.Wrap(errors.Join(gameerr.ErrInvalidData, err), "map dialogue", attrs...)
	}
	return r.cache.put(key, d), nil
}

func mapNode(n nodeData) (dialogue.Node, error) {
	opts := []dialogue.NodeOption{dialogue.WithTags(n.Tags...), dialogue.WithMetadata(n.Metadata)}
	switch dialogue.NodeKind(n.Type) {
	case dialogue.NodeKindLine:
		return dialogue.NewLineNode(n.ID, dialogue.LineContent{
			SpeakerID:        n.SpeakerID,
			Text:             n.Text,
			TranscriptLineID: n.TranscriptLineID,
			NextNodeID:       n.NextNodeID,
		}, opts...)
	case dialogue.NodeKindChoice:
		choices := make([]dialogue.Choice, 0, len(n.Choices))
		for _, c := range n.Choices {
			choices = append(choices, dialogue.Choice{
				ID:          c.ID,
				Text:        c.Text,
				NextNodeID:  c.NextNodeID,
				ConditionID: c.ConditionID,
				EffectID:    c.EffectID,
			})
		}
		return dialogue.NewChoiceNode(n.ID, choices, opts...)
	}
	return nil, errors.Wrap(gameerr.ErrInvalidData, "unsupported node type",
		slog.String("node_id", n.ID), slog.String("type", n.Type))
}

type evidenceSet struct {
	all []*evidence.Evidence
	// byID is keyed by lower-cased evidence id.
	byID map[string]*evidence.Evidence
}

// EvidenceRepository loads the evidence of a case from <case>/evidence.
type EvidenceRepository struct {
	source
	cache cache[*evidenceSet]
}

// All returns the evidence of a case in authoring order.
func (r *EvidenceRepository) All(ctx context.Context, caseID string) ([]*evidence.Evidence, error) {
	set, err := r.load(ctx, caseID)
	if err != nil {
		return nil, err
	}
	return slices.Clone(set.all), nil
}

// Get looks up one evidence item ignoring case.
func (r *EvidenceRepository) Get(ctx context.Context, caseID, evidenceID string) (*evidence.Evidence, error) {
	set, err := r.load(ctx, caseID)
	if err != nil {
		return nil, err
	}
	e, ok := set.byID[strings.ToLower(evidenceID)]
	if !ok {
		return nil, errors.Wrap(gameerr.ErrNotFound, "evidence not found",
			slog.String("case_id", caseID), slog.String("evidence_id", evidenceID))
	}
	return e, nil
}

func (r *EvidenceRepository) load(ctx context.Context, caseID string) (*evidenceSet, error) {
	if set, ok := r.cache.get(caseID); ok {
		return set, nil
	}

	var data evidenceData
	if err := r.source.load(ctx, caseID, "evidence", &data); err != nil {
		return nil, err
	}
	if data.CaseID != "" && !strings.EqualFold(data.CaseID, caseID) {
		return nil, errors.Wrap(gameerr.ErrInvalidData, "evidence case id does not match",
			slog.String("case_id", caseID), slog.String("data_case_id", data.CaseID))
	}
	set := &evidenceSet{
		all:  make([]*evidence.Evidence, 0, len(data.Evidence)),
		byID: make(map[string]*evidence.Evidence, len(data.Evidence)),
	}
	for _, item := range data.Evidence {
		if strings.TrimSpace(item.ID) == "" {
			continue
		}
		evidenceType, err := evidence.ParseType(item.Type)
		if err != nil {
			return nil, errors.Wrap(errors.Join(gameerr.ErrInvalidData, err), "map evidence",
				slog.String("case_id", caseID), slog.String("evidence_id", item.ID))
		}
		e, err := evidence.New(item.ID, caseID, evidenceType, item.Title, evidence.Details{
			Description:   item.Description,
			Tags:          item.Tags,
			Metadata:      item.Metadata,
			AssetID:       item.AssetID,
			SourcePath:    item.SourcePath,
			UnlockOnStart: item.UnlockOnStart,
		})
		if err != nil {
			return nil, errors.Wrap(errors.Join(gameerr.ErrInvalidData, err), "map evidence",
				slog.String("case_id", caseID), slog.String("evidence_id", item.ID))
		}
		set.all = append(set.all, e)
		set.byID[strings.ToLower(e.ID())] = e
	}
	return r.cache.put(caseID, set), nil
}

// RelationRepository loads the relations of a case from <case>/relations and indexes them by anchor.
type RelationRepository struct {
	source
	cache cache[*relations.Graph]
}

// Graph returns the relation graph of a case. A participant from another case is a content integrity error.
func (r *RelationRepository) Graph(ctx context.Context, caseID string) (*relations.Graph, error) {
	if g, ok := r.cache.get(caseID); ok {
		return g, nil
	}

	var data relationsData
	if err := r.load(ctx, caseID, "relations", &data); err != nil {
		return nil, err
	}
	defaultCaseID := caseID
	if data.CaseID != "" {
		defaultCaseID = data.CaseID
	}
	definitions := make([]*relations.Definition, 0, len(data.Relations))
	for _, rd := range data.Relations {
		d, err := mapRelation(rd, defaultCaseID)
		if err != nil {
			return nil, errors.Wrap(err, "map relation",
				slog.String("case_id", caseID), slog.String("relation_id", rd.ID))
		}
		definitions = append(definitions, d)
	}
	g, err := relations.NewGraph(definitions)
	if err != nil {
		return nil, errors.Wrap(err, "index relations", slog.String("case_id", caseID))
	}
	return r.cache.put(caseID, g), nil
}

func mapRelation(rd relationData, defaultCaseID string) (*relations.Definition, error) {
	caseID := rd.CaseID
	if caseID == "" {
		caseID = defaultCaseID
	}
	relationType, err := relations.ParseType(rd.Type)
	if err != nil {
		return nil, errors.Join(gameerr.ErrInvalidData, err)
	}
	participants := make([]relations.Participant, 0, len(rd.Participants))
	for _, p := range rd.Participants {
		anchorCaseID := p.Anchor.CaseID
		if anchorCaseID == "" {
			anchorCaseID = caseID
		}
		sourceType, err := relations.ParseSourceType(p.Anchor.SourceType)
		if err != nil {
			return nil, errors.Join(gameerr.ErrInvalidData, err)
		}
		anchor, err := relations.NewAnchorID(anchorCaseID, sourceType, p.Anchor.ObjectID, p.Anchor.SubID)
		if err != nil {
			return nil, errors.Join(gameerr.ErrInvalidData, err)
		}
		participants = append(participants, relations.Participant{Anchor: anchor, Role: p.Role})
	}
	var metadata *relations.Metadata
	if rd.Metadata != nil {
		metadata = &relations.Metadata{
			Title:       rd.Metadata.Title,
			Description: rd.Metadata.Description,
			Severity:    rd.Metadata.Severity,
			Tags:        rd.Metadata.Tags,
		}
	}
	d, err := relations.NewDefinition(rd.ID, caseID, relationType, participants, metadata)
	if err != nil {
		if errors.Is(err, gameerr.ErrContentIntegrity) {
			return nil, err
		}
		return nil, errors.Join(gameerr.ErrInvalidData, err)
	}
	return d, nil
}

// ProgressRepository loads what must be discovered in a case from <case>/progress.
type ProgressRepository struct {
	source
	cache cache[*cases.ProgressDefinition]
}

func (r *ProgressRepository) Get(ctx context.Context, caseID string) (*cases.ProgressDefinition, error) {
	if d, ok := r.cache.get(caseID); ok {
		return d, nil
	}

	var data progressData
	if err := r.load(ctx, caseID, "progress", &data); err != nil {
		return nil, err
	}
	if data.CaseID != "" && !strings.EqualFold(data.CaseID, caseID) {
		return nil, errors.Wrap(gameerr.ErrInvalidData, "progress case id does not match",
			slog.String("case_id", caseID), slog.String("data_case_id", data.CaseID))
	}
	d, err := cases.NewProgressDefinition(caseID, data.RequiredRelationIDs, data.MinimumContradictions)
	if err != nil {
		return nil, errors.Wrap(errors.Join(gameerr.ErrInvalidData, err), "map progress",
			slog.String("case_id", caseID))
	}
	return r.cache.put(caseID, d), nil
}
