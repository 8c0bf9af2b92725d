// Package relations finds the authored relations between pairs of anchors and keeps track of what the player has
// discovered.
package relations

import (
	"github.com/myrjola/deduce/internal/errors"
	"github.com/myrjola/deduce/internal/gameerr"
	"log/slog"
	"slices"
	"strings"
)

// Type classifies a relation. Contradictions count towards case readiness.
type Type string

const (
	TypeContradiction Type = "contradiction"
	TypeSupport       Type = "support"
	TypeTimeline      Type = "timeline"
	TypeMotive        Type = "motive"
	TypeAlibi         Type = "alibi"
)

// ParseType accepts the type names ignoring case.
func ParseType(s string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	switch t {
	case TypeContradiction, TypeSupport, TypeTimeline, TypeMotive, TypeAlibi:
		return t, nil
	}
	return "", errors.Wrap(gameerr.ErrInvalidArgument, "unknown relation type", slog.String("relation_type", s))
}

func (t Type) IsContradiction() bool {
	return t == TypeContradiction
}

// Participant is one anchor of a relation. Role is empty when not authored.
type Participant struct {
	Anchor AnchorID
	Role   string
}

// Metadata is optional descriptive content of a relation.
type Metadata struct {
	Title       string
	Description string
	// Severity is nil when not authored.
	Severity *int
	Tags     []string
}

// Definition is an authored relation between two or more anchors. It is immutable after NewDefinition.
type Definition struct {
	id           string
	caseID       string
	relationType Type
	participants []Participant
	metadata     *Metadata
}

// NewDefinition validates and creates a relation. Every participant must belong to the relation's case.
func NewDefinition(id, caseID string, relationType Type, participants []Participant, metadata *Metadata) (*Definition,
	error) {
	switch {
	case strings.TrimSpace(id) == "":
		return nil, errors.Wrap(gameerr.ErrInvalidArgument, "relation id is empty", slog.String("case_id", caseID))
	case strings.TrimSpace(caseID) == "":
		return nil, errors.Wrap(gameerr.ErrInvalidArgument, "relation case id is empty", slog.String("relation_id", id))
	case len(participants) < 2: //nolint:mnd // a relation connects at least a pair
		return nil, errors.Wrap(gameerr.ErrInvalidArgument, "relation needs at least two participants",
			slog.String("relation_id", id), slog.Int("participants", len(participants)))
	}
	if _, err := ParseType(string(relationType)); err != nil {
		return nil, errors.Wrap(err, "new relation", slog.String("relation_id", id))
	}

	normalized := make([]Participant, 0, len(participants))
	for _, p := range participants {
		if p.Anchor.CaseID != caseID {
			return nil, errors.Wrap(gameerr.ErrContentIntegrity, "relation participant belongs to another case",
				slog.String("relation_id", id),
				slog.String("case_id", caseID),
				slog.Any("anchor", p.Anchor))
		}
		if strings.TrimSpace(p.Role) == "" {
			p.Role = ""
		}
		normalized = append(normalized, p)
	}

	if metadata != nil {
		m := *metadata
		m.Tags = slices.Clone(m.Tags)
		if m.Severity != nil {
			severity := *m.Severity
			m.Severity = &severity
		}
		metadata = &m
	}

	return &Definition{
		id:           id,
		caseID:       caseID,
		relationType: relationType,
		participants: normalized,
		metadata:     metadata,
	}, nil
}

func (d *Definition) ID() string {
	return d.id
}

func (d *Definition) CaseID() string {
	return d.caseID
}

func (d *Definition) Type() Type {
	return d.relationType
}

// Participants returns the participants in authoring order.
func (d *Definition) Participants() []Participant {
	return slices.Clone(d.participants)
}

// Metadata returns nil when the relation has no metadata.
func (d *Definition) Metadata() *Metadata {
	if d.metadata == nil {
		return nil
	}
	m := *d.metadata
	m.Tags = slices.Clone(m.Tags)
	return &m
}

// Involves reports whether anchor is one of the participants.
func (d *Definition) Involves(anchor AnchorID) bool {
	return slices.ContainsFunc(d.participants, func(p Participant) bool {
		return p.Anchor == anchor
	})
}

// Anchors returns the distinct participant anchors in authoring order.
func (d *Definition) Anchors() []AnchorID {
	anchors := make([]AnchorID, 0, len(d.participants))
	for _, p := range d.participants {
		if !slices.Contains(anchors, p.Anchor) {
			anchors = append(anchors, p.Anchor)
		}
	}
	return anchors
}

// Title falls back to the relation id.
func (d *Definition) Title() string {
	if d.metadata != nil && d.metadata.Title != "" {
		return d.metadata.Title
	}
	return d.id
}
