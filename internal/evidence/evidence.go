// Package evidence models the items a player can collect during a case and which of them are unlocked.
package evidence

import (
	"github.com/myrjola/deduce/internal/errors"
	"github.com/myrjola/deduce/internal/gameerr"
	"log/slog"
	"maps"
	"slices"
	"strings"
)

type Type string

const (
	TypeDocument  Type = "Document"
	TypePhoto     Type = "Photo"
	TypeObject    Type = "Object"
	TypeTestimony Type = "Testimony"
	TypeForensic  Type = "Forensic"
)

// ParseType accepts the type names ignoring case.
func ParseType(s string) (Type, error) {
	for _, t := range []Type{TypeDocument, TypePhoto, TypeObject, TypeTestimony, TypeForensic} {
		if strings.EqualFold(string(t), strings.TrimSpace(s)) {
			return t, nil
		}
	}
	return "", errors.Wrap(gameerr.ErrInvalidArgument, "unknown evidence type", slog.String("evidence_type", s))
}

// Evidence is an immutable item of a case.
type Evidence struct {
	id          string
	caseID      string
	kind        Type
	title       string
	description string
	tags        []string
	metadata    map[string]string
	assetID     string
	sourcePath  string
	// unlockOnStart is set for evidence the player holds from the start of the case.
	unlockOnStart bool
}

// Details holds the optional parts of an evidence item.
type Details struct {
	Description   string
	Tags          []string
	Metadata      map[string]string
	AssetID       string
	SourcePath    string
	UnlockOnStart bool
}

// New validates and creates an evidence item. Blank tags and metadata keys are dropped.
func New(id, caseID string, evidenceType Type, title string, details Details) (*Evidence, error) {
	switch {
	case strings.TrimSpace(id) == "":
		return nil, errors.Wrap(gameerr.ErrInvalidArgument, "evidence id is empty", slog.String("case_id", caseID))
	case strings.TrimSpace(caseID) == "":
		return nil, errors.Wrap(gameerr.ErrInvalidArgument, "evidence case id is empty", slog.String("evidence_id", id))
	case strings.TrimSpace(title) == "":
		return nil, errors.Wrap(gameerr.ErrInvalidArgument, "evidence title is empty", slog.String("evidence_id", id))
	}
	if _, err := ParseType(string(evidenceType)); err != nil {
		return nil, errors.Wrap(err, "new evidence", slog.String("evidence_id", id))
	}

	e := &Evidence{
		id:            id,
		caseID:        caseID,
		kind:          evidenceType,
		title:         title,
		description:   details.Description,
		tags:          nil,
		metadata:      nil,
		assetID:       strings.TrimSpace(details.AssetID),
		sourcePath:    strings.TrimSpace(details.SourcePath),
		unlockOnStart: details.UnlockOnStart,
	}
	for _, tag := range details.Tags {
		if strings.TrimSpace(tag) != "" {
			e.tags = append(e.tags, tag)
		}
	}
	for k, v := range details.Metadata {
		if strings.TrimSpace(k) == "" {
			continue
		}
		if e.metadata == nil {
			e.metadata = make(map[string]string, len(details.Metadata))
		}
		e.metadata[k] = v
	}
	return e, nil
}

func (e *Evidence) ID() string {
	return e.id
}

func (e *Evidence) CaseID() string {
	return e.caseID
}

func (e *Evidence) Type() Type {
	return e.kind
}

func (e *Evidence) Title() string {
	return e.title
}

func (e *Evidence) Description() string {
	return e.description
}

func (e *Evidence) Tags() []string {
	return slices.Clone(e.tags)
}

// HasTag compares ignoring case.
func (e *Evidence) HasTag(tag string) bool {
	return slices.ContainsFunc(e.tags, func(t string) bool {
		return strings.EqualFold(t, tag)
	})
}

func (e *Evidence) Metadata() map[string]string {
	return maps.Clone(e.metadata)
}

func (e *Evidence) AssetID() string {
	return e.assetID
}

func (e *Evidence) SourcePath() string {
	return e.sourcePath
}

func (e *Evidence) UnlockOnStart() bool {
	return e.unlockOnStart
}
