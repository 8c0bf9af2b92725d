package dialogue

import (
	"github.com/myrjola/deduce/internal/errors"
	"github.com/myrjola/deduce/internal/gameerr"
	"log/slog"
	"maps"
	"slices"
	"strings"
)

// NodeKind tells which variant a Node is.
type NodeKind string

const (
	NodeKindLine   NodeKind = "Line"
	NodeKindChoice NodeKind = "Choice"
)

// Node is a single step of a Dialogue. It is either a *LineNode or a *ChoiceNode.
type Node interface {
	ID() string
	Kind() NodeKind
	Tags() []string
	Metadata() map[string]string
	node()
}

type nodeBase struct {
	id       string
	tags     []string
	metadata map[string]string
}

// NodeOption configures the optional parts of a node.
type NodeOption func(*nodeBase)

// WithTags attaches tags to the node. Blank tags are dropped.
func WithTags(tags ...string) NodeOption {
	return func(b *nodeBase) {
		for _, tag := range tags {
			if !isBlank(tag) {
				b.tags = append(b.tags, tag)
			}
		}
	}
}

// WithMetadata attaches string metadata to the node. Entries with blank keys are dropped.
func WithMetadata(metadata map[string]string) NodeOption {
	return func(b *nodeBase) {
		for k, v := range metadata {
			if isBlank(k) {
				continue
			}
			if b.metadata == nil {
				b.metadata = make(map[string]string, len(metadata))
			}
			b.metadata[k] = v
		}
	}
}

func newNodeBase(id string, opts []NodeOption) (nodeBase, error) {
	if isBlank(id) {
		return nodeBase{}, errors.Wrap(gameerr.ErrInvalidArgument, "node id is empty")
	}
	b := nodeBase{id: id, tags: nil, metadata: nil}
	for _, opt := range opts {
		opt(&b)
	}
	return b, nil
}

func (b *nodeBase) ID() string {
	return b.id
}

// Tags returns a copy of the node tags.
func (b *nodeBase) Tags() []string {
	return slices.Clone(b.tags)
}

// Metadata returns a copy of the node metadata. It is nil when the node has none.
func (b *nodeBase) Metadata() map[string]string {
	return maps.Clone(b.metadata)
}

// MetadataValue looks up a single metadata entry.
func (b *nodeBase) MetadataValue(key string) (string, bool) {
	v, ok := b.metadata[key]
	return v, ok
}

func (b *nodeBase) node() {}

// LineContent holds what a line node says. Blank fields are treated as absent.
type LineContent struct {
	SpeakerID        string
	Text             string
	TranscriptLineID string
	NextNodeID       string
}

// LineNode is a spoken line. A line without a next node ends the dialogue when continued.
type LineNode struct {
	nodeBase
	speakerID        string
	text             string
	transcriptLineID string
	nextNodeID       string
}

// NewLineNode validates and creates a line node. Either Text or TranscriptLineID must be set.
func NewLineNode(id string, content LineContent, opts ...NodeOption) (*LineNode, error) {
	base, err := newNodeBase(id, opts)
	if err != nil {
		return nil, err
	}
	if isBlank(content.Text) && isBlank(content.TranscriptLineID) {
		return nil, errors.Wrap(gameerr.ErrInvalidArgument, "line node needs text or transcript line id",
			slog.String("node_id", id))
	}
	return &LineNode{
		nodeBase:         base,
		speakerID:        optional(content.SpeakerID),
		text:             optional(content.Text),
		transcriptLineID: optional(content.TranscriptLineID),
		nextNodeID:       optional(content.NextNodeID),
	}, nil
}

func (n *LineNode) Kind() NodeKind {
	return NodeKindLine
}

func (n *LineNode) SpeakerID() string {
	return n.speakerID
}

func (n *LineNode) Text() string {
	return n.text
}

func (n *LineNode) TranscriptLineID() string {
	return n.transcriptLineID
}

func (n *LineNode) NextNodeID() string {
	return n.nextNodeID
}

// HasNext reports whether continuing from this line leads to another node.
func (n *LineNode) HasNext() bool {
	return n.nextNodeID != ""
}

// Choice is one option of a choice node.
//
// ConditionID and EffectID are carried for content authors but do not gate traversal.
type Choice struct {
	ID          string
	Text        string
	NextNodeID  string
	ConditionID string
	EffectID    string
}

func (c Choice) validate(nodeID string) error {
	switch {
	case isBlank(c.ID):
		return errors.Wrap(gameerr.ErrInvalidArgument, "choice id is empty", slog.String("node_id", nodeID))
	case isBlank(c.Text):
		return errors.Wrap(gameerr.ErrInvalidArgument, "choice text is empty",
			slog.String("node_id", nodeID), slog.String("choice_id", c.ID))
	case isBlank(c.NextNodeID):
		return errors.Wrap(gameerr.ErrInvalidArgument, "choice target is empty",
			slog.String("node_id", nodeID), slog.String("choice_id", c.ID))
	}
	return nil
}

// ChoiceNode offers the player a list of choices.
type ChoiceNode struct {
	nodeBase
	choices []Choice
}

// NewChoiceNode validates and creates a choice node with at least one choice.
func NewChoiceNode(id string, choices []Choice, opts ...NodeOption) (*ChoiceNode, error) {
	base, err := newNodeBase(id, opts)
	if err != nil {
		return nil, err
	}
	if len(choices) == 0 {
		return nil, errors.Wrap(gameerr.ErrInvalidArgument, "choice node has no choices", slog.String("node_id", id))
	}
	normalized := make([]Choice, 0, len(choices))
	for _, c := range choices {
		if err = c.validate(id); err != nil {
			return nil, err
		}
		c.ConditionID = optional(c.ConditionID)
		c.EffectID = optional(c.EffectID)
		normalized = append(normalized, c)
	}
	return &ChoiceNode{nodeBase: base, choices: normalized}, nil
}

func (n *ChoiceNode) Kind() NodeKind {
	return NodeKindChoice
}

// Choices returns the choices in authoring order.
func (n *ChoiceNode) Choices() []Choice {
	return slices.Clone(n.choices)
}

// FindChoice looks up a choice by id, ignoring case.
func (n *ChoiceNode) FindChoice(choiceID string) (Choice, bool) {
	for _, c := range n.choices {
		if strings.EqualFold(c.ID, choiceID) {
			return c, true
		}
	}
	return Choice{}, false //nolint:exhaustruct // not found
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func optional(s string) string {
	if isBlank(s) {
		return ""
	}
	return s
}
