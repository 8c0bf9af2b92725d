// Package dialogue models authored interrogation conversations as immutable graphs of line and choice nodes.
package dialogue

import (
	"github.com/myrjola/deduce/internal/errors"
	"github.com/myrjola/deduce/internal/gameerr"
	"log/slog"
	"slices"
	"strings"
)

// Dialogue is one interrogation conversation of a case. It is immutable after New.
type Dialogue struct {
	caseID      string
	dialogueID  string
	entryNodeID string
	// nodes is keyed by lower-cased node id.
	nodes map[string]Node
	// order keeps the authoring order for iteration.
	order []Node
}

// New validates the graph and creates a Dialogue. Node ids are unique ignoring case and the entry node must be one
// of the nodes.
func New(caseID, dialogueID, entryNodeID string, nodes []Node) (*Dialogue, error) {
	switch {
	case isBlank(caseID):
		return nil, errors.Wrap(gameerr.ErrInvalidArgument, "case id is empty")
	case isBlank(dialogueID):
		return nil, errors.Wrap(gameerr.ErrInvalidArgument, "dialogue id is empty", slog.String("case_id", caseID))
	case isBlank(entryNodeID):
		return nil, errors.Wrap(gameerr.ErrInvalidArgument, "entry node id is empty",
			slog.String("case_id", caseID), slog.String("dialogue_id", dialogueID))
	}

	d := &Dialogue{
		caseID:      caseID,
		dialogueID:  dialogueID,
		entryNodeID: entryNodeID,
		nodes:       make(map[string]Node, len(nodes)),
		order:       make([]Node, 0, len(nodes)),
	}
	for _, n := range nodes {
		if n == nil {
			return nil, errors.Wrap(gameerr.ErrInvalidArgument, "nil node", slog.String("dialogue_id", dialogueID))
		}
		k := key(n.ID())
		if _, exists := d.nodes[k]; exists {
			return nil, errors.Wrap(gameerr.ErrContentIntegrity, "duplicate node id",
				slog.String("dialogue_id", dialogueID), slog.String("node_id", n.ID()))
		}
		d.nodes[k] = n
		d.order = append(d.order, n)
	}

	if _, ok := d.nodes[key(entryNodeID)]; !ok {
		return nil, errors.Wrap(gameerr.ErrContentIntegrity, "entry node not found",
			slog.String("dialogue_id", dialogueID), slog.String("entry_node_id", entryNodeID))
	}
	return d, nil
}

func (d *Dialogue) CaseID() string {
	return d.caseID
}

func (d *Dialogue) ID() string {
	return d.dialogueID
}

func (d *Dialogue) EntryNodeID() string {
	return d.entryNodeID
}

// EntryNode returns the node where every session starts.
func (d *Dialogue) EntryNode() Node {
	return d.nodes[key(d.entryNodeID)]
}

// Node looks up a node by id, ignoring case.
func (d *Dialogue) Node(nodeID string) (Node, bool) {
	if isBlank(nodeID) {
		return nil, false
	}
	n, ok := d.nodes[key(nodeID)]
	return n, ok
}

// GetNode is like Node but reports a missing node as a content integrity error.
func (d *Dialogue) GetNode(nodeID string) (Node, error) {
	n, ok := d.Node(nodeID)
	if !ok {
		return nil, errors.Wrap(gameerr.ErrContentIntegrity, "dialogue node not found",
			slog.String("case_id", d.caseID),
			slog.String("dialogue_id", d.dialogueID),
			slog.String("node_id", nodeID))
	}
	return n, nil
}

// Nodes returns the nodes in authoring order.
func (d *Dialogue) Nodes() []Node {
	return slices.Clone(d.order)
}

// Len returns the number of nodes.
func (d *Dialogue) Len() int {
	return len(d.order)
}

// CheckReferences reports every next node id and choice target that does not resolve within the dialogue.
//
// Traversal only discovers dangling references when it reaches them, so loaders call this to fail early.
func (d *Dialogue) CheckReferences() error {
	var errs []error
	for _, n := range d.order {
		switch n := n.(type) {
		case *LineNode:
			if n.HasNext() {
				if _, ok := d.Node(n.NextNodeID()); !ok {
					errs = append(errs, errors.Wrap(gameerr.ErrContentIntegrity, "dangling next node id",
						slog.String("dialogue_id", d.dialogueID),
						slog.String("node_id", n.ID()),
						slog.String("next_node_id", n.NextNodeID())))
				}
			}
		case *ChoiceNode:
			for _, c := range n.choices {
				if _, ok := d.Node(c.NextNodeID); !ok {
					errs = append(errs, errors.Wrap(gameerr.ErrContentIntegrity, "dangling choice target",
						slog.String("dialogue_id", d.dialogueID),
						slog.String("node_id", n.ID()),
						slog.String("choice_id", c.ID),
						slog.String("next_node_id", c.NextNodeID)))
				}
			}
		}
	}
	return errors.Join(errs...)
}

func key(id string) string {
	return strings.ToLower(id)
}
