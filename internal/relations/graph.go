package relations

import (
	"github.com/myrjola/deduce/internal/errors"
	"github.com/myrjola/deduce/internal/gameerr"
	"log/slog"
	"slices"
)

// Graph is the immutable set of relations of a case together with an index from anchor to the relations it takes
// part in.
type Graph struct {
	all      []*Definition
	byID     map[string]*Definition
	byAnchor map[AnchorID][]*Definition
	// position is the authoring order used to sort lookup results.
	position map[*Definition]int
}

// NewGraph builds the anchor index once. Relation ids must be unique.
func NewGraph(definitions []*Definition) (*Graph, error) {
	g := &Graph{
		all:      make([]*Definition, 0, len(definitions)),
		byID:     make(map[string]*Definition, len(definitions)),
		byAnchor: make(map[AnchorID][]*Definition),
		position: make(map[*Definition]int, len(definitions)),
	}
	for _, d := range definitions {
		if d == nil {
			return nil, errors.Wrap(gameerr.ErrInvalidArgument, "nil relation definition")
		}
		if _, exists := g.byID[d.id]; exists {
			return nil, errors.Wrap(gameerr.ErrContentIntegrity, "duplicate relation id",
				slog.String("relation_id", d.id))
		}
		g.position[d] = len(g.all)
		g.all = append(g.all, d)
		g.byID[d.id] = d
		for _, anchor := range d.Anchors() {
			g.byAnchor[anchor] = append(g.byAnchor[anchor], d)
		}
	}
	return g, nil
}

// All returns every relation in authoring order.
func (g *Graph) All() []*Definition {
	return slices.Clone(g.all)
}

func (g *Graph) Len() int {
	return len(g.all)
}

func (g *Graph) Relation(id string) (*Definition, bool) {
	d, ok := g.byID[id]
	return d, ok
}

// ByAnchor returns the relations anchor participates in, in authoring order.
func (g *Graph) ByAnchor(anchor AnchorID) []*Definition {
	return slices.Clone(g.byAnchor[anchor])
}

// Between returns the relations that include both anchors, in authoring order.
func (g *Graph) Between(a, b AnchorID) []*Definition {
	listA, listB := g.byAnchor[a], g.byAnchor[b]
	if len(listA) == 0 || len(listB) == 0 {
		return nil
	}
	if len(listB) < len(listA) {
		listA, listB = listB, listA
	}
	inB := make(map[*Definition]struct{}, len(listB))
	for _, d := range listB {
		inB[d] = struct{}{}
	}
	var found []*Definition
	for _, d := range listA {
		if _, ok := inB[d]; ok {
			found = append(found, d)
		}
	}
	slices.SortFunc(found, func(x, y *Definition) int {
		return g.position[x] - g.position[y]
	})
	return found
}
