package relations

import (
	"github.com/myrjola/deduce/internal/broker"
	"github.com/myrjola/deduce/internal/errors"
	"log/slog"
	"slices"
	"sync"
)

// ProgressRegistrar receives every relation the first time it is discovered.
type ProgressRegistrar interface {
	RegisterDiscoveredRelation(relationID string, relationType Type) (bool, error)
}

type RelationDiscovered struct {
	Relation *Definition
}

// FoundTracker remembers the discovered relations. The set only grows.
type FoundTracker struct {
	progress ProgressRegistrar

	mu         sync.Mutex
	discovered map[string]struct{}
	// order keeps the discovery order for snapshots.
	order []string

	relationDiscovered broker.Topic[RelationDiscovered]
}

func NewFoundTracker(progress ProgressRegistrar) *FoundTracker {
	return &FoundTracker{ //nolint:exhaustruct // empty set
		progress:   progress,
		discovered: make(map[string]struct{}),
	}
}

func (f *FoundTracker) OnRelationDiscovered(handler func(RelationDiscovered)) func() {
	return f.relationDiscovered.Subscribe(handler)
}

// TryRegisterMatch marks the relations of result as discovered.
//
// For every relation seen for the first time RelationDiscovered is published and the relation is forwarded to the
// progress registrar. It reports whether anything new was discovered. A result without a match does nothing.
func (f *FoundTracker) TryRegisterMatch(result PairMatchResult) (bool, error) {
	if !result.HasMatch() {
		return false, nil
	}

	discoveredSomething := false
	for _, relation := range result.Relations {
		if relation == nil {
			continue
		}
		f.mu.Lock()
		if _, seen := f.discovered[relation.ID()]; seen {
			f.mu.Unlock()
			continue
		}
		f.discovered[relation.ID()] = struct{}{}
		f.order = append(f.order, relation.ID())
		f.mu.Unlock()
		discoveredSomething = true

		f.relationDiscovered.Publish(RelationDiscovered{Relation: relation})

		if _, err := f.progress.RegisterDiscoveredRelation(relation.ID(), relation.Type()); err != nil {
			return discoveredSomething, errors.Wrap(err, "register discovered relation",
				slog.String("relation_id", relation.ID()))
		}
	}
	return discoveredSomething, nil
}

func (f *FoundTracker) IsDiscovered(relationID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.discovered[relationID]
	return ok
}

// Discovered returns the discovered relation ids in discovery order.
func (f *FoundTracker) Discovered() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.order)
}
