package relations_test

import (
	"github.com/myrjola/deduce/internal/errors"
	"github.com/myrjola/deduce/internal/relations"
	"github.com/stretchr/testify/require"
	"testing"
)

type registration struct {
	relationID   string
	relationType relations.Type
}

type fakeProgress struct {
	registered []registration
	err        error
}

func (p *fakeProgress) RegisterDiscoveredRelation(relationID string, relationType relations.Type) (bool, error) {
	p.registered = append(p.registered, registration{relationID: relationID, relationType: relationType})
	return p.err == nil, p.err
}

func TestFoundTracker(t *testing.T) {
	knife, alibi := evidence(t, "knife"), said(t, "alibi")
	r1 := relation(t, "r1", relations.TypeContradiction, knife, alibi)
	r2 := relation(t, "r2", relations.TypeSupport, knife, alibi)

	progress := &fakeProgress{registered: nil, err: nil}
	tracker := relations.NewFoundTracker(progress)
	var discovered []string
	unsubscribe := tracker.OnRelationDiscovered(func(e relations.RelationDiscovered) {
		discovered = append(discovered, e.Relation.ID())
	})
	defer unsubscribe()

	ok, err := tracker.TryRegisterMatch(relations.PairMatchResult{Status: relations.NoMatch, Relations: nil})
	require.NoError(t, err)
	require.False(t, ok)
	require.Empty(t, progress.registered)

	ok, err = tracker.TryRegisterMatch(relations.PairMatchResult{
		Status:    relations.MatchFound,
		Relations: []*relations.Definition{r1},
	})
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = tracker.TryRegisterMatch(relations.PairMatchResult{
		Status:    relations.MatchFound,
		Relations: []*relations.Definition{r1, r2},
	})
	require.NoError(t, err)
	require.True(t, ok, "r2 is new")

	ok, err = tracker.TryRegisterMatch(relations.PairMatchResult{
		Status:    relations.MatchFound,
		Relations: []*relations.Definition{r2, r1},
	})
	require.NoError(t, err)
	require.False(t, ok, "nothing new")

	require.Equal(t, []string{"r1", "r2"}, discovered)
	require.Equal(t, []string{"r1", "r2"}, tracker.Discovered())
	require.True(t, tracker.IsDiscovered("r2"))
	require.False(t, tracker.IsDiscovered("r3"))
	require.Equal(t, []registration{
		{relationID: "r1", relationType: relations.TypeContradiction},
		{relationID: "r2", relationType: relations.TypeSupport},
	}, progress.registered)
}

func TestFoundTrackerProgressError(t *testing.T) {
	r1 := relation(t, "r1", relations.TypeContradiction, evidence(t, "knife"), said(t, "alibi"))
	progress := &fakeProgress{registered: nil, err: errors.New("boom")}
	tracker := relations.NewFoundTracker(progress)

	ok, err := tracker.TryRegisterMatch(relations.PairMatchResult{
		Status:    relations.MatchFound,
		Relations: []*relations.Definition{r1},
	})
	require.Error(t, err)
	require.True(t, ok)
	require.True(t, tracker.IsDiscovered("r1"))
}
