package relations_test

import (
	"github.com/myrjola/deduce/internal/relations"
	"github.com/stretchr/testify/require"
	"testing"
)

type countingMatcher struct {
	matcher *relations.PairMatcher
	calls   int
}

func (m *countingMatcher) MatchPair(a, b relations.AnchorID) relations.PairMatchResult {
	m.calls++
	return m.matcher.MatchPair(a, b)
}

type recordingRegistrar struct {
	results []relations.PairMatchResult
}

func (r *recordingRegistrar) TryRegisterMatch(result relations.PairMatchResult) (bool, error) {
	r.results = append(r.results, result)
	return true, nil
}

type selectionFixture struct {
	knife, alibi, photo relations.AnchorID
	matcher             *countingMatcher
	registrar           *recordingRegistrar
	selection           *relations.LinkSelection
	states              []relations.SelectionState
}

func newSelectionFixture(t *testing.T) *selectionFixture {
	t.Helper()
	f := &selectionFixture{ //nolint:exhaustruct // filled below
		knife: evidence(t, "knife"),
		alibi: said(t, "alibi"),
		photo: evidence(t, "photo"),
	}
	g, err := relations.NewGraph([]*relations.Definition{
		relation(t, "r1", relations.TypeContradiction, f.knife, f.alibi),
	})
	require.NoError(t, err)
	f.matcher = &countingMatcher{matcher: relations.NewPairMatcher(g), calls: 0}
	f.registrar = &recordingRegistrar{results: nil}
	f.selection = relations.NewLinkSelection(f.matcher, f.registrar)
	unsubscribe := f.selection.OnSelectionChanged(func(e relations.SelectionChanged) {
		f.states = append(f.states, e.State)
	})
	t.Cleanup(unsubscribe)
	return f
}

func (f *selectionFixture) selectAnchor(t *testing.T, anchor relations.AnchorID) {
	t.Helper()
	require.NoError(t, f.selection.HandleAnchorSelected(relations.AnchorSelected{
		Anchor:      anchor,
		DisplayName: anchor.ObjectID,
	}))
}

func TestLinkSelectionDeselect(t *testing.T) {
	f := newSelectionFixture(t)
	f.selectAnchor(t, f.knife)
	f.selectAnchor(t, f.knife)

	require.Zero(t, f.matcher.calls)
	require.Empty(t, f.registrar.results)
	require.Len(t, f.states, 2)
	require.Equal(t, f.knife, f.states[0].First.Anchor)
	require.Nil(t, f.states[0].Second)
	require.Nil(t, f.states[1].First, "deselect publishes the cleared state")
	require.Nil(t, f.states[1].LastResult)
	require.Nil(t, f.selection.State().First)
}

func TestLinkSelectionMatch(t *testing.T) {
	f := newSelectionFixture(t)
	f.selectAnchor(t, f.knife)
	f.selectAnchor(t, f.alibi)

	require.Equal(t, 1, f.matcher.calls)
	require.Len(t, f.registrar.results, 1)
	require.True(t, f.registrar.results[0].HasMatch())

	require.Len(t, f.states, 3)
	transient := f.states[1]
	require.Equal(t, f.knife, transient.First.Anchor)
	require.Equal(t, f.alibi, transient.Second.Anchor)
	require.Equal(t, "alibi", transient.Second.DisplayName)
	require.Nil(t, transient.LastResult)

	final := f.states[2]
	require.Nil(t, final.First)
	require.Nil(t, final.Second)
	require.NotNil(t, final.LastResult)
	require.Equal(t, relations.MatchFound, final.LastResult.Status)
	require.True(t, final.NewDiscovery)
	require.Nil(t, f.selection.State().First)
}

func TestLinkSelectionNoMatch(t *testing.T) {
	f := newSelectionFixture(t)
	f.selectAnchor(t, f.knife)
	f.selectAnchor(t, f.photo)

	require.Equal(t, 1, f.matcher.calls)
	require.Empty(t, f.registrar.results, "no match is not forwarded")
	final := f.states[len(f.states)-1]
	require.Equal(t, relations.NoMatch, final.LastResult.Status)
	require.False(t, final.NewDiscovery)
}

func TestLinkSelectionClear(t *testing.T) {
	f := newSelectionFixture(t)
	f.selectAnchor(t, f.knife)
	f.selection.ClearSelection()
	f.selection.ClearSelection()

	require.Len(t, f.states, 3)
	require.Nil(t, f.states[2].First)

	// The next selection starts over in the first slot.
	f.selectAnchor(t, f.alibi)
	require.Equal(t, f.alibi, f.selection.State().First.Anchor)
	require.Zero(t, f.matcher.calls)
}
