package relations

import (
	"github.com/myrjola/deduce/internal/broker"
	"sync"
)

// Matcher is implemented by PairMatcher.
type Matcher interface {
	MatchPair(a, b AnchorID) PairMatchResult
}

// MatchRegistrar is implemented by FoundTracker.
type MatchRegistrar interface {
	TryRegisterMatch(result PairMatchResult) (bool, error)
}

// AnchorSelected is what any selectable surface reports when the player picks an anchor.
type AnchorSelected struct {
	Anchor      AnchorID
	DisplayName string
}

type SelectionSlot struct {
	Anchor      AnchorID
	DisplayName string
}

// SelectionState is a snapshot of the two selection slots. LastResult is set only on the state published right
// after a pair was matched.
type SelectionState struct {
	First      *SelectionSlot
	Second     *SelectionSlot
	LastResult *PairMatchResult
	// NewDiscovery tells whether LastResult contained a relation that was not discovered before.
	NewDiscovery bool
}

type SelectionChanged struct {
	State SelectionState
}

// LinkSelection implements the select first, select second protocol that turns two picked anchors into a pair
// match.
type LinkSelection struct {
	matcher   Matcher
	registrar MatchRegistrar

	mu    sync.Mutex
	first *SelectionSlot

	selectionChanged broker.Topic[SelectionChanged]
}

func NewLinkSelection(matcher Matcher, registrar MatchRegistrar) *LinkSelection {
	return &LinkSelection{ //nolint:exhaustruct // empty selection
		matcher:   matcher,
		registrar: registrar,
	}
}

func (l *LinkSelection) OnSelectionChanged(handler func(SelectionChanged)) func() {
	return l.selectionChanged.Subscribe(handler)
}

// HandleAnchorSelected fills the next slot.
//
// Selecting the first anchor again clears the selection. Selecting a different second anchor publishes both slots,
// matches the pair, forwards a match to the registrar and publishes the empty slots with the result.
func (l *LinkSelection) HandleAnchorSelected(e AnchorSelected) error {
	slot := &SelectionSlot{Anchor: e.Anchor, DisplayName: e.DisplayName}

	l.mu.Lock()
	first := l.first
	if first == nil {
		l.first = slot
		l.mu.Unlock()
		l.publish(SelectionState{First: copySlot(slot), Second: nil, LastResult: nil, NewDiscovery: false})
		return nil
	}
	if first.Anchor == e.Anchor {
		l.first = nil
		l.mu.Unlock()
		l.publish(SelectionState{First: nil, Second: nil, LastResult: nil, NewDiscovery: false})
		return nil
	}
	l.mu.Unlock()

	l.publish(SelectionState{First: copySlot(first), Second: copySlot(slot), LastResult: nil, NewDiscovery: false})

	result := l.matcher.MatchPair(first.Anchor, e.Anchor)
	var (
		discovered bool
		err        error
	)
	if result.HasMatch() {
		discovered, err = l.registrar.TryRegisterMatch(result)
	}

	l.mu.Lock()
	l.first = nil
	l.mu.Unlock()

	l.publish(SelectionState{First: nil, Second: nil, LastResult: &result, NewDiscovery: discovered})
	return err
}

// ClearSelection empties both slots and publishes the cleared state.
func (l *LinkSelection) ClearSelection() {
	l.mu.Lock()
	l.first = nil
	l.mu.Unlock()
	l.publish(SelectionState{First: nil, Second: nil, LastResult: nil, NewDiscovery: false})
}

// State returns the current selection without a result.
func (l *LinkSelection) State() SelectionState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return SelectionState{First: copySlot(l.first), Second: nil, LastResult: nil, NewDiscovery: false}
}

func (l *LinkSelection) publish(state SelectionState) {
	l.selectionChanged.Publish(SelectionChanged{State: state})
}

func copySlot(s *SelectionSlot) *SelectionSlot {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}
