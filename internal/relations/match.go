package relations

// MatchStatus is the outcome of matching a pair of anchors.
type MatchStatus string

const (
	NoMatch    MatchStatus = "NoMatch"
	MatchFound MatchStatus = "MatchFound"
)

// PairMatchResult holds the relations connecting a pair. Relations is empty exactly when Status is NoMatch.
type PairMatchResult struct {
	Status    MatchStatus
	Relations []*Definition
}

func (r PairMatchResult) HasMatch() bool {
	return r.Status == MatchFound && len(r.Relations) > 0
}

func noMatch() PairMatchResult {
	return PairMatchResult{Status: NoMatch, Relations: nil}
}

// PairMatcher answers which relations connect two anchors.
type PairMatcher struct {
	graph *Graph
}

func NewPairMatcher(graph *Graph) *PairMatcher {
	return &PairMatcher{graph: graph}
}

// MatchPair returns every relation that includes both anchors. An anchor never matches itself.
func (m *PairMatcher) MatchPair(a, b AnchorID) PairMatchResult {
	if a == b {
		return noMatch()
	}
	found := m.graph.Between(a, b)
	if len(found) == 0 {
		return noMatch()
	}
	return PairMatchResult{Status: MatchFound, Relations: found}
}
