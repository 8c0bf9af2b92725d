package cases

import (
	"github.com/myrjola/deduce/internal/broker"
	"github.com/myrjola/deduce/internal/errors"
	"github.com/myrjola/deduce/internal/gameerr"
	"github.com/myrjola/deduce/internal/relations"
	"log/slog"
	"slices"
	"strings"
	"sync"
)

// Status is the lifecycle of a case. It only moves forward.
type Status string

const (
	StatusInProgress         Status = "InProgress"
	StatusReadyForSubmission Status = "ReadyForSubmission"
	StatusSubmitted          Status = "Submitted"
)

// ProgressDefinition tells what the player must discover before a case can be submitted.
type ProgressDefinition struct {
	caseID                string
	requiredRelationIDs   []string
	minimumContradictions int
}

// NewProgressDefinition validates the definition. Repeated required relation ids collapse into one.
func NewProgressDefinition(caseID string, requiredRelationIDs []string, minimumContradictions int) (
	*ProgressDefinition, error) {
	if strings.TrimSpace(caseID) == "" {
		return nil, errors.Wrap(gameerr.ErrInvalidArgument, "case id is empty")
	}
	if minimumContradictions < 0 {
		return nil, errors.Wrap(gameerr.ErrInvalidArgument, "negative minimum contradictions",
			slog.String("case_id", caseID), slog.Int("minimum_contradictions", minimumContradictions))
	}
	required := make([]string, 0, len(requiredRelationIDs))
	for _, id := range requiredRelationIDs {
		if strings.TrimSpace(id) == "" {
			return nil, errors.Wrap(gameerr.ErrInvalidArgument, "required relation id is empty",
				slog.String("case_id", caseID))
		}
		if !slices.Contains(required, id) {
			required = append(required, id)
		}
	}
	return &ProgressDefinition{
		caseID:                caseID,
		requiredRelationIDs:   required,
		minimumContradictions: minimumContradictions,
	}, nil
}

func (d *ProgressDefinition) CaseID() string {
	return d.caseID
}

func (d *ProgressDefinition) RequiredRelationIDs() []string {
	return slices.Clone(d.requiredRelationIDs)
}

func (d *ProgressDefinition) MinimumContradictions() int {
	return d.minimumContradictions
}

func (d *ProgressDefinition) isRequired(relationID string) bool {
	return slices.Contains(d.requiredRelationIDs, relationID)
}

type StatusChanged struct {
	CaseID string
	Old    Status
	New    Status
}

type RequiredRelationDiscovered struct {
	CaseID     string
	RelationID string
}

// ProgressTracker counts discovered relations and moves the case status forward.
type ProgressTracker struct {
	definition *ProgressDefinition

	mu                 sync.Mutex
	status             Status
	discovered         map[string]struct{}
	requiredDiscovered []string
	contradictions     int

	statusChanged              broker.Topic[StatusChanged]
	requiredRelationDiscovered broker.Topic[RequiredRelationDiscovered]
}

func NewProgressTracker(definition *ProgressDefinition) *ProgressTracker {
	return &ProgressTracker{ //nolint:exhaustruct // nothing discovered yet
		definition: definition,
		status:     StatusInProgress,
		discovered: make(map[string]struct{}),
	}
}

func (p *ProgressTracker) OnStatusChanged(handler func(StatusChanged)) func() {
	return p.statusChanged.Subscribe(handler)
}

func (p *ProgressTracker) OnRequiredRelationDiscovered(handler func(RequiredRelationDiscovered)) func() {
	return p.requiredRelationDiscovered.Subscribe(handler)
}

// RegisterDiscoveredRelation counts a relation the first time it is seen and reports whether it was new.
//
// A required relation publishes RequiredRelationDiscovered. When the contradiction minimum is met and every
// required relation is discovered the status moves from InProgress to ReadyForSubmission within the same call.
func (p *ProgressTracker) RegisterDiscoveredRelation(relationID string, relationType relations.Type) (bool, error) {
	if strings.TrimSpace(relationID) == "" {
		return false, errors.Wrap(gameerr.ErrInvalidArgument, "relation id is empty",
			slog.String("case_id", p.definition.caseID))
	}

	p.mu.Lock()
	if _, seen := p.discovered[relationID]; seen {
		p.mu.Unlock()
		return false, nil
	}
	p.discovered[relationID] = struct{}{}
	if relationType.IsContradiction() {
		p.contradictions++
	}
	required := p.definition.isRequired(relationID)
	if required {
		p.requiredDiscovered = append(p.requiredDiscovered, relationID)
	}
	var changed *StatusChanged
	if p.status == StatusInProgress && p.readyLocked() {
		changed = &StatusChanged{CaseID: p.definition.caseID, Old: p.status, New: StatusReadyForSubmission}
		p.status = StatusReadyForSubmission
	}
	p.mu.Unlock()

	if required {
		p.requiredRelationDiscovered.Publish(RequiredRelationDiscovered{
			CaseID:     p.definition.caseID,
			RelationID: relationID,
		})
	}
	if changed != nil {
		p.statusChanged.Publish(*changed)
	}
	return true, nil
}

func (p *ProgressTracker) readyLocked() bool {
	return p.contradictions >= p.definition.minimumContradictions &&
		len(p.requiredDiscovered) >= len(p.definition.requiredRelationIDs)
}

// Submit moves a case that is ready for submission to Submitted.
func (p *ProgressTracker) Submit() error {
	p.mu.Lock()
	if p.status != StatusReadyForSubmission {
		status := p.status
		p.mu.Unlock()
		return errors.Wrap(gameerr.ErrInvalidState, "case is not ready for submission",
			slog.String("case_id", p.definition.caseID), slog.String("status", string(status)))
	}
	p.status = StatusSubmitted
	p.mu.Unlock()

	p.statusChanged.Publish(StatusChanged{
		CaseID: p.definition.caseID,
		Old:    StatusReadyForSubmission,
		New:    StatusSubmitted,
	})
	return nil
}

func (p *ProgressTracker) CaseID() string {
	return p.definition.caseID
}

func (p *ProgressTracker) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

func (p *ProgressTracker) ContradictionCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.contradictions
}

func (p *ProgressTracker) AllRequiredRelationsDiscovered() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.requiredDiscovered) >= len(p.definition.requiredRelationIDs)
}

// RequiredDiscovered returns the discovered required relation ids in discovery order.
func (p *ProgressTracker) RequiredDiscovered() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.requiredDiscovered)
}

func (p *ProgressTracker) Definition() *ProgressDefinition {
	return p.definition
}
