package cases

import (
	"context"
	"github.com/myrjola/deduce/internal/broker"
	"github.com/myrjola/deduce/internal/errors"
	"github.com/myrjola/deduce/internal/gameerr"
	"log/slog"
	"strings"
	"sync"
)

// Repository loads case definitions.
type Repository interface {
	Get(ctx context.Context, caseID string) (*Definition, error)
}

// InterrogationSession is the part of interrogation.Session the controller drives.
type InterrogationSession interface {
	Start(ctx context.Context, caseID, dialogueID string) error
	Continue() (bool, error)
	SelectChoice(choiceID string) (bool, error)
	End()
	IsActive() bool
}

// TranscriptRecorder is the part of interrogation.Recorder the controller drives.
type TranscriptRecorder interface {
	StartRecording(ctx context.Context, caseID, transcriptID string) error
	StopRecording()
}

type CaseStarted struct {
	CaseID     string
	Definition *Definition
}

type CaseCompleted struct {
	CaseID string
}

// Controller tracks the active case and starts interrogations within it.
type Controller struct {
	cases    Repository
	session  InterrogationSession
	recorder TranscriptRecorder
	logger   *slog.Logger

	mu         sync.Mutex
	definition *Definition
	completed  bool

	caseStarted   broker.Topic[CaseStarted]
	caseCompleted broker.Topic[CaseCompleted]
}

func NewController(cases Repository, session InterrogationSession, recorder TranscriptRecorder,
	logger *slog.Logger) *Controller {
	return &Controller{ //nolint:exhaustruct // no active case yet
		cases:    cases,
		session:  session,
		recorder: recorder,
		logger:   logger.With("source", "cases.Controller"),
	}
}

func (c *Controller) OnCaseStarted(handler func(CaseStarted)) func() {
	return c.caseStarted.Subscribe(handler)
}

func (c *Controller) OnCaseCompleted(handler func(CaseCompleted)) func() {
	return c.caseCompleted.Subscribe(handler)
}

// StartCase makes caseID the active case. The case cannot change while an interrogation is running.
func (c *Controller) StartCase(ctx context.Context, caseID string) error {
	if strings.TrimSpace(caseID) == "" {
		return errors.Wrap(gameerr.ErrInvalidArgument, "case id is empty")
	}
	if c.session.IsActive() {
		return errors.Wrap(gameerr.ErrInvalidState, "cannot change case during an interrogation",
			slog.String("case_id", caseID))
	}

	definition, err := c.cases.Get(ctx, caseID)
	if err != nil {
		return err //nolint:wrapcheck // repository errors propagate unchanged
	}

	c.mu.Lock()
	c.definition = definition
	c.completed = false
	c.mu.Unlock()

	c.logger.LogAttrs(ctx, slog.LevelInfo, "case started", slog.String("case_id", caseID))
	c.caseStarted.Publish(CaseStarted{CaseID: caseID, Definition: definition})
	return nil
}

// CompleteCase marks the active case completed. CaseCompleted is published only the first time.
func (c *Controller) CompleteCase() {
	c.mu.Lock()
	if c.definition == nil || c.completed {
		c.mu.Unlock()
		return
	}
	c.completed = true
	caseID := c.definition.CaseID()
	c.mu.Unlock()

	c.logger.Info("case completed", slog.String("case_id", caseID))
	c.caseCompleted.Publish(CaseCompleted{CaseID: caseID})
}

// StartInterrogation arms the transcript recorder for the dialogue and then starts the session, so that the entry
// node is recorded.
func (c *Controller) StartInterrogation(ctx context.Context, dialogueID string) error {
	if strings.TrimSpace(dialogueID) == "" {
		return errors.Wrap(gameerr.ErrInvalidArgument, "dialogue id is empty")
	}

	c.mu.Lock()
	definition, completed := c.definition, c.completed
	c.mu.Unlock()

	if definition == nil {
		return errors.Wrap(gameerr.ErrInvalidState, "no active case", slog.String("dialogue_id", dialogueID))
	}
	caseID := definition.CaseID()
	if completed {
		return errors.Wrap(gameerr.ErrInvalidState, "case is completed",
			slog.String("case_id", caseID), slog.String("dialogue_id", dialogueID))
	}
	if c.session.IsActive() {
		return errors.Wrap(gameerr.ErrInvalidState, "interrogation already active",
			slog.String("case_id", caseID), slog.String("dialogue_id", dialogueID))
	}
	transcriptID, ok := definition.TranscriptID(dialogueID)
	if !ok {
		return errors.Wrap(gameerr.ErrInvalidState, "dialogue has no transcript in the active case",
			slog.String("case_id", caseID), slog.String("dialogue_id", dialogueID))
	}

	if err := c.recorder.StartRecording(ctx, caseID, transcriptID); err != nil {
		return errors.Wrap(err, "start recording",
			slog.String("case_id", caseID), slog.String("transcript_id", transcriptID))
	}
	if err := c.session.Start(ctx, caseID, dialogueID); err != nil {
		c.recorder.StopRecording()
		return err //nolint:wrapcheck // session errors propagate unchanged
	}
	return nil
}

// EndInterrogation ends the running interrogation, if any.
func (c *Controller) EndInterrogation() {
	if !c.session.IsActive() {
		return
	}
	c.session.End()
}

// ContinueInterrogation returns false when no interrogation is running.
func (c *Controller) ContinueInterrogation() (bool, error) {
	if !c.session.IsActive() {
		return false, nil
	}
	return c.session.Continue() //nolint:wrapcheck // content errors propagate unchanged
}

// SelectChoice returns false when no interrogation is running or the choice id is empty.
func (c *Controller) SelectChoice(choiceID string) (bool, error) {
	if strings.TrimSpace(choiceID) == "" || !c.session.IsActive() {
		return false, nil
	}
	return c.session.SelectChoice(choiceID) //nolint:wrapcheck // content errors propagate unchanged
}

// CurrentCaseID is empty when no case is active.
func (c *Controller) CurrentCaseID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.definition == nil {
		return ""
	}
	return c.definition.CaseID()
}

// Definition returns nil when no case is active.
func (c *Controller) Definition() *Definition {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.definition
}

func (c *Controller) HasActiveCase() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.definition != nil
}

func (c *Controller) IsCompleted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.completed
}

func (c *Controller) IsInterrogationActive() bool {
	return c.session.IsActive()
}
