package interrogation

import (
	"context"
	"github.com/myrjola/deduce/internal/broker"
	"github.com/myrjola/deduce/internal/dialogue"
	"github.com/myrjola/deduce/internal/errors"
	"github.com/myrjola/deduce/internal/gameerr"
	"github.com/myrjola/deduce/internal/transcript"
	"log/slog"
	"strings"
	"sync"
)

// SessionEvents is the part of Session the Recorder listens to.
type SessionEvents interface {
	OnNodeChanged(handler func(NodeChanged)) func()
	OnSessionEnded(handler func(SessionEnded)) func()
}

// Recorder appends the spoken lines of a session to a transcript while it is armed.
//
// Only line nodes with both a speaker and text are recorded. Recording stops when the session ends.
type Recorder struct {
	store  transcript.Store
	logger *slog.Logger

	mu sync.Mutex
	// ctx is the context given to StartRecording. Store writes of the run use it.
	ctx          context.Context //nolint:containedctx // events carry no context
	armed        bool
	caseID       string
	transcriptID string
	nextIndex    int

	lineRecorded broker.Topic[LineRecorded]
	unsubscribe  []func()
}

// NewRecorder subscribes to events. Call Close to unsubscribe.
func NewRecorder(events SessionEvents, store transcript.Store, logger *slog.Logger) *Recorder {
	r := &Recorder{ //nolint:exhaustruct // disarmed by default
		store:  store,
		logger: logger.With("source", "interrogation.Recorder"),
	}
	r.unsubscribe = []func(){
		events.OnNodeChanged(r.handleNodeChanged),
		events.OnSessionEnded(r.handleSessionEnded),
	}
	return r
}

func (r *Recorder) OnLineRecorded(handler func(LineRecorded)) func() {
	return r.lineRecorded.Subscribe(handler)
}

// StartRecording arms the recorder for the transcript and clears its previous lines. The line index starts from zero.
func (r *Recorder) StartRecording(ctx context.Context, caseID, transcriptID string) error {
	if strings.TrimSpace(caseID) == "" {
		return errors.Wrap(gameerr.ErrInvalidArgument, "case id is empty")
	}
	if strings.TrimSpace(transcriptID) == "" {
		return errors.Wrap(gameerr.ErrInvalidArgument, "transcript id is empty", slog.String("case_id", caseID))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.store.ClearTranscript(ctx, caseID, transcriptID); err != nil {
		return errors.Wrap(err, "clear transcript",
			slog.String("case_id", caseID), slog.String("transcript_id", transcriptID))
	}
	r.ctx = context.WithoutCancel(ctx)
	r.armed = true
	r.caseID = caseID
	r.transcriptID = transcriptID
	r.nextIndex = 0
	return nil
}

// StopRecording disarms the recorder. It is safe to call when not recording.
func (r *Recorder) StopRecording() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.armed = false
	r.ctx = nil
	r.caseID = ""
	r.transcriptID = ""
	r.nextIndex = 0
}

func (r *Recorder) IsRecording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.armed
}

// Close unsubscribes from the session events.
func (r *Recorder) Close() {
	for _, unsubscribe := range r.unsubscribe {
		unsubscribe()
	}
}

func (r *Recorder) handleNodeChanged(e NodeChanged) {
	node, ok := e.Node.(*dialogue.LineNode)
	if !ok {
		return
	}
	if strings.TrimSpace(node.SpeakerID()) == "" || strings.TrimSpace(node.Text()) == "" {
		return
	}

	r.mu.Lock()
	if !r.armed || !strings.EqualFold(r.caseID, e.CaseID) {
		r.mu.Unlock()
		return
	}
	line, err := transcript.NewLine(r.caseID, r.transcriptID, r.nextIndex, node.SpeakerID(), node.Text())
	if err != nil {
		r.mu.Unlock()
		r.logger.Error("build transcript line", errors.SlogError(err))
		return
	}
	line.Tags = node.Tags()
	line.Metadata = map[string]string{transcript.MetaNodeID: node.ID()}
	if id := node.TranscriptLineID(); id != "" {
		line.Metadata[transcript.MetaTranscriptLineID] = id
	}
	ctx := r.ctx
	if err = r.store.AppendLine(ctx, line); err != nil {
		r.mu.Unlock()
		r.logger.LogAttrs(ctx, slog.LevelError, "append transcript line", errors.SlogError(err),
			slog.String("case_id", line.CaseID), slog.String("transcript_id", line.TranscriptID))
		return
	}
	r.nextIndex++
	r.mu.Unlock()

	r.lineRecorded.Publish(LineRecorded{Line: line})
}

func (r *Recorder) handleSessionEnded(_ SessionEnded) {
	r.StopRecording()
}
