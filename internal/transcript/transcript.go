// Package transcript holds the append-only record of what was said during interrogations.
package transcript

import (
	"context"
	"github.com/myrjola/deduce/internal/errors"
	"github.com/myrjola/deduce/internal/gameerr"
	"log/slog"
	"maps"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Metadata keys set by the recorder.
const (
	MetaTranscriptLineID = "transcript_line_id"
	MetaNodeID           = "node_id"
)

// Line is a single recorded utterance.
type Line struct {
	CaseID       string
	TranscriptID string
	LineID       string
	Index        int
	SpeakerID    string
	Text         string
	// TimeOffset is nil when the line was not timed.
	TimeOffset *time.Duration
	Tags       []string
	Metadata   map[string]string
}

// NewLine validates a line. The line id is the decimal index.
func NewLine(caseID, transcriptID string, index int, speakerID, text string) (Line, error) {
	switch {
	case strings.TrimSpace(caseID) == "":
		return Line{}, errors.Wrap(gameerr.ErrInvalidArgument, "case id is empty") //nolint:exhaustruct // invalid
	case strings.TrimSpace(transcriptID) == "":
		return Line{}, errors.Wrap(gameerr.ErrInvalidArgument, "transcript id is empty", //nolint:exhaustruct // invalid
			slog.String("case_id", caseID))
	case index < 0:
		return Line{}, errors.Wrap(gameerr.ErrInvalidArgument, "negative line index", //nolint:exhaustruct // invalid
			slog.Int("index", index))
	}
	return Line{
		CaseID:       caseID,
		TranscriptID: transcriptID,
		LineID:       strconv.Itoa(index),
		Index:        index,
		SpeakerID:    speakerID,
		Text:         text,
		TimeOffset:   nil,
		Tags:         nil,
		Metadata:     nil,
	}, nil
}

// Store persists transcript lines. Lines are returned ordered by transcript and index.
type Store interface {
	AppendLine(ctx context.Context, line Line) error
	ClearTranscript(ctx context.Context, caseID, transcriptID string) error
	Lines(ctx context.Context, caseID, transcriptID string) ([]Line, error)
	CaseLines(ctx context.Context, caseID string) ([]Line, error)
}

type transcriptKey struct {
	caseID       string
	transcriptID string
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu    sync.Mutex
	lines map[transcriptKey][]Line
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		mu:    sync.Mutex{},
		lines: make(map[transcriptKey][]Line),
	}
}

func (s *MemoryStore) AppendLine(_ context.Context, line Line) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := transcriptKey{caseID: line.CaseID, transcriptID: line.TranscriptID}
	s.lines[k] = append(s.lines[k], clone(line))
	return nil
}

func (s *MemoryStore) ClearTranscript(_ context.Context, caseID, transcriptID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.lines, transcriptKey{caseID: caseID, transcriptID: transcriptID})
	return nil
}

func (s *MemoryStore) Lines(_ context.Context, caseID, transcriptID string) ([]Line, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := s.lines[transcriptKey{caseID: caseID, transcriptID: transcriptID}]
	lines := make([]Line, 0, len(stored))
	for _, l := range stored {
		lines = append(lines, clone(l))
	}
	return lines, nil
}

func (s *MemoryStore) CaseLines(_ context.Context, caseID string) ([]Line, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var lines []Line
	for k, stored := range s.lines {
		if k.caseID != caseID {
			continue
		}
		for _, l := range stored {
			lines = append(lines, clone(l))
		}
	}
	SortLines(lines)
	return lines, nil
}

// SortLines orders lines by transcript id and index.
func SortLines(lines []Line) {
	slices.SortStableFunc(lines, func(a, b Line) int {
		if c := strings.Compare(a.TranscriptID, b.TranscriptID); c != 0 {
			return c
		}
		return a.Index - b.Index
	})
}

func clone(l Line) Line {
	l.Tags = slices.Clone(l.Tags)
	l.Metadata = maps.Clone(l.Metadata)
	if l.TimeOffset != nil {
		offset := *l.TimeOffset
		l.TimeOffset = &offset
	}
	return l
}
