package relations

import (
	"fmt"
	"github.com/myrjola/deduce/internal/errors"
	"github.com/myrjola/deduce/internal/gameerr"
	"log/slog"
	"strings"
)

// SourceType tells what kind of game fact an anchor points at.
type SourceType string

const (
	SourceEvidence   SourceType = "evidence"
	SourceTranscript SourceType = "transcript"
)

// ParseSourceType accepts the source type names ignoring case.
func ParseSourceType(s string) (SourceType, error) {
	switch SourceType(strings.ToLower(strings.TrimSpace(s))) {
	case SourceEvidence:
		return SourceEvidence, nil
	case SourceTranscript:
		return SourceTranscript, nil
	}
	return "", errors.Wrap(gameerr.ErrInvalidArgument, "unknown anchor source type", slog.String("source_type", s))
}

// AnchorID identifies a fact that can take part in a relation. It is comparable and used as a map key.
//
// Evidence anchors use the evidence id as ObjectID. Transcript anchors use the authored transcript line id.
// ObjectID and SubID are lower case. SubID is empty when the anchor points at the whole object.
type AnchorID struct {
	CaseID     string
	SourceType SourceType
	ObjectID   string
	SubID      string
}

// NewAnchorID validates the ids and lower-cases objectID and subID. A blank subID is stored as empty.
func NewAnchorID(caseID string, sourceType SourceType, objectID, subID string) (AnchorID, error) {
	if strings.TrimSpace(caseID) == "" {
		return AnchorID{}, errors.Wrap(gameerr.ErrInvalidArgument, "anchor case id is empty") //nolint:exhaustruct // invalid
	}
	if strings.TrimSpace(objectID) == "" {
		return AnchorID{}, errors.Wrap(gameerr.ErrInvalidArgument, "anchor object id is empty", //nolint:exhaustruct // invalid
			slog.String("case_id", caseID))
	}
	if sourceType != SourceEvidence && sourceType != SourceTranscript {
		return AnchorID{}, errors.Wrap(gameerr.ErrInvalidArgument, "unknown anchor source type", //nolint:exhaustruct // invalid
			slog.String("source_type", string(sourceType)))
	}
	return AnchorID{
		CaseID:     caseID,
		SourceType: sourceType,
		ObjectID:   strings.ToLower(strings.TrimSpace(objectID)),
		SubID:      strings.ToLower(strings.TrimSpace(subID)),
	}, nil
}

func EvidenceAnchor(caseID, evidenceID, subID string) (AnchorID, error) {
	return NewAnchorID(caseID, SourceEvidence, evidenceID, subID)
}

func TranscriptAnchor(caseID, transcriptLineID, subID string) (AnchorID, error) {
	return NewAnchorID(caseID, SourceTranscript, transcriptLineID, subID)
}

// ParseAnchor reads the textual form "<source>:<object>[#sub]" used by the command line and web forms.
func ParseAnchor(caseID, s string) (AnchorID, error) {
	source, rest, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return AnchorID{}, errors.Wrap(gameerr.ErrInvalidArgument, "anchor must look like source:object", //nolint:exhaustruct // invalid
			slog.String("anchor", s))
	}
	sourceType, err := ParseSourceType(source)
	if err != nil {
		return AnchorID{}, err //nolint:exhaustruct // invalid
	}
	objectID, subID, _ := strings.Cut(rest, "#")
	return NewAnchorID(caseID, sourceType, objectID, subID)
}

// Text returns the form accepted by ParseAnchor.
func (a AnchorID) Text() string {
	if a.SubID == "" {
		return fmt.Sprintf("%s:%s", a.SourceType, a.ObjectID)
	}
	return fmt.Sprintf("%s:%s#%s", a.SourceType, a.ObjectID, a.SubID)
}

func (a AnchorID) String() string {
	return a.CaseID + "/" + a.Text()
}

func (a AnchorID) LogValue() slog.Value {
	return slog.StringValue(a.String())
}
