package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"github.com/google/uuid"
	"github.com/myrjola/deduce/internal/errors"
	"github.com/myrjola/deduce/internal/gameerr"
	"github.com/myrjola/deduce/internal/sqlite"
	"github.com/myrjola/deduce/internal/transcript"
	"log/slog"
	"strconv"
	"time"
)

// TranscriptRepository keeps the transcripts of all players.
type TranscriptRepository struct {
	db     *sqlite.Database
	logger *slog.Logger
}

func NewTranscriptRepository(db *sqlite.Database, logger *slog.Logger) *TranscriptRepository {
	return &TranscriptRepository{
		db:     db,
		logger: logger.With("source", "TranscriptRepository"),
	}
}

// ForPlayer returns the transcript store of one player. The player must exist.
func (r *TranscriptRepository) ForPlayer(playerID uuid.UUID) *PlayerTranscripts {
	return &PlayerTranscripts{repo: r, playerID: playerID.String()}
}

// PlayerTranscripts implements transcript.Store for one player.
type PlayerTranscripts struct {
	repo     *TranscriptRepository
	playerID string
}

type lineRow struct {
	CaseID       string        `db:"case_id"`
	TranscriptID string        `db:"transcript_id"`
	Index        int           `db:"line_index"`
	SpeakerID    string        `db:"speaker_id"`
	Text         string        `db:"text"`
	TimeOffsetMS sql.NullInt64 `db:"time_offset_ms"`
	Tags         string        `db:"tags"`
	Metadata     string        `db:"metadata"`
	PlayerID     string        `db:"player_id"`
}

func (s *PlayerTranscripts) AppendLine(ctx context.Context, line transcript.Line) error {
	row, err := toRow(s.playerID, line)
	if err != nil {
		return err
	}
	stmt := `INSERT INTO transcript_lines
    (player_id, case_id, transcript_id, line_index, speaker_id, text, time_offset_ms, tags, metadata)
VALUES (:player_id, :case_id, :transcript_id, :line_index, :speaker_id, :text, :time_offset_ms, :tags, :metadata)`
	if _, err = s.repo.db.ReadWrite.NamedExecContext(ctx, stmt, row); err != nil {
		return errors.Wrap(err, "insert transcript line", slog.String("case_id", line.CaseID),
			slog.String("transcript_id", line.TranscriptID), slog.Int("index", line.Index))
	}
	return nil
}

func (s *PlayerTranscripts) ClearTranscript(ctx context.Context, caseID, transcriptID string) error {
	stmt := `DELETE FROM transcript_lines WHERE player_id = ? AND case_id = ? AND transcript_id = ?`
	if _, err := s.repo.db.ReadWrite.ExecContext(ctx, stmt, s.playerID, caseID, transcriptID); err != nil {
		return errors.Wrap(err, "delete transcript", slog.String("case_id", caseID),
			slog.String("transcript_id", transcriptID))
	}
	return nil
}

func (s *PlayerTranscripts) Lines(ctx context.Context, caseID, transcriptID string) ([]transcript.Line, error) {
	stmt := `SELECT player_id, case_id, transcript_id, line_index, speaker_id, text, time_offset_ms, tags, metadata
FROM transcript_lines
WHERE player_id = ? AND case_id = ? AND transcript_id = ?
ORDER BY line_index`
	return s.query(ctx, stmt, s.playerID, caseID, transcriptID)
}

func (s *PlayerTranscripts) CaseLines(ctx context.Context, caseID string) ([]transcript.Line, error) {
	stmt := `SELECT player_id, case_id, transcript_id, line_index, speaker_id, text, time_offset_ms, tags, metadata
FROM transcript_lines
WHERE player_id = ? AND case_id = ?
ORDER BY transcript_id, line_index`
	lines, err := s.query(ctx, stmt, s.playerID, caseID)
	if err != nil {
		return nil, err
	}
	transcript.SortLines(lines)
	return lines, nil
}

func (s *PlayerTranscripts) query(ctx context.Context, stmt string, args ...any) ([]transcript.Line, error) {
	var rows []lineRow
	if err := s.repo.db.ReadOnly.SelectContext(ctx, &rows, stmt, args...); err != nil {
		return nil, errors.Wrap(err, "query transcript lines")
	}
	lines := make([]transcript.Line, 0, len(rows))
	for _, row := range rows {
		line, err := fromRow(row)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, nil
}

func toRow(playerID string, line transcript.Line) (lineRow, error) {
	tags := line.Tags
	if tags == nil {
		tags = []string{}
	}
	encodedTags, err := json.Marshal(tags)
	if err != nil {
		return lineRow{}, errors.Wrap(err, "encode tags") //nolint:exhaustruct // error
	}
	metadata := line.Metadata
	if metadata == nil {
		metadata = map[string]string{}
	}
	encodedMetadata, err := json.Marshal(metadata)
	if err != nil {
		return lineRow{}, errors.Wrap(err, "encode metadata") //nolint:exhaustruct // error
	}
	var offset sql.NullInt64
	if line.TimeOffset != nil {
		offset = sql.NullInt64{Int64: line.TimeOffset.Milliseconds(), Valid: true}
	}
	return lineRow{
		CaseID:       line.CaseID,
		TranscriptID: line.TranscriptID,
		Index:        line.Index,
		SpeakerID:    line.SpeakerID,
		Text:         line.Text,
		TimeOffsetMS: offset,
		Tags:         string(encodedTags),
		Metadata:     string(encodedMetadata),
		PlayerID:     playerID,
	}, nil
}

func fromRow(row lineRow) (transcript.Line, error) {
	line, err := transcript.NewLine(row.CaseID, row.TranscriptID, row.Index, row.SpeakerID, row.Text)
	if err != nil {
		return transcript.Line{}, errors.Join(gameerr.ErrInvalidData, err) //nolint:exhaustruct // error
	}
	if err = json.Unmarshal([]byte(row.Tags), &line.Tags); err != nil {
		return transcript.Line{}, errors.Wrap(gameerr.ErrInvalidData, "decode tags", //nolint:exhaustruct // error
			slog.String("line_id", strconv.Itoa(row.Index)), slog.String("cause", err.Error()))
	}
	if err = json.Unmarshal([]byte(row.Metadata), &line.Metadata); err != nil {
		return transcript.Line{}, errors.Wrap(gameerr.ErrInvalidData, "decode metadata", //nolint:exhaustruct // error
			slog.String("line_id", strconv.Itoa(row.Index)), slog.String("cause", err.Error()))
	}
	if len(line.Tags) == 0 {
		line.Tags = nil
	}
	if len(line.Metadata) == 0 {
		line.Metadata = nil
	}
	if row.TimeOffsetMS.Valid {
		offset := time.Duration(row.TimeOffsetMS.Int64) * time.Millisecond
		line.TimeOffset = &offset
	}
	return line, nil
}
