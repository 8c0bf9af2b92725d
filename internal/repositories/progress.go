package repositories

import (
	"context"
	"database/sql"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/myrjola/deduce/internal/cases"
	"github.com/myrjola/deduce/internal/errors"
	"github.com/myrjola/deduce/internal/game"
	"github.com/myrjola/deduce/internal/gameerr"
	"github.com/myrjola/deduce/internal/sqlite"
	"log/slog"
)

// ProgressRepository persists what each player has discovered per case.
type ProgressRepository struct {
	db     *sqlite.Database
	logger *slog.Logger
}

func NewProgressRepository(db *sqlite.Database, logger *slog.Logger) *ProgressRepository {
	return &ProgressRepository{
		db:     db,
		logger: logger.With("source", "ProgressRepository"),
	}
}

// Save replaces the stored progress of the player in the case.
func (r *ProgressRepository) Save(ctx context.Context, playerID uuid.UUID, caseID string, saved game.Saved) error {
	attrs := []slog.Attr{slog.String("player_id", playerID.String()), slog.String("case_id", caseID)}
	tx, err := r.db.ReadWrite.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin transaction", attrs...)
	}
	defer func() {
		if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
			r.logger.LogAttrs(ctx, slog.LevelError, "rollback progress", errors.SlogError(rollbackErr))
		}
	}()

	if err = saveProgress(ctx, tx, playerID.String(), caseID, saved); err != nil {
		return errors.Wrap(err, "save progress", attrs...)
	}
	if err = tx.Commit(); err != nil {
		return errors.Wrap(err, "commit progress", attrs...)
	}
	return nil
}

func saveProgress(ctx context.Context, tx *sqlx.Tx, playerID, caseID string, saved game.Saved) error {
	stmt := `INSERT INTO case_progress (player_id, case_id, status) VALUES (?, ?, ?)
ON CONFLICT (player_id, case_id) DO UPDATE SET status = excluded.status,
                                               updated = STRFTIME('%Y-%m-%dT%H:%M:%fZ')`
	if _, err := tx.ExecContext(ctx, stmt, playerID, caseID, string(saved.Status)); err != nil {
		return errors.Wrap(err, "upsert case progress")
	}

	for _, table := range []string{"discovered_relations", "unlocked_evidence"} {
		//nolint:gosec // table names are constants.
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE player_id = ? AND case_id = ?",
			playerID, caseID); err != nil {
			return errors.Wrap(err, "clear progress rows", slog.String("table", table))
		}
	}

	for i, relationID := range saved.DiscoveredRelation {
		stmt = `INSERT INTO discovered_relations (player_id, case_id, relation_id, position) VALUES (?, ?, ?, ?)`
		if _, err := tx.ExecContext(ctx, stmt, playerID, caseID, relationID, i); err != nil {
			return errors.Wrap(err, "insert discovered relation", slog.String("relation_id", relationID))
		}
	}

	unread := make(map[string]struct{}, len(saved.UnreadEvidence))
	for _, id := range saved.UnreadEvidence {
		unread[id] = struct{}{}
	}
	for i, evidenceID := range saved.UnlockedEvidence {
		_, isUnread := unread[evidenceID]
		stmt = `INSERT INTO unlocked_evidence (player_id, case_id, evidence_id, position, unread) VALUES (?, ?, ?, ?, ?)`
		if _, err := tx.ExecContext(ctx, stmt, playerID, caseID, evidenceID, i, isUnread); err != nil {
			return errors.Wrap(err, "insert unlocked evidence", slog.String("evidence_id", evidenceID))
		}
	}
	return nil
}

// Load returns the stored progress. It fails with gameerr.ErrNotFound when nothing was saved.
func (r *ProgressRepository) Load(ctx context.Context, playerID uuid.UUID, caseID string) (game.Saved, error) {
	attrs := []slog.Attr{slog.String("player_id", playerID.String()), slog.String("case_id", caseID)}
	var (
		saved  game.Saved
		status string
	)
	err := r.db.ReadOnly.GetContext(ctx, &status,
		`SELECT status FROM case_progress WHERE player_id = ? AND case_id = ?`, playerID.String(), caseID)
	if errors.Is(err, sql.ErrNoRows) {
		return saved, errors.Wrap(gameerr.ErrNotFound, "no saved progress", attrs...)
	}
	if err != nil {
		return saved, errors.Wrap(err, "query case progress", attrs...)
	}
	saved.Status = cases.Status(status)

	if err = r.db.ReadOnly.SelectContext(ctx, &saved.DiscoveredRelation, `SELECT relation_id
FROM discovered_relations
WHERE player_id = ? AND case_id = ?
ORDER BY position`, playerID.String(), caseID); err != nil {
		return saved, errors.Wrap(err, "query discovered relations", attrs...)
	}

	var evidenceRows []struct {
		EvidenceID string `db:"evidence_id"`
		Unread     bool   `db:"unread"`
	}
	if err = r.db.ReadOnly.SelectContext(ctx, &evidenceRows, `SELECT evidence_id, unread
FROM unlocked_evidence
WHERE player_id = ? AND case_id = ?
ORDER BY position`, playerID.String(), caseID); err != nil {
		return saved, errors.Wrap(err, "query unlocked evidence", attrs...)
	}
	for _, row := range evidenceRows {
		saved.UnlockedEvidence = append(saved.UnlockedEvidence, row.EvidenceID)
		if row.Unread {
			saved.UnreadEvidence = append(saved.UnreadEvidence, row.EvidenceID)
		}
	}
	return saved, nil
}
