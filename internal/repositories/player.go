package repositories

import (
	"context"
	"github.com/google/uuid"
	"github.com/myrjola/deduce/internal/errors"
	"github.com/myrjola/deduce/internal/sqlite"
	"log/slog"
)

type PlayerRepository struct {
	db     *sqlite.Database
	logger *slog.Logger
}

func NewPlayerRepository(db *sqlite.Database, logger *slog.Logger) *PlayerRepository {
	return &PlayerRepository{
		db:     db,
		logger: logger.With("source", "PlayerRepository"),
	}
}

// Ensure creates the player unless it already exists.
func (r *PlayerRepository) Ensure(ctx context.Context, playerID uuid.UUID) error {
	stmt := `INSERT INTO players (id) VALUES (?) ON CONFLICT (id) DO NOTHING`
	if _, err := r.db.ReadWrite.ExecContext(ctx, stmt, playerID.String()); err != nil {
		return errors.Wrap(err, "insert player", slog.String("player_id", playerID.String()))
	}
	return nil
}

func (r *PlayerRepository) Exists(ctx context.Context, playerID uuid.UUID) (bool, error) {
	var exists bool
	stmt := `SELECT EXISTS (SELECT 1 FROM players WHERE id = ?)`
	if err := r.db.ReadOnly.GetContext(ctx, &exists, stmt, playerID.String()); err != nil {
		return false, errors.Wrap(err, "query player", slog.String("player_id", playerID.String()))
	}
	return exists, nil
}
