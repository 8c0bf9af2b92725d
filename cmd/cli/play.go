package main

import (
	"context"
	"fmt"
	"github.com/google/uuid"
	"github.com/myrjola/deduce/internal/errors"
	"github.com/myrjola/deduce/internal/game"
	"github.com/myrjola/deduce/internal/gameerr"
	"github.com/myrjola/deduce/internal/repositories"
	"github.com/myrjola/deduce/internal/sqlite"
	"github.com/myrjola/deduce/internal/transcript"
	"github.com/spf13/cobra"
	"io"
	"log/slog"
)

var playGroup = &cobra.Group{
	ID:    "play",
	Title: "Playing",
}

func newPlayCmd(opts *options) *cobra.Command {
	var (
		player string
		dbURL  = opts.SQLiteURL
	)
	cmd := &cobra.Command{ //nolint:exhaustruct // cobra commands set only what they use
		Use:     "play <case>",
		GroupID: playGroup.ID,
		Short:   "Play a case in the terminal",
		Long: `Plays a case with line commands read from standard input. Type help for the commands.

Progress is kept only in memory unless --db is given. With a database, --player resumes the progress of an
earlier game and a new player is created when it is omitted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger, err := opts.logger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			store := transcript.Store(transcript.NewMemoryStore())
			var progress *playerProgress
			if dbURL != "" {
				db, dbErr := sqlite.NewDatabase(ctx, dbURL, logger)
				if dbErr != nil {
					return errors.Wrap(dbErr, "open database", slog.String("url", dbURL))
				}
				defer func() {
					_ = db.Close()
				}()
				playerID, playerErr := ensurePlayer(ctx, repositories.NewPlayerRepository(db, logger), player)
				if playerErr != nil {
					return playerErr
				}
				_, _ = fmt.Fprintf(out, "Playing as %s\n", playerID)
				store = repositories.NewTranscriptRepository(db, logger).ForPlayer(playerID)
				progress = &playerProgress{repo: repositories.NewProgressRepository(db, logger), playerID: playerID}
			}

			g, err := game.New(ctx, game.LibraryDeps(opts.library(logger), store, logger), args[0])
			if err != nil {
				return errors.Wrap(err, "open case")
			}
			defer g.Close()
			if err = progress.restore(ctx, g); err != nil {
				return err
			}
			return newREPL(g, out, progress.save).run(ctx, cmd.InOrStdin())
		},
	}
	cmd.Flags().StringVar(&player, "player", "", "player id to resume, requires --db")
	cmd.Flags().StringVar(&dbURL, "db", dbURL, "SQLite database keeping the progress")
	return cmd
}

func ensurePlayer(ctx context.Context, players *repositories.PlayerRepository, player string) (uuid.UUID, error) {
	playerID := uuid.New()
	if player != "" {
		var err error
		if playerID, err = uuid.Parse(player); err != nil {
			return uuid.Nil, errors.Join(gameerr.ErrInvalidArgument, errors.Wrap(err, "parse player id"))
		}
	}
	if err := players.Ensure(ctx, playerID); err != nil {
		return uuid.Nil, errors.Wrap(err, "ensure player")
	}
	return playerID, nil
}

// playerProgress saves the progress of one player. A nil playerProgress keeps nothing.
type playerProgress struct {
	repo     *repositories.ProgressRepository
	playerID uuid.UUID
}

func (p *playerProgress) restore(ctx context.Context, g *game.Game) error {
	if p == nil {
		return nil
	}
	saved, err := p.repo.Load(ctx, p.playerID, g.CaseID())
	if errors.Is(err, gameerr.ErrNotFound) {
		return p.save(ctx, g)
	}
	if err != nil {
		return errors.Wrap(err, "load progress")
	}
	return errors.Wrap(g.Restore(saved), "restore progress")
}

func (p *playerProgress) save(ctx context.Context, g *game.Game) error {
	if p == nil {
		return nil
	}
	return errors.Wrap(p.repo.Save(ctx, p.playerID, g.CaseID(), g.Save()), "save progress")
}

func newTranscriptCmd(opts *options) *cobra.Command {
	var (
		player string
		dbURL  = opts.SQLiteURL
	)
	cmd := &cobra.Command{ //nolint:exhaustruct // cobra commands set only what they use
		Use:     "transcript <case>",
		GroupID: playGroup.ID,
		Short:   "Print what a player has heard in a case",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if dbURL == "" {
				return errors.Wrap(gameerr.ErrInvalidArgument, "--db is required")
			}
			playerID, err := uuid.Parse(player)
			if err != nil {
				return errors.Join(gameerr.ErrInvalidArgument, errors.Wrap(err, "parse player id"))
			}
			logger, err := opts.logger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			db, err := sqlite.NewDatabase(ctx, dbURL, logger)
			if err != nil {
				return errors.Wrap(err, "open database", slog.String("url", dbURL))
			}
			defer func() {
				_ = db.Close()
			}()

			lines, err := repositories.NewTranscriptRepository(db, logger).ForPlayer(playerID).CaseLines(ctx, args[0])
			if err != nil {
				return errors.Wrap(err, "read transcript")
			}
			printLines(cmd.OutOrStdout(), lines)
			return nil
		},
	}
	cmd.Flags().StringVar(&player, "player", "", "player id")
	cmd.Flags().StringVar(&dbURL, "db", dbURL, "SQLite database keeping the progress")
	_ = cmd.MarkFlagRequired("player")
	return cmd
}

func printLines(w io.Writer, lines []transcript.Line) {
	for _, l := range lines {
		_, _ = fmt.Fprintf(w, "%s#%d %s: %s\n", l.TranscriptID, l.Index, l.SpeakerID, l.Text)
	}
}
