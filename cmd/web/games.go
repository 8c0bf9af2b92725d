package main

import (
	"context"
	"github.com/google/uuid"
	"github.com/myrjola/deduce/internal/content"
	"github.com/myrjola/deduce/internal/errors"
	"github.com/myrjola/deduce/internal/game"
	"github.com/myrjola/deduce/internal/gameerr"
	"github.com/myrjola/deduce/internal/repositories"
	"log/slog"
	"strings"
	"sync"
	"time"
)

type gameKey struct {
	playerID uuid.UUID
	caseID   string
}

type gameEntry struct {
	// ready is closed once game or err is set.
	ready    chan struct{}
	game     *game.Game
	err      error
	users    int
	lastUsed time.Time
}

// gameRegistry keeps the games being played in memory. A game not in memory is rebuilt from the saved progress and
// the transcripts in the database, so games idle for longer than idleTimeout are dropped.
type gameRegistry struct {
	mu          sync.Mutex
	games       map[gameKey]*gameEntry
	library     *content.Library
	transcripts *repositories.TranscriptRepository
	progress    *repositories.ProgressRepository
	logger      *slog.Logger
	idleTimeout time.Duration
	now         func() time.Time
}

func newGameRegistry(
	library *content.Library,
	transcripts *repositories.TranscriptRepository,
	progress *repositories.ProgressRepository,
	idleTimeout time.Duration,
	logger *slog.Logger,
) *gameRegistry {
	return &gameRegistry{ //nolint:exhaustruct // zero mutex
		games:       make(map[gameKey]*gameEntry),
		library:     library,
		transcripts: transcripts,
		progress:    progress,
		logger:      logger.With("source", "gameRegistry"),
		idleTimeout: idleTimeout,
		now:         time.Now,
	}
}

// get returns the game of the player, creating it on first use. The game stays in memory at least until release
// is called.
func (r *gameRegistry) get(ctx context.Context, playerID uuid.UUID, caseID string) (*game.Game, func(), error) {
	key := gameKey{playerID: playerID, caseID: strings.ToLower(caseID)}

	r.mu.Lock()
	entry, found := r.games[key]
	if !found {
		entry = &gameEntry{ready: make(chan struct{}), game: nil, err: nil, users: 0, lastUsed: time.Time{}}
		r.games[key] = entry
	}
	entry.users++
	entry.lastUsed = r.now()
	r.mu.Unlock()
	release := func() { r.release(entry) }

	if found {
		select {
		case <-entry.ready:
		case <-ctx.Done():
			release()
			return nil, nil, errors.Wrap(context.Cause(ctx), "wait for game")
		}
	} else {
		entry.game, entry.err = r.load(ctx, playerID, caseID)
		if entry.err != nil {
			r.mu.Lock()
			if r.games[key] == entry {
				delete(r.games, key)
			}
			r.mu.Unlock()
		}
		close(entry.ready)
	}
	if entry.err != nil {
		release()
		return nil, nil, entry.err
	}
	return entry.game, release, nil
}

func (r *gameRegistry) release(entry *gameEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry.users--
	entry.lastUsed = r.now()
}

func (r *gameRegistry) load(ctx context.Context, playerID uuid.UUID, caseID string) (*game.Game, error) {
	deps := game.LibraryDeps(r.library, r.transcripts.ForPlayer(playerID), r.logger)
	g, err := game.New(ctx, deps, caseID)
	if err != nil {
		return nil, errors.Wrap(err, "new game")
	}
	saved, err := r.progress.Load(ctx, playerID, g.CaseID())
	switch {
	case errors.Is(err, gameerr.ErrNotFound):
		r.logger.LogAttrs(ctx, slog.LevelDebug, "new game", slog.String("case_id", g.CaseID()))
	case err != nil:
		g.Close()
		return nil, errors.Wrap(err, "load progress")
	default:
		if err = g.Restore(saved); err != nil {
			g.Close()
			return nil, errors.Wrap(err, "restore progress")
		}
		r.logger.LogAttrs(ctx, slog.LevelDebug, "restored game", slog.String("case_id", g.CaseID()),
			slog.String("status", string(saved.Status)))
	}
	return g, nil
}

// evictIdle closes the games nobody has used for idleTimeout and returns how many it closed. A running
// interrogation of an evicted game is lost. Everything else was saved by the last command.
func (r *gameRegistry) evictIdle() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	evicted := 0
	for key, entry := range r.games {
		select {
		case <-entry.ready:
		default:
			continue
		}
		if entry.game == nil || entry.users > 0 || now.Sub(entry.lastUsed) < r.idleTimeout {
			continue
		}
		entry.game.Close()
		delete(r.games, key)
		evicted++
	}
	return evicted
}

// runEvictor evicts idle games until ctx is done.
func (r *gameRegistry) runEvictor(ctx context.Context) {
	interval := r.idleTimeout / 2 //nolint:mnd // twice per timeout
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
			if n := r.evictIdle(); n > 0 {
				r.logger.LogAttrs(ctx, slog.LevelDebug, "evicted idle games", slog.Int("count", n))
			}
		}
	}
}

// save stores the progress of g so that it survives restarts.
func (r *gameRegistry) save(ctx context.Context, playerID uuid.UUID, g *game.Game) error {
	if err := r.progress.Save(ctx, playerID, g.CaseID(), g.Save()); err != nil {
		return errors.Wrap(err, "save progress")
	}
	return nil
}

// status reports the saved status of a case, or an empty status when the player has not opened it.
func (r *gameRegistry) status(ctx context.Context, playerID uuid.UUID, caseID string) (string, error) {
	saved, err := r.progress.Load(ctx, playerID, caseID)
	if errors.Is(err, gameerr.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrap(err, "load progress")
	}
	return string(saved.Status), nil
}

func (r *gameRegistry) closeAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, entry := range r.games {
		select {
		case <-entry.ready:
			if entry.game != nil {
				entry.game.Close()
			}
		default:
		}
		delete(r.games, key)
	}
}
