package main

import (
	"context"
	"fmt"
	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/joho/godotenv"
	"github.com/myrjola/deduce/casefiles"
	"github.com/myrjola/deduce/internal/content"
	"github.com/myrjola/deduce/internal/envstruct"
	"github.com/myrjola/deduce/internal/errors"
	"github.com/myrjola/deduce/internal/logging"
	"github.com/myrjola/deduce/internal/repositories"
	"github.com/myrjola/deduce/internal/sqlite"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"
)

type config struct {
	// Addr is the address the web server listens on. Use localhost:0 for a random port.
	Addr string `env:"DEDUCE_ADDR" envDefault:"localhost:4000"`
	// SQLiteURL is the database file. ":memory:" keeps everything in memory.
	SQLiteURL string `env:"DEDUCE_SQLITE_URL" envDefault:"./deduce.sqlite3"`
	// ContentDir holds the cases. The cases bundled with the binary are used when empty.
	ContentDir string `env:"DEDUCE_CONTENT_DIR" envDefault:""`
	LogLevel   string `env:"DEDUCE_LOG_LEVEL" envDefault:"info"`
	// PprofPort enables the pprof server on the loopback interface when set.
	PprofPort        string        `env:"DEDUCE_PPROF_PORT" envDefault:""`
	OptimizeInterval time.Duration `env:"DEDUCE_OPTIMIZE_INTERVAL" envDefault:"1h"`
	SessionLifetime  time.Duration `env:"DEDUCE_SESSION_LIFETIME" envDefault:"720h"`
	// GameIdleTimeout is how long an untouched game stays in memory. Zero keeps games until shutdown.
	GameIdleTimeout time.Duration `env:"DEDUCE_GAME_IDLE_TIMEOUT" envDefault:"30m"`
}

func loadConfig(lookupEnv func(string) (string, bool)) (config, error) {
	var cfg config
	if err := envstruct.Populate(&cfg, lookupEnv); err != nil {
		return cfg, errors.Wrap(err, "populate config")
	}
	return cfg, nil
}

type application struct {
	logger         *slog.Logger
	db             *sqlite.Database
	sessionManager *scs.SessionManager
	library        *content.Library
	players        *repositories.PlayerRepository
	games          *gameRegistry
}

func run(ctx context.Context, logger *slog.Logger, lookupEnv func(string) (string, bool)) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(lookupEnv)
	if err != nil {
		return err
	}

	library := content.New(casefiles.Open(cfg.ContentDir), logger)
	caseIDs, err := library.CaseIDs(ctx)
	if err != nil {
		return errors.Wrap(err, "list cases", slog.String("content_dir", cfg.ContentDir))
	}
	for _, caseID := range caseIDs {
		if err = library.Validate(ctx, caseID); err != nil {
			return errors.Wrap(err, "validate case", slog.String("case_id", caseID))
		}
	}
	logger.LogAttrs(ctx, slog.LevelInfo, "loaded cases", slog.Any("case_ids", caseIDs))

	db, err := sqlite.NewDatabase(ctx, cfg.SQLiteURL, logger)
	if err != nil {
		return errors.Wrap(err, "open database", slog.String("url", cfg.SQLiteURL))
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			logger.LogAttrs(ctx, slog.LevelError, "close database", errors.SlogError(closeErr))
		}
	}()

	sessionStore := sqlite3store.NewWithCleanupInterval(db.ReadWrite.DB, 30*time.Minute) //nolint:mnd // half an hour
	defer sessionStore.StopCleanup()
	sessionManager := scs.New()
	sessionManager.Store = sessionStore
	sessionManager.Lifetime = cfg.SessionLifetime

	app := application{
		logger:         logger,
		db:             db,
		sessionManager: sessionManager,
		library:        library,
		players:        repositories.NewPlayerRepository(db, logger),
		games: newGameRegistry(library, repositories.NewTranscriptRepository(db, logger),
			repositories.NewProgressRepository(db, logger), cfg.GameIdleTimeout, logger),
	}
	defer app.games.closeAll()

	return app.configureAndStartServer(ctx, cfg)
}

func main() {
	ctx := context.Background()
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	cfg, err := loadConfig(os.LookupEnv)
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := logging.New(os.Stdout, level)

	if err = run(ctx, logger, os.LookupEnv); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "failure starting application", errors.SlogError(err))
		os.Exit(1)
	}
}
