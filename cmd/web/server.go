package main

import (
	"context"
	"github.com/myrjola/deduce/internal/errors"
	"github.com/myrjola/deduce/internal/pprofserver"
	"golang.org/x/sync/errgroup"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// configureAndStartServer serves until ctx is done and then shuts the server down gracefully. The database
// optimizer, the idle game evictor and the optional pprof server share the lifetime of the web server.
func (app *application) configureAndStartServer(ctx context.Context, cfg config) error {
	idleTimeout := time.Minute
	defaultTimeout := 5 * time.Second //nolint:mnd // 5 seconds
	srv := &http.Server{ //nolint:exhaustruct // remaining fields keep their defaults
		ErrorLog:          slog.NewLogLogger(app.logger.Handler(), slog.LevelError),
		Handler:           app.routes(defaultTimeout),
		IdleTimeout:       idleTimeout,
		ReadTimeout:       defaultTimeout,
		WriteTimeout:      defaultTimeout,
		ReadHeaderTimeout: time.Second,
	}

	listener, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return errors.Wrap(err, "TCP listen", slog.String("listen_addr", cfg.Addr))
	}
	app.logger.LogAttrs(ctx, slog.LevelInfo, "starting server", slog.String("addr", listener.Addr().String()))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if serveErr := srv.Serve(listener); !errors.Is(serveErr, http.ErrServerClosed) {
			return errors.Wrap(serveErr, "server serve")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		app.logger.LogAttrs(ctx, slog.LevelInfo, "shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
		defer cancel()
		if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
			return errors.Wrap(shutdownErr, "shutdown server")
		}
		return nil
	})
	g.Go(func() error {
		app.db.RunOptimizer(gctx, cfg.OptimizeInterval)
		return nil
	})
	if cfg.GameIdleTimeout > 0 {
		g.Go(func() error {
			app.games.runEvictor(gctx)
			return nil
		})
	}
	if cfg.PprofPort != "" {
		g.Go(func() error {
			return pprofserver.Serve(gctx, cfg.PprofPort, app.logger)
		})
	}

	return errors.Wrap(g.Wait(), "serve")
}
