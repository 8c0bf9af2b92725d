package main

import (
	"fmt"
	"github.com/google/uuid"
	"github.com/justinas/nosurf"
	"github.com/myrjola/deduce/internal/contexthelpers"
	"github.com/myrjola/deduce/internal/errors"
	"github.com/myrjola/deduce/internal/logging"
	"github.com/myrjola/deduce/internal/random"
	"log/slog"
	"net/http"
)

const nonceLength = 24

func secureHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nonce, err := random.Letters(nonceLength)
		if err != nil {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		r = contexthelpers.SetCSPNonce(r, nonce)

		w.Header().Set("Content-Security-Policy",
			fmt.Sprintf(`default-src 'self'; script-src 'nonce-%[1]s' 'strict-dynamic'; style-src 'nonce-%[1]s';
				   object-src 'none';
				   base-uri 'none';`, nonce))

		w.Header().Set("Referrer-Policy", "origin-when-cross-origin")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "deny")
		w.Header().Set("X-XSS-Protection", "0")

		next.ServeHTTP(w, r)
	})
}

func (app *application) logRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var (
			proto  = r.Proto
			method = r.Method
			uri    = r.URL.RequestURI()
		)

		app.logger.LogAttrs(r.Context(), slog.LevelDebug, "received request",
			slog.String("proto", proto), slog.String("method", method), slog.String("uri", uri))

		next.ServeHTTP(w, r)
	})
}

func (app *application) recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				w.Header().Set("Connection", "close")
				app.serverError(w, r, fmt.Errorf("%s", err))
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// identifyPlayer binds the browser session to a player. A new player is created on the first visit.
func (app *application) identifyPlayer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		playerID, err := uuid.Parse(app.sessionManager.GetString(ctx, playerIDSessionKey))
		if err != nil {
			playerID = uuid.New()
			if err = app.players.Ensure(ctx, playerID); err != nil {
				app.serverError(w, r, errors.Wrap(err, "create player"))
				return
			}
			app.sessionManager.Put(ctx, playerIDSessionKey, playerID.String())
			app.logger.LogAttrs(ctx, slog.LevelInfo, "new player", slog.String("player_id", playerID.String()))
		}

		r = r.WithContext(logging.WithAttrs(ctx, slog.String("player_id", playerID.String())))
		next.ServeHTTP(w, contexthelpers.SetPlayerID(r, playerID))
	})
}

func commonContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r = contexthelpers.SetCurrentPath(r, r.URL.Path)
		r = contexthelpers.SetCSRFToken(r, nosurf.Token(r))
		next.ServeHTTP(w, r)
	})
}

// noSurf implements CSRF protection using https://github.com/justinas/nosurf
func noSurf(next http.Handler) http.Handler {
	csrfHandler := nosurf.New(next)
	csrfHandler.SetBaseCookie(http.Cookie{ //nolint:exhaustruct // only the security attributes are set
		HttpOnly: true,
		Path:     "/",
		Secure:   true,
	})
	return csrfHandler
}
