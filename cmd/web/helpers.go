package main

import (
	"github.com/myrjola/deduce/internal/errors"
	"github.com/myrjola/deduce/internal/gameerr"
	"log/slog"
	"net/http"
)

const (
	playerIDSessionKey = "playerID"
	caseIDSessionKey   = "caseID"
	flashSessionKey    = "flash"
)

func (app *application) serverError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		method = r.Method
		uri    = r.URL.RequestURI()
	)

	app.logger.LogAttrs(r.Context(), slog.LevelError, "server error",
		slog.String("method", method), slog.String("uri", uri), errors.SlogError(err))
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func (app *application) clientError(w http.ResponseWriter, r *http.Request, status int) {
	var (
		method = r.Method
		uri    = r.URL.RequestURI()
	)

	app.logger.LogAttrs(r.Context(), slog.LevelDebug, http.StatusText(status),
		slog.String("method", method), slog.String("uri", uri), slog.Any("formdata", r.PostForm))
	http.Error(w, http.StatusText(status), status)
}

func (app *application) notFound(w http.ResponseWriter, r *http.Request) {
	app.clientError(w, r, http.StatusNotFound)
}

// redirectToPlay answers a play command. Refused commands are reported to the player with a flash message and
// anything else is a server error.
func (app *application) redirectToPlay(w http.ResponseWriter, r *http.Request, err error, refusal string) {
	switch {
	case err == nil:
	case errors.Is(err, gameerr.ErrInvalidArgument), errors.Is(err, gameerr.ErrInvalidState):
		app.logger.LogAttrs(r.Context(), slog.LevelDebug, "command refused", errors.SlogError(err))
		app.sessionManager.Put(r.Context(), flashSessionKey, refusal)
	default:
		app.serverError(w, r, err)
		return
	}
	http.Redirect(w, r, "/play", http.StatusSeeOther)
}
