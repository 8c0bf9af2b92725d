package main

import (
	"github.com/google/uuid"
	"github.com/myrjola/deduce/internal/cases"
	"github.com/myrjola/deduce/internal/contexthelpers"
	"github.com/myrjola/deduce/internal/errors"
	"github.com/myrjola/deduce/internal/game"
	"net/http"
)

type playTemplateData struct {
	BaseTemplateData
	Game      game.Snapshot
	CanSubmit bool
}

// currentGame returns the game the session is playing and the func releasing it. It answers the request itself and
// returns false when there is no such game.
func (app *application) currentGame(w http.ResponseWriter, r *http.Request) (uuid.UUID, *game.Game, func(), bool) {
	ctx := r.Context()
	playerID, _ := contexthelpers.PlayerID(ctx)
	caseID := app.sessionManager.GetString(ctx, caseIDSessionKey)
	if caseID == "" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return playerID, nil, nil, false
	}
	g, release, err := app.games.get(ctx, playerID, caseID)
	if err != nil {
		app.serverError(w, r, err)
		return playerID, nil, nil, false
	}
	return playerID, g, release, true
}

// command runs fn against the current game, saves the progress and sends the player back to /play.
func (app *application) command(w http.ResponseWriter, r *http.Request, refusal string, fn func(*game.Game) error) {
	if err := r.ParseForm(); err != nil {
		app.clientError(w, r, http.StatusBadRequest)
		return
	}
	playerID, g, release, ok := app.currentGame(w, r)
	if !ok {
		return
	}
	defer release()
	err := fn(g)
	if err == nil {
		err = app.games.save(r.Context(), playerID, g)
	}
	app.redirectToPlay(w, r, err, refusal)
}

func (app *application) play(w http.ResponseWriter, r *http.Request) {
	_, g, release, ok := app.currentGame(w, r)
	if !ok {
		return
	}
	defer release()
	snapshot, err := g.Snapshot(r.Context())
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	app.render(w, r, http.StatusOK, "play", playTemplateData{
		BaseTemplateData: app.newBaseTemplateData(r),
		Game:             snapshot,
		CanSubmit:        snapshot.Progress.Status == cases.StatusReadyForSubmission,
	})
}

func (app *application) talk(w http.ResponseWriter, r *http.Request) {
	app.command(w, r, "You cannot talk to them right now.", func(g *game.Game) error {
		return g.Talk(r.Context(), r.PostForm.Get("dialogue"))
	})
}

func (app *application) continueInterrogation(w http.ResponseWriter, r *http.Request) {
	app.command(w, r, "There is nothing more to hear.", func(g *game.Game) error {
		_, err := g.Continue()
		return err //nolint:wrapcheck // annotated by the game
	})
}

func (app *application) choose(w http.ResponseWriter, r *http.Request) {
	app.command(w, r, "That is not an option.", func(g *game.Game) error {
		ok, err := g.Choose(r.PostForm.Get("choice"))
		if err == nil && !ok {
			app.sessionManager.Put(r.Context(), flashSessionKey, "That is not an option.")
		}
		return err //nolint:wrapcheck // annotated by the game
	})
}

func (app *application) selectAnchor(w http.ResponseWriter, r *http.Request) {
	app.command(w, r, "You cannot use that yet.", func(g *game.Game) error {
		state, err := g.Select(r.Context(), r.PostForm.Get("anchor"))
		if err != nil {
			return err //nolint:wrapcheck // annotated by the game
		}
		if result := state.LastResult; result != nil && !result.HasMatch() {
			app.sessionManager.Put(r.Context(), flashSessionKey, "These facts do not connect.")
		}
		return nil
	})
}

func (app *application) clearSelection(w http.ResponseWriter, r *http.Request) {
	app.command(w, r, "", func(g *game.Game) error {
		g.ClearSelection()
		return nil
	})
}

func (app *application) markEvidenceRead(w http.ResponseWriter, r *http.Request) {
	app.command(w, r, "There is no such evidence.", func(g *game.Game) error {
		return g.MarkEvidenceRead(r.PostForm.Get("evidence"))
	})
}

func (app *application) submit(w http.ResponseWriter, r *http.Request) {
	app.command(w, r, "The case is not ready to be submitted.", func(g *game.Game) error {
		if err := g.Submit(); err != nil {
			return errors.Wrap(err, "submit case")
		}
		return nil
	})
}
